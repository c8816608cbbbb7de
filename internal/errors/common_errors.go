package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNetwork    ErrorType = "NETWORK"
	ErrTypeArchive    ErrorType = "ARCHIVE"
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeData       ErrorType = "DATA"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// Messages carried by StockError at the retrieval boundary
const (
	MsgNetwork           = "Network error"
	MsgZipExtraction     = "Error extracting ZIP data"
	MsgMultiFileArchive  = "unexpected multi-file archive"
	MsgCSVParsing        = "Error parsing CSV"
	MsgDataEncoding      = "Data encoding error"
	MsgEmptyTimeSeries   = "empty time series"
	MsgNoSymbols         = "no symbols given"
	MsgInvalidDateRange  = "start date is after end date"
	MsgInvalidStatistics = "unknown statistic"
)

// StockError is the single error kind surfaced by data retrieval and analysis
type StockError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *StockError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the cause
func (e *StockError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *StockError) WithContext(key string, value interface{}) *StockError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewStockError creates a new stock error
func NewStockError(errType ErrorType, message string, cause error) *StockError {
	return &StockError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewNetworkError wraps a transport failure
func NewNetworkError(cause error) *StockError {
	return NewStockError(ErrTypeNetwork, MsgNetwork, cause)
}

// NewArchiveError creates an archive extraction error
func NewArchiveError(message string, cause error) *StockError {
	return NewStockError(ErrTypeArchive, message, cause)
}

// NewParsingError creates a decoding error
func NewParsingError(message string, cause error) *StockError {
	return NewStockError(ErrTypeParsing, message, cause)
}

// NewValidationError creates an error for a malformed query
func NewValidationError(message string) *StockError {
	return NewStockError(ErrTypeValidation, message, nil)
}

// NewDataError creates an error for data that cannot produce a result
func NewDataError(message string) *StockError {
	return NewStockError(ErrTypeData, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *StockError {
	return NewStockError(ErrTypeConfig, message, cause)
}

// IsStockError reports whether err is or wraps a StockError
func IsStockError(err error) bool {
	var se *StockError
	return errors.As(err, &se)
}

// TypeOf returns the type of the outermost StockError in err's chain
func TypeOf(err error) (ErrorType, bool) {
	var se *StockError
	if errors.As(err, &se) {
		return se.Type, true
	}
	return "", false
}

// IsType reports whether err carries a StockError of the given type
func IsType(err error, errType ErrorType) bool {
	t, ok := TypeOf(err)
	return ok && t == errType
}

// Is forwards to the standard library so callers need a single errors import
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As forwards to the standard library
func As(err error, target any) bool {
	return errors.As(err, target)
}
