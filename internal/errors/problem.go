package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON flattens extensions into the top-level object
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{}, len(pd.Extensions)+5)
	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status
	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}
	for k, v := range pd.Extensions {
		data[k] = v
	}
	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	if pd.Extensions == nil {
		pd.Extensions = make(map[string]interface{})
	}
	pd.Extensions[key] = value
	return pd
}

// stockProblem describes how a StockError type is presented over HTTP
type stockProblem struct {
	status      int
	problemType string
	title       string
}

var stockProblems = map[ErrorType]stockProblem{
	ErrTypeNetwork:    {http.StatusBadGateway, TypeUpstream, "Data Provider Unreachable"},
	ErrTypeArchive:    {http.StatusBadGateway, TypeDataCorrupted, "Provider Archive Invalid"},
	ErrTypeParsing:    {http.StatusBadGateway, TypeDataCorrupted, "Provider Data Invalid"},
	ErrTypeValidation: {http.StatusBadRequest, TypeValidation, "Validation Failed"},
	ErrTypeData:       {http.StatusUnprocessableEntity, TypeDataNotFound, "No Data"},
	ErrTypeConfig:     {http.StatusInternalServerError, TypeInternal, "Configuration Error"},
}

// MapStockError converts a StockError to problem details.
// The second return is false when err carries no StockError.
func MapStockError(err error, instance string) (*ProblemDetails, bool) {
	var se *StockError
	if !As(err, &se) {
		return nil, false
	}

	p, ok := stockProblems[se.Type]
	if !ok {
		p = stockProblem{http.StatusInternalServerError, TypeInternal, "Internal Server Error"}
	}

	problem := NewProblemDetails(p.status, p.problemType, p.title, se.Message, instance).
		WithExtension("error_type", string(se.Type))
	if symbol, ok := se.Context["symbol"]; ok {
		problem.WithExtension("symbol", symbol)
	}
	return problem, true
}
