package dataprocessing

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"

	stockerrors "stockstats/internal/errors"
)

// ContentTypeZip is the Content-Type the provider uses for zipped payloads
const ContentTypeZip = "application/zip"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// PayloadKind tells the decoder how a downloaded file is packaged
type PayloadKind int

const (
	// PayloadPlainCSV is a CSV file as-is
	PayloadPlainCSV PayloadKind = iota
	// PayloadZipArchive is a ZIP archive holding exactly one CSV file
	PayloadZipArchive
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadZipArchive:
		return "zip"
	default:
		return "csv"
	}
}

// Payload is a downloaded file together with its packaging
type Payload struct {
	Kind PayloadKind
	Path string
}

// DetectPayload classifies the file at path from the response headers.
// A Content-Type of application/zip (parameters ignored) selects the archive kind.
func DetectPayload(headers http.Header, path string) Payload {
	kind := PayloadPlainCSV
	if isZipContentType(headers.Get("Content-Type")) {
		kind = PayloadZipArchive
	}
	return Payload{Kind: kind, Path: path}
}

func isZipContentType(value string) bool {
	if value == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return false
	}
	return mediaType == ContentTypeZip
}

// Decode reads the payload into CSV rows. Every file handle opened here is
// closed before returning.
func Decode(p Payload) ([][]string, error) {
	switch p.Kind {
	case PayloadZipArchive:
		return decodeZip(p.Path)
	default:
		return decodeFile(p.Path)
	}
}

func decodeFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, stockerrors.NewParsingError(stockerrors.MsgCSVParsing, err).
			WithContext("path", path)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, stockerrors.NewParsingError(stockerrors.MsgCSVParsing, err).
			WithContext("path", path)
	}
	return rows, nil
}

func decodeZip(path string) ([][]string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, stockerrors.NewArchiveError(stockerrors.MsgZipExtraction, err).
			WithContext("path", path)
	}
	defer archive.Close()

	if len(archive.File) != 1 {
		return nil, stockerrors.NewArchiveError(stockerrors.MsgMultiFileArchive, nil).
			WithContext("path", path).
			WithContext("entries", len(archive.File))
	}

	entry := archive.File[0]
	rc, err := entry.Open()
	if err != nil {
		return nil, stockerrors.NewArchiveError(stockerrors.MsgZipExtraction, err).
			WithContext("path", path).
			WithContext("entry", entry.Name)
	}
	defer rc.Close()

	rows, err := ReadCSV(rc)
	if err != nil {
		// Only a real CSV syntax error is a parsing failure; anything else
		// came out of the decompressor.
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, stockerrors.NewParsingError(stockerrors.MsgCSVParsing, err).
				WithContext("entry", entry.Name)
		}
		return nil, stockerrors.NewArchiveError(stockerrors.MsgZipExtraction, err).
			WithContext("path", path).
			WithContext("entry", entry.Name)
	}
	return rows, nil
}

// ReadCSV reads all rows of an excel-dialect CSV stream: comma separated,
// double-quote quoting, CRLF or LF line endings. A leading UTF-8 BOM is
// dropped and rows may have differing field counts.
func ReadCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return rows, nil
}
