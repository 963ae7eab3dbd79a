package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/roach88/optsql/internal/document"
)

// Error codes reported by the CLI. E001-E009 are shared with document
// loading.
const (
	ErrCodeGeneric     = document.ErrCodeGeneric     // Generic/unknown error
	ErrCodeLoadFailed  = document.ErrCodeLoadFailed  // File could not be read
	ErrCodeNotFound    = document.ErrCodeNotFound    // Path or record not found
	ErrCodeBuildFailed = document.ErrCodeBuildFailed // CUE build failed
	ErrCodeWriteFailed = "E007"                      // File write error
	ErrCodeBadFormat   = document.ErrCodeBadFormat   // Unsupported document extension
	ErrCodeDecode      = document.ErrCodeDecode      // Document does not decode

	ErrCodeMainTable  = "E010" // Main table does not resolve to a source
	ErrCodeIncomplete = "E011" // Query option has completeness issues
	ErrCodeSQLSyntax  = "E012" // Compiled SQL rejected by the parser

	ErrCodeStore      = "E020" // Catalog store failure
	ErrCodeNoDatabase = "E021" // No catalog path configured

	ErrCodeTestFailed = "E030" // One or more scenarios failed
)

// StdinPath names standard input as the document path. The stream is
// decoded as YAML, which also accepts JSON.
const StdinPath = "-"

// loadDocument loads a query document and returns its error code on
// failure.
func loadDocument(path string, stdin io.Reader) (*document.Document, string, error) {
	var doc *document.Document
	var err error
	if path == StdinPath {
		doc, err = document.Read(stdin, document.FormatYAML)
	} else {
		doc, err = document.Load(path)
	}
	if err != nil {
		return nil, documentErrorCode(err), err
	}
	return doc, "", nil
}

// documentErrorCode extracts the error code from a document error.
func documentErrorCode(err error) string {
	var loadErr *document.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}

// documentFailure reports a document load error and returns the exit error.
func documentFailure(formatter *OutputFormatter, code string, err error) error {
	message := err.Error()
	var loadErr *document.LoadError
	if errors.As(err, &loadErr) {
		message = loadErr.Message
		if loadErr.Pos.IsValid() {
			message = fmt.Sprintf("%s:%d:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column(), message)
		} else if loadErr.Path != "" {
			message = fmt.Sprintf("%s: %s", loadErr.Path, message)
		}
	}
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: failed to load document", code), err)
}
