// Package document loads query documents: a source catalog plus one query
// option, written as JSON, YAML or CUE.
//
// All three formats share the JSON field names of the queryopt types:
//
//	sources:
//	  - {id: s1, name: Orders, table_name: orders}
//	query:
//	  table: s1
//	  fields:
//	    - {field_name: id, field_mapping: id, source_id: s1}
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/optsql/internal/queryopt"
)

// Document is the unit the CLI and the harness compile.
type Document struct {
	Sources []queryopt.Source    `json:"sources"`
	Query   queryopt.QueryOption `json:"query"`
}

// Format is an input encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// Error codes for document loading.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeLoadFailed  = "E004" // File could not be read
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build or validation failed
	ErrCodeBadFormat   = "E008" // Unsupported file extension
	ErrCodeDecode      = "E009" // Content does not decode into a document
)

// LoadError describes a document that could not be loaded.
type LoadError struct {
	Code    string
	Message string
	Path    string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".cue":
		return FormatCUE, true
	default:
		return "", false
	}
}

// Load reads a document from a file, choosing the decoder by extension.
func Load(path string) (*Document, error) {
	format, ok := FormatFor(path)
	if !ok {
		return nil, &LoadError{Code: ErrCodeBadFormat, Path: path,
			Message: fmt.Sprintf("unsupported extension %q (want .json, .yaml, .yml or .cue)", filepath.Ext(path))}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "document not found"}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: err.Error()}
	}

	doc, err := parse(data, format, path)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Path == "" {
			loadErr.Path = path
		}
		return nil, err
	}
	return doc, nil
}

// Read decodes a document of the given format from r.
func Read(r io.Reader, format Format) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	return Parse(data, format)
}

// Parse decodes a document from bytes.
func Parse(data []byte, format Format) (*Document, error) {
	return parse(data, format, "")
}

// FromValue builds a document from an already decoded tree, such as the
// inline sources and query of a harness scenario.
func FromValue(v any) (*Document, error) {
	tree, err := jsonCompatible(v)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error()}
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error()}
	}
	return Parse(data, FormatJSON)
}

func parse(data []byte, format Format, filename string) (*Document, error) {
	var (
		jsonData []byte
		err      error
	)
	switch format {
	case FormatJSON:
		jsonData = data
	case FormatYAML:
		jsonData, err = yamlToJSON(data)
	case FormatCUE:
		jsonData, err = cueToJSON(data, filename)
	default:
		return nil, &LoadError{Code: ErrCodeBadFormat, Message: fmt.Sprintf("unsupported format %q", format)}
	}
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error()}
	}
	return &doc, nil
}

// yamlToJSON re-encodes YAML as JSON so the queryopt decoders, including
// the tagged filter union, apply unchanged.
func yamlToJSON(data []byte) ([]byte, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("parsing YAML: %v", err)}
	}
	tree, err := jsonCompatible(tree)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error()}
	}
	out, err := json.Marshal(tree)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: err.Error()}
	}
	return out, nil
}

// jsonCompatible converts YAML maps with non-string keys into string-keyed
// maps.
func jsonCompatible(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		for k, elem := range val {
			conv, err := jsonCompatible(elem)
			if err != nil {
				return nil, err
			}
			val[k] = conv
		}
		return val, nil
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			conv, err := jsonCompatible(elem)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = conv
		}
		return out, nil
	case []any:
		for i, elem := range val {
			conv, err := jsonCompatible(elem)
			if err != nil {
				return nil, err
			}
			val[i] = conv
		}
		return val, nil
	default:
		return val, nil
	}
}

// cueToJSON evaluates CUE source and exports it as concrete JSON.
func cueToJSON(data []byte, filename string) ([]byte, error) {
	ctx := cuecontext.New()
	opts := []cue.BuildOption{}
	if filename != "" {
		opts = append(opts, cue.Filename(filename))
	}

	value := ctx.CompileBytes(data, opts...)
	if err := value.Err(); err != nil {
		return nil, cueLoadError(ErrCodeBuildFailed, "building CUE value", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(ErrCodeBuildFailed, "CUE value is not concrete", err)
	}

	out, err := value.MarshalJSON()
	if err != nil {
		return nil, cueLoadError(ErrCodeDecode, "exporting CUE value", err)
	}
	return out, nil
}

func cueLoadError(code, context string, err error) *LoadError {
	loadErr := &LoadError{Code: code, Message: fmt.Sprintf("%s: %v", context, err)}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		loadErr.Pos = errs[0].Position()
	}
	return loadErr
}
