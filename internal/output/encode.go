// Package output encodes extraction results and writes them to disk or a terminal.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/dbsmedya/depextract/internal/convert"
	"github.com/dbsmedya/depextract/internal/extract"
)

// EncodeValue marshals v as JSON with the given indent width. Zero indent
// produces compact output. A trailing newline is always appended.
func EncodeValue(v any, indent int) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode marshals a result. If the result cannot be marshaled, the returned
// bytes hold a minimal failed result carrying a SerializationFailure error,
// and the marshal error is returned alongside them.
func Encode(res *extract.Result, indent int) ([]byte, error) {
	data, err := EncodeValue(res, indent)
	if err == nil {
		return data, nil
	}

	fallback := *res
	fallback.Properties = convert.NewObject()
	agg := convert.NewAggregator()
	agg.Record(convert.SerializationFailure, "properties", err)
	fallback.Errors = append(append([]convert.ExtractionError{}, res.Errors...), agg.Errors()...)
	fallback.Metadata.Status = extract.StatusFailed
	fallback.Metadata.FieldMethods = convert.NewObject()

	data, ferr := EncodeValue(&fallback, indent)
	if ferr != nil {
		return nil, fmt.Errorf("failed to encode result: %w (fallback: %v)", err, ferr)
	}
	return data, fmt.Errorf("result replaced by fallback: %w", err)
}

// Fingerprint is the xxhash64 of the compact JSON encoding of v, in hex.
// Two conversions of the same input have the same fingerprint.
func Fingerprint(v any) (string, error) {
	data, err := EncodeValue(v, 0)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data)), nil
}
