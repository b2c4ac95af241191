// Package loader reads a YAML or JSON document into a value tree of
// *types.Record, *types.Array and Go scalars.
//
// Beyond plain YAML the loader understands three tagged mappings:
//
//	{$array: {shape: [2, 3], dtype: int32, data: [1, 2, 3, 4, 5, 6]}}
//	{$ref: "a.b.c"}     same node as the one at that path from the root
//	{$opaque: "name"}   a value the converter cannot represent
//
// References are resolved after parsing, so a record may refer to itself or to
// an ancestor. Anchors and aliases also share one node.
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is wrapped by every structural problem in a document.
var ErrInvalidDocument = errors.New("invalid document")

// Opaque stands for a value that exists in the source but has no JSON form,
// such as a function handle or a Java object.
type Opaque struct {
	Name string
}

func (o Opaque) String() string {
	return "opaque:" + o.Name
}

// LoadFile reads, decompresses and parses the document at path.
func LoadFile(ctx context.Context, path string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	r, closeFn, err := decompressor(path, f)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// decompressor picks a reader from the file suffix.
func decompressor(path string, r io.Reader) (io.Reader, func(), error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return zr, func() { zr.Close() }, nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return zr, zr.Close, nil
	default:
		return r, func() {}, nil
	}
}

// Parse builds the value tree of a YAML or JSON document.
func Parse(data []byte) (any, error) {
	var doc yaml.Node
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
		}
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	b := newBuilder()
	root, err := b.build(&doc)
	if err != nil {
		return nil, err
	}
	if err := b.resolve(root); err != nil {
		return nil, err
	}
	return root, nil
}
