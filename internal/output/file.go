package output

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression names accepted by WriteFile.
const (
	CompressionNone = "none"
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"
)

// Filename expands {dep} and {cycle} in template.
func Filename(template string, depID, cycleIndex int) string {
	r := strings.NewReplacer(
		"{dep}", strconv.Itoa(depID),
		"{cycle}", strconv.Itoa(cycleIndex),
	)
	return r.Replace(template)
}

// CompressedName appends the suffix for the compression to name.
func CompressedName(name, compression string) string {
	switch compression {
	case CompressionGzip:
		return name + ".gz"
	case CompressionZstd:
		return name + ".zst"
	default:
		return name
	}
}

// WriteFile writes data to path, compressing it as requested. The file is
// written to a temporary name in the same directory and renamed into place.
func WriteFile(ctx context.Context, path string, data []byte, compression string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := compress(tmp, data, compression); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

func compress(w io.Writer, data []byte, compression string) error {
	switch compression {
	case "", CompressionNone:
		_, err := w.Write(data)
		return err
	case CompressionGzip:
		zw := gzip.NewWriter(w)
		if _, err := zw.Write(data); err != nil {
			return fmt.Errorf("gzip write failed: %w", err)
		}
		return zw.Close()
	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		if _, err := zw.Write(data); err != nil {
			zw.Close()
			return fmt.Errorf("zstd write failed: %w", err)
		}
		return zw.Close()
	default:
		return fmt.Errorf("unknown compression %q", compression)
	}
}
