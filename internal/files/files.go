// Package files reads and writes license files byte for byte.
package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/viant/afs"
)

// FileMode is the mode of every written license file
const FileMode = 0o644

var fs = afs.New()

// Read returns the exact contents of the file at path
func Read(ctx context.Context, path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	data, err := fs.DownloadWithURL(ctx, abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Write replaces the file at path with data, creating parent directories
func Write(ctx context.Context, path string, data []byte) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	// Stale files are removed first so the result never keeps trailing bytes
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	if err := fs.Upload(ctx, abs, FileMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Copy copies src to dst verbatim and returns the copied bytes
func Copy(ctx context.Context, src, dst string) ([]byte, error) {
	data, err := Read(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := Write(ctx, dst, data); err != nil {
		return nil, err
	}
	return data, nil
}
