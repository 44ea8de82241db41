package processor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is the input container detected from the file extension.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
)

// DetectCompression picks the decompressor for path by extension.
func DetectCompression(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	case ".lz4":
		return CompressionLZ4
	}
	return CompressionNone
}

type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openInput opens path for reading, decompressing on the fly. A missing or
// unreadable file yields ErrInputNotFound.
func openInput(path string) (io.ReadCloser, os.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrInputNotFound, path, err)
		}
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%w: %s is a directory", ErrInputNotFound, path)
	}

	buffered := bufio.NewReaderSize(f, 1<<20)
	rc := &readCloser{Reader: buffered, closers: []func() error{f.Close}}

	switch DetectCompression(path) {
	case CompressionGzip:
		zr, err := gzip.NewReader(buffered)
		if err != nil {
			_ = f.Close()
			return nil, nil, &ParseError{Path: path, Feature: -1, Err: fmt.Errorf("gzip: %w", err)}
		}
		rc.Reader = zr
		rc.closers = append([]func() error{zr.Close}, rc.closers...)

	case CompressionZstd:
		zr, err := zstd.NewReader(buffered)
		if err != nil {
			_ = f.Close()
			return nil, nil, &ParseError{Path: path, Feature: -1, Err: fmt.Errorf("zstd: %w", err)}
		}
		rc.Reader = zr
		rc.closers = append([]func() error{func() error { zr.Close(); return nil }}, rc.closers...)

	case CompressionLZ4:
		rc.Reader = lz4.NewReader(buffered)
	}

	return rc, info, nil
}
