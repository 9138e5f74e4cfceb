// Package storage stores uploaded images and generated exports.
//
// Two drivers are available:
//   - "local"  local filesystem (default)
//   - "s3"     S3-compatible object storage (AWS S3, MinIO, R2, Spaces)
//
// Quick start:
//
//	disk, err := storage.Open(ctx)
//	err = disk.Put(ctx, "products/4f1c.jpg", file, "image/jpeg")
//	url := disk.URL("products/4f1c.jpg")
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when path does not exist.
var ErrNotFound = errors.New("storage: file not found")

// Disk is the filesystem driver interface. Every driver must implement this.
type Disk interface {
	// Put writes r to path, creating parent directories as needed.
	Put(ctx context.Context, path string, r io.Reader, contentType string) error

	// Get returns a ReadCloser for the file. Caller must close it.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) bool

	// Delete removes a file. Returns nil if the file did not exist.
	Delete(ctx context.Context, path string) error

	// URL returns the public URL for path.
	URL(path string) string
}
