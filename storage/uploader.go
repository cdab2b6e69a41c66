// Package storage abstracts object storage for uploaded assets such as
// tournament logos.
package storage

import (
	"context"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader stores and serves static assets. Keys are opaque paths
// chosen by the caller, e.g. "tournaments/42/logo.png".
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	// GetPublicURL resolves a stored key against the public base URL.
	// It returns "" for an empty key.
	GetPublicURL(key string) string
}
