// Package ports declares the interfaces the API and the worker depend on.
package ports

import (
	"context"
	"io"
)

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type PutObjectOutput struct {
	// ObjectKey is the key to read the object back with. localfs returns
	// the input key; gdrive returns the Drive file id.
	ObjectKey string
	Size      int64
}

// StorageProvider stores render sources and outputs (localfs, gdrive).
type StorageProvider interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error)
	DeleteObject(ctx context.Context, objectKey string) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}
