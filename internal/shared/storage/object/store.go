package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned by Open when no object is stored under the key.
var ErrNotExist = errors.New("object does not exist")

// ErrVersionMismatch is returned by PutIfVersion when the stored object is not
// the version the caller read.
var ErrVersionMismatch = errors.New("object version changed")

// ObjectStore defines the contract for saving and retrieving whole objects by key.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ConditionalStore writes an object only if it still carries the version the
// caller read. An empty version means the object must not exist yet.
type ConditionalStore interface {
	ObjectStore
	OpenVersion(ctx context.Context, key string) (body io.ReadCloser, version string, err error)
	PutIfVersion(ctx context.Context, key, contentType string, r io.Reader, version string) (newVersion string, err error)
}
