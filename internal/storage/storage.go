// Package storage is the key -> blob object store boundary. Keys are
// opaque; the store imposes no structure on them.
package storage

import (
	"context"
	"errors"
	"time"
)

var ErrObjectNotFound = errors.New("object not found")

type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Get returns ErrObjectNotFound when the key does not resolve.
	Get(ctx context.Context, key string) (*Object, error)
	// Delete returns ErrObjectNotFound when the key does not resolve.
	Delete(ctx context.Context, key string) error
	// List returns the objects whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

type Object struct {
	Data        []byte
	ContentType string
}

type ObjectInfo struct {
	Key     string
	Size    uint64
	ModTime time.Time
}
