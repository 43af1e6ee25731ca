package storage

import (
	"context"
	"errors"
)

// ErrEmptyObject is returned when a caller tries to store zero bytes.
var ErrEmptyObject = errors.New("object data is empty")

type PutOptions struct {
	ContentType string
	PublicRead  bool
}

// Object describes a stored blob and where clients can fetch it.
type Object struct {
	Bucket string
	Key    string
	URL    string
}

// ObjectStore persists photo bytes and returns their public location.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, opts PutOptions) (Object, error)
	Ping(ctx context.Context) error
}
