package storage

import (
	"errors"
	"io"
)

var ErrBadKey = errors.New("storage: bad key")

// BlobStore keeps uploaded source files, e.g. question sheets.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}
