// Package storage abstracts the object store that holds raw uploads and
// cleaned audio.
package storage

import (
	"errors"
	"io"
	"time"
)

// ErrNoObject is returned when the named object does not exist.
var ErrNoObject = errors.New("storage: no object")

// Store is the interface for reading and writing objects.
type Store interface {
	Put(name string, data []byte, contentType string) (string, error)
	GetReader(id string) (io.ReadCloser, error)
	Delete(id string) error
	ExpiringURL(id string, expiration time.Duration) (string, error)
}

// Sizer probes an object's size without fetching it. The reconciler uses
// it when a recording has no cached size for the produced artifact.
type Sizer interface {
	Size(id string) (int64, error)
}
