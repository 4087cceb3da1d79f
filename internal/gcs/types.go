package gcs

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("object not found")

// ErrPreconditionFailed is returned when a conditional write loses a race.
var ErrPreconditionFailed = errors.New("object changed since it was read")

// ObjectStore provides an interface for the cloud storage operations used
// by the history and input layers.
// This interface enables mocking and testing of storage functionality.
type ObjectStore interface {
	// Read returns the object bytes and its generation.
	Read(ctx context.Context, bucket, object string) ([]byte, int64, error)

	// Write stores data. A non-zero generation makes the write conditional
	// on the object still being at that generation; zero requires that the
	// object does not exist yet.
	Write(ctx context.Context, bucket, object string, data []byte, generation int64) error

	// List returns object names under prefix.
	List(ctx context.Context, bucket, prefix string) ([]string, error)
}
