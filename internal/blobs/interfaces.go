// Package blobs fetches archive bytes from the local filesystem or from
// Google Cloud Storage.
package blobs

import "context"

// BlobReader reads a whole blob into memory.
type BlobReader interface {
	// If no such object exists, Read should return an error for which
	// errors.Is(err, os.ErrNotExist) is true.
	Read(ctx context.Context, loc Location) ([]byte, error)
}
