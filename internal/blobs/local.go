package blobs

import (
	"context"
	"fmt"
	"os"

	"k8s.io/klog/v2"
)

// LocalFiles reads blobs from the local filesystem.
type LocalFiles struct{}

var _ BlobReader = (*LocalFiles)(nil)

func (l *LocalFiles) Read(ctx context.Context, loc Location) ([]byte, error) {
	log := klog.FromContext(ctx)

	if loc.IsGCS() {
		return nil, fmt.Errorf("%q is not a local path", loc)
	}
	data, err := os.ReadFile(loc.Path) //nolint:gosec // G304: path is supplied by the user
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", loc.Path, err)
	}
	log.V(2).Info("read local blob", "path", loc.Path, "bytes", len(data))
	return data, nil
}

// Read fetches loc with the reader matching its kind.
func Read(ctx context.Context, loc Location) ([]byte, error) {
	var r BlobReader = &LocalFiles{}
	if loc.IsGCS() {
		r = &GCSBlobstore{}
	}
	return r.Read(ctx, loc)
}
