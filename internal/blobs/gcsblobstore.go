package blobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"k8s.io/klog/v2"
)

// GCSBlobstore reads objects through the default GCS client credentials.
type GCSBlobstore struct{}

var _ BlobReader = (*GCSBlobstore)(nil)

func (g *GCSBlobstore) Read(ctx context.Context, loc Location) ([]byte, error) {
	log := klog.FromContext(ctx)

	if !loc.IsGCS() {
		return nil, fmt.Errorf("%q is not a GCS location", loc)
	}
	gcsURL := loc.String()

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS storage client: %w", err)
	}
	defer client.Close()

	log.Info("downloading blob from GCS", "source", gcsURL)

	startedAt := time.Now()
	r, err := client.Bucket(loc.Bucket).Object(loc.Object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("object %q not found: %w", gcsURL, os.ErrNotExist)
		}
		return nil, fmt.Errorf("opening object from GCS %q: %w", gcsURL, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("downloading from GCS: %w", err)
	}

	log.Info("downloaded blob from GCS", "source", gcsURL, "bytes", len(data), "duration", time.Since(startedAt))

	return data, nil
}
