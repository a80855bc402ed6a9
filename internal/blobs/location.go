package blobs

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const gcsScheme = "gs://"

// Location is either a local path or an object in a GCS bucket.
type Location struct {
	Bucket string
	Object string
	Path   string
}

// ParseLocation accepts "gs://bucket/object" or a filesystem path.
func ParseLocation(s string) (Location, error) {
	if !strings.HasPrefix(s, gcsScheme) {
		if s == "" {
			return Location{}, errors.New("empty location")
		}
		return Location{Path: s}, nil
	}
	bucket, object, ok := strings.Cut(strings.TrimPrefix(s, gcsScheme), "/")
	if !ok || bucket == "" || object == "" {
		return Location{}, fmt.Errorf("invalid GCS url %q: want gs://bucket/object", s)
	}
	return Location{Bucket: bucket, Object: object}, nil
}

// IsGCS reports whether the location names a bucket object.
func (l Location) IsGCS() bool { return l.Bucket != "" }

// Base returns the final element of the path or object name.
func (l Location) Base() string {
	if l.IsGCS() {
		return l.Object[strings.LastIndex(l.Object, "/")+1:]
	}
	return filepath.Base(l.Path)
}

func (l Location) String() string {
	if l.IsGCS() {
		return gcsScheme + l.Bucket + "/" + l.Object
	}
	return l.Path
}
