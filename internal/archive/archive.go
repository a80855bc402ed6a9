// Package archive enumerates the entries of a model archive.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Entry is one named member of an archive.
type Entry struct {
	Name string
	Data []byte
}

// Find returns the first entry named name.
func Find(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Namespace returns the entries whose names start with prefix, keyed by the
// remainder of the name.
func Namespace(entries []Entry, prefix string) map[string][]byte {
	out := make(map[string][]byte)
	for _, e := range entries {
		if rest, ok := strings.CutPrefix(e.Name, prefix); ok && rest != "" {
			out[rest] = e.Data
		}
	}
	return out
}

// ReadZip reads every file of a zip archive into memory. Directories are
// skipped.
func ReadZip(r io.ReaderAt, size int64) ([]Entry, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		data, err := readFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		entries = append(entries, Entry{Name: f.Name, Data: data})
	}
	return entries, nil
}

// ReadZipBytes reads a zip archive held in memory.
func ReadZipBytes(data []byte) ([]Entry, error) {
	return ReadZip(bytes.NewReader(data), int64(len(data)))
}

// ReadZipFile reads the zip archive at path.
func ReadZipFile(path string) ([]Entry, error) {
	f, err := os.Open(path) //nolint:gosec // G304: opening a user-provided model path is intended
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	return ReadZip(f, info.Size())
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

// WriteZip writes entries as a zip archive. Entries are stored uncompressed,
// the layout torch.jit.save produces.
func WriteZip(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	for _, e := range entries {
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: zip.Store})
		if err != nil {
			return fmt.Errorf("create %s: %w", e.Name, err)
		}
		if _, err := fw.Write(e.Data); err != nil {
			return fmt.Errorf("write %s: %w", e.Name, err)
		}
	}
	return zw.Close()
}
