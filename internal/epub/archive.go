package epub

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxEntrySize caps the decompressed size of a single archive entry,
// guarding against zip bombs.
const maxEntrySize int64 = 256 * 1024 * 1024

// ErrEntryNotFound indicates the requested entry does not exist in the
// archive. Callers treat it as "absent", never as a fatal condition.
var ErrEntryNotFound = errors.New("epub: entry not found in archive")

// Archive wraps a zip-structured container and exposes named-entry lookup.
// Lookups try an exact match first and fall back to a case-insensitive
// match, since real-world EPUBs are sloppy about case.
type Archive struct {
	exact map[string]*zip.File
	lower map[string]*zip.File
}

// OpenArchive opens a zip container held fully in memory.
func OpenArchive(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("epub: open zip: %w", err)
	}

	a := &Archive{
		exact: make(map[string]*zip.File, len(zr.File)),
		lower: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		if _, ok := a.exact[f.Name]; !ok {
			a.exact[f.Name] = f
		}
		l := strings.ToLower(f.Name)
		if _, ok := a.lower[l]; !ok {
			a.lower[l] = f
		}
	}
	return a, nil
}

func (a *Archive) find(name string) *zip.File {
	if f, ok := a.exact[name]; ok {
		return f
	}
	if f, ok := a.lower[strings.ToLower(name)]; ok {
		return f
	}
	return nil
}

// ReadEntry returns the full decompressed content of the named entry.
func (a *Archive) ReadEntry(name string) ([]byte, error) {
	f := a.find(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}
	if f.UncompressedSize64 > uint64(maxEntrySize) {
		return nil, fmt.Errorf("epub: entry %s too large (%d bytes)", name, f.UncompressedSize64)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("epub: open entry %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, fmt.Errorf("epub: read entry %s: %w", name, err)
	}
	if int64(len(data)) > maxEntrySize {
		return nil, fmt.Errorf("epub: entry %s exceeds decompression limit", name)
	}
	return data, nil
}

// ReadEntryText returns the named entry as a string with any UTF-8 BOM
// removed.
func (a *Archive) ReadEntryText(name string) (string, error) {
	data, err := a.ReadEntry(name)
	if err != nil {
		return "", err
	}
	return string(stripBOM(data)), nil
}

// Has reports whether the archive contains the named entry.
func (a *Archive) Has(name string) bool {
	return a.find(name) != nil
}

// stripBOM removes a leading UTF-8 byte order mark, if present.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
