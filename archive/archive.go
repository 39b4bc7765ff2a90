// Package archive moves fog maps in and out of named byte blobs and
// zip containers of them.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/rotblauer/catfog/codec"
	"github.com/rotblauer/catfog/fog"
)

// Blob is a named file's content.
type Blob struct {
	Name string
	Data []byte
}

// FileError names a file that failed to import.
type FileError struct {
	Name string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// ImportReport lists what an import did per file.
type ImportReport struct {
	Imported []string
	Failed   []FileError
}

// Ok reports whether every file imported.
func (r ImportReport) Ok() bool {
	return len(r.Failed) == 0
}

// ImportBlobs decodes each blob independently and merges the decoded tiles
// into base. Files that fail to decode are reported and skipped; they never
// discard tiles that decoded.
func ImportBlobs(base *fog.Map, blobs []Blob) (*fog.Map, ImportReport) {
	var report ImportReport
	var tiles []*fog.Tile
	for _, b := range blobs {
		t, err := codec.Decode(b.Name, b.Data)
		if err != nil {
			slog.Warn("Tile import failed", "file", b.Name, "error", err)
			report.Failed = append(report.Failed, FileError{Name: b.Name, Err: err})
			continue
		}
		tiles = append(tiles, t)
		report.Imported = append(report.Imported, b.Name)
	}
	return base.WithTiles(tiles...), report
}

// ExportMap encodes every non-empty tile of m, in tile id order.
func ExportMap(m *fog.Map) ([]Blob, error) {
	keys := m.Keys()
	out := make([]Blob, 0, len(keys))
	for _, k := range keys {
		t := m.Tile(k)
		data, err := codec.Encode(t)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", codec.TileFilename(t), err)
		}
		out = append(out, Blob{Name: codec.TileFilename(t), Data: data})
	}
	return out, nil
}

// ReadZip returns the regular files of a zip archive, named by base name.
// Directory entries and macOS resource forks are skipped.
func ReadZip(r io.ReaderAt, size int64) ([]Blob, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	var out []Blob
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		out = append(out, Blob{Name: path.Base(f.Name), Data: data})
	}
	return out, nil
}

// ReadZipBytes is ReadZip over an in-memory archive.
func ReadZipBytes(b []byte) ([]Blob, error) {
	return ReadZip(bytes.NewReader(b), int64(len(b)))
}

// WriteZip writes blobs into a zip archive under dir.
func WriteZip(w io.Writer, dir string, blobs []Blob) error {
	zw := zip.NewWriter(w)
	for _, b := range blobs {
		fw, err := zw.Create(path.Join(dir, b.Name))
		if err != nil {
			return err
		}
		if _, err := fw.Write(b.Data); err != nil {
			return err
		}
	}
	return zw.Close()
}
