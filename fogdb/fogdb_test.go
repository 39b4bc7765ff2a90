package fogdb

import (
	"path/filepath"
	"testing"

	"github.com/rotblauer/catfog/fog"
	"github.com/rotblauer/catfog/geogrid"
	"github.com/rotblauer/catfog/testing/testdata"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "fog.db"), false)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadEmpty(t *testing.T) {
	db := openTemp(t)
	m, err := db.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsEmpty() {
		t.Errorf("fresh db loaded %d tiles", m.Len())
	}
}

func TestSaveLoad(t *testing.T) {
	db := openTemp(t)
	m := testdata.ScatteredMap()
	if err := db.Save(m, nil); err != nil {
		t.Fatal(err)
	}
	got, err := db.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(m) {
		t.Error("loaded map differs")
	}
	if n, _ := db.Len(); n != m.Len() {
		t.Errorf("stored %d tiles, want %d", n, m.Len())
	}
}

func TestSaveIncremental(t *testing.T) {
	db := openTemp(t)
	m := testdata.ScatteredMap()
	if err := db.Save(m, nil); err != nil {
		t.Fatal(err)
	}

	// Wipe one tile entirely and draw into another.
	cleared, err := m.ClearBbox(fog.TileKey{X: 100, Y: 180}.Bound())
	if err != nil {
		t.Fatal(err)
	}
	p := testdata.Pixel(412, 229, 1, 1, 1, 1)
	next, err := testdata.DrawSegments(cleared, testdata.Segment{p, geogrid.Pixel{X: p.X + 5, Y: p.Y}})
	if err != nil {
		t.Fatal(err)
	}
	if next.Len() != m.Len()-1 {
		t.Fatalf("expected one tile removed, have %d of %d", next.Len(), m.Len())
	}
	if err := db.Save(next, m); err != nil {
		t.Fatal(err)
	}
	got, err := db.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(next) {
		t.Error("incremental save lost changes")
	}

	// A full rewrite from scratch agrees.
	if err := db.Save(fog.Empty(), nil); err != nil {
		t.Fatal(err)
	}
	if n, _ := db.Len(); n != 0 {
		t.Errorf("stored %d tiles after saving the empty map", n)
	}
}
