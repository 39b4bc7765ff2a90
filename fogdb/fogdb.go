// Package fogdb persists the working fog snapshot in a bbolt database,
// one encoded tile file per key.
package fogdb

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotblauer/catfog/codec"
	"github.com/rotblauer/catfog/fog"
	"github.com/rotblauer/catfog/params"
	"go.etcd.io/bbolt"
)

type DB struct {
	db *bbolt.DB
}

// Open opens or creates the snapshot database at path.
// Opening a writable DB holds a file lock, blocking other writers.
func Open(path string, readOnly bool) (*DB, error) {
	if !readOnly {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{
		ReadOnly: readOnly,
		Timeout:  5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	if !readOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(params.SnapshotBucket)
			return err
		})
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Save replaces the stored snapshot with m.
// Tiles whose pointer is unchanged since prev are not re-encoded.
func (d *DB) Save(m, prev *fog.Map) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(params.SnapshotBucket)
		if prev == nil {
			if err := tx.DeleteBucket(params.SnapshotBucket); err != nil {
				return err
			}
			var err error
			if b, err = tx.CreateBucket(params.SnapshotBucket); err != nil {
				return err
			}
			prev = fog.Empty()
		}
		for _, k := range prev.Keys() {
			if m.Tile(k) == nil {
				if err := b.Delete([]byte(codec.Filename(k.X, k.Y))); err != nil {
					return err
				}
			}
		}
		for _, k := range m.Keys() {
			t := m.Tile(k)
			if prev.Tile(k) == t {
				continue
			}
			data, err := codec.Encode(t)
			if err != nil {
				return fmt.Errorf("encode tile %d/%d: %w", k.X, k.Y, err)
			}
			if err := b.Put([]byte(codec.TileFilename(t)), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load decodes every stored tile.
// An empty or missing bucket loads as the empty map.
func (d *DB) Load() (*fog.Map, error) {
	var tiles []*fog.Tile
	err := d.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(params.SnapshotBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			t, err := codec.Decode(string(k), v)
			if err != nil {
				return err
			}
			tiles = append(tiles, t)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return fog.NewMap(tiles...), nil
}

// Len returns the number of stored tiles.
func (d *DB) Len() (int, error) {
	n := 0
	err := d.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(params.SnapshotBucket); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n, err
}
