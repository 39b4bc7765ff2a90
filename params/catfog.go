package params

import (
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

const (
	// SnapshotDBName is the bbolt file holding the working fog snapshot.
	SnapshotDBName = "fog.db"
	// ExportDirName is where export commands write by default.
	ExportDirName = "export"
)

// SnapshotBucket holds encoded tiles keyed by tile filename.
var SnapshotBucket = []byte("tiles")

var DefaultDatadirRoot = func() string {
	root, err := homedir.Expand("~/.catfog")
	if err != nil {
		panic(err)
	}
	return root
}()

// SnapshotDBPath returns the snapshot database path under datadir.
func SnapshotDBPath(datadir string) string {
	return filepath.Join(datadir, SnapshotDBName)
}
