/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rotblauer/catfog/archive"
	"github.com/spf13/cobra"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import PATH...",
	Short: "Import snapshot tiles into the working snapshot",
	Long: `Import reads tile files and merges them into the working snapshot.

Each PATH may be a snapshot zip (as exported by the app), a directory of
tile files, or a single tile file. Imported tiles replace any tile with the
same coordinates. Files that fail to decode are reported and skipped;
the rest still import.

Examples:

  catfog import ~/Downloads/Sync.zip
  catfog import ./Sync/
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaultSlog(cmd, args)

		blobs, err := collectBlobs(args)
		if err != nil {
			return err
		}
		st, db, err := openStore(false, false)
		if err != nil {
			return err
		}
		defer db.Close()

		report := st.Import(blobs)
		if err := st.Persist(db); err != nil {
			return err
		}
		for _, f := range report.Failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", f.Name, f.Err)
		}
		m := st.Current()
		slog.Info("Import done",
			"imported", len(report.Imported), "failed", len(report.Failed),
			"tiles", m.Len(), "visited", humanize.Comma(int64(m.Count())))
		if len(report.Imported) == 0 && len(blobs) > 0 {
			return fmt.Errorf("none of %d files imported", len(blobs))
		}
		return nil
	},
}

// collectBlobs reads tile files from zips, directories and plain files.
func collectBlobs(paths []string) ([]archive.Blob, error) {
	var blobs []archive.Blob
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		switch {
		case fi.IsDir():
			entries, err := os.ReadDir(p)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
					continue
				}
				data, err := os.ReadFile(filepath.Join(p, e.Name()))
				if err != nil {
					return nil, err
				}
				blobs = append(blobs, archive.Blob{Name: e.Name(), Data: data})
			}
		case strings.EqualFold(filepath.Ext(p), ".zip"):
			f, err := os.Open(p)
			if err != nil {
				return nil, err
			}
			read, err := archive.ReadZip(f, fi.Size())
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p, err)
			}
			blobs = append(blobs, read...)
		default:
			data, err := os.ReadFile(p)
			if err != nil {
				return nil, err
			}
			blobs = append(blobs, archive.Blob{Name: filepath.Base(p), Data: data})
		}
	}
	return blobs, nil
}

func init() {
	rootCmd.AddCommand(importCmd)
}
