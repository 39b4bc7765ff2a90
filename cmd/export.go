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
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rotblauer/catfog/archive"
	"github.com/rotblauer/catfog/fog"
	"github.com/rotblauer/catfog/params"
	"github.com/rotblauer/catfog/tracks"
	"github.com/spf13/cobra"
)

var (
	optExportFormat    string
	optExportOut       string
	optTrackRadius     int
	optTrackMaxPoints  int
	optExportZipFolder string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the working snapshot as a zip of tiles or GPX tracks",
	Long: `Export writes the snapshot as a zip archive.

With --format zip (default) the archive holds one encoded file per tile,
ready to import back into the app. With --format gpx every tile is traced
into GPX tracks, one file per track, named after the tile.

Examples:

  catfog export -o Sync.zip
  catfog export --format gpx --radius 50 -o tracks.zip
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaultSlog(cmd, args)

		st, db, err := openStore(true, false)
		if err != nil {
			return err
		}
		defer db.Close()

		blobs, err := exportBlobs(st.Current(), optExportFormat, params.TrackConfig{
			SearchRadius: optTrackRadius,
			MaxPoints:    optTrackMaxPoints,
		})
		if err != nil {
			return err
		}

		out := optExportOut
		if out == "" {
			out = filepath.Join(datadir(), params.ExportDirName, optExportFormat+".zip")
		}
		var w io.Writer = cmd.OutOrStdout()
		if out != "-" {
			if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := archive.WriteZip(w, optExportZipFolder, blobs); err != nil {
			return err
		}
		slog.Info("Exported", "format", optExportFormat, "files", len(blobs), "out", out)
		return nil
	},
}

func exportBlobs(m *fog.Map, format string, cfg params.TrackConfig) ([]archive.Blob, error) {
	switch format {
	case "zip":
		return archive.ExportMap(m)
	case "gpx":
		return tracks.ExportMap(m, cfg)
	}
	return nil, fmt.Errorf("unknown export format %q, want zip or gpx", format)
}

func init() {
	rootCmd.AddCommand(exportCmd)

	defaults := params.DefaultTrackConfig()
	flags := exportCmd.Flags()
	flags.StringVar(&optExportFormat, "format", "zip", "zip or gpx")
	flags.StringVarP(&optExportOut, "out", "o", "", "output zip, - for stdout (default $datadir/export/FORMAT.zip)")
	flags.StringVar(&optExportZipFolder, "folder", "Sync", "folder name inside the zip")
	flags.IntVar(&optTrackRadius, "radius", defaults.SearchRadius, "gpx: max pixel distance between consecutive track points")
	flags.IntVar(&optTrackMaxPoints, "max-points", defaults.MaxPoints, "gpx: max points per track")
}
