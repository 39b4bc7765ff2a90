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
	"strconv"

	"github.com/paulmach/orb/maptile"
	"github.com/rotblauer/catfog/common"
	"github.com/spf13/cobra"
)

var optRenderOut string

// renderCmd represents the render command
var renderCmd = &cobra.Command{
	Use:   "render Z X Y",
	Short: "Render one fog overlay tile to PNG",
	Long: `Render composites the snapshot into the slippy map tile Z/X/Y and writes
it as a PNG: fog color where unvisited, transparent where visited.

Examples:

  catfog render 9 94 180 -o missoula.png
  catfog render 0 0 0 -o - | display
`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaultSlog(cmd, args)

		t, err := parseTile(args)
		if err != nil {
			return err
		}
		st, db, err := openStore(true, false)
		if err != nil {
			return err
		}
		defer db.Close()

		out := optRenderOut
		if out == "" {
			out = fmt.Sprintf("%d-%d-%d.png", t.Z, t.X, t.Y)
		}
		var w io.Writer = cmd.OutOrStdout()
		if out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		raster := st.Raster(t)
		if err := raster.EncodePNG(w, st.Config().Compositor.FogColor); err != nil {
			return err
		}
		slog.Info("Rendered tile", "tile", fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y),
			"size", raster.Size(), "cleared", raster.Cleared(), "out", out)
		return nil
	},
}

// parseTile parses "Z X Y" into a tile inside the world.
func parseTile(args []string) (maptile.Tile, error) {
	var v [3]uint64
	for i, a := range args {
		n, err := strconv.ParseUint(a, 10, 32)
		if err != nil {
			return maptile.Tile{}, fmt.Errorf("bad tile coordinate %q: %w", a, err)
		}
		v[i] = n
	}
	z := int(v[0])
	if z != common.ClampZoom(z) {
		return maptile.Tile{}, fmt.Errorf("zoom %d out of range", z)
	}
	if n := uint64(1) << uint(z); v[1] >= n || v[2] >= n {
		return maptile.Tile{}, fmt.Errorf("tile %d/%d/%d outside world", z, v[1], v[2])
	}
	return maptile.New(uint32(v[1]), uint32(v[2]), maptile.Zoom(z)), nil
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&optRenderOut, "out", "o", "", "output file, - for stdout (default Z-X-Y.png)")
}
