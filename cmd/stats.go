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
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/montanaflynn/stats"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/maptile"
	"github.com/rotblauer/catfog/common"
	"github.com/rotblauer/catfog/fog"
	"github.com/rotblauer/catfog/geogrid"
	"github.com/spf13/cobra"
)

var optStatsTop int

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the working snapshot",
	Long: `Stats prints tile and pixel counts, the approximate explored area,
the distribution of visited pixels per tile and the top regions.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		setDefaultSlog(cmd, args)

		st, db, err := openStore(true, false)
		if err != nil {
			return err
		}
		defer db.Close()
		return printSummary(cmd.OutOrStdout(), summarize(st.Current()), optStatsTop)
	},
}

type regionCount struct {
	Region string
	Pixels int
}

type fogSummary struct {
	Tiles   int
	Blocks  int
	Visited int
	// AreaM2 approximates the explored area, one block at a time.
	AreaM2 float64

	PerTileMean   float64
	PerTileMedian float64
	PerTileP90    float64
	PerTileMax    float64

	Regions []regionCount
}

func summarize(m *fog.Map) fogSummary {
	s := fogSummary{Tiles: m.Len(), Visited: m.Count()}
	perTile := make([]float64, 0, m.Len())
	m.Range(func(t *fog.Tile) bool {
		perTile = append(perTile, float64(t.Count()))
		s.Blocks += t.Len()
		t.Range(func(k fog.BlockKey, b *fog.Block) bool {
			bt := maptile.New(
				uint32(t.X<<geogrid.TileBlocksBits|k.X),
				uint32(t.Y<<geogrid.TileBlocksBits|k.Y),
				maptile.Zoom(geogrid.BlockZoom))
			s.AreaM2 += geo.Area(bt.Bound()) * float64(b.Count()) / (geogrid.BlockPixels * geogrid.BlockPixels)
			return true
		})
		return true
	})

	statsMustFloat := func(fn func() (float64, error)) float64 {
		out, _ := fn()
		return common.DecimalToFixed(out, 1)
	}
	data := stats.Float64Data(perTile)
	s.PerTileMean = statsMustFloat(data.Mean)
	s.PerTileMedian = statsMustFloat(data.Median)
	s.PerTileMax = statsMustFloat(data.Max)
	s.PerTileP90 = statsMustFloat(func() (float64, error) { return data.Percentile(90) })

	for region, n := range m.RegionCounts() {
		s.Regions = append(s.Regions, regionCount{Region: region, Pixels: n})
	}
	sort.Slice(s.Regions, func(i, j int) bool {
		if s.Regions[i].Pixels != s.Regions[j].Pixels {
			return s.Regions[i].Pixels > s.Regions[j].Pixels
		}
		return s.Regions[i].Region < s.Regions[j].Region
	})
	return s
}

func printSummary(w io.Writer, s fogSummary, top int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "tiles\t%s\n", humanize.Comma(int64(s.Tiles)))
	fmt.Fprintf(tw, "blocks\t%s\n", humanize.Comma(int64(s.Blocks)))
	fmt.Fprintf(tw, "visited pixels\t%s\n", humanize.Comma(int64(s.Visited)))
	fmt.Fprintf(tw, "explored area\t%s km²\n", humanize.CommafWithDigits(s.AreaM2/1e6, 2))
	fmt.Fprintf(tw, "pixels per tile\tmean %v  median %v  p90 %v  max %v\n",
		s.PerTileMean, s.PerTileMedian, s.PerTileP90, s.PerTileMax)
	for i, r := range s.Regions {
		if top > 0 && i >= top {
			break
		}
		fmt.Fprintf(tw, "region %s\t%s\n", r.Region, humanize.Comma(int64(r.Pixels)))
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVar(&optStatsTop, "top", 10, "show at most this many regions, 0 for all")
}
