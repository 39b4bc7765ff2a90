// Package tracks turns a tile's visited pixels into polylines for GPX export.
//
// Extraction is greedy: start anywhere, then keep stepping to the nearest
// (Manhattan) unconsumed visited pixel inside a square window around the
// track's last point, until the window is empty or the track is full.
package tracks

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/paulmach/orb"
	"github.com/rotblauer/catfog/fog"
	"github.com/rotblauer/catfog/geogrid"
	"github.com/rotblauer/catfog/params"
)

// Track is an ordered run of absolute pixels.
type Track []geogrid.Pixel

// grid is the visited set of one tile, indexed y*TilePixels + x in tile-local pixels.
type grid struct {
	bits *bitset.BitSet
}

func newGrid(t *fog.Tile) *grid {
	g := &grid{bits: bitset.New(geogrid.TilePixels * geogrid.TilePixels)}
	t.Range(func(bk fog.BlockKey, b *fog.Block) bool {
		ox, oy := bk.X<<geogrid.BlockPixelsBits, bk.Y<<geogrid.BlockPixelsBits
		b.EachVisited(0, 0, geogrid.BlockPixels-1, geogrid.BlockPixels-1, func(x, y int) {
			g.bits.Set(index(ox+x, oy+y))
		})
		return true
	})
	return g
}

func index(x, y int) uint {
	return uint(y*geogrid.TilePixels + x)
}

func (g *grid) take(x, y int) bool {
	if x < 0 || y < 0 || x >= geogrid.TilePixels || y >= geogrid.TilePixels {
		return false
	}
	i := index(x, y)
	if !g.bits.Test(i) {
		return false
	}
	g.bits.Clear(i)
	return true
}

// nearest consumes and returns the closest visited pixel to x, y by Manhattan
// distance within the square window of the given radius. Rings are scanned
// outwards, so the first hit is a nearest one.
func (g *grid) nearest(x, y, radius int) (nx, ny int, ok bool) {
	for d := 1; d <= 2*radius; d++ {
		for dx := -min(d, radius); dx <= min(d, radius); dx++ {
			rest := d - abs(dx)
			if rest > radius {
				continue
			}
			if g.take(x+dx, y-rest) {
				return x + dx, y - rest, true
			}
			if rest != 0 && g.take(x+dx, y+rest) {
				return x + dx, y + rest, true
			}
		}
	}
	return 0, 0, false
}

// Extract consumes every visited pixel of t into tracks.
func Extract(t *fog.Tile, cfg params.TrackConfig) []Track {
	radius, maxPoints := cfg.SearchRadius, cfg.MaxPoints
	if radius < 1 {
		radius = params.DefaultTrackConfig().SearchRadius
	}
	if maxPoints < 1 {
		maxPoints = params.DefaultTrackConfig().MaxPoints
	}
	g := newGrid(t)
	ox, oy := t.X<<geogrid.TilePixelsBits, t.Y<<geogrid.TilePixelsBits

	var out []Track
	var cursor uint
	for {
		start, ok := g.bits.NextSet(cursor)
		if !ok {
			return out
		}
		cursor = start
		g.bits.Clear(start)
		x, y := int(start)%geogrid.TilePixels, int(start)/geogrid.TilePixels
		track := Track{{X: ox + x, Y: oy + y}}
		for len(track) < maxPoints {
			nx, ny, found := g.nearest(x, y, radius)
			if !found {
				break
			}
			x, y = nx, ny
			track = append(track, geogrid.Pixel{X: ox + x, Y: oy + y})
		}
		out = append(out, track)
	}
}

// LineString maps each pixel to its geographic center.
func (tr Track) LineString() orb.LineString {
	ls := make(orb.LineString, len(tr))
	for i, p := range tr {
		ls[i] = p.Center()
	}
	return ls
}

// ToLineStrings converts extracted tracks to geographic polylines.
func ToLineStrings(tracks []Track) []orb.LineString {
	out := make([]orb.LineString, len(tracks))
	for i, tr := range tracks {
		out[i] = tr.LineString()
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
