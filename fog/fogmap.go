/*
Package fog is the exploration fog data model.

A Map is a sparse set of storage Tiles, each a sparse set of 64x64 pixel Blocks.
Maps are values: every mutation returns a new Map that shares all untouched
Tiles and Blocks with its parent, so comparing two *Tile pointers is a valid
and cheap "did this change" test, and a Map can be handed to another goroutine
while the next one is being built.
*/
package fog

import (
	"errors"
	"slices"
	"sync"

	"github.com/paulmach/orb"
	"github.com/rotblauer/catfog/geogrid"
)

// ErrInvalidRegion is returned for NaN or zero-area regions.
// Operations returning it leave the map unchanged.
var ErrInvalidRegion = errors.New("invalid region")

// RegionCoder names the region of a newly drawn block.
type RegionCoder interface {
	RegionCode(pt orb.Point) string
}

// Map is an immutable sparse mapping of tile coordinates to Tiles.
type Map struct {
	tiles map[TileKey]*Tile
	coder RegionCoder

	regionsOnce sync.Once
	regions     map[string]int
}

var empty = &Map{tiles: map[TileKey]*Tile{}}

// Empty returns the map with no tiles.
func Empty() *Map {
	return empty
}

// NewMap builds a map from tiles; later tiles replace earlier ones with the same key.
func NewMap(tiles ...*Tile) *Map {
	return Empty().WithTiles(tiles...)
}

// WithTiles returns a map with tiles inserted, replacing same-keyed tiles.
// Tiles without blocks are dropped.
func (m *Map) WithTiles(tiles ...*Tile) *Map {
	if len(tiles) == 0 {
		return m
	}
	next := make(map[TileKey]*Tile, len(m.tiles)+len(tiles))
	for k, t := range m.tiles {
		next[k] = t
	}
	for _, t := range tiles {
		if t == nil {
			continue
		}
		if t.Len() == 0 {
			delete(next, t.Key())
			continue
		}
		next[t.Key()] = t
	}
	return &Map{tiles: next, coder: m.coder}
}

// WithRegionCoder returns a map sharing m's tiles whose mutations
// tag new blocks using c.
func (m *Map) WithRegionCoder(c RegionCoder) *Map {
	return &Map{tiles: m.tiles, coder: c}
}

// Len returns the number of tiles.
func (m *Map) Len() int {
	return len(m.tiles)
}

// IsEmpty reports whether the map has no tiles.
func (m *Map) IsEmpty() bool {
	return len(m.tiles) == 0
}

// Tile returns the tile at k, or nil.
func (m *Map) Tile(k TileKey) *Tile {
	return m.tiles[k]
}

// Range calls fn for every tile in unspecified order until fn returns false.
func (m *Map) Range(fn func(t *Tile) bool) {
	for _, t := range m.tiles {
		if !fn(t) {
			return
		}
	}
}

// Keys returns tile keys ordered by tile id.
func (m *Map) Keys() []TileKey {
	keys := make([]TileKey, 0, len(m.tiles))
	for k := range m.tiles {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b TileKey) int {
		return a.ID() - b.ID()
	})
	return keys
}

// Bound returns the union of all tile bounds, or an empty bound.
func (m *Map) Bound() orb.Bound {
	var b orb.Bound
	first := true
	for k := range m.tiles {
		if first {
			b = k.Bound()
			first = false
			continue
		}
		b = b.Union(k.Bound())
	}
	return b
}

// RegionCounts aggregates stored block counts by region code.
// It is informational only.
func (m *Map) RegionCounts() map[string]int {
	m.regionsOnce.Do(func() {
		regions := make(map[string]int)
		for _, t := range m.tiles {
			for _, b := range t.blocks {
				regions[b.Region()] += b.Count()
			}
		}
		m.regions = regions
	})
	out := make(map[string]int, len(m.regions))
	for k, v := range m.regions {
		out[k] = v
	}
	return out
}

// Count sums the stored counts of every block.
func (m *Map) Count() int {
	n := 0
	for _, t := range m.tiles {
		n += t.Count()
	}
	return n
}

// VisitedIn counts visited pixels inside b.
func (m *Map) VisitedIn(b orb.Bound) (int, error) {
	lo, hi, err := geogrid.BoundPixels(b)
	if err != nil {
		return 0, errors.Join(ErrInvalidRegion, err)
	}
	n := 0
	m.eachBlockIn(lo, hi, func(tk TileKey, bk BlockKey, blk *Block, r pixelRect) {
		blk.EachVisited(r.x0, r.y0, r.x1, r.y1, func(int, int) { n++ })
	})
	return n, nil
}

// Equal compares the visited bits of two maps.
func (m *Map) Equal(o *Map) bool {
	if m == o {
		return true
	}
	if len(m.tiles) != len(o.tiles) {
		return false
	}
	for k, t := range m.tiles {
		ot, ok := o.tiles[k]
		if !ok || !t.equalContent(ot) {
			return false
		}
	}
	return true
}

// pixelRect is an inclusive block-local pixel rectangle.
type pixelRect struct {
	x0, y0, x1, y1 int
}

// eachBlockIn calls fn for every existing block intersecting the absolute
// pixel rectangle [lo, hi], with the intersection in block-local pixels.
func (m *Map) eachBlockIn(lo, hi geogrid.Pixel, fn func(TileKey, BlockKey, *Block, pixelRect)) {
	tx0, ty0 := lo.Tile()
	tx1, ty1 := hi.Tile()
	for tk, t := range m.tiles {
		if tk.X < tx0 || tk.X > tx1 || tk.Y < ty0 || tk.Y > ty1 {
			continue
		}
		for bk, blk := range t.blocks {
			ox := tk.X<<geogrid.TilePixelsBits | bk.X<<geogrid.BlockPixelsBits
			oy := tk.Y<<geogrid.TilePixelsBits | bk.Y<<geogrid.BlockPixelsBits
			r := pixelRect{
				x0: max(lo.X-ox, 0),
				y0: max(lo.Y-oy, 0),
				x1: min(hi.X-ox, geogrid.BlockPixels-1),
				y1: min(hi.Y-oy, geogrid.BlockPixels-1),
			}
			if r.x0 > r.x1 || r.y0 > r.y1 {
				continue
			}
			fn(tk, bk, blk, r)
		}
	}
}
