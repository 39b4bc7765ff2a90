package fog

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/rotblauer/catfog/geogrid"
)

// blockAddr is a block's absolute address.
type blockAddr struct {
	tile  TileKey
	block BlockKey
}

// mutator builds the next Map by copy-on-write.
// Only tiles and blocks it touches are cloned, each at most once.
type mutator struct {
	base   *Map
	tiles  map[TileKey]*Tile // owned clones
	blocks map[blockAddr]*Block
}

func newMutator(base *Map) *mutator {
	return &mutator{
		base:   base,
		tiles:  make(map[TileKey]*Tile),
		blocks: make(map[blockAddr]*Block),
	}
}

func (mu *mutator) tile(k TileKey) *Tile {
	if t, ok := mu.tiles[k]; ok {
		return t
	}
	var t *Tile
	if bt := mu.base.tiles[k]; bt != nil {
		t = bt.clone()
	} else {
		t = NewTile(k.X, k.Y, nil)
	}
	mu.tiles[k] = t
	return t
}

// block returns an owned, writable block, creating it when absent.
func (mu *mutator) block(tk TileKey, bk BlockKey) *Block {
	addr := blockAddr{tile: tk, block: bk}
	if b, ok := mu.blocks[addr]; ok {
		return b
	}
	t := mu.tile(tk)
	var b *Block
	if existing := t.blocks[bk]; existing != nil {
		b = existing.clone()
	} else {
		b = newRegionBlock(mu.regionFor(tk, bk))
	}
	t.blocks[bk] = b
	mu.blocks[addr] = b
	return b
}

func (mu *mutator) regionFor(tk TileKey, bk BlockKey) string {
	if mu.base.coder == nil {
		return UnknownRegion
	}
	center := geogrid.Pixel{
		X: tk.X<<geogrid.TilePixelsBits | bk.X<<geogrid.BlockPixelsBits | geogrid.BlockPixels/2,
		Y: tk.Y<<geogrid.TilePixelsBits | bk.Y<<geogrid.BlockPixelsBits | geogrid.BlockPixels/2,
	}
	return mu.base.coder.RegionCode(center.Center())
}

// setPixel marks an absolute pixel visited, cloning only if the bit flips.
func (mu *mutator) setPixel(p geogrid.Pixel) {
	tx, ty := p.Tile()
	bx, by := p.Block()
	lx, ly := p.Local()
	tk, bk := TileKey{X: tx, Y: ty}, BlockKey{X: bx, Y: by}
	if b, ok := mu.blocks[blockAddr{tile: tk, block: bk}]; ok {
		b.set(lx, ly)
		return
	}
	if bt := mu.base.tiles[tk]; bt != nil {
		if b := bt.blocks[bk]; b != nil && b.IsVisited(lx, ly) {
			return
		}
	}
	mu.block(tk, bk).set(lx, ly)
}

// commit fixes counts, drops emptied blocks and tiles, and returns the new map.
// With nothing touched it returns the base map itself.
func (mu *mutator) commit() *Map {
	if len(mu.blocks) == 0 {
		return mu.base
	}
	for addr, b := range mu.blocks {
		n := b.PopCount()
		if n == 0 {
			delete(mu.tiles[addr.tile].blocks, addr.block)
			continue
		}
		b.setCount(n)
	}
	next := make(map[TileKey]*Tile, len(mu.base.tiles)+len(mu.tiles))
	for k, t := range mu.base.tiles {
		next[k] = t
	}
	for k, t := range mu.tiles {
		if t.Len() == 0 {
			delete(next, k)
			continue
		}
		next[k] = t
	}
	return &Map{tiles: next, coder: mu.base.coder}
}

// ClearBbox clears every visited pixel inside b.
// Only blocks holding a visited pixel inside b are copied; the receiver is
// returned as is when nothing was visited there.
func (m *Map) ClearBbox(b orb.Bound) (*Map, error) {
	lo, hi, err := geogrid.BoundPixels(b)
	if err != nil {
		return m, errors.Join(ErrInvalidRegion, err)
	}
	mu := newMutator(m)
	m.eachBlockIn(lo, hi, func(tk TileKey, bk BlockKey, blk *Block, r pixelRect) {
		w, h := r.x1-r.x0+1, r.y1-r.y0+1
		if !blk.AnyInRect(r.x0, r.y0, w, h) {
			return
		}
		mu.block(tk, bk).clearRect(r.x0, r.y0, w, h)
	})
	return mu.commit(), nil
}

// AddLine marks every pixel on the segment between two lng/lat points visited,
// rasterized with Bresenham's algorithm on the absolute pixel grid.
// A segment that crosses lng 180 is drawn the long way round unless
// its endpoints are given with continuous longitudes (e.g. 179 to 181).
// Endpoints more than 360 degrees apart are ErrInvalidRegion.
func (m *Map) AddLine(lng1, lat1, lng2, lat2 float64) (*Map, error) {
	lng1, lng2, err := geogrid.NormalizeSpan(lng1, lng2)
	if err != nil {
		return m, errors.Join(ErrInvalidRegion, err)
	}
	p0, err := geogrid.UnwrappedPixelAt(orb.Point{lng1, lat1})
	if err != nil {
		return m, errors.Join(ErrInvalidRegion, err)
	}
	p1, err := geogrid.UnwrappedPixelAt(orb.Point{lng2, lat2})
	if err != nil {
		return m, errors.Join(ErrInvalidRegion, err)
	}
	mu := newMutator(m)
	bresenham(p0, p1, func(x, y int) {
		mu.setPixel(geogrid.Pixel{X: geogrid.WrapX(x, geogrid.PixelZoom), Y: y})
	})
	return mu.commit(), nil
}

func bresenham(p0, p1 geogrid.Pixel, plot func(x, y int)) {
	x0, y0, x1, y1 := p0.X, p0.Y, p1.X, p1.Y
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
