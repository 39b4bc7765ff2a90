package fog

import (
	"slices"

	"github.com/paulmach/orb"
	"github.com/rotblauer/catfog/geogrid"
)

// TileKey addresses a storage tile in the 512x512 grid.
type TileKey struct {
	X, Y int
}

// ID returns x + y*512.
func (k TileKey) ID() int {
	return geogrid.TileID(k.X, k.Y)
}

// Bound returns the geographic bound of the tile.
func (k TileKey) Bound() orb.Bound {
	return geogrid.TileBound(k.X, k.Y)
}

// Valid reports whether the key lies inside the storage grid.
func (k TileKey) Valid() bool {
	return k.X >= 0 && k.X < geogrid.TileWidth && k.Y >= 0 && k.Y < geogrid.TileWidth
}

// BlockKey addresses a block within its tile's 128x128 grid.
type BlockKey struct {
	X, Y int
}

// Index is the block's position in the tile file header.
func (k BlockKey) Index() int {
	return k.X + k.Y*geogrid.TileBlocks
}

// BlockKeyFromIndex inverts Index.
func BlockKeyFromIndex(i int) BlockKey {
	return BlockKey{X: i % geogrid.TileBlocks, Y: i / geogrid.TileBlocks}
}

// Valid reports whether the key lies inside a tile.
func (k BlockKey) Valid() bool {
	return k.X >= 0 && k.X < geogrid.TileBlocks && k.Y >= 0 && k.Y < geogrid.TileBlocks
}

// Tile is a sparse grid of blocks. Tiles are immutable once built.
type Tile struct {
	X, Y   int
	blocks map[BlockKey]*Block
}

// NewTile builds a tile owning blocks. The caller must not modify
// the map afterwards.
func NewTile(x, y int, blocks map[BlockKey]*Block) *Tile {
	if blocks == nil {
		blocks = make(map[BlockKey]*Block)
	}
	return &Tile{X: x, Y: y, blocks: blocks}
}

func (t *Tile) Key() TileKey {
	return TileKey{X: t.X, Y: t.Y}
}

func (t *Tile) ID() int {
	return geogrid.TileID(t.X, t.Y)
}

// Len returns the number of blocks.
func (t *Tile) Len() int {
	return len(t.blocks)
}

// Block returns the block at k, or nil.
func (t *Tile) Block(k BlockKey) *Block {
	return t.blocks[k]
}

// Range calls fn for every block in unspecified order until fn returns false.
func (t *Tile) Range(fn func(k BlockKey, b *Block) bool) {
	for k, b := range t.blocks {
		if !fn(k, b) {
			return
		}
	}
}

// Keys returns block keys in increasing header-index order.
func (t *Tile) Keys() []BlockKey {
	keys := make([]BlockKey, 0, len(t.blocks))
	for k := range t.blocks {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b BlockKey) int {
		return a.Index() - b.Index()
	})
	return keys
}

// Count sums the stored per-block counts.
func (t *Tile) Count() int {
	n := 0
	for _, b := range t.blocks {
		n += b.Count()
	}
	return n
}

// PopCount sums the set bits of every block.
func (t *Tile) PopCount() int {
	n := 0
	for _, b := range t.blocks {
		n += b.PopCount()
	}
	return n
}

// IsEmpty reports whether no pixel of the tile is visited.
func (t *Tile) IsEmpty() bool {
	for _, b := range t.blocks {
		if !b.IsEmpty() {
			return false
		}
	}
	return true
}

// IsVisited reports whether the tile-local pixel (0..8191) is visited.
func (t *Tile) IsVisited(x, y int) bool {
	b := t.blocks[BlockKey{X: x >> geogrid.BlockPixelsBits, Y: y >> geogrid.BlockPixelsBits}]
	if b == nil {
		return false
	}
	return b.IsVisited(x&(geogrid.BlockPixels-1), y&(geogrid.BlockPixels-1))
}

func (t *Tile) clone() *Tile {
	blocks := make(map[BlockKey]*Block, len(t.blocks))
	for k, b := range t.blocks {
		blocks[k] = b
	}
	return &Tile{X: t.X, Y: t.Y, blocks: blocks}
}

// equalContent compares visited bits only.
func (t *Tile) equalContent(o *Tile) bool {
	if t == o {
		return true
	}
	if len(t.blocks) != len(o.blocks) {
		return false
	}
	for k, b := range t.blocks {
		ob, ok := o.blocks[k]
		if !ok {
			return false
		}
		if b != ob && b.bitmap != ob.bitmap {
			return false
		}
	}
	return true
}
