// Package compositor renders fog coverage rasters for slippy display tiles.
//
// A display tile at zoom z with a raster of 2^R pixels per side samples the
// stored grid at zoom z+R. With d = 22-(z+R), a raster pixel covers a 2^d
// square of stored pixels when d >= 0 and is cleared if any of them is
// visited; when d < 0 each stored pixel is replicated over a 2^-d square.
// All conversions are shifts on absolute grid coordinates, so neighbouring
// display tiles agree along their shared edges.
package compositor

import (
	"github.com/paulmach/orb/maptile"
	"github.com/rotblauer/catfog/common"
	"github.com/rotblauer/catfog/fog"
	"github.com/rotblauer/catfog/geogrid"
	"github.com/rotblauer/catfog/params"
)

const maxRasterBits = 10

type Compositor struct {
	bits    int
	opacity uint8
}

func New(cfg params.CompositorConfig) *Compositor {
	bits := cfg.RasterBits
	if bits <= 0 || bits > maxRasterBits {
		bits = params.DefaultCompositorConfig().RasterBits
	}
	return &Compositor{
		bits:    bits,
		opacity: cfg.FogOpacity,
	}
}

// RasterBits returns log2 of the raster edge length.
func (c *Compositor) RasterBits() int {
	return c.bits
}

// Render returns the fog raster of display tile t.
// Zooms past the pixel zoom render their ancestor at zoom 22;
// tiles outside the world render as full fog.
func (c *Compositor) Render(m *fog.Map, t maptile.Tile) *Raster {
	for int(t.Z) > int(common.SlippyZoomLevelMax) {
		t = t.Parent()
	}
	r := newRaster(t, c.bits, c.opacity)
	n := uint32(1) << t.Z
	if t.X >= n || t.Y >= n || m.IsEmpty() {
		return r
	}
	p := c.newPlotter(r)
	z := int(t.Z)
	switch {
	case z <= geogrid.StorageZoom:
		c.renderTiles(m, p)
	case z <= geogrid.BlockZoom:
		c.renderBlocks(m, p)
	default:
		c.renderPixels(m, p)
	}
	return r
}

// renderTiles covers z <= 9: the display tile spans 2^(9-z) storage tiles per side.
func (c *Compositor) renderTiles(m *fog.Map, p *plotter) {
	t := p.r.Tile
	shift := geogrid.StorageZoom - int(t.Z)
	span := 1 << shift
	x0, y0 := int(t.X)<<shift, int(t.Y)<<shift

	visit := func(tile *fog.Tile) {
		if p.d >= geogrid.TilePixelsBits {
			if !tile.IsEmpty() {
				p.plotCell(tile.X<<geogrid.TilePixelsBits, tile.Y<<geogrid.TilePixelsBits)
			}
			return
		}
		tile.Range(func(bk fog.BlockKey, b *fog.Block) bool {
			p.block(tile.Key(), bk, b, 0, 0, geogrid.BlockPixels-1, geogrid.BlockPixels-1)
			return true
		})
	}

	if span*span > m.Len() {
		m.Range(func(tile *fog.Tile) bool {
			if tile.X >= x0 && tile.X < x0+span && tile.Y >= y0 && tile.Y < y0+span {
				visit(tile)
			}
			return true
		})
		return
	}
	for y := y0; y < y0+span; y++ {
		for x := x0; x < x0+span; x++ {
			if tile := m.Tile(fog.TileKey{X: x, Y: y}); tile != nil {
				visit(tile)
			}
		}
	}
}

// renderBlocks covers 9 < z <= 16: one storage tile, a 2^(16-z) square of its blocks.
func (c *Compositor) renderBlocks(m *fog.Map, p *plotter) {
	t := p.r.Tile
	z := int(t.Z)
	tk := fog.TileKey{X: int(t.X) >> (z - geogrid.StorageZoom), Y: int(t.Y) >> (z - geogrid.StorageZoom)}
	tile := m.Tile(tk)
	if tile == nil {
		return
	}
	shift := geogrid.BlockZoom - z
	span := 1 << shift
	bx0 := (int(t.X) << shift) & (geogrid.TileBlocks - 1)
	by0 := (int(t.Y) << shift) & (geogrid.TileBlocks - 1)

	visit := func(bk fog.BlockKey, b *fog.Block) {
		p.block(tk, bk, b, 0, 0, geogrid.BlockPixels-1, geogrid.BlockPixels-1)
	}
	if span*span > tile.Len() {
		tile.Range(func(bk fog.BlockKey, b *fog.Block) bool {
			if bk.X >= bx0 && bk.X < bx0+span && bk.Y >= by0 && bk.Y < by0+span {
				visit(bk, b)
			}
			return true
		})
		return
	}
	for by := by0; by < by0+span; by++ {
		for bx := bx0; bx < bx0+span; bx++ {
			bk := fog.BlockKey{X: bx, Y: by}
			if b := tile.Block(bk); b != nil {
				visit(bk, b)
			}
		}
	}
}

// renderPixels covers z > 16: one block, a 2^(22-z) square of its pixels.
func (c *Compositor) renderPixels(m *fog.Map, p *plotter) {
	t := p.r.Tile
	z := int(t.Z)
	tk := fog.TileKey{X: int(t.X) >> (z - geogrid.StorageZoom), Y: int(t.Y) >> (z - geogrid.StorageZoom)}
	tile := m.Tile(tk)
	if tile == nil {
		return
	}
	bk := fog.BlockKey{
		X: (int(t.X) >> (z - geogrid.BlockZoom)) & (geogrid.TileBlocks - 1),
		Y: (int(t.Y) >> (z - geogrid.BlockZoom)) & (geogrid.TileBlocks - 1),
	}
	b := tile.Block(bk)
	if b == nil {
		return
	}
	shift := geogrid.PixelZoom - z
	span := 1 << shift
	lx0 := (int(t.X) << shift) & (geogrid.BlockPixels - 1)
	ly0 := (int(t.Y) << shift) & (geogrid.BlockPixels - 1)
	p.block(tk, bk, b, lx0, ly0, lx0+span-1, ly0+span-1)
}

// plotter maps absolute stored pixels onto one raster.
type plotter struct {
	r *Raster
	// d is the stored pixel zoom minus the raster pixel zoom.
	d int
	// ox, oy are the raster's origin in raster-zoom pixels.
	ox, oy int
}

func (c *Compositor) newPlotter(r *Raster) *plotter {
	return &plotter{
		r:  r,
		d:  geogrid.PixelZoom - (int(r.Tile.Z) + c.bits),
		ox: int(r.Tile.X) << c.bits,
		oy: int(r.Tile.Y) << c.bits,
	}
}

// plotCell clears the raster pixel holding absolute stored pixel gx, gy (d >= 0).
func (p *plotter) plotCell(gx, gy int) {
	p.r.clearRect((gx>>p.d)-p.ox, (gy>>p.d)-p.oy, 1, 1)
}

// plotSpread clears the 2^-d square stored pixel gx, gy expands to (d < 0).
func (p *plotter) plotSpread(gx, gy int) {
	s := -p.d
	p.r.clearRect((gx<<s)-p.ox, (gy<<s)-p.oy, 1<<s, 1<<s)
}

// block plots the visited pixels of b inside the inclusive local rectangle.
func (p *plotter) block(tk fog.TileKey, bk fog.BlockKey, b *fog.Block, x0, y0, x1, y1 int) {
	gx := tk.X<<geogrid.TilePixelsBits | bk.X<<geogrid.BlockPixelsBits
	gy := tk.Y<<geogrid.TilePixelsBits | bk.Y<<geogrid.BlockPixelsBits
	switch {
	case p.d >= geogrid.BlockPixelsBits:
		// The whole block falls in one raster pixel.
		if b.AnyInRect(x0, y0, x1-x0+1, y1-y0+1) {
			p.plotCell(gx, gy)
		}
	case p.d > 0:
		cell := 1 << p.d
		for cy := y0 &^ (cell - 1); cy <= y1; cy += cell {
			for cx := x0 &^ (cell - 1); cx <= x1; cx += cell {
				sx, sy := max(cx, x0), max(cy, y0)
				ex, ey := min(cx+cell-1, x1), min(cy+cell-1, y1)
				if b.AnyInRect(sx, sy, ex-sx+1, ey-sy+1) {
					p.plotCell(gx+cx, gy+cy)
				}
			}
		}
	case p.d == 0:
		b.EachVisited(x0, y0, x1, y1, func(x, y int) {
			p.r.clearRect(gx+x-p.ox, gy+y-p.oy, 1, 1)
		})
	default:
		b.EachVisited(x0, y0, x1, y1, func(x, y int) {
			p.plotSpread(gx+x, gy+y)
		})
	}
}
