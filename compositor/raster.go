package compositor

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/paulmach/orb/maptile"
	"golang.org/x/image/draw"
)

// Raster is the fog coverage of one display tile.
// Each pixel is either fog, drawn with alpha Opacity, or cleared.
type Raster struct {
	Tile    maptile.Tile
	Opacity uint8

	bits int
	// img holds 0xFF for fog and 0 for cleared pixels.
	// It is nil while every pixel is fog.
	img *image.Alpha
}

func newRaster(t maptile.Tile, bits int, opacity uint8) *Raster {
	return &Raster{Tile: t, Opacity: opacity, bits: bits}
}

// Size returns the raster edge length in pixels.
func (r *Raster) Size() int {
	return 1 << r.bits
}

// IsAllFog reports whether no pixel has been cleared.
// All-fog rasters hold no pixel buffer.
func (r *Raster) IsAllFog() bool {
	return r.img == nil
}

// IsFog reports whether the pixel at px, py is fog.
func (r *Raster) IsFog(px, py int) bool {
	return r.img == nil || r.img.Pix[py*r.img.Stride+px] != 0
}

// At returns the fog alpha at px, py.
func (r *Raster) At(px, py int) uint8 {
	if r.IsFog(px, py) {
		return r.Opacity
	}
	return 0
}

// Cleared counts the cleared pixels.
func (r *Raster) Cleared() int {
	if r.img == nil {
		return 0
	}
	n := 0
	for _, a := range r.img.Pix {
		if a == 0 {
			n++
		}
	}
	return n
}

// Bytes returns the size of the pixel buffer, zero for all-fog rasters.
func (r *Raster) Bytes() int {
	if r.img == nil {
		return 0
	}
	return len(r.img.Pix)
}

// Mask returns the coverage as an alpha mask, opaque where fog remains.
func (r *Raster) Mask() image.Image {
	if r.img == nil {
		return image.Opaque
	}
	return r.img
}

// EncodePNG paints fog, scaled by Opacity, over a transparent canvas
// through the coverage mask.
func (r *Raster) EncodePNG(w io.Writer, fog color.NRGBA) error {
	size := r.Size()
	bounds := image.Rect(0, 0, size, size)
	dst := image.NewNRGBA(bounds)
	fog.A = uint8(uint16(fog.A) * uint16(r.Opacity) / 0xFF)
	draw.DrawMask(dst, bounds, &image.Uniform{C: fog}, image.Point{}, r.Mask(), image.Point{}, draw.Src)
	return png.Encode(w, dst)
}

// clearRect clears the w x h pixel rectangle at px, py, materializing the buffer.
func (r *Raster) clearRect(px, py, w, h int) {
	if r.img == nil {
		size := r.Size()
		r.img = image.NewAlpha(image.Rect(0, 0, size, size))
		for i := range r.img.Pix {
			r.img.Pix[i] = 0xFF
		}
	}
	for y := py; y < py+h; y++ {
		row := r.img.Pix[y*r.img.Stride:]
		for x := px; x < px+w; x++ {
			row[x] = 0
		}
	}
}
