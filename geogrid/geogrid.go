// Package geogrid converts between geographic coordinates and the three nested
// power-of-two grids that fog data is stored in.
//
// The world is a 512x512 grid of storage tiles at zoom 9.
// Each tile is a 128x128 grid of blocks (zoom 16), and each block is
// a 64x64 grid of pixels (zoom 22). Once a coordinate is projected to
// an absolute pixel, every other conversion is a shift or a mask.
package geogrid

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/rotblauer/catfog/common"
)

const (
	StorageZoom   = int(common.SlippyZoomLevel9)
	TileWidthBits = StorageZoom
	TileWidth     = 1 << TileWidthBits // 512

	BlockZoom      = int(common.SlippyZoomLevel16)
	TileBlocksBits = BlockZoom - StorageZoom
	TileBlocks     = 1 << TileBlocksBits // 128

	PixelZoom       = int(common.SlippyZoomLevel22)
	BlockPixelsBits = PixelZoom - BlockZoom
	BlockPixels     = 1 << BlockPixelsBits // 64

	TilePixelsBits = TileBlocksBits + BlockPixelsBits
	TilePixels     = 1 << TilePixelsBits // 8192

	// WorldPixels is the number of pixels along either axis of the whole world.
	WorldPixels = 1 << PixelZoom
)

// MaxLatitude is the Web Mercator latitude limit, atan(sinh(pi)).
const MaxLatitude = 85.0511287798066

// ErrDegenerate is returned for NaN coordinates and zero-area regions.
var ErrDegenerate = errors.New("degenerate region")

// ClampLatitude clamps lat into the projectable Mercator range.
func ClampLatitude(lat float64) float64 {
	return math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))
}

// LngLatToTileXY projects lng/lat to fractional slippy tile coordinates at zoom.
// Latitude is clamped so y always lands in [0, 2^zoom).
// X is not normalized: longitudes beyond +/-180 yield x outside [0, 2^zoom),
// which keeps segments continuous; use WrapX where wraparound matters.
func LngLatToTileXY(lng, lat float64, zoom int) (x, y float64) {
	n := float64(uint64(1) << uint(common.ClampZoom(zoom)))
	x = (lng + 180) / 360 * n
	latRad := ClampLatitude(lat) * math.Pi / 180
	y = (1 - math.Asinh(math.Tan(latRad))/math.Pi) / 2 * n
	if y < 0 {
		y = 0
	} else if y >= n {
		y = math.Nextafter(n, 0)
	}
	return x, y
}

// TileXYToLngLat is the inverse of LngLatToTileXY.
// Integer x, y give the north-west corner of that tile.
func TileXYToLngLat(x, y float64, zoom int) (lng, lat float64) {
	n := float64(uint64(1) << uint(common.ClampZoom(zoom)))
	lng = x/n*360 - 180
	lat = math.Atan(math.Sinh(math.Pi*(1-2*y/n))) * 180 / math.Pi
	return lng, lat
}

// WrapX normalizes x into [0, 2^zoom) on the cyclic x-axis.
func WrapX(x, zoom int) int {
	n := 1 << uint(common.ClampZoom(zoom))
	x %= n
	if x < 0 {
		x += n
	}
	return x
}

// ClampY clamps y into [0, 2^zoom).
func ClampY(y, zoom int) int {
	n := 1 << uint(common.ClampZoom(zoom))
	if y < 0 {
		return 0
	}
	if y >= n {
		return n - 1
	}
	return y
}

// Pixel is an absolute pixel coordinate at PixelZoom.
type Pixel struct {
	X, Y int
}

// Tile returns the storage tile coordinates holding the pixel.
func (p Pixel) Tile() (x, y int) {
	return p.X >> TilePixelsBits, p.Y >> TilePixelsBits
}

// Block returns the block coordinates within the pixel's tile.
func (p Pixel) Block() (x, y int) {
	return (p.X >> BlockPixelsBits) & (TileBlocks - 1), (p.Y >> BlockPixelsBits) & (TileBlocks - 1)
}

// Local returns the pixel coordinates within its block.
func (p Pixel) Local() (x, y int) {
	return p.X & (BlockPixels - 1), p.Y & (BlockPixels - 1)
}

// Center returns the geographic center of the pixel.
func (p Pixel) Center() orb.Point {
	lng, lat := TileXYToLngLat(float64(p.X)+0.5, float64(p.Y)+0.5, PixelZoom)
	return orb.Point{lng, lat}
}

func isNaN(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// PixelAt returns the pixel containing pt, with x wrapped onto the world.
func PixelAt(pt orb.Point) (Pixel, error) {
	if isNaN(pt.Lon(), pt.Lat()) {
		return Pixel{}, ErrDegenerate
	}
	x, y := LngLatToTileXY(pt.Lon(), pt.Lat(), PixelZoom)
	return Pixel{
		X: WrapX(int(math.Floor(x)), PixelZoom),
		Y: int(math.Floor(y)),
	}, nil
}

// UnwrappedPixelAt is like PixelAt but leaves x off-world for longitudes
// beyond +/-180. Line rasterization uses it so segments stay continuous.
func UnwrappedPixelAt(pt orb.Point) (Pixel, error) {
	if isNaN(pt.Lon(), pt.Lat()) {
		return Pixel{}, ErrDegenerate
	}
	x, y := LngLatToTileXY(pt.Lon(), pt.Lat(), PixelZoom)
	return Pixel{X: int(math.Floor(x)), Y: int(math.Floor(y))}, nil
}

// NormalizeSpan shifts the longitudes of a segment by whole turns so lng1
// lies in [-180, 180), keeping their difference. Spans wider than one
// turn are ErrDegenerate.
func NormalizeSpan(lng1, lng2 float64) (float64, float64, error) {
	d := lng2 - lng1
	if isNaN(lng1, lng2, d) || math.Abs(d) > 360 {
		return lng1, lng2, ErrDegenerate
	}
	a := math.Mod(lng1+180, 360)
	if a < 0 {
		a += 360
	}
	a -= 180
	return a, a + d, nil
}

// BoundPixels returns the inclusive pixel rectangle covering b.
// X is clamped, not wrapped, so a bound reaching lng 180 ends at the last column.
// A bound lying entirely outside [-180, 180] is ErrDegenerate.
func BoundPixels(b orb.Bound) (min, max Pixel, err error) {
	if isNaN(b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()) {
		return min, max, ErrDegenerate
	}
	if b.Max.Lon() <= b.Min.Lon() || b.Max.Lat() <= b.Min.Lat() {
		return min, max, ErrDegenerate
	}
	x0, y0 := LngLatToTileXY(b.Min.Lon(), b.Max.Lat(), PixelZoom)
	x1, y1 := LngLatToTileXY(b.Max.Lon(), b.Min.Lat(), PixelZoom)
	if x1 <= 0 || x0 >= WorldPixels {
		return min, max, ErrDegenerate
	}
	clampX := func(x float64) int {
		return int(math.Max(0, math.Min(WorldPixels-1, math.Floor(x))))
	}
	min = Pixel{X: clampX(x0), Y: int(math.Floor(y0))}
	max = Pixel{X: clampX(x1), Y: int(math.Floor(y1))}
	return min, max, nil
}

// TileID returns the storage tile id for tile coordinates.
func TileID(x, y int) int {
	return x + y*TileWidth
}

// TileXYFromID inverts TileID.
func TileXYFromID(id int) (x, y int) {
	return id % TileWidth, id / TileWidth
}

// TileBound returns the geographic bound of a storage tile.
func TileBound(x, y int) orb.Bound {
	return maptile.New(uint32(x), uint32(y), maptile.Zoom(StorageZoom)).Bound()
}

// PixelBound returns the geographic bound of the pixel rectangle [min, max].
func PixelBound(min, max Pixel) orb.Bound {
	w, n := TileXYToLngLat(float64(min.X), float64(min.Y), PixelZoom)
	e, s := TileXYToLngLat(float64(max.X+1), float64(max.Y+1), PixelZoom)
	return orb.Bound{Min: orb.Point{w, s}, Max: orb.Point{e, n}}
}
