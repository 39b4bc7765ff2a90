package geogrid

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/rotblauer/catfog/common"
)

func TestLngLatToTileXYMatchesMaptile(t *testing.T) {
	points := []orb.Point{
		{-113.4733911, 47.178916},
		{0.5, 0.5},
		{139.7, 35.6},
		{-0.1, 51.5},
	}
	for _, pt := range points {
		for _, z := range []int{0, 9, 16, 22} {
			x, y := LngLatToTileXY(pt.Lon(), pt.Lat(), z)
			want := maptile.At(pt, maptile.Zoom(z))
			if uint32(x) != want.X || uint32(y) != want.Y {
				t.Errorf("%v z%d: got %d/%d want %d/%d", pt, z, uint32(x), uint32(y), want.X, want.Y)
			}
		}
	}
}

func TestLngLatToTileXYClampsLatitude(t *testing.T) {
	for _, lat := range []float64{90, 89.9999, MaxLatitude, -MaxLatitude, -90} {
		for _, z := range []int{0, 9, 22} {
			_, y := LngLatToTileXY(10, lat, z)
			n := math.Pow(2, float64(z))
			if y < 0 || y >= n {
				t.Errorf("lat %v z%d: y=%v out of [0,%v)", lat, z, y, n)
			}
		}
	}
}

func TestLngLatToTileXYClampsZoom(t *testing.T) {
	x1, y1 := LngLatToTileXY(10, 10, 40)
	x2, y2 := LngLatToTileXY(10, 10, PixelZoom)
	if x1 != x2 || y1 != y2 {
		t.Errorf("zoom 40 should clamp to %d", PixelZoom)
	}
}

func TestTileXYToLngLatInverse(t *testing.T) {
	lng, lat := 12.34, -45.67
	x, y := LngLatToTileXY(lng, lat, 14)
	gotLng, gotLat := TileXYToLngLat(x, y, 14)
	if math.Abs(gotLng-lng) > 1e-9 || math.Abs(gotLat-lat) > 1e-9 {
		t.Errorf("round trip: got %v,%v want %v,%v", gotLng, gotLat, lng, lat)
	}
}

func TestWrapX(t *testing.T) {
	if got := WrapX(-1, 9); got != 511 {
		t.Errorf("WrapX(-1) = %d", got)
	}
	if got := WrapX(512, 9); got != 0 {
		t.Errorf("WrapX(512) = %d", got)
	}
	if got := WrapX(513, 9); got != 1 {
		t.Errorf("WrapX(513) = %d", got)
	}
}

func TestPixelShifts(t *testing.T) {
	// tile 412/229, block 3/100, local 17/42
	p := Pixel{
		X: 412<<TilePixelsBits | 3<<BlockPixelsBits | 17,
		Y: 229<<TilePixelsBits | 100<<BlockPixelsBits | 42,
	}
	if x, y := p.Tile(); x != 412 || y != 229 {
		t.Errorf("tile: %d/%d", x, y)
	}
	if x, y := p.Block(); x != 3 || y != 100 {
		t.Errorf("block: %d/%d", x, y)
	}
	if x, y := p.Local(); x != 17 || y != 42 {
		t.Errorf("local: %d/%d", x, y)
	}
	back, err := PixelAt(p.Center())
	if err != nil {
		t.Fatal(err)
	}
	if back != p {
		t.Errorf("center round trip: %v != %v", back, p)
	}
}

func TestPixelAtWrapsLongitude(t *testing.T) {
	p, err := PixelAt(orb.Point{180, 0})
	if err != nil {
		t.Fatal(err)
	}
	if p.X != 0 {
		t.Errorf("lng 180 should wrap to column 0, got %d", p.X)
	}
	u, _ := UnwrappedPixelAt(orb.Point{180, 0})
	if u.X != WorldPixels {
		t.Errorf("unwrapped lng 180 should be %d, got %d", WorldPixels, u.X)
	}
}

func TestBoundPixels(t *testing.T) {
	_, _, err := BoundPixels(orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{1, 2}})
	if !errors.Is(err, ErrDegenerate) {
		t.Errorf("zero width: expected ErrDegenerate, got %v", err)
	}
	_, _, err = BoundPixels(orb.Bound{Min: orb.Point{math.NaN(), 1}, Max: orb.Point{2, 2}})
	if !errors.Is(err, ErrDegenerate) {
		t.Errorf("NaN: expected ErrDegenerate, got %v", err)
	}
	min, max, err := BoundPixels(orb.Bound{Min: orb.Point{-180, -MaxLatitude}, Max: orb.Point{180, MaxLatitude}})
	if err != nil {
		t.Fatal(err)
	}
	if min.X != 0 || min.Y != 0 || max.X != WorldPixels-1 || max.Y != WorldPixels-1 {
		t.Errorf("world bound: %v %v", min, max)
	}

	for _, b := range []orb.Bound{
		{Min: orb.Point{-200, -1}, Max: orb.Point{-190, 1}},
		{Min: orb.Point{190, -1}, Max: orb.Point{200, 1}},
		{Min: orb.Point{-190, -1}, Max: orb.Point{-180, 1}},
		{Min: orb.Point{180, -1}, Max: orb.Point{190, 1}},
	} {
		if _, _, err := BoundPixels(b); !errors.Is(err, ErrDegenerate) {
			t.Errorf("off-world %v: expected ErrDegenerate, got %v", b, err)
		}
	}
	min, max, err = BoundPixels(orb.Bound{Min: orb.Point{-200, -1}, Max: orb.Point{-179, 1}})
	if err != nil {
		t.Fatal(err)
	}
	if min.X != 0 || max.X <= 0 {
		t.Errorf("partly off-world bound should clamp: %v %v", min, max)
	}
}

func TestNormalizeSpan(t *testing.T) {
	cases := []struct {
		lng1, lng2 float64
		want1      float64
		want2      float64
	}{
		{0, 10, 0, 10},
		{179, 181, 179, 181},
		{180, 181, -180, -179},
		{-190, -170, 170, 190},
		{1e7, 1e7 + 0.5, -80, -79.5},
		{-180, 180, -180, 180},
	}
	for _, c := range cases {
		a, b, err := NormalizeSpan(c.lng1, c.lng2)
		if err != nil {
			t.Errorf("NormalizeSpan(%v, %v): %v", c.lng1, c.lng2, err)
			continue
		}
		if a != c.want1 || b != c.want2 {
			t.Errorf("NormalizeSpan(%v, %v) = %v, %v, want %v, %v", c.lng1, c.lng2, a, b, c.want1, c.want2)
		}
	}
	for _, c := range [][2]float64{
		{0, 1e7},
		{0, 1e300},
		{-1e300, 0},
		{0, 360.5},
		{math.Inf(1), 0},
		{0, math.NaN()},
	} {
		if _, _, err := NormalizeSpan(c[0], c[1]); !errors.Is(err, ErrDegenerate) {
			t.Errorf("NormalizeSpan(%v, %v): expected ErrDegenerate, got %v", c[0], c[1], err)
		}
	}
}

func TestGridZooms(t *testing.T) {
	if TileWidth != 512 || TileBlocks != 128 || BlockPixels != 64 || TilePixels != 8192 {
		t.Errorf("grid sizes %d %d %d %d", TileWidth, TileBlocks, BlockPixels, TilePixels)
	}
	if PixelZoom != int(common.SlippyZoomLevelMax) || WorldPixels != 1<<22 {
		t.Errorf("pixel zoom %d, world %d", PixelZoom, WorldPixels)
	}
}

func TestTileID(t *testing.T) {
	id := TileID(412, 229)
	if id != 412+229*512 {
		t.Errorf("id %d", id)
	}
	if x, y := TileXYFromID(id); x != 412 || y != 229 {
		t.Errorf("from id: %d/%d", x, y)
	}
	b := TileBound(412, 229)
	c := b.Center()
	x, y := LngLatToTileXY(c.Lon(), c.Lat(), StorageZoom)
	if int(x) != 412 || int(y) != 229 {
		t.Errorf("tile bound center maps to %v/%v", x, y)
	}
}
