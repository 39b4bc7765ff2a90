package tracks

import (
	"bytes"
	"math"
	"testing"

	"github.com/rotblauer/catfog/codec"
	"github.com/rotblauer/catfog/fog"
	"github.com/rotblauer/catfog/geogrid"
	"github.com/rotblauer/catfog/params"
	"github.com/rotblauer/catfog/testing/testdata"
	"github.com/tkrajina/gpxgo/gpx"
)

func checkTracks(t *testing.T, tile *fog.Tile, tracks []Track, cfg params.TrackConfig) {
	t.Helper()
	seen := make(map[geogrid.Pixel]bool)
	total := 0
	for i, tr := range tracks {
		if len(tr) == 0 || len(tr) > cfg.MaxPoints {
			t.Errorf("track %d has %d points", i, len(tr))
		}
		for j, p := range tr {
			if seen[p] {
				t.Errorf("pixel %v used twice", p)
			}
			seen[p] = true
			tx, ty := p.Tile()
			if tx != tile.X || ty != tile.Y {
				t.Fatalf("pixel %v outside tile", p)
			}
			if !tile.IsVisited(p.X&(geogrid.TilePixels-1), p.Y&(geogrid.TilePixels-1)) {
				t.Errorf("pixel %v not visited", p)
			}
			if j > 0 {
				prev := tr[j-1]
				dx, dy := abs(p.X-prev.X), abs(p.Y-prev.Y)
				if dx > cfg.SearchRadius || dy > cfg.SearchRadius {
					t.Errorf("track %d step %d jumps %d,%d", i, j, dx, dy)
				}
			}
		}
		total += len(tr)
	}
	if total != tile.Count() {
		t.Errorf("tracks hold %d pixels, tile count is %d", total, tile.Count())
	}
}

func TestExtractKnownTileFile(t *testing.T) {
	data, err := codec.Encode(testdata.KnownTile())
	if err != nil {
		t.Fatal(err)
	}
	tile, err := codec.Decode(codec.Filename(testdata.KnownTileX, testdata.KnownTileY), data)
	if err != nil {
		t.Fatal(err)
	}
	cfg := params.DefaultTrackConfig()
	tracks := Extract(tile, cfg)
	if len(tracks) < 2 {
		t.Errorf("the isolated point should start its own track, got %d tracks", len(tracks))
	}
	checkTracks(t, tile, tracks, cfg)
}

func TestExtractMaxPoints(t *testing.T) {
	a := testdata.Pixel(7, 7, 0, 0, 0, 0)
	b := geogrid.Pixel{X: a.X + 49, Y: a.Y}
	m, err := testdata.DrawSegments(fog.Empty(), testdata.Segment{a, b})
	if err != nil {
		t.Fatal(err)
	}
	tile := m.Tile(fog.TileKey{X: 7, Y: 7})
	cfg := params.TrackConfig{SearchRadius: 100, MaxPoints: 20}
	tracks := Extract(tile, cfg)
	if len(tracks) != 3 || len(tracks[0]) != 20 || len(tracks[2]) != 10 {
		t.Errorf("unexpected split: %d tracks", len(tracks))
	}
	checkTracks(t, tile, tracks, cfg)
	if tracks[0][0] != a {
		t.Errorf("first track should start at the first set pixel, got %v", tracks[0][0])
	}
}

func TestExtractRadiusSplits(t *testing.T) {
	a := testdata.Pixel(7, 7, 10, 10, 0, 0)
	b := testdata.Pixel(7, 7, 20, 10, 0, 0)
	m, err := testdata.DrawSegments(fog.Empty(), testdata.Segment{a, a}, testdata.Segment{b, b})
	if err != nil {
		t.Fatal(err)
	}
	tracks := Extract(m.Tile(fog.TileKey{X: 7, Y: 7}), params.DefaultTrackConfig())
	if len(tracks) != 2 {
		t.Errorf("points 640px apart should form 2 tracks, got %d", len(tracks))
	}
}

func TestExtractNearestIsManhattan(t *testing.T) {
	blk, err := fog.NewBlock(testdata.Bitmap([2]int{0, 0}, [2]int{3, 0}, [2]int{2, 2}), testdata.Metadata("??", 3))
	if err != nil {
		t.Fatal(err)
	}
	tile := fog.NewTile(1, 2, map[fog.BlockKey]*fog.Block{{X: 0, Y: 0}: blk})
	tracks := Extract(tile, params.DefaultTrackConfig())
	if len(tracks) != 1 {
		t.Fatalf("tracks %d", len(tracks))
	}
	ox, oy := 1<<geogrid.TilePixelsBits, 2<<geogrid.TilePixelsBits
	want := Track{{X: ox, Y: oy}, {X: ox + 3, Y: oy}, {X: ox + 2, Y: oy + 2}}
	for i := range want {
		if tracks[0][i] != want[i] {
			t.Errorf("point %d: got %v want %v", i, tracks[0][i], want[i])
		}
	}
}

func TestGPX(t *testing.T) {
	tile := testdata.KnownTile()
	tracks := Extract(tile, params.DefaultTrackConfig())
	ls := tracks[0].LineString()
	var buf bytes.Buffer
	if err := WriteGPX(&buf, ls); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`version="1.0"`)) {
		t.Error("expected a GPX 1.0 document")
	}
	doc, err := gpx.ParseBytes(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Tracks) != 1 || len(doc.Tracks[0].Segments) != 1 {
		t.Fatalf("want one trk with one trkseg")
	}
	pts := doc.Tracks[0].Segments[0].Points
	if len(pts) != len(ls) {
		t.Fatalf("points %d, want %d", len(pts), len(ls))
	}
	for i, p := range pts {
		if math.Abs(p.Latitude-ls[i].Lat()) > 1e-6 || math.Abs(p.Longitude-ls[i].Lon()) > 1e-6 {
			t.Errorf("point %d: %v,%v vs %v", i, p.Longitude, p.Latitude, ls[i])
		}
	}

	blobs, err := ExportTile(tile, params.DefaultTrackConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(blobs) != len(tracks) {
		t.Errorf("blobs %d, tracks %d", len(blobs), len(tracks))
	}
	if blobs[0].Name != codec.TileFilename(tile)+"_0000.gpx" {
		t.Errorf("name %q", blobs[0].Name)
	}
}
