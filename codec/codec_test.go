package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/rotblauer/catfog/fog"
	"github.com/rotblauer/catfog/geogrid"
	"github.com/rotblauer/catfog/testing/testdata"
)

func deflate(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestFilenameRoundTrip(t *testing.T) {
	known := geogrid.TileID(testdata.KnownTileX, testdata.KnownTileY)
	for _, id := range []int{0, 7, 42, 100, 511, 512, known, 262143} {
		name := FilenameForID(id)
		x, y, err := ParseFilename(name)
		if err != nil {
			t.Fatalf("%d: %v", id, err)
		}
		wx, wy := geogrid.TileXYFromID(id)
		if x != wx || y != wy {
			t.Errorf("%s: got %d/%d, want %d/%d", name, x, y, wx, wy)
		}
	}

	name := Filename(testdata.KnownTileX, testdata.KnownTileY)
	if len(name) != 12 {
		t.Errorf("six digit ids should give 12 character names: %q", name)
	}
	// 117660 -> llksso, suffix 60 -> ke
	if got := name[4:]; got != "llkssoke" {
		t.Errorf("cipher body %q", got)
	}
}

func TestParseFilenameErrors(t *testing.T) {
	for _, name := range []string{"", "abcdef", "abcdXYZei", "abcdlll1ke", "abcdlllllllllke"} {
		if _, _, err := ParseFilename(name); err == nil {
			t.Errorf("%q: expected error", name)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tile := testdata.KnownTile()
	data, err := Encode(tile)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(TileFilename(tile), data)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.X != tile.X || decoded.Y != tile.Y {
		t.Fatalf("decoded %d/%d", decoded.X, decoded.Y)
	}
	if decoded.Count() != tile.Count() || decoded.Len() != tile.Len() {
		t.Errorf("count %d/%d blocks %d/%d", decoded.Count(), tile.Count(), decoded.Len(), tile.Len())
	}

	// decode(encode(decode(f))) matches decode(f) at the inflated byte level.
	again, err := Encode(decoded)
	if err != nil {
		t.Fatal(err)
	}
	want, err := Inflate(data)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Inflate(again)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Error("inflated bytes differ after round trip")
	}
}

func TestDecodeKeepsMetadata(t *testing.T) {
	raw := make([]byte, HeaderSize)
	// Slot 5 holds record 1 and slot 200 record 2.
	binary.LittleEndian.PutUint16(raw[5*2:], 1)
	binary.LittleEndian.PutUint16(raw[200*2:], 2)
	raw = append(raw, testdata.Bitmap([2]int{0, 0}, [2]int{1, 0})...)
	raw = append(raw, testdata.Metadata("US", 2)...)
	raw = append(raw, testdata.Bitmap([2]int{63, 63})...)
	// A stale count is kept as stored.
	raw = append(raw, testdata.Metadata("JP", 9)...)

	name := Filename(3, 4)
	tile, err := Decode(name, deflate(t, raw))
	if err != nil {
		t.Fatal(err)
	}
	if tile.X != 3 || tile.Y != 4 {
		t.Errorf("tile %d/%d", tile.X, tile.Y)
	}
	a := tile.Block(fog.BlockKeyFromIndex(5))
	b := tile.Block(fog.BlockKeyFromIndex(200))
	if a == nil || b == nil {
		t.Fatal("missing blocks")
	}
	if fog.BlockKeyFromIndex(200) != (fog.BlockKey{X: 72, Y: 1}) {
		t.Error("slot index is x + y*128")
	}
	if a.Region() != "US" || a.Count() != 2 || !a.IsVisited(1, 0) {
		t.Errorf("block a: %s %d", a.Region(), a.Count())
	}
	if b.Region() != "JP" || b.Count() != 9 || b.PopCount() != 1 {
		t.Errorf("block b: %s %d %d", b.Region(), b.Count(), b.PopCount())
	}
	if !bytes.Equal(Marshal(tile), raw) {
		t.Error("Marshal should reproduce the inflated input")
	}
}

func TestDecodeErrors(t *testing.T) {
	good := Filename(1, 1)

	short := make([]byte, HeaderSize-2)

	dangling := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint16(dangling[0:], 3)
	dangling = append(dangling, make([]byte, fog.RecordSize)...)

	tests := []struct {
		name     string
		filename string
		data     []byte
		kind     error
	}{
		{"bad filename", "nope", deflate(t, make([]byte, HeaderSize)), ErrBadFilename},
		{"not zlib", good, []byte("definitely not compressed"), ErrInflate},
		{"truncated stream", good, deflate(t, make([]byte, HeaderSize))[:20], ErrInflate},
		{"short header", good, deflate(t, short), ErrBlockTable},
		{"dangling record", good, deflate(t, dangling), ErrBlockTable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.filename, tt.data)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DecodeError, got %T", err)
			}
			if de.Filename != tt.filename {
				t.Errorf("filename %q", de.Filename)
			}
		})
	}
}

func TestEncodeEmptyTile(t *testing.T) {
	data, err := Encode(fog.NewTile(9, 9, nil))
	if err != nil {
		t.Fatal(err)
	}
	raw, err := Inflate(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != HeaderSize {
		t.Errorf("empty tile inflates to %d bytes", len(raw))
	}
}
