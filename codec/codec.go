// Package codec reads and writes storage tile files.
//
// A tile file is a zlib stream. Inflated, it holds a header of 128*128
// little-endian uint16 slots followed by 515-byte block records. Slot i
// describes block (i%128, i/128): zero means no block, v means the record
// at HeaderSize + (v-1)*RecordSize.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/rotblauer/catfog/fog"
	"github.com/rotblauer/catfog/geogrid"
)

const (
	headerSlots = geogrid.TileBlocks * geogrid.TileBlocks
	// HeaderSize is the byte length of the inflated block table.
	HeaderSize = headerSlots * 2
)

// Decode decodes a compressed tile file.
// Every failure is a *DecodeError naming filename.
func Decode(filename string, data []byte) (*fog.Tile, error) {
	x, y, err := ParseFilename(filename)
	if err != nil {
		return nil, decodeErr(filename, ErrBadFilename, err)
	}
	raw, err := Inflate(data)
	if err != nil {
		return nil, decodeErr(filename, ErrInflate, err)
	}
	t, err := Unmarshal(x, y, raw)
	if err != nil {
		return nil, decodeErr(filename, ErrBlockTable, err)
	}
	return t, nil
}

// Inflate returns the decompressed content of a tile file.
func Inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// Unmarshal builds the tile at x, y from inflated bytes.
func Unmarshal(x, y int, raw []byte) (*fog.Tile, error) {
	if len(raw) < HeaderSize {
		return nil, fmt.Errorf("%d bytes is shorter than the %d byte header", len(raw), HeaderSize)
	}
	blocks := make(map[fog.BlockKey]*fog.Block)
	for i := 0; i < headerSlots; i++ {
		v := int(binary.LittleEndian.Uint16(raw[i*2:]))
		if v == 0 {
			continue
		}
		off := HeaderSize + (v-1)*fog.RecordSize
		if off+fog.RecordSize > len(raw) {
			return nil, fmt.Errorf("slot %d: record %d past end of data (%d bytes)", i, v-1, len(raw))
		}
		b, err := fog.NewBlock(raw[off:off+fog.BitmapSize], raw[off+fog.BitmapSize:off+fog.RecordSize])
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		blocks[fog.BlockKeyFromIndex(i)] = b
	}
	return fog.NewTile(x, y, blocks), nil
}

// Marshal returns the inflated bytes of t, records in increasing slot order.
func Marshal(t *fog.Tile) []byte {
	keys := t.Keys()
	raw := make([]byte, HeaderSize, HeaderSize+len(keys)*fog.RecordSize)
	for n, k := range keys {
		binary.LittleEndian.PutUint16(raw[k.Index()*2:], uint16(n+1))
		raw = t.Block(k).AppendRecord(raw)
	}
	return raw
}

// Encode returns the compressed tile file content of t.
func Encode(t *fog.Tile) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(Marshal(t)); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TileFilename returns the on-disk name of t.
func TileFilename(t *fog.Tile) string {
	return Filename(t.X, t.Y)
}
