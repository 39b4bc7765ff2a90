// Package testdata builds deterministic fog fixtures for tests.
package testdata

import (
	"encoding/binary"

	"github.com/rotblauer/catfog/fog"
	"github.com/rotblauer/catfog/geogrid"
)

// KnownTileX, KnownTileY address the storage tile most fixtures live in.
// It covers part of Hainan island.
const (
	KnownTileX = 412
	KnownTileY = 229
)

// Pixel returns the absolute pixel at tile, block and block-local coordinates.
func Pixel(tx, ty, bx, by, lx, ly int) geogrid.Pixel {
	return geogrid.Pixel{
		X: tx<<geogrid.TilePixelsBits | bx<<geogrid.BlockPixelsBits | lx,
		Y: ty<<geogrid.TilePixelsBits | by<<geogrid.BlockPixelsBits | ly,
	}
}

// Segment is a pair of absolute pixels a line is drawn between.
type Segment [2]geogrid.Pixel

// KnownSegments are the walks drawn into the known tile: a long east-west
// road, a north-south trail crossing it, a diagonal, a short loop
// and an isolated point far from the rest.
var KnownSegments = []Segment{
	{Pixel(412, 229, 10, 40, 3, 17), Pixel(412, 229, 30, 40, 60, 17)},
	{Pixel(412, 229, 20, 30, 31, 0), Pixel(412, 229, 20, 52, 31, 63)},
	{Pixel(412, 229, 40, 60, 0, 0), Pixel(412, 229, 48, 66, 32, 12)},
	{Pixel(412, 229, 90, 90, 10, 10), Pixel(412, 229, 90, 90, 50, 10)},
	{Pixel(412, 229, 90, 90, 50, 10), Pixel(412, 229, 90, 90, 50, 40)},
	{Pixel(412, 229, 90, 90, 50, 40), Pixel(412, 229, 90, 90, 10, 40)},
	{Pixel(412, 229, 90, 90, 10, 40), Pixel(412, 229, 90, 90, 10, 10)},
	{Pixel(412, 229, 120, 5, 7, 7), Pixel(412, 229, 120, 5, 7, 7)},
}

// DrawSegments draws each segment into m through pixel centers.
func DrawSegments(m *fog.Map, segs ...Segment) (*fog.Map, error) {
	var err error
	for _, s := range segs {
		a, b := s[0].Center(), s[1].Center()
		m, err = m.AddLine(a.Lon(), a.Lat(), b.Lon(), b.Lat())
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// KnownMap returns a map holding only the known tile.
func KnownMap() *fog.Map {
	m, err := DrawSegments(fog.Empty(), KnownSegments...)
	if err != nil {
		panic(err)
	}
	return m
}

// KnownTile returns the known tile, built from KnownSegments.
func KnownTile() *fog.Tile {
	return KnownMap().Tile(fog.TileKey{X: KnownTileX, Y: KnownTileY})
}

// ScatteredMap returns a map with a short walk in each of several tiles
// spread over the world, including both ends of the x axis.
func ScatteredMap() *fog.Map {
	var segs []Segment
	for _, tk := range [][2]int{{0, 255}, {100, 180}, {255, 255}, {412, 229}, {511, 300}} {
		segs = append(segs, Segment{
			Pixel(tk[0], tk[1], 60, 60, 0, 0),
			Pixel(tk[0], tk[1], 68, 64, 0, 0),
		})
	}
	m, err := DrawSegments(fog.Empty(), segs...)
	if err != nil {
		panic(err)
	}
	return m
}

// Bitmap returns a block bitmap with the given block-local pixels set.
func Bitmap(pixels ...[2]int) []byte {
	bm := make([]byte, fog.BitmapSize)
	for _, p := range pixels {
		bm[p[1]*geogrid.BlockPixels/8+p[0]/8] |= 1 << (7 - p[0]%8)
	}
	return bm
}

// Metadata packs a region code and visited count the way tile files do.
func Metadata(region string, count int) []byte {
	meta := make([]byte, fog.MetadataSize)
	c0, c1 := region[0]-'?', region[1]-'?'
	meta[0] = c0<<3 | c1>>2
	v := uint16(c1&3)<<14 | uint16(count<<1)&0x3FFE
	binary.BigEndian.PutUint16(meta[1:], v)
	return meta
}
