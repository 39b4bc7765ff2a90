package fog

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/rotblauer/catfog/geogrid"
)

const (
	// BitmapSize is the byte length of a block's 64x64 visited bitmap.
	BitmapSize = geogrid.BlockPixels * geogrid.BlockPixels / 8
	// MetadataSize is the byte length of a block's region+count trailer.
	MetadataSize = 3
	// RecordSize is the on-disk size of one block.
	RecordSize = BitmapSize + MetadataSize

	bitmapRowBytes = geogrid.BlockPixels / 8

	// regionBias is added to each 5-bit region field to produce a character.
	// A zero field reads as '?'.
	regionBias = '?'

	// countMask selects the 13 count bits of the big-endian metadata[1:3] word;
	// the count sits one bit up from the bottom.
	countMask  = 0x3FFE
	countShift = 1
)

// UnknownRegion is the region code of blocks with zeroed region bits.
const UnknownRegion = "??"

// Block is a 64x64 visited-pixel bitmap plus 3 metadata bytes.
// Blocks are immutable once published in a Tile.
type Block struct {
	bitmap [BitmapSize]byte
	meta   [MetadataSize]byte
}

// NewBlock copies a decoded bitmap and metadata into a Block.
func NewBlock(bitmap, meta []byte) (*Block, error) {
	if len(bitmap) != BitmapSize {
		return nil, fmt.Errorf("block bitmap: want %d bytes, got %d", BitmapSize, len(bitmap))
	}
	if len(meta) != MetadataSize {
		return nil, fmt.Errorf("block metadata: want %d bytes, got %d", MetadataSize, len(meta))
	}
	b := &Block{}
	copy(b.bitmap[:], bitmap)
	copy(b.meta[:], meta)
	return b, nil
}

// newRegionBlock returns an empty block tagged with a region code.
func newRegionBlock(region string) *Block {
	b := &Block{}
	b.setRegion(region)
	return b
}

func bitIndex(x, y int) (i int, mask byte) {
	return y*bitmapRowBytes + x>>3, 1 << (7 - uint(x&7))
}

// IsVisited reports whether the pixel at local block coordinates is visited.
func (b *Block) IsVisited(x, y int) bool {
	i, mask := bitIndex(x, y)
	return b.bitmap[i]&mask != 0
}

// Count returns the visited-pixel count stored in the metadata.
// It is not checked against the bitmap.
func (b *Block) Count() int {
	v := binary.BigEndian.Uint16(b.meta[1:3])
	return int(v&countMask) >> countShift
}

// PopCount counts the set bits of the bitmap.
func (b *Block) PopCount() int {
	n := 0
	for i := 0; i < BitmapSize; i += 8 {
		n += bits.OnesCount64(binary.BigEndian.Uint64(b.bitmap[i : i+8]))
	}
	return n
}

// IsEmpty reports whether no pixel is visited.
func (b *Block) IsEmpty() bool {
	for _, v := range b.bitmap {
		if v != 0 {
			return false
		}
	}
	return true
}

// Region returns the two-character region code.
func (b *Block) Region() string {
	c0 := b.meta[0] >> 3
	c1 := (b.meta[0]&0x7)<<2 | (b.meta[1]&0xC0)>>6
	return string([]byte{c0 + regionBias, c1 + regionBias})
}

// AnyInRect reports whether any pixel in the w x h rectangle at x, y is visited.
func (b *Block) AnyInRect(x, y, w, h int) bool {
	for row := y; row < y+h; row++ {
		base := row * bitmapRowBytes
		for col := x; col < x+w; {
			if col&7 == 0 && x+w-col >= 8 {
				if b.bitmap[base+col>>3] != 0 {
					return true
				}
				col += 8
				continue
			}
			if b.bitmap[base+col>>3]&(1<<(7-uint(col&7))) != 0 {
				return true
			}
			col++
		}
	}
	return false
}

// EachVisited calls fn for every visited pixel in the inclusive local
// rectangle x0..x1, y0..y1, row by row.
func (b *Block) EachVisited(x0, y0, x1, y1 int, fn func(x, y int)) {
	for y := y0; y <= y1; y++ {
		row := b.bitmap[y*bitmapRowBytes : (y+1)*bitmapRowBytes]
		for x := x0; x <= x1; {
			v := row[x>>3]
			if v == 0 {
				x = (x | 7) + 1
				continue
			}
			if v&(0x80>>uint(x&7)) != 0 {
				fn(x, y)
			}
			x++
		}
	}
}

// AppendRecord appends the 515-byte on-disk record to dst.
func (b *Block) AppendRecord(dst []byte) []byte {
	dst = append(dst, b.bitmap[:]...)
	return append(dst, b.meta[:]...)
}

func (b *Block) clone() *Block {
	cp := *b
	return &cp
}

func (b *Block) set(x, y int) {
	i, mask := bitIndex(x, y)
	b.bitmap[i] |= mask
}

func (b *Block) clearRect(x, y, w, h int) {
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			i, mask := bitIndex(col, row)
			b.bitmap[i] &^= mask
		}
	}
}

func (b *Block) setCount(n int) {
	v := binary.BigEndian.Uint16(b.meta[1:3])
	v = v&^countMask | uint16(n<<countShift)&countMask
	binary.BigEndian.PutUint16(b.meta[1:3], v)
}

func (b *Block) setRegion(region string) {
	if len(region) != 2 {
		region = UnknownRegion
	}
	field := func(c byte) byte {
		if c < regionBias || c > regionBias+31 {
			return 0
		}
		return c - regionBias
	}
	c0, c1 := field(region[0]), field(region[1])
	b.meta[0] = c0<<3 | c1>>2
	b.meta[1] = b.meta[1]&0x3F | (c1&0x3)<<6
}
