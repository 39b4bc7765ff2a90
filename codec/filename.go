package codec

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotblauer/catfog/geogrid"
)

const (
	// digitAlphabet maps decimal digits to the characters spelling a tile id.
	digitAlphabet = "olhwjsktri"
	// suffixAlphabet spells the last two digits again as a trailing check.
	suffixAlphabet = "eizxdwknmo"

	prefixLen = 4
	suffixLen = 2
)

// Filename returns the on-disk name of the storage tile at x, y.
func Filename(x, y int) string {
	return FilenameForID(geogrid.TileID(x, y))
}

// FilenameForID returns the on-disk name of the storage tile with id.
func FilenameForID(id int) string {
	digits := strconv.Itoa(id)
	sum := md5.Sum([]byte(digits))

	var sb strings.Builder
	sb.WriteString(hex.EncodeToString(sum[:])[:prefixLen])
	for i := 0; i < len(digits); i++ {
		sb.WriteByte(digitAlphabet[digits[i]-'0'])
	}
	last := fmt.Sprintf("%02d", id%100)
	for i := 0; i < suffixLen; i++ {
		sb.WriteByte(suffixAlphabet[last[i]-'0'])
	}
	return sb.String()
}

// ParseFilename recovers the tile coordinates spelled by name.
// Only the id characters are checked; the prefix and suffix are ignored.
func ParseFilename(name string) (x, y int, err error) {
	if len(name) <= prefixLen+suffixLen {
		return 0, 0, fmt.Errorf("filename %q too short", name)
	}
	id := 0
	for _, c := range name[prefixLen : len(name)-suffixLen] {
		d := strings.IndexRune(digitAlphabet, c)
		if d < 0 {
			return 0, 0, fmt.Errorf("filename %q: unexpected character %q", name, c)
		}
		id = id*10 + d
		if id >= geogrid.TileWidth*geogrid.TileWidth {
			return 0, 0, fmt.Errorf("filename %q: tile id out of range", name)
		}
	}
	x, y = geogrid.TileXYFromID(id)
	return x, y, nil
}
