package tracks

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/rotblauer/catfog/archive"
	"github.com/rotblauer/catfog/codec"
	"github.com/rotblauer/catfog/fog"
	"github.com/rotblauer/catfog/params"
	"github.com/tkrajina/gpxgo/gpx"
)

const gpxCreator = "catfog"

// GPX builds a GPX 1.0 document with one track of one segment.
func GPX(ls orb.LineString) *gpx.GPX {
	seg := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, len(ls))}
	for i, pt := range ls {
		seg.Points[i] = gpx.GPXPoint{Point: gpx.Point{Latitude: pt.Lat(), Longitude: pt.Lon()}}
	}
	return &gpx.GPX{
		Version: "1.0",
		Creator: gpxCreator,
		Tracks:  []gpx.GPXTrack{{Segments: []gpx.GPXTrackSegment{seg}}},
	}
}

// MarshalGPX returns the indented GPX 1.0 XML of ls.
func MarshalGPX(ls orb.LineString) ([]byte, error) {
	return GPX(ls).ToXml(gpx.ToXmlParams{Version: "1.0", Indent: true})
}

// WriteGPX writes the GPX 1.0 XML of ls to w.
func WriteGPX(w io.Writer, ls orb.LineString) error {
	b, err := MarshalGPX(ls)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ExportTile extracts the tracks of t and returns one GPX document per track,
// named after the tile file and the track's ordinal.
func ExportTile(t *fog.Tile, cfg params.TrackConfig) ([]archive.Blob, error) {
	name := codec.TileFilename(t)
	var out []archive.Blob
	for i, tr := range Extract(t, cfg) {
		b, err := MarshalGPX(tr.LineString())
		if err != nil {
			return nil, fmt.Errorf("tile %s track %d: %w", name, i, err)
		}
		out = append(out, archive.Blob{Name: fmt.Sprintf("%s_%04d.gpx", name, i), Data: b})
	}
	return out, nil
}

// ExportMap exports every tile of m in tile id order.
func ExportMap(m *fog.Map, cfg params.TrackConfig) ([]archive.Blob, error) {
	var out []archive.Blob
	for _, k := range m.Keys() {
		blobs, err := ExportTile(m.Tile(k), cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, blobs...)
	}
	return out, nil
}
