package rgeo

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/rotblauer/catfog/fog"
	srgeo "github.com/sams96/rgeo"
)

type fakeGeocoder struct {
	calls int
	loc   srgeo.Location
	err   error
}

func (f *fakeGeocoder) GetLocation(pt orb.Point) (srgeo.Location, error) {
	f.calls++
	return f.loc, f.err
}

func TestCountryCoderCaches(t *testing.T) {
	f := &fakeGeocoder{loc: srgeo.Location{CountryCode2: "JP", CountryCode3: "JPN"}}
	c, err := NewCountryCoderWith(f, 8)
	if err != nil {
		t.Fatal(err)
	}
	pt := orb.Point{141.35, 43.06}
	for i := 0; i < 3; i++ {
		if got := c.RegionCode(pt); got != "JP" {
			t.Errorf("got %q", got)
		}
	}
	if f.calls != 1 {
		t.Errorf("geocoder called %d times", f.calls)
	}
}

func TestCountryCoderUnknown(t *testing.T) {
	for _, f := range []*fakeGeocoder{
		{err: srgeo.ErrLocationNotFound},
		{err: errors.New("boom")},
		{loc: srgeo.Location{CountryCode3: "JPN"}},
	} {
		c, err := NewCountryCoderWith(f, 8)
		if err != nil {
			t.Fatal(err)
		}
		if got := c.RegionCode(orb.Point{0, 0}); got != fog.UnknownRegion {
			t.Errorf("got %q for %+v", got, f)
		}
	}
}

func TestCountryCoderTagsDrawnBlocks(t *testing.T) {
	if testing.Short() {
		t.Skip("loads country polygons")
	}
	c, err := NewCountryCoder()
	if err != nil {
		t.Fatal(err)
	}
	if got := c.RegionCode(orb.Point{-113.99, 46.87}); got != "US" {
		t.Errorf("Missoula coded %q", got)
	}
	if got := c.RegionCode(orb.Point{-30, 0}); got != fog.UnknownRegion {
		t.Errorf("mid Atlantic coded %q", got)
	}

	m, err := fog.Empty().WithRegionCoder(c).AddLine(-113.99, 46.87, -113.98, 46.87)
	if err != nil {
		t.Fatal(err)
	}
	counts := m.RegionCounts()
	if counts["US"] != m.Count() || m.Count() == 0 {
		t.Errorf("region counts %v, total %d", counts, m.Count())
	}
}
