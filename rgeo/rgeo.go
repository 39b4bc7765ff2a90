// Package rgeo tags fog blocks with the country they fall in,
// using the offline Natural Earth datasets bundled by sams96/rgeo.
package rgeo

import (
	"errors"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb"
	"github.com/rotblauer/catfog/fog"
	srgeo "github.com/sams96/rgeo"
)

type ReverseGeocoder interface {
	GetLocation(pt orb.Point) (srgeo.Location, error)
}

// rR wraps srgeo.Rgeo to implement ReverseGeocoder.
type rR srgeo.Rgeo

func (rr *rR) GetLocation(pt orb.Point) (srgeo.Location, error) {
	return (*srgeo.Rgeo)(rr).ReverseGeocode(pt)
}

// Countries10 is the only dataset a CountryCoder needs.
var Countries10 = srgeo.Countries10

// DefaultCacheSize bounds the number of remembered block lookups.
const DefaultCacheSize = 1 << 14

// CountryCoder implements fog.RegionCoder with ISO 3166 alpha-2 codes.
// Points outside every country, such as the open sea, get fog.UnknownRegion.
type CountryCoder struct {
	r     ReverseGeocoder
	cache *lru.Cache[orb.Point, string]
}

var _ fog.RegionCoder = (*CountryCoder)(nil)

// NewCountryCoder loads the country polygons. Loading takes a moment,
// so callers should build one coder and share it.
func NewCountryCoder() (*CountryCoder, error) {
	r, err := srgeo.New(Countries10)
	if err != nil {
		return nil, fmt.Errorf("load countries: %w", err)
	}
	return NewCountryCoderWith((*rR)(r), DefaultCacheSize)
}

// NewCountryCoderWith wraps any reverse geocoder.
func NewCountryCoderWith(r ReverseGeocoder, cacheSize int) (*CountryCoder, error) {
	cache, err := lru.New[orb.Point, string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &CountryCoder{r: r, cache: cache}, nil
}

func (c *CountryCoder) RegionCode(pt orb.Point) string {
	if code, ok := c.cache.Get(pt); ok {
		return code
	}
	code := fog.UnknownRegion
	loc, err := c.r.GetLocation(pt)
	switch {
	case err == nil && len(loc.CountryCode2) == 2:
		code = loc.CountryCode2
	case err != nil && !errors.Is(err, srgeo.ErrLocationNotFound):
		slog.Warn("Reverse geocode failed", "point", pt, "error", err)
	}
	c.cache.Add(pt, code)
	return code
}
