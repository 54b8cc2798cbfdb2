// Package geocode resolves free-text addresses to coordinates and adds them
// to the matching sheet.
//
// Lookups never fail past the Geocoder boundary: any error is logged and the
// address resolves to nothing.
package geocode

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Coordinates is a latitude/longitude pair
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Cells formats the pair for a sheet
func (c Coordinates) Cells() (string, string) {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64), strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// Geocoder resolves an address. ok is false when the address could not be
// resolved for any reason.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (coords Coordinates, ok bool)
}

// GeocoderFunc adapts a function to Geocoder
type GeocoderFunc func(ctx context.Context, address string) (Coordinates, bool)

// Geocode implements Geocoder
func (f GeocoderFunc) Geocode(ctx context.Context, address string) (Coordinates, bool) {
	return f(ctx, address)
}

// NormalizeAddress folds an address to the form used as its cache key:
// NFKC, lowercased, single-spaced.
func NormalizeAddress(address string) string {
	s := norm.NFKC.String(address)
	s = cases.Lower(language.Und).String(s)
	return strings.Join(strings.Fields(s), " ")
}
