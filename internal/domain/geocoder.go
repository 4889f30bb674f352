package domain

import "context"

// GeocodingResult is the place a coordinate resolves to.
type GeocodingResult struct {
	// FormattedAddress is the full label, e.g. "Pato Branco, Paraná, Brazil".
	FormattedAddress string
	// PlaceName is the short name of the matched feature.
	PlaceName string
	// Relevance is the provider's match score in [0, 1].
	Relevance float64
}

// Geocoder resolves coordinates to a place.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
