package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ResolveLocationLabel returns the label stored with collected readings.
// A configured label wins. Otherwise the coordinates are reverse geocoded, and
// when that is unavailable or fails the formatted coordinates are used.
func ResolveLocationLabel(ctx context.Context, configured string, lat, lon float64, geocoder Geocoder, logger *slog.Logger) string {
	if label := strings.TrimSpace(configured); label != "" {
		return label
	}

	fallback := fmt.Sprintf("%.4f, %.4f", lat, lon)
	if geocoder == nil {
		return fallback
	}

	result, err := geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"lat", lat,
			"lon", lon,
			"error", err,
		)
		return fallback
	}
	if result.FormattedAddress != "" {
		return result.FormattedAddress
	}
	if result.PlaceName != "" {
		return result.PlaceName
	}
	return fallback
}
