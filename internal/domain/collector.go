package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// CollectorReading is the JSON payload the collector publishes to the queue.
type CollectorReading struct {
	Timestamp                string   `json:"timestamp"`
	Location                 string   `json:"location"`
	Latitude                 float64  `json:"latitude"`
	Longitude                float64  `json:"longitude"`
	Temperature              float64  `json:"temperature"`
	Humidity                 float64  `json:"humidity"`
	WindSpeed                float64  `json:"windSpeed"`
	WeatherCode              int      `json:"weatherCode"`
	WeatherDescription       string   `json:"weatherDescription"`
	Precipitation            float64  `json:"precipitation"`
	PrecipitationProbability *float64 `json:"precipitationProbability,omitempty"`
	ApparentTemperature      float64  `json:"apparentTemperature"`
	CloudCover               float64  `json:"cloudCover"`
	Pressure                 float64  `json:"pressure"`
	CollectedAt              string   `json:"collectedAt"`
}

// readingTimeLayouts are tried in order. Open-Meteo reports local time
// without an offset ("2006-01-02T15:04"); those values are taken as UTC.
var readingTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseCollectorReading deserializes a queue message into a CollectorReading.
func ParseCollectorReading(raw RawMessage) (CollectorReading, error) {
	var r CollectorReading
	if err := json.Unmarshal(raw.Value, &r); err != nil {
		return CollectorReading{}, fmt.Errorf("parse collector reading: %w", err)
	}
	return r, nil
}

// Check applies the sanity guard for queued readings.
func (r CollectorReading) Check() error {
	var errs []error
	if strings.TrimSpace(r.Location) == "" {
		errs = append(errs, errors.New("location is empty"))
	}
	if r.Temperature < -100 || r.Temperature > 100 {
		errs = append(errs, fmt.Errorf("temperature %.1f out of range", r.Temperature))
	}
	if r.Humidity < 0 || r.Humidity > 100 {
		errs = append(errs, fmt.Errorf("humidity %.1f out of range", r.Humidity))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrValidation, errors.Join(errs...))
	}
	return nil
}

// ObservedAt parses the reading timestamp, falling back to fallback when the
// field is empty or unparseable.
func (r CollectorReading) ObservedAt(fallback time.Time) time.Time {
	s := strings.TrimSpace(r.Timestamp)
	if s == "" {
		return fallback.UTC()
	}
	for _, layout := range readingTimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC()
		}
	}
	return fallback.UTC()
}

// LogInput maps the reading onto an ingestion input. The weather description
// becomes the log condition.
func (r CollectorReading) LogInput(fallback time.Time) WeatherLogInput {
	code := r.WeatherCode
	lat, lon := r.Latitude, r.Longitude
	temp, hum, wind := r.Temperature, r.Humidity, r.WindSpeed

	in := WeatherLogInput{
		Location:                 r.Location,
		Latitude:                 &lat,
		Longitude:                &lon,
		Temperature:              &temp,
		Humidity:                 &hum,
		WindSpeed:                &wind,
		Condition:                r.WeatherDescription,
		WeatherCode:              &code,
		PrecipitationProbability: r.PrecipitationProbability,
		Timestamp:                r.ObservedAt(fallback),
	}
	if r.Pressure > 0 {
		p := r.Pressure
		in.Pressure = &p
	}
	return in
}
