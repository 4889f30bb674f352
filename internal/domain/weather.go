package domain

import (
	"time"

	"github.com/couchcryptid/weather-insights-service/internal/comfort"
)

// WeatherLog is a persisted observation with its derived comfort fields.
type WeatherLog struct {
	ID        string  `json:"_id"                   bson:"_id"`
	Location  string  `json:"location"              bson:"location"`
	Latitude  float64 `json:"latitude"              bson:"latitude"`
	Longitude float64 `json:"longitude"             bson:"longitude"`

	Temperature              float64   `json:"temperature"                        bson:"temperature"`
	Humidity                 float64   `json:"humidity"                           bson:"humidity"`
	WindSpeed                float64   `json:"windSpeed"                          bson:"windSpeed"`
	Condition                string    `json:"condition,omitempty"                bson:"condition,omitempty"`
	WeatherCode              *int      `json:"weatherCode,omitempty"              bson:"weatherCode,omitempty"`
	PrecipitationProbability *float64  `json:"precipitationProbability,omitempty" bson:"precipitationProbability,omitempty"`
	Pressure                 *float64  `json:"pressure,omitempty"                 bson:"pressure,omitempty"`
	Timestamp                time.Time `json:"timestamp"                          bson:"timestamp"`

	AIInsight    string `json:"aiInsight"    bson:"aiInsight"`
	ComfortScore int    `json:"comfortScore" bson:"comfortScore"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Observation projects the fields the comfort engine reads.
func (l WeatherLog) Observation() comfort.Observation {
	return comfort.Observation{
		TemperatureCelsius:              l.Temperature,
		HumidityPercent:                 l.Humidity,
		WindSpeedKmh:                    l.WindSpeed,
		PrecipitationProbabilityPercent: l.PrecipitationProbability,
	}
}

// WeatherLogInput is a new observation submitted for ingestion.
type WeatherLogInput struct {
	Location                 string    `json:"location"                 validate:"required"`
	Latitude                 *float64  `json:"latitude"                 validate:"required,gte=-90,lte=90"`
	Longitude                *float64  `json:"longitude"                validate:"required,gte=-180,lte=180"`
	Temperature              *float64  `json:"temperature"              validate:"required"`
	Humidity                 *float64  `json:"humidity"                 validate:"required,gte=0,lte=100"`
	WindSpeed                *float64  `json:"windSpeed"                validate:"required,gte=0"`
	Condition                string    `json:"condition,omitempty"`
	WeatherCode              *int      `json:"weatherCode,omitempty"`
	PrecipitationProbability *float64  `json:"precipitationProbability,omitempty" validate:"omitempty,gte=0,lte=100"`
	Pressure                 *float64  `json:"pressure,omitempty"       validate:"omitempty,gt=0"`
	Timestamp                time.Time `json:"timestamp"                validate:"required"`
}

// ToLog builds the record for in, without ID, derived fields, or server
// timestamps. Callers must validate in first; required pointers are
// dereferenced. The timestamp is cut to the millisecond precision both
// stores keep, so a created log equals the one read back.
func (in WeatherLogInput) ToLog() WeatherLog {
	return WeatherLog{
		Location:                 in.Location,
		Latitude:                 *in.Latitude,
		Longitude:                *in.Longitude,
		Temperature:              *in.Temperature,
		Humidity:                 *in.Humidity,
		WindSpeed:                *in.WindSpeed,
		Condition:                in.Condition,
		WeatherCode:              in.WeatherCode,
		PrecipitationProbability: in.PrecipitationProbability,
		Pressure:                 in.Pressure,
		Timestamp:                in.Timestamp.UTC().Truncate(time.Millisecond),
	}
}
