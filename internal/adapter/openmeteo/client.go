// Package openmeteo fetches current conditions from the Open-Meteo forecast API.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/couchcryptid/weather-insights-service/internal/observability"
)

const localTimeLayout = "2006-01-02T15:04"

const currentFields = "temperature_2m,relative_humidity_2m,wind_speed_10m,weather_code," +
	"precipitation,apparent_temperature,cloud_cover,pressure_msl"

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// Backoff controls retries of failed requests.
type Backoff struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Conditions is the current weather at a coordinate.
type Conditions struct {
	Time                     string // local time, "2006-01-02T15:04"
	UTCOffset                int    // seconds east of UTC for Time
	Temperature              float64
	Humidity                 float64
	WindSpeed                float64
	WeatherCode              int
	Precipitation            float64
	PrecipitationProbability *float64 // from the hourly forecast for the current hour
	ApparentTemperature      float64
	CloudCover               float64
	Pressure                 float64
}

// Timestamp returns Time as RFC 3339 carrying the location's UTC offset.
// A Time in any other layout is returned unchanged.
func (c Conditions) Timestamp() string {
	t, err := time.ParseInLocation(localTimeLayout, c.Time, time.FixedZone("", c.UTCOffset))
	if err != nil {
		return c.Time
	}
	return t.Format(time.RFC3339)
}

// Client calls the forecast endpoint through a circuit breaker, retrying
// transient failures with exponential backoff.
type Client struct {
	baseURL    string
	timezone   string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
	backoff    Backoff
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Open-Meteo client. timezone selects the zone Open-Meteo
// reports local times in.
func NewClient(baseURL, timezone string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		baseURL:    baseURL,
		timezone:   timezone,
		httpClient: &http.Client{Timeout: timeout},
		circuit:    cb,
		backoff: Backoff{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Current fetches current conditions for lat, lon.
func (c *Client) Current(ctx context.Context, lat, lon float64) (Conditions, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("current", currentFields)
	params.Set("hourly", "precipitation_probability")
	params.Set("forecast_days", "1")
	params.Set("timezone", c.timezone)
	fullURL := c.baseURL + "?" + params.Encode()

	start := time.Now()
	body, err := c.doRequestWithResilience(ctx, fullURL)
	c.metrics.WeatherAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return Conditions{}, fmt.Errorf("fetch current weather: %w", err)
	}

	var payload forecastResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return Conditions{}, fmt.Errorf("decode forecast: %w", err)
	}
	if payload.Current.Time == "" {
		return Conditions{}, errors.New("decode forecast: missing current block")
	}
	return payload.conditions(), nil
}

func (c *Client) doRequestWithResilience(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			return c.do(ctx, fullURL)
		})
		if err == nil {
			body, ok := result.([]byte)
			if !ok {
				return nil, errors.New("unexpected result type from circuit breaker")
			}
			return body, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if errors.Is(err, errUnexpected) {
			return nil, err
		}

		lastErr = err
		if attempt >= c.backoff.MaxRetries {
			return nil, lastErr
		}

		delay := c.backoff.InitialInterval << attempt
		if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
			delay = c.backoff.MaxInterval
		}
		c.logger.Warn("open-meteo request failed, retrying",
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) do(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
	}

	var buf json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&buf); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return buf, nil
}

type forecastResponse struct {
	UTCOffsetSeconds int `json:"utc_offset_seconds"`
	Current          struct {
		Time                string  `json:"time"`
		Temperature         float64 `json:"temperature_2m"`
		RelativeHumidity    float64 `json:"relative_humidity_2m"`
		WindSpeed           float64 `json:"wind_speed_10m"`
		WeatherCode         int     `json:"weather_code"`
		Precipitation       float64 `json:"precipitation"`
		ApparentTemperature float64 `json:"apparent_temperature"`
		CloudCover          float64 `json:"cloud_cover"`
		PressureMSL         float64 `json:"pressure_msl"`
	} `json:"current"`
	Hourly struct {
		Time                     []string   `json:"time"`
		PrecipitationProbability []*float64 `json:"precipitation_probability"`
	} `json:"hourly"`
}

func (r forecastResponse) conditions() Conditions {
	cur := r.Current
	return Conditions{
		Time:                     cur.Time,
		UTCOffset:                r.UTCOffsetSeconds,
		Temperature:              cur.Temperature,
		Humidity:                 cur.RelativeHumidity,
		WindSpeed:                cur.WindSpeed,
		WeatherCode:              cur.WeatherCode,
		Precipitation:            cur.Precipitation,
		PrecipitationProbability: r.hourlyProbability(cur.Time),
		ApparentTemperature:      cur.ApparentTemperature,
		CloudCover:               cur.CloudCover,
		Pressure:                 cur.PressureMSL,
	}
}

// hourlyProbability returns the hourly precipitation probability for the hour
// containing ts, or nil when the forecast has no matching slot.
func (r forecastResponse) hourlyProbability(ts string) *float64 {
	// "2006-01-02T15" identifies the hour.
	if len(ts) < 13 {
		return nil
	}
	hour := ts[:13]
	for i, slot := range r.Hourly.Time {
		if !strings.HasPrefix(slot, hour) {
			continue
		}
		if i < len(r.Hourly.PrecipitationProbability) {
			return r.Hourly.PrecipitationProbability[i]
		}
		return nil
	}
	return nil
}
