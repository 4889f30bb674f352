// Command validate performs data integrity checks on the mock fixtures
// produced by genmock: collector readings and the weather logs derived from
// them. It verifies reading sanity, transformation parity, and that every
// log satisfies the API's response contract.
//
// The logs fixture is not checked in. Generate it with genmock first:
//
//	go run ./cmd/genmock \
//	  -csv data/mock/open_meteo_pato_branco_251120.csv \
//	  -readings-out data/mock/readings_251120.json \
//	  -logs-out /tmp/weather_logs_251120.json
//
// Usage:
//
//	go run ./cmd/validate \
//	  -readings data/mock/readings_251120.json \
//	  -logs /tmp/weather_logs_251120.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/weather-insights-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/weather-insights-service/internal/comfort"
	"github.com/couchcryptid/weather-insights-service/internal/domain"
	"github.com/couchcryptid/weather-insights-service/internal/pipeline"
	"github.com/couchcryptid/weather-insights-service/internal/weather"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	readingsJSON := flag.String("readings", "", "path to collector readings JSON fixture")
	logsJSON := flag.String("logs", "", "path to derived weather logs JSON fixture")
	flag.Parse()

	if *readingsJSON == "" || *logsJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*readingsJSON, *logsJSON); code != 0 {
		os.Exit(code)
	}
}

func run(readingsPath, logsPath string) int {
	fmt.Println("=== Weather Fixture Integrity Validation ===")
	fmt.Println()

	readings, err := loadJSON[domain.CollectorReading](readingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load readings JSON: %v\n", err)
		return 1
	}

	logs, err := loadJSON[domain.WeatherLog](logsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load logs JSON: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateReadings(readings),
		validateTransformation(readings, logs),
		validateSchema(logs),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d readings, %d weather logs\n", len(readings), len(logs))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Reading integrity ──
// Every reading must pass the queue sanity guard and carry parseable times.

func validateReadings(readings []domain.CollectorReading) *phase {
	p := &phase{name: "Phase 1: Reading Integrity (collector)"}

	var prev time.Time
	for i := range readings {
		r := &readings[i]
		if err := r.Check(); err != nil {
			p.errorf("reading %d: %v", i, err)
		}

		observed := r.ObservedAt(time.Time{})
		if observed.IsZero() {
			p.errorf("reading %d: timestamp %q is not parseable", i, r.Timestamp)
		} else {
			if !prev.IsZero() && !observed.After(prev) {
				p.errorf("reading %d: timestamp %s is not after %s", i, r.Timestamp, prev.Format(time.RFC3339))
			}
			prev = observed
		}

		if _, err := time.Parse(time.RFC3339Nano, r.CollectedAt); err != nil {
			p.errorf("reading %d: collectedAt %q: %v", i, r.CollectedAt, err)
		}
		if want := openmeteo.DescribeWeatherCode(r.WeatherCode); r.WeatherDescription != want {
			p.errorf("reading %d: code %d described as %q, expected %q", i, r.WeatherCode, r.WeatherDescription, want)
		}
		if r.PrecipitationProbability != nil && (*r.PrecipitationProbability < 0 || *r.PrecipitationProbability > 100) {
			p.errorf("reading %d: precipitationProbability %g out of range", i, *r.PrecipitationProbability)
		}
	}
	return p
}

// ── Phase 2: Transformation parity ──
// Re-runs the queue transformer and comfort engine on each reading and
// compares the result with the stored log at the same position.

func validateTransformation(readings []domain.CollectorReading, logs []domain.WeatherLog) *phase {
	p := &phase{name: "Phase 2: Transformation Parity (derive)"}

	if len(readings) != len(logs) {
		p.errorf("count: %d readings but %d logs", len(readings), len(logs))
	}

	transformer := pipeline.NewTransformer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	for i := range min(len(readings), len(logs)) {
		expected, err := deriveFromReading(transformer, readings[i])
		if err != nil {
			p.errorf("reading %d: %v", i, err)
			continue
		}
		compareLogs(p, i, expected, &logs[i])
	}
	return p
}

// deriveFromReading re-runs the ingestion path on a single reading.
func deriveFromReading(t *pipeline.ReadingTransformer, r domain.CollectorReading) (domain.WeatherLog, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return domain.WeatherLog{}, fmt.Errorf("marshal error: %w", err)
	}
	collected, _ := time.Parse(time.RFC3339Nano, r.CollectedAt)
	in, err := t.Transform(context.Background(), domain.RawMessage{
		Value:     payload,
		Timestamp: collected,
	})
	if err != nil {
		return domain.WeatherLog{}, fmt.Errorf("transform error: %w", err)
	}
	log, err := weather.Derive(in, comfort.Default)
	if err != nil {
		return domain.WeatherLog{}, fmt.Errorf("derive error: %w", err)
	}
	return log, nil
}

// compareLogs checks that a stored log matches the expected derived log.
func compareLogs(p *phase, i int, expected domain.WeatherLog, got *domain.WeatherLog) {
	id := got.ID

	if got.Location != expected.Location {
		p.errorf("log %d (%s): location: expected %q, got %q", i, id, expected.Location, got.Location)
	}
	if !got.Timestamp.Equal(expected.Timestamp) {
		p.errorf("log %d (%s): timestamp: expected %s, got %s", i, id,
			expected.Timestamp.Format(time.RFC3339), got.Timestamp.Format(time.RFC3339))
	}
	for _, f := range []struct {
		name      string
		want, got float64
	}{
		{"latitude", expected.Latitude, got.Latitude},
		{"longitude", expected.Longitude, got.Longitude},
		{"temperature", expected.Temperature, got.Temperature},
		{"humidity", expected.Humidity, got.Humidity},
		{"windSpeed", expected.WindSpeed, got.WindSpeed},
	} {
		if !floatEq(f.want, f.got) {
			p.errorf("log %d (%s): %s: expected %g, got %g", i, id, f.name, f.want, f.got)
		}
	}
	if !ptrFloatEq(got.PrecipitationProbability, expected.PrecipitationProbability) {
		p.errorf("log %d (%s): precipitationProbability mismatch", i, id)
	}
	if got.Condition != expected.Condition {
		p.errorf("log %d (%s): condition: expected %q, got %q", i, id, expected.Condition, got.Condition)
	}
	if got.AIInsight != expected.AIInsight {
		p.errorf("log %d (%s): aiInsight: expected %q, got %q", i, id, expected.AIInsight, got.AIInsight)
	}
	if got.ComfortScore != expected.ComfortScore {
		p.errorf("log %d (%s): comfortScore: expected %d, got %d", i, id, expected.ComfortScore, got.ComfortScore)
	}
}

// ── Phase 3: Schema ──
// Validates that log values match the API response contract.

func validateSchema(logs []domain.WeatherLog) *phase {
	p := &phase{name: "Phase 3: Schema Alignment (API)"}

	seen := make(map[string]int, len(logs))
	for i := range logs {
		l := &logs[i]
		pf := func(format string, args ...any) {
			p.errorf("log %d (ID %s): "+format, append([]any{i, l.ID}, args...)...)
		}

		if l.ID == "" {
			pf("_id is empty")
		} else if first, ok := seen[l.ID]; ok {
			pf("_id duplicates log %d", first)
		} else {
			seen[l.ID] = i
		}

		if strings.TrimSpace(l.Location) == "" {
			pf("location is empty")
		}
		if l.Latitude < -90 || l.Latitude > 90 {
			pf("latitude %g out of range", l.Latitude)
		}
		if l.Longitude < -180 || l.Longitude > 180 {
			pf("longitude %g out of range", l.Longitude)
		}
		if l.Humidity < 0 || l.Humidity > 100 {
			pf("humidity %g out of range", l.Humidity)
		}
		if l.WindSpeed < 0 {
			pf("windSpeed %g is negative", l.WindSpeed)
		}
		if l.ComfortScore < 0 || l.ComfortScore > 100 {
			pf("comfortScore %d not in [0, 100]", l.ComfortScore)
		}
		if l.AIInsight == "" {
			pf("aiInsight is empty")
		} else if l.AIInsight != strings.TrimSpace(l.AIInsight) {
			pf("aiInsight %q has surrounding whitespace", l.AIInsight)
		}
		if l.Timestamp.IsZero() {
			pf("timestamp is zero")
		}
		if l.CreatedAt.IsZero() || l.UpdatedAt.IsZero() {
			pf("createdAt/updatedAt not set")
		}
	}
	return p
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func ptrFloatEq(a, b *float64) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return floatEq(*a, *b)
}
