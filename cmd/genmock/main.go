// Command genmock reads an Open-Meteo hourly CSV export and generates mock
// data fixtures for the collector queue and the weather API. It runs each
// row through the same collector, transformer, and comfort engine code the
// services use so the fixtures match real pipeline behavior. Only the
// readings fixture is checked in; the logs fixture is written on demand for
// cmd/validate.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv data/mock/open_meteo_pato_branco_251120.csv \
//	  -readings-out data/mock/readings_251120.json \
//	  -logs-out /tmp/weather_logs_251120.json
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-insights-service/internal/adapter/openmeteo"
	"github.com/couchcryptid/weather-insights-service/internal/collector"
	"github.com/couchcryptid/weather-insights-service/internal/comfort"
	"github.com/couchcryptid/weather-insights-service/internal/domain"
	"github.com/couchcryptid/weather-insights-service/internal/pipeline"
	"github.com/couchcryptid/weather-insights-service/internal/weather"
)

// fixtureClock is the fixed time used for collectedAt and server timestamps.
var fixtureClock = time.Date(2025, time.November, 21, 6, 0, 0, 0, time.UTC)

// fixture is one generated row: the queued reading and the log it becomes.
type fixture struct {
	reading domain.CollectorReading
	log     domain.WeatherLog
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "Open-Meteo hourly CSV export")
	readingsOut := flag.String("readings-out", "", "output path for collector readings JSON fixture")
	logsOut := flag.String("logs-out", "", "output path for derived weather logs JSON fixture")
	location := flag.String("location", "Pato Branco, PR", "location label recorded on every reading")
	lat := flag.Float64("lat", -26.2286, "site latitude")
	lon := flag.Float64("lon", -52.6708, "site longitude")
	flag.Parse()

	if *csvPath == "" || *readingsOut == "" || *logsOut == "" {
		flag.Usage()
		return errors.New("missing required flags: -csv, -readings-out, -logs-out")
	}

	domain.SetClock(clockwork.NewFakeClockAt(fixtureClock))
	defer domain.SetClock(nil)

	site := collector.Site{Latitude: *lat, Longitude: *lon, Location: *location}
	rows, err := readHourlyCSV(*csvPath)
	if err != nil {
		return fmt.Errorf("processing %s: %w", *csvPath, err)
	}
	log.Printf("%s: %d rows", filepath.Base(*csvPath), len(rows))

	fixtures, err := buildFixtures(rows, site)
	if err != nil {
		return err
	}

	readings := make([]domain.CollectorReading, len(fixtures))
	logs := make([]domain.WeatherLog, len(fixtures))
	for i, f := range fixtures {
		readings[i] = f.reading
		logs[i] = f.log
	}

	if err := writeJSON(*readingsOut, readings); err != nil {
		return fmt.Errorf("writing readings fixture: %w", err)
	}
	log.Printf("wrote readings fixture: %s", *readingsOut)

	if err := writeJSON(*logsOut, logs); err != nil {
		return fmt.Errorf("writing logs fixture: %w", err)
	}
	log.Printf("wrote logs fixture: %s", *logsOut)

	printStats(logs)
	return nil
}

// readHourlyCSV returns the hourly rows of an Open-Meteo CSV export as
// Conditions. The metadata block before the "time" header supplies the UTC
// offset of the local times, and unit suffixes such as " (°C)" are dropped
// from column names.
func readHourlyCSV(path string) ([]openmeteo.Conditions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var colIdx, metaIdx map[string]int
	var out []openmeteo.Conditions
	offset := 0
	line := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line++

		if colIdx == nil {
			switch {
			case len(row) > 0 && strings.TrimSpace(row[0]) == "time":
				colIdx = headerIndex(row)
			case len(row) > 0 && strings.TrimSpace(row[0]) == "latitude":
				metaIdx = headerIndex(row)
			case metaIdx != nil:
				p := rowParser{row: row, idx: metaIdx}
				offset = int(p.float("utc_offset_seconds"))
				if p.err != nil {
					return nil, fmt.Errorf("line %d: %w", line, p.err)
				}
				metaIdx = nil
			}
			continue
		}
		if len(row) < len(colIdx) {
			continue
		}

		cond, err := parseRow(row, colIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cond.UTCOffset = offset
		out = append(out, cond)
	}

	if colIdx == nil {
		return nil, errors.New("no hourly header row")
	}
	if len(out) == 0 {
		return nil, errors.New("no data rows")
	}
	return out, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		name, _, _ := strings.Cut(strings.TrimSpace(h), " ")
		idx[name] = i
	}
	return idx
}

func parseRow(row []string, idx map[string]int) (openmeteo.Conditions, error) {
	p := rowParser{row: row, idx: idx}
	cond := openmeteo.Conditions{
		Time:                p.text("time"),
		Temperature:         p.float("temperature_2m"),
		Humidity:            p.float("relative_humidity_2m"),
		WindSpeed:           p.float("wind_speed_10m"),
		WeatherCode:         int(p.float("weather_code")),
		Precipitation:       p.float("precipitation"),
		ApparentTemperature: p.float("apparent_temperature"),
		CloudCover:          p.float("cloud_cover"),
		Pressure:            p.float("pressure_msl"),
	}
	if v := p.text("precipitation_probability"); v != "" {
		prob := p.float("precipitation_probability")
		cond.PrecipitationProbability = &prob
	}
	return cond, p.err
}

// rowParser keeps the first conversion error so parseRow reads linearly.
type rowParser struct {
	row []string
	idx map[string]int
	err error
}

func (p *rowParser) text(col string) string {
	i, ok := p.idx[col]
	if !ok || i >= len(p.row) {
		return ""
	}
	return strings.TrimSpace(p.row[i])
}

func (p *rowParser) float(col string) float64 {
	s := p.text(col)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("column %s: %w", col, err)
	}
	return v
}

// buildFixtures pushes every row through the collector payload builder, the
// queue transformer, and the comfort engine.
func buildFixtures(rows []openmeteo.Conditions, site collector.Site) ([]fixture, error) {
	transformer := pipeline.NewTransformer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	fixtures := make([]fixture, 0, len(rows))
	for i, cond := range rows {
		reading := collector.NewReading(cond, site, site.Location, domain.Now())

		payload, err := json.Marshal(reading)
		if err != nil {
			return nil, fmt.Errorf("marshal reading %d: %w", i, err)
		}
		in, err := transformer.Transform(ctx, domain.RawMessage{
			Value:     payload,
			Source:    "genmock",
			Timestamp: domain.Now(),
		})
		if err != nil {
			return nil, fmt.Errorf("transform reading %d (%s): %w", i, cond.Time, err)
		}

		wlog, err := weather.Derive(in, comfort.Default)
		if err != nil {
			return nil, fmt.Errorf("derive log %d (%s): %w", i, cond.Time, err)
		}
		wlog.ID = fixtureID(i)
		wlog.CreatedAt = domain.Now()
		wlog.UpdatedAt = wlog.CreatedAt

		fixtures = append(fixtures, fixture{reading: reading, log: wlog})
	}
	return fixtures, nil
}

func fixtureID(i int) string {
	return fmt.Sprintf("mock-%03d", i+1)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// statsResult holds aggregated counts for printStats reporting.
type statsResult struct {
	scoreBands     map[string]int
	insightCounts  map[string]int
	conditionCount map[string]int
	withRainProb   int
	minScore       int
	maxScore       int
}

func scoreBand(score int) string {
	switch {
	case score >= 80:
		return "80-100"
	case score >= 60:
		return "60-79"
	case score >= 40:
		return "40-59"
	default:
		return "0-39"
	}
}

func collectStats(logs []domain.WeatherLog) statsResult {
	s := statsResult{
		scoreBands:     map[string]int{},
		insightCounts:  map[string]int{},
		conditionCount: map[string]int{},
		minScore:       100,
	}
	for i := range logs {
		l := &logs[i]
		s.scoreBands[scoreBand(l.ComfortScore)]++
		s.insightCounts[l.AIInsight]++
		s.conditionCount[l.Condition]++
		if l.PrecipitationProbability != nil {
			s.withRainProb++
		}
		s.minScore = min(s.minScore, l.ComfortScore)
		s.maxScore = max(s.maxScore, l.ComfortScore)
	}
	return s
}

type labelCount struct {
	label string
	count int
}

func sortedCounts(m map[string]int) []labelCount {
	out := make([]labelCount, 0, len(m))
	for k, v := range m {
		out = append(out, labelCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].label < out[j].label
	})
	return out
}

func printStats(logs []domain.WeatherLog) {
	if len(logs) == 0 {
		return
	}
	stats := collectStats(logs)

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(logs))
	fmt.Printf("Comfort score: min=%d, max=%d\n", stats.minScore, stats.maxScore)
	fmt.Printf("By score band: 80-100=%d, 60-79=%d, 40-59=%d, 0-39=%d\n",
		stats.scoreBands["80-100"], stats.scoreBands["60-79"],
		stats.scoreBands["40-59"], stats.scoreBands["0-39"])
	fmt.Printf("With precipitation probability: %d\n", stats.withRainProb)

	fmt.Println("\nConditions:")
	for _, c := range sortedCounts(stats.conditionCount) {
		fmt.Printf("  %-32s %d\n", c.label, c.count)
	}

	fmt.Println("\nInsights:")
	for _, c := range sortedCounts(stats.insightCounts) {
		fmt.Printf("  %3d  %s\n", c.count, c.label)
	}

	first := logs[0]
	fmt.Printf("\nFirst log:\n")
	fmt.Printf("  ID: %s\n", first.ID)
	fmt.Printf("  Timestamp: %s\n", first.Timestamp.Format(time.RFC3339))
	fmt.Printf("  Temperature: %g, Humidity: %g, Wind: %g\n", first.Temperature, first.Humidity, first.WindSpeed)
	fmt.Printf("  Insight: %s\n", first.AIInsight)
	fmt.Printf("  ComfortScore: %d\n", first.ComfortScore)
}
