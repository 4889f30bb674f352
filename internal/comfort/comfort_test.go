package comfort

import (
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestGenerateInsight(t *testing.T) {
	tests := []struct {
		name     string
		obs      Observation
		expected string
	}{
		{
			name:     "pleasant calm day",
			obs:      Observation{TemperatureCelsius: 22, HumidityPercent: 50, WindSpeedKmh: 0},
			expected: "Temperatura agradável.",
		},
		{
			name: "every fragment",
			obs: Observation{
				TemperatureCelsius:              35,
				HumidityPercent:                 80,
				WindSpeedKmh:                    40,
				PrecipitationProbabilityPercent: ptr(70),
			},
			expected: "Dia quente. Alta umidade pode causar desconforto. Alta probabilidade de chuva. Ventos fortes.",
		},
		{
			name:     "cold day",
			obs:      Observation{TemperatureCelsius: 5, HumidityPercent: 50},
			expected: "Dia frio.",
		},
		{
			name:     "cold and windy",
			obs:      Observation{TemperatureCelsius: -3, HumidityPercent: 40, WindSpeedKmh: 31},
			expected: "Dia frio. Ventos fortes.",
		},
		{
			name:     "absent precipitation never triggers",
			obs:      Observation{TemperatureCelsius: 20, HumidityPercent: 71},
			expected: "Temperatura agradável. Alta umidade pode causar desconforto.",
		},
		{
			name:     "precipitation at threshold",
			obs:      Observation{TemperatureCelsius: 20, HumidityPercent: 50, PrecipitationProbabilityPercent: ptr(60)},
			expected: "Temperatura agradável.",
		},
		{
			name:     "precipitation just above threshold",
			obs:      Observation{TemperatureCelsius: 20, HumidityPercent: 50, PrecipitationProbabilityPercent: ptr(60.1)},
			expected: "Temperatura agradável. Alta probabilidade de chuva.",
		},
		{
			name:     "temperature 30 is pleasant",
			obs:      Observation{TemperatureCelsius: 30},
			expected: "Temperatura agradável.",
		},
		{
			name:     "temperature 15 is pleasant",
			obs:      Observation{TemperatureCelsius: 15},
			expected: "Temperatura agradável.",
		},
		{
			name:     "humidity and wind at thresholds",
			obs:      Observation{TemperatureCelsius: 22, HumidityPercent: 70, WindSpeedKmh: 30},
			expected: "Temperatura agradável.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GenerateInsight(tt.obs))
		})
	}
}

func TestGenerateInsight_ExactlyOneTemperaturePhrase(t *testing.T) {
	temperatureFragments := []string{"Dia quente.", "Dia frio.", "Temperatura agradável."}

	for temp := -40.0; temp <= 50; temp += 0.5 {
		insight := GenerateInsight(Observation{TemperatureCelsius: temp, HumidityPercent: 50})

		count := 0
		for _, f := range temperatureFragments {
			count += strings.Count(insight, f)
		}
		assert.Equal(t, 1, count, "temperature %.1f produced %q", temp, insight)

		switch {
		case temp > 30:
			assert.True(t, strings.HasPrefix(insight, "Dia quente."), "temperature %.1f", temp)
		case temp < 15:
			assert.True(t, strings.HasPrefix(insight, "Dia frio."), "temperature %.1f", temp)
		default:
			assert.True(t, strings.HasPrefix(insight, "Temperatura agradável."), "temperature %.1f", temp)
		}
	}
}

func TestGenerateInsight_NoTrailingWhitespace(t *testing.T) {
	insight := GenerateInsight(Observation{TemperatureCelsius: 40, HumidityPercent: 90, WindSpeedKmh: 50})
	assert.Equal(t, strings.TrimSpace(insight), insight)
}

func TestCalculateComfortScore(t *testing.T) {
	tests := []struct {
		name     string
		obs      Observation
		expected int
	}{
		{"ideal conditions", Observation{TemperatureCelsius: 22, HumidityPercent: 50}, 100},
		{"cold temperature penalty", Observation{TemperatureCelsius: 5, HumidityPercent: 50}, 66},
		{"lower temperature boundary", Observation{TemperatureCelsius: 18, HumidityPercent: 50}, 100},
		{"upper temperature boundary", Observation{TemperatureCelsius: 26, HumidityPercent: 50}, 100},
		{"just below lower boundary", Observation{TemperatureCelsius: 17.9, HumidityPercent: 50}, 92},
		{"just above upper boundary", Observation{TemperatureCelsius: 26.1, HumidityPercent: 50}, 92},
		{"humidity boundaries", Observation{TemperatureCelsius: 22, HumidityPercent: 70}, 100},
		{"dry air", Observation{TemperatureCelsius: 22, HumidityPercent: 10}, 80},
		{"humid air rounds half up", Observation{TemperatureCelsius: 22, HumidityPercent: 71}, 90},
		{"wind at threshold", Observation{TemperatureCelsius: 22, HumidityPercent: 50, WindSpeedKmh: 20}, 100},
		{"wind penalty", Observation{TemperatureCelsius: 22, HumidityPercent: 50, WindSpeedKmh: 40}, 90},
		{
			name:     "all penalties combined",
			obs:      Observation{TemperatureCelsius: 35, HumidityPercent: 80, WindSpeedKmh: 40},
			expected: 100 - 26 - 15 - 10,
		},
		{"extreme heat clamps to zero", Observation{TemperatureCelsius: 1000, HumidityPercent: 50}, 0},
		{"extreme wind clamps to zero", Observation{TemperatureCelsius: 22, HumidityPercent: 50, WindSpeedKmh: 1000}, 0},
		{"negative humidity clamps to zero", Observation{TemperatureCelsius: 22, HumidityPercent: -500}, 0},
		{
			name:     "precipitation is ignored",
			obs:      Observation{TemperatureCelsius: 22, HumidityPercent: 50, PrecipitationProbabilityPercent: ptr(100)},
			expected: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CalculateComfortScore(tt.obs))
		})
	}
}

func TestCalculateComfortScore_AlwaysBounded(t *testing.T) {
	values := []float64{-1e9, -1000, -500, -40, 0, 17.9, 18, 22, 26, 26.1, 50, 70, 100, 1000, 1e9}

	for _, temp := range values {
		for _, hum := range values {
			for _, wind := range values {
				score := CalculateComfortScore(Observation{
					TemperatureCelsius: temp,
					HumidityPercent:    hum,
					WindSpeedKmh:       wind,
				})
				assert.GreaterOrEqual(t, score, 0)
				assert.LessOrEqual(t, score, 100)
			}
		}
	}
}

func TestCalculateComfortScore_NaN(t *testing.T) {
	score := CalculateComfortScore(Observation{TemperatureCelsius: math.NaN(), HumidityPercent: 50})
	assert.Equal(t, 0, score)
}

func TestAssess_Idempotent(t *testing.T) {
	obs := Observation{TemperatureCelsius: 31.4, HumidityPercent: 77, WindSpeedKmh: 33, PrecipitationProbabilityPercent: ptr(65)}

	first := Assess(obs)
	second := Assess(obs)

	assert.Equal(t, first, second)
	assert.Equal(t, GenerateInsight(obs), first.Insight)
	assert.Equal(t, CalculateComfortScore(obs), first.ComfortScore)
}

func TestAssess_Concurrent(t *testing.T) {
	obs := Observation{TemperatureCelsius: 12, HumidityPercent: 85, WindSpeedKmh: 25}
	want := Assess(obs)

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, Assess(obs))
		}()
	}
	wg.Wait()
}

func TestEngine_CustomPhrases(t *testing.T) {
	e := NewEngine(Phrases{
		Hot:          "Hot day. ",
		Cold:         "Cold day. ",
		Pleasant:     "Pleasant. ",
		HighHumidity: "Humid. ",
		LikelyRain:   "Rain likely. ",
		StrongWind:   "Windy. ",
	})

	obs := Observation{TemperatureCelsius: 35, HumidityPercent: 80, WindSpeedKmh: 40, PrecipitationProbabilityPercent: ptr(70)}

	assert.Equal(t, "Hot day. Humid. Rain likely. Windy.", e.GenerateInsight(obs))
	assert.Equal(t, CalculateComfortScore(obs), e.CalculateComfortScore(obs))
}
