package comfort

import (
	"math"
	"strings"
	"unicode"
)

// Thresholds used by the insight rules.
const (
	hotAbove          = 30.0
	coldBelow         = 15.0
	humidAbove        = 70.0
	rainLikelyAbove   = 60.0
	strongWindAbove   = 30.0
	idealTemperature  = 22.0
	comfortTempLow    = 18.0
	comfortTempHigh   = 26.0
	idealHumidity     = 50.0
	comfortHumidLow   = 30.0
	comfortHumidHigh  = 70.0
	windPenaltyAbove  = 20.0
	baselineScore     = 100.0
	maxScore          = 100
	temperatureWeight = 2.0
	humidityWeight    = 0.5
	windWeight        = 0.5
)

// Observation is one weather reading as consumed by the engine.
type Observation struct {
	TemperatureCelsius float64
	HumidityPercent    float64
	WindSpeedKmh       float64
	// PrecipitationProbabilityPercent is nil when the reading carries no
	// precipitation forecast.
	PrecipitationProbabilityPercent *float64
}

// Assessment is the engine output for one observation.
type Assessment struct {
	Insight      string `json:"aiInsight"`
	ComfortScore int    `json:"comfortScore"`
}

// Phrases are the insight fragments. Each fragment carries its own trailing
// separator.
type Phrases struct {
	Hot          string
	Cold         string
	Pleasant     string
	HighHumidity string
	LikelyRain   string
	StrongWind   string
}

// DefaultPhrases are the stock Portuguese fragments.
var DefaultPhrases = Phrases{
	Hot:          "Dia quente. ",
	Cold:         "Dia frio. ",
	Pleasant:     "Temperatura agradável. ",
	HighHumidity: "Alta umidade pode causar desconforto. ",
	LikelyRain:   "Alta probabilidade de chuva. ",
	StrongWind:   "Ventos fortes. ",
}

// Engine evaluates observations with a given phrase set. The zero value has
// empty phrases; use Default or NewEngine.
type Engine struct {
	Phrases Phrases
}

// Default is the engine configured with DefaultPhrases.
var Default = NewEngine(DefaultPhrases)

// NewEngine returns an Engine that renders insights with p.
func NewEngine(p Phrases) Engine {
	return Engine{Phrases: p}
}

// GenerateInsight renders the insight for obs using DefaultPhrases.
func GenerateInsight(obs Observation) string {
	return Default.GenerateInsight(obs)
}

// CalculateComfortScore returns the comfort score for obs.
func CalculateComfortScore(obs Observation) int {
	return Default.CalculateComfortScore(obs)
}

// Assess runs both computations for obs with DefaultPhrases.
func Assess(obs Observation) Assessment {
	return Default.Assess(obs)
}

// Assess runs GenerateInsight and CalculateComfortScore independently.
func (e Engine) Assess(obs Observation) Assessment {
	return Assessment{
		Insight:      e.GenerateInsight(obs),
		ComfortScore: e.CalculateComfortScore(obs),
	}
}

// GenerateInsight renders the insight for obs.
func (e Engine) GenerateInsight(obs Observation) string {
	var b strings.Builder

	switch t := obs.TemperatureCelsius; {
	case t > hotAbove:
		b.WriteString(e.Phrases.Hot)
	case t < coldBelow:
		b.WriteString(e.Phrases.Cold)
	default:
		b.WriteString(e.Phrases.Pleasant)
	}

	if obs.HumidityPercent > humidAbove {
		b.WriteString(e.Phrases.HighHumidity)
	}
	if p := obs.PrecipitationProbabilityPercent; p != nil && *p > rainLikelyAbove {
		b.WriteString(e.Phrases.LikelyRain)
	}
	if obs.WindSpeedKmh > strongWindAbove {
		b.WriteString(e.Phrases.StrongWind)
	}

	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}

// CalculateComfortScore returns the comfort score for obs. The phrase set
// plays no part in scoring.
func (e Engine) CalculateComfortScore(obs Observation) int {
	score := baselineScore
	score -= temperaturePenalty(obs.TemperatureCelsius)
	score -= humidityPenalty(obs.HumidityPercent)
	score -= windPenalty(obs.WindSpeedKmh)
	return clampScore(roundHalfUp(score))
}

func temperaturePenalty(t float64) float64 {
	if t < comfortTempLow || t > comfortTempHigh {
		return math.Abs(idealTemperature-t) * temperatureWeight
	}
	return 0
}

func humidityPenalty(h float64) float64 {
	if h < comfortHumidLow || h > comfortHumidHigh {
		return math.Abs(idealHumidity-h) * humidityWeight
	}
	return 0
}

func windPenalty(w float64) float64 {
	if w > windPenaltyAbove {
		return (w - windPenaltyAbove) * windWeight
	}
	return 0
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// clampScore bounds v to [0, maxScore]. NaN maps to 0.
func clampScore(v float64) int {
	if !(v > 0) {
		return 0
	}
	if v > maxScore {
		return maxScore
	}
	return int(v)
}
