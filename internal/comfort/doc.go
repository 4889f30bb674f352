// Package comfort derives a human-readable insight and a bounded comfort score
// from a single weather observation.
//
// # Insight
//
// The insight is built from fixed Portuguese fragments, appended in order and
// right-trimmed:
//
//	Temperature (exactly one): >30 °C "Dia quente." | <15 °C "Dia frio." | otherwise "Temperatura agradável."
//	Humidity:                  >70 %  "Alta umidade pode causar desconforto."
//	Precipitation probability: >60 %  "Alta probabilidade de chuva."  (absent never triggers)
//	Wind:                      >30 km/h "Ventos fortes."
//
// # Comfort score
//
// Starts at 100 and subtracts independent penalties:
//
//	Temperature outside [18, 26] °C:  |22 - t| * 2
//	Humidity outside [30, 70] %:      |50 - h| * 0.5
//	Wind above 20 km/h:               (w - 20) * 0.5
//
// The sum is rounded half up and clamped to [0, 100]. All comparisons are
// strict, so readings exactly on a boundary carry no penalty for that factor.
// Precipitation does not affect the score.
//
// Both functions are pure and safe for concurrent use.
package comfort
