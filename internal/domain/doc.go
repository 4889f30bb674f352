// Package domain models weather logs, dashboard users, and the messages the
// collector publishes to the ingestion queue.
//
// # Weather logs
//
// A [WeatherLog] is one observation at a point in time and location, stored
// together with the fields derived by the comfort engine (aiInsight and
// comfortScore). The observation timestamp is supplied by the producer; the
// createdAt/updatedAt pair is assigned by the server from the package clock.
// Queries order by the observation timestamp, most recent first.
//
// JSON field names follow the dashboard contract:
//
//	_id, location, latitude, longitude, temperature (°C), humidity (%),
//	windSpeed (km/h), condition, weatherCode, precipitationProbability (%),
//	pressure (hPa), timestamp, aiInsight, comfortScore, createdAt, updatedAt
//
// # Collector messages
//
// The collector fetches current conditions from Open-Meteo and publishes one
// [CollectorReading] per run. weatherDescription carries the Portuguese text
// for the WMO weather code and becomes the log's condition. Messages that fail
// the sanity guard (empty location, temperature outside [-100, 100] °C,
// humidity outside [0, 100] %) are rejected before ingestion. See
// [CollectorReading.Check].
//
// # Users
//
// Users authenticate with email and password. Passwords are stored only as
// bcrypt hashes and never serialized. Roles are "admin" and "user".
package domain
