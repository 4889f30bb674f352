// Package sqlite provides the embedded SQLite store for weather logs and users.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/couchcryptid/weather-insights-service/internal/adapter/sqlite/migrations"
	"github.com/couchcryptid/weather-insights-service/internal/domain"
)

// Store persists weather logs and users in SQLite.
type Store struct {
	db *sql.DB
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens the database at path, creating its directory when needed, and
// applies embedded migrations. The special path ":memory:" opens a private
// in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}

	var dsn string
	if path == ":memory:" {
		dsn = ":memory:"
	} else {
		cleanPath := filepath.Clean(path)
		if dir := filepath.Dir(cleanPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		dsn = cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Each connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const insertLogSQL = `INSERT INTO weather_logs (
    id, location, latitude, longitude,
    temperature, humidity, wind_speed, condition,
    weather_code, precipitation_probability, pressure,
    observed_at, ai_insight, comfort_score, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectLogSQL = `SELECT
    id, location, latitude, longitude,
    temperature, humidity, wind_speed, condition,
    weather_code, precipitation_probability, pressure,
    observed_at, ai_insight, comfort_score, created_at, updated_at
  FROM weather_logs`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// InsertLog stores one weather log.
func (s *Store) InsertLog(ctx context.Context, log domain.WeatherLog) error {
	if err := insertLog(ctx, s.db, log); err != nil {
		return fmt.Errorf("insert weather log: %w", err)
	}
	return nil
}

// InsertLogs stores logs in a single transaction.
func (s *Store) InsertLogs(ctx context.Context, logs []domain.WeatherLog) error {
	if len(logs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert weather logs: %w", err)
	}
	for _, log := range logs {
		if err := insertLog(ctx, tx, log); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert weather log %s: %w", log.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit weather logs: %w", err)
	}
	return nil
}

func insertLog(ctx context.Context, db execer, log domain.WeatherLog) error {
	_, err := db.ExecContext(ctx, insertLogSQL,
		log.ID,
		log.Location,
		log.Latitude,
		log.Longitude,
		log.Temperature,
		log.Humidity,
		log.WindSpeed,
		log.Condition,
		nullInt(log.WeatherCode),
		nullFloat(log.PrecipitationProbability),
		nullFloat(log.Pressure),
		toMillis(log.Timestamp),
		log.AIInsight,
		log.ComfortScore,
		toMillis(log.CreatedAt),
		toMillis(log.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	return err
}

// ListLogs returns up to limit logs, newest observation first.
func (s *Store) ListLogs(ctx context.Context, limit int) ([]domain.WeatherLog, error) {
	rows, err := s.db.QueryContext(ctx, selectLogSQL+` ORDER BY observed_at DESC, created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list weather logs: %w", err)
	}
	defer rows.Close()

	logs := make([]domain.WeatherLog, 0)
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan weather log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate weather logs: %w", err)
	}
	return logs, nil
}

// LatestLog returns the newest log or domain.ErrNotFound.
func (s *Store) LatestLog(ctx context.Context) (domain.WeatherLog, error) {
	row := s.db.QueryRowContext(ctx, selectLogSQL+` ORDER BY observed_at DESC, created_at DESC LIMIT 1`)
	log, err := scanLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.WeatherLog{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.WeatherLog{}, fmt.Errorf("latest weather log: %w", err)
	}
	return log, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLog(row scanner) (domain.WeatherLog, error) {
	var (
		log                  domain.WeatherLog
		code                 sql.NullInt64
		precipitation, press sql.NullFloat64
		observed, created    int64
		updated              int64
	)
	err := row.Scan(
		&log.ID,
		&log.Location,
		&log.Latitude,
		&log.Longitude,
		&log.Temperature,
		&log.Humidity,
		&log.WindSpeed,
		&log.Condition,
		&code,
		&precipitation,
		&press,
		&observed,
		&log.AIInsight,
		&log.ComfortScore,
		&created,
		&updated,
	)
	if err != nil {
		return domain.WeatherLog{}, err
	}
	if code.Valid {
		v := int(code.Int64)
		log.WeatherCode = &v
	}
	if precipitation.Valid {
		v := precipitation.Float64
		log.PrecipitationProbability = &v
	}
	if press.Valid {
		v := press.Float64
		log.Pressure = &v
	}
	log.Timestamp = fromMillis(observed)
	log.CreatedAt = fromMillis(created)
	log.UpdatedAt = fromMillis(updated)
	return log, nil
}

const selectUserSQL = `SELECT id, email, name, role, password_hash, created_at, updated_at FROM users`

// InsertUser stores a new user. A duplicate email returns domain.ErrConflict.
func (s *Store) InsertUser(ctx context.Context, user domain.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, role, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		user.Role,
		user.PasswordHash,
		toMillis(user.CreatedAt),
		toMillis(user.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// ListUsers returns all users, oldest first.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, selectUserSQL+` ORDER BY created_at ASC, email ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// GetUser returns the user with id or domain.ErrNotFound.
func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	return s.getUser(ctx, `WHERE id = ?`, id)
}

// GetUserByEmail returns the user with email or domain.ErrNotFound.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.getUser(ctx, `WHERE email = ?`, email)
}

func (s *Store) getUser(ctx context.Context, where string, arg string) (domain.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, selectUserSQL+" "+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// DeleteUser removes the user with id or returns domain.ErrNotFound.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanUser(row scanner) (domain.User, error) {
	var (
		user             domain.User
		created, updated int64
	)
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.PasswordHash, &created, &updated); err != nil {
		return domain.User{}, err
	}
	user.CreatedAt = fromMillis(created)
	user.UpdatedAt = fromMillis(updated)
	return user, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
