// Package mongo provides the MongoDB store for weather logs and users.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/couchcryptid/weather-insights-service/internal/domain"
)

// Collection names.
const (
	WeatherLogsCollection = "weatherlogs"
	UsersCollection       = "users"
)

// newestFirst orders logs by observation time, breaking ties by insertion.
var newestFirst = bson.D{{Key: "timestamp", Value: -1}, {Key: "createdAt", Value: -1}}

// Store persists weather logs and users in MongoDB.
type Store struct {
	client *mongo.Client
	logs   *mongo.Collection
	users  *mongo.Collection
}

// Open connects to uri, selects database, and ensures indexes exist.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client: client,
		logs:   db.Collection(WeatherLogsCollection),
		users:  db.Collection(UsersCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.logs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: newestFirst,
	}); err != nil {
		return fmt.Errorf("create weather log index: %w", err)
	}
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("create user email index: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping reports whether the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// InsertLog stores one weather log.
func (s *Store) InsertLog(ctx context.Context, log domain.WeatherLog) error {
	if _, err := s.logs.InsertOne(ctx, log); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert weather log: %w", err)
	}
	return nil
}

// InsertLogs stores logs in one ordered bulk insert.
func (s *Store) InsertLogs(ctx context.Context, logs []domain.WeatherLog) error {
	if len(logs) == 0 {
		return nil
	}
	docs := make([]any, len(logs))
	for i := range logs {
		docs[i] = logs[i]
	}
	if _, err := s.logs.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert weather logs: %w", err)
	}
	return nil
}

// ListLogs returns up to limit logs, newest observation first.
func (s *Store) ListLogs(ctx context.Context, limit int) ([]domain.WeatherLog, error) {
	opts := options.Find().SetSort(newestFirst).SetLimit(int64(limit))
	cur, err := s.logs.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list weather logs: %w", err)
	}
	logs := make([]domain.WeatherLog, 0)
	if err := cur.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("decode weather logs: %w", err)
	}
	return logs, nil
}

// LatestLog returns the newest log or domain.ErrNotFound.
func (s *Store) LatestLog(ctx context.Context) (domain.WeatherLog, error) {
	var log domain.WeatherLog
	err := s.logs.FindOne(ctx, bson.D{}, options.FindOne().SetSort(newestFirst)).Decode(&log)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.WeatherLog{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.WeatherLog{}, fmt.Errorf("latest weather log: %w", err)
	}
	return log, nil
}

// InsertUser stores a new user. A duplicate email returns domain.ErrConflict.
func (s *Store) InsertUser(ctx context.Context, user domain.User) error {
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// ListUsers returns all users, oldest first.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "email", Value: 1}})
	cur, err := s.users.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]domain.User, 0)
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// GetUser returns the user with id or domain.ErrNotFound.
func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	return s.findUser(ctx, bson.D{{Key: "_id", Value: id}})
}

// GetUserByEmail returns the user with email or domain.ErrNotFound.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.findUser(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *Store) findUser(ctx context.Context, filter bson.D) (domain.User, error) {
	var user domain.User
	err := s.users.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// DeleteUser removes the user with id or returns domain.ErrNotFound.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.users.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
