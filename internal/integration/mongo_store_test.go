//go:build integration

package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-insights-service/internal/adapter/mongo"
	"github.com/couchcryptid/weather-insights-service/internal/comfort"
	"github.com/couchcryptid/weather-insights-service/internal/domain"
	"github.com/couchcryptid/weather-insights-service/internal/observability"
	"github.com/couchcryptid/weather-insights-service/internal/users"
	"github.com/couchcryptid/weather-insights-service/internal/weather"
)

func openMongo(ctx context.Context, t *testing.T) *mongo.Store {
	t.Helper()
	store, err := mongo.Open(ctx, startMongo(ctx, t), "weather_test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

// TestMongoStore_WeatherLogs runs the fixture readings through the weather
// service against a real MongoDB.
func TestMongoStore_WeatherLogs(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store := openMongo(ctx, t)
	require.NoError(t, store.Ping(ctx))

	_, err := store.LatestLog(ctx)
	require.ErrorIs(t, err, domain.ErrNotFound)

	svc := weather.NewService(store, comfort.Default, discardLogger(), observability.NewMetricsForTesting())

	readings := loadMockReadings(t)
	inputs := make([]domain.WeatherLogInput, 0, len(readings))
	for _, r := range readings {
		inputs = append(inputs, r.LogInput(time.Time{}))
	}
	stored, err := svc.CreateBatch(ctx, "test", inputs)
	require.NoError(t, err)
	require.Len(t, stored, len(readings))

	logs, err := svc.List(ctx, 5)
	require.NoError(t, err)
	require.Len(t, logs, 5)
	for i := 1; i < len(logs); i++ {
		assert.False(t, logs[i].Timestamp.After(logs[i-1].Timestamp), "logs must be newest first")
	}

	latest, err := svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.November, 21, 2, 0, 0, 0, time.UTC), latest.Timestamp.UTC())
	assert.Equal(t, "Pato Branco, PR", latest.Location)
	require.NotNil(t, latest.PrecipitationProbability)
	assert.InDelta(t, 35.0, *latest.PrecipitationProbability, 1e-9)

	dup := stored[0]
	require.ErrorIs(t, store.InsertLog(ctx, dup), domain.ErrConflict)
}

// TestMongoStore_Users exercises account management and the unique email
// index against a real MongoDB.
func TestMongoStore_Users(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store := openMongo(ctx, t)
	svc := users.NewService(store, discardLogger())

	require.NoError(t, svc.EnsureDefaultAdmin(ctx, users.AdminSeed{
		Email:    "admin@gdash.com",
		Password: "Admin@123",
		Name:     "Administrator",
	}))
	// A second start must not duplicate the admin.
	require.NoError(t, svc.EnsureDefaultAdmin(ctx, users.AdminSeed{
		Email:    "admin@gdash.com",
		Password: "Admin@123",
		Name:     "Administrator",
	}))

	created, err := svc.Create(ctx, domain.UserInput{
		Email:    "Maria@Example.com",
		Password: "secret1",
		Name:     "Maria",
	})
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", created.Email)
	assert.Equal(t, domain.RoleUser, created.Role)

	_, err = svc.Create(ctx, domain.UserInput{
		Email:    "maria@example.com",
		Password: "secret2",
		Name:     "Other Maria",
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, got.Email)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, svc.Delete(ctx, created.ID), domain.ErrNotFound)

	// Raw store level: the unique index rejects a second document with the
	// same email.
	admin, err := store.GetUserByEmail(ctx, "admin@gdash.com")
	require.NoError(t, err)
	admin.ID = "another-id"
	require.ErrorIs(t, store.InsertUser(ctx, admin), domain.ErrConflict)
}
