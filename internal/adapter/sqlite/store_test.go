package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-insights-service/internal/domain"
)

var baseTime = time.Date(2025, 11, 20, 14, 0, 0, 0, time.UTC)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "weather.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func ptr[T any](v T) *T { return &v }

func sampleLog(id string, observed time.Time) domain.WeatherLog {
	return domain.WeatherLog{
		ID:           id,
		Location:     "Pato Branco, PR",
		Latitude:     -26.2286,
		Longitude:    -52.6708,
		Temperature:  22,
		Humidity:     50,
		WindSpeed:    0,
		Timestamp:    observed,
		AIInsight:    "Temperatura agradável.",
		ComfortScore: 100,
		CreatedAt:    baseTime.Add(time.Hour),
		UpdatedAt:    baseTime.Add(time.Hour),
	}
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), " ")
	require.Error(t, err)
}

func TestOpenInMemory(t *testing.T) {
	store, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, store.InsertLog(context.Background(), sampleLog("a", baseTime)))

	logs, err := store.ListLogs(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestOpenReappliesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather.db")
	ctx := context.Background()

	first, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.InsertLog(ctx, sampleLog("a", baseTime)))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	logs, err := second.ListLogs(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestInsertLogRoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	want := sampleLog("log-1", baseTime)
	want.Condition = "Chuva moderada"
	want.WeatherCode = ptr(63)
	want.PrecipitationProbability = ptr(75.0)
	want.Pressure = ptr(1009.8)

	require.NoError(t, store.InsertLog(ctx, want))

	got, err := store.LatestLog(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LatestLog() mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertLogSubMillisecondTimestamp(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	in := domain.WeatherLogInput{
		Location:    "Pato Branco, PR",
		Latitude:    ptr(-26.2286),
		Longitude:   ptr(-52.6708),
		Temperature: ptr(22.0),
		Humidity:    ptr(50.0),
		WindSpeed:   ptr(0.0),
		Timestamp:   baseTime.Add(123456789 * time.Nanosecond),
	}
	want := in.ToLog()
	want.ID = "log-1"
	want.CreatedAt = domain.Now()
	want.UpdatedAt = want.CreatedAt
	require.NoError(t, store.InsertLog(ctx, want))

	got, err := store.LatestLog(ctx)
	require.NoError(t, err)
	assert.Equal(t, baseTime.Add(123*time.Millisecond), got.Timestamp)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LatestLog() mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertLogOptionalFieldsStayNil(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertLog(ctx, sampleLog("log-1", baseTime)))

	got, err := store.LatestLog(ctx)
	require.NoError(t, err)
	assert.Nil(t, got.WeatherCode)
	assert.Nil(t, got.PrecipitationProbability)
	assert.Nil(t, got.Pressure)
}

func TestInsertLogDuplicateID(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertLog(ctx, sampleLog("dup", baseTime)))
	err := store.InsertLog(ctx, sampleLog("dup", baseTime))
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestInsertLogsIsAtomic(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	err := store.InsertLogs(ctx, []domain.WeatherLog{
		sampleLog("a", baseTime),
		sampleLog("a", baseTime.Add(time.Minute)),
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	logs, err := store.ListLogs(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, logs)

	require.NoError(t, store.InsertLogs(ctx, []domain.WeatherLog{
		sampleLog("a", baseTime),
		sampleLog("b", baseTime.Add(time.Minute)),
	}))
	require.NoError(t, store.InsertLogs(ctx, nil))

	logs, err = store.ListLogs(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestListLogsNewestFirstWithLimit(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	for i, id := range []string{"oldest", "newest", "middle"} {
		offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
		require.NoError(t, store.InsertLog(ctx, sampleLog(id, baseTime.Add(offsets[i]))))
	}

	logs, err := store.ListLogs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "newest", logs[0].ID)
	assert.Equal(t, "middle", logs[1].ID)
}

func TestListLogsEmpty(t *testing.T) {
	store := openTempStore(t)

	logs, err := store.ListLogs(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, logs)
	assert.Empty(t, logs)
}

func TestLatestLogEmpty(t *testing.T) {
	store := openTempStore(t)

	_, err := store.LatestLog(context.Background())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserLifecycle(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	user := domain.User{
		ID:           "user-1",
		Email:        "admin@gdash.com",
		Name:         "Administrator",
		Role:         domain.RoleAdmin,
		PasswordHash: "$2a$10$hash",
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	}
	require.NoError(t, store.InsertUser(ctx, user))

	byID, err := store.GetUser(ctx, "user-1")
	require.NoError(t, err)
	if diff := cmp.Diff(user, byID); diff != "" {
		t.Errorf("GetUser() mismatch (-want +got):\n%s", diff)
	}

	byEmail, err := store.GetUserByEmail(ctx, "admin@gdash.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", byEmail.ID)

	dup := user
	dup.ID = "user-2"
	require.ErrorIs(t, store.InsertUser(ctx, dup), domain.ErrConflict)

	other := user
	other.ID = "user-3"
	other.Email = "ana@example.com"
	other.CreatedAt = baseTime.Add(time.Minute)
	require.NoError(t, store.InsertUser(ctx, other))

	list, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "user-1", list[0].ID)
	assert.Equal(t, "user-3", list[1].ID)

	require.NoError(t, store.DeleteUser(ctx, "user-1"))
	require.ErrorIs(t, store.DeleteUser(ctx, "user-1"), domain.ErrNotFound)

	_, err = store.GetUser(ctx, "user-1")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = store.GetUserByEmail(ctx, "admin@gdash.com")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id TEXT);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (id TEXT);\n", extractUpMigration(content))
	assert.Equal(t, "SELECT 1;", extractUpMigration("SELECT 1;"))
}
