//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-insights-service/internal/adapter/kafka"
	"github.com/couchcryptid/weather-insights-service/internal/adapter/sqlite"
	"github.com/couchcryptid/weather-insights-service/internal/comfort"
	"github.com/couchcryptid/weather-insights-service/internal/config"
	"github.com/couchcryptid/weather-insights-service/internal/domain"
	"github.com/couchcryptid/weather-insights-service/internal/observability"
	"github.com/couchcryptid/weather-insights-service/internal/pipeline"
	"github.com/couchcryptid/weather-insights-service/internal/weather"
)

const testTopic = "test-weather-readings"

func kafkaConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaTopic:         testTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 2 * time.Second,
	}
}

// ingestStack wires the api-side ingestion path onto an in-memory store.
type ingestStack struct {
	store    *sqlite.Store
	pipeline *pipeline.Pipeline
}

func newIngestStack(t *testing.T, cfg *config.Config) ingestStack {
	t.Helper()
	store, err := sqlite.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	metrics := observability.NewMetricsForTesting()
	svc := weather.NewService(store, comfort.Default, discardLogger(), metrics)
	p := pipeline.New(reader, pipeline.NewTransformer(discardLogger()),
		pipeline.NewIngestLoader(svc, config.QueueKafka), discardLogger(), metrics, 50)
	return ingestStack{store: store, pipeline: p}
}

// runPipeline starts p and returns a stop function that cancels it and
// asserts a clean exit.
func runPipeline(ctx context.Context, t *testing.T, p *pipeline.Pipeline) func() {
	t.Helper()
	pctx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pctx) }()
	return func() {
		cancel()
		require.NoError(t, <-errCh)
	}
}

// TestKafkaWriterReader verifies the adapter layer: kafka.Writer (collector
// publisher) and kafka.Reader (pipeline extractor) round-trip a reading.
func TestKafkaWriterReader(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)
	cfg := kafkaConfig(broker, "test-reader")

	reading := loadMockReadings(t)[0]

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.Publish(ctx, reading))

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned and messages become available.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawMessage
	for {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if len(batch) > 0 {
			break
		}
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte(reading.Location), raw.Key)
	assert.Equal(t, testTopic, raw.Source)
	assert.Equal(t, "application/json", raw.Headers["content_type"])
	_, err := time.Parse(time.RFC3339, raw.Headers["collected_at"])
	assert.NoError(t, err, "collected_at should be valid RFC3339")
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	var got domain.CollectorReading
	require.NoError(t, json.Unmarshal(raw.Value, &got))
	assert.Equal(t, reading, got)

	in, err := pipeline.NewTransformer(discardLogger()).Transform(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, "Pato Branco, PR", in.Location)
	assert.Equal(t, time.Date(2025, time.November, 20, 3, 0, 0, 0, time.UTC), in.Timestamp)
	assert.Equal(t, "Céu limpo", in.Condition)
}

// TestPipelineEndToEnd publishes every fixture reading and verifies the
// pipeline stores one scored log per reading.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)
	cfg := kafkaConfig(broker, "test-pipeline")

	readings := loadMockReadings(t)
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	for _, r := range readings {
		require.NoError(t, writer.Publish(ctx, r))
	}

	stack := newIngestStack(t, cfg)
	stop := runPipeline(ctx, t, stack.pipeline)

	require.Eventually(t, func() bool {
		logs, err := stack.store.ListLogs(ctx, 1000)
		return err == nil && len(logs) == len(readings)
	}, 60*time.Second, 250*time.Millisecond, "all readings should be stored")
	assert.NoError(t, stack.pipeline.CheckReadiness(ctx))
	stop()

	logs, err := stack.store.ListLogs(ctx, 1000)
	require.NoError(t, err)
	require.Len(t, logs, len(readings))

	for _, l := range logs {
		assert.NotEmpty(t, l.ID)
		assert.NotEmpty(t, l.AIInsight)
		assert.GreaterOrEqual(t, l.ComfortScore, 0)
		assert.LessOrEqual(t, l.ComfortScore, 100)
		assert.False(t, l.CreatedAt.IsZero())
	}

	latest, err := stack.store.LatestLog(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.November, 21, 2, 0, 0, 0, time.UTC), latest.Timestamp)

	// Spot-check the first hour (00:00 local): cold and humid.
	first := logs[len(logs)-1]
	assert.Equal(t, time.Date(2025, time.November, 20, 3, 0, 0, 0, time.UTC), first.Timestamp)
	assert.Equal(t, "Dia frio. Alta umidade pode causar desconforto.", first.AIInsight)
	assert.Equal(t, 55, first.ComfortScore)

	// Spot-check the storm at 18:00 local: pleasant but wet and windy.
	var foundStorm bool
	for _, l := range logs {
		if !l.Timestamp.Equal(time.Date(2025, time.November, 20, 21, 0, 0, 0, time.UTC)) {
			continue
		}
		foundStorm = true
		assert.Equal(t, "Tempestade", l.Condition)
		assert.Equal(t, "Temperatura agradável. Alta probabilidade de chuva. Ventos fortes.", l.AIInsight)
		assert.Equal(t, 92, l.ComfortScore)
		require.NotNil(t, l.WeatherCode)
		assert.Equal(t, 95, *l.WeatherCode)
		break
	}
	assert.True(t, foundStorm, "expected to find the 18:00 storm reading")
}

// TestPipelineTransformError verifies that an invalid message (poison pill) is
// skipped and the pipeline keeps storing valid readings.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testTopic)
	cfg := kafkaConfig(broker, "test-poison")

	valid, err := json.Marshal(loadMockReadings(t)[0])
	require.NoError(t, err)
	outOfRange := loadMockReadings(t)[1]
	outOfRange.Humidity = 140
	insane, err := json.Marshal(outOfRange)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("insane"), Value: insane},
		kafkago.Message{Key: []byte("good"), Value: valid},
	))

	stack := newIngestStack(t, cfg)
	stop := runPipeline(ctx, t, stack.pipeline)

	require.Eventually(t, func() bool {
		logs, err := stack.store.ListLogs(ctx, 10)
		return err == nil && len(logs) == 1
	}, 60*time.Second, 250*time.Millisecond, "the valid reading should be stored")

	// Give the pipeline time to store anything it should not have.
	time.Sleep(2 * time.Second)
	stop()

	logs, err := stack.store.ListLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, time.Date(2025, time.November, 20, 3, 0, 0, 0, time.UTC), logs[0].Timestamp)
}
