package benchmark

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSample(t *testing.T) {
	assert.Equal(t, "short", Sample("short"))

	long := strings.Repeat("x", 250)
	assert.Len(t, Sample(long), 100)
}

func TestNoopSink(t *testing.T) {
	sink := NewNoopSink()
	assert.NoError(t, sink.Enqueue(&Record{Model: "qwen3-4b"}))
}

func setupBuffer(t *testing.T) *RedisBuffer {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := DefaultRedisBufferConfig()
	cfg.MaxSize = 5
	cfg.BatchSize = 2
	return NewRedisBuffer(client, cfg)
}

func TestRedisBufferRoundTrip(t *testing.T) {
	ctx := context.Background()
	buf := setupBuffer(t)

	rec := &Record{
		Timestamp: time.Now().UTC(),
		RequestID: "req-1",
		Kind:      "chat",
		Model:     "deepseek-coder",
		Prompt:    "fix this bug",
		LatencyMS: 42,
	}
	require.NoError(t, buf.Enqueue(ctx, rec))

	size, err := buf.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)

	out, err := buf.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "deepseek-coder", out[0].Model)
	assert.Equal(t, int64(42), out[0].LatencyMS)

	size, err = buf.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestRedisBufferDropsOldestWhenFull(t *testing.T) {
	ctx := context.Background()
	buf := setupBuffer(t)

	for i := 0; i < 8; i++ {
		require.NoError(t, buf.Enqueue(ctx, &Record{RequestID: string(rune('a' + i))}))
	}

	size, err := buf.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	out, err := buf.Dequeue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, out, 5)
	// Oldest three were dropped.
	assert.Equal(t, "d", out[0].RequestID)
}

type captureWriter struct {
	batches [][]*Record
	fail    bool
}

func (c *captureWriter) WriteBatch(ctx context.Context, records []*Record) error {
	if c.fail {
		return errors.New("database down")
	}
	c.batches = append(c.batches, records)
	return nil
}

func TestRedisSinkDeliversInBackground(t *testing.T) {
	buf := setupBuffer(t)
	sink := NewRedisSink(buf, 0)

	require.NoError(t, sink.Enqueue(&Record{RequestID: "req-1", Kind: "chat", Model: "qwen3-8b"}))

	assert.Eventually(t, func() bool {
		size, err := buf.Size(context.Background())
		return err == nil && size == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRedisSinkEnqueueDoesNotBlockOnDeadRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 500 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	sink := NewRedisSink(NewRedisBuffer(client, DefaultRedisBufferConfig()), 0)

	start := time.Now()
	require.NoError(t, sink.Enqueue(&Record{RequestID: "req-1", Kind: "chat"}))
	// The hand-off must return long before any Redis dial could complete.
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRedisSinkCloseFlushesQueued(t *testing.T) {
	buf := setupBuffer(t)
	sink := NewRedisSink(buf, 0)

	require.NoError(t, sink.Enqueue(&Record{RequestID: "req-1", Kind: "chat"}))
	require.NoError(t, sink.Enqueue(&Record{RequestID: "req-2", Kind: "chat"}))
	sink.Close()

	size, err := buf.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), size)
}

func TestWorkerDrain(t *testing.T) {
	ctx := context.Background()
	buf := setupBuffer(t)
	writer := &captureWriter{}
	worker := NewWorker(buf, writer, time.Minute, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, buf.Enqueue(ctx, &Record{Kind: "chat"}))
	}

	require.NoError(t, worker.Drain(ctx))

	total := 0
	for _, batch := range writer.batches {
		total += len(batch)
	}
	assert.Equal(t, 3, total)

	size, err := buf.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestWorkerDrainRequeuesOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	buf := setupBuffer(t)
	writer := &captureWriter{fail: true}
	worker := NewWorker(buf, writer, time.Minute, nil)

	require.NoError(t, buf.Enqueue(ctx, &Record{Kind: "chat"}))
	require.Error(t, worker.Drain(ctx))

	size, err := buf.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), size)
}
