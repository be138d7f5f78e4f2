package benchmark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBuffer queues benchmark records in a Redis list so the request path
// never waits on Postgres. A size cap drops the oldest entries when the
// drain worker falls behind.
type RedisBuffer struct {
	client    *redis.Client
	queueKey  string
	maxSize   int64
	batchSize int
}

// RedisBufferConfig holds buffer settings.
type RedisBufferConfig struct {
	QueueKey  string
	MaxSize   int64 // oldest entries dropped when exceeded, 0 = unlimited
	BatchSize int   // records dequeued per drain pass
}

// DefaultRedisBufferConfig returns sane defaults.
func DefaultRedisBufferConfig() RedisBufferConfig {
	return RedisBufferConfig{
		QueueKey:  "router:benchmarks",
		MaxSize:   100_000,
		BatchSize: 500,
	}
}

// NewRedisBuffer creates a buffer over the given client.
func NewRedisBuffer(client *redis.Client, cfg RedisBufferConfig) *RedisBuffer {
	if cfg.QueueKey == "" {
		cfg.QueueKey = "router:benchmarks"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	return &RedisBuffer{
		client:    client,
		queueKey:  cfg.QueueKey,
		maxSize:   cfg.MaxSize,
		batchSize: cfg.BatchSize,
	}
}

// enqueueScript pushes a record and trims the list to the size cap in one
// round trip.
var enqueueScript = redis.NewScript(`
	local key = KEYS[1]
	local value = ARGV[1]
	local max_size = tonumber(ARGV[2])

	redis.call('RPUSH', key, value)

	local len = redis.call('LLEN', key)
	if len > max_size then
		redis.call('LTRIM', key, len - max_size, -1)
	end

	return len
`)

// Enqueue appends a record to the queue.
func (b *RedisBuffer) Enqueue(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal benchmark record: %w", err)
	}

	if b.maxSize > 0 {
		if err := enqueueScript.Run(ctx, b.client, []string{b.queueKey}, data, b.maxSize).Err(); err != nil {
			return fmt.Errorf("enqueue benchmark record: %w", err)
		}
		return nil
	}

	if err := b.client.RPush(ctx, b.queueKey, data).Err(); err != nil {
		return fmt.Errorf("enqueue benchmark record: %w", err)
	}
	return nil
}

// dequeueScript removes and returns up to count records, oldest first.
var dequeueScript = redis.NewScript(`
	local key = KEYS[1]
	local count = tonumber(ARGV[1])

	local records = redis.call('LRANGE', key, 0, count - 1)
	if #records > 0 then
		redis.call('LTRIM', key, #records, -1)
	end

	return records
`)

// Dequeue removes and returns a batch of records, oldest first.
func (b *RedisBuffer) Dequeue(ctx context.Context, count int) ([]*Record, error) {
	if count <= 0 {
		count = b.batchSize
	}

	raw, err := dequeueScript.Run(ctx, b.client, []string{b.queueKey}, count).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("dequeue benchmark records: %w", err)
	}

	records := make([]*Record, 0, len(raw))
	for i, data := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal benchmark record %d: %w", i, err)
		}
		records = append(records, &rec)
	}
	return records, nil
}

// Size returns the current queue length.
func (b *RedisBuffer) Size(ctx context.Context) (int64, error) {
	return b.client.LLen(ctx, b.queueKey).Result()
}

// Clear drops all queued records.
func (b *RedisBuffer) Clear(ctx context.Context) error {
	return b.client.Del(ctx, b.queueKey).Err()
}

// sinkQueueSize is how many records a RedisSink holds while the background
// writer catches up. Overflow drops the record.
const sinkQueueSize = 1024

// ErrSinkSaturated reports a record dropped because the hand-off queue was
// full. Callers ignore sink errors; it exists for tests.
var ErrSinkSaturated = errors.New("benchmark sink saturated")

// RedisSink adapts a RedisBuffer to the Sink interface. Enqueue only hands
// the record to a background writer, so a slow or down Redis never stalls
// the caller.
type RedisSink struct {
	buffer  *RedisBuffer
	timeout time.Duration
	records chan *Record
	done    chan struct{}
	once    sync.Once
}

// NewRedisSink wraps the buffer and starts the background writer. A zero
// timeout defaults to one second per Redis write.
func NewRedisSink(buffer *RedisBuffer, timeout time.Duration) *RedisSink {
	if timeout <= 0 {
		timeout = time.Second
	}
	s := &RedisSink{
		buffer:  buffer,
		timeout: timeout,
		records: make(chan *Record, sinkQueueSize),
		done:    make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *RedisSink) Enqueue(rec *Record) error {
	select {
	case s.records <- rec:
		return nil
	default:
		return ErrSinkSaturated
	}
}

func (s *RedisSink) pump() {
	defer close(s.done)
	for rec := range s.records {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		_ = s.buffer.Enqueue(ctx, rec)
		cancel()
	}
}

// Close waits for the writer to flush what is already queued. Enqueue must
// not be called after Close.
func (s *RedisSink) Close() {
	s.once.Do(func() { close(s.records) })
	<-s.done
}
