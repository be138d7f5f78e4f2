package benchmark

import (
	"context"
	"time"

	"modelrouter/internal/utils"
)

// Writer persists drained benchmark records.
type Writer interface {
	WriteBatch(ctx context.Context, records []*Record) error
}

// Worker periodically drains the Redis buffer into a Writer (the Postgres
// repository in production). Records that fail to persist are re-queued once
// per pass; the buffer's size cap bounds how much can accumulate.
type Worker struct {
	buffer   *RedisBuffer
	writer   Writer
	interval time.Duration
	log      *utils.Logger

	stop chan struct{}
	done chan struct{}
}

// NewWorker creates a drain worker. A zero interval defaults to 30 seconds.
func NewWorker(buffer *RedisBuffer, writer Writer, interval time.Duration, log *utils.Logger) *Worker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = utils.NewLogger("benchmark-worker")
	}
	return &Worker{
		buffer:   buffer,
		writer:   writer,
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the drain loop.
func (w *Worker) Start() {
	go w.run()
}

// Stop drains once more and waits for the loop to exit.
func (w *Worker) Stop(ctx context.Context) error {
	close(w.stop)
	select {
	case <-w.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return w.Drain(ctx)
}

func (w *Worker) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), w.interval)
			if err := w.Drain(ctx); err != nil {
				w.log.Error("drain failed", "error", err)
			}
			cancel()
		case <-w.stop:
			return
		}
	}
}

// Drain moves everything currently buffered into the writer.
func (w *Worker) Drain(ctx context.Context) error {
	for {
		records, err := w.buffer.Dequeue(ctx, 0)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		if err := w.writer.WriteBatch(ctx, records); err != nil {
			// Put the batch back so the next pass can retry.
			for _, rec := range records {
				_ = w.buffer.Enqueue(ctx, rec)
			}
			return err
		}
	}
}
