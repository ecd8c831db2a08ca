package batch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Defaults for Options.
const (
	DefaultWorkers     = 4
	DefaultTimeout     = 10 * time.Minute
	DefaultMaxAttempts = 3
	DefaultBackoff     = time.Second
)

// Options configures a Dispatcher. Zero values take the defaults.
type Options struct {
	Workers     int
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Backoff < 0 {
		o.Backoff = 0
	}
	return o
}

// Func processes one chunk. A returned error fails the attempt and the chunk
// is retried from its first item.
type Func[T any] func(ctx context.Context, chunk Chunk[T]) (Counts, error)

// Observer is notified after every chunk settles.
type Observer func(s Summary, took time.Duration)

// Dispatcher runs chunks on a bounded worker pool with retries.
type Dispatcher[T any] struct {
	opts     Options
	logger   *zap.Logger
	observer Observer
}

// NewDispatcher creates a dispatcher. observer may be nil.
func NewDispatcher[T any](opts Options, observer Observer, logger *zap.Logger) *Dispatcher[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher[T]{opts: opts.withDefaults(), observer: observer, logger: logger}
}

// Run executes every chunk and waits for all of them. Chunks that exhaust
// their attempts are listed in FailedChunks and joined into the returned error;
// the remaining chunks still run.
func (d *Dispatcher[T]) Run(ctx context.Context, chunks []Chunk[T], fn Func[T]) (RunSummary, error) {
	start := time.Now()
	summaries := make([]Summary, len(chunks))
	failures := make([]error, len(chunks))

	g := new(errgroup.Group)
	g.SetLimit(d.opts.Workers)

	for i, chunk := range chunks {
		g.Go(func() error {
			summaries[i], failures[i] = d.runChunk(ctx, chunk, fn)
			return nil
		})
	}
	_ = g.Wait()

	run := RunSummary{Chunks: len(chunks), Summaries: summaries}
	for i, s := range summaries {
		run.Counts.Add(s.Counts)
		if failures[i] != nil {
			run.FailedChunks = append(run.FailedChunks, s.Sequence)
		}
	}
	run.DurationMS = time.Since(start).Milliseconds()

	return run, errors.Join(failures...)
}

func (d *Dispatcher[T]) runChunk(ctx context.Context, chunk Chunk[T], fn Func[T]) (Summary, error) {
	s := Summary{Sequence: chunk.Sequence, Size: len(chunk.Items)}
	log := d.logger.With(zap.Int("chunk", chunk.Sequence), zap.Int("size", len(chunk.Items)))
	start := time.Now()

	var err error
	for attempt := 1; attempt <= d.opts.MaxAttempts; attempt++ {
		s.Attempts = attempt

		var counts Counts
		counts, err = d.attempt(ctx, chunk, fn)
		if err == nil {
			s.Counts = counts
			break
		}

		log.Warn("Chunk attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt == d.opts.MaxAttempts || ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
		case <-time.After(d.opts.Backoff * time.Duration(attempt)):
		}
	}

	took := time.Since(start)
	s.DurationMS = took.Milliseconds()

	if err != nil {
		cerr := &ChunkError{Sequence: chunk.Sequence, Attempts: s.Attempts, Err: err}
		s.Error = cerr.Error()
		log.Error("Chunk failed", zap.Error(cerr))
		d.notify(s, took)
		return s, cerr
	}

	log.Info("Chunk completed",
		zap.Int("processed", s.Processed),
		zap.Int("errors", s.Errors),
		zap.Duration("took", took))
	d.notify(s, took)
	return s, nil
}

func (d *Dispatcher[T]) attempt(ctx context.Context, chunk Chunk[T], fn Func[T]) (Counts, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()
	return fn(ctx, chunk)
}

func (d *Dispatcher[T]) notify(s Summary, took time.Duration) {
	if d.observer != nil {
		d.observer(s, took)
	}
}
