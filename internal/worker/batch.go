package worker

import (
	"context"
	"time"
)

// Func processes the item at index i
type Func[T any] func(ctx context.Context, i int) (T, error)

// ItemResult is the outcome for one item
type ItemResult[T any] struct {
	Idx   int
	Value T
	Err   error
}

// Index implements Result
func (r *ItemResult[T]) Index() int {
	return r.Idx
}

// GetError implements Result
func (r *ItemResult[T]) GetError() error {
	return r.Err
}

type funcJob[T any] struct {
	index int
	fn    Func[T]
}

// Execute implements Job
func (j *funcJob[T]) Execute(ctx context.Context) Result {
	v, err := j.fn(ctx, j.index)
	return &ItemResult[T]{Idx: j.index, Value: v, Err: err}
}

// BatchProcessor runs items through a pool, optionally in chunks with a
// pause between them.
type BatchProcessor struct {
	concurrency int
	chunkSize   int
	chunkDelay  time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	onChunk     func(done, total int)
}

// BatchOption configures a BatchProcessor
type BatchOption func(*BatchProcessor)

// WithChunks processes size items at a time and waits delay between chunks.
// A size of zero or less means a single chunk.
func WithChunks(size int, delay time.Duration) BatchOption {
	return func(b *BatchProcessor) {
		b.chunkSize = size
		b.chunkDelay = delay
	}
}

// WithProgress is called after each chunk completes
func WithProgress(fn func(done, total int)) BatchOption {
	return func(b *BatchProcessor) {
		b.onChunk = fn
	}
}

// WithSleep replaces the pause between chunks
func WithSleep(fn func(ctx context.Context, d time.Duration) error) BatchOption {
	return func(b *BatchProcessor) {
		b.sleep = fn
	}
}

// NewBatchProcessor creates a batch processor
func NewBatchProcessor(concurrency int, opts ...BatchOption) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 1
	}
	b := &BatchProcessor{
		concurrency: concurrency,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Concurrency returns the number of workers per chunk
func (b *BatchProcessor) Concurrency() int {
	return b.concurrency
}

// Run processes items 0..n-1 with fn and returns one result per item in
// index order. Items never reached because ctx was cancelled carry ctx's
// error.
func Run[T any](ctx context.Context, b *BatchProcessor, n int, fn Func[T]) []ItemResult[T] {
	out := make([]ItemResult[T], n)
	done := make([]bool, n)
	if n == 0 {
		return out
	}

	size := b.chunkSize
	if size <= 0 || size > n {
		size = n
	}

	for start := 0; start < n; start += size {
		if start > 0 && b.chunkDelay > 0 {
			if err := b.sleep(ctx, b.chunkDelay); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		end := min(start+size, n)
		pool := NewPool(ctx, b.concurrency)
		pool.Start()
		for i := start; i < end; i++ {
			if !pool.Submit(&funcJob[T]{index: i, fn: fn}) {
				break
			}
		}
		for _, r := range pool.Wait() {
			ir := r.(*ItemResult[T])
			out[ir.Idx] = *ir
			done[ir.Idx] = true
		}

		if b.onChunk != nil {
			b.onChunk(end, n)
		}
	}

	for i := range out {
		if !done[i] {
			out[i].Idx = i
			out[i].Err = context.Cause(ctx)
			if out[i].Err == nil {
				out[i].Err = context.Canceled
			}
		}
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
