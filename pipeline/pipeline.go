// Package pipeline wraps every remote fetch-and-parse operation with the
// cache → rate limit → retry-with-backoff sequence, and runs batches of
// identifiers with per-identifier failure isolation.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"bookinfo/cache"
	"bookinfo/fetcher"
)

// Options tunes the orchestration policy.
type Options struct {
	MinInterval time.Duration // minimum spacing between network requests
	MaxAttempts int           // retry ceiling per operation
	BaseDelay   time.Duration // first backoff delay, doubled each attempt
	MaxDelay    time.Duration // backoff cap
}

// Runner owns the shared rate-limit clock and the cache. Batches run
// sequentially behind the one limiter; the design deliberately serializes
// remote fetches to respect the source site's implicit rate limit, so Runner
// is not meant for concurrent callers.
type Runner struct {
	store       *cache.Store
	limiter     *rate.Limiter
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	log         *slog.Logger
}

func NewRunner(store *cache.Store, opts Options) *Runner {
	if opts.MinInterval <= 0 {
		opts.MinInterval = 2 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = time.Second
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	return &Runner{
		store:       store,
		limiter:     rate.NewLimiter(rate.Every(opts.MinInterval), 1),
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		maxDelay:    opts.MaxDelay,
		log:         slog.With("component", "pipeline"),
	}
}

// Do executes one operation: cache lookup, then rate-limited invocation with
// exponential backoff, then cache store. NotFound is terminal: no retry, no
// cache write. The cache key is derived from the operation name and its
// arguments in order, so identical calls share one entry.
func Do[T any](ctx context.Context, r *Runner, op string, fn func(context.Context) (T, error), args ...any) (T, error) {
	var zero T

	key := cache.Key(op, args...)
	var cached T
	if r.store.Get(key, &cached) {
		r.log.Debug("cache hit", "op", op, "args", args)
		return cached, nil
	}
	r.log.Debug("cache miss", "op", op, "args", args)

	result, err := retry(ctx, r, op, args, fn)
	if err != nil {
		return zero, err
	}
	r.store.Put(key, result)
	return result, nil
}

// DoUncached applies the same rate-limit and backoff policy without touching
// the cache, for results that must stay transient (search pages).
func DoUncached[T any](ctx context.Context, r *Runner, op string, fn func(context.Context) (T, error), args ...any) (T, error) {
	return retry(ctx, r, op, args, fn)
}

func retry[T any](ctx context.Context, r *Runner, op string, args []any, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	delay := r.baseDelay
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if fetcher.IsNotFound(err) {
			return zero, err
		}
		lastErr = err

		if attempt < r.maxAttempts {
			r.log.Warn("operation failed, backing off",
				"op", op, "args", args, "attempt", attempt, "delay", delay, "error", err)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
			delay *= 2
			if delay > r.maxDelay {
				delay = r.maxDelay
			}
		}
	}

	r.log.Error("operation exhausted all attempts",
		"op", op, "args", args, "attempts", r.maxAttempts, "error", lastErr)
	return zero, lastErr
}

// BatchResult keys outcomes by identifier; callers must not assume any
// ordering beyond that. Failed holds the per-identifier terminal error for
// ids that exhausted their attempts.
type BatchResult[T any] struct {
	Results map[int64]T
	Failed  map[int64]error
}

// BatchDo runs one operation per unique identifier, sequentially. A failing
// identifier is recorded and never aborts its siblings.
func BatchDo[T any](ctx context.Context, r *Runner, op string, ids []int64, fn func(context.Context, int64) (T, error)) *BatchResult[T] {
	out := &BatchResult[T]{
		Results: make(map[int64]T, len(ids)),
		Failed:  make(map[int64]error),
	}

	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		result, err := Do(ctx, r, op, func(ctx context.Context) (T, error) {
			return fn(ctx, id)
		}, id)
		if err != nil {
			r.log.Warn("batch item failed", "op", op, "id", id, "error", err)
			out.Failed[id] = err
			continue
		}
		out.Results[id] = result
	}

	return out
}
