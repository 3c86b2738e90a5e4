package pool

import (
	"context"
	"sync"
)

// WorkerFunc defines the function signature for a worker that processes an item and may return an error.
type WorkerFunc[T any] func(ctx context.Context, item T) error

type options[T any] struct {
	onDone func(item T, err error)
}

// Option configures Run.
type Option[T any] func(o *options[T])

// OnDone registers fn to be called after each item finishes, successfully or not.
// Calls are serialized, so fn may update a progress bar or a counter without locking.
func OnDone[T any](fn func(item T, err error)) Option[T] {
	return func(o *options[T]) {
		o.onDone = fn
	}
}

// Run processes items with at most numWorkers concurrent workers and returns the
// errors the workers reported. numWorkers is clamped to [1, len(items)]. Items not
// yet started when ctx is cancelled are skipped.
func Run[T any](ctx context.Context, items []T, numWorkers int, workerFunc WorkerFunc[T], opts ...Option[T]) []error {
	var o options[T]
	for _, opt := range opts {
		opt(&o)
	}
	if numWorkers > len(items) {
		numWorkers = len(items)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		allErr []error
	)
	taskChan := make(chan T, numWorkers)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range taskChan {
				if ctx.Err() != nil {
					return
				}
				err := workerFunc(ctx, item)
				mu.Lock()
				if err != nil {
					allErr = append(allErr, err)
				}
				if o.onDone != nil {
					o.onDone(item, err)
				}
				mu.Unlock()
			}
		}()
	}

OUT:
	for _, item := range items {
		select {
		case taskChan <- item:
		case <-ctx.Done():
			break OUT
		}
	}
	close(taskChan)

	wg.Wait()
	return allErr
}
