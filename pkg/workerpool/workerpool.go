// Package workerpool provides bounded fan-out helpers that join on the first failure.
package workerpool

import (
	"context"
	"sync"
)

// Process runs process for every item on at most limit goroutines and waits for all of them.
// The first error cancels the context handed to the remaining calls and is the one returned;
// later errors are dropped. The index passed to process is the item's position in items.
func Process[T any](
	ctx context.Context,
	limit int,
	items []T,
	process func(ctx context.Context, index int, item T) error,
) error {
	if len(items) == 0 {
		return ctx.Err()
	}
	if limit <= 0 || limit > len(items) {
		limit = len(items)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		firstErr error
		once     sync.Once
		wg       sync.WaitGroup
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	tasks := make(chan int)
	for w := 0; w < limit; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				if err := process(ctx, i, items[i]); err != nil {
					fail(err)
				}
			}
		}()
	}

feed:
	for i := range items {
		select {
		case <-ctx.Done():
			break feed
		case tasks <- i:
		}
	}
	close(tasks)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
