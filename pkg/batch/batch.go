package batch

import (
	"context"
	"sync"
)

// Result carries the outcome of one item's task. Exactly one of Value or Err
// is meaningful, discriminated by Err.
type Result[T any] struct {
	Value T
	Err   error
}

// Partition splits items into consecutive chunks of at most size elements.
// A non-positive size yields a single chunk.
func Partition[T any](items []T, size int) [][]T {
	if size <= 0 {
		if len(items) == 0 {
			return nil
		}
		return [][]T{items}
	}
	var chunks [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// Settle runs fn for every item concurrently and waits for all of them,
// returning one Result per item in input order. Individual failures are
// captured in the corresponding Result rather than aborting the group, which
// makes partial failure an explicit part of the return type.
func Settle[I, O any](ctx context.Context, items []I, fn func(context.Context, I) (O, error)) []Result[O] {
	results := make([]Result[O], len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(idx int, it I) {
			defer wg.Done()
			value, err := fn(ctx, it)
			results[idx] = Result[O]{Value: value, Err: err}
		}(i, item)
	}
	wg.Wait()
	return results
}
