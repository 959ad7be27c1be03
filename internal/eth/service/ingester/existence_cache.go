package ingester

import (
	"context"
	"fmt"
	"sync"

	"github.com/goodnatureofminers/blockgraph/internal/eth/model"
)

type accountCounter interface {
	CountAccounts(ctx context.Context, address string) (int64, error)
}

type existenceEntry struct {
	done   chan struct{}
	exists bool
	err    error
}

// existenceCache remembers every address looked up during one block transaction.
// The first caller for an address queries the store; everyone after it, including concurrent
// callers, is told the account exists because the first caller either found it or will create it.
type existenceCache struct {
	store   accountCounter
	metrics ImporterMetrics

	mu      sync.Mutex
	entries map[string]*existenceEntry
}

func newExistenceCache(store accountCounter, metrics ImporterMetrics) *existenceCache {
	return &existenceCache{
		store:   store,
		metrics: metrics,
		entries: make(map[string]*existenceEntry),
	}
}

// Exists reports whether the caller can rely on an Account node for address. false means the caller must create it.
func (c *existenceCache) Exists(ctx context.Context, address string) (bool, error) {
	c.mu.Lock()
	if e, ok := c.entries[address]; ok {
		c.mu.Unlock()
		c.metrics.ObserveExistenceLookup(true)

		select {
		case <-e.done:
		case <-ctx.Done():
			return false, ctx.Err()
		}
		if e.err != nil {
			return false, e.err
		}
		return true, nil
	}
	e := &existenceEntry{done: make(chan struct{})}
	c.entries[address] = e
	c.mu.Unlock()
	c.metrics.ObserveExistenceLookup(false)

	defer close(e.done)

	count, err := c.store.CountAccounts(ctx, address)
	switch {
	case err != nil:
		e.err = fmt.Errorf("check account %s: %w", address, err)
	case count > 1:
		e.err = &model.CorruptionError{Address: address, Count: count}
	default:
		e.exists = count == 1
	}
	return e.exists, e.err
}
