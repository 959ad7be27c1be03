package neo4j

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goodnatureofminers/blockgraph/internal/eth/graph"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var errTxFinished = errors.New("block transaction already finished")

// BlockTx is the explicit Neo4j transaction that holds every write of one block.
// Driver transactions are not goroutine-safe, so statements are serialized here.
type BlockTx struct {
	mu       sync.Mutex
	session  session
	tx       transaction
	metrics  Metrics
	finished bool
}

var _ graph.Tx = (*BlockTx)(nil)

// BeginBlock opens a write session and starts the block's transaction.
func (r *Repository) BeginBlock(ctx context.Context) (_ graph.Tx, err error) {
	started := time.Now()
	defer func() {
		r.metrics.Observe("begin_block", err, started)
	}()

	s := r.openSession(ctx, neo4j.AccessModeWrite)
	tx, err := s.BeginTransaction(ctx)
	if err != nil {
		if closeErr := s.Close(ctx); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close session: %w", closeErr))
		}
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	return &BlockTx{session: s, tx: tx, metrics: r.metrics}, nil
}

// Commit commits the block and releases the session.
func (t *BlockTx) Commit(ctx context.Context) (err error) {
	started := time.Now()
	defer func() {
		t.metrics.Observe("commit", err, started)
	}()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return errTxFinished
	}
	t.finished = true

	if err = t.tx.Commit(ctx); err != nil {
		err = fmt.Errorf("commit: %w", err)
	}
	return t.closeSession(ctx, err)
}

// Rollback discards every write of the block and releases the session. Rolling back twice is a no-op.
func (t *BlockTx) Rollback(ctx context.Context) (err error) {
	started := time.Now()
	defer func() {
		t.metrics.Observe("rollback", err, started)
	}()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return nil
	}
	t.finished = true

	if err = t.tx.Rollback(ctx); err != nil {
		err = fmt.Errorf("rollback: %w", err)
	}
	return t.closeSession(ctx, err)
}

func (t *BlockTx) closeSession(ctx context.Context, err error) error {
	if closeErr := t.session.Close(ctx); closeErr != nil {
		return errors.Join(err, fmt.Errorf("close session: %w", closeErr))
	}
	return err
}

// count runs a statement that returns a single integer column and reads it.
func (t *BlockTx) count(ctx context.Context, operation, cypher string, params map[string]any, key string) (n int64, err error) {
	started := time.Now()
	defer func() {
		t.metrics.Observe(operation, err, started)
	}()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return 0, errTxFinished
	}

	res, err := t.tx.Run(ctx, cypher, params)
	if err != nil {
		return 0, err
	}
	n, _, err = singleInt(ctx, res, key)
	return n, err
}
