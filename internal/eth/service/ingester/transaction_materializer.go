package ingester

import (
	"context"

	"github.com/goodnatureofminers/blockgraph/internal/eth/graph"
	"github.com/goodnatureofminers/blockgraph/internal/eth/model"
	"github.com/goodnatureofminers/blockgraph/pkg/workerpool"
)

type transactionMaterializer struct {
	workerCount int
}

// Materialize creates one Transaction edge per transaction concurrently and returns the first failure.
func (m *transactionMaterializer) Materialize(ctx context.Context, tx graph.Tx, txs []model.Transaction) error {
	return workerpool.Process(ctx, m.workerCount, txs, func(ctx context.Context, _ int, t model.Transaction) error {
		return tx.CreateTransactionEdge(ctx, t)
	})
}
