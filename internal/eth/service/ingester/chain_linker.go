package ingester

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/blockgraph/internal/eth/graph"
	"github.com/goodnatureofminers/blockgraph/internal/eth/model"
)

type chainLinker struct {
	startHeight uint64
}

// Link creates the Block node, its miner and the Mined and Chain edges. It stops at the first failure.
func (l *chainLinker) Link(ctx context.Context, tx graph.Tx, cache *existenceCache, block model.Block) (createdMiner bool, err error) {
	if err = tx.CreateBlock(ctx, block); err != nil {
		return false, err
	}

	exists, err := cache.Exists(ctx, block.Miner)
	if err != nil {
		return false, fmt.Errorf("miner: %w", err)
	}
	if !exists {
		if err = tx.CreateAccounts(ctx, []model.AccountRequest{{Address: block.Miner, Role: model.External}}); err != nil {
			return false, fmt.Errorf("miner: %w", err)
		}
		createdMiner = true
	}

	if err = tx.CreateMinedEdge(ctx, block.Miner, block.Number); err != nil {
		return createdMiner, err
	}
	if block.Number > l.startHeight {
		if err = tx.CreateChainEdge(ctx, block.Number-1, block.Number); err != nil {
			return createdMiner, err
		}
	}
	return createdMiner, nil
}
