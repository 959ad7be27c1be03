package neo4j

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/blockgraph/internal/eth/model"
	"github.com/goodnatureofminers/blockgraph/pkg/safe"
)

const (
	createChainEdgeQuery = `
MATCH (prev:Block {number: $prevNumber}), (next:Block {number: $number})
CREATE (prev)-[c:Chain]->(next)
RETURN count(c) AS created`

	createMinedEdgeQuery = `
MATCH (m:Account {address: $miner}), (b:Block {number: $number})
CREATE (m)-[r:Mined]->(b)
RETURN count(r) AS created`

	createTransactionEdgeQuery = `
MATCH (from:Account {address: $from}), (to:Account {address: $to})
CREATE (from)-[t:Transaction {
	hash: $hash,
	to: $to,
	from: $from,
	blockNumber: $blockNumber,
	transactionIndex: $transactionIndex,
	value: $value,
	gas: $gas,
	gasPrice: $gasPrice,
	input: $input
}]->(to)
RETURN count(t) AS created`
)

// CreateChainEdge links block prevNumber to block number.
func (t *BlockTx) CreateChainEdge(ctx context.Context, prevNumber, number uint64) error {
	prev, err := safe.Int64(prevNumber)
	if err != nil {
		return fmt.Errorf("chain edge %d->%d: %w", prevNumber, number, err)
	}
	next, err := safe.Int64(number)
	if err != nil {
		return fmt.Errorf("chain edge %d->%d: %w", prevNumber, number, err)
	}

	params := map[string]any{"prevNumber": prev, "number": next}
	if err = t.createEdge(ctx, "create_chain_edge", createChainEdgeQuery, params); err != nil {
		return fmt.Errorf("chain edge %d->%d: %w", prevNumber, number, err)
	}
	return nil
}

// CreateMinedEdge links the miner account to its block.
func (t *BlockTx) CreateMinedEdge(ctx context.Context, miner string, number uint64) error {
	n, err := safe.Int64(number)
	if err != nil {
		return fmt.Errorf("mined edge %s->%d: %w", miner, number, err)
	}

	params := map[string]any{"miner": miner, "number": n}
	if err = t.createEdge(ctx, "create_mined_edge", createMinedEdgeQuery, params); err != nil {
		return fmt.Errorf("mined edge %s->%d: %w", miner, number, err)
	}
	return nil
}

// CreateTransactionEdge links the sender account to the receiver account.
func (t *BlockTx) CreateTransactionEdge(ctx context.Context, tx model.Transaction) error {
	params, err := transactionParams(tx)
	if err != nil {
		return fmt.Errorf("transaction edge %s: %w", tx.Hash, err)
	}
	if err = t.createEdge(ctx, "create_transaction_edge", createTransactionEdgeQuery, params); err != nil {
		return fmt.Errorf("transaction edge %s: %w", tx.Hash, err)
	}
	return nil
}

func (t *BlockTx) createEdge(ctx context.Context, operation, cypher string, params map[string]any) error {
	created, err := t.count(ctx, operation, cypher, params, "created")
	if err != nil {
		return err
	}
	if created == 0 {
		return model.ErrEndpointMissing
	}
	return nil
}

func transactionParams(tx model.Transaction) (map[string]any, error) {
	if tx.IsContractCreation() {
		return nil, fmt.Errorf("%w: receiver not resolved", model.ErrEndpointMissing)
	}
	blockNumber, err := safe.Int64(tx.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("block number: %w", err)
	}
	index, err := safe.Int64(tx.TransactionIndex)
	if err != nil {
		return nil, fmt.Errorf("transaction index: %w", err)
	}
	gas, err := safe.Int64(tx.Gas)
	if err != nil {
		return nil, fmt.Errorf("gas: %w", err)
	}

	return map[string]any{
		"hash":             tx.Hash,
		"to":               tx.To,
		"from":             tx.From,
		"blockNumber":      blockNumber,
		"transactionIndex": index,
		"value":            safe.Decimal(tx.Value),
		"gas":              gas,
		"gasPrice":         safe.Decimal(tx.GasPrice),
		"input":            tx.Input,
	}, nil
}
