package neo4j

import (
	"context"
	"fmt"
	"math/big"

	"github.com/goodnatureofminers/blockgraph/internal/eth/model"
	"github.com/goodnatureofminers/blockgraph/pkg/safe"
)

const createBlockQuery = `
CREATE (b:Block {
	number: $number,
	hash: $hash,
	difficulty: $difficulty,
	extraData: $extraData,
	gasLimit: $gasLimit,
	gasUsed: $gasUsed,
	miner: $miner,
	size: $size,
	timestamp: $timestamp,
	totalDifficulty: $totalDifficulty
})
RETURN count(b) AS created`

// CreateBlock inserts the Block node.
func (t *BlockTx) CreateBlock(ctx context.Context, block model.Block) error {
	params, err := blockParams(block)
	if err != nil {
		return fmt.Errorf("block %d params: %w", block.Number, err)
	}

	if _, err = t.count(ctx, "create_block", createBlockQuery, params, "created"); err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("create block %d: %w: %w", block.Number, model.ErrDuplicateBlock, err)
		}
		return fmt.Errorf("create block %d: %w", block.Number, err)
	}
	return nil
}

func blockParams(block model.Block) (map[string]any, error) {
	number, err := safe.Int64(block.Number)
	if err != nil {
		return nil, fmt.Errorf("number: %w", err)
	}
	gasLimit, err := safe.Int64(block.GasLimit)
	if err != nil {
		return nil, fmt.Errorf("gas limit: %w", err)
	}
	gasUsed, err := safe.Int64(block.GasUsed)
	if err != nil {
		return nil, fmt.Errorf("gas used: %w", err)
	}
	size, err := safe.Int64(block.Size)
	if err != nil {
		return nil, fmt.Errorf("size: %w", err)
	}
	timestamp, err := safe.Int64(block.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("timestamp: %w", err)
	}

	return map[string]any{
		"number":          number,
		"hash":            block.Hash,
		"difficulty":      safe.Decimal(block.Difficulty),
		"extraData":       block.ExtraData,
		"gasLimit":        gasLimit,
		"gasUsed":         gasUsed,
		"miner":           block.Miner,
		"size":            size,
		"timestamp":       timestamp,
		"totalDifficulty": optionalDecimal(block.TotalDifficulty),
	}, nil
}

// optionalDecimal keeps absent quantities as null so the property is not written.
func optionalDecimal(v *big.Int) any {
	if v == nil {
		return nil
	}
	return safe.Decimal(v)
}
