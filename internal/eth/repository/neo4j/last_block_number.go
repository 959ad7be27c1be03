package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockgraph/pkg/safe"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const lastBlockNumberQuery = `
MATCH (b:Block)
RETURN max(b.number) AS number`

// LastBlockNumber returns the highest stored block number. found is false for an empty graph.
func (r *Repository) LastBlockNumber(ctx context.Context) (number uint64, found bool, err error) {
	started := time.Now()
	defer func() {
		r.metrics.Observe("last_block_number", err, started)
	}()

	s := r.openSession(ctx, neo4j.AccessModeRead)
	defer func() {
		if closeErr := s.Close(ctx); closeErr != nil && err == nil {
			err = fmt.Errorf("close session: %w", closeErr)
		}
	}()

	res, err := s.Run(ctx, lastBlockNumberQuery, nil)
	if err != nil {
		return 0, false, fmt.Errorf("query last block number: %w", err)
	}
	value, isNil, err := singleInt(ctx, res, "number")
	if err != nil {
		return 0, false, fmt.Errorf("read last block number: %w", err)
	}
	if isNil {
		return 0, false, nil
	}

	number, err = safe.Uint64(value)
	if err != nil {
		return 0, false, fmt.Errorf("last block number: %w", err)
	}
	return number, true, nil
}
