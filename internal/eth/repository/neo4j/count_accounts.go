package neo4j

import (
	"context"
	"fmt"
)

const countAccountsQuery = `
MATCH (a:Account {address: $address})
RETURN count(a) AS count`

// CountAccounts returns how many Account nodes carry the address.
func (t *BlockTx) CountAccounts(ctx context.Context, address string) (int64, error) {
	n, err := t.count(ctx, "count_accounts", countAccountsQuery, map[string]any{"address": address}, "count")
	if err != nil {
		return 0, fmt.Errorf("count accounts %s: %w", address, err)
	}
	return n, nil
}
