package neo4j

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/blockgraph/internal/eth/model"
)

const promoteToContractQuery = `
MATCH (a:Account {address: $address})
REMOVE a:External
SET a:Contract
RETURN count(a) AS changed`

// ChangeAccountRole relabels an External account as Contract. Relabeling a Contract again is a no-op.
func (t *BlockTx) ChangeAccountRole(ctx context.Context, address string, from, to model.Role) error {
	if from != model.External || to != model.Contract {
		return fmt.Errorf("%w: %s to %s", model.ErrUnsupportedRoleChange, from, to)
	}

	changed, err := t.count(ctx, "change_account_role", promoteToContractQuery, map[string]any{"address": address}, "changed")
	if err != nil {
		return fmt.Errorf("change account %s role: %w", address, err)
	}
	if changed == 0 {
		return fmt.Errorf("change account %s role: %w", address, model.ErrEndpointMissing)
	}
	return nil
}
