// Package graph defines the write surface shared by the block importer and graph store implementations.
package graph

import (
	"context"

	"github.com/goodnatureofminers/blockgraph/internal/eth/model"
)

// Tx is one block's store transaction. Statements never commit on their own; Commit or Rollback ends the unit.
// Implementations must be safe for concurrent use by the goroutines of one block.
type Tx interface {
	// CountAccounts returns how many Account nodes carry the address.
	CountAccounts(ctx context.Context, address string) (int64, error)
	// CreateBlock inserts the Block node. A taken number yields model.ErrDuplicateBlock.
	CreateBlock(ctx context.Context, block model.Block) error
	// CreateAccounts inserts up to model.MaxAccountsPerStatement Account nodes in one statement.
	CreateAccounts(ctx context.Context, accounts []model.AccountRequest) error
	// ChangeAccountRole relabels an Account. Only External to Contract is supported.
	ChangeAccountRole(ctx context.Context, address string, from, to model.Role) error
	CreateChainEdge(ctx context.Context, prevNumber, number uint64) error
	CreateMinedEdge(ctx context.Context, miner string, number uint64) error
	CreateTransactionEdge(ctx context.Context, tx model.Transaction) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
