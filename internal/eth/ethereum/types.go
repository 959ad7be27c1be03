package ethereum

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// RPCMetrics records metrics for RPC calls.
	RPCMetrics interface {
		Observe(operation string, err error, started time.Time)
	}

	// EthClient is the subset of ethclient.Client the ledger client calls.
	EthClient interface {
		BlockNumber(ctx context.Context) (uint64, error)
		BlockByNumber(ctx context.Context, number *big.Int) (*types.Block, error)
		TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
		TransactionSender(ctx context.Context, tx *types.Transaction, block common.Hash, index uint) (common.Address, error)
		ChainID(ctx context.Context) (*big.Int, error)
	}

	// RawCaller issues JSON-RPC calls ethclient has no typed wrapper for.
	RawCaller interface {
		CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
	}
)
