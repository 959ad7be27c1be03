package ingester

import (
	"context"
	"time"

	"github.com/goodnatureofminers/blockgraph/internal/eth/graph"
	"github.com/goodnatureofminers/blockgraph/internal/eth/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	GraphStore interface {
		BeginBlock(ctx context.Context) (graph.Tx, error)
		LastBlockNumber(ctx context.Context) (uint64, bool, error)
		EnsureSchema(ctx context.Context) error
	}
	LedgerSource interface {
		LatestHeight(ctx context.Context) (uint64, error)
		FetchBlock(ctx context.Context, number uint64) (model.Block, error)
	}
	ReceiptSource interface {
		TransactionReceipt(ctx context.Context, hash string) (model.Receipt, error)
		Ping(ctx context.Context) error
	}
	BlockImporter interface {
		LastImportedBlockNumber(ctx context.Context) (int64, error)
		ImportBlock(ctx context.Context, block model.Block) (model.ImportedBlock, error)
	}
	HealthReporter interface {
		SetServing(serving bool)
	}

	ImporterMetrics interface {
		ObserveImportBlock(err error, transactions int, started time.Time)
		ObserveExistenceLookup(cached bool)
		ObserveRoleChange()
	}
	FollowerIngesterMetrics interface {
		ObserveFetchBlock(err error, started time.Time)
		SetLastImported(number int64)
	}
)
