// Package ingester imports Ethereum blocks into the account graph one block transaction at a time.
package ingester

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goodnatureofminers/blockgraph/internal/eth/graph"
	"github.com/goodnatureofminers/blockgraph/internal/eth/model"
	"github.com/goodnatureofminers/blockgraph/pkg/safe"
	"github.com/goodnatureofminers/blockgraph/pkg/workerpool"
	"go.uber.org/zap"
)

type importState string

const (
	stateIdle                      importState = "idle"
	stateSchemaCheck               importState = "schema_check"
	stateLinkingChain              importState = "linking_chain"
	stateResolvingAccounts         importState = "resolving_accounts"
	stateMaterializingTransactions importState = "materializing_transactions"
	stateDeciding                  importState = "deciding"
	stateCommitted                 importState = "committed"
	stateRolledBack                importState = "rolled_back"
)

// BlockImporterService writes one block per graph transaction.
// Calls to ImportBlock must not overlap; the caller imports blocks in order.
type BlockImporterService struct {
	store        GraphStore
	receipts     ReceiptSource
	metrics      ImporterMetrics
	logger       *zap.Logger
	startHeight  uint64
	workerCount  int
	linker       *chainLinker
	resolver     *accountResolver
	materializer *transactionMaterializer

	schema sync.WaitGroup
}

// NewBlockImporterService builds the importer. startHeight is the first block number the graph holds.
func NewBlockImporterService(
	store GraphStore,
	receipts ReceiptSource,
	metrics ImporterMetrics,
	startHeight uint64,
	logger *zap.Logger,
) (*BlockImporterService, error) {
	if store == nil {
		return nil, errors.New("graph store is required")
	}
	if receipts == nil {
		return nil, errors.New("receipt source is required")
	}
	if metrics == nil {
		return nil, errors.New("block importer metrics is required")
	}

	return &BlockImporterService{
		store:        store,
		receipts:     receipts,
		metrics:      metrics,
		logger:       logger,
		startHeight:  startHeight,
		workerCount:  defaultWorkerCount,
		linker:       &chainLinker{startHeight: startHeight},
		resolver:     &accountResolver{receipts: receipts},
		materializer: &transactionMaterializer{workerCount: defaultWorkerCount},
	}, nil
}

// LastImportedBlockNumber returns the highest committed block, or startHeight-1 for an empty graph.
func (s *BlockImporterService) LastImportedBlockNumber(ctx context.Context) (int64, error) {
	number, found, err := s.store.LastBlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("last imported block: %w", err)
	}
	if !found {
		start, err := safe.Int64(s.startHeight)
		if err != nil {
			return 0, fmt.Errorf("start height: %w", err)
		}
		return start - 1, nil
	}
	return safe.Int64(number)
}

// ImportBlock writes block, its accounts and its transactions in one graph transaction.
// Either everything is committed or nothing is; the first failure is returned.
func (s *BlockImporterService) ImportBlock(ctx context.Context, block model.Block) (imported model.ImportedBlock, err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveImportBlock(err, len(block.Transactions), started)
	}()

	logger := s.logger.With(zap.Uint64("block", block.Number))
	s.enter(logger, stateIdle)

	if block.Number == s.startHeight {
		s.enter(logger, stateSchemaCheck)
		s.ensureSchema(ctx, logger)
	}

	tx, err := s.store.BeginBlock(ctx)
	if err != nil {
		return model.ImportedBlock{}, fmt.Errorf("import block %d: begin: %w", block.Number, err)
	}

	imported, err = s.importBlock(ctx, logger, tx, block)

	s.enter(logger, stateDeciding)
	if err != nil {
		s.rollback(ctx, logger, tx)
		return model.ImportedBlock{}, fmt.Errorf("import block %d: %w", block.Number, err)
	}
	if err = tx.Commit(ctx); err != nil {
		s.rollback(ctx, logger, tx)
		return model.ImportedBlock{}, fmt.Errorf("import block %d: %w", block.Number, err)
	}
	s.enter(logger, stateCommitted)

	return imported, nil
}

// Wait blocks until background schema checks finish.
func (s *BlockImporterService) Wait() {
	s.schema.Wait()
}

func (s *BlockImporterService) importBlock(ctx context.Context, logger *zap.Logger, tx graph.Tx, block model.Block) (model.ImportedBlock, error) {
	cache := newExistenceCache(tx, s.metrics)
	imported := model.ImportedBlock{
		Number:       block.Number,
		Hash:         block.Hash,
		Transactions: len(block.Transactions),
	}

	s.enter(logger, stateLinkingChain)
	createdMiner, err := s.linker.Link(ctx, tx, cache, block)
	if err != nil {
		return model.ImportedBlock{}, fmt.Errorf("link chain: %w", err)
	}
	if createdMiner {
		imported.CreatedAccounts++
	}

	if len(block.Transactions) == 0 {
		return imported, nil
	}

	s.enter(logger, stateResolvingAccounts)
	resolved, stats, err := s.resolveAccounts(ctx, tx, cache, block.Transactions)
	if err != nil {
		return model.ImportedBlock{}, fmt.Errorf("resolve accounts: %w", err)
	}
	imported.CreatedAccounts += stats.created
	imported.RoleChanges = stats.roleChanges

	s.enter(logger, stateMaterializingTransactions)
	if err = s.materializer.Materialize(ctx, tx, resolved); err != nil {
		return model.ImportedBlock{}, fmt.Errorf("materialize transactions: %w", err)
	}

	return imported, nil
}

type resolveStats struct {
	created     int
	roleChanges int
}

// resolveAccounts creates missing accounts for every transaction, contract creations first,
// and returns the transactions with their receivers resolved, in block order.
func (s *BlockImporterService) resolveAccounts(
	ctx context.Context,
	tx graph.Tx,
	cache *existenceCache,
	txs []model.Transaction,
) ([]model.Transaction, resolveStats, error) {
	var creations, others []int
	for i, t := range txs {
		if t.IsContractCreation() {
			creations = append(creations, i)
		} else {
			others = append(others, i)
		}
	}

	if len(creations) > 0 {
		if err := s.receipts.Ping(ctx); err != nil {
			return nil, resolveStats{}, err
		}
	}

	var stats resolveStats
	resolved := make([]model.Transaction, len(txs))
	for _, phase := range [][]int{creations, others} {
		if len(phase) == 0 {
			continue
		}
		if err := s.resolvePhase(ctx, tx, cache, txs, phase, resolved, &stats); err != nil {
			return nil, resolveStats{}, err
		}
	}
	return resolved, stats, nil
}

// resolvePhase resolves the transactions at the given indexes concurrently, creates their accounts,
// and relabels promoted contracts once every creation of the phase is done.
func (s *BlockImporterService) resolvePhase(
	ctx context.Context,
	tx graph.Tx,
	cache *existenceCache,
	txs []model.Transaction,
	phase []int,
	resolved []model.Transaction,
	stats *resolveStats,
) error {
	created := make([]int, len(phase))
	promotions := make([]string, len(phase))

	err := workerpool.Process(ctx, s.workerCount, phase, func(ctx context.Context, i int, idx int) error {
		res, err := s.resolver.Resolve(ctx, cache, txs[idx])
		if err != nil {
			return err
		}
		if err = tx.CreateAccounts(ctx, res.accounts); err != nil {
			return err
		}
		resolved[idx] = res.tx
		created[i] = len(res.accounts)
		promotions[i] = res.promote
		return nil
	})
	if err != nil {
		return err
	}

	for i, address := range promotions {
		stats.created += created[i]
		if address == "" {
			continue
		}
		if err = tx.ChangeAccountRole(ctx, address, model.External, model.Contract); err != nil {
			return err
		}
		s.metrics.ObserveRoleChange()
		stats.roleChanges++
	}
	return nil
}

func (s *BlockImporterService) ensureSchema(ctx context.Context, logger *zap.Logger) {
	s.schema.Add(1)
	go func() {
		defer s.schema.Done()
		if err := s.store.EnsureSchema(ctx); err != nil {
			logger.Warn("ensure schema failed", zap.Error(err))
			return
		}
		logger.Debug("schema constraints in place")
	}()
}

func (s *BlockImporterService) rollback(ctx context.Context, logger *zap.Logger, tx graph.Tx) {
	// Rollback must reach the store even when ctx is already canceled.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if err := tx.Rollback(ctx); err != nil {
		logger.Error("rollback failed", zap.Error(err))
	}
	s.enter(logger, stateRolledBack)
}

func (s *BlockImporterService) enter(logger *zap.Logger, state importState) {
	logger.Debug("block import state", zap.String("state", string(state)))
}
