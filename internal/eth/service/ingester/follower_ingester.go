package ingester

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/blockgraph/internal/clock"
	"github.com/goodnatureofminers/blockgraph/internal/eth/model"
	"github.com/goodnatureofminers/blockgraph/pkg/safe"
	"go.uber.org/zap"
)

// FollowerIngesterService imports ledger blocks in order as they appear, retrying a failed block until it commits.
type FollowerIngesterService struct {
	importer          BlockImporter
	source            LedgerSource
	metrics           FollowerIngesterMetrics
	health            HealthReporter
	logger            *zap.Logger
	sleep             func(context.Context, time.Duration) error
	idleSleepDuration time.Duration
	backoff           clock.Backoff

	next    uint64
	hasNext bool
	head    uint64
}

// NewFollowerIngesterService builds a FollowerIngesterService with dependencies.
func NewFollowerIngesterService(
	importer BlockImporter,
	source LedgerSource,
	metrics FollowerIngesterMetrics,
	health HealthReporter,
	logger *zap.Logger,
) (*FollowerIngesterService, error) {
	if importer == nil {
		return nil, errors.New("block importer is required")
	}
	if source == nil {
		return nil, errors.New("ledger source is required")
	}
	if metrics == nil {
		return nil, errors.New("follower ingester metrics is required")
	}
	if health == nil {
		return nil, errors.New("health reporter is required")
	}

	return &FollowerIngesterService{
		importer:          importer,
		source:            source,
		metrics:           metrics,
		health:            health,
		logger:            logger,
		sleep:             clock.SleepWithContext,
		idleSleepDuration: idleSleepDuration,
		backoff:           clock.Backoff{Initial: retryInitialDelay, Max: retryMaxDelay},
	}, nil
}

// Run imports blocks until the context is canceled or an import fails in a way retrying cannot fix.
func (s *FollowerIngesterService) Run(ctx context.Context) error {
	s.health.SetServing(true)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.run(ctx); err != nil {
			if model.IsFatal(err) {
				s.health.SetServing(false)
				s.logger.Error("import halted", zap.Uint64("block", s.next), zap.Error(err))
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d := s.backoff.Next()
			s.logger.Warn("import failed, retrying same block",
				zap.Uint64("block", s.next),
				zap.Int("attempt", s.backoff.Attempts()),
				zap.Duration("sleep", d),
				zap.Error(err),
			)
			if sleepErr := s.sleep(ctx, d); sleepErr != nil {
				return sleepErr
			}
		}
	}
}

func (s *FollowerIngesterService) run(ctx context.Context) error {
	if !s.hasNext {
		last, err := s.importer.LastImportedBlockNumber(ctx)
		if err != nil {
			return err
		}
		if last < -1 {
			return fmt.Errorf("invalid last imported block %d", last)
		}
		s.next = uint64(last + 1)
		s.hasNext = true
		s.logger.Info("resuming import", zap.Uint64("block", s.next))
	}

	if s.next > s.head {
		head, err := s.source.LatestHeight(ctx)
		if err != nil {
			return err
		}
		s.head = head
		if s.next > s.head {
			s.logger.Debug("caught up with ledger head; sleeping", zap.Uint64("head", head), zap.Duration("sleep", s.idleSleepDuration))
			return s.sleep(ctx, s.idleSleepDuration)
		}
	}

	started := time.Now()
	block, err := s.source.FetchBlock(ctx, s.next)
	s.metrics.ObserveFetchBlock(err, started)
	if err != nil {
		return fmt.Errorf("fetch block %d: %w", s.next, err)
	}

	imported, err := s.importer.ImportBlock(ctx, block)
	if err != nil {
		return err
	}

	s.backoff.Reset()
	s.next = imported.Number + 1
	if last, convErr := safe.Int64(imported.Number); convErr != nil {
		s.logger.Warn("last imported block exceeds gauge range", zap.Uint64("block", imported.Number), zap.Error(convErr))
	} else {
		s.metrics.SetLastImported(last)
	}

	fields := []zap.Field{
		zap.Uint64("block", imported.Number),
		zap.Int("transactions", imported.Transactions),
		zap.Int("created_accounts", imported.CreatedAccounts),
		zap.Int("role_changes", imported.RoleChanges),
	}
	if imported.Number%progressLogInterval == 0 {
		s.logger.Info("block committed", fields...)
	} else {
		s.logger.Debug("block committed", fields...)
	}
	return nil
}
