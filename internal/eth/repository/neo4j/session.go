package neo4j

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Metrics records repository operation outcomes.
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}

	result interface {
		Next(ctx context.Context) bool
		Record() *neo4j.Record
		Err() error
	}
	runner interface {
		Run(ctx context.Context, cypher string, params map[string]any) (result, error)
	}
	transaction interface {
		runner
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}
	session interface {
		runner
		BeginTransaction(ctx context.Context) (transaction, error)
		Close(ctx context.Context) error
	}
)

type driverSession struct {
	session neo4j.SessionWithContext
}

func (s driverSession) Run(ctx context.Context, cypher string, params map[string]any) (result, error) {
	return s.session.Run(ctx, cypher, params)
}

func (s driverSession) BeginTransaction(ctx context.Context) (transaction, error) {
	tx, err := s.session.BeginTransaction(ctx)
	if err != nil {
		return nil, err
	}
	return explicitTransaction{tx: tx}, nil
}

func (s driverSession) Close(ctx context.Context) error {
	return s.session.Close(ctx)
}

type explicitTransaction struct {
	tx neo4j.ExplicitTransaction
}

func (t explicitTransaction) Run(ctx context.Context, cypher string, params map[string]any) (result, error) {
	return t.tx.Run(ctx, cypher, params)
}

func (t explicitTransaction) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t explicitTransaction) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
