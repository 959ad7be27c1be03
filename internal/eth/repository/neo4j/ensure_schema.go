package neo4j

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var schemaStatements = []string{
	`CREATE CONSTRAINT account_address_unique IF NOT EXISTS FOR (a:Account) REQUIRE a.address IS UNIQUE`,
	`CREATE CONSTRAINT block_number_unique IF NOT EXISTS FOR (b:Block) REQUIRE b.number IS UNIQUE`,
}

// EnsureSchema creates the uniqueness constraints on Account.address and Block.number.
// Every statement is attempted; failures are joined.
func (r *Repository) EnsureSchema(ctx context.Context) (err error) {
	started := time.Now()
	defer func() {
		r.metrics.Observe("ensure_schema", err, started)
	}()

	s := r.openSession(ctx, neo4j.AccessModeWrite)
	defer func() {
		if closeErr := s.Close(ctx); closeErr != nil && err == nil {
			err = fmt.Errorf("close session: %w", closeErr)
		}
	}()

	var errs []error
	for _, statement := range schemaStatements {
		res, runErr := s.Run(ctx, statement, nil)
		if runErr == nil {
			for res.Next(ctx) {
			}
			runErr = res.Err()
		}
		if runErr != nil {
			errs = append(errs, fmt.Errorf("create constraint: %w", runErr))
		}
	}
	return errors.Join(errs...)
}
