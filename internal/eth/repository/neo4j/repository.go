// Package neo4j stores ingested blocks, accounts and transactions in a Neo4j property graph.
package neo4j

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const constraintViolationCode = "Neo.ClientError.Schema.ConstraintValidationFailed"

var errNoRecord = errors.New("statement returned no record")

// Repository opens block transactions and answers progress queries against one Neo4j database.
// The driver is owned by the caller.
type Repository struct {
	openSession func(ctx context.Context, mode neo4j.AccessMode) session
	metrics     Metrics
}

// NewRepository wraps a driver handle for the named database. An empty database selects the server default.
func NewRepository(driver neo4j.DriverWithContext, database string, metrics Metrics) (*Repository, error) {
	if driver == nil {
		return nil, errors.New("neo4j driver is required")
	}
	if metrics == nil {
		return nil, errors.New("neo4j repository metrics is required")
	}

	return &Repository{
		openSession: func(ctx context.Context, mode neo4j.AccessMode) session {
			return driverSession{session: driver.NewSession(ctx, neo4j.SessionConfig{
				AccessMode:   mode,
				DatabaseName: database,
			})}
		},
		metrics: metrics,
	}, nil
}

// singleInt reads one integer column from the first record of a result. A null value reads as zero.
func singleInt(ctx context.Context, res result, key string) (value int64, isNil bool, err error) {
	if !res.Next(ctx) {
		if err = res.Err(); err != nil {
			return 0, false, err
		}
		return 0, false, errNoRecord
	}

	value, isNil, err = neo4j.GetRecordValue[int64](res.Record(), key)
	if err != nil {
		return 0, false, fmt.Errorf("read %s: %w", key, err)
	}
	if err = res.Err(); err != nil {
		return 0, false, err
	}
	return value, isNil, nil
}

func isConstraintViolation(err error) bool {
	var neoErr *neo4j.Neo4jError
	return errors.As(err, &neoErr) && neoErr.Code == constraintViolationCode
}
