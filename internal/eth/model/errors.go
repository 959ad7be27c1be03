package model

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruption signals duplicate Account nodes for one address. Retrying cannot repair it.
	ErrCorruption = errors.New("graph corrupted")
	// ErrLedgerUnavailable signals that the ledger client cannot be reached.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	// ErrDuplicateBlock signals that a Block node with the same number already exists.
	ErrDuplicateBlock = errors.New("duplicate block")
	// ErrEndpointMissing signals that an edge endpoint node does not exist.
	ErrEndpointMissing = errors.New("edge endpoint missing")
	// ErrTooManyAccounts signals a creation call with more accounts than one statement accepts.
	ErrTooManyAccounts = errors.New("too many accounts in one creation call")
	// ErrUnsupportedRoleChange signals a role transition other than External to Contract.
	ErrUnsupportedRoleChange = errors.New("unsupported account role change")
)

// CorruptionError reports how many Account nodes share one address.
type CorruptionError struct {
	Address string
	Count   int64
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("%s: %d account nodes with address %s", ErrCorruption, e.Count, e.Address)
}

// Is matches ErrCorruption.
func (e *CorruptionError) Is(target error) bool {
	return target == ErrCorruption
}

// IsFatal reports whether retrying the same block cannot succeed.
func IsFatal(err error) bool {
	return errors.Is(err, ErrCorruption) || errors.Is(err, ErrDuplicateBlock)
}
