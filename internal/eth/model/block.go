// Package model defines domain models for Ethereum graph ingestion.
package model

import "math/big"

// Block represents a ledger block together with its transactions.
type Block struct {
	Number          uint64
	Hash            string
	Difficulty      *big.Int
	ExtraData       string
	GasLimit        uint64
	GasUsed         uint64
	Miner           string
	Size            uint64
	Timestamp       uint64
	TotalDifficulty *big.Int
	Transactions    []Transaction
}

// ImportedBlock is the persisted outcome of a committed block import.
type ImportedBlock struct {
	Number          uint64
	Hash            string
	Transactions    int
	CreatedAccounts int
	RoleChanges     int
}
