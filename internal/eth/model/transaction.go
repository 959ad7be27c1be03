package model

import "math/big"

// Transaction represents a ledger transaction. To is empty for contract creations.
type Transaction struct {
	Hash             string
	BlockNumber      uint64
	TransactionIndex uint64
	From             string
	To               string
	Value            *big.Int
	Gas              uint64
	GasPrice         *big.Int
	Input            string
}

// IsContractCreation reports whether the transaction deploys a contract.
func (t Transaction) IsContractCreation() bool {
	return t.To == ""
}

// WithReceiver returns a copy of the transaction addressed to the given account.
func (t Transaction) WithReceiver(address string) Transaction {
	t.To = address
	return t
}

// Receipt carries the execution result fields the ingester needs.
type Receipt struct {
	TxHash          string
	ContractAddress string
}
