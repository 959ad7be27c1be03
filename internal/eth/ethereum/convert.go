package ethereum

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goodnatureofminers/blockgraph/internal/eth/model"
)

// SenderFunc returns the sender of the transaction at index within the block being converted.
type SenderFunc func(tx *types.Transaction, index uint) (common.Address, error)

// BuildBlock maps a go-ethereum block into a model.Block. Senders come from sender.
func BuildBlock(src *types.Block, totalDifficulty *big.Int, sender SenderFunc) (model.Block, error) {
	if src == nil {
		return model.Block{}, fmt.Errorf("nil block")
	}

	block := model.Block{
		Number:          src.NumberU64(),
		Hash:            src.Hash().Hex(),
		Difficulty:      src.Difficulty(),
		ExtraData:       hexutil.Encode(src.Extra()),
		GasLimit:        src.GasLimit(),
		GasUsed:         src.GasUsed(),
		Miner:           src.Coinbase().Hex(),
		Size:            src.Size(),
		Timestamp:       src.Time(),
		TotalDifficulty: totalDifficulty,
		Transactions:    make([]model.Transaction, 0, len(src.Transactions())),
	}

	for i, tx := range src.Transactions() {
		from, err := sender(tx, uint(i))
		if err != nil {
			return model.Block{}, fmt.Errorf("block %d: %w", block.Number, err)
		}
		block.Transactions = append(block.Transactions, BuildTransaction(tx, block.Number, uint64(i), from))
	}
	return block, nil
}

// BuildTransaction maps a go-ethereum transaction. A contract creation keeps an empty To.
func BuildTransaction(tx *types.Transaction, blockNumber, index uint64, from common.Address) model.Transaction {
	var to string
	if tx.To() != nil {
		to = tx.To().Hex()
	}

	return model.Transaction{
		Hash:             tx.Hash().Hex(),
		BlockNumber:      blockNumber,
		TransactionIndex: index,
		From:             from.Hex(),
		To:               to,
		Value:            tx.Value(),
		Gas:              tx.Gas(),
		GasPrice:         tx.GasPrice(),
		Input:            hexutil.Encode(tx.Data()),
	}
}

// BuildReceipt keeps the fields the importer needs. A receipt without a deployed contract has an empty ContractAddress.
func BuildReceipt(r *types.Receipt) model.Receipt {
	if r == nil {
		return model.Receipt{}
	}

	receipt := model.Receipt{TxHash: r.TxHash.Hex()}
	if r.ContractAddress != (common.Address{}) {
		receipt.ContractAddress = r.ContractAddress.Hex()
	}
	return receipt
}
