package ingester

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodnatureofminers/blockgraph/internal/eth/model"
)

var errNoContractAddress = errors.New("receipt has no contract address")

// resolution is what a transaction needs before its edge can be created.
type resolution struct {
	// tx is the transaction with its receiver resolved. Contract creations point at the deployed address.
	tx       model.Transaction
	accounts []model.AccountRequest
	// promote names an existing account that turned out to be the deployed contract.
	promote string
}

type accountResolver struct {
	receipts ReceiptSource
}

// Resolve classifies the sender and receiver of tx. The input transaction is never modified.
func (r *accountResolver) Resolve(ctx context.Context, cache *existenceCache, tx model.Transaction) (resolution, error) {
	res := resolution{tx: tx}

	if tx.IsContractCreation() {
		receipt, err := r.receipts.TransactionReceipt(ctx, tx.Hash)
		if err != nil {
			return resolution{}, fmt.Errorf("contract creation %s: %w", tx.Hash, err)
		}
		if receipt.ContractAddress == "" {
			return resolution{}, fmt.Errorf("contract creation %s: %w", tx.Hash, errNoContractAddress)
		}
		res.tx = tx.WithReceiver(receipt.ContractAddress)

		exists, err := cache.Exists(ctx, receipt.ContractAddress)
		if err != nil {
			return resolution{}, err
		}
		if exists {
			res.promote = receipt.ContractAddress
		} else {
			res.accounts = append(res.accounts, model.AccountRequest{Address: receipt.ContractAddress, Role: model.Contract})
		}
	}

	exists, err := cache.Exists(ctx, tx.From)
	if err != nil {
		return resolution{}, err
	}
	if !exists {
		res.accounts = append(res.accounts, model.AccountRequest{Address: tx.From, Role: model.External})
	}

	if !tx.IsContractCreation() {
		exists, err = cache.Exists(ctx, tx.To)
		if err != nil {
			return resolution{}, err
		}
		if !exists {
			res.accounts = append(res.accounts, model.AccountRequest{Address: tx.To, Role: model.External})
		}
	}

	return res, nil
}
