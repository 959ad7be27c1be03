// Package ethereum reads blocks and receipts from an Ethereum JSON-RPC node.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/goodnatureofminers/blockgraph/internal/eth/model"
	"go.uber.org/ratelimit"
)

// Client is a rate limited, instrumented ledger client.
type Client struct {
	eth     EthClient
	raw     RawCaller
	limiter ratelimit.Limiter
	metrics RPCMetrics
}

// NewClient wires the typed and raw RPC clients.
func NewClient(eth EthClient, raw RawCaller, limiter ratelimit.Limiter, metrics RPCMetrics) (*Client, error) {
	if eth == nil || raw == nil {
		return nil, errors.New("ethereum rpc client is required")
	}
	if metrics == nil {
		return nil, errors.New("rpc metrics is required")
	}
	if limiter == nil {
		limiter = ratelimit.NewUnlimited()
	}

	return &Client{
		eth:     eth,
		raw:     raw,
		limiter: limiter,
		metrics: metrics,
	}, nil
}

// LatestHeight returns the number of the node's head block.
func (c *Client) LatestHeight(ctx context.Context) (height uint64, err error) {
	c.limiter.Take()
	started := time.Now()
	defer func() {
		c.metrics.Observe("block_number", err, started)
	}()

	height, err = c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: block number: %v", model.ErrLedgerUnavailable, err)
	}
	return height, nil
}

// FetchBlock loads a block with its transactions and the senders reported by the node.
func (c *Client) FetchBlock(ctx context.Context, number uint64) (model.Block, error) {
	block, err := c.blockByNumber(ctx, number)
	if err != nil {
		return model.Block{}, err
	}
	td, err := c.totalDifficulty(ctx, number)
	if err != nil {
		return model.Block{}, err
	}

	hash := block.Hash()
	return BuildBlock(block, td, func(tx *types.Transaction, index uint) (common.Address, error) {
		return c.transactionSender(ctx, tx, hash, index)
	})
}

// transactionSender returns the sender the node attached to the block's transaction.
// ethclient caches it while decoding the block, so no request is made for blocks loaded by number.
// Pre-Homestead transactions may carry high-S signatures that only Frontier rules accept.
func (c *Client) transactionSender(ctx context.Context, tx *types.Transaction, block common.Hash, index uint) (from common.Address, err error) {
	started := time.Now()
	defer func() {
		c.metrics.Observe("transaction_sender", err, started)
	}()

	from, err = c.eth.TransactionSender(ctx, tx, block, index)
	if err != nil {
		return common.Address{}, fmt.Errorf("tx %s sender: %w", tx.Hash().Hex(), err)
	}
	return from, nil
}

func (c *Client) blockByNumber(ctx context.Context, number uint64) (block *types.Block, err error) {
	c.limiter.Take()
	started := time.Now()
	defer func() {
		c.metrics.Observe("get_block_by_number", err, started)
	}()

	block, err = c.eth.BlockByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return nil, fmt.Errorf("get block %d: %w", number, err)
	}
	return block, nil
}

// totalDifficulty is absent from ethclient's header type, so it is read from the raw block.
// Nodes that dropped the field yield nil.
func (c *Client) totalDifficulty(ctx context.Context, number uint64) (td *big.Int, err error) {
	c.limiter.Take()
	started := time.Now()
	defer func() {
		c.metrics.Observe("get_total_difficulty", err, started)
	}()

	var head *struct {
		TotalDifficulty *hexutil.Big `json:"totalDifficulty"`
	}
	if err = c.raw.CallContext(ctx, &head, "eth_getBlockByNumber", hexutil.EncodeUint64(number), false); err != nil {
		return nil, fmt.Errorf("get block %d total difficulty: %w", number, err)
	}
	if head == nil {
		return nil, fmt.Errorf("get block %d total difficulty: %w", number, goethereum.NotFound)
	}
	if head.TotalDifficulty == nil {
		return nil, nil
	}
	return head.TotalDifficulty.ToInt(), nil
}

// TransactionReceipt returns the execution receipt of a transaction.
func (c *Client) TransactionReceipt(ctx context.Context, hash string) (receipt model.Receipt, err error) {
	c.limiter.Take()
	started := time.Now()
	defer func() {
		c.metrics.Observe("get_transaction_receipt", err, started)
	}()

	r, err := c.eth.TransactionReceipt(ctx, common.HexToHash(hash))
	if errors.Is(err, goethereum.NotFound) {
		return model.Receipt{}, fmt.Errorf("receipt %s: %w", hash, err)
	}
	if err != nil {
		return model.Receipt{}, fmt.Errorf("%w: receipt %s: %v", model.ErrLedgerUnavailable, hash, err)
	}

	return BuildReceipt(r), nil
}

// Ping checks that the node answers.
func (c *Client) Ping(ctx context.Context) (err error) {
	c.limiter.Take()
	started := time.Now()
	defer func() {
		c.metrics.Observe("chain_id", err, started)
	}()

	if _, err = c.eth.ChainID(ctx); err != nil {
		return fmt.Errorf("%w: %v", model.ErrLedgerUnavailable, err)
	}
	return nil
}
