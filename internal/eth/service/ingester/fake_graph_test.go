package ingester

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goodnatureofminers/blockgraph/internal/eth/graph"
	"github.com/goodnatureofminers/blockgraph/internal/eth/model"
)

var errConstraint = errors.New("constraint violation")

type graphState struct {
	blocks       map[uint64]model.Block
	accounts     map[string][]model.Role
	chain        map[uint64]uint64
	mined        map[uint64]string
	transactions []model.Transaction
}

func newGraphState() graphState {
	return graphState{
		blocks:   make(map[uint64]model.Block),
		accounts: make(map[string][]model.Role),
		chain:    make(map[uint64]uint64),
		mined:    make(map[uint64]string),
	}
}

func (s graphState) clone() graphState {
	c := newGraphState()
	for k, v := range s.blocks {
		c.blocks[k] = v
	}
	for k, v := range s.accounts {
		c.accounts[k] = append([]model.Role(nil), v...)
	}
	for k, v := range s.chain {
		c.chain[k] = v
	}
	for k, v := range s.mined {
		c.mined[k] = v
	}
	c.transactions = append([]model.Transaction(nil), s.transactions...)
	return c
}

// fakeGraph is an in-memory graph store with snapshot transactions.
type fakeGraph struct {
	mu        sync.Mutex
	state     graphState
	counts    map[string]int
	commits   int
	rollbacks int
	schema    int
	schemaErr error
	failEdge  string
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{state: newGraphState(), counts: make(map[string]int)}
}

func (g *fakeGraph) seedAccount(address string, roles ...model.Role) {
	g.state.accounts[address] = append(g.state.accounts[address], roles...)
}

func (g *fakeGraph) BeginBlock(context.Context) (graph.Tx, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &fakeTx{graph: g, state: g.state.clone()}, nil
}

func (g *fakeGraph) LastBlockNumber(context.Context) (uint64, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var (
		last  uint64
		found bool
	)
	for n := range g.state.blocks {
		if !found || n > last {
			last, found = n, true
		}
	}
	return last, found, nil
}

func (g *fakeGraph) EnsureSchema(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.schema++
	return g.schemaErr
}

func (g *fakeGraph) snapshot() graphState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.clone()
}

func (g *fakeGraph) countQueries(address string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counts[address]
}

type fakeTx struct {
	graph    *fakeGraph
	mu       sync.Mutex
	state    graphState
	finished bool
}

func (t *fakeTx) CountAccounts(_ context.Context, address string) (int64, error) {
	t.graph.mu.Lock()
	t.graph.counts[address]++
	t.graph.mu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	return int64(len(t.state.accounts[address])), nil
}

func (t *fakeTx) CreateBlock(_ context.Context, block model.Block) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.state.blocks[block.Number]; ok {
		return fmt.Errorf("block %d: %w", block.Number, model.ErrDuplicateBlock)
	}
	t.state.blocks[block.Number] = block
	return nil
}

func (t *fakeTx) CreateAccounts(_ context.Context, accounts []model.AccountRequest) error {
	if len(accounts) > model.MaxAccountsPerStatement {
		return model.ErrTooManyAccounts
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, a := range accounts {
		if len(t.state.accounts[a.Address]) > 0 {
			return fmt.Errorf("account %s: %w", a.Address, errConstraint)
		}
	}
	for _, a := range accounts {
		t.state.accounts[a.Address] = []model.Role{a.Role}
	}
	return nil
}

func (t *fakeTx) ChangeAccountRole(_ context.Context, address string, from, to model.Role) error {
	if from != model.External || to != model.Contract {
		return model.ErrUnsupportedRoleChange
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.state.accounts[address]) == 0 {
		return model.ErrEndpointMissing
	}
	t.state.accounts[address] = []model.Role{model.Contract}
	return nil
}

func (t *fakeTx) CreateChainEdge(_ context.Context, prevNumber, number uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, prevOK := t.state.blocks[prevNumber]
	_, nextOK := t.state.blocks[number]
	if !prevOK || !nextOK {
		return model.ErrEndpointMissing
	}
	t.state.chain[number] = prevNumber
	return nil
}

func (t *fakeTx) CreateMinedEdge(_ context.Context, miner string, number uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.state.blocks[number]; !ok || len(t.state.accounts[miner]) == 0 {
		return model.ErrEndpointMissing
	}
	t.state.mined[number] = miner
	return nil
}

func (t *fakeTx) CreateTransactionEdge(_ context.Context, tx model.Transaction) error {
	if tx.Hash == t.graph.failEdge {
		return fmt.Errorf("transaction edge %s: statement failed", tx.Hash)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.state.accounts[tx.From]) == 0 || len(t.state.accounts[tx.To]) == 0 {
		return model.ErrEndpointMissing
	}
	t.state.transactions = append(t.state.transactions, tx)
	return nil
}

func (t *fakeTx) Commit(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return errors.New("finished")
	}
	t.finished = true

	t.graph.mu.Lock()
	defer t.graph.mu.Unlock()
	t.graph.state = t.state
	t.graph.commits++
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return nil
	}
	t.finished = true

	t.graph.mu.Lock()
	defer t.graph.mu.Unlock()
	t.graph.rollbacks++
	return nil
}
