package chain

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Ledger owns the First Helix and the account state derived from it: the
// block chain, the balances, and the buffer of pending transactions. It is
// the single writer for all three; the consensus protocol holds the only
// reference and nodes never touch it directly.
type Ledger struct {
	sync.RWMutex

	chain    []*Block
	balances map[string]float64
	pending  []*Transaction
	supply   float64

	logger *logrus.Entry
}

// NewLedger creates a ledger with a fresh genesis chain.
func NewLedger(logger *logrus.Entry) *Ledger {
	return &Ledger{
		chain:    []*Block{NewGenesisBlock()},
		balances: make(map[string]float64),
		logger:   logger,
	}
}

// NewLedgerFromState restores a ledger from a persisted state. The restored
// chain is verified before it is accepted; a tampered or corrupt state is
// rejected so the caller can fall back to a fresh genesis chain.
func NewLedgerFromState(state *State, logger *logrus.Entry) (*Ledger, error) {
	if len(state.Chain) == 0 {
		return nil, fmt.Errorf("state contains no blocks")
	}

	ledger := &Ledger{
		chain:    state.Chain,
		balances: state.Balances,
		pending:  state.Pending,
		supply:   state.Supply,
		logger:   logger,
	}
	if ledger.balances == nil {
		ledger.balances = make(map[string]float64)
	}

	if err := ledger.Verify(); err != nil {
		return nil, err
	}

	return ledger, nil
}

// LastBlock returns the chain tail.
func (l *Ledger) LastBlock() *Block {
	l.RLock()
	defer l.RUnlock()
	return l.chain[len(l.chain)-1]
}

// ChainLength returns the number of blocks, genesis included.
func (l *Ledger) ChainLength() int {
	l.RLock()
	defer l.RUnlock()
	return len(l.chain)
}

// GetBlock returns the block at the given index.
func (l *Ledger) GetBlock(index int) (*Block, error) {
	l.RLock()
	defer l.RUnlock()

	if index < 0 || index >= len(l.chain) {
		return nil, fmt.Errorf("no block at index %d", index)
	}
	return l.chain[index], nil
}

// Balance returns the current balance of an address. Unknown addresses have
// balance 0; accounts are created implicitly on first credit.
func (l *Ledger) Balance(address string) float64 {
	l.RLock()
	defer l.RUnlock()
	return l.balances[address]
}

// Balances returns a copy of all balances.
func (l *Ledger) Balances() map[string]float64 {
	l.RLock()
	defer l.RUnlock()

	res := make(map[string]float64, len(l.balances))
	for a, b := range l.balances {
		res[a] = b
	}
	return res
}

// Credit adds amount to an address outside of block settlement. It is used
// for round rewards and slashed-stake transfers to the treasury.
func (l *Ledger) Credit(address string, amount float64) {
	l.Lock()
	defer l.Unlock()
	l.balances[address] += amount
}

// Mint credits freshly issued VQX to an address and adds it to the total
// supply. Round rewards settle through this path, immediately, instead of
// waiting for the next block.
func (l *Ledger) Mint(address string, amount float64) {
	l.Lock()
	defer l.Unlock()
	l.balances[address] += amount
	l.supply += amount
}

// SetBalance overwrites an address balance. Used when bootstrapping a fresh
// network.
func (l *Ledger) SetBalance(address string, amount float64) {
	l.Lock()
	defer l.Unlock()
	l.balances[address] = amount
}

// Supply returns the total issued supply.
func (l *Ledger) Supply() float64 {
	l.RLock()
	defer l.RUnlock()
	return l.supply
}

// Anchors snapshots the coherence anchors for a consensus round. All proof
// derivations within a round must use the same snapshot.
func (l *Ledger) Anchors() *CoherenceAnchors {
	l.RLock()
	defer l.RUnlock()

	return &CoherenceAnchors{
		LastBlockHash: l.chain[len(l.chain)-1].BlockHash,
		Supply:        l.supply,
	}
}

// AddTransaction validates a transaction and appends it to the pending
// buffer. The funds check accounts for debits already pending from the same
// sender, so two transactions cannot both spend the same balance. Issuance
// transactions bypass the funds check.
func (l *Ledger) AddTransaction(tx *Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	l.Lock()
	defer l.Unlock()

	if tx.Sender != IssuanceSender {
		available := l.balances[tx.Sender] - l.pendingDebit(tx.Sender)
		if available < tx.Amount {
			return fmt.Errorf("%w: %s has %f available, needs %f",
				ErrInsufficientFunds, tx.Sender, available, tx.Amount)
		}
	}

	l.pending = append(l.pending, tx)

	l.logger.WithFields(logrus.Fields{
		"sender":    tx.Sender,
		"recipient": tx.Recipient,
		"amount":    tx.Amount,
	}).Info("Transaction added to RNA buffer")

	return nil
}

// pendingDebit sums the outgoing amounts already buffered for a sender.
// Callers must hold the lock.
func (l *Ledger) pendingDebit(sender string) float64 {
	total := 0.0
	for _, tx := range l.pending {
		if tx.Sender == sender {
			total += tx.Amount
		}
	}
	return total
}

// PendingCount returns the number of buffered transactions.
func (l *Ledger) PendingCount() int {
	l.RLock()
	defer l.RUnlock()
	return len(l.pending)
}

// TakePending drains up to max transactions from the buffer, in arrival
// order. max <= 0 drains everything.
func (l *Ledger) TakePending(max int) []*Transaction {
	l.Lock()
	defer l.Unlock()

	n := len(l.pending)
	if max > 0 && max < n {
		n = max
	}

	taken := l.pending[:n]
	l.pending = l.pending[n:]

	return taken
}

// ReturnPending puts transactions back at the head of the buffer. It is used
// when a round aborts: the transactions are retried, not dropped.
func (l *Ledger) ReturnPending(transactions []*Transaction) {
	l.Lock()
	defer l.Unlock()
	l.pending = append(transactions, l.pending...)
}

// Commit appends a sealed block to the chain and settles its transactions.
// Balances are only ever applied after the block is appended, never
// speculatively, so an aborted round leaves balances untouched.
func (l *Ledger) Commit(block *Block) error {
	l.Lock()
	defer l.Unlock()

	tail := l.chain[len(l.chain)-1]

	// The protocol already checked the linkage; re-check defensively.
	if block.PreviousHash != tail.BlockHash {
		return fmt.Errorf("block %d does not extend the chain tail: previous hash %s, tail hash %s",
			block.Index, block.PreviousHash, tail.BlockHash)
	}
	if block.Index != len(l.chain) {
		return fmt.Errorf("block index %d out of sequence, want %d", block.Index, len(l.chain))
	}
	if block.BlockHash != block.ComputeHash() {
		return fmt.Errorf("block %d hash does not match its content", block.Index)
	}

	l.chain = append(l.chain, block)

	l.applyBalances(block.Transactions)

	l.logger.WithFields(logrus.Fields{
		"index": block.Index,
		"hash":  block.BlockHash,
		"txs":   len(block.Transactions),
	}).Info("Block welded to the First Helix")

	return nil
}

// applyBalances settles a committed block's transactions. Callers must hold
// the lock.
func (l *Ledger) applyBalances(transactions []*Transaction) {
	for _, tx := range transactions {
		if tx.Sender != IssuanceSender {
			l.balances[tx.Sender] -= tx.Amount
		} else {
			l.supply += tx.Amount
		}
		l.balances[tx.Recipient] += tx.Amount
	}
}

// Verify recomputes every block hash and checks the previous-hash linkage for
// the entire chain. It returns an IntegrityError identifying the first broken
// block, or nil. O(n) in chain length; intended for audits, not the per-block
// hot path.
func (l *Ledger) Verify() error {
	l.RLock()
	defer l.RUnlock()

	for i, block := range l.chain {
		if block.BlockHash != block.ComputeHash() {
			return &IntegrityError{Index: i, Reason: "block hash does not match content"}
		}
		if i == 0 {
			continue
		}
		if block.PreviousHash != l.chain[i-1].BlockHash {
			return &IntegrityError{Index: i, Reason: "previous-hash link broken"}
		}
	}

	return nil
}

// Snapshot captures the ledger state for persistence.
func (l *Ledger) Snapshot() *State {
	l.RLock()
	defer l.RUnlock()

	balances := make(map[string]float64, len(l.balances))
	for a, b := range l.balances {
		balances[a] = b
	}

	chain := make([]*Block, len(l.chain))
	copy(chain, l.chain)

	pending := make([]*Transaction, len(l.pending))
	copy(pending, l.pending)

	return &State{
		Chain:    chain,
		Balances: balances,
		Pending:  pending,
		Supply:   l.supply,
	}
}
