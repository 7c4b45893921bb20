package chain

import (
	"github.com/dgraph-io/badger"
)

// stateKey is the single key under which the ledger state is persisted.
var stateKey = []byte("state")

// BadgerStore persists the ledger state in a badger database. The whole state
// is written as one canonical-JSON blob; the chain is small enough that
// per-block keys would buy nothing.
type BadgerStore struct {
	db   *badger.DB
	path string
}

// NewBadgerStore opens the database at path, creating it if needed.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithSyncWrites(false).
		WithLogger(nil)

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &BadgerStore{
		db:   handle,
		path: path,
	}, nil
}

// Path returns the database directory.
func (s *BadgerStore) Path() string {
	return s.path
}

// SaveState implements Store.
func (s *BadgerStore) SaveState(state *State) error {
	data, err := state.Marshal()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(stateKey, data)
	})
}

// LoadState implements Store. It returns an error when the database holds no
// state or the stored blob does not decode; callers fall back to a fresh
// genesis chain.
func (s *BadgerStore) LoadState() (*State, error) {
	var data []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(stateKey)
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	state := new(State)
	if err := state.Unmarshal(data); err != nil {
		return nil, err
	}

	return state, nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
