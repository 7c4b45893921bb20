package chain

import (
	"fmt"
	"sync"
)

// InmemStore keeps the serialized state in memory. It is used when
// persistence is disabled, and in tests.
type InmemStore struct {
	sync.Mutex

	state []byte
}

// NewInmemStore ...
func NewInmemStore() *InmemStore {
	return &InmemStore{}
}

// SaveState implements Store. The state is serialized so that loading always
// returns an independent copy.
func (s *InmemStore) SaveState(state *State) error {
	data, err := state.Marshal()
	if err != nil {
		return err
	}

	s.Lock()
	defer s.Unlock()
	s.state = data

	return nil
}

// LoadState implements Store.
func (s *InmemStore) LoadState() (*State, error) {
	s.Lock()
	defer s.Unlock()

	if s.state == nil {
		return nil, fmt.Errorf("no state saved")
	}

	state := new(State)
	if err := state.Unmarshal(s.state); err != nil {
		return nil, err
	}

	return state, nil
}

// Close implements Store.
func (s *InmemStore) Close() error {
	return nil
}
