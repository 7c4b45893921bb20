package chain

import "github.com/SylverbladeX/ValoriumX-Simulator/src/crypto"

// State is the persistable part of a Ledger: chain, balances and pending
// transactions.
type State struct {
	Chain    []*Block
	Balances map[string]float64
	Pending  []*Transaction
	Supply   float64
}

// Marshal encodes the state as canonical JSON.
func (s *State) Marshal() ([]byte, error) {
	return crypto.CanonicalMarshal(s)
}

// Unmarshal decodes a state encoded with Marshal.
func (s *State) Unmarshal(data []byte) error {
	return crypto.CanonicalUnmarshal(data, s)
}
