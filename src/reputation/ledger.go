// Package reputation tracks the stake and reputation of every network
// participant and applies the protocol's punishments and rewards.
package reputation

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/node"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/stencil"
)

// Status is a node's standing in the network. Reputation lives in [0, 1];
// stake is denominated in VQX.
type Status struct {
	Stake      float64
	Reputation float64
}

// Ledger holds the status of every known node. Slash and Reward update stake
// and reputation together under one lock, so a concurrent reader never sees a
// node punished on one axis but not the other.
type Ledger struct {
	sync.RWMutex

	statuses map[string]*Status
	stencil  *stencil.Stencil

	slashDecrement float64

	logger *logrus.Entry
}

// New creates an empty reputation ledger. slashDecrement is the fixed
// reputation loss applied on every slash, on top of the stake penalty.
func New(st *stencil.Stencil, slashDecrement float64, logger *logrus.Entry) *Ledger {
	return &Ledger{
		statuses:       make(map[string]*Status),
		stencil:        st,
		slashDecrement: slashDecrement,
		logger:         logger,
	}
}

// Bootstrap registers a node with its initial stake and reputation,
// overwriting any previous status.
func (l *Ledger) Bootstrap(address string, stake, rep float64) {
	l.Lock()
	defer l.Unlock()

	l.statuses[address] = &Status{
		Stake:      stake,
		Reputation: rep,
	}
}

// Status returns a copy of a node's standing. Unknown nodes have zero stake
// and zero reputation.
func (l *Ledger) Status(address string) Status {
	l.RLock()
	defer l.RUnlock()

	if s, ok := l.statuses[address]; ok {
		return *s
	}
	return Status{}
}

// Statuses returns a copy of all standings.
func (l *Ledger) Statuses() map[string]Status {
	l.RLock()
	defer l.RUnlock()

	res := make(map[string]Status, len(l.statuses))
	for a, s := range l.statuses {
		res[a] = *s
	}
	return res
}

// Slash punishes a node: its stake drops by penalty, floored at zero, and its
// reputation drops by the fixed decrement, clamped at zero. Both updates
// happen atomically. The amount of stake actually confiscated is returned so
// the caller can credit the treasury.
func (l *Ledger) Slash(address string, penalty float64) float64 {
	l.Lock()
	defer l.Unlock()

	s, ok := l.statuses[address]
	if !ok {
		s = &Status{}
		l.statuses[address] = s
	}

	slashed := penalty
	if s.Stake < slashed {
		slashed = s.Stake
	}
	s.Stake -= slashed

	s.Reputation -= l.slashDecrement
	if s.Reputation < 0 {
		s.Reputation = 0
	}

	l.logger.WithFields(logrus.Fields{
		"address":    address,
		"slashed":    slashed,
		"stake":      s.Stake,
		"reputation": s.Reputation,
	}).Warn("Node slashed")

	return slashed
}

// Reward raises a node's reputation by increment, capped at 1. Unknown nodes
// are ignored.
func (l *Ledger) Reward(address string, increment float64) {
	l.Lock()
	defer l.Unlock()

	s, ok := l.statuses[address]
	if !ok {
		return
	}

	s.Reputation += increment
	if s.Reputation > 1 {
		s.Reputation = 1
	}
}

// Eligible reports whether a node may participate in consensus: its
// reputation must meet the floor and its software must be registered with the
// stencil.
func (l *Ledger) Eligible(n *node.Node, floor float64) bool {
	l.RLock()
	s, ok := l.statuses[n.Address]
	l.RUnlock()

	if !ok || s.Reputation < floor {
		return false
	}

	return l.stencil.IsCompliant(n.SoftwareVersion, n.SoftwareHash)
}
