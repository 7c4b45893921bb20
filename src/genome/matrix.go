package genome

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/common"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/crypto"
)

// IrrecoverableLossError is returned when every custodian of a fragment set
// is gone. The loss is reported, never papered over.
type IrrecoverableLossError struct {
	ID string
}

// Error ...
func (e *IrrecoverableLossError) Error() string {
	return fmt.Sprintf("fragment %s is irrecoverable: no surviving copy", e.ID)
}

// IsIrrecoverable checks whether err is an IrrecoverableLossError.
func IsIrrecoverable(err error) bool {
	var ie *IrrecoverableLossError
	return errors.As(err, &ie)
}

// manifestEntry is what the matrix remembers about a distributed payload,
// independently of any custodian. The checksum is the recovery oracle: a
// reconstructed payload is only accepted if it matches.
type manifestEntry struct {
	Checksum   string
	Redundancy int
}

// Matrix is the custodian map of the fragment store. It knows which node
// holds which fragment, detects the fragments lost when a node fails, and
// regenerates them onto surviving custodians by actually decoding a
// surviving copy.
type Matrix struct {
	sync.Mutex

	// node address => fragment ID => fragment
	nodeFragments map[string]map[string]*Fragment

	manifest      map[string]*manifestEntry
	regenerations int

	logger *logrus.Entry
}

// NewMatrix ...
func NewMatrix(logger *logrus.Entry) *Matrix {
	return &Matrix{
		nodeFragments: make(map[string]map[string]*Fragment),
		manifest:      make(map[string]*manifestEntry),
		logger:        logger,
	}
}

// Distribute spreads a primary fragment and its redundancy siblings over the
// target nodes, round-robin. At least two targets are required; with a single
// custodian the redundancy would be fiction.
func (m *Matrix) Distribute(fragment *Fragment, targets []string) error {
	if len(targets) < 2 {
		return fmt.Errorf("distribution requires at least 2 target nodes, got %d", len(targets))
	}

	m.Lock()
	defer m.Unlock()

	m.manifest[fragment.ID] = &manifestEntry{
		Checksum:   fragment.Checksum,
		Redundancy: fragment.Redundancy,
	}

	pieces := append([]*Fragment{fragment}, fragment.RedundancyFragments()...)
	for i, piece := range pieces {
		m.home(targets[i%len(targets)], piece)
	}

	m.logger.WithFields(logrus.Fields{
		"fragment": fragment.ID,
		"pieces":   len(pieces),
		"targets":  len(targets),
	}).Info("Fragment distributed across the genome matrix")

	return nil
}

// home stores a fragment on a node. Callers must hold the lock.
func (m *Matrix) home(address string, fragment *Fragment) {
	if m.nodeFragments[address] == nil {
		m.nodeFragments[address] = make(map[string]*Fragment)
	}
	m.nodeFragments[address][fragment.ID] = fragment
}

// Holdings returns the IDs of the fragments a node currently holds.
func (m *Matrix) Holdings(address string) []string {
	m.Lock()
	defer m.Unlock()

	ids := make([]string, 0, len(m.nodeFragments[address]))
	for id := range m.nodeFragments[address] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RegenerationCount returns how many fragments have been rebuilt so far.
func (m *Matrix) RegenerationCount() int {
	m.Lock()
	defer m.Unlock()
	return m.regenerations
}

// OnNodeFailure drops a node and regenerates every fragment it held onto the
// surviving custodians. Payloads whose every copy lived on failed nodes are
// reported as irrecoverable; the first such error is returned after all
// recoverable fragments have been rebuilt.
func (m *Matrix) OnNodeFailure(address string) error {
	m.Lock()
	defer m.Unlock()

	lost := m.nodeFragments[address]
	delete(m.nodeFragments, address)

	m.logger.WithFields(logrus.Fields{
		"node": address,
		"lost": len(lost),
	}).Warn("Node failed, regenerating its fragments")

	var firstErr error
	for id := range lost {
		if err := m.regenerate(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Recover reconstructs the original payload of a distributed fragment from
// whatever copy survives, and verifies it against the manifest checksum.
func (m *Matrix) Recover(baseID string) ([]byte, error) {
	m.Lock()
	defer m.Unlock()
	return m.recover(baseID)
}

// recover is Recover without the lock. Callers must hold it.
func (m *Matrix) recover(baseID string) ([]byte, error) {
	entry, ok := m.manifest[baseID]
	if !ok {
		return nil, fmt.Errorf("unknown fragment %s", baseID)
	}

	for _, fragments := range m.nodeFragments {
		for id, fragment := range fragments {
			base, sibling := splitFragmentID(id)
			if base != baseID {
				continue
			}

			data := fragment.Data
			if sibling > 0 {
				data = applyMask(data, maskKey(baseID, sibling))
			}

			if common.EncodeToString(crypto.SHA256(data)) != entry.Checksum {
				// Corrupt copy; keep looking.
				continue
			}

			return data, nil
		}
	}

	return nil, &IrrecoverableLossError{ID: baseID}
}

// regenerate rebuilds one lost piece. The payload is decoded from a surviving
// copy, re-encoded for the lost piece's slot, and homed on the surviving
// custodian with the fewest fragments. Regenerating a piece that still exists
// somewhere is a no-op, so the operation is idempotent. Callers must hold the
// lock.
func (m *Matrix) regenerate(id string) error {
	for _, fragments := range m.nodeFragments {
		if _, ok := fragments[id]; ok {
			return nil
		}
	}

	baseID, sibling := splitFragmentID(id)

	entry, ok := m.manifest[baseID]
	if !ok {
		return fmt.Errorf("unknown fragment %s", baseID)
	}

	data, err := m.recover(baseID)
	if err != nil {
		m.logger.WithField("fragment", id).Error("Fragment irrecoverable")
		return err
	}

	target := m.leastLoadedNode()
	if target == "" {
		return &IrrecoverableLossError{ID: baseID}
	}

	rebuilt := NewFragment(baseID, data, entry.Redundancy)
	if sibling > 0 {
		rebuilt = rebuilt.RedundancyFragments()[sibling-1]
	}

	m.home(target, rebuilt)
	m.regenerations++

	m.logger.WithFields(logrus.Fields{
		"fragment": id,
		"target":   target,
	}).Info("Fragment regenerated")

	return nil
}

// leastLoadedNode picks the surviving node holding the fewest fragments, ties
// broken by address. Callers must hold the lock.
func (m *Matrix) leastLoadedNode() string {
	best := ""
	bestCount := -1

	addresses := make([]string, 0, len(m.nodeFragments))
	for a := range m.nodeFragments {
		addresses = append(addresses, a)
	}
	sort.Strings(addresses)

	for _, a := range addresses {
		if bestCount == -1 || len(m.nodeFragments[a]) < bestCount {
			best = a
			bestCount = len(m.nodeFragments[a])
		}
	}

	return best
}

// splitFragmentID separates a fragment ID into its base ID and sibling index.
// The primary fragment has sibling index 0.
func splitFragmentID(id string) (string, int) {
	idx := strings.LastIndex(id, "_r")
	if idx < 0 {
		return id, 0
	}

	n, err := strconv.Atoi(id[idx+2:])
	if err != nil || n < 1 {
		return id, 0
	}

	return id[:idx], n
}
