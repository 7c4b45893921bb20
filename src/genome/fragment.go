// Package genome implements fragment distribution: every sealed block is
// split into redundant fragments spread across custodian nodes, so the loss
// of a node never loses data.
package genome

import (
	"fmt"
	"time"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/common"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/crypto"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/quadrit"
)

// Fragment is one custodian's copy of a piece of chain data. The primary
// fragment carries the payload in clear; redundancy siblings carry the same
// payload under a per-sibling XOR mask, so no two custodians store identical
// bytes.
type Fragment struct {
	ID         string
	Data       []byte
	Sequence   string // quadrit rendering of Data
	Redundancy int
	Checksum   string
	CreatedAt  int64
}

// NewFragment creates the primary fragment for a payload.
func NewFragment(id string, data []byte, redundancy int) *Fragment {
	return &Fragment{
		ID:         id,
		Data:       data,
		Sequence:   quadrit.EncodeToString(data),
		Redundancy: redundancy,
		Checksum:   common.EncodeToString(crypto.SHA256(data)),
		CreatedAt:  time.Now().UnixNano(),
	}
}

// RedundancyFragments derives the k-1 masked siblings of a primary fragment.
// Sibling i has ID "<id>_r<i>" and payload Data XOR mask(i); unmasking with
// the same mask recovers the original payload exactly.
func (f *Fragment) RedundancyFragments() []*Fragment {
	siblings := make([]*Fragment, 0, f.Redundancy-1)

	for i := 1; i < f.Redundancy; i++ {
		masked := applyMask(f.Data, maskKey(f.ID, i))

		siblings = append(siblings, &Fragment{
			ID:         fmt.Sprintf("%s_r%d", f.ID, i),
			Data:       masked,
			Sequence:   quadrit.EncodeToString(masked),
			Redundancy: f.Redundancy,
			Checksum:   common.EncodeToString(crypto.SHA256(masked)),
			CreatedAt:  f.CreatedAt,
		})
	}

	return siblings
}

// maskKey derives the XOR mask seed for sibling i of a fragment.
func maskKey(id string, i int) []byte {
	return crypto.SHA256([]byte(fmt.Sprintf("%s_%d", id, i)))
}

// applyMask XORs data with a keystream grown from the seed. The stream is
// extended one hash block at a time, so payloads longer than a single digest
// are fully covered. XOR is an involution: applying the same mask twice
// restores the input.
func applyMask(data, seed []byte) []byte {
	out := make([]byte, len(data))

	block := seed
	for off := 0; off < len(data); off += len(block) {
		for j := 0; j < len(block) && off+j < len(data); j++ {
			out[off+j] = data[off+j] ^ block[j]
		}
		block = crypto.SimpleHashFromTwoHashes(block, seed)
	}

	return out
}
