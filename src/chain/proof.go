package chain

import (
	"github.com/SylverbladeX/ValoriumX-Simulator/src/common"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/crypto"
)

// CoherenceAnchors are the state values that must be identically visible to
// all honest nodes when deriving a round's proof. They are snapshotted once
// per round; using two different snapshots within a round would make honest
// nodes disagree spuriously.
type CoherenceAnchors struct {
	LastBlockHash string
	Supply        float64
}

// Hash returns the canonical hash of the anchors.
func (a *CoherenceAnchors) Hash() string {
	digest, err := crypto.DigestCanonical(a)
	if err != nil {
		panic(err)
	}
	return common.EncodeToString(digest)
}

// CipProof is the Cellular Integrity Proof for a round. Exactly one correct
// proof exists per round: it is derived deterministically from the template
// hash and the coherence-anchors hash, so every honest node that recomputes
// it independently lands on the same value.
type CipProof struct {
	TemplateHash string
	AnchorsHash  string
	ProofHash    string
}

// NewCipProof derives the proof for a (template, anchors) pair.
func NewCipProof(templateHash, anchorsHash string) *CipProof {
	proofHash := common.EncodeToString(
		crypto.SHA256([]byte(templateHash + anchorsHash)))

	return &CipProof{
		TemplateHash: templateHash,
		AnchorsHash:  anchorsHash,
		ProofHash:    proofHash,
	}
}
