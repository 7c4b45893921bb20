package node

import "github.com/SylverbladeX/ValoriumX-Simulator/src/chain"

// AttestationStrategy decides which proof hash a node attests to in a round.
// Returning the empty string means the node does not attest at all.
type AttestationStrategy interface {
	ProofHash(templateHash, anchorsHash string) string
}

// HonestStrategy independently re-derives the correct proof from the round's
// template and anchors.
type HonestStrategy struct{}

// ProofHash ...
func (s *HonestStrategy) ProofHash(templateHash, anchorsHash string) string {
	return chain.NewCipProof(templateHash, anchorsHash).ProofHash
}

// ByzantineStrategy attests to a fixed bogus proof hash regardless of the
// round's content.
type ByzantineStrategy struct {
	FakeProofHash string
}

// ProofHash ...
func (s *ByzantineStrategy) ProofHash(templateHash, anchorsHash string) string {
	return s.FakeProofHash
}

// SilentStrategy never attests. It models crashed or unresponsive nodes.
type SilentStrategy struct{}

// ProofHash ...
func (s *SilentStrategy) ProofHash(templateHash, anchorsHash string) string {
	return ""
}
