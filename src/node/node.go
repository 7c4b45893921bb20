// Package node defines the participants of a Valorium X network. A single
// Node record covers every role; what a node may do is expressed by the
// orthogonal CanPropose and CanAttest capabilities rather than by type.
package node

import (
	"github.com/SylverbladeX/ValoriumX-Simulator/src/chain"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/stencil"
)

// Node is a network participant. Its behaviour during attestation is
// pluggable through Strategy; honest nodes use HonestStrategy, faulty or
// malicious ones are modelled by swapping the strategy, never by subclassing
// the node.
type Node struct {
	Address         string
	SoftwareVersion string
	SoftwareHash    string

	CanPropose bool
	CanAttest  bool

	Strategy AttestationStrategy

	signer chain.Signer
}

// New creates a node running the given software version, with an honest
// strategy by default.
func New(address, softwareVersion string, signer chain.Signer, canPropose, canAttest bool) *Node {
	return &Node{
		Address:         address,
		SoftwareVersion: softwareVersion,
		SoftwareHash:    stencil.SoftwareHash(softwareVersion),
		CanPropose:      canPropose,
		CanAttest:       canAttest,
		Strategy:        &HonestStrategy{},
		signer:          signer,
	}
}

// PublicKeyHex returns the node's public key.
func (n *Node) PublicKeyHex() string {
	return n.signer.PublicKeyHex()
}

// Attest produces the node's signed attestation for a round. The proof hash
// comes from the node's strategy; only an honest strategy derives the correct
// one. A nil attestation with a nil error means the node stayed silent.
func (n *Node) Attest(templateHash, anchorsHash string) (*chain.CipAttestation, error) {
	proofHash := n.Strategy.ProofHash(templateHash, anchorsHash)
	if proofHash == "" {
		return nil, nil
	}

	return chain.NewCipAttestation(proofHash, n.Address, n.signer)
}
