package chain

// Signer produces signatures over attestation material. It is the injected
// cryptographic boundary: the protocol never implements cryptography itself.
// keys.EcdsaSigner is the default implementation.
type Signer interface {
	Sign(data []byte) (string, error)
	PublicKeyHex() string
}

// CipAttestation is a node's signed vote for a specific proof hash. One per
// participating node per round; attestations are consumed when the round
// settles and only the winning subset is persisted inside the block.
type CipAttestation struct {
	ProofHash   string
	NodeAddress string
	PublicKey   string
	Signature   string
}

// NewCipAttestation signs the (proof hash, node address) pair with the node's
// signer.
func NewCipAttestation(proofHash, nodeAddress string, signer Signer) (*CipAttestation, error) {
	sig, err := signer.Sign(AttestationSignBytes(proofHash, nodeAddress))
	if err != nil {
		return nil, err
	}

	return &CipAttestation{
		ProofHash:   proofHash,
		NodeAddress: nodeAddress,
		PublicKey:   signer.PublicKeyHex(),
		Signature:   sig,
	}, nil
}

// AttestationSignBytes is the exact byte string an attestation signature
// covers.
func AttestationSignBytes(proofHash, nodeAddress string) []byte {
	return []byte(proofHash + nodeAddress)
}
