package keys

import (
	"crypto/ecdsa"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/common"
)

// EcdsaSigner signs attestation material with a secp256k1 private key. It is
// the default implementation of the chain.Signer boundary.
type EcdsaSigner struct {
	key *ecdsa.PrivateKey

	pubHex string
}

// NewEcdsaSigner wraps an existing private key.
func NewEcdsaSigner(key *ecdsa.PrivateKey) *EcdsaSigner {
	return &EcdsaSigner{key: key}
}

// GenerateSigner creates a signer with a fresh key.
func GenerateSigner() (*EcdsaSigner, error) {
	key, err := GenerateECDSAKey()
	if err != nil {
		return nil, err
	}
	return NewEcdsaSigner(key), nil
}

// Sign returns an encoded signature over data.
func (s *EcdsaSigner) Sign(data []byte) (string, error) {
	r, sv, err := Sign(s.key, data)
	if err != nil {
		return "", err
	}
	return EncodeSignature(r, sv), nil
}

// PublicKeyHex returns the hexadecimal form of the signer's public key.
func (s *EcdsaSigner) PublicKeyHex() string {
	if s.pubHex == "" {
		s.pubHex = PublicKeyHex(&s.key.PublicKey)
	}
	return s.pubHex
}

// VerifySignatureHex verifies an encoded signature over data against a
// hexadecimal public key, as produced by EcdsaSigner.
func VerifySignatureHex(pubHex string, data []byte, sig string) bool {
	pubBytes, err := common.DecodeFromString(pubHex)
	if err != nil {
		return false
	}

	pub := ToPublicKey(pubBytes)
	if pub == nil || pub.X == nil {
		return false
	}

	r, s, err := DecodeSignature(sig)
	if err != nil {
		return false
	}

	return Verify(pub, data, r, s)
}
