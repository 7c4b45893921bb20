package crypto

import (
	"bytes"
	"crypto/sha256"

	"github.com/ugorji/go/codec"
)

/*
All Valorium X content addressing uses SHA-256. The whitepaper occasionally
mentions SHA-512; we settled on 256 bits because it is sufficient for
collision resistance and keeps hashes, and therefore blocks and attestations,
half the size.
*/

// SHA256 returns the SHA256 hash of the data.
func SHA256(data []byte) []byte {
	hasher := sha256.New()
	hasher.Write(data)
	hash := hasher.Sum(nil)
	return hash
}

// SimpleHashFromTwoHashes returns the SHA256 hash of the concatenation of left
// and right data.
func SimpleHashFromTwoHashes(left []byte, right []byte) []byte {
	var hasher = sha256.New()
	hasher.Write(left)
	hasher.Write(right)
	return hasher.Sum(nil)
}

// CanonicalMarshal encodes a value as canonical JSON (sorted map keys), so
// that identical logical content always produces identical bytes.
func CanonicalMarshal(v interface{}) ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// CanonicalUnmarshal decodes a value encoded with CanonicalMarshal.
func CanonicalUnmarshal(data []byte, v interface{}) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(v)
}

// DigestCanonical returns the SHA256 hash of the canonical JSON encoding of
// v. It is the content-addressing primitive used by every Valorium X
// structure: identical logical content always yields an identical digest.
func DigestCanonical(v interface{}) ([]byte, error) {
	data, err := CanonicalMarshal(v)
	if err != nil {
		return nil, err
	}
	return SHA256(data), nil
}
