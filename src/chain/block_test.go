package chain

import (
	"reflect"
	"testing"
)

func TestGenesisBlockDeterminism(t *testing.T) {
	a := NewGenesisBlock()
	b := NewGenesisBlock()

	if a.Index != 0 {
		t.Fatalf("genesis index should be 0, got %d", a.Index)
	}
	if a.PreviousHash != GenesisPreviousHash {
		t.Fatalf("genesis previous hash should be the sentinel, got %s", a.PreviousHash)
	}
	if a.BlockHash != b.BlockHash {
		t.Fatalf("two genesis blocks should hash identically: %s / %s", a.BlockHash, b.BlockHash)
	}
	if a.BlockHash != a.ComputeHash() {
		t.Fatal("genesis block hash should match its content")
	}
}

func TestBlockHashDetectsTamper(t *testing.T) {
	tx := NewTransaction("alice", "bob", 10, []byte("hello"))

	block := NewBlock(1, 1000, []*Transaction{tx}, GenesisPreviousHash, "0XTEMPLATE")
	block.Seal(NewCipProof("0XTEMPLATE", "0XANCHORS"), nil)

	if block.BlockHash != block.ComputeHash() {
		t.Fatal("sealed block should verify")
	}

	block.Transactions[0].Amount = 999999

	if block.BlockHash == block.ComputeHash() {
		t.Fatal("tampered block should not match its sealed hash")
	}
}

func TestSealSortsAttestations(t *testing.T) {
	att := func(addr string) *CipAttestation {
		return &CipAttestation{
			ProofHash:   "0XPROOF",
			NodeAddress: addr,
			PublicKey:   "pub_" + addr,
			Signature:   "sig_" + addr,
		}
	}

	proof := NewCipProof("0XTEMPLATE", "0XANCHORS")

	a := NewBlock(1, 1000, nil, GenesisPreviousHash, "0XTEMPLATE")
	a.Seal(proof, []*CipAttestation{att("n3"), att("n1"), att("n2")})

	b := NewBlock(1, 1000, nil, GenesisPreviousHash, "0XTEMPLATE")
	b.Seal(proof, []*CipAttestation{att("n1"), att("n2"), att("n3")})

	if a.BlockHash != b.BlockHash {
		t.Fatalf("block hash should not depend on attestation order: %s / %s",
			a.BlockHash, b.BlockHash)
	}

	for i, want := range []string{"n1", "n2", "n3"} {
		if a.Attestations[i].NodeAddress != want {
			t.Fatalf("attestation %d should be %s, got %s", i, want, a.Attestations[i].NodeAddress)
		}
	}
}

func TestBlockMarshal(t *testing.T) {
	tx := NewTransaction("alice", "bob", 10, []byte("payload"))

	block := NewBlock(1, 1000, []*Transaction{tx}, GenesisPreviousHash, "0XTEMPLATE")
	block.Seal(NewCipProof("0XTEMPLATE", "0XANCHORS"), nil)

	data, err := block.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	decoded := new(Block)
	if err := decoded.Unmarshal(data); err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(block.WinningProof, decoded.WinningProof) {
		t.Fatalf("proof mismatch: %#v / %#v", block.WinningProof, decoded.WinningProof)
	}
	if decoded.BlockHash != block.BlockHash {
		t.Fatalf("hash mismatch: %s / %s", block.BlockHash, decoded.BlockHash)
	}
	if decoded.ComputeHash() != decoded.BlockHash {
		t.Fatal("decoded block should still verify")
	}
}

func TestProofDeterminism(t *testing.T) {
	a := NewCipProof("0XT", "0XA")
	b := NewCipProof("0XT", "0XA")
	c := NewCipProof("0XT", "0XB")

	if a.ProofHash != b.ProofHash {
		t.Fatal("same inputs should derive the same proof")
	}
	if a.ProofHash == c.ProofHash {
		t.Fatal("different anchors should derive a different proof")
	}
}

func TestTransactionValidate(t *testing.T) {
	if err := NewTransaction("alice", "bob", 10, nil).Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	if err := NewTransaction("", "bob", 10, nil).Validate(); err == nil {
		t.Fatal("missing sender should be rejected")
	}

	if err := NewTransaction("alice", "bob", 0, nil).Validate(); err == nil {
		t.Fatal("zero amount should be rejected")
	}

	bad := NewTransaction("alice", "bob", 10, nil)
	bad.Payload = "ATXG"
	if err := bad.Validate(); err == nil {
		t.Fatal("invalid quadrit payload should be rejected")
	}
}

func TestTransactionPayloadRoundTrip(t *testing.T) {
	data := []byte("the cell remembers")

	tx := NewTransaction("alice", "bob", 1, data)

	got, err := tx.PayloadBytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(data) {
		t.Fatalf("payload round trip: %q / %q", data, got)
	}
}
