package keys

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

func TestSignVerify(t *testing.T) {
	priv, err := GenerateECDSAKey()
	if err != nil {
		t.Fatal(err)
	}

	data := []byte("attestation material")

	r, s, err := Sign(priv, data)
	if err != nil {
		t.Fatal(err)
	}

	if !Verify(&priv.PublicKey, data, r, s) {
		t.Fatal("Verify returned false")
	}

	if Verify(&priv.PublicKey, []byte("other material"), r, s) {
		t.Fatal("Verify accepted a signature over different data")
	}
}

func TestSignatureEncoding(t *testing.T) {
	priv, _ := GenerateECDSAKey()

	r, s, err := Sign(priv, []byte("data"))
	if err != nil {
		t.Fatal(err)
	}

	encoded := EncodeSignature(r, s)

	dr, ds, err := DecodeSignature(encoded)
	if err != nil {
		t.Fatal(err)
	}

	if r.Cmp(dr) != 0 || s.Cmp(ds) != 0 {
		t.Fatalf("signature round trip mismatch: got (%s, %s), want (%s, %s)", dr, ds, r, s)
	}

	if _, _, err := DecodeSignature("not a signature"); err == nil {
		t.Fatal("expected error decoding malformed signature")
	}
}

func TestPrivateKeyDumpParse(t *testing.T) {
	priv, _ := GenerateECDSAKey()

	dump := DumpPrivateKey(priv)

	parsed, err := ParsePrivateKey(dump)
	if err != nil {
		t.Fatal(err)
	}

	if priv.D.Cmp(parsed.D) != 0 {
		t.Fatal("parsed private key differs from original")
	}

	if PublicKeyHex(&priv.PublicKey) != PublicKeyHex(&parsed.PublicKey) {
		t.Fatal("parsed public key differs from original")
	}
}

func TestSignerVerifyHex(t *testing.T) {
	signer, err := GenerateSigner()
	if err != nil {
		t.Fatal(err)
	}

	data := []byte("proof hash + node address")

	sig, err := signer.Sign(data)
	if err != nil {
		t.Fatal(err)
	}

	if !VerifySignatureHex(signer.PublicKeyHex(), data, sig) {
		t.Fatal("VerifySignatureHex returned false for a valid signature")
	}

	if VerifySignatureHex(signer.PublicKeyHex(), []byte("tampered"), sig) {
		t.Fatal("VerifySignatureHex accepted tampered data")
	}

	other, _ := GenerateSigner()
	if VerifySignatureHex(other.PublicKeyHex(), data, sig) {
		t.Fatal("VerifySignatureHex accepted the wrong public key")
	}
}

func TestSimpleKeyfile(t *testing.T) {
	dir, err := ioutil.TempDir("", "keyfile")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	keyfile := filepath.Join(dir, "priv_key")

	priv, _ := GenerateECDSAKey()

	simpleKeyfile := NewSimpleKeyfile(keyfile)

	if err := simpleKeyfile.WriteKey(priv); err != nil {
		t.Fatal(err)
	}

	read, err := simpleKeyfile.ReadKey()
	if err != nil {
		t.Fatal(err)
	}

	if priv.D.Cmp(read.D) != 0 {
		t.Fatal("key read from file differs from key written")
	}
}
