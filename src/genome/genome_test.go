package genome

import (
	"bytes"
	"testing"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/common"
)

func TestMaskRoundTrip(t *testing.T) {
	// Longer than one hash block, so the keystream has to be extended.
	payload := bytes.Repeat([]byte("the cell remembers "), 10)

	seed := maskKey("frag0", 1)
	masked := applyMask(payload, seed)

	if bytes.Equal(masked, payload) {
		t.Fatal("mask should change the payload")
	}
	if bytes.Equal(masked[32:64], payload[32:64]) {
		t.Fatal("mask must cover bytes beyond the first hash block")
	}

	if got := applyMask(masked, seed); !bytes.Equal(got, payload) {
		t.Fatal("unmasking should restore the payload exactly")
	}
}

func TestRedundancyFragments(t *testing.T) {
	payload := []byte("genesis payload")
	f := NewFragment("frag0", payload, 3)

	siblings := f.RedundancyFragments()
	if len(siblings) != 2 {
		t.Fatalf("redundancy 3 should derive 2 siblings, got %d", len(siblings))
	}

	for i, s := range siblings {
		if s.ID != []string{"frag0_r1", "frag0_r2"}[i] {
			t.Fatalf("unexpected sibling ID %s", s.ID)
		}
		if bytes.Equal(s.Data, payload) {
			t.Fatal("siblings must not store the payload in clear")
		}
		if got := applyMask(s.Data, maskKey("frag0", i+1)); !bytes.Equal(got, payload) {
			t.Fatalf("sibling %d should unmask to the payload", i+1)
		}
	}
}

func TestDistributeRequiresTwoTargets(t *testing.T) {
	m := NewMatrix(common.NewTestEntry(t, "genome"))

	f := NewFragment("frag0", []byte("data"), 3)
	if err := m.Distribute(f, []string{"node0"}); err == nil {
		t.Fatal("single-target distribution should be rejected")
	}
}

func TestSurvivesMinorityFailures(t *testing.T) {
	m := NewMatrix(common.NewTestEntry(t, "genome"))
	targets := []string{"node0", "node1", "node2", "node3"}

	payload := bytes.Repeat([]byte("block bytes "), 20)
	f := NewFragment("block_1", payload, 3)

	if err := m.Distribute(f, targets); err != nil {
		t.Fatal(err)
	}

	if err := m.OnNodeFailure("node0"); err != nil {
		t.Fatalf("first failure should be absorbed: %v", err)
	}
	if err := m.OnNodeFailure("node1"); err != nil {
		t.Fatalf("second failure should be absorbed: %v", err)
	}

	got, err := m.Recover("block_1")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("recovered payload should be byte-for-byte identical")
	}

	if m.RegenerationCount() == 0 {
		t.Fatal("failures of fragment holders should trigger regeneration")
	}
}

func TestAllCustodiansLost(t *testing.T) {
	m := NewMatrix(common.NewTestEntry(t, "genome"))
	targets := []string{"node0", "node1", "node2", "node3"}

	f := NewFragment("block_1", []byte("block bytes"), 3)
	if err := m.Distribute(f, targets); err != nil {
		t.Fatal(err)
	}

	var lastErr error
	for _, a := range targets {
		if err := m.OnNodeFailure(a); err != nil {
			lastErr = err
		}
	}

	if lastErr == nil {
		t.Fatal("losing every custodian should be reported")
	}
	if !IsIrrecoverable(lastErr) {
		t.Fatalf("expected an IrrecoverableLossError, got %v", lastErr)
	}

	if _, err := m.Recover("block_1"); !IsIrrecoverable(err) {
		t.Fatalf("recovery should report irrecoverable loss, got %v", err)
	}
}

func TestRegenerationIdempotent(t *testing.T) {
	m := NewMatrix(common.NewTestEntry(t, "genome"))

	f := NewFragment("block_1", []byte("block bytes"), 3)
	if err := m.Distribute(f, []string{"node0", "node1", "node2"}); err != nil {
		t.Fatal(err)
	}

	// Every piece still exists, so regeneration has nothing to do.
	for _, id := range []string{"block_1", "block_1_r1", "block_1_r2"} {
		if err := m.regenerate(id); err != nil {
			t.Fatal(err)
		}
	}

	if m.RegenerationCount() != 0 {
		t.Fatalf("regenerating existing pieces should be a no-op, count=%d", m.RegenerationCount())
	}
}
