package chain

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/common"
)

func testState(t *testing.T) *State {
	l := newTestLedger(t)
	l.SetBalance("alice", 100)

	if err := l.AddTransaction(NewTransaction("alice", "bob", 10, nil)); err != nil {
		t.Fatal(err)
	}
	if err := l.Commit(buildBlock(l, l.TakePending(0))); err != nil {
		t.Fatal(err)
	}
	if err := l.AddTransaction(NewTransaction("alice", "carol", 5, nil)); err != nil {
		t.Fatal(err)
	}

	return l.Snapshot()
}

func checkRestored(t *testing.T, state *State) {
	restored, err := NewLedgerFromState(state, common.NewTestEntry(t, "ledger"))
	if err != nil {
		t.Fatal(err)
	}

	if restored.ChainLength() != 2 {
		t.Fatalf("expected 2 blocks, got %d", restored.ChainLength())
	}
	if restored.Balance("bob") != 10 {
		t.Fatalf("bob balance should be 10, got %f", restored.Balance("bob"))
	}
	if restored.PendingCount() != 1 {
		t.Fatalf("pending buffer should survive persistence, got %d", restored.PendingCount())
	}
}

func TestInmemStore(t *testing.T) {
	store := NewInmemStore()
	defer store.Close()

	if _, err := store.LoadState(); err == nil {
		t.Fatal("empty store should not load")
	}

	if err := store.SaveState(testState(t)); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadState()
	if err != nil {
		t.Fatal(err)
	}

	checkRestored(t, loaded)
}

func TestBadgerStore(t *testing.T) {
	dir, err := ioutil.TempDir("", "valorium")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	store, err := NewBadgerStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.LoadState(); err == nil {
		t.Fatal("empty database should not load")
	}

	if err := store.SaveState(testState(t)); err != nil {
		t.Fatal(err)
	}

	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopen and read back.
	store, err = NewBadgerStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	loaded, err := store.LoadState()
	if err != nil {
		t.Fatal(err)
	}

	checkRestored(t, loaded)
}
