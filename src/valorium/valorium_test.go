package valorium

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/chain"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/config"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/node"
)

func newTestEngine(t *testing.T, dataDir string, store bool) *Valorium {
	conf := config.NewTestConfig(t)
	conf.SetDataDir(dataDir)
	conf.NoService = true
	conf.Store = store

	engine := NewValorium(conf)
	if err := engine.Init(); err != nil {
		t.Fatal(err)
	}
	return engine
}

func TestEngineInit(t *testing.T) {
	dir, err := ioutil.TempDir("", "valorium")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	engine := newTestEngine(t, dir, false)

	if len(engine.Nodes) != config.DefaultValidators {
		t.Fatalf("expected %d simulated validators, got %d", config.DefaultValidators, len(engine.Nodes))
	}
	if engine.Ledger.ChainLength() != 1 {
		t.Fatalf("fresh engine should start at genesis, got %d blocks", engine.Ledger.ChainLength())
	}
	if !engine.Stencil.IsCompliant(engine.Config.SoftwareVersion, engine.Nodes[0].SoftwareHash) {
		t.Fatal("simulated nodes should run the registered software")
	}

	// The node 0 keyfile is created on first init.
	if _, err := os.Stat(engine.Config.Keyfile()); err != nil {
		t.Fatalf("keyfile should exist: %v", err)
	}
}

func TestEnginePersistence(t *testing.T) {
	dir, err := ioutil.TempDir("", "valorium")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	engine := newTestEngine(t, dir, true)

	engine.Ledger.SetBalance("alice", 100)
	if err := engine.Ledger.AddTransaction(chain.NewTransaction("alice", "bob", 30, nil)); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Protocol.RunRound(); err != nil {
		t.Fatal(err)
	}
	if err := engine.Shutdown(); err != nil {
		t.Fatal(err)
	}

	restored := newTestEngine(t, dir, true)
	defer restored.Store.Close()

	if restored.Ledger.ChainLength() != 2 {
		t.Fatalf("restored chain should hold 2 blocks, got %d", restored.Ledger.ChainLength())
	}
	if got := restored.Ledger.Balance("bob"); got != 30 {
		t.Fatalf("bob balance should survive the restart, got %f", got)
	}
	if err := restored.Ledger.Verify(); err != nil {
		t.Fatalf("restored chain should verify: %v", err)
	}
}

func TestEngineLoadsNodesFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "valorium")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	records := []*node.Record{
		{Address: "alpha", CanPropose: true, CanAttest: true},
		{Address: "beta", CanAttest: true},
		{Address: "gamma", CanAttest: true},
	}
	if err := node.NewJSONNodeSet(dir).Write(records); err != nil {
		t.Fatal(err)
	}

	engine := newTestEngine(t, dir, false)

	if len(engine.Nodes) != 3 {
		t.Fatalf("expected 3 nodes from nodes.json, got %d", len(engine.Nodes))
	}
	if engine.Nodes[0].Address != "alpha" || !engine.Nodes[0].CanPropose {
		t.Fatal("node records should carry over")
	}
	if engine.Nodes[1].CanPropose {
		t.Fatal("beta must not be a proposer")
	}
}
