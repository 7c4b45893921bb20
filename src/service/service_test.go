package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/chain"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/common"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/consensus"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/crypto/keys"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/genome"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/node"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/reputation"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/stencil"
)

// newTestService builds a Service without registering handlers on the global
// mux, so tests can run in any order.
func newTestService(t *testing.T) *Service {
	st := stencil.NewStencil(common.NewTestEntry(t, "stencil"))
	st.Register("1.0.0", stencil.SoftwareHash("1.0.0"))

	rep := reputation.New(st, 0.5, common.NewTestEntry(t, "reputation"))
	ledger := chain.NewLedger(common.NewTestEntry(t, "ledger"))
	matrix := genome.NewMatrix(common.NewTestEntry(t, "genome"))

	nodes := make([]*node.Node, 4)
	for i := range nodes {
		signer, err := keys.GenerateSigner()
		if err != nil {
			t.Fatal(err)
		}
		address := string(rune('a'+i)) + "-node"
		nodes[i] = node.New(address, "1.0.0", signer, true, true)
		rep.Bootstrap(address, 1000, 1.0)
	}

	conf := consensus.DefaultConfig()
	conf.RoundTimeout = 500 * time.Millisecond

	protocol := consensus.NewProtocol(conf, nodes, ledger, rep, matrix,
		common.NewTestEntry(t, "consensus"))

	return &Service{
		protocol:   protocol,
		ledger:     ledger,
		reputation: rep,
		stencil:    st,
		matrix:     matrix,
		logger:     common.NewTestEntry(t, "service"),
	}
}

func TestSubmitTransactionAndRunRound(t *testing.T) {
	s := newTestService(t)
	s.ledger.SetBalance("alice", 100)

	body := `{"sender":"alice","recipient":"bob","amount":30,"payload":"hello"}`
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.SubmitTransaction(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("transaction submission failed: %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/rounds", nil)
	w = httptest.NewRecorder()
	s.RunRound(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("round failed: %d %s", w.Code, w.Body.String())
	}

	var block chain.Block
	if err := json.NewDecoder(w.Body).Decode(&block); err != nil {
		t.Fatal(err)
	}
	if block.Index != 1 {
		t.Fatalf("expected block 1, got %d", block.Index)
	}
}

func TestSubmitTransactionValidation(t *testing.T) {
	s := newTestService(t)

	// alice has no funds at all.
	body := `{"sender":"alice","recipient":"bob","amount":30}`
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.SubmitTransaction(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("insufficient funds should map to 400, got %d", w.Code)
	}
}

func TestGetStats(t *testing.T) {
	s := newTestService(t)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	w := httptest.NewRecorder()
	s.GetStats(w, req)

	var stats Stats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}

	if stats.ChainLength != 1 {
		t.Fatalf("fresh network should report 1 block, got %d", stats.ChainLength)
	}
	if stats.State != "Idle" {
		t.Fatalf("fresh network should be Idle, got %s", stats.State)
	}
}

func TestGetBlock(t *testing.T) {
	s := newTestService(t)

	req := httptest.NewRequest(http.MethodGet, "/block/0", nil)
	w := httptest.NewRecorder()
	s.GetBlock(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("genesis block should be served, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/block/42", nil)
	w = httptest.NewRecorder()
	s.GetBlock(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("missing block should map to 404, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/block/abc", nil)
	w = httptest.NewRecorder()
	s.GetBlock(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad index should map to 400, got %d", w.Code)
	}
}

func TestRegisterVersion(t *testing.T) {
	s := newTestService(t)

	body := `{"version":"2.0.0"}`
	req := httptest.NewRequest(http.MethodPost, "/stencil", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.RegisterVersion(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("registration failed: %d %s", w.Code, w.Body.String())
	}

	if !s.stencil.IsCompliant("2.0.0", stencil.SoftwareHash("2.0.0")) {
		t.Fatal("registered version should be compliant")
	}
}

func TestSimulateFailure(t *testing.T) {
	s := newTestService(t)

	// Commit a block first so the failed node holds a fragment.
	req := httptest.NewRequest(http.MethodPost, "/rounds", nil)
	w := httptest.NewRecorder()
	s.RunRound(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("round failed: %d %s", w.Code, w.Body.String())
	}

	body := `{"address":"a-node"}`
	req = httptest.NewRequest(http.MethodPost, "/failures", strings.NewReader(body))
	w = httptest.NewRecorder()
	s.SimulateFailure(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("failure simulation failed: %d %s", w.Code, w.Body.String())
	}

	if len(s.protocol.Validators()) != 3 {
		t.Fatalf("failed node should leave the validator set, %d left", len(s.protocol.Validators()))
	}
}

func TestGetReport(t *testing.T) {
	s := newTestService(t)

	req := httptest.NewRequest(http.MethodGet, "/report", nil)
	w := httptest.NewRecorder()
	s.GetReport(w, req)

	var report Report
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}

	if report.Integrity != "ok" {
		t.Fatalf("fresh chain should audit clean, got %s", report.Integrity)
	}
	if len(report.Statuses) != 4 {
		t.Fatalf("4 node standings expected, got %d", len(report.Statuses))
	}
}
