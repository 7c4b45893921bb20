package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/chain"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/consensus"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/genome"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/reputation"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/stencil"
)

// Service ...
type Service struct {
	sync.Mutex

	bindAddress string

	protocol   *consensus.Protocol
	ledger     *chain.Ledger
	reputation *reputation.Ledger
	stencil    *stencil.Stencil
	matrix     *genome.Matrix

	logger *logrus.Entry
}

// NewService ...
func NewService(
	bindAddress string,
	protocol *consensus.Protocol,
	ledger *chain.Ledger,
	rep *reputation.Ledger,
	st *stencil.Stencil,
	matrix *genome.Matrix,
	logger *logrus.Entry,
) *Service {
	service := Service{
		bindAddress: bindAddress,
		protocol:    protocol,
		ledger:      ledger,
		reputation:  rep,
		stencil:     st,
		matrix:      matrix,
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

// registerHandlers registers the API handlers with the DefaultServerMux of
// the http package, so another server in the same process can share the
// endpoint.
func (s *Service) registerHandlers() {
	s.logger.Debug("Registering Valorium API handlers")
	http.HandleFunc("/stats", s.makeHandler(s.GetStats))
	http.HandleFunc("/block/", s.makeHandler(s.GetBlock))
	http.HandleFunc("/report", s.makeHandler(s.GetReport))
	http.HandleFunc("/transactions", s.makeHandler(s.SubmitTransaction))
	http.HandleFunc("/rounds", s.makeHandler(s.RunRound))
	http.HandleFunc("/stencil", s.makeHandler(s.RegisterVersion))
	http.HandleFunc("/failures", s.makeHandler(s.SimulateFailure))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Serve calls ListenAndServe. This is a blocking call.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving Valorium API")

	err := http.ListenAndServe(s.bindAddress, nil)
	if err != nil {
		s.logger.Error(err)
	}
}

// Stats is the payload of the /stats endpoint.
type Stats struct {
	State           string  `json:"state"`
	ChainLength     int     `json:"chain_length"`
	LastBlockHash   string  `json:"last_block_hash"`
	PendingTxs      int     `json:"pending_txs"`
	Supply          float64 `json:"supply"`
	RoundsAttempted int     `json:"rounds_attempted"`
	RoundsCommitted int     `json:"rounds_committed"`
	RoundsAborted   int     `json:"rounds_aborted"`
	MaliciousNodes  int     `json:"malicious_nodes"`
	SuccessRate     float64 `json:"success_rate"`
	Regenerations   int     `json:"regenerations"`
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	protocolStats := s.protocol.Stats()

	successRate := 0.0
	if protocolStats.RoundsAttempted > 0 {
		successRate = float64(protocolStats.RoundsCommitted) / float64(protocolStats.RoundsAttempted)
	}

	stats := Stats{
		State:           s.protocol.State().String(),
		ChainLength:     s.ledger.ChainLength(),
		LastBlockHash:   s.ledger.LastBlock().BlockHash,
		PendingTxs:      s.ledger.PendingCount(),
		Supply:          s.ledger.Supply(),
		RoundsAttempted: protocolStats.RoundsAttempted,
		RoundsCommitted: protocolStats.RoundsCommitted,
		RoundsAborted:   protocolStats.RoundsAborted,
		MaliciousNodes:  protocolStats.MaliciousNodes,
		SuccessRate:     successRate,
		Regenerations:   s.matrix.RegenerationCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// GetBlock ...
func (s *Service) GetBlock(w http.ResponseWriter, r *http.Request) {
	param := r.URL.Path[len("/block/"):]

	blockIndex, err := strconv.Atoi(param)
	if err != nil {
		s.logger.WithError(err).Errorf("Parsing block_index parameter %s", param)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	block, err := s.ledger.GetBlock(blockIndex)
	if err != nil {
		s.logger.WithError(err).Errorf("Retrieving block %d", blockIndex)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(block)
}

// Report is the payload of the /report endpoint.
type Report struct {
	Statuses  map[string]reputation.Status `json:"statuses"`
	Balances  map[string]float64           `json:"balances"`
	Stencil   map[string]string            `json:"stencil"`
	Treasury  float64                      `json:"treasury"`
	Integrity string                       `json:"integrity"`
}

/// GetReport returns the network performance report: node standings, balances,
// registered software and the result of a full chain audit.
func (s *Service) GetReport(w http.ResponseWriter, r *http.Request) {
	integrity := "ok"
	if err := s.ledger.Verify(); err != nil {
		integrity = err.Error()
	}

	report := Report{
		Statuses:  s.reputation.Statuses(),
		Balances:  s.ledger.Balances(),
		Stencil:   s.stencil.Versions(),
		Treasury:  s.ledger.Balance(chain.TreasuryAddress),
		Integrity: integrity,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}

type transactionRequest struct {
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
	Payload   string  `json:"payload"`
}

// SubmitTransaction ...
func (s *Service) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	tx := chain.NewTransaction(req.Sender, req.Recipient, req.Amount, []byte(req.Payload))
	if err := s.ledger.AddTransaction(tx); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"hash": tx.Hash()})
}

// RunRound triggers one consensus round. An aborted round is a normal
// protocol outcome and is reported as such, not as an HTTP error; only chain
// integrity violations map to 500.
func (s *Service) RunRound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	block, err := s.protocol.RunRound()
	if err != nil {
		var abort *consensus.AbortError
		if errors.As(err, &abort) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"outcome": "aborted",
				"reason":  abort.Reason,
			})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(block)
}

type stencilRequest struct {
	Version string `json:"version"`
	Hash    string `json:"hash"`
}

// RegisterVersion registers an official software version with the stencil.
// When no hash is given, the official derivation is used.
func (s *Service) RegisterVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req stencilRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Version == "" {
		http.Error(w, "version is required", http.StatusBadRequest)
		return
	}

	hash := req.Hash
	if hash == "" {
		hash = stencil.SoftwareHash(req.Version)
	}
	s.stencil.Register(req.Version, hash)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"version": req.Version, "hash": hash})
}

type failureRequest struct {
	Address string `json:"address"`
}

// SimulateFailure drops a validator and regenerates the fragments it held.
// Irrecoverable data loss maps to 500; it means redundancy was exhausted.
func (s *Service) SimulateFailure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req failureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Address == "" {
		http.Error(w, "address is required", http.StatusBadRequest)
		return
	}

	if err := s.protocol.RemoveValidator(req.Address); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"removed":       req.Address,
		"regenerations": s.matrix.RegenerationCount(),
	})
}
