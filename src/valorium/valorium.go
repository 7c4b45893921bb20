// Package valorium assembles a full Valorium X engine from its parts:
// stencil, validator set, ledger, reputation, genome matrix, consensus
// protocol and HTTP service.
package valorium

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/chain"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/config"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/consensus"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/crypto/keys"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/genome"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/node"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/reputation"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/service"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/stencil"
)

// Valorium is the top-level engine.
type Valorium struct {
	Config *config.Config

	Stencil    *stencil.Stencil
	Nodes      []*node.Node
	Store      chain.Store
	Ledger     *chain.Ledger
	Reputation *reputation.Ledger
	Matrix     *genome.Matrix
	Protocol   *consensus.Protocol
	Service    *service.Service

	logger *logrus.Entry
}

// NewValorium ...
func NewValorium(conf *config.Config) *Valorium {
	return &Valorium{
		Config: conf,
		logger: conf.Logger(),
	}
}

func (v *Valorium) initStencil() error {
	v.Stencil = stencil.NewStencil(v.logger.WithField("component", "stencil"))
	v.Stencil.Register(v.Config.SoftwareVersion,
		stencil.SoftwareHash(v.Config.SoftwareVersion))
	return nil
}

// initNodes loads the validator set from nodes.json, or simulates one when
// the file does not exist. Each node gets its own freshly generated key;
// node 0 additionally uses the keyfile in the data directory, creating it if
// needed, so keygen output is actually exercised.
func (v *Valorium) initNodes() error {
	records, err := node.NewJSONNodeSet(v.Config.DataDir).Read()
	if err != nil {
		v.logger.WithError(err).Debug("No nodes.json, simulating the validator set")
		records = simulatedRecords(v.Config)
	}

	if len(records) < 2 {
		return fmt.Errorf("the validator set needs at least two nodes, got %d", len(records))
	}

	v.Nodes = make([]*node.Node, len(records))
	for i, r := range records {
		var signer *keys.EcdsaSigner

		if i == 0 {
			key, err := loadOrCreateKey(v.Config.Keyfile())
			if err != nil {
				return err
			}
			signer = keys.NewEcdsaSigner(key)
		} else {
			signer, err = keys.GenerateSigner()
			if err != nil {
				return err
			}
		}

		version := r.SoftwareVersion
		if version == "" {
			version = v.Config.SoftwareVersion
		}

		v.Nodes[i] = node.New(r.Address, version, signer, r.CanPropose, r.CanAttest)
	}

	return nil
}

func simulatedRecords(conf *config.Config) []*node.Record {
	records := make([]*node.Record, conf.Validators)
	for i := range records {
		records[i] = &node.Record{
			Address:         fmt.Sprintf("node%d", i),
			SoftwareVersion: conf.SoftwareVersion,
			CanPropose:      true,
			CanAttest:       true,
		}
	}
	return records
}

func loadOrCreateKey(keyfile string) (*ecdsa.PrivateKey, error) {
	simpleKeyfile := keys.NewSimpleKeyfile(keyfile)

	key, err := simpleKeyfile.ReadKey()
	if err == nil {
		return key, nil
	}

	key, err = keys.GenerateECDSAKey()
	if err != nil {
		return nil, err
	}
	if err := simpleKeyfile.WriteKey(key); err != nil {
		return nil, err
	}

	return key, nil
}

func (v *Valorium) initStore() error {
	if !v.Config.Store {
		v.Store = chain.NewInmemStore()
		v.logger.Debug("created new in-mem store")
		return nil
	}

	store, err := chain.NewBadgerStore(v.Config.DatabaseDir)
	if err != nil {
		return err
	}

	v.Store = store
	v.logger.WithField("path", v.Config.DatabaseDir).Debug("opened badger store")

	return nil
}

// initLedger restores the chain from the store when possible. A missing or
// corrupt state is never fatal: the engine starts from a fresh genesis chain.
func (v *Valorium) initLedger() error {
	logger := v.logger.WithField("component", "ledger")

	state, err := v.Store.LoadState()
	if err == nil {
		ledger, lerr := chain.NewLedgerFromState(state, logger)
		if lerr == nil {
			v.Ledger = ledger
			v.logger.WithField("chain_length", ledger.ChainLength()).Debug("restored chain from store")
			return nil
		}
		v.logger.WithError(lerr).Warn("Stored chain rejected, starting from genesis")
	} else {
		v.logger.WithError(err).Debug("No stored chain, starting from genesis")
	}

	v.Ledger = chain.NewLedger(logger)

	return nil
}

func (v *Valorium) initReputation() error {
	v.Reputation = reputation.New(v.Stencil, 0.5,
		v.logger.WithField("component", "reputation"))

	for _, n := range v.Nodes {
		v.Reputation.Bootstrap(n.Address, v.Config.InitialStake, v.Config.InitialRep)
	}

	return nil
}

func (v *Valorium) initProtocol() error {
	v.Matrix = genome.NewMatrix(v.logger.WithField("component", "genome"))

	conf := consensus.DefaultConfig()
	conf.RoundTimeout = v.Config.RoundTimeout
	conf.MaxBatch = v.Config.MaxBatch
	conf.Redundancy = v.Config.Redundancy

	v.Protocol = consensus.NewProtocol(conf, v.Nodes, v.Ledger, v.Reputation,
		v.Matrix, v.logger.WithField("component", "consensus"))

	return nil
}

func (v *Valorium) initService() error {
	if v.Config.NoService {
		return nil
	}

	v.Service = service.NewService(v.Config.ServiceAddr, v.Protocol, v.Ledger,
		v.Reputation, v.Stencil, v.Matrix,
		v.logger.WithField("component", "service"))

	return nil
}

// Init initializes every component in dependency order.
func (v *Valorium) Init() error {
	if err := v.initStencil(); err != nil {
		return err
	}
	if err := v.initNodes(); err != nil {
		return err
	}
	if err := v.initStore(); err != nil {
		return err
	}
	if err := v.initLedger(); err != nil {
		return err
	}
	if err := v.initReputation(); err != nil {
		return err
	}
	if err := v.initProtocol(); err != nil {
		return err
	}
	if err := v.initService(); err != nil {
		return err
	}

	return nil
}

// Run serves the HTTP API. This is a blocking call.
func (v *Valorium) Run() {
	if v.Service != nil {
		v.logger.WithField("service_addr", v.Config.ServiceAddr).Debug("Valorium engine running")
		v.Service.Serve()
	}
}

// Shutdown persists the ledger state and closes the store.
func (v *Valorium) Shutdown() error {
	v.logger.Debug("Shutting down")

	if err := v.Store.SaveState(v.Ledger.Snapshot()); err != nil {
		v.logger.WithError(err).Error("Saving state failed")
		return err
	}

	return v.Store.Close()
}
