// Package consensus implements the attestation protocol: one proposer
// transcribes a template, every eligible attester independently re-derives
// the integrity proof, and the round commits when a quorum lands on the same
// proof hash.
package consensus

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/chain"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/genome"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/node"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/reputation"
)

// AbortError reports a round that failed to commit. Aborted rounds return
// their transactions to the pending buffer; nothing is lost.
type AbortError struct {
	Round  int
	Reason string
}

// Error ...
func (e *AbortError) Error() string {
	return fmt.Sprintf("round %d aborted: %s", e.Round, e.Reason)
}

// IsAbort checks whether err is an AbortError.
func IsAbort(err error) bool {
	var ae *AbortError
	return errors.As(err, &ae)
}

// Stats are the protocol's running counters.
type Stats struct {
	RoundsAttempted int
	RoundsCommitted int
	RoundsAborted   int
	MaliciousNodes  int
}

// Protocol drives consensus rounds over a fixed validator set. Rounds are
// strictly sequential; RunRound holds the protocol lock for the whole round,
// so state transitions observed through State() always belong to the round in
// flight.
type Protocol struct {
	sync.Mutex
	roundState

	conf       *Config
	validators []*node.Node

	ledger     *chain.Ledger
	reputation *reputation.Ledger
	matrix     *genome.Matrix

	stats   Stats
	slashed map[string]bool

	logger *logrus.Entry
}

// NewProtocol ...
func NewProtocol(
	conf *Config,
	validators []*node.Node,
	ledger *chain.Ledger,
	rep *reputation.Ledger,
	matrix *genome.Matrix,
	logger *logrus.Entry,
) *Protocol {
	if conf.Verify == nil {
		conf.Verify = DefaultConfig().Verify
	}

	return &Protocol{
		conf:       conf,
		validators: validators,
		ledger:     ledger,
		reputation: rep,
		matrix:     matrix,
		slashed:    make(map[string]bool),
		logger:     logger,
	}
}

// State returns the state of the round in flight, or of the last round when
// the protocol is between rounds.
func (p *Protocol) State() RoundState {
	return p.getState()
}

// Stats returns a copy of the running counters.
func (p *Protocol) Stats() Stats {
	p.Lock()
	defer p.Unlock()
	return p.stats
}

// Validators returns the current validator set.
func (p *Protocol) Validators() []*node.Node {
	p.Lock()
	defer p.Unlock()

	res := make([]*node.Node, len(p.validators))
	copy(res, p.validators)
	return res
}

// RemoveValidator drops a node from the validator set and regenerates the
// fragments it held. It models a node failure.
func (p *Protocol) RemoveValidator(address string) error {
	p.Lock()

	kept := make([]*node.Node, 0, len(p.validators))
	for _, n := range p.validators {
		if n.Address != address {
			kept = append(kept, n)
		}
	}
	p.validators = kept

	p.Unlock()

	return p.matrix.OnNodeFailure(address)
}

// proposers returns the validators allowed to propose.
func (p *Protocol) proposers() []*node.Node {
	res := make([]*node.Node, 0, len(p.validators))
	for _, n := range p.validators {
		if n.CanPropose {
			res = append(res, n)
		}
	}
	return res
}

// attesters returns the validators allowed and eligible to attest.
func (p *Protocol) attesters() []*node.Node {
	res := make([]*node.Node, 0, len(p.validators))
	for _, n := range p.validators {
		if n.CanAttest && p.reputation.Eligible(n, p.conf.ReputationFloor) {
			res = append(res, n)
		}
	}
	return res
}

// ExpectedProposer returns the node that proposes in the given round.
// Proposer selection is round-robin over the proposing validators.
func (p *Protocol) ExpectedProposer(round int) *node.Node {
	p.Lock()
	defer p.Unlock()

	proposers := p.proposers()
	if len(proposers) == 0 {
		return nil
	}
	return proposers[round%len(proposers)]
}

// Quorum returns the attestation threshold for n attesters: floor(n*2/3)+1.
func Quorum(n int) int {
	return n*2/3 + 1
}

// RunRound drives one full consensus round: proposal, concurrent attestation
// collection, quorum evaluation, then commit or abort. It returns the
// committed block, or nil with an AbortError.
func (p *Protocol) RunRound() (*chain.Block, error) {
	p.Lock()
	defer p.Unlock()

	round := p.stats.RoundsAttempted
	p.stats.RoundsAttempted++

	logger := p.logger.WithField("round", round)

	proposers := p.proposers()
	if len(proposers) == 0 {
		return nil, p.abort(round, nil, "no proposing validators")
	}

	proposer := proposers[round%len(proposers)]
	logger = logger.WithField("proposer", proposer.Address)

	// Compliance gate. A proposer running unregistered software, or one
	// whose reputation fell below the floor, is slashed and the round
	// aborts before any transaction is taken.
	if !p.reputation.Eligible(proposer, p.conf.ReputationFloor) {
		p.slash(proposer.Address)
		return nil, p.abort(round, nil, "proposer not eligible")
	}

	batch := p.ledger.TakePending(p.conf.MaxBatch)

	template := chain.NewRnaTemplate(proposer.Address, batch)
	p.setState(ProposalIssued)

	// One anchors snapshot per round. Every honest attester derives its
	// proof from this same snapshot.
	anchorsHash := p.ledger.Anchors().Hash()
	expected := chain.NewCipProof(template.Hash(), anchorsHash)

	attesters := p.attesters()
	quorum := Quorum(len(attesters))

	logger.WithFields(logrus.Fields{
		"transactions": len(batch),
		"attesters":    len(attesters),
		"quorum":       quorum,
	}).Debug("RNA template transcribed")

	p.setState(AttestationsCollecting)
	received := p.collect(attesters, template.Hash(), anchorsHash)

	p.setState(QuorumEvaluated)

	winner, votes := p.tally(received)

	// Silent nodes, invalid signatures and wrong proofs are all slashed,
	// whether or not the round ends up committing.
	for _, n := range attesters {
		att := received[n.Address]
		if att == nil || att.ProofHash != winner {
			p.slash(n.Address)
		}
	}

	if winner != expected.ProofHash {
		p.ledger.ReturnPending(batch)
		return nil, p.abort(round, logger, "winning hash diverges from the derived proof")
	}

	if len(votes) < quorum {
		p.ledger.ReturnPending(batch)
		return nil, p.abort(round, logger,
			fmt.Sprintf("quorum not reached: %d/%d attestations", len(votes), quorum))
	}

	block := chain.NewBlock(p.ledger.ChainLength(), time.Now().UnixNano(),
		batch, p.ledger.LastBlock().BlockHash, template.Hash())
	block.Seal(expected, votes)

	if err := p.ledger.Commit(block); err != nil {
		p.ledger.ReturnPending(batch)
		return nil, p.abort(round, logger, err.Error())
	}

	p.reward(proposer, votes)
	p.archive(block)

	p.stats.RoundsCommitted++
	p.setState(Committed)

	logger.WithFields(logrus.Fields{
		"block":        block.Index,
		"attestations": len(votes),
	}).Info("Round committed")

	return block, nil
}

// collect polls every attester concurrently and joins the results, bounded by
// the round timeout. A node that has not answered when the timeout fires is
// recorded as silent.
func (p *Protocol) collect(attesters []*node.Node, templateHash, anchorsHash string) map[string]*chain.CipAttestation {
	type result struct {
		address string
		att     *chain.CipAttestation
	}

	ch := make(chan result, len(attesters))
	for _, n := range attesters {
		go func(n *node.Node) {
			att, err := n.Attest(templateHash, anchorsHash)
			if err != nil {
				p.logger.WithField("node", n.Address).WithError(err).Warn("Attestation failed")
				att = nil
			}
			ch <- result{n.Address, att}
		}(n)
	}

	received := make(map[string]*chain.CipAttestation, len(attesters))

	timeout := time.After(p.conf.RoundTimeout)
	for i := 0; i < len(attesters); i++ {
		select {
		case res := <-ch:
			received[res.address] = res.att
		case <-timeout:
			return received
		}
	}

	return received
}

// tally counts the well-signed attestations per proof hash and returns the
// winning hash with its supporting attestations, sorted by address. The
// winner is the plurality; ties break to the lexicographically smallest hash
// so the outcome never depends on map order.
func (p *Protocol) tally(received map[string]*chain.CipAttestation) (string, []*chain.CipAttestation) {
	byProof := make(map[string][]*chain.CipAttestation)

	for _, att := range received {
		if att == nil {
			continue
		}
		if !p.conf.Verify(att.PublicKey,
			chain.AttestationSignBytes(att.ProofHash, att.NodeAddress), att.Signature) {
			p.logger.WithField("node", att.NodeAddress).Warn("Attestation signature invalid")
			continue
		}
		byProof[att.ProofHash] = append(byProof[att.ProofHash], att)
	}

	winner := ""
	for hash, atts := range byProof {
		if winner == "" ||
			len(atts) > len(byProof[winner]) ||
			(len(atts) == len(byProof[winner]) && hash < winner) {
			winner = hash
		}
	}

	votes := byProof[winner]
	sort.Slice(votes, func(i, j int) bool {
		return votes[i].NodeAddress < votes[j].NodeAddress
	})

	return winner, votes
}

// slash punishes a node and credits the confiscated stake to the treasury.
func (p *Protocol) slash(address string) {
	confiscated := p.reputation.Slash(address, p.conf.SlashingPenalty)
	if confiscated > 0 {
		p.ledger.Credit(chain.TreasuryAddress, confiscated)
	}

	if !p.slashed[address] {
		p.slashed[address] = true
		p.stats.MaliciousNodes++
	}
}

// reward mints the round reward and raises reputations. The proposer takes
// its share; the winning attesters split the remainder evenly.
func (p *Protocol) reward(proposer *node.Node, votes []*chain.CipAttestation) {
	proposerCut := p.conf.RoundReward * p.conf.ProposerShare
	p.ledger.Mint(proposer.Address, proposerCut)
	p.reputation.Reward(proposer.Address, p.conf.ProposerRepIncrement)

	if len(votes) == 0 {
		return
	}

	attesterCut := (p.conf.RoundReward - proposerCut) / float64(len(votes))
	for _, att := range votes {
		p.ledger.Mint(att.NodeAddress, attesterCut)
		p.reputation.Reward(att.NodeAddress, p.conf.AttesterRepIncrement)
	}
}

// archive distributes the sealed block as a genome fragment across the
// validator set. Archiving failures are logged, not fatal: the block is
// already committed.
func (p *Protocol) archive(block *chain.Block) {
	data, err := block.Marshal()
	if err != nil {
		p.logger.WithError(err).Error("Block serialization failed")
		return
	}

	targets := make([]string, len(p.validators))
	for i, n := range p.validators {
		targets[i] = n.Address
	}

	fragment := genome.NewFragment(fmt.Sprintf("block_%d", block.Index), data, p.conf.Redundancy)
	if err := p.matrix.Distribute(fragment, targets); err != nil {
		p.logger.WithError(err).Warn("Block fragment not distributed")
	}
}

// abort finalizes a failed round.
func (p *Protocol) abort(round int, logger *logrus.Entry, reason string) error {
	p.stats.RoundsAborted++
	p.setState(Aborted)

	if logger == nil {
		logger = p.logger.WithField("round", round)
	}
	logger.WithField("reason", reason).Warn("Round aborted")

	return &AbortError{Round: round, Reason: reason}
}
