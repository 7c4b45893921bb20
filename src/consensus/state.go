package consensus

import "sync/atomic"

// RoundState captures where a consensus round stands: Idle, ProposalIssued,
// AttestationsCollecting, QuorumEvaluated, Committed, or Aborted.
type RoundState uint32

const (
	//Idle is the state between rounds.
	Idle RoundState = iota
	//ProposalIssued means the proposer has transcribed a template.
	ProposalIssued
	//AttestationsCollecting means attesters are being polled.
	AttestationsCollecting
	//QuorumEvaluated means attestations are tallied.
	QuorumEvaluated
	//Committed is a settled round.
	Committed
	//Aborted is a failed round.
	Aborted
)

// String ...
func (s RoundState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case ProposalIssued:
		return "ProposalIssued"
	case AttestationsCollecting:
		return "AttestationsCollecting"
	case QuorumEvaluated:
		return "QuorumEvaluated"
	case Committed:
		return "Committed"
	case Aborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

type roundState struct {
	state RoundState
}

func (r *roundState) getState() RoundState {
	stateAddr := (*uint32)(&r.state)
	return RoundState(atomic.LoadUint32(stateAddr))
}

func (r *roundState) setState(s RoundState) {
	stateAddr := (*uint32)(&r.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}
