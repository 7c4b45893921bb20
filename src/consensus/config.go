package consensus

import (
	"time"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/crypto/keys"
)

// Config groups the tunables of the attestation protocol.
type Config struct {
	// ReputationFloor is the minimum reputation required to participate.
	ReputationFloor float64

	// SlashingPenalty is the stake confiscated from a misbehaving node.
	SlashingPenalty float64

	// RoundReward is the total VQX minted per committed round. The proposer
	// takes ProposerShare of it; the winning attesters split the rest evenly.
	RoundReward   float64
	ProposerShare float64

	// ProposerRepIncrement and AttesterRepIncrement are the reputation gains
	// on a committed round.
	ProposerRepIncrement float64
	AttesterRepIncrement float64

	// RoundTimeout bounds attestation collection. A node that does not answer
	// in time is treated as silent.
	RoundTimeout time.Duration

	// MaxBatch caps the transactions per template. <= 0 means no cap.
	MaxBatch int

	// Redundancy is the fragment redundancy factor for committed blocks.
	Redundancy int

	// Verify checks an attestation signature. Injected so tests can bypass
	// real cryptography; defaults to secp256k1 verification.
	Verify func(pubKeyHex string, data []byte, signature string) bool
}

// DefaultConfig returns the protocol constants of the reference network.
func DefaultConfig() *Config {
	return &Config{
		ReputationFloor:      0.5,
		SlashingPenalty:      100,
		RoundReward:          100,
		ProposerShare:        0.2,
		ProposerRepIncrement: 0.05,
		AttesterRepIncrement: 0.02,
		RoundTimeout:         1 * time.Second,
		MaxBatch:             100,
		Redundancy:           3,
		Verify:               keys.VerifySignatureHex,
	}
}
