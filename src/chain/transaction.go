package chain

import (
	"fmt"
	"time"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/common"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/crypto"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/quadrit"
)

const (
	// IssuanceSender is the distinguished sender used for minting; its
	// transactions bypass the balance check and are never debited.
	IssuanceSender = "Network Reward"

	// TreasuryAddress receives slashed stakes.
	TreasuryAddress = "ValoriumX_Treasury"
)

// Transaction is a single value transfer. The optional payload travels as a
// quadrit sequence, like all Valorium X data. A transaction is immutable once
// constructed; its identity is the canonical hash of its fields.
type Transaction struct {
	Sender    string
	Recipient string
	Amount    float64
	Payload   string // quadrit sequence (A/T/C/G letters)
	Timestamp int64

	hash string
}

// NewTransaction creates a transaction, encoding the data payload to
// quadrits. The timestamp is set at construction time.
func NewTransaction(sender, recipient string, amount float64, data []byte) *Transaction {
	return &Transaction{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Payload:   quadrit.EncodeToString(data),
		Timestamp: time.Now().UnixNano(),
	}
}

// PayloadBytes decodes the quadrit payload back to bytes.
func (tx *Transaction) PayloadBytes() ([]byte, error) {
	return quadrit.DecodeString(tx.Payload)
}

// Validate checks the transaction's basic shape. Balance checks are the
// Ledger's responsibility.
func (tx *Transaction) Validate() error {
	if tx.Sender == "" || tx.Recipient == "" {
		return fmt.Errorf("transaction must include sender and recipient")
	}
	if tx.Amount <= 0 {
		return fmt.Errorf("transaction amount must be positive, got %f", tx.Amount)
	}
	if _, err := quadrit.DecodeString(tx.Payload); err != nil {
		return fmt.Errorf("invalid quadrit payload: %v", err)
	}
	return nil
}

// Hash returns the transaction's canonical hash. It is computed once and
// cached.
func (tx *Transaction) Hash() string {
	if tx.hash == "" {
		digest, err := crypto.DigestCanonical(tx)
		if err != nil {
			// The canonical encoder cannot fail on this struct.
			panic(err)
		}
		tx.hash = common.EncodeToString(digest)
	}
	return tx.hash
}
