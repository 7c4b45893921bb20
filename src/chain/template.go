package chain

import (
	"time"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/common"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/crypto"
)

// RnaTemplate is the lightweight messenger created by the round's proposer.
// It commits the proposer to an exact, ordered transaction set by carrying
// only the transaction hashes, not the payloads.
type RnaTemplate struct {
	Proposer          string
	TransactionHashes []string
	Timestamp         int64

	hash string
}

// NewRnaTemplate transcribes a batch of transactions into a template.
func NewRnaTemplate(proposer string, transactions []*Transaction) *RnaTemplate {
	hashes := make([]string, len(transactions))
	for i, tx := range transactions {
		hashes[i] = tx.Hash()
	}

	return &RnaTemplate{
		Proposer:          proposer,
		TransactionHashes: hashes,
		Timestamp:         time.Now().UnixNano(),
	}
}

// Hash returns the template's canonical hash.
func (r *RnaTemplate) Hash() string {
	if r.hash == "" {
		digest, err := crypto.DigestCanonical(r)
		if err != nil {
			panic(err)
		}
		r.hash = common.EncodeToString(digest)
	}
	return r.hash
}
