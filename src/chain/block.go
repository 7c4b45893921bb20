package chain

import (
	"sort"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/common"
	"github.com/SylverbladeX/ValoriumX-Simulator/src/crypto"
)

// GenesisAnchor is the fixed anchor string the genesis proof is derived from.
const GenesisAnchor = "genesis_anchors"

// GenesisPreviousHash is the sentinel previous-hash of block 0.
var GenesisPreviousHash = common.EncodeToString(make([]byte, 32))

// Block is a final, validated block of the First Helix. Once sealed and
// appended it is immutable; the hash invariants can be re-verified at any
// time by recomputing them.
type Block struct {
	Index        int
	Timestamp    int64
	Transactions []*Transaction
	PreviousHash string
	TemplateHash string
	WinningProof *CipProof
	Attestations []*CipAttestation
	BlockHash    string
}

// NewBlock assembles an unsealed block. Seal must be called with the winning
// proof and attestations before the block can be appended.
func NewBlock(index int, timestamp int64, transactions []*Transaction, previousHash, templateHash string) *Block {
	return &Block{
		Index:        index,
		Timestamp:    timestamp,
		Transactions: transactions,
		PreviousHash: previousHash,
		TemplateHash: templateHash,
	}
}

// NewGenesisBlock creates block 0. Its fields are fixed so every fresh chain
// starts from the same block, and it satisfies the same hash invariants as
// any other block.
func NewGenesisBlock() *Block {
	template := NewRnaTemplate("genesis", nil)
	template.Timestamp = 0

	block := NewBlock(0, 0, nil, GenesisPreviousHash, template.Hash())

	proof := NewCipProof(template.Hash(),
		common.EncodeToString(crypto.SHA256([]byte(GenesisAnchor))))

	block.Seal(proof, nil)

	return block
}

// Seal sets the winning proof and attestation list and computes the block
// hash. Attestations are sorted by node address so the hash does not depend
// on collection order.
func (b *Block) Seal(proof *CipProof, attestations []*CipAttestation) {
	sorted := make([]*CipAttestation, len(attestations))
	copy(sorted, attestations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].NodeAddress < sorted[j].NodeAddress
	})

	b.WinningProof = proof
	b.Attestations = sorted
	b.BlockHash = b.ComputeHash()
}

// ComputeHash returns the canonical hash over every field except BlockHash
// itself.
func (b *Block) ComputeHash() string {
	shadow := *b
	shadow.BlockHash = ""

	digest, err := crypto.DigestCanonical(&shadow)
	if err != nil {
		panic(err)
	}
	return common.EncodeToString(digest)
}

// Marshal encodes the block as canonical JSON.
func (b *Block) Marshal() ([]byte, error) {
	return crypto.CanonicalMarshal(b)
}

// Unmarshal decodes a block encoded with Marshal.
func (b *Block) Unmarshal(data []byte) error {
	return crypto.CanonicalUnmarshal(data, b)
}
