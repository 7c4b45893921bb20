package quadrit

import "fmt"

// Quadrit is the fundamental 4-state information unit of Valorium X. Each
// quadrit carries 2 bits, so a byte maps to exactly 4 quadrits. The symbols
// A, T, C and G follow the DNA-base naming of the whitepaper.
type Quadrit byte

const (
	A Quadrit = iota
	T
	C
	G
)

var symbols = []byte{'A', 'T', 'C', 'G'}

// String ...
func (q Quadrit) String() string {
	if q > G {
		return "?"
	}
	return string(symbols[q])
}

// Encode converts bytes to a quadrit sequence, most significant pair first.
// The output length is always exactly 4 times the input length.
func Encode(data []byte) []Quadrit {
	quadrits := make([]Quadrit, 0, 4*len(data))
	for _, b := range data {
		quadrits = append(quadrits,
			Quadrit((b>>6)&0x03),
			Quadrit((b>>4)&0x03),
			Quadrit((b>>2)&0x03),
			Quadrit(b&0x03),
		)
	}
	return quadrits
}

// Decode converts a quadrit sequence back to bytes. A sequence whose length is
// not a multiple of 4 is padded with trailing A quadrits (zero bits) up to the
// next 4-quadrit boundary before decoding; Decode(Encode(x)) == x for every
// byte string, including the empty one, because Encode always produces full
// groups.
func Decode(quadrits []Quadrit) ([]byte, error) {
	if rem := len(quadrits) % 4; rem != 0 {
		padded := make([]Quadrit, len(quadrits), len(quadrits)+4-rem)
		copy(padded, quadrits)
		for i := 0; i < 4-rem; i++ {
			padded = append(padded, A)
		}
		quadrits = padded
	}

	data := make([]byte, 0, len(quadrits)/4)
	for i := 0; i < len(quadrits); i += 4 {
		var b byte
		for j := 0; j < 4; j++ {
			q := quadrits[i+j]
			if q > G {
				return nil, fmt.Errorf("invalid quadrit value %d at position %d", q, i+j)
			}
			b |= byte(q) << uint(6-2*j)
		}
		data = append(data, b)
	}
	return data, nil
}

// EncodeToString converts bytes to the letter representation of their quadrit
// sequence (eg. "ATCG...").
func EncodeToString(data []byte) string {
	quadrits := Encode(data)
	out := make([]byte, len(quadrits))
	for i, q := range quadrits {
		out[i] = symbols[q]
	}
	return string(out)
}

// ParseSequence converts a letter representation back to a quadrit sequence.
func ParseSequence(s string) ([]Quadrit, error) {
	quadrits := make([]Quadrit, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A':
			quadrits[i] = A
		case 'T':
			quadrits[i] = T
		case 'C':
			quadrits[i] = C
		case 'G':
			quadrits[i] = G
		default:
			return nil, fmt.Errorf("invalid quadrit symbol %q at position %d", s[i], i)
		}
	}
	return quadrits, nil
}

// DecodeString converts a letter representation back to bytes. It applies the
// same A-padding rule as Decode.
func DecodeString(s string) ([]byte, error) {
	quadrits, err := ParseSequence(s)
	if err != nil {
		return nil, err
	}
	return Decode(quadrits)
}
