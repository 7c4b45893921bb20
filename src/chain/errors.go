package chain

import (
	"errors"
	"fmt"
)

// ErrInsufficientFunds is returned when a transaction would overdraw its
// sender, accounting for already-pending debits.
var ErrInsufficientFunds = errors.New("insufficient funds")

// IntegrityError reports the first broken block found by Verify. It is always
// surfaced and never auto-repaired: repairing would hide tampering.
type IntegrityError struct {
	Index  int
	Reason string
}

// Error ...
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("chain integrity violation at block %d: %s", e.Index, e.Reason)
}

// IsIntegrity checks whether err is an IntegrityError.
func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
