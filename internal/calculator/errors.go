package calculator

import (
	"errors"
	"fmt"
)

var (
	// ErrIntegrity is matched by every *IntegrityError.
	ErrIntegrity = errors.New("ledger integrity violation")

	// ErrUnbalanced is returned by Settle when balances do not sum to zero.
	ErrUnbalanced = errors.New("balances do not sum to zero")
)

// IntegrityError describes a ledger record that cannot be folded into balances.
type IntegrityError struct {
	// Record identifies the offending record, e.g. "expense e1" or "settlement s4".
	Record string
	Reason string
}

func (e *IntegrityError) Error() string {
	if e.Record == "" {
		return fmt.Sprintf("%s: %s", ErrIntegrity, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrIntegrity, e.Record, e.Reason)
}

// Is reports ErrIntegrity so callers can use errors.Is.
func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

func integrityErrorf(record, format string, args ...any) error {
	return &IntegrityError{Record: record, Reason: fmt.Sprintf(format, args...)}
}
