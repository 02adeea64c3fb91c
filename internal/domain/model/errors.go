package model

import (
	"errors"
	"fmt"
)

// ErrContractViolation is the kind of every malformed-input error.
var ErrContractViolation = errors.New("contract violation")

// ContractViolation describes input that breaks a data-model rule.
// The defect originates upstream (data source or configuration).
type ContractViolation struct {
	Field  string
	Index  int
	ID     string
	Reason string
}

func (e *ContractViolation) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s: %s (field %s, id %q, index %d)", ErrContractViolation, e.Reason, e.Field, e.ID, e.Index)
	}
	return fmt.Sprintf("%s: %s (field %s, index %d)", ErrContractViolation, e.Reason, e.Field, e.Index)
}

// Unwrap lets errors.Is match ErrContractViolation.
func (e *ContractViolation) Unwrap() error { return ErrContractViolation }
