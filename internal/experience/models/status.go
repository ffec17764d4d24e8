// Package models defines the experience claim aggregate and its attestation
// state machine.
//
// Valid attestation status graph:
//
//	NOT_INITIATED ──► PENDING ──► SIGNED
//	                     │
//	                     └──────► REJECTED
//
// SIGNED and REJECTED are terminal states. No transition skips PENDING and
// there are no self-loops.
package models

import "fmt"

// AttestationStatus tracks where a claim sits in its lifecycle.
type AttestationStatus string

const (
	AttestationNotInitiated AttestationStatus = "NOT_INITIATED"
	AttestationPending      AttestationStatus = "PENDING"
	AttestationSigned       AttestationStatus = "SIGNED"
	AttestationRejected     AttestationStatus = "REJECTED"
)

// validTransitions lists every allowed (from → to) pair.
var validTransitions = map[AttestationStatus][]AttestationStatus{
	AttestationNotInitiated: {AttestationPending},
	AttestationPending:      {AttestationSigned, AttestationRejected},
	// SIGNED and REJECTED are terminal: no outgoing transitions
}

// ParseAttestationStatus converts a raw string to an AttestationStatus,
// returning an error for unknown values.
func ParseAttestationStatus(s string) (AttestationStatus, error) {
	st := AttestationStatus(s)
	switch st {
	case AttestationNotInitiated, AttestationPending, AttestationSigned, AttestationRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown attestation status %q", s)
}

// CanTransitionTo returns true when moving from s → to is permitted by the
// state machine.
func (s AttestationStatus) CanTransitionTo(to AttestationStatus) bool {
	allowed, ok := validTransitions[s]
	if !ok {
		return false // terminal state, no outgoing transitions
	}
	for _, next := range allowed {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal returns true for SIGNED and REJECTED.
func (s AttestationStatus) IsTerminal() bool {
	_, ok := validTransitions[s]
	return !ok
}

// EmployerStatus tracks whether the claim's employer is known by address or
// only by email.
type EmployerStatus string

const (
	EmployerUnregistered EmployerStatus = "UNREGISTERED"
	EmployerRegistered   EmployerStatus = "REGISTERED"
)

// ParseEmployerStatus converts a raw string to an EmployerStatus.
func ParseEmployerStatus(s string) (EmployerStatus, error) {
	st := EmployerStatus(s)
	switch st {
	case EmployerUnregistered, EmployerRegistered:
		return st, nil
	}
	return "", fmt.Errorf("unknown employer status %q", s)
}
