package service

import (
	"sync"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// Scope is the exclusive transaction scope acquired by every mutating entry
// point for the duration of the call, including the external signer
// invocation inside Sign. A claim whose scope is held cannot be mutated
// again until the scope is released on every exit path; a nested reentry
// (for example the signer calling back into the registry mid-transaction)
// is rejected rather than deadlocked.
type Scope struct {
	mu       sync.Mutex
	inFlight map[id.ClaimID]struct{}
}

func NewScope() *Scope {
	return &Scope{inFlight: make(map[id.ClaimID]struct{})}
}

// Enter marks the claim's transaction as in flight. It fails with a conflict
// when another mutation on the same claim has not finished, which covers
// both reentrant calls and concurrent writers racing on one claim.
func (s *Scope) Enter(claimID id.ClaimID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[claimID]; busy {
		return dErrors.Newf(dErrors.CodeConflict, "claim %s has a mutation in flight", claimID)
	}
	s.inFlight[claimID] = struct{}{}
	return nil
}

// Exit releases the claim's transaction scope.
func (s *Scope) Exit(claimID id.ClaimID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, claimID)
}
