package service

import (
	"vouch/internal/experience/models"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// Authorization is the same shape for every transition: one required
// principal, checked before any mutation. Centralizing the checks keeps the
// entry points free of ad hoc comparisons.

// requireOwner gates transitions only the claim's creator may drive.
func requireOwner(rec *models.Experience, caller id.Address) error {
	if caller != rec.Owner {
		return dErrors.New(dErrors.CodeUnauthorized, "only the claim owner may perform this operation")
	}
	return nil
}

// requireEmployer gates transitions only the bound employer may drive.
func requireEmployer(rec *models.Experience, caller id.Address) error {
	if rec.EmployerAddress.IsZero() || caller != rec.EmployerAddress {
		return dErrors.New(dErrors.CodeUnauthorized, "only the bound employer may perform this operation")
	}
	return nil
}

// requireStatus gates transitions on the claim's current attestation status.
func requireStatus(rec *models.Experience, want models.AttestationStatus) error {
	if rec.AttestationStatus != want {
		return dErrors.Newf(dErrors.CodeInvalidState,
			"operation requires status %s, claim is %s", want, rec.AttestationStatus)
	}
	return nil
}

// advance moves the claim to the target status. The transition table in the
// models package is the single source of truth for which moves are legal.
func advance(rec *models.Experience, to models.AttestationStatus) error {
	if !rec.AttestationStatus.CanTransitionTo(to) {
		return dErrors.Newf(dErrors.CodeInvalidState,
			"claim cannot move from %s to %s", rec.AttestationStatus, to)
	}
	rec.AttestationStatus = to
	return nil
}
