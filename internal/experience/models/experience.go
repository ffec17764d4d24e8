package models

import (
	"strings"
	"time"

	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// SeekerIdentity pairs the claimant's display name with their verifiable
// handle.
type SeekerIdentity struct {
	Name   string    `json:"name"`
	Handle id.Handle `json:"handle"`
}

// Experience is the aggregate root for one employment-experience claim.
//
// Invariants:
//   - ID is non-zero, unique, and never reused
//   - Owner and SeekerAddress are immutable after creation
//   - Exactly one of EmployerAddress / EmployerEmail is authoritative before
//     signing; once EmployerStatus is REGISTERED the address is authoritative
//     and the email is cleared
//   - AttestationStatus only moves along the transition table in status.go
//   - Descriptive fields are immutable once the claim is signed
type Experience struct {
	ID     id.ClaimID     `json:"id"`
	Owner  id.Address     `json:"owner"`
	Seeker SeekerIdentity `json:"seeker"`
	// SeekerAddress equals Owner; kept as its own field for symmetry with
	// the employer side of the record.
	SeekerAddress id.Address `json:"seeker_address"`

	EmployerName    string         `json:"employer_name"`
	EmployerHandle  id.Handle      `json:"employer_handle,omitempty"`
	EmployerAddress id.Address     `json:"employer_address,omitempty"`
	EmployerEmail   id.Email       `json:"employer_email,omitempty"`
	EmployerStatus  EmployerStatus `json:"employer_status"`

	Role           string    `json:"role"`
	EmploymentType string    `json:"employment_type,omitempty"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Description    string    `json:"description,omitempty"`

	AttestationStatus AttestationStatus `json:"attestation_status"`
	// CredentialID is the external signer's identifier, set once signed.
	CredentialID id.CredentialID `json:"credential_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmailBinding records the one employer address ever bound to an email.
// First registration wins; the binding is global and never rewritten.
type EmailBinding struct {
	Email   id.Email   `json:"email"`
	Address id.Address `json:"address"`
	Handle  id.Handle  `json:"handle"`
	BoundAt time.Time  `json:"bound_at"`
}

// CreateExperienceRequest is the input for recording a new claim.
// Exactly one employer identification is required: a known address (with its
// handle) or an email for an as-yet-unregistered employer.
type CreateExperienceRequest struct {
	SeekerName   string    `json:"seeker_name"`
	SeekerHandle id.Handle `json:"seeker_handle"`

	EmployerName    string     `json:"employer_name"`
	EmployerAddress id.Address `json:"employer_address,omitempty"`
	EmployerHandle  id.Handle  `json:"employer_handle,omitempty"`
	EmployerEmail   id.Email   `json:"employer_email,omitempty"`

	Role           string    `json:"role"`
	EmploymentType string    `json:"employment_type,omitempty"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Description    string    `json:"description,omitempty"`
}

// Normalize trims whitespace and lowercases the employer email.
func (r *CreateExperienceRequest) Normalize() {
	r.SeekerName = strings.TrimSpace(r.SeekerName)
	r.SeekerHandle = id.Handle(strings.TrimSpace(string(r.SeekerHandle)))
	r.EmployerName = strings.TrimSpace(r.EmployerName)
	r.EmployerHandle = id.Handle(strings.TrimSpace(string(r.EmployerHandle)))
	r.EmployerEmail = id.Email(strings.ToLower(strings.TrimSpace(string(r.EmployerEmail))))
	r.Role = strings.TrimSpace(r.Role)
	r.EmploymentType = strings.TrimSpace(r.EmploymentType)
	r.Description = strings.TrimSpace(r.Description)
}

// Validate checks the creation preconditions. The address path requires an
// employer handle; the email path requires a well-formed employer email.
func (r *CreateExperienceRequest) Validate() error {
	if r.Role == "" {
		return dErrors.New(dErrors.CodeValidation, "role is required")
	}
	if r.SeekerHandle.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "seeker handle is required")
	}
	if r.EmployerName == "" {
		return dErrors.New(dErrors.CodeValidation, "employer name is required")
	}
	if !r.EmployerAddress.IsZero() {
		if _, err := id.ParseAddress(string(r.EmployerAddress)); err != nil {
			return dErrors.Wrap(err, dErrors.CodeValidation, "invalid employer address")
		}
		if r.EmployerHandle.IsZero() {
			return dErrors.New(dErrors.CodeValidation, "employer handle is required when an employer address is given")
		}
		return nil
	}
	if _, err := id.ParseEmail(string(r.EmployerEmail)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "employer email is required when no employer address is given")
	}
	return nil
}
