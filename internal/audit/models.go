package audit

import (
	"time"

	"github.com/google/uuid"

	id "vouch/pkg/domain"
)

// Action names a domain event. Events are emitted only after a mutating
// operation commits, never on a rolled-back attempt.
type Action string

const (
	ActionExperienceCreated   Action = "experience_created"
	ActionEmployerChosen      Action = "employer_chosen"
	ActionEmployerRegistered  Action = "employer_registered"
	ActionAttestationSigned   Action = "attestation_signed"
	ActionAttestationRejected Action = "attestation_rejected"

	// Admin configuration changes also leave an audit trail.
	ActionAttestorUpdated Action = "attestor_endpoint_updated"
	ActionSchemaUpdated   Action = "schema_id_updated"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID            uuid.UUID       `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	Action        Action          `json:"action"`
	ClaimID       id.ClaimID      `json:"claim_id,omitempty"`
	Actor         id.Address      `json:"actor,omitempty"`
	Owner         id.Address      `json:"owner,omitempty"`
	Employer      id.Address      `json:"employer,omitempty"`
	EmployerEmail id.Email        `json:"employer_email,omitempty"`
	CredentialID  id.CredentialID `json:"credential_id,omitempty"`
	RequestID     string          `json:"request_id,omitempty"`
}
