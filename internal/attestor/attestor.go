// Package attestor defines the contract with the external attestation
// signer and packages claim data into the immutable payload it consumes.
// The signer itself is a black box: it accepts a schema id, an encoded
// payload, and the recipient identities, and returns a non-zero credential
// identifier on success.
package attestor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/sha3"

	"vouch/internal/experience/models"
	id "vouch/pkg/domain"
)

// Attestor is the port consumed by the signing transition. The digest is
// computed over the payload bytes exactly once, by the caller; the signer
// binds the credential to it. A zero credential id or an error both mean the
// signer rejected the attestation.
type Attestor interface {
	Attest(ctx context.Context, schemaID id.SchemaID, payload []byte, digest [32]byte, recipients []id.Address) (id.CredentialID, error)
}

// Payload is the immutable attestation content built from a claim at signing
// time. Field order is fixed by the struct so the encoding is canonical.
type Payload struct {
	ClaimID        id.ClaimID `json:"claim_id"`
	Role           string     `json:"role"`
	EmploymentType string     `json:"employment_type"`
	StartDate      time.Time  `json:"start_date"`
	EndDate        time.Time  `json:"end_date"`
	EmployerName   string     `json:"employer_name"`
	EmployerHandle id.Handle  `json:"employer_handle"`
	SeekerName     string     `json:"seeker_name"`
	SeekerHandle   id.Handle  `json:"seeker_handle"`
	SeekerAddress  id.Address `json:"seeker_address"`
}

// NewPayload builds the payload from a claim's attestation-relevant fields.
func NewPayload(rec *models.Experience) Payload {
	return Payload{
		ClaimID:        rec.ID,
		Role:           rec.Role,
		EmploymentType: rec.EmploymentType,
		StartDate:      rec.StartDate,
		EndDate:        rec.EndDate,
		EmployerName:   rec.EmployerName,
		EmployerHandle: rec.EmployerHandle,
		SeekerName:     rec.Seeker.Name,
		SeekerHandle:   rec.Seeker.Handle,
		SeekerAddress:  rec.SeekerAddress,
	}
}

// Encode serializes the payload canonically for the signer.
func (p Payload) Encode() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode attestation payload: %w", err)
	}
	return data, nil
}

// Digest returns the SHA3-256 digest of an encoded payload. It is included
// in the signing request so the signer can bind the credential to exact
// claim content.
func Digest(encoded []byte) [32]byte {
	return sha3.Sum256(encoded)
}
