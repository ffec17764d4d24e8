// Package admin holds the administrator-controlled wiring between the
// registry and the external attestation signer: the signer endpoint and the
// claim schema identifier. It is a capability-gated state holder with a
// single owner principal, not part of the core state machine.
package admin

import (
	"context"
	"sync"

	"vouch/internal/audit"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Registry stores the signer endpoint and schema id. All reads are safe for
// concurrent use; writes are restricted to the owner principal.
type Registry struct {
	mu       sync.RWMutex
	owner    id.Address
	endpoint string
	schemaID id.SchemaID

	publisher AuditPublisher
}

func NewRegistry(owner id.Address, endpoint string, schemaID id.SchemaID, publisher AuditPublisher) *Registry {
	return &Registry{
		owner:     owner,
		endpoint:  endpoint,
		schemaID:  schemaID,
		publisher: publisher,
	}
}

// SetAttestorEndpoint repoints the signer. Owner only.
func (r *Registry) SetAttestorEndpoint(ctx context.Context, caller id.Address, endpoint string) error {
	if err := r.requireOwner(caller); err != nil {
		return err
	}
	if endpoint == "" {
		return dErrors.New(dErrors.CodeValidation, "attestor endpoint cannot be empty")
	}
	r.mu.Lock()
	r.endpoint = endpoint
	r.mu.Unlock()
	r.emit(ctx, audit.ActionAttestorUpdated, caller)
	return nil
}

// SetSchemaID changes the claim schema identifier. Owner only.
func (r *Registry) SetSchemaID(ctx context.Context, caller id.Address, schemaID id.SchemaID) error {
	if err := r.requireOwner(caller); err != nil {
		return err
	}
	if schemaID.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "schema id cannot be empty")
	}
	r.mu.Lock()
	r.schemaID = schemaID
	r.mu.Unlock()
	r.emit(ctx, audit.ActionSchemaUpdated, caller)
	return nil
}

// AttestorEndpoint returns the signer base URL. Implements the attestor
// client's EndpointProvider.
func (r *Registry) AttestorEndpoint() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.endpoint
}

// SchemaID returns the current claim schema identifier.
func (r *Registry) SchemaID() id.SchemaID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemaID
}

func (r *Registry) requireOwner(caller id.Address) error {
	if caller != r.owner {
		return dErrors.New(dErrors.CodeUnauthorized, "only the administrator may change attestor wiring")
	}
	return nil
}

func (r *Registry) emit(ctx context.Context, action audit.Action, caller id.Address) {
	if r.publisher == nil {
		return
	}
	_ = r.publisher.Emit(ctx, audit.Event{Action: action, Actor: caller})
}
