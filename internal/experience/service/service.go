// Package service orchestrates the experience attestation lifecycle: claim
// creation, the two employer-binding paths, and the authorization-gated
// transitions into SIGNED or REJECTED. Each mutating entry point runs as one
// atomic transaction: preconditions first, the external signer call (for
// Sign) next, local writes last, so a failure anywhere leaves no partial
// state behind.
package service

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"vouch/internal/attestor"
	"vouch/internal/audit"
	"vouch/internal/experience/models"
	"vouch/internal/experience/store"
	"vouch/internal/platform/metrics"
	"vouch/internal/platform/middleware"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// SchemaProvider supplies the claim schema id registered with the signer.
type SchemaProvider interface {
	SchemaID() id.SchemaID
}

// AuditPublisher records committed domain events.
type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service is the experience attestation registry.
type Service struct {
	store    store.Store
	source   store.Store
	scope    *Scope
	attestor attestor.Attestor
	schema   SchemaProvider

	logger    *slog.Logger
	publisher AuditPublisher
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSource routes the read a transition decides on around any caching
// decorator wrapped over the primary store. Transition preconditions must see
// committed state; serving them a cached record could let a racing reader
// replay a gate that already fired.
func WithSource(src store.Store) Option {
	return func(s *Service) { s.source = src }
}

// New constructs a Service.
func New(st store.Store, scope *Scope, signer attestor.Attestor, schema SchemaProvider, opts ...Option) *Service {
	s := &Service{
		store:    st,
		source:   st,
		scope:    scope,
		attestor: signer,
		schema:   schema,
		tracer:   otel.Tracer("vouch/experience"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create records a new claim for the caller. Ids are allocated only after
// validation passes, so failed attempts never consume one. A claim naming an
// email that was previously promoted to a registered address resolves
// directly against that binding instead of re-entering the email path.
func (s *Service) Create(ctx context.Context, caller id.Address, req *models.CreateExperienceRequest) (id.ClaimID, error) {
	ctx, span := s.tracer.Start(ctx, "experience.Create")
	defer span.End()

	if caller.IsZero() {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "caller identity is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return 0, err
	}

	now := time.Now()
	rec := &models.Experience{
		Owner:             caller,
		Seeker:            models.SeekerIdentity{Name: req.SeekerName, Handle: req.SeekerHandle},
		SeekerAddress:     caller,
		EmployerName:      req.EmployerName,
		Role:              req.Role,
		EmploymentType:    req.EmploymentType,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		Description:       req.Description,
		AttestationStatus: models.AttestationNotInitiated,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	switch {
	case !req.EmployerAddress.IsZero():
		rec.EmployerAddress = req.EmployerAddress
		rec.EmployerHandle = req.EmployerHandle
		rec.EmployerStatus = models.EmployerRegistered
	default:
		binding, err := s.store.EmailBinding(ctx, req.EmployerEmail)
		switch {
		case err == nil:
			// The email was already promoted: route through the known
			// address instead of re-entering the unregistered path.
			rec.EmployerAddress = binding.Address
			rec.EmployerHandle = binding.Handle
			rec.EmployerStatus = models.EmployerRegistered
		case errors.Is(err, store.ErrNotFound):
			rec.EmployerEmail = req.EmployerEmail
			rec.EmployerStatus = models.EmployerUnregistered
		default:
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve employer email")
		}
	}

	claimID, err := s.store.Create(ctx, rec)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store experience")
	}

	s.incExperiencesCreated()
	s.logAudit(ctx, audit.Event{
		Action:        audit.ActionExperienceCreated,
		ClaimID:       claimID,
		Actor:         caller,
		Owner:         caller,
		Employer:      rec.EmployerAddress,
		EmployerEmail: rec.EmployerEmail,
	}, "employer_status", string(rec.EmployerStatus))
	return claimID, nil
}

// Get returns a claim by id. The zero id is the "does not exist" sentinel.
func (s *Service) Get(ctx context.Context, claimID id.ClaimID) (*models.Experience, error) {
	if claimID.IsZero() {
		return nil, dErrors.New(dErrors.CodeNotFound, "experience not found")
	}
	rec, err := s.store.Get(ctx, claimID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "experience not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load experience")
	}
	return rec, nil
}

// load fetches a claim from the uncached source for transition checks.
func (s *Service) load(ctx context.Context, claimID id.ClaimID) (*models.Experience, error) {
	if claimID.IsZero() {
		return nil, dErrors.New(dErrors.CodeNotFound, "experience not found")
	}
	rec, err := s.source.Get(ctx, claimID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "experience not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load experience")
	}
	return rec, nil
}

// ChooseEmployer confirms the claim's creation-time employer address and
// advances the claim into PENDING. This is the single gate into PENDING for
// the address path: creation never advances status, even when an address was
// supplied at creation time. The confirmed address must be the one the claim
// already names; the employer identity on a claim never changes after
// creation.
func (s *Service) ChooseEmployer(ctx context.Context, caller id.Address, claimID id.ClaimID, employer id.Address) error {
	ctx, span := s.tracer.Start(ctx, "experience.ChooseEmployer")
	defer span.End()

	if employer.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "employer address is required")
	}
	if err := s.scope.Enter(claimID); err != nil {
		return err
	}
	defer s.scope.Exit(claimID)

	rec, err := s.load(ctx, claimID)
	if err != nil {
		return err
	}
	if err := requireOwner(rec, caller); err != nil {
		return err
	}
	if err := requireStatus(rec, models.AttestationNotInitiated); err != nil {
		return err
	}
	if rec.EmployerStatus != models.EmployerRegistered {
		return dErrors.New(dErrors.CodeInvalidState,
			"claim identifies its employer by email; promote it via employer registration instead")
	}
	if employer != rec.EmployerAddress {
		return dErrors.New(dErrors.CodeValidation,
			"employer address does not match the claim's employer")
	}

	if err := advance(rec, models.AttestationPending); err != nil {
		return err
	}
	rec.UpdatedAt = time.Now()
	err = s.store.Update(ctx, rec, store.IndexMoves{AppendEmployerIndex: true})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to bind employer")
	}

	s.incEmployersChosen()
	s.logAudit(ctx, audit.Event{
		Action:   audit.ActionEmployerChosen,
		ClaimID:  claimID,
		Actor:    caller,
		Owner:    rec.Owner,
		Employer: employer,
	})
	return nil
}

// RegisterEmployer promotes a claim created against an employer email to a
// registered address. At most one address is ever bound to a given email
// across the whole system; the first registration wins and later attempts
// fail, regardless of the address they carry.
func (s *Service) RegisterEmployer(ctx context.Context, claimID id.ClaimID, employer id.Address, handle id.Handle) error {
	ctx, span := s.tracer.Start(ctx, "experience.RegisterEmployer")
	defer span.End()

	if employer.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "employer address is required")
	}
	if handle.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "employer handle is required")
	}
	if err := s.scope.Enter(claimID); err != nil {
		return err
	}
	defer s.scope.Exit(claimID)

	rec, err := s.load(ctx, claimID)
	if err != nil {
		return err
	}
	if rec.EmployerStatus != models.EmployerUnregistered {
		return dErrors.New(dErrors.CodeInvalidState, "claim employer is already registered")
	}
	if err := requireStatus(rec, models.AttestationNotInitiated); err != nil {
		return err
	}
	if rec.EmployerEmail.IsZero() {
		return dErrors.New(dErrors.CodeInvalidState, "claim has no employer email to promote")
	}
	email := rec.EmployerEmail
	if _, err := s.store.EmailBinding(ctx, email); err == nil {
		return dErrors.New(dErrors.CodeConflict, "email is already bound to a registered employer")
	} else if !errors.Is(err, store.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email binding")
	}

	if err := advance(rec, models.AttestationPending); err != nil {
		return err
	}
	now := time.Now()
	rec.EmployerAddress = employer
	rec.EmployerHandle = handle
	rec.EmployerStatus = models.EmployerRegistered
	rec.EmployerEmail = "" // address is authoritative from here on
	rec.UpdatedAt = now
	err = s.store.Update(ctx, rec, store.IndexMoves{
		AppendEmployerIndex: true,
		RemoveEmailIndex:    true,
		BindEmail: &models.EmailBinding{
			Email:   email,
			Address: employer,
			Handle:  handle,
			BoundAt: now,
		},
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "email is already bound to a registered employer")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register employer")
	}

	s.incEmployersRegistered()
	s.logAudit(ctx, audit.Event{
		Action:        audit.ActionEmployerRegistered,
		ClaimID:       claimID,
		Actor:         employer,
		Owner:         rec.Owner,
		Employer:      employer,
		EmployerEmail: email,
	})
	return nil
}

// Sign lets the bound employer confirm the claim. The external signer is
// invoked before any local write: if it fails or returns a zero credential
// id, the claim stays PENDING and no event is emitted.
func (s *Service) Sign(ctx context.Context, caller id.Address, claimID id.ClaimID, seeker id.Address) (id.CredentialID, error) {
	ctx, span := s.tracer.Start(ctx, "experience.Sign")
	defer span.End()

	if err := s.scope.Enter(claimID); err != nil {
		return 0, err
	}
	defer s.scope.Exit(claimID)

	rec, err := s.load(ctx, claimID)
	if err != nil {
		return 0, err
	}
	if err := requireStatus(rec, models.AttestationPending); err != nil {
		return 0, err
	}
	if rec.EmployerStatus != models.EmployerRegistered {
		return 0, dErrors.New(dErrors.CodeInvalidState, "claim employer is not registered")
	}
	if err := requireEmployer(rec, caller); err != nil {
		return 0, err
	}
	if seeker != rec.SeekerAddress {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "seeker identity does not match the claim")
	}

	// Encode once; the same bytes feed the digest and the signer call.
	encoded, err := attestor.NewPayload(rec).Encode()
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build attestation payload")
	}
	digest := attestor.Digest(encoded)

	recipients := []id.Address{rec.EmployerAddress, rec.SeekerAddress}
	credID, err := s.attestor.Attest(ctx, s.schema.SchemaID(), encoded, digest, recipients)
	if err != nil {
		s.incCollaboratorFailures()
		if dErrors.HasCode(err, dErrors.CodeCollaborator) {
			return 0, err
		}
		return 0, dErrors.Wrap(err, dErrors.CodeCollaborator, "attestation signer call failed")
	}
	if credID.IsZero() {
		s.incCollaboratorFailures()
		return 0, dErrors.New(dErrors.CodeCollaborator, "attestation signer returned a zero credential id")
	}

	if err := advance(rec, models.AttestationSigned); err != nil {
		return 0, err
	}
	rec.CredentialID = credID
	rec.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, rec, store.IndexMoves{}); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record signed attestation")
	}

	s.incAttestationsSigned()
	s.logAudit(ctx, audit.Event{
		Action:       audit.ActionAttestationSigned,
		ClaimID:      claimID,
		Actor:        caller,
		Owner:        rec.Owner,
		Employer:     rec.EmployerAddress,
		CredentialID: credID,
	}, "payload_digest", hex.EncodeToString(digest[:]))
	return credID, nil
}

// Reject lets the bound employer refuse the claim. Terminal and
// irreversible.
func (s *Service) Reject(ctx context.Context, caller id.Address, claimID id.ClaimID) error {
	ctx, span := s.tracer.Start(ctx, "experience.Reject")
	defer span.End()

	if err := s.scope.Enter(claimID); err != nil {
		return err
	}
	defer s.scope.Exit(claimID)

	rec, err := s.load(ctx, claimID)
	if err != nil {
		return err
	}
	if err := requireStatus(rec, models.AttestationPending); err != nil {
		return err
	}
	if err := requireEmployer(rec, caller); err != nil {
		return err
	}

	if err := advance(rec, models.AttestationRejected); err != nil {
		return err
	}
	rec.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, rec, store.IndexMoves{}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record rejection")
	}

	s.incAttestationsRejected()
	s.logAudit(ctx, audit.Event{
		Action:   audit.ActionAttestationRejected,
		ClaimID:  claimID,
		Actor:    caller,
		Owner:    rec.Owner,
		Employer: rec.EmployerAddress,
	})
	return nil
}

// ListByOwner returns the owner's claims in creation order.
func (s *Service) ListByOwner(ctx context.Context, owner id.Address) ([]*models.Experience, error) {
	recs, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list experiences by owner")
	}
	return recs, nil
}

// ListByEmployer returns the claims bound to an employer, in binding order.
func (s *Service) ListByEmployer(ctx context.Context, employer id.Address) ([]*models.Experience, error) {
	recs, err := s.store.ListByEmployer(ctx, employer)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list experiences by employer")
	}
	return recs, nil
}

// ListByEmployerEmail returns the claims still awaiting registration under
// an employer email.
func (s *Service) ListByEmployerEmail(ctx context.Context, email id.Email) ([]*models.Experience, error) {
	recs, err := s.store.ListByEmployerEmail(ctx, email)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list experiences by employer email")
	}
	return recs, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.Event, attributes ...any) {
	if requestID := middleware.GetRequestID(ctx); requestID != "" {
		event.RequestID = requestID
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes,
		"event", string(event.Action),
		"claim_id", event.ClaimID.String(),
		"log_type", "audit",
	)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event.Action), args...)
	}
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Emit(ctx, event)
}

func (s *Service) incExperiencesCreated() {
	if s.metrics != nil {
		s.metrics.ExperiencesCreated.Inc()
	}
}

func (s *Service) incEmployersChosen() {
	if s.metrics != nil {
		s.metrics.EmployersChosen.Inc()
	}
}

func (s *Service) incEmployersRegistered() {
	if s.metrics != nil {
		s.metrics.EmployersRegistered.Inc()
	}
}

func (s *Service) incAttestationsSigned() {
	if s.metrics != nil {
		s.metrics.AttestationsSigned.Inc()
	}
}

func (s *Service) incAttestationsRejected() {
	if s.metrics != nil {
		s.metrics.AttestationsRejected.Inc()
	}
}

func (s *Service) incCollaboratorFailures() {
	if s.metrics != nil {
		s.metrics.CollaboratorFailures.Inc()
	}
}
