// Package handler is the thin HTTP layer over the experience service. It
// decodes requests, resolves the caller from the authenticated context, and
// delegates; business rules stay in the service.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vouch/internal/experience/models"
	"vouch/internal/platform/middleware"
	"vouch/internal/transport/http/shared"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// Service defines the experience operations the handler depends on.
type Service interface {
	Create(ctx context.Context, caller id.Address, req *models.CreateExperienceRequest) (id.ClaimID, error)
	Get(ctx context.Context, claimID id.ClaimID) (*models.Experience, error)
	ChooseEmployer(ctx context.Context, caller id.Address, claimID id.ClaimID, employer id.Address) error
	RegisterEmployer(ctx context.Context, claimID id.ClaimID, employer id.Address, handle id.Handle) error
	Sign(ctx context.Context, caller id.Address, claimID id.ClaimID, seeker id.Address) (id.CredentialID, error)
	Reject(ctx context.Context, caller id.Address, claimID id.ClaimID) error
	ListByOwner(ctx context.Context, owner id.Address) ([]*models.Experience, error)
	ListByEmployer(ctx context.Context, employer id.Address) ([]*models.Experience, error)
	ListByEmployerEmail(ctx context.Context, email id.Email) ([]*models.Experience, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the experience routes on the (already authenticated)
// router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/experiences", h.handleCreate)
	r.Get("/experiences", h.handleList)
	r.Get("/experiences/{id}", h.handleGet)
	r.Post("/experiences/{id}/employer", h.handleChooseEmployer)
	r.Post("/experiences/{id}/register", h.handleRegisterEmployer)
	r.Post("/experiences/{id}/sign", h.handleSign)
	r.Post("/experiences/{id}/reject", h.handleReject)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetCaller(ctx)

	var req models.CreateExperienceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid create experience request", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	claimID, err := h.service.Create(ctx, caller, &req)
	if err != nil {
		h.warn(ctx, "create experience failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, createExperienceResponse{ID: claimID})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	claimID, err := claimIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	rec, err := h.service.Get(r.Context(), claimID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, rec)
}

// handleList dispatches on the query key: owner, employer, or
// employer_email. Exactly one must be present.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	switch {
	case q.Get("owner") != "":
		owner, err := id.ParseAddress(q.Get("owner"))
		if err != nil {
			shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid owner"))
			return
		}
		h.writeList(ctx, w, func() ([]*models.Experience, error) {
			return h.service.ListByOwner(ctx, owner)
		})
	case q.Get("employer") != "":
		employer, err := id.ParseAddress(q.Get("employer"))
		if err != nil {
			shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid employer"))
			return
		}
		h.writeList(ctx, w, func() ([]*models.Experience, error) {
			return h.service.ListByEmployer(ctx, employer)
		})
	case q.Get("employer_email") != "":
		email, err := id.ParseEmail(q.Get("employer_email"))
		if err != nil {
			shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid employer email"))
			return
		}
		h.writeList(ctx, w, func() ([]*models.Experience, error) {
			return h.service.ListByEmployerEmail(ctx, email)
		})
	default:
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest,
			"one of owner, employer, or employer_email query parameters is required"))
	}
}

func (h *Handler) writeList(ctx context.Context, w http.ResponseWriter, list func() ([]*models.Experience, error)) {
	recs, err := list()
	if err != nil {
		h.warn(ctx, "list experiences failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, listResponse{Experiences: recs})
}

func (h *Handler) handleChooseEmployer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claimID, err := claimIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req chooseEmployerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	employer, err := id.ParseAddress(req.EmployerAddress)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid employer address"))
		return
	}
	if err := h.service.ChooseEmployer(ctx, middleware.GetCaller(ctx), claimID, employer); err != nil {
		h.warn(ctx, "choose employer failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRegisterEmployer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claimID, err := claimIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req registerEmployerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	employer, err := id.ParseAddress(req.EmployerAddress)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid employer address"))
		return
	}
	if err := h.service.RegisterEmployer(ctx, claimID, employer, id.Handle(req.EmployerHandle)); err != nil {
		h.warn(ctx, "register employer failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claimID, err := claimIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req signRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	seeker, err := id.ParseAddress(req.SeekerAddress)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "invalid seeker address"))
		return
	}
	credID, err := h.service.Sign(ctx, middleware.GetCaller(ctx), claimID, seeker)
	if err != nil {
		h.warn(ctx, "sign failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, signResponse{CredentialID: credID})
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claimID, err := claimIDParam(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.Reject(ctx, middleware.GetCaller(ctx), claimID); err != nil {
		h.warn(ctx, "reject failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func claimIDParam(r *http.Request) (id.ClaimID, error) {
	raw := chi.URLParam(r, "id")
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, dErrors.Newf(dErrors.CodeNotFound, "unknown experience id %q", raw)
	}
	return id.ClaimID(parsed), nil
}

func (h *Handler) warn(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(ctx),
	)
}
