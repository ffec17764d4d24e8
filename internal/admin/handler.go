package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vouch/internal/platform/middleware"
	"vouch/internal/transport/http/shared"
	id "vouch/pkg/domain"
	dErrors "vouch/pkg/domain-errors"
)

// Handler exposes the administrator setters over HTTP.
type Handler struct {
	registry *Registry
	logger   *slog.Logger
}

func NewHandler(registry *Registry, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Put("/admin/attestor", h.handleSetAttestor)
	r.Put("/admin/schema", h.handleSetSchema)
}

type setAttestorRequest struct {
	Endpoint string `json:"endpoint"`
}

type setSchemaRequest struct {
	SchemaID string `json:"schema_id"`
}

func (h *Handler) handleSetAttestor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req setAttestorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.registry.SetAttestorEndpoint(ctx, middleware.GetCaller(ctx), req.Endpoint); err != nil {
		h.logger.WarnContext(ctx, "set attestor endpoint failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetSchema(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req setSchemaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.registry.SetSchemaID(ctx, middleware.GetCaller(ctx), id.SchemaID(req.SchemaID)); err != nil {
		h.logger.WarnContext(ctx, "set schema id failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
