package httptransport

import (
	"net/http"

	"teambot/internal/domain"
	"teambot/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler exposes the read-only ops surface: administrators can inspect
// the request store without going through Discord.
type Handler struct {
	service service.Service
}

func NewHandler(svc service.Service) *Handler {
	return &Handler{
		service: svc,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Route("/requests", func(r chi.Router) {
		r.Get("/", h.ListRequests)
		r.Get("/{name}", h.GetRequest)
	})

	r.Get("/health", h.Health)

	return r
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	status := domain.RequestStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.StatusPending
	}

	switch status {
	case domain.StatusPending, domain.StatusApproved, domain.StatusRejected:
	default:
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "status must be pending, approved or rejected")
		return
	}

	requests, err := h.service.ListRequests(r.Context(), status)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	result := make([]requestPayload, 0, len(requests))
	for _, req := range requests {
		result = append(result, mapRequest(req))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":   string(status),
		"requests": result,
	})
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "BAD_REQUEST", "name is required")
		return
	}

	req, err := h.service.GetRequest(r.Context(), name)
	if err != nil {
		h.handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, mapRequest(req))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Health(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "UNHEALTHY", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleDomainError(w http.ResponseWriter, err error) {
	switch err {
	case nil:
		return
	case domain.ErrRequestNotFound:
		respondError(w, http.StatusNotFound, "NOT_FOUND", "team request not found")
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}
