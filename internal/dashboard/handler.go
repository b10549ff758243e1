package dashboard

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-esg/meridian-esg/internal/platform/httpx"
	"github.com/meridian-esg/meridian-esg/internal/shared"
)

// Handler exposes dashboard reads and the manual refresh hook.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/organizations/{orgID}/{year}", h.snapshot)
	r.Post("/refresh", h.refresh)
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	orgID, err := strconv.ParseInt(chi.URLParam(r, "orgID"), 10, 64)
	if err != nil || orgID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid orgID", httpx.ErrValidation))
		return
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid year", httpx.ErrValidation))
		return
	}
	snap, err := h.service.Snapshot(r.Context(), orgID, year)
	if err != nil {
		h.logger.Error("dashboard snapshot", slog.Int64("org_id", orgID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

// refresh rebuilds the projection on demand, outside the scheduled job.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if !shared.ActorFromContext(r.Context()).Allow(shared.RoleAdmin) {
		httpx.RespondError(w, fmt.Errorf("dashboard: admin role required: %w", shared.ErrForbidden))
		return
	}
	if err := h.service.Refresh(r.Context()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
