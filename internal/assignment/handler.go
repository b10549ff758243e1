package assignment

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-esg/meridian-esg/internal/platform/httpx"
	"github.com/meridian-esg/meridian-esg/internal/shared"
	"github.com/meridian-esg/meridian-esg/internal/taxonomy"
)

// Handler exposes assignment endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	audit     *shared.AuditLogger
	validator *validator.Validate
}

// NewHandler constructs the assignment HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, audit *shared.AuditLogger) *Handler {
	return &Handler{logger: logger, service: service, audit: audit, validator: validator.New()}
}

// MountRoutes registers assignment endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/organizations/{orgID}/sector", h.sector)
	r.Put("/organizations/{orgID}/sector", h.setSector)
	r.Get("/organizations/{orgID}/{kind}", h.codes)
	r.Put("/organizations/{orgID}/{kind}", h.setCodes)
	r.Delete("/organizations/{orgID}/{kind}", h.remove)
}

func (h *Handler) params(r *http.Request) (int64, taxonomy.Kind, error) {
	orgID, err := strconv.ParseInt(chi.URLParam(r, "orgID"), 10, 64)
	if err != nil || orgID <= 0 {
		return 0, "", fmt.Errorf("%w: invalid organization id", httpx.ErrValidation)
	}
	kind, err := taxonomy.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return 0, "", err
	}
	return orgID, kind, nil
}

func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !shared.ActorFromContext(r.Context()).Allow(shared.RoleAdmin) {
		httpx.RespondError(w, fmt.Errorf("assignment: admin role required: %w", shared.ErrForbidden))
		return false
	}
	return true
}

func (h *Handler) codes(w http.ResponseWriter, r *http.Request) {
	orgID, kind, err := h.params(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	codes, err := h.service.Codes(r.Context(), orgID, kind)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, Assignment{OrganizationID: orgID, Kind: kind, Codes: codes})
}

type codesForm struct {
	Codes []string `json:"codes" validate:"required"`
}

func (h *Handler) setCodes(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	orgID, kind, err := h.params(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form codesForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.service.SetCodes(r.Context(), orgID, kind, form.Codes); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.audit.Record(r.Context(), shared.AuditEntry{
		Actor:    shared.ActorFromContext(r.Context()),
		Action:   "ASSIGNMENT_REPLACE",
		Entity:   string(kind),
		EntityID: strconv.FormatInt(orgID, 10),
		OrgID:    orgID,
		Meta:     map[string]any{"codes": len(form.Codes)},
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	orgID, kind, err := h.params(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.RemoveAssignment(r.Context(), orgID, kind); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.audit.Record(r.Context(), shared.AuditEntry{
		Actor:    shared.ActorFromContext(r.Context()),
		Action:   "ASSIGNMENT_DELETE",
		Entity:   string(kind),
		EntityID: strconv.FormatInt(orgID, 10),
		OrgID:    orgID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sector(w http.ResponseWriter, r *http.Request) {
	orgID, err := strconv.ParseInt(chi.URLParam(r, "orgID"), 10, 64)
	if err != nil || orgID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid organization id", httpx.ErrValidation))
		return
	}
	assign, err := h.service.Sector(r.Context(), orgID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, assign)
}

type sectorForm struct {
	SectorCode    string `json:"sector_code" validate:"required"`
	SubsectorCode string `json:"subsector_code"`
}

func (h *Handler) setSector(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	orgID, err := strconv.ParseInt(chi.URLParam(r, "orgID"), 10, 64)
	if err != nil || orgID <= 0 {
		httpx.RespondError(w, fmt.Errorf("%w: invalid organization id", httpx.ErrValidation))
		return
	}
	var form sectorForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.service.SetSector(r.Context(), orgID, form.SectorCode, form.SubsectorCode); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
