package consol

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-esg/meridian-esg/internal/ledger"
	"github.com/meridian-esg/meridian-esg/internal/platform/httpx"
	"github.com/meridian-esg/meridian-esg/internal/shared"
	"github.com/meridian-esg/meridian-esg/internal/taxonomy"
)

// Handler exposes consolidation reads and target management over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	audit     *shared.AuditLogger
	validator *validator.Validate
}

// NewHandler constructs the consolidation HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, audit *shared.AuditLogger) *Handler {
	return &Handler{logger: logger, service: service, audit: audit, validator: validator.New()}
}

// MountRoutes registers consolidation endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/organizations/{orgID}/{year}", h.consolidate)
	r.Put("/organizations/{orgID}/targets", h.setTarget)
	r.Delete("/organizations/{orgID}/targets/{code}/{year}", h.deleteTarget)
}

type targetForm struct {
	IndicatorCode string  `json:"indicator_code" validate:"required"`
	Year          int     `json:"year" validate:"required"`
	Value         float64 `json:"value" validate:"required"`
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", httpx.ErrValidation, name)
	}
	return id, nil
}

func pathYear(r *http.Request) (int, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return 0, fmt.Errorf("%w: invalid year", httpx.ErrValidation)
	}
	if err := shared.ValidateYear(year); err != nil {
		return 0, err
	}
	return year, nil
}

func scopeFromQuery(r *http.Request) ledger.Scope {
	var scope ledger.Scope
	optID := func(name string) *int64 {
		if v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64); err == nil && v > 0 {
			return &v
		}
		return nil
	}
	scope.BusinessLineID = optID("business_line_id")
	scope.SubsidiaryID = optID("subsidiary_id")
	scope.SiteID = optID("site_id")
	return scope
}

func (h *Handler) consolidate(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	year, err := pathYear(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.Consolidate(r.Context(), orgID, scopeFromQuery(r), year)
	if err != nil {
		h.logger.Error("consolidate", slog.Int64("org_id", orgID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if code := r.URL.Query().Get("indicator"); code != "" {
		result = result.Only(taxonomy.NormalizeCode(code))
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) setTarget(w http.ResponseWriter, r *http.Request) {
	if !shared.ActorFromContext(r.Context()).Allow(shared.RoleAdmin) {
		httpx.RespondError(w, fmt.Errorf("consol: admin role required: %w", shared.ErrForbidden))
		return
	}
	orgID, err := pathID(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form targetForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	target := Target{
		OrganizationID: orgID,
		IndicatorCode:  form.IndicatorCode,
		Year:           form.Year,
		Value:          form.Value,
	}
	if err := h.service.SetTarget(r.Context(), target); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.audit.Record(r.Context(), shared.AuditEntry{
		Actor:    shared.ActorFromContext(r.Context()),
		Action:   "TARGET_SET",
		Entity:   "indicator_target",
		EntityID: form.IndicatorCode,
		OrgID:    orgID,
	})
	httpx.JSON(w, http.StatusOK, target)
}

func (h *Handler) deleteTarget(w http.ResponseWriter, r *http.Request) {
	if !shared.ActorFromContext(r.Context()).Allow(shared.RoleAdmin) {
		httpx.RespondError(w, fmt.Errorf("consol: admin role required: %w", shared.ErrForbidden))
		return
	}
	orgID, err := pathID(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	year, err := pathYear(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteTarget(r.Context(), orgID, chi.URLParam(r, "code"), year); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
