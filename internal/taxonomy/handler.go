package taxonomy

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-esg/meridian-esg/internal/platform/httpx"
	"github.com/meridian-esg/meridian-esg/internal/shared"
)

// Handler exposes taxonomy reference data endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	audit     *shared.AuditLogger
	validator *validator.Validate
}

// NewHandler constructs the taxonomy HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, audit *shared.AuditLogger) *Handler {
	return &Handler{logger: logger, service: service, audit: audit, validator: validator.New()}
}

// MountRoutes registers taxonomy endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{kind}", h.list)
	r.Get("/{kind}/{code}", h.get)
	r.Post("/{kind}", h.create)
	r.Put("/{kind}/{code}", h.update)
	r.Delete("/{kind}/{code}", h.delete)
	r.Get("/process/{code}/indicators", h.processIndicators)
	r.Put("/process/{code}/indicators", h.setProcessIndicators)
	r.Post("/indicator/ensure", h.ensureIndicator)
}

type elementForm struct {
	Code        string   `json:"code" validate:"required"`
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Unit        string   `json:"unit"`
	Axis        string   `json:"axis"`
	Formula     string   `json:"formula"`
	Frequency   string   `json:"frequency"`
	Type        string   `json:"type"`
	Target      *float64 `json:"target"`
}

func (f elementForm) element() Element {
	return Element{
		Code:        f.Code,
		Name:        f.Name,
		Description: f.Description,
		Unit:        f.Unit,
		Axis:        Axis(f.Axis),
		Formula:     Formula(f.Formula),
		Frequency:   Frequency(f.Frequency),
		Type:        ValueType(f.Type),
		Target:      f.Target,
	}
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request) (ElementStore, bool) {
	kind, err := ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	store, err := h.service.ForKind(kind)
	if err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	return store, true
}

func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !shared.ActorFromContext(r.Context()).Allow(shared.RoleAdmin) {
		httpx.RespondError(w, fmt.Errorf("taxonomy: admin role required: %w", shared.ErrForbidden))
		return false
	}
	return true
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	filters := shared.ListFilters{Search: r.URL.Query().Get("search")}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		filters.Page = page
	}
	if per, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil {
		filters.PerPage = per
	}
	elements, total, err := store.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list taxonomy elements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"elements":   elements,
		"pagination": shared.NewPagination(filters.Page, filters.PerPage, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	el, err := store.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, el)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var form elementForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	el, err := store.Create(r.Context(), form.element())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.audit.Record(r.Context(), shared.AuditEntry{
		Actor:    shared.ActorFromContext(r.Context()),
		Action:   "TAXONOMY_CREATE",
		Entity:   string(el.Kind),
		EntityID: el.Code,
	})
	httpx.JSON(w, http.StatusCreated, el)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var form elementForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	code := chi.URLParam(r, "code")
	if err := store.Update(r.Context(), code, form.element()); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.audit.Record(r.Context(), shared.AuditEntry{
		Actor:    shared.ActorFromContext(r.Context()),
		Action:   "TAXONOMY_UPDATE",
		Entity:   chi.URLParam(r, "kind"),
		EntityID: NormalizeCode(code),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	code := chi.URLParam(r, "code")
	if err := store.Delete(r.Context(), code); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.audit.Record(r.Context(), shared.AuditEntry{
		Actor:    shared.ActorFromContext(r.Context()),
		Action:   "TAXONOMY_DELETE",
		Entity:   chi.URLParam(r, "kind"),
		EntityID: NormalizeCode(code),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) processIndicators(w http.ResponseWriter, r *http.Request) {
	codes, err := h.service.ProcessIndicators(r.Context(), NormalizeCode(chi.URLParam(r, "code")))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"indicator_codes": codes})
}

type processIndicatorsForm struct {
	IndicatorCodes []string `json:"indicator_codes" validate:"required"`
}

func (h *Handler) setProcessIndicators(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var form processIndicatorsForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	code := NormalizeCode(chi.URLParam(r, "code"))
	if err := h.service.SetProcessIndicators(r.Context(), code, form.IndicatorCodes); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ensureIndicatorForm struct {
	Code    string `json:"code" validate:"required"`
	Name    string `json:"name"`
	Formula string `json:"formula"`
	Unit    string `json:"unit"`
	Axis    string `json:"axis"`
}

func (h *Handler) ensureIndicator(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var form ensureIndicatorForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	el, err := h.service.EnsureIndicator(r.Context(), form.Code, form.Name, Formula(form.Formula), form.Unit, Axis(form.Axis))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, el)
}
