package hierarchy

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

// Handler exposes organization and hierarchy node endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	audit     *shared.AuditLogger
	validator *validator.Validate
}

// NewHandler constructs the hierarchy HTTP handler.
func NewHandler(logger *slog.Logger, service *Service, audit *shared.AuditLogger) *Handler {
	return &Handler{logger: logger, service: service, audit: audit, validator: validator.New()}
}

// MountRoutes registers hierarchy endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/organizations", h.listOrganizations)
	r.Post("/organizations", h.createOrganization)
	r.Get("/organizations/{orgID}", h.getOrganization)
	r.Put("/organizations/{orgID}", h.updateOrganization)
	r.Delete("/organizations/{orgID}", h.deleteOrganization)

	r.Get("/organizations/{orgID}/nodes", h.listNodes)
	r.Post("/organizations/{orgID}/nodes", h.createNode)
	r.Delete("/nodes/{nodeID}", h.deleteNode)
	r.Get("/nodes/{nodeID}/path", h.resolvePath)
}

type organizationForm struct {
	Name    string `json:"name" validate:"required"`
	City    string `json:"city"`
	Country string `json:"country"`
	Type    string `json:"type" validate:"required,oneof=simple with_subsidiaries group"`
}

type nodeForm struct {
	Level          string `json:"level" validate:"required,oneof=business_line subsidiary site"`
	Name           string `json:"name" validate:"required"`
	BusinessLineID *int64 `json:"business_line_id"`
	SubsidiaryID   *int64 `json:"subsidiary_id"`
}

func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if !shared.ActorFromContext(r.Context()).Allow(shared.RoleAdmin) {
		httpx.RespondError(w, fmt.Errorf("hierarchy: admin role required: %w", shared.ErrForbidden))
		return false
	}
	return true
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", httpx.ErrValidation, name)
	}
	return id, nil
}

func (h *Handler) listOrganizations(w http.ResponseWriter, r *http.Request) {
	filters := shared.ListFilters{Search: r.URL.Query().Get("search")}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		filters.Page = page
	}
	if per, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil {
		filters.PerPage = per
	}
	orgs, total, err := h.service.ListOrganizations(r.Context(), filters)
	if err != nil {
		h.logger.Error("list organizations", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"organizations": orgs,
		"pagination":    shared.NewPagination(filters.Page, filters.PerPage, total),
	})
}

func (h *Handler) getOrganization(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	org, err := h.service.GetOrganization(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, org)
}

func (h *Handler) createOrganization(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	var form organizationForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	org, err := h.service.CreateOrganization(r.Context(), Organization{
		Name: form.Name, City: form.City, Country: form.Country, Type: OrgType(form.Type),
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.audit.Record(r.Context(), shared.AuditEntry{
		Actor:    shared.ActorFromContext(r.Context()),
		Action:   "ORG_CREATE",
		Entity:   "organization",
		EntityID: strconv.FormatInt(org.ID, 10),
		OrgID:    org.ID,
	})
	httpx.JSON(w, http.StatusCreated, org)
}

func (h *Handler) updateOrganization(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	id, err := pathID(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form organizationForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.service.UpdateOrganization(r.Context(), id, Organization{
		Name: form.Name, City: form.City, Country: form.Country, Type: OrgType(form.Type),
	}); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteOrganization(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	id, err := pathID(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteOrganization(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.audit.Record(r.Context(), shared.AuditEntry{
		Actor:    shared.ActorFromContext(r.Context()),
		Action:   "ORG_DELETE",
		Entity:   "organization",
		EntityID: strconv.FormatInt(id, 10),
		OrgID:    id,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listNodes(w http.ResponseWriter, r *http.Request) {
	orgID, err := pathID(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	nodes, err := h.service.ListNodes(r.Context(), orgID, Level(r.URL.Query().Get("level")))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"nodes": nodes})
}

func (h *Handler) createNode(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	orgID, err := pathID(r, "orgID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form nodeForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	node, err := h.service.CreateNode(r.Context(), Node{
		OrganizationID: orgID,
		Level:          Level(form.Level),
		Name:           form.Name,
		BusinessLineID: form.BusinessLineID,
		SubsidiaryID:   form.SubsidiaryID,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.audit.Record(r.Context(), shared.AuditEntry{
		Actor:    shared.ActorFromContext(r.Context()),
		Action:   "NODE_CREATE",
		Entity:   string(node.Level),
		EntityID: strconv.FormatInt(node.ID, 10),
		OrgID:    orgID,
	})
	httpx.JSON(w, http.StatusCreated, node)
}

func (h *Handler) deleteNode(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}
	id, err := pathID(r, "nodeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteNode(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) resolvePath(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "nodeID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	path, err := h.service.ResolvePath(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, path)
}
