package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-esg/meridian-esg/internal/platform/httpx"
	"github.com/meridian-esg/meridian-esg/internal/shared"
)

// Handler exposes the value ledger and its workflow over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs the ledger HTTP handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers ledger endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/values", h.list)
	r.Post("/values", h.write)
	r.Get("/values/{valueID}", h.get)
	r.Get("/values/{valueID}/history", h.history)

	r.Post("/values/{valueID}/submit", h.submit)
	r.Post("/values/{valueID}/approve", h.approve)
	r.Post("/values/{valueID}/reject", h.reject)

	r.Post("/values/submit-all", h.submitAll)
	r.Post("/values/approve-all", h.approveAll)
	r.Post("/values/reject-all", h.rejectAll)
}

type writeForm struct {
	OrganizationID int64  `json:"organization_id" validate:"required,gt=0"`
	BusinessLineID *int64 `json:"business_line_id"`
	SubsidiaryID   *int64 `json:"subsidiary_id"`
	SiteID         *int64 `json:"site_id"`
	ProcessCode    string `json:"process_code" validate:"required"`
	IndicatorCode  string `json:"indicator_code" validate:"required"`
	Period         string `json:"period" validate:"required"`
	Value          string `json:"value"`
	Unit           string `json:"unit"`
}

type reviewForm struct {
	Comment string `json:"comment"`
}

type batchForm struct {
	OrganizationID int64  `json:"organization_id" validate:"required,gt=0"`
	BusinessLineID *int64 `json:"business_line_id"`
	SubsidiaryID   *int64 `json:"subsidiary_id"`
	SiteID         *int64 `json:"site_id"`
	ProcessCode    string `json:"process_code"`
	IndicatorCode  string `json:"indicator_code"`
	Period         string `json:"period"`
	Comment        string `json:"comment"`
}

func requireRole(w http.ResponseWriter, r *http.Request, roles ...shared.Role) bool {
	if !shared.ActorFromContext(r.Context()).Allow(roles...) {
		httpx.RespondError(w, fmt.Errorf("ledger: insufficient role: %w", shared.ErrForbidden))
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

func filterFromQuery(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	orgID, err := strconv.ParseInt(q.Get("organization_id"), 10, 64)
	if err != nil || orgID <= 0 {
		return Filter{}, fmt.Errorf("%w: organization_id required", httpx.ErrValidation)
	}
	f := Filter{
		OrganizationID: orgID,
		ProcessCode:    q.Get("process"),
		IndicatorCode:  q.Get("indicator"),
		Status:         Status(q.Get("status")),
	}
	optID := func(name string) *int64 {
		if v, err := strconv.ParseInt(q.Get(name), 10, 64); err == nil && v > 0 {
			return &v
		}
		return nil
	}
	f.Scope.BusinessLineID = optID("business_line_id")
	f.Scope.SubsidiaryID = optID("subsidiary_id")
	f.Scope.SiteID = optID("site_id")
	if period := q.Get("period"); period != "" {
		year, month, err := shared.ParsePeriod(period)
		if err != nil {
			return Filter{}, err
		}
		f.Year, f.Month = year, month
	} else if year, err := strconv.Atoi(q.Get("year")); err == nil {
		if err := shared.ValidateYear(year); err != nil {
			return Filter{}, err
		}
		f.Year = year
	}
	return f, nil
}

func filterFromForm(form batchForm) (Filter, error) {
	f := Filter{
		OrganizationID: form.OrganizationID,
		Scope:          Scope{BusinessLineID: form.BusinessLineID, SubsidiaryID: form.SubsidiaryID, SiteID: form.SiteID},
		ProcessCode:    form.ProcessCode,
		IndicatorCode:  form.IndicatorCode,
	}
	if form.Period != "" {
		year, month, err := shared.ParsePeriod(form.Period)
		if err != nil {
			return Filter{}, err
		}
		f.Year, f.Month = year, month
	}
	return f, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	values, err := h.service.List(r.Context(), f)
	if err != nil {
		h.logger.Error("list indicator values", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"values": values})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "valueID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	row, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "valueID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	row, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	events, err := h.service.History(r.Context(), row.UID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"row_uid": row.UID, "events": events})
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, shared.RoleContributor, shared.RoleAdmin) {
		return
	}
	var form writeForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	row, err := h.service.Write(r.Context(), shared.ActorFromContext(r.Context()), WriteInput{
		OrganizationID: form.OrganizationID,
		Scope:          Scope{BusinessLineID: form.BusinessLineID, SubsidiaryID: form.SubsidiaryID, SiteID: form.SiteID},
		ProcessCode:    form.ProcessCode,
		IndicatorCode:  form.IndicatorCode,
		Period:         form.Period,
		RawValue:       form.Value,
		Unit:           form.Unit,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, shared.RoleContributor, shared.RoleAdmin) {
		return
	}
	id, err := pathID(r, "valueID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	row, err := h.service.Submit(r.Context(), shared.ActorFromContext(r.Context()), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.service.Reject)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, actor shared.Actor, id int64, comment string) (IndicatorValue, error)) {
	if !requireRole(w, r, shared.RoleValidator, shared.RoleAdmin) {
		return
	}
	id, err := pathID(r, "valueID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var form reviewForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	row, err := apply(r.Context(), shared.ActorFromContext(r.Context()), id, form.Comment)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, row)
}

func (h *Handler) submitAll(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, shared.RoleContributor, shared.RoleAdmin) {
		return
	}
	h.batchOp(w, r, func(f Filter, form batchForm) (BatchResult, error) {
		f.Status = StatusDraft
		return h.service.SubmitAll(r.Context(), shared.ActorFromContext(r.Context()), f)
	})
}

func (h *Handler) approveAll(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, shared.RoleValidator, shared.RoleAdmin) {
		return
	}
	h.batchOp(w, r, func(f Filter, form batchForm) (BatchResult, error) {
		return h.service.ApproveAll(r.Context(), shared.ActorFromContext(r.Context()), f, form.Comment)
	})
}

func (h *Handler) rejectAll(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, shared.RoleValidator, shared.RoleAdmin) {
		return
	}
	h.batchOp(w, r, func(f Filter, form batchForm) (BatchResult, error) {
		return h.service.RejectAll(r.Context(), shared.ActorFromContext(r.Context()), f, form.Comment)
	})
}

func (h *Handler) batchOp(w http.ResponseWriter, r *http.Request, run func(Filter, batchForm) (BatchResult, error)) {
	var form batchForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	if err := h.validator.Struct(form); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	f, err := filterFromForm(form)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	res, err := run(f, form)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}
