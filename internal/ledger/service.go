package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-esg/meridian-esg/internal/shared"
	"github.com/meridian-esg/meridian-esg/internal/taxonomy"
)

// Catalog is the slice of the taxonomy service the ledger needs: resolving
// processes and auto-creating indicators referenced by data entry.
type Catalog interface {
	EnsureIndicator(ctx context.Context, code, name string, formula taxonomy.Formula, unit string, axis taxonomy.Axis) (taxonomy.Element, error)
	ForKind(kind taxonomy.Kind) (taxonomy.ElementStore, error)
}

// ScopeValidator checks that a write's hierarchy references resolve to a
// complete path inside the organization.
type ScopeValidator interface {
	ValidateScope(ctx context.Context, orgID int64, businessLineID, subsidiaryID, siteID *int64) error
}

// Invalidator is notified when validated data changes so downstream
// projections can drop stale reads.
type Invalidator interface {
	Invalidate(ctx context.Context, orgID int64)
}

// HistoryStore persists the per-row workflow trail. Satisfied by
// shared.WorkflowRecorder.
type HistoryStore interface {
	Record(ctx context.Context, event shared.WorkflowEvent) error
	List(ctx context.Context, rowUID uuid.UUID) ([]shared.WorkflowEvent, error)
}

// WriteInput carries one contributor write to the ledger.
type WriteInput struct {
	OrganizationID int64
	Scope          Scope
	ProcessCode    string
	IndicatorCode  string
	Period         string
	RawValue       string
	Unit           string
}

// Service implements the value ledger and its submission workflow.
type Service struct {
	repo       Repository
	catalog    Catalog
	scopes     ScopeValidator
	history    HistoryStore
	audit      *shared.AuditLogger
	invalidate Invalidator
	logger     *slog.Logger
	now        func() time.Time
}

// NewService constructs the ledger service. The invalidator may be nil.
func NewService(repo Repository, catalog Catalog, scopes ScopeValidator, history HistoryStore, audit *shared.AuditLogger, invalidate Invalidator, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		catalog:    catalog,
		scopes:     scopes,
		history:    history,
		audit:      audit,
		invalidate: invalidate,
		logger:     logger,
		now:        time.Now,
	}
}

// List returns ledger rows matching the filter.
func (s *Service) List(ctx context.Context, f Filter) ([]IndicatorValue, error) {
	return s.repo.List(ctx, f)
}

// Get loads one ledger row.
func (s *Service) Get(ctx context.Context, id int64) (IndicatorValue, error) {
	return s.repo.Get(ctx, id)
}

// History returns the workflow trail of a row, oldest first.
func (s *Service) History(ctx context.Context, rowUID uuid.UUID) ([]shared.WorkflowEvent, error) {
	return s.history.List(ctx, rowUID)
}

// Write records a value for a slot, creating the row on first write and
// re-editing it otherwise. Unknown indicator codes are created on the fly;
// unknown process codes are rejected.
func (s *Service) Write(ctx context.Context, actor shared.Actor, in WriteInput) (IndicatorValue, error) {
	year, month, err := shared.ParsePeriod(in.Period)
	if err != nil {
		return IndicatorValue{}, err
	}
	value, err := ParseValue(in.RawValue)
	if err != nil {
		return IndicatorValue{}, err
	}
	if err := s.scopes.ValidateScope(ctx, in.OrganizationID, in.Scope.BusinessLineID, in.Scope.SubsidiaryID, in.Scope.SiteID); err != nil {
		return IndicatorValue{}, err
	}

	processCode := taxonomy.NormalizeCode(in.ProcessCode)
	processes, err := s.catalog.ForKind(taxonomy.KindProcess)
	if err != nil {
		return IndicatorValue{}, err
	}
	if _, err := processes.Get(ctx, processCode); err != nil {
		return IndicatorValue{}, err
	}
	indicator, err := s.catalog.EnsureIndicator(ctx, in.IndicatorCode, "", "", in.Unit, "")
	if err != nil {
		return IndicatorValue{}, err
	}

	now := s.now()
	candidate := IndicatorValue{
		OrganizationID: in.OrganizationID,
		BusinessLineID: in.Scope.BusinessLineID,
		SubsidiaryID:   in.Scope.SubsidiaryID,
		SiteID:         in.Scope.SiteID,
		ProcessCode:    processCode,
		IndicatorCode:  indicator.Code,
		Year:           year,
		Month:          month,
	}

	row, err := s.repo.Find(ctx, candidate)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		row = candidate
		row.Value = value
		row.Unit = in.Unit
		if row.Unit == "" {
			row.Unit = indicator.Unit
		}
		row.Status = StatusDraft
		if err := s.repo.Insert(ctx, &row); err != nil {
			return IndicatorValue{}, err
		}
	case err != nil:
		return IndicatorValue{}, err
	default:
		if err := Edit(&row, value, in.Unit, now); err != nil {
			return IndicatorValue{}, err
		}
		if err := s.repo.Update(ctx, &row); err != nil {
			return IndicatorValue{}, err
		}
	}

	s.record(ctx, actor, row, shared.WorkflowEdit, "")
	s.auditLog(ctx, actor, "ledger.write", row)
	return row, nil
}

// Submit moves one draft row into review.
func (s *Service) Submit(ctx context.Context, actor shared.Actor, id int64) (IndicatorValue, error) {
	return s.transition(ctx, actor, id, shared.WorkflowSubmit, "", func(v *IndicatorValue, now time.Time) error {
		return Submit(v, actor.ID, now)
	})
}

// Approve validates one submitted row. The comment is optional.
func (s *Service) Approve(ctx context.Context, actor shared.Actor, id int64, comment string) (IndicatorValue, error) {
	row, err := s.transition(ctx, actor, id, shared.WorkflowApprove, comment, func(v *IndicatorValue, now time.Time) error {
		return Approve(v, actor.ID, comment, now)
	})
	if err == nil && s.invalidate != nil {
		s.invalidate.Invalidate(ctx, row.OrganizationID)
	}
	return row, err
}

// Reject returns one submitted row to its contributor. A non-blank comment is
// required; the row is untouched without one.
func (s *Service) Reject(ctx context.Context, actor shared.Actor, id int64, comment string) (IndicatorValue, error) {
	return s.transition(ctx, actor, id, shared.WorkflowReject, comment, func(v *IndicatorValue, now time.Time) error {
		return Reject(v, actor.ID, comment, now)
	})
}

func (s *Service) transition(ctx context.Context, actor shared.Actor, id int64, action shared.WorkflowAction, note string, apply func(*IndicatorValue, time.Time) error) (IndicatorValue, error) {
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return IndicatorValue{}, err
	}
	if err := apply(&row, s.now()); err != nil {
		return IndicatorValue{}, err
	}
	if err := s.repo.Update(ctx, &row); err != nil {
		return IndicatorValue{}, err
	}
	s.record(ctx, actor, row, action, note)
	s.auditLog(ctx, actor, "ledger."+string(action), row)
	return row, nil
}

// SubmitAll submits every eligible draft in scope. Ineligible rows are
// skipped, never failed; each row commits independently.
func (s *Service) SubmitAll(ctx context.Context, actor shared.Actor, f Filter) (BatchResult, error) {
	return s.batch(ctx, actor, f, shared.WorkflowSubmit, "", func(v *IndicatorValue, now time.Time) error {
		return Submit(v, actor.ID, now)
	})
}

// ApproveAll validates every submitted row in scope.
func (s *Service) ApproveAll(ctx context.Context, actor shared.Actor, f Filter, comment string) (BatchResult, error) {
	res, err := s.batch(ctx, actor, f, shared.WorkflowApprove, comment, func(v *IndicatorValue, now time.Time) error {
		return Approve(v, actor.ID, comment, now)
	})
	if err == nil && res.Transitioned > 0 && s.invalidate != nil {
		s.invalidate.Invalidate(ctx, f.OrganizationID)
	}
	return res, err
}

// RejectAll rejects every submitted row in scope with one shared comment.
func (s *Service) RejectAll(ctx context.Context, actor shared.Actor, f Filter, comment string) (BatchResult, error) {
	if comment == "" {
		return BatchResult{}, shared.ErrMissingComment
	}
	return s.batch(ctx, actor, f, shared.WorkflowReject, comment, func(v *IndicatorValue, now time.Time) error {
		return Reject(v, actor.ID, comment, now)
	})
}

func (s *Service) batch(ctx context.Context, actor shared.Actor, f Filter, action shared.WorkflowAction, note string, apply func(*IndicatorValue, time.Time) error) (BatchResult, error) {
	rows, err := s.repo.List(ctx, f)
	if err != nil {
		return BatchResult{}, err
	}
	var res BatchResult
	for i := range rows {
		row := rows[i]
		if err := apply(&row, s.now()); err != nil {
			if errors.Is(err, shared.ErrInvalidTransition) || errors.Is(err, shared.ErrInvalidNumericValue) {
				res.Skipped++
				res.SkippedIDs = append(res.SkippedIDs, row.ID)
				continue
			}
			return res, err
		}
		if err := s.repo.Update(ctx, &row); err != nil {
			return res, err
		}
		res.Transitioned++
		s.record(ctx, actor, row, action, note)
	}
	if s.audit != nil {
		s.audit.Record(ctx, shared.AuditEntry{
			Actor:    actor,
			Action:   "ledger.batch_" + string(action),
			Entity:   "indicator_value",
			EntityID: "batch",
			OrgID:    f.OrganizationID,
			Meta:     map[string]any{"transitioned": res.Transitioned, "skipped": res.Skipped},
		})
	}
	return res, nil
}

func (s *Service) record(ctx context.Context, actor shared.Actor, row IndicatorValue, action shared.WorkflowAction, note string) {
	err := s.history.Record(ctx, shared.WorkflowEvent{
		RowUID:  row.UID,
		ActorID: actor.ID,
		Action:  action,
		Note:    note,
		At:      s.now(),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("workflow history write failed",
			slog.String("row_uid", row.UID.String()),
			slog.Any("error", err))
	}
}

func (s *Service) auditLog(ctx context.Context, actor shared.Actor, action string, row IndicatorValue) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, shared.AuditEntry{
		Actor:    actor,
		Action:   action,
		Entity:   "indicator_value",
		EntityID: strconv.FormatInt(row.ID, 10),
		OrgID:    row.OrganizationID,
	})
}
