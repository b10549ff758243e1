package ledger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-esg/meridian-esg/internal/shared"
	"github.com/meridian-esg/meridian-esg/internal/taxonomy"
)

type fakeRepo struct {
	nextID int64
	rows   map[int64]IndicatorValue
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{rows: make(map[int64]IndicatorValue)}
}

func (r *fakeRepo) List(_ context.Context, f Filter) ([]IndicatorValue, error) {
	var out []IndicatorValue
	for _, v := range r.rows {
		if v.OrganizationID != f.OrganizationID {
			continue
		}
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		if f.IndicatorCode != "" && v.IndicatorCode != f.IndicatorCode {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *fakeRepo) Get(_ context.Context, id int64) (IndicatorValue, error) {
	v, ok := r.rows[id]
	if !ok {
		return IndicatorValue{}, shared.ErrNotFound
	}
	return v, nil
}

func (r *fakeRepo) Find(_ context.Context, probe IndicatorValue) (IndicatorValue, error) {
	for _, v := range r.rows {
		if v.OrganizationID == probe.OrganizationID &&
			v.ProcessCode == probe.ProcessCode && v.IndicatorCode == probe.IndicatorCode &&
			v.Year == probe.Year && v.Month == probe.Month &&
			eqPtr(v.BusinessLineID, probe.BusinessLineID) &&
			eqPtr(v.SubsidiaryID, probe.SubsidiaryID) &&
			eqPtr(v.SiteID, probe.SiteID) {
			return v, nil
		}
	}
	return IndicatorValue{}, shared.ErrNotFound
}

func eqPtr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (r *fakeRepo) Insert(_ context.Context, v *IndicatorValue) error {
	r.nextID++
	v.ID = r.nextID
	if v.UID == uuid.Nil {
		v.UID = uuid.New()
	}
	r.rows[v.ID] = *v
	return nil
}

func (r *fakeRepo) Update(_ context.Context, v *IndicatorValue) error {
	if _, ok := r.rows[v.ID]; !ok {
		return shared.ErrNotFound
	}
	r.rows[v.ID] = *v
	return nil
}

type fakeStore struct {
	codes map[string]bool
}

func (s fakeStore) List(context.Context, shared.ListFilters) ([]taxonomy.Element, int, error) {
	return nil, 0, nil
}

func (s fakeStore) Get(_ context.Context, code string) (taxonomy.Element, error) {
	if !s.codes[code] {
		return taxonomy.Element{}, shared.ErrNotFound
	}
	return taxonomy.Element{Kind: taxonomy.KindProcess, Code: code}, nil
}

func (s fakeStore) Create(_ context.Context, el taxonomy.Element) (taxonomy.Element, error) {
	return el, nil
}
func (s fakeStore) Update(context.Context, string, taxonomy.Element) error { return nil }
func (s fakeStore) Delete(context.Context, string) error                   { return nil }

type fakeCatalog struct {
	processes  fakeStore
	indicators map[string]taxonomy.Element
}

func (c *fakeCatalog) EnsureIndicator(_ context.Context, code, name string, formula taxonomy.Formula, unit string, _ taxonomy.Axis) (taxonomy.Element, error) {
	normalized := taxonomy.NormalizeCode(code)
	if el, ok := c.indicators[normalized]; ok {
		return el, nil
	}
	el := taxonomy.Element{Kind: taxonomy.KindIndicator, Code: normalized, Name: normalized, Unit: unit}
	c.indicators[normalized] = el
	return el, nil
}

func (c *fakeCatalog) ForKind(taxonomy.Kind) (taxonomy.ElementStore, error) {
	return c.processes, nil
}

type fakeScopes struct{ err error }

func (s fakeScopes) ValidateScope(context.Context, int64, *int64, *int64, *int64) error {
	return s.err
}

type fakeHistory struct {
	events []shared.WorkflowEvent
}

func (h *fakeHistory) Record(_ context.Context, event shared.WorkflowEvent) error {
	h.events = append(h.events, event)
	return nil
}

func (h *fakeHistory) List(_ context.Context, rowUID uuid.UUID) ([]shared.WorkflowEvent, error) {
	var out []shared.WorkflowEvent
	for _, ev := range h.events {
		if ev.RowUID == rowUID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeInvalidator struct{ orgs []int64 }

func (i *fakeInvalidator) Invalidate(_ context.Context, orgID int64) {
	i.orgs = append(i.orgs, orgID)
}

type fixture struct {
	repo       *fakeRepo
	catalog    *fakeCatalog
	history    *fakeHistory
	invalidate *fakeInvalidator
	service    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo: newFakeRepo(),
		catalog: &fakeCatalog{
			processes:  fakeStore{codes: map[string]bool{"ENERGY": true}},
			indicators: make(map[string]taxonomy.Element),
		},
		history:    &fakeHistory{},
		invalidate: &fakeInvalidator{},
	}
	f.service = NewService(f.repo, f.catalog, fakeScopes{}, f.history, nil, f.invalidate, slog.Default())
	return f
}

var (
	contributor = shared.Actor{ID: 7, Role: shared.RoleContributor}
	reviewer    = shared.Actor{ID: 9, Role: shared.RoleValidator}
)

func TestWriteCreatesDraftOnFirstWrite(t *testing.T) {
	f := newFixture(t)
	row, err := f.service.Write(context.Background(), contributor, WriteInput{
		OrganizationID: 1,
		ProcessCode:    "energy",
		IndicatorCode:  "émissions co2",
		Period:         "2024-03",
		RawValue:       "40",
		Unit:           "t",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, row.Status)
	assert.Equal(t, "EMISSIONS_CO2", row.IndicatorCode)
	assert.Equal(t, 40.0, *row.Value)
	assert.NotEqual(t, uuid.Nil, row.UID)

	// The indicator was auto-created in the catalog.
	_, ok := f.catalog.indicators["EMISSIONS_CO2"]
	assert.True(t, ok)
}

func TestWriteEditsExistingSlot(t *testing.T) {
	f := newFixture(t)
	in := WriteInput{
		OrganizationID: 1, ProcessCode: "ENERGY", IndicatorCode: "CO2_TONS",
		Period: "2024-03", RawValue: "40",
	}
	first, err := f.service.Write(context.Background(), contributor, in)
	require.NoError(t, err)

	in.RawValue = "45"
	second, err := f.service.Write(context.Background(), contributor, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 45.0, *second.Value)
	assert.Len(t, f.repo.rows, 1)
}

func TestWriteRejectsUnknownProcess(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Write(context.Background(), contributor, WriteInput{
		OrganizationID: 1, ProcessCode: "LOGISTICS", IndicatorCode: "CO2_TONS",
		Period: "2024-03", RawValue: "40",
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestWriteRejectsBadNumericInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Write(context.Background(), contributor, WriteInput{
		OrganizationID: 1, ProcessCode: "ENERGY", IndicatorCode: "CO2_TONS",
		Period: "2024-03", RawValue: "forty",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidNumericValue)
	assert.Empty(t, f.repo.rows)
}

func TestWriteRejectsIncompleteScope(t *testing.T) {
	f := newFixture(t)
	f.service.scopes = fakeScopes{err: shared.ErrIncompleteHierarchy}
	siteID := int64(3)
	_, err := f.service.Write(context.Background(), contributor, WriteInput{
		OrganizationID: 1,
		Scope:          Scope{SiteID: &siteID},
		ProcessCode:    "ENERGY", IndicatorCode: "CO2_TONS",
		Period: "2024-03", RawValue: "40",
	})
	assert.ErrorIs(t, err, shared.ErrIncompleteHierarchy)
}

func TestSubmitApproveRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	row, err := f.service.Write(ctx, contributor, WriteInput{
		OrganizationID: 1, ProcessCode: "ENERGY", IndicatorCode: "CO2_TONS",
		Period: "2024-03", RawValue: "40",
	})
	require.NoError(t, err)

	row, err = f.service.Submit(ctx, contributor, row.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, row.Status)

	row, err = f.service.Approve(ctx, reviewer, row.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatusValidated, row.Status)
	assert.Equal(t, []int64{1}, f.invalidate.orgs)

	events, err := f.service.History(ctx, row.UID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, shared.WorkflowEdit, events[0].Action)
	assert.Equal(t, shared.WorkflowSubmit, events[1].Action)
	assert.Equal(t, shared.WorkflowApprove, events[2].Action)
}

func TestRejectWithoutCommentLeavesRowUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	row, err := f.service.Write(ctx, contributor, WriteInput{
		OrganizationID: 1, ProcessCode: "ENERGY", IndicatorCode: "CO2_TONS",
		Period: "2024-03", RawValue: "40",
	})
	require.NoError(t, err)
	_, err = f.service.Submit(ctx, contributor, row.ID)
	require.NoError(t, err)

	_, err = f.service.Reject(ctx, reviewer, row.ID, "  ")
	assert.ErrorIs(t, err, shared.ErrMissingComment)

	stored, err := f.service.Get(ctx, row.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, stored.Status)
}

func TestApproveAllTransitionsOnlySubmitted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 5 submitted rows and 3 still in draft.
	for month := 1; month <= 8; month++ {
		row, err := f.service.Write(ctx, contributor, WriteInput{
			OrganizationID: 1, ProcessCode: "ENERGY", IndicatorCode: "CO2_TONS",
			Period: shared.FormatPeriod(2024, month), RawValue: "10",
		})
		require.NoError(t, err)
		if month <= 5 {
			_, err = f.service.Submit(ctx, contributor, row.ID)
			require.NoError(t, err)
		}
	}

	res, err := f.service.ApproveAll(ctx, reviewer, Filter{OrganizationID: 1}, "")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Transitioned)
	assert.Equal(t, 3, res.Skipped)

	validated, err := f.service.List(ctx, Filter{OrganizationID: 1, Status: StatusValidated})
	require.NoError(t, err)
	assert.Len(t, validated, 5)
	drafts, err := f.service.List(ctx, Filter{OrganizationID: 1, Status: StatusDraft})
	require.NoError(t, err)
	assert.Len(t, drafts, 3)
}

func TestRejectAllRequiresComment(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.RejectAll(context.Background(), reviewer, Filter{OrganizationID: 1}, "")
	assert.ErrorIs(t, err, shared.ErrMissingComment)
}
