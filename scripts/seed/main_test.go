package main

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-esg/meridian-esg/internal/assignment"
	"github.com/meridian-esg/meridian-esg/internal/consol"
	"github.com/meridian-esg/meridian-esg/internal/hierarchy"
	"github.com/meridian-esg/meridian-esg/internal/ledger"
	"github.com/meridian-esg/meridian-esg/internal/shared"
	"github.com/meridian-esg/meridian-esg/internal/taxonomy"
)

type fakeElements struct {
	upserts map[string]taxonomy.Element
	links   map[string][]string
}

func (f *fakeElements) Upsert(_ context.Context, el taxonomy.Element) (taxonomy.Element, bool, error) {
	key := string(el.Kind) + "/" + el.Code
	if existing, ok := f.upserts[key]; ok {
		return existing, false, nil
	}
	el.ID = int64(len(f.upserts) + 1)
	f.upserts[key] = el
	return el, true, nil
}

func (f *fakeElements) ReplaceProcessIndicators(_ context.Context, processCode string, indicatorCodes []string) error {
	f.links[processCode] = indicatorCodes
	return nil
}

type fakeOrgs struct {
	orgs       map[string]hierarchy.Organization
	nodes      []hierarchy.Node
	orgCreates int
}

func (f *fakeOrgs) GetOrganizationByName(_ context.Context, name string) (hierarchy.Organization, error) {
	if org, ok := f.orgs[name]; ok {
		return org, nil
	}
	return hierarchy.Organization{}, fmt.Errorf("organization %q: %w", name, shared.ErrNotFound)
}

func (f *fakeOrgs) CreateOrganization(_ context.Context, org hierarchy.Organization) (hierarchy.Organization, error) {
	f.orgCreates++
	org.ID = int64(len(f.orgs) + 1)
	f.orgs[org.Name] = org
	return org, nil
}

func (f *fakeOrgs) ListNodes(_ context.Context, orgID int64, level hierarchy.Level) ([]hierarchy.Node, error) {
	var out []hierarchy.Node
	for _, n := range f.nodes {
		if n.OrganizationID == orgID && n.Level == level {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeOrgs) CreateNode(_ context.Context, node hierarchy.Node) (hierarchy.Node, error) {
	node.ID = int64(len(f.nodes) + 1)
	f.nodes = append(f.nodes, node)
	return node, nil
}

type fakeSectors struct {
	assigned map[int64]assignment.SectorAssignment
}

func (f *fakeSectors) SetSector(_ context.Context, assign assignment.SectorAssignment) error {
	f.assigned[assign.OrganizationID] = assign
	return nil
}

type fakeValues struct {
	rows []ledger.IndicatorValue
}

func (f *fakeValues) key(v ledger.IndicatorValue) string {
	site := int64(0)
	if v.SiteID != nil {
		site = *v.SiteID
	}
	return fmt.Sprintf("%d/%d/%s/%s/%d/%d", v.OrganizationID, site, v.ProcessCode, v.IndicatorCode, v.Year, v.Month)
}

func (f *fakeValues) Find(_ context.Context, v ledger.IndicatorValue) (ledger.IndicatorValue, error) {
	for _, row := range f.rows {
		if f.key(row) == f.key(v) {
			return row, nil
		}
	}
	return ledger.IndicatorValue{}, shared.ErrNotFound
}

func (f *fakeValues) Insert(_ context.Context, v *ledger.IndicatorValue) error {
	v.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *v)
	return nil
}

func (f *fakeValues) Update(_ context.Context, v *ledger.IndicatorValue) error {
	for i, row := range f.rows {
		if row.ID == v.ID {
			f.rows[i] = *v
			return nil
		}
	}
	return shared.ErrNotFound
}

type fakeTargets struct {
	targets map[string]consol.Target
}

func (f *fakeTargets) UpsertTarget(_ context.Context, target consol.Target) error {
	key := fmt.Sprintf("%d/%s/%d", target.OrganizationID, target.IndicatorCode, target.Year)
	f.targets[key] = target
	return nil
}

func newTestSeeder() (seeder, *fakeOrgs, *fakeValues, *fakeTargets) {
	orgs := &fakeOrgs{orgs: map[string]hierarchy.Organization{}}
	values := &fakeValues{}
	targets := &fakeTargets{targets: map[string]consol.Target{}}
	s := seeder{
		elements: &fakeElements{upserts: map[string]taxonomy.Element{}, links: map[string][]string{}},
		orgs:     orgs,
		sectors:  &fakeSectors{assigned: map[int64]assignment.SectorAssignment{}},
		values:   values,
		targets:  targets,
	}
	return s, orgs, values, targets
}

func TestSeedCreatesValidatedValues(t *testing.T) {
	s, orgs, values, targets := newTestSeeder()

	require.NoError(t, s.run(context.Background()))

	require.Equal(t, 1, orgs.orgCreates)
	require.Len(t, orgs.nodes, 3)
	require.Len(t, values.rows, 6)
	for _, row := range values.rows {
		require.Equal(t, ledger.StatusValidated, row.Status)
		require.NotNil(t, row.Value)
		require.NotNil(t, row.ValidatedAt)
		require.NotNil(t, row.SiteID)
		require.NotNil(t, row.BusinessLineID)
	}
	require.Len(t, targets.targets, 1)
}

func TestSeedIsIdempotent(t *testing.T) {
	s, orgs, values, _ := newTestSeeder()

	require.NoError(t, s.run(context.Background()))
	require.NoError(t, s.run(context.Background()))

	require.Equal(t, 1, orgs.orgCreates)
	require.Len(t, orgs.nodes, 3)
	require.Len(t, values.rows, 6)
}
