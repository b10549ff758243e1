package assignment

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-esg/meridian-esg/internal/hierarchy"
	"github.com/meridian-esg/meridian-esg/internal/shared"
	"github.com/meridian-esg/meridian-esg/internal/taxonomy"
)

type fakeRepo struct {
	codes   map[string][]string
	sectors map[int64]SectorAssignment
}

func key(orgID int64, kind taxonomy.Kind) string {
	return fmt.Sprintf("%d:%s", orgID, kind)
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{codes: make(map[string][]string), sectors: make(map[int64]SectorAssignment)}
}

func (f *fakeRepo) Codes(_ context.Context, orgID int64, kind taxonomy.Kind) ([]string, error) {
	return f.codes[key(orgID, kind)], nil
}

func (f *fakeRepo) Replace(_ context.Context, orgID int64, kind taxonomy.Kind, codes []string) error {
	f.codes[key(orgID, kind)] = codes
	return nil
}

func (f *fakeRepo) Remove(_ context.Context, orgID int64, kind taxonomy.Kind) error {
	k := key(orgID, kind)
	if _, ok := f.codes[k]; !ok {
		return shared.ErrNotFound
	}
	delete(f.codes, k)
	return nil
}

func (f *fakeRepo) Sector(_ context.Context, orgID int64) (SectorAssignment, error) {
	assign, ok := f.sectors[orgID]
	if !ok {
		return SectorAssignment{}, shared.ErrNotFound
	}
	return assign, nil
}

func (f *fakeRepo) SetSector(_ context.Context, assign SectorAssignment) error {
	f.sectors[assign.OrganizationID] = assign
	return nil
}

type fakeElements struct {
	known map[string]struct{}
}

func (f fakeElements) Get(_ context.Context, kind taxonomy.Kind, code string) (taxonomy.Element, error) {
	if _, ok := f.known[string(kind)+":"+code]; !ok {
		return taxonomy.Element{}, shared.ErrNotFound
	}
	return taxonomy.Element{Kind: kind, Code: code}, nil
}

type fakeOrgs struct {
	known map[int64]struct{}
}

func (f fakeOrgs) GetOrganization(_ context.Context, id int64) (hierarchy.Organization, error) {
	if _, ok := f.known[id]; !ok {
		return hierarchy.Organization{}, shared.ErrNotFound
	}
	return hierarchy.Organization{ID: id, Name: "Acme"}, nil
}

func newService(repo *fakeRepo, elementKeys []string) *Service {
	known := make(map[string]struct{}, len(elementKeys))
	for _, k := range elementKeys {
		known[k] = struct{}{}
	}
	return NewService(repo, fakeElements{known: known}, fakeOrgs{known: map[int64]struct{}{1: {}}})
}

func TestSetCodesIsFullReplace(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, []string{"indicator:CO2_TONS", "indicator:WATER_M3"})

	require.NoError(t, svc.SetCodes(context.Background(), 1, taxonomy.KindIndicator, []string{"CO2_TONS", "WATER_M3"}))
	require.NoError(t, svc.SetCodes(context.Background(), 1, taxonomy.KindIndicator, []string{"WATER_M3"}))

	codes, err := svc.Codes(context.Background(), 1, taxonomy.KindIndicator)
	require.NoError(t, err)
	assert.Equal(t, []string{"WATER_M3"}, codes, "replace overwrites, never merges")
}

func TestSetCodesRejectsUnknownElement(t *testing.T) {
	svc := newService(newFakeRepo(), nil)
	err := svc.SetCodes(context.Background(), 1, taxonomy.KindStandard, []string{"GRI"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSetCodesRejectsSectorKind(t *testing.T) {
	svc := newService(newFakeRepo(), []string{"sector:ENERGY"})
	err := svc.SetCodes(context.Background(), 1, taxonomy.KindSector, []string{"ENERGY"})
	assert.Error(t, err)
}

func TestSetCodesRejectsUnknownOrganization(t *testing.T) {
	svc := newService(newFakeRepo(), []string{"issue:CLIMATE"})
	err := svc.SetCodes(context.Background(), 42, taxonomy.KindIssue, []string{"CLIMATE"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSectorPairIsSingular(t *testing.T) {
	repo := newFakeRepo()
	svc := newService(repo, []string{"sector:ENERGY", "sector:MINING", "subsector:OIL_GAS"})

	require.NoError(t, svc.SetSector(context.Background(), 1, "energy", "oil gas"))
	require.NoError(t, svc.SetSector(context.Background(), 1, "MINING", ""))

	assign, err := svc.Sector(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "MINING", assign.SectorCode)
	assert.Empty(t, assign.SubsectorCode, "second set overwrites the pair")
}
