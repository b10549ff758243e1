package taxonomy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-esg/meridian-esg/internal/shared"
)

type fakeRepo struct {
	elements map[Kind]map[string]Element
	links    map[string][]string
	nextID   int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{elements: make(map[Kind]map[string]Element), links: make(map[string][]string)}
}

func (f *fakeRepo) List(_ context.Context, kind Kind, _ shared.ListFilters) ([]Element, int, error) {
	var out []Element
	for _, el := range f.elements[kind] {
		out = append(out, el)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Get(_ context.Context, kind Kind, code string) (Element, error) {
	el, ok := f.elements[kind][code]
	if !ok {
		return Element{}, shared.ErrNotFound
	}
	return el, nil
}

func (f *fakeRepo) Create(_ context.Context, el Element) (Element, error) {
	if _, exists := f.elements[el.Kind][el.Code]; exists {
		return Element{}, shared.ErrDuplicate
	}
	f.nextID++
	el.ID = f.nextID
	if f.elements[el.Kind] == nil {
		f.elements[el.Kind] = make(map[string]Element)
	}
	f.elements[el.Kind][el.Code] = el
	return el, nil
}

func (f *fakeRepo) Update(_ context.Context, kind Kind, code string, el Element) error {
	if _, ok := f.elements[kind][code]; !ok {
		return shared.ErrNotFound
	}
	el.Kind = kind
	el.Code = code
	f.elements[kind][code] = el
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, kind Kind, code string) error {
	if _, ok := f.elements[kind][code]; !ok {
		return shared.ErrNotFound
	}
	delete(f.elements[kind], code)
	return nil
}

func (f *fakeRepo) Upsert(_ context.Context, el Element) (Element, bool, error) {
	if existing, ok := f.elements[el.Kind][el.Code]; ok {
		return existing, false, nil
	}
	created, err := f.Create(context.Background(), el)
	return created, true, err
}

func (f *fakeRepo) ProcessIndicators(_ context.Context, processCode string) ([]string, error) {
	return f.links[processCode], nil
}

func (f *fakeRepo) ReplaceProcessIndicators(_ context.Context, processCode string, codes []string) error {
	f.links[processCode] = codes
	return nil
}

func validIndicator(code string) Element {
	return Element{
		Code:      code,
		Name:      code,
		Unit:      "t",
		Axis:      AxisEnvironment,
		Formula:   FormulaSum,
		Frequency: FrequencyMonthly,
		Type:      TypePrimary,
	}
}

func TestKindStoreValidatesIndicatorMetadata(t *testing.T) {
	svc := NewService(newFakeRepo())
	store, err := svc.ForKind(KindIndicator)
	require.NoError(t, err)

	_, err = store.Create(context.Background(), Element{Code: "CO2", Name: "CO2"})
	assert.Error(t, err, "indicator without formula/axis must be rejected")

	el, err := store.Create(context.Background(), validIndicator("co2 tons"))
	require.NoError(t, err)
	assert.Equal(t, "CO2_TONS", el.Code, "codes are normalized on create")
	assert.Equal(t, KindIndicator, el.Kind)
}

func TestKindStoreSectorNeedsNoMetadata(t *testing.T) {
	svc := NewService(newFakeRepo())
	store, err := svc.ForKind(KindSector)
	require.NoError(t, err)

	el, err := store.Create(context.Background(), Element{Code: "energy", Name: "Energy"})
	require.NoError(t, err)
	assert.Equal(t, "ENERGY", el.Code)
}

func TestEnsureIndicatorIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	first, err := svc.EnsureIndicator(context.Background(), "Émissions CO2", "CO2 emissions", FormulaSum, "t", AxisEnvironment)
	require.NoError(t, err)
	assert.Equal(t, "EMISSIONS_CO2", first.Code)

	second, err := svc.EnsureIndicator(context.Background(), "emissions co2", "other name", FormulaMax, "kg", AxisSocial)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "same normalized code resolves to the same element")
	assert.Equal(t, first.Name, second.Name, "existing metadata wins")
}

func TestSetProcessIndicatorsRejectsUnknownCodes(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	procStore, _ := svc.ForKind(KindProcess)
	_, err := procStore.Create(context.Background(), Element{Code: "P1", Name: "Production"})
	require.NoError(t, err)

	err = svc.SetProcessIndicators(context.Background(), "P1", []string{"MISSING"})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	indStore, _ := svc.ForKind(KindIndicator)
	_, err = indStore.Create(context.Background(), validIndicator("CO2_TONS"))
	require.NoError(t, err)

	err = svc.SetProcessIndicators(context.Background(), "P1", []string{"co2 tons", "CO2_TONS"})
	require.NoError(t, err)
	codes, err := svc.ProcessIndicators(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, []string{"CO2_TONS"}, codes, "duplicates collapse after normalization")
}
