package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/meridian-esg/meridian-esg/internal/shared"
)

// ElementStore is the capability surface exposed per element kind.
type ElementStore interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Element, int, error)
	Get(ctx context.Context, code string) (Element, error)
	Create(ctx context.Context, el Element) (Element, error)
	Update(ctx context.Context, code string, el Element) error
	Delete(ctx context.Context, code string) error
}

// Service dispatches taxonomy operations to kind-specific stores.
type Service struct {
	repo   Repository
	stores map[Kind]ElementStore
}

// NewService constructs the taxonomy service.
func NewService(repo Repository) *Service {
	s := &Service{repo: repo, stores: make(map[Kind]ElementStore, len(Kinds()))}
	for _, kind := range Kinds() {
		s.stores[kind] = kindStore{kind: kind, repo: repo, validate: validatorFor(kind)}
	}
	return s
}

// ForKind resolves the store for a kind discriminator.
func (s *Service) ForKind(kind Kind) (ElementStore, error) {
	store, ok := s.stores[kind]
	if !ok {
		return nil, fmt.Errorf("taxonomy: unknown element kind %q: %w", kind, shared.ErrNotFound)
	}
	return store, nil
}

// EnsureIndicator upserts an indicator by normalized code. Referencing an
// unknown code through data entry resolves here instead of ad hoc inline
// creation at call sites.
func (s *Service) EnsureIndicator(ctx context.Context, code, name string, formula Formula, unit string, axis Axis) (Element, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return Element{}, errors.New("taxonomy: indicator code required")
	}
	if formula == "" {
		formula = FormulaSum
	}
	if _, err := ParseFormula(string(formula)); err != nil {
		return Element{}, err
	}
	if name == "" {
		name = normalized
	}
	el := Element{
		Kind:      KindIndicator,
		Code:      normalized,
		Name:      name,
		Unit:      unit,
		Axis:      axis,
		Formula:   formula,
		Frequency: FrequencyMonthly,
		Type:      TypePrimary,
	}
	ensured, _, err := s.repo.Upsert(ctx, el)
	return ensured, err
}

// ProcessIndicators lists indicator codes reported under a process.
func (s *Service) ProcessIndicators(ctx context.Context, processCode string) ([]string, error) {
	if _, err := s.repo.Get(ctx, KindProcess, processCode); err != nil {
		return nil, err
	}
	return s.repo.ProcessIndicators(ctx, processCode)
}

// SetProcessIndicators replaces the full indicator code list of a process.
// Unknown indicator codes are rejected rather than auto-created.
func (s *Service) SetProcessIndicators(ctx context.Context, processCode string, indicatorCodes []string) error {
	if _, err := s.repo.Get(ctx, KindProcess, processCode); err != nil {
		return err
	}
	normalized := make([]string, 0, len(indicatorCodes))
	seen := make(map[string]struct{}, len(indicatorCodes))
	for _, code := range indicatorCodes {
		norm := NormalizeCode(code)
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		if _, err := s.repo.Get(ctx, KindIndicator, norm); err != nil {
			return err
		}
		seen[norm] = struct{}{}
		normalized = append(normalized, norm)
	}
	return s.repo.ReplaceProcessIndicators(ctx, processCode, normalized)
}

type kindStore struct {
	kind     Kind
	repo     Repository
	validate func(Element) error
}

func (k kindStore) List(ctx context.Context, filters shared.ListFilters) ([]Element, int, error) {
	return k.repo.List(ctx, k.kind, filters)
}

func (k kindStore) Get(ctx context.Context, code string) (Element, error) {
	return k.repo.Get(ctx, k.kind, NormalizeCode(code))
}

func (k kindStore) Create(ctx context.Context, el Element) (Element, error) {
	el.Kind = k.kind
	el.Code = NormalizeCode(el.Code)
	if err := k.validate(el); err != nil {
		return Element{}, err
	}
	return k.repo.Create(ctx, el)
}

func (k kindStore) Update(ctx context.Context, code string, el Element) error {
	el.Kind = k.kind
	el.Code = NormalizeCode(code)
	if err := k.validate(el); err != nil {
		return err
	}
	return k.repo.Update(ctx, k.kind, el.Code, el)
}

func (k kindStore) Delete(ctx context.Context, code string) error {
	return k.repo.Delete(ctx, k.kind, NormalizeCode(code))
}

func validatorFor(kind Kind) func(Element) error {
	switch kind {
	case KindIndicator:
		return validateIndicator
	case KindProcess:
		return validateProcess
	default:
		return validateBase
	}
}

func validateBase(el Element) error {
	if el.Code == "" {
		return fmt.Errorf("taxonomy: %s code required", el.Kind)
	}
	if strings.TrimSpace(el.Name) == "" {
		return fmt.Errorf("taxonomy: %s name required", el.Kind)
	}
	return nil
}

func validateIndicator(el Element) error {
	if err := validateBase(el); err != nil {
		return err
	}
	if _, err := ParseFormula(string(el.Formula)); err != nil {
		return err
	}
	switch el.Axis {
	case AxisEnvironment, AxisSocial, AxisGovernance:
	default:
		return fmt.Errorf("taxonomy: indicator axis %q invalid", el.Axis)
	}
	switch el.Frequency {
	case FrequencyMonthly, FrequencyQuarterly, FrequencyAnnual:
	default:
		return fmt.Errorf("taxonomy: indicator frequency %q invalid", el.Frequency)
	}
	switch el.Type {
	case TypePrimary, TypeCalculated:
	default:
		return fmt.Errorf("taxonomy: indicator type %q invalid", el.Type)
	}
	return nil
}

func validateProcess(el Element) error {
	if err := validateBase(el); err != nil {
		return err
	}
	// Processes carry no aggregation metadata of their own.
	if el.Formula != "" || el.Axis != "" {
		return fmt.Errorf("taxonomy: process %s must not declare formula or axis", el.Code)
	}
	return nil
}
