package consol

import (
	"context"
	"fmt"

	"github.com/meridian-esg/meridian-esg/internal/hierarchy"
	"github.com/meridian-esg/meridian-esg/internal/ledger"
	"github.com/meridian-esg/meridian-esg/internal/shared"
	"github.com/meridian-esg/meridian-esg/internal/taxonomy"
)

// OrganizationChecker verifies organizations exist before consolidating.
// Satisfied by hierarchy.Service.
type OrganizationChecker interface {
	GetOrganization(ctx context.Context, id int64) (hierarchy.Organization, error)
}

// Service runs consolidations over validated ledger data.
type Service struct {
	repo Repository
	orgs OrganizationChecker
}

// NewService constructs the consolidation service.
func NewService(repo Repository, orgs OrganizationChecker) *Service {
	return &Service{repo: repo, orgs: orgs}
}

// Consolidate computes the annual view of one organization scope, including
// prior-year variation and target performance.
func (s *Service) Consolidate(ctx context.Context, orgID int64, scope ledger.Scope, year int) (Result, error) {
	if err := shared.ValidateYear(year); err != nil {
		return Result{}, err
	}
	if _, err := s.orgs.GetOrganization(ctx, orgID); err != nil {
		return Result{}, err
	}
	rows, err := s.repo.ValidatedRows(ctx, orgID, scope, year)
	if err != nil {
		return Result{}, err
	}
	prior, err := s.repo.ValidatedRows(ctx, orgID, scope, year-1)
	if err != nil {
		return Result{}, err
	}
	targets, err := s.repo.Targets(ctx, orgID, year)
	if err != nil {
		return Result{}, err
	}
	return Consolidate(orgID, year, rows, prior, targets), nil
}

// SetTarget stores an annual objective for an indicator.
func (s *Service) SetTarget(ctx context.Context, target Target) error {
	if err := shared.ValidateYear(target.Year); err != nil {
		return err
	}
	if _, err := s.orgs.GetOrganization(ctx, target.OrganizationID); err != nil {
		return err
	}
	target.IndicatorCode = taxonomy.NormalizeCode(target.IndicatorCode)
	if target.IndicatorCode == "" {
		return fmt.Errorf("consol: indicator code required")
	}
	return s.repo.UpsertTarget(ctx, target)
}

// DeleteTarget removes an annual objective.
func (s *Service) DeleteTarget(ctx context.Context, orgID int64, indicatorCode string, year int) error {
	return s.repo.DeleteTarget(ctx, orgID, taxonomy.NormalizeCode(indicatorCode), year)
}
