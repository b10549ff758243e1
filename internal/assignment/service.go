package assignment

import (
	"context"
	"fmt"

	"github.com/meridian-esg/meridian-esg/internal/hierarchy"
	"github.com/meridian-esg/meridian-esg/internal/taxonomy"
)

// ElementLookup resolves taxonomy elements by kind and code.
type ElementLookup interface {
	Get(ctx context.Context, kind taxonomy.Kind, code string) (taxonomy.Element, error)
}

// OrganizationLookup confirms the organization exists.
type OrganizationLookup interface {
	GetOrganization(ctx context.Context, id int64) (hierarchy.Organization, error)
}

// Service manages organization-to-taxonomy assignments.
type Service struct {
	repo     Repository
	elements ElementLookup
	orgs     OrganizationLookup
}

// NewService constructs the assignment service.
func NewService(repo Repository, elements ElementLookup, orgs OrganizationLookup) *Service {
	return &Service{repo: repo, elements: elements, orgs: orgs}
}

// Codes returns the assigned codes of one kind for an organization.
func (s *Service) Codes(ctx context.Context, orgID int64, kind taxonomy.Kind) ([]string, error) {
	if _, err := s.orgs.GetOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	return s.repo.Codes(ctx, orgID, kind)
}

// SetCodes replaces the full assigned code list for a kind. Sector assignment
// is singular and goes through SetSector instead.
func (s *Service) SetCodes(ctx context.Context, orgID int64, kind taxonomy.Kind, codes []string) error {
	if kind == taxonomy.KindSector || kind == taxonomy.KindSubsector {
		return fmt.Errorf("assignment: %s is assigned as a singular pair, use the sector endpoint", kind)
	}
	if _, err := s.orgs.GetOrganization(ctx, orgID); err != nil {
		return err
	}
	normalized := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		norm := taxonomy.NormalizeCode(code)
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		if _, err := s.elements.Get(ctx, kind, norm); err != nil {
			return err
		}
		seen[norm] = struct{}{}
		normalized = append(normalized, norm)
	}
	return s.repo.Replace(ctx, orgID, kind, normalized)
}

// RemoveAssignment deletes an organization's assignment for a kind outright.
// Descendant ledger rows disappear with it through the store's foreign keys.
func (s *Service) RemoveAssignment(ctx context.Context, orgID int64, kind taxonomy.Kind) error {
	if _, err := s.orgs.GetOrganization(ctx, orgID); err != nil {
		return err
	}
	return s.repo.Remove(ctx, orgID, kind)
}

// Sector returns the singular sector/subsector pair.
func (s *Service) Sector(ctx context.Context, orgID int64) (SectorAssignment, error) {
	if _, err := s.orgs.GetOrganization(ctx, orgID); err != nil {
		return SectorAssignment{}, err
	}
	return s.repo.Sector(ctx, orgID)
}

// SetSector overwrites the singular sector/subsector pair.
func (s *Service) SetSector(ctx context.Context, orgID int64, sectorCode, subsectorCode string) error {
	if _, err := s.orgs.GetOrganization(ctx, orgID); err != nil {
		return err
	}
	sector := taxonomy.NormalizeCode(sectorCode)
	if _, err := s.elements.Get(ctx, taxonomy.KindSector, sector); err != nil {
		return err
	}
	subsector := taxonomy.NormalizeCode(subsectorCode)
	if subsector != "" {
		if _, err := s.elements.Get(ctx, taxonomy.KindSubsector, subsector); err != nil {
			return err
		}
	}
	return s.repo.SetSector(ctx, SectorAssignment{
		OrganizationID: orgID,
		SectorCode:     sector,
		SubsectorCode:  subsector,
	})
}
