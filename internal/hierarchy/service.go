package hierarchy

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-esg/meridian-esg/internal/shared"
)

// Service exposes hierarchy reads, validation and admin mutations.
type Service struct {
	repo Repository
}

// NewService constructs the hierarchy service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListOrganizations enumerates organizations.
func (s *Service) ListOrganizations(ctx context.Context, filters shared.ListFilters) ([]Organization, int, error) {
	return s.repo.ListOrganizations(ctx, filters)
}

// GetOrganization loads one organization.
func (s *Service) GetOrganization(ctx context.Context, id int64) (Organization, error) {
	return s.repo.GetOrganization(ctx, id)
}

// CreateOrganization validates and stores an organization.
func (s *Service) CreateOrganization(ctx context.Context, org Organization) (Organization, error) {
	if strings.TrimSpace(org.Name) == "" {
		return Organization{}, fmt.Errorf("hierarchy: organization name required")
	}
	switch org.Type {
	case OrgSimple, OrgWithSubsidiaries, OrgGroup:
	default:
		return Organization{}, fmt.Errorf("hierarchy: organization type %q invalid", org.Type)
	}
	return s.repo.CreateOrganization(ctx, org)
}

// UpdateOrganization validates and persists changes.
func (s *Service) UpdateOrganization(ctx context.Context, id int64, org Organization) error {
	if id <= 0 {
		return fmt.Errorf("hierarchy: organization %d: %w", id, shared.ErrNotFound)
	}
	if strings.TrimSpace(org.Name) == "" {
		return fmt.Errorf("hierarchy: organization name required")
	}
	return s.repo.UpdateOrganization(ctx, id, org)
}

// DeleteOrganization removes an organization and, through the store's
// foreign keys, its descendant nodes and ledger rows.
func (s *Service) DeleteOrganization(ctx context.Context, id int64) error {
	return s.repo.DeleteOrganization(ctx, id)
}

// ListNodes returns nodes of an organization, optionally filtered by level.
func (s *Service) ListNodes(ctx context.Context, orgID int64, level Level) ([]Node, error) {
	if _, err := s.repo.GetOrganization(ctx, orgID); err != nil {
		return nil, err
	}
	return s.repo.ListNodes(ctx, orgID, level)
}

// CreateNode validates structural consistency before persisting a node.
func (s *Service) CreateNode(ctx context.Context, node Node) (Node, error) {
	if _, err := s.repo.GetOrganization(ctx, node.OrganizationID); err != nil {
		return Node{}, err
	}
	businessLine, subsidiary, err := s.loadParents(ctx, node)
	if err != nil {
		return Node{}, err
	}
	if err := ValidateStructure(node, businessLine, subsidiary); err != nil {
		return Node{}, err
	}
	return s.repo.CreateNode(ctx, node)
}

// DeleteNode removes a node.
func (s *Service) DeleteNode(ctx context.Context, id int64) error {
	return s.repo.DeleteNode(ctx, id)
}

// ResolvePath walks a node's ancestry up to its organization. A broken chain
// surfaces as IncompleteHierarchy rather than being silently patched.
func (s *Service) ResolvePath(ctx context.Context, nodeID int64) (Path, error) {
	node, err := s.repo.GetNode(ctx, nodeID)
	if err != nil {
		return Path{}, err
	}
	org, err := s.repo.GetOrganization(ctx, node.OrganizationID)
	if err != nil {
		return Path{}, err
	}
	path := Path{Organization: org}

	switch node.Level {
	case LevelBusinessLine:
		path.BusinessLine = &node
	case LevelSubsidiary:
		path.Subsidiary = &node
	case LevelSite:
		path.Site = &node
	}

	businessLine, subsidiary, err := s.loadParents(ctx, node)
	if err != nil {
		return Path{}, err
	}
	if err := ValidateStructure(node, businessLine, subsidiary); err != nil {
		return Path{}, err
	}
	if subsidiary != nil {
		path.Subsidiary = subsidiary
		if businessLine == nil && subsidiary.BusinessLineID != nil {
			parent, err := s.repo.GetNode(ctx, *subsidiary.BusinessLineID)
			if err != nil {
				return Path{}, err
			}
			businessLine = &parent
		}
	}
	if businessLine != nil {
		path.BusinessLine = businessLine
	}
	return path, nil
}

// ValidateScope checks the hierarchy references carried by a ledger write:
// the innermost referenced node must resolve to a complete path inside the
// given organization, and any outer references must agree with that path.
func (s *Service) ValidateScope(ctx context.Context, orgID int64, businessLineID, subsidiaryID, siteID *int64) error {
	innermost := siteID
	if innermost == nil {
		innermost = subsidiaryID
	}
	if innermost == nil {
		innermost = businessLineID
	}
	if innermost == nil {
		// Organization-level write, nothing to resolve.
		return nil
	}
	path, err := s.ResolvePath(ctx, *innermost)
	if err != nil {
		return err
	}
	if path.Organization.ID != orgID {
		return fmt.Errorf("hierarchy: node %d belongs to organization %d: %w", *innermost, path.Organization.ID, shared.ErrIncompleteHierarchy)
	}
	if businessLineID != nil && (path.BusinessLine == nil || path.BusinessLine.ID != *businessLineID) {
		return fmt.Errorf("hierarchy: business line %d does not match resolved path: %w", *businessLineID, shared.ErrIncompleteHierarchy)
	}
	if subsidiaryID != nil && siteID != nil && (path.Subsidiary == nil || path.Subsidiary.ID != *subsidiaryID) {
		return fmt.Errorf("hierarchy: subsidiary %d does not match resolved path: %w", *subsidiaryID, shared.ErrIncompleteHierarchy)
	}
	return nil
}

func (s *Service) loadParents(ctx context.Context, node Node) (businessLine, subsidiary *Node, err error) {
	if node.BusinessLineID != nil {
		parent, err := s.repo.GetNode(ctx, *node.BusinessLineID)
		if err != nil {
			return nil, nil, err
		}
		if parent.Level != LevelBusinessLine {
			return nil, nil, fmt.Errorf("hierarchy: node %d is not a business line: %w", parent.ID, shared.ErrIncompleteHierarchy)
		}
		businessLine = &parent
	}
	if node.SubsidiaryID != nil {
		parent, err := s.repo.GetNode(ctx, *node.SubsidiaryID)
		if err != nil {
			return nil, nil, err
		}
		if parent.Level != LevelSubsidiary {
			return nil, nil, fmt.Errorf("hierarchy: node %d is not a subsidiary: %w", parent.ID, shared.ErrIncompleteHierarchy)
		}
		subsidiary = &parent
	}
	return businessLine, subsidiary, nil
}
