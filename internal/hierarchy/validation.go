package hierarchy

import (
	"fmt"
	"strings"

	"github.com/meridian-esg/meridian-esg/internal/shared"
)

// ValidateStructure checks a node against its resolved parents. The same rule
// applies at every entry point: a partial hierarchy is rejected, never padded
// with placeholder names.
func ValidateStructure(node Node, businessLine, subsidiary *Node) error {
	if strings.TrimSpace(node.Name) == "" {
		return fmt.Errorf("hierarchy: %s name required", node.Level)
	}
	if node.OrganizationID <= 0 {
		return fmt.Errorf("hierarchy: %s %q has no organization", node.Level, node.Name)
	}

	switch node.Level {
	case LevelBusinessLine:
		if node.BusinessLineID != nil || node.SubsidiaryID != nil {
			return fmt.Errorf("hierarchy: business line %q must not reference parents: %w", node.Name, shared.ErrIncompleteHierarchy)
		}
		return nil

	case LevelSubsidiary:
		if node.SubsidiaryID != nil {
			return fmt.Errorf("hierarchy: subsidiary %q must not reference a subsidiary: %w", node.Name, shared.ErrIncompleteHierarchy)
		}
		if node.BusinessLineID == nil || businessLine == nil {
			return fmt.Errorf("hierarchy: subsidiary %q requires a business line: %w", node.Name, shared.ErrIncompleteHierarchy)
		}
		return checkSameOrg(node, businessLine)

	case LevelSite:
		if node.SubsidiaryID != nil {
			if subsidiary == nil {
				return fmt.Errorf("hierarchy: site %q references unknown subsidiary: %w", node.Name, shared.ErrIncompleteHierarchy)
			}
			if err := checkSameOrg(node, subsidiary); err != nil {
				return err
			}
			// a subsidiary without its own business line cannot anchor a site
			if subsidiary.BusinessLineID == nil && node.BusinessLineID == nil {
				return fmt.Errorf("hierarchy: site %q cannot resolve a business line through subsidiary %q: %w",
					node.Name, subsidiary.Name, shared.ErrIncompleteHierarchy)
			}
		}
		if node.BusinessLineID != nil {
			if businessLine == nil {
				return fmt.Errorf("hierarchy: site %q references unknown business line: %w", node.Name, shared.ErrIncompleteHierarchy)
			}
			if err := checkSameOrg(node, businessLine); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("hierarchy: unknown level %q", node.Level)
}

func checkSameOrg(node Node, parent *Node) error {
	if parent.OrganizationID != node.OrganizationID {
		return fmt.Errorf("hierarchy: %s %q belongs to organization %d, parent %q to %d: %w",
			node.Level, node.Name, node.OrganizationID, parent.Name, parent.OrganizationID, shared.ErrIncompleteHierarchy)
	}
	return nil
}
