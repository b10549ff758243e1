package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-esg/meridian-esg/internal/shared"
)

func int64Ptr(v int64) *int64 { return &v }

func TestValidateStructureBusinessLine(t *testing.T) {
	err := ValidateStructure(Node{OrganizationID: 1, Level: LevelBusinessLine, Name: "Production"}, nil, nil)
	assert.NoError(t, err)

	err = ValidateStructure(Node{OrganizationID: 1, Level: LevelBusinessLine, Name: "Production", BusinessLineID: int64Ptr(9)}, nil, nil)
	assert.ErrorIs(t, err, shared.ErrIncompleteHierarchy)
}

func TestValidateStructureSubsidiaryRequiresBusinessLine(t *testing.T) {
	sub := Node{OrganizationID: 1, Level: LevelSubsidiary, Name: "Acme France"}
	err := ValidateStructure(sub, nil, nil)
	assert.ErrorIs(t, err, shared.ErrIncompleteHierarchy)

	bl := &Node{ID: 5, OrganizationID: 1, Level: LevelBusinessLine, Name: "Production"}
	sub.BusinessLineID = int64Ptr(5)
	assert.NoError(t, ValidateStructure(sub, bl, nil))
}

func TestValidateStructureRejectsCrossOrganizationParent(t *testing.T) {
	bl := &Node{ID: 5, OrganizationID: 2, Level: LevelBusinessLine, Name: "Other"}
	site := Node{OrganizationID: 1, Level: LevelSite, Name: "Plant A", BusinessLineID: int64Ptr(5)}
	err := ValidateStructure(site, bl, nil)
	assert.ErrorIs(t, err, shared.ErrIncompleteHierarchy)

	sub := &Node{ID: 7, OrganizationID: 2, Level: LevelSubsidiary, Name: "Foreign"}
	site = Node{OrganizationID: 1, Level: LevelSite, Name: "Plant A", SubsidiaryID: int64Ptr(7)}
	err = ValidateStructure(site, nil, sub)
	assert.ErrorIs(t, err, shared.ErrIncompleteHierarchy)
}

func TestValidateStructureSiteSubsidiaryMustResolveBusinessLine(t *testing.T) {
	// subsidiary known but anchored to no business line, site names none either
	sub := &Node{ID: 7, OrganizationID: 1, Level: LevelSubsidiary, Name: "Orphan"}
	site := Node{OrganizationID: 1, Level: LevelSite, Name: "Plant A", SubsidiaryID: int64Ptr(7)}
	err := ValidateStructure(site, nil, sub)
	assert.ErrorIs(t, err, shared.ErrIncompleteHierarchy)

	// resolves through the subsidiary's own business line
	sub.BusinessLineID = int64Ptr(5)
	assert.NoError(t, ValidateStructure(site, nil, sub))
}

func TestValidateStructureSiteDirectlyUnderOrganization(t *testing.T) {
	site := Node{OrganizationID: 1, Level: LevelSite, Name: "HQ"}
	assert.NoError(t, ValidateStructure(site, nil, nil))
}

func TestValidateStructureUnknownReferences(t *testing.T) {
	site := Node{OrganizationID: 1, Level: LevelSite, Name: "Plant A", SubsidiaryID: int64Ptr(99)}
	err := ValidateStructure(site, nil, nil)
	assert.ErrorIs(t, err, shared.ErrIncompleteHierarchy)
}
