package assignment

import (
	"time"

	"github.com/meridian-esg/meridian-esg/internal/taxonomy"
)

// Assignment scopes taxonomy element codes to one organization and kind.
// Replacing an assignment overwrites the full code list.
type Assignment struct {
	OrganizationID int64         `json:"organization_id"`
	Kind           taxonomy.Kind `json:"kind"`
	Codes          []string      `json:"codes"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// SectorAssignment is the singular sector/subsector pair of an organization.
type SectorAssignment struct {
	OrganizationID int64  `json:"organization_id"`
	SectorCode     string `json:"sector_code"`
	SubsectorCode  string `json:"subsector_code,omitempty"`
}
