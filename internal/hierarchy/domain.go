package hierarchy

import (
	"time"
)

// OrgType classifies the organizational structure.
type OrgType string

const (
	OrgSimple           OrgType = "simple"
	OrgWithSubsidiaries OrgType = "with_subsidiaries"
	OrgGroup            OrgType = "group"
)

// Organization is the root of a reporting hierarchy.
type Organization struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	Type      OrgType   `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Level identifies a hierarchy node tier below the organization.
type Level string

const (
	LevelBusinessLine Level = "business_line"
	LevelSubsidiary   Level = "subsidiary"
	LevelSite         Level = "site"
)

// Node is a business line, subsidiary or site within one organization.
// Parent references are optional for sites and resolved transitively.
type Node struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
	Level          Level     `json:"level"`
	Name           string    `json:"name"`
	BusinessLineID *int64    `json:"business_line_id,omitempty"`
	SubsidiaryID   *int64    `json:"subsidiary_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Path is the resolved ancestry of a node, outermost first.
type Path struct {
	Organization Organization `json:"organization"`
	BusinessLine *Node        `json:"business_line,omitempty"`
	Subsidiary   *Node        `json:"subsidiary,omitempty"`
	Site         *Node        `json:"site,omitempty"`
}
