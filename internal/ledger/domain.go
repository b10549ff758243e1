package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Status enumerates the submission lifecycle of an indicator value.
type Status string

const (
	// StatusDraft is the initial, editable state.
	StatusDraft Status = "draft"
	// StatusSubmitted awaits validator review.
	StatusSubmitted Status = "submitted"
	// StatusValidated is terminal; only validated rows consolidate.
	StatusValidated Status = "validated"
	// StatusRejected returns the row to the contributor for correction.
	StatusRejected Status = "rejected"
)

// Scope narrows ledger queries to a hierarchy level. Zero fields widen the
// scope; an empty Scope covers the whole organization.
type Scope struct {
	BusinessLineID *int64 `json:"business_line_id,omitempty"`
	SubsidiaryID   *int64 `json:"subsidiary_id,omitempty"`
	SiteID         *int64 `json:"site_id,omitempty"`
}

// IndicatorValue is one ledger entry. Identity is the combination of
// organization, hierarchy references, process, indicator, year and month.
// No row exists until a contributor first writes a value.
type IndicatorValue struct {
	ID             int64      `json:"id"`
	UID            uuid.UUID  `json:"uid"`
	OrganizationID int64      `json:"organization_id"`
	BusinessLineID *int64     `json:"business_line_id,omitempty"`
	SubsidiaryID   *int64     `json:"subsidiary_id,omitempty"`
	SiteID         *int64     `json:"site_id,omitempty"`
	ProcessCode    string     `json:"process_code"`
	IndicatorCode  string     `json:"indicator_code"`
	Year           int        `json:"year"`
	Month          int        `json:"month"`
	Value          *float64   `json:"value"`
	Unit           string     `json:"unit,omitempty"`
	Status         Status     `json:"status"`
	Comment        string     `json:"comment,omitempty"`
	SubmittedBy    *int64     `json:"submitted_by,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	ValidatedBy    *int64     `json:"validated_by,omitempty"`
	ValidatedAt    *time.Time `json:"validated_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Filter selects ledger rows for listing and batch operations.
type Filter struct {
	OrganizationID int64
	Scope          Scope
	ProcessCode    string
	IndicatorCode  string
	Year           int
	Month          int
	Status         Status
}

// BatchResult summarises a per-row batch transition. Rows not in the required
// source state are skipped, not failed; there is no cross-row atomicity.
type BatchResult struct {
	Transitioned int     `json:"transitioned"`
	Skipped      int     `json:"skipped"`
	SkippedIDs   []int64 `json:"skipped_ids,omitempty"`
}
