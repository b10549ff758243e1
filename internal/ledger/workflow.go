package ledger

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/meridian-esg/meridian-esg/internal/shared"
)

// ParseValue converts contributor input into a numeric value. Empty input
// means "no value yet" and yields nil. Comma decimal separators are accepted;
// NaN and infinities are not.
func ParseValue(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	normalized := strings.ReplaceAll(raw, ",", ".")
	f, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, shared.ErrInvalidNumericValue
	}
	return &f, nil
}

// Submit moves a draft row with a non-null value into review.
func Submit(v *IndicatorValue, actorID int64, now time.Time) error {
	if v.Status != StatusDraft {
		return shared.ErrInvalidTransition
	}
	if v.Value == nil {
		return shared.ErrInvalidNumericValue
	}
	v.Status = StatusSubmitted
	v.SubmittedBy = &actorID
	v.SubmittedAt = &now
	v.UpdatedAt = now
	return nil
}

// Approve validates a submitted row. The comment is optional.
func Approve(v *IndicatorValue, actorID int64, comment string, now time.Time) error {
	if v.Status != StatusSubmitted {
		return shared.ErrInvalidTransition
	}
	v.Status = StatusValidated
	v.Comment = strings.TrimSpace(comment)
	v.ValidatedBy = &actorID
	v.ValidatedAt = &now
	v.UpdatedAt = now
	return nil
}

// Reject sends a submitted row back to its contributor. A non-blank comment
// is mandatory; without one the row is left untouched.
func Reject(v *IndicatorValue, actorID int64, comment string, now time.Time) error {
	if v.Status != StatusSubmitted {
		return shared.ErrInvalidTransition
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return shared.ErrMissingComment
	}
	v.Status = StatusRejected
	v.Comment = comment
	v.ValidatedBy = &actorID
	v.ValidatedAt = &now
	v.UpdatedAt = now
	return nil
}

// Edit rewrites the value of a draft or rejected row and returns it to draft,
// clearing any previous review metadata.
func Edit(v *IndicatorValue, value *float64, unit string, now time.Time) error {
	if v.Status != StatusDraft && v.Status != StatusRejected {
		return shared.ErrInvalidTransition
	}
	v.Value = value
	if unit != "" {
		v.Unit = unit
	}
	v.Status = StatusDraft
	v.Comment = ""
	v.SubmittedBy = nil
	v.SubmittedAt = nil
	v.ValidatedBy = nil
	v.ValidatedAt = nil
	v.UpdatedAt = now
	return nil
}
