package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-esg/meridian-esg/internal/shared"
)

func draftRow(value *float64) IndicatorValue {
	return IndicatorValue{
		ID:             1,
		OrganizationID: 1,
		ProcessCode:    "ENERGY",
		IndicatorCode:  "CO2_TONS",
		Year:           2024,
		Month:          3,
		Value:          value,
		Status:         StatusDraft,
	}
}

func fptr(f float64) *float64 { return &f }

func TestParseValue(t *testing.T) {
	v, err := ParseValue("42.5")
	require.NoError(t, err)
	assert.Equal(t, 42.5, *v)

	v, err = ParseValue("42,5")
	require.NoError(t, err)
	assert.Equal(t, 42.5, *v)

	v, err = ParseValue("  ")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ParseValue("abc")
	assert.ErrorIs(t, err, shared.ErrInvalidNumericValue)

	_, err = ParseValue("NaN")
	assert.ErrorIs(t, err, shared.ErrInvalidNumericValue)
}

func TestSubmitRequiresValue(t *testing.T) {
	now := time.Now()
	row := draftRow(nil)
	err := Submit(&row, 7, now)
	assert.ErrorIs(t, err, shared.ErrInvalidNumericValue)
	assert.Equal(t, StatusDraft, row.Status)

	row = draftRow(fptr(12))
	require.NoError(t, Submit(&row, 7, now))
	assert.Equal(t, StatusSubmitted, row.Status)
	assert.Equal(t, int64(7), *row.SubmittedBy)
	assert.Equal(t, now, *row.SubmittedAt)
}

func TestSubmitOnlyFromDraft(t *testing.T) {
	for _, status := range []Status{StatusSubmitted, StatusValidated, StatusRejected} {
		row := draftRow(fptr(1))
		row.Status = status
		err := Submit(&row, 7, time.Now())
		assert.ErrorIs(t, err, shared.ErrInvalidTransition, "from %s", status)
	}
}

func TestApprove(t *testing.T) {
	now := time.Now()
	row := draftRow(fptr(10))
	require.NoError(t, Submit(&row, 7, now))

	require.NoError(t, Approve(&row, 9, "", now))
	assert.Equal(t, StatusValidated, row.Status)
	assert.Equal(t, int64(9), *row.ValidatedBy)
	assert.Equal(t, now, *row.ValidatedAt)

	// Terminal state, no further transitions.
	assert.ErrorIs(t, Approve(&row, 9, "", now), shared.ErrInvalidTransition)
	assert.ErrorIs(t, Reject(&row, 9, "x", now), shared.ErrInvalidTransition)
	assert.ErrorIs(t, Edit(&row, fptr(11), "", now), shared.ErrInvalidTransition)
}

func TestRejectRequiresComment(t *testing.T) {
	now := time.Now()
	row := draftRow(fptr(10))
	require.NoError(t, Submit(&row, 7, now))

	err := Reject(&row, 9, "   ", now)
	assert.ErrorIs(t, err, shared.ErrMissingComment)
	assert.Equal(t, StatusSubmitted, row.Status)
	assert.Nil(t, row.ValidatedBy)

	require.NoError(t, Reject(&row, 9, "value looks off", now))
	assert.Equal(t, StatusRejected, row.Status)
	assert.Equal(t, "value looks off", row.Comment)
}

func TestEditAfterRejectionClearsReviewMetadata(t *testing.T) {
	now := time.Now()
	row := draftRow(fptr(10))
	require.NoError(t, Submit(&row, 7, now))
	require.NoError(t, Reject(&row, 9, "too low", now))

	later := now.Add(time.Hour)
	require.NoError(t, Edit(&row, fptr(20), "t", later))
	assert.Equal(t, StatusDraft, row.Status)
	assert.Equal(t, 20.0, *row.Value)
	assert.Empty(t, row.Comment)
	assert.Nil(t, row.SubmittedBy)
	assert.Nil(t, row.SubmittedAt)
	assert.Nil(t, row.ValidatedBy)
	assert.Nil(t, row.ValidatedAt)
}

func TestEditFromSubmittedRejected(t *testing.T) {
	now := time.Now()
	row := draftRow(fptr(10))
	require.NoError(t, Submit(&row, 7, now))
	assert.ErrorIs(t, Edit(&row, fptr(11), "", now), shared.ErrInvalidTransition)
}

func TestEditKeepsUnitWhenOmitted(t *testing.T) {
	row := draftRow(fptr(10))
	row.Unit = "t"
	require.NoError(t, Edit(&row, fptr(11), "", time.Now()))
	assert.Equal(t, "t", row.Unit)
}
