package taxonomy

import (
	"fmt"
	"time"

	"github.com/meridian-esg/meridian-esg/internal/shared"
)

// Kind discriminates taxonomy element families.
type Kind string

const (
	KindSector    Kind = "sector"
	KindSubsector Kind = "subsector"
	KindStandard  Kind = "standard"
	KindIssue     Kind = "issue"
	KindCriterion Kind = "criterion"
	KindIndicator Kind = "indicator"
	KindProcess   Kind = "process"
)

// Kinds lists every supported element kind.
func Kinds() []Kind {
	return []Kind{KindSector, KindSubsector, KindStandard, KindIssue, KindCriterion, KindIndicator, KindProcess}
}

// ParseKind validates a kind string from a request path.
func ParseKind(raw string) (Kind, error) {
	kind := Kind(raw)
	for _, k := range Kinds() {
		if kind == k {
			return kind, nil
		}
	}
	return "", fmt.Errorf("taxonomy: unknown element kind %q: %w", raw, shared.ErrNotFound)
}

// Axis classifies an indicator on the ESG triple bottom line.
type Axis string

const (
	AxisEnvironment Axis = "environment"
	AxisSocial      Axis = "social"
	AxisGovernance  Axis = "governance"
)

// Formula declares how site values consolidate upward.
type Formula string

const (
	FormulaSum       Formula = "sum"
	FormulaAverage   Formula = "average"
	FormulaMax       Formula = "max"
	FormulaMin       Formula = "min"
	FormulaLastMonth Formula = "last_month"
)

// ParseFormula validates a formula value.
func ParseFormula(raw string) (Formula, error) {
	switch Formula(raw) {
	case FormulaSum, FormulaAverage, FormulaMax, FormulaMin, FormulaLastMonth:
		return Formula(raw), nil
	}
	return "", fmt.Errorf("taxonomy: unknown formula %q", raw)
}

// Frequency declares how often an indicator is reported.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnual    Frequency = "annual"
)

// ValueType distinguishes entered from derived indicators.
type ValueType string

const (
	TypePrimary    ValueType = "primary"
	TypeCalculated ValueType = "calculated"
)

// Element is a taxonomy reference record. Metadata fields only apply to some
// kinds; per-kind validation lives in the kind stores.
type Element struct {
	ID          int64     `json:"id"`
	Kind        Kind      `json:"kind"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	Axis        Axis      `json:"axis,omitempty"`
	Formula     Formula   `json:"formula,omitempty"`
	Frequency   Frequency `json:"frequency,omitempty"`
	Type        ValueType `json:"type,omitempty"`
	Target      *float64  `json:"target,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProcessLink lists the indicator codes reported under a process. The
// organization owning a process is tracked by its process assignment.
type ProcessLink struct {
	ProcessCode    string   `json:"process_code"`
	IndicatorCodes []string `json:"indicator_codes"`
}
