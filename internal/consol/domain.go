package consol

import (
	"time"

	"github.com/meridian-esg/meridian-esg/internal/taxonomy"
)

// SourceRow is one validated ledger value enriched with its indicator
// metadata, as fed into the consolidation engine.
type SourceRow struct {
	IndicatorCode string
	IndicatorName string
	Unit          string
	Axis          taxonomy.Axis
	Formula       taxonomy.Formula
	SiteID        *int64
	SiteName      string
	Month         int
	Value         float64
	ValidatedAt   time.Time
}

// ConsolidatedIndicator is one indicator line of the annual consolidation:
// twelve monthly cells, the annual aggregate, year-over-year variation and
// performance against target.
type ConsolidatedIndicator struct {
	IndicatorCode  string           `json:"indicator_code"`
	IndicatorName  string           `json:"indicator_name"`
	Unit           string           `json:"unit,omitempty"`
	Axis           taxonomy.Axis    `json:"axis,omitempty"`
	Formula        taxonomy.Formula `json:"formula"`
	Months         [12]*float64     `json:"months"`
	Total          *float64         `json:"total"`
	PriorTotal     *float64         `json:"prior_total,omitempty"`
	VariationPct   *float64         `json:"variation_pct,omitempty"`
	Target         *float64         `json:"target,omitempty"`
	PerformancePct *float64         `json:"performance_pct,omitempty"`
	SitesCount     int              `json:"sites_count"`
	Sites          []string         `json:"sites,omitempty"`
}

// Result is the consolidated view of one organization scope for one year.
type Result struct {
	OrganizationID int64                   `json:"organization_id"`
	Year           int                     `json:"year"`
	Indicators     []ConsolidatedIndicator `json:"indicators"`
}

// Only narrows the result to one indicator code. An empty code returns the
// result unchanged.
func (r Result) Only(indicatorCode string) Result {
	if indicatorCode == "" {
		return r
	}
	narrowed := Result{OrganizationID: r.OrganizationID, Year: r.Year}
	for _, ind := range r.Indicators {
		if ind.IndicatorCode == indicatorCode {
			narrowed.Indicators = append(narrowed.Indicators, ind)
		}
	}
	return narrowed
}

// Target is an annual objective for one indicator within an organization.
type Target struct {
	OrganizationID int64   `json:"organization_id"`
	IndicatorCode  string  `json:"indicator_code"`
	Year           int     `json:"year"`
	Value          float64 `json:"value"`
}
