package dashboard

import (
	"sort"
	"time"

	"github.com/meridian-esg/meridian-esg/internal/taxonomy"
)

// Read tiers, ordered from the projection down to live recomputation.
const (
	TierProjection = "projection"
	TierFallback   = "fallback"
	TierLive       = "live"
)

// IndicatorSummary is one dashboard line: the annual consolidation of an
// indicator reduced to what the dashboard shows.
type IndicatorSummary struct {
	IndicatorCode  string        `json:"indicator_code"`
	IndicatorName  string        `json:"indicator_name"`
	Unit           string        `json:"unit,omitempty"`
	Axis           taxonomy.Axis `json:"axis,omitempty"`
	Total          *float64      `json:"total"`
	Target         *float64      `json:"target,omitempty"`
	PerformancePct *float64      `json:"performance_pct,omitempty"`
	VariationPct   *float64      `json:"variation_pct,omitempty"`
	SitesCount     int           `json:"sites_count"`
}

// AxisRollup aggregates the dashboard lines of one ESG axis.
type AxisRollup struct {
	Axis              taxonomy.Axis `json:"axis"`
	Indicators        int           `json:"indicators"`
	AvgPerformancePct *float64      `json:"avg_performance_pct,omitempty"`
}

// Snapshot is the dashboard payload for one organization and year. Tier
// records which read path produced it.
type Snapshot struct {
	OrganizationID int64              `json:"organization_id"`
	Year           int                `json:"year"`
	Tier           string             `json:"tier"`
	GeneratedAt    time.Time          `json:"generated_at"`
	Axes           []AxisRollup       `json:"axes"`
	Indicators     []IndicatorSummary `json:"indicators"`
}

// RollupAxes folds indicator lines into per-axis aggregates, ordered by axis.
func RollupAxes(indicators []IndicatorSummary) []AxisRollup {
	type acc struct {
		count    int
		perfSum  float64
		perfSeen int
	}
	byAxis := make(map[taxonomy.Axis]*acc)
	for _, line := range indicators {
		if line.Axis == "" {
			continue
		}
		a, ok := byAxis[line.Axis]
		if !ok {
			a = &acc{}
			byAxis[line.Axis] = a
		}
		a.count++
		if line.PerformancePct != nil {
			a.perfSum += *line.PerformancePct
			a.perfSeen++
		}
	}

	axes := make([]taxonomy.Axis, 0, len(byAxis))
	for axis := range byAxis {
		axes = append(axes, axis)
	}
	sort.Slice(axes, func(i, j int) bool { return axes[i] < axes[j] })

	out := make([]AxisRollup, 0, len(axes))
	for _, axis := range axes {
		a := byAxis[axis]
		rollup := AxisRollup{Axis: axis, Indicators: a.count}
		if a.perfSeen > 0 {
			avg := a.perfSum / float64(a.perfSeen)
			rollup.AvgPerformancePct = &avg
		}
		out = append(out, rollup)
	}
	return out
}
