package consol

import (
	"sort"

	"github.com/meridian-esg/meridian-esg/internal/taxonomy"
)

// Consolidate aggregates validated rows into per-indicator annual lines.
// It is pure; the same inputs always produce the same result. Empty input
// yields an empty indicator list, never an error.
func Consolidate(orgID int64, year int, rows, prior []SourceRow, targets map[string]float64) Result {
	res := Result{OrganizationID: orgID, Year: year}

	current := groupByIndicator(rows)
	previous := groupByIndicator(prior)

	codes := make([]string, 0, len(current))
	for code := range current {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		group := current[code]
		line := consolidateIndicator(group)

		if priorGroup, ok := previous[code]; ok {
			priorLine := consolidateIndicator(priorGroup)
			line.PriorTotal = priorLine.Total
			line.VariationPct = variation(line.Total, priorLine.Total)
		}
		if target, ok := targets[code]; ok {
			line.Target = &target
			line.PerformancePct = performance(line.Total, target)
		}
		res.Indicators = append(res.Indicators, line)
	}
	return res
}

func groupByIndicator(rows []SourceRow) map[string][]SourceRow {
	groups := make(map[string][]SourceRow)
	for _, row := range rows {
		if row.Month < 1 || row.Month > 12 {
			continue
		}
		groups[row.IndicatorCode] = append(groups[row.IndicatorCode], row)
	}
	return groups
}

func consolidateIndicator(rows []SourceRow) ConsolidatedIndicator {
	meta := rows[0]
	line := ConsolidatedIndicator{
		IndicatorCode: meta.IndicatorCode,
		IndicatorName: meta.IndicatorName,
		Unit:          meta.Unit,
		Axis:          meta.Axis,
		Formula:       meta.Formula,
	}

	byMonth := make(map[int][]SourceRow, 12)
	sites := make(map[string]struct{})
	for _, row := range rows {
		byMonth[row.Month] = append(byMonth[row.Month], row)
		if row.SiteName != "" {
			sites[row.SiteName] = struct{}{}
		}
	}
	line.SitesCount = len(sites)
	for site := range sites {
		line.Sites = append(line.Sites, site)
	}
	sort.Strings(line.Sites)

	for month := 1; month <= 12; month++ {
		monthRows, ok := byMonth[month]
		if !ok {
			continue
		}
		cell := aggregateMonth(meta.Formula, monthRows)
		line.Months[month-1] = &cell
	}

	line.Total = annualTotal(meta.Formula, line.Months)
	return line
}

// aggregateMonth folds the values reported by different sites for one month
// into a single cell.
func aggregateMonth(formula taxonomy.Formula, rows []SourceRow) float64 {
	switch formula {
	case taxonomy.FormulaAverage:
		var sum float64
		for _, row := range rows {
			sum += row.Value
		}
		return sum / float64(len(rows))
	case taxonomy.FormulaMax:
		max := rows[0].Value
		for _, row := range rows[1:] {
			if row.Value > max {
				max = row.Value
			}
		}
		return max
	case taxonomy.FormulaMin:
		min := rows[0].Value
		for _, row := range rows[1:] {
			if row.Value < min {
				min = row.Value
			}
		}
		return min
	case taxonomy.FormulaLastMonth:
		// The most recently validated report wins within the month.
		latest := rows[0]
		for _, row := range rows[1:] {
			if row.ValidatedAt.After(latest.ValidatedAt) {
				latest = row
			}
		}
		return latest.Value
	default: // sum
		var sum float64
		for _, row := range rows {
			sum += row.Value
		}
		return sum
	}
}

// annualTotal folds the monthly cells into the annual aggregate using the
// indicator's own formula. last_month keeps the latest reported month.
func annualTotal(formula taxonomy.Formula, months [12]*float64) *float64 {
	var cells []float64
	for _, cell := range months {
		if cell != nil {
			cells = append(cells, *cell)
		}
	}
	if len(cells) == 0 {
		return nil
	}
	var total float64
	switch formula {
	case taxonomy.FormulaAverage:
		for _, v := range cells {
			total += v
		}
		total /= float64(len(cells))
	case taxonomy.FormulaMax:
		total = cells[0]
		for _, v := range cells[1:] {
			if v > total {
				total = v
			}
		}
	case taxonomy.FormulaMin:
		total = cells[0]
		for _, v := range cells[1:] {
			if v < total {
				total = v
			}
		}
	case taxonomy.FormulaLastMonth:
		for month := 11; month >= 0; month-- {
			if months[month] != nil {
				total = *months[month]
				break
			}
		}
	default: // sum
		for _, v := range cells {
			total += v
		}
	}
	return &total
}

// variation is the year-over-year change in percent. A missing or zero prior
// total yields no variation rather than a division artefact.
func variation(total, prior *float64) *float64 {
	if total == nil || prior == nil || *prior == 0 {
		return nil
	}
	v := (*total - *prior) / *prior * 100
	return &v
}

// performance relates the annual total to the target in percent.
func performance(total *float64, target float64) *float64 {
	if total == nil || target == 0 {
		return nil
	}
	p := *total / target * 100
	return &p
}
