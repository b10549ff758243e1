package consol

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-esg/meridian-esg/internal/ledger"
)

// Repository loads the validated inputs of a consolidation run.
type Repository interface {
	ValidatedRows(ctx context.Context, orgID int64, scope ledger.Scope, year int) ([]SourceRow, error)
	Targets(ctx context.Context, orgID int64, year int) (map[string]float64, error)
	UpsertTarget(ctx context.Context, target Target) error
	DeleteTarget(ctx context.Context, orgID int64, indicatorCode string, year int) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres-backed consolidation repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) ValidatedRows(ctx context.Context, orgID int64, scope ledger.Scope, year int) ([]SourceRow, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT v.indicator_code, e.name, v.unit, e.axis, e.formula,
		v.site_id, COALESCE(n.name, ''), v.month, v.value, v.validated_at
	FROM indicator_values v
	JOIN taxonomy_elements e ON e.kind = 'indicator' AND e.code = v.indicator_code
	LEFT JOIN hierarchy_nodes n ON n.id = v.site_id
	WHERE v.organization_id = $1 AND v.year = $2 AND v.status = 'validated' AND v.value IS NOT NULL`)
	args := []any{orgID, year}

	add := func(column string, value any) {
		args = append(args, value)
		query.WriteString(fmt.Sprintf(" AND %s = $%d", column, len(args)))
	}
	if scope.BusinessLineID != nil {
		add("v.business_line_id", *scope.BusinessLineID)
	}
	if scope.SubsidiaryID != nil {
		add("v.subsidiary_id", *scope.SubsidiaryID)
	}
	if scope.SiteID != nil {
		add("v.site_id", *scope.SiteID)
	}
	query.WriteString(" ORDER BY v.indicator_code, v.month, v.id")

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("load validated rows: %w", err)
	}
	defer rows.Close()

	var out []SourceRow
	for rows.Next() {
		var src SourceRow
		if err := rows.Scan(&src.IndicatorCode, &src.IndicatorName, &src.Unit, &src.Axis,
			&src.Formula, &src.SiteID, &src.SiteName, &src.Month, &src.Value, &src.ValidatedAt); err != nil {
			return nil, fmt.Errorf("scan validated row: %w", err)
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

func (r *pgRepository) Targets(ctx context.Context, orgID int64, year int) (map[string]float64, error) {
	rows, err := r.pool.Query(ctx, `SELECT indicator_code, value FROM indicator_targets
		WHERE organization_id = $1 AND year = $2`, orgID, year)
	if err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}
	defer rows.Close()

	targets := make(map[string]float64)
	for rows.Next() {
		var code string
		var value float64
		if err := rows.Scan(&code, &value); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		targets[code] = value
	}
	return targets, rows.Err()
}

func (r *pgRepository) UpsertTarget(ctx context.Context, target Target) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO indicator_targets (organization_id, indicator_code, year, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (organization_id, indicator_code, year) DO UPDATE SET value = EXCLUDED.value`,
		target.OrganizationID, target.IndicatorCode, target.Year, target.Value)
	if err != nil {
		return fmt.Errorf("upsert target: %w", err)
	}
	return nil
}

func (r *pgRepository) DeleteTarget(ctx context.Context, orgID int64, indicatorCode string, year int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM indicator_targets
		WHERE organization_id = $1 AND indicator_code = $2 AND year = $3`, orgID, indicatorCode, year)
	if err != nil {
		return fmt.Errorf("delete target: %w", err)
	}
	return nil
}
