package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the dashboard projection and its fallback view.
type Repository interface {
	ProjectionRead(ctx context.Context, orgID int64, year int) ([]IndicatorSummary, time.Time, error)
	FallbackRead(ctx context.Context, orgID int64, year int) ([]IndicatorSummary, error)
	RefreshProjection(ctx context.Context) error
	OrganizationIDs(ctx context.Context) ([]int64, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres-backed dashboard repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const summaryColumns = `indicator_code, indicator_name, unit, axis, total,
	target, performance_pct, variation_pct, sites_count`

// ProjectionRead serves from the materialized view. The refresh timestamp
// lets callers surface staleness.
func (r *pgRepository) ProjectionRead(ctx context.Context, orgID int64, year int) ([]IndicatorSummary, time.Time, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+summaryColumns+`, refreshed_at
		FROM dashboard_projection WHERE organization_id = $1 AND year = $2
		ORDER BY indicator_code`, orgID, year)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("projection read: %w", err)
	}
	defer rows.Close()

	var out []IndicatorSummary
	var refreshedAt time.Time
	for rows.Next() {
		var line IndicatorSummary
		if err := rows.Scan(&line.IndicatorCode, &line.IndicatorName, &line.Unit, &line.Axis,
			&line.Total, &line.Target, &line.PerformancePct, &line.VariationPct,
			&line.SitesCount, &refreshedAt); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan projection line: %w", err)
		}
		out = append(out, line)
	}
	return out, refreshedAt, rows.Err()
}

// FallbackRead serves from the plain view computed at query time.
func (r *pgRepository) FallbackRead(ctx context.Context, orgID int64, year int) ([]IndicatorSummary, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+summaryColumns+`
		FROM dashboard_projection_live WHERE organization_id = $1 AND year = $2
		ORDER BY indicator_code`, orgID, year)
	if err != nil {
		return nil, fmt.Errorf("fallback read: %w", err)
	}
	defer rows.Close()

	var out []IndicatorSummary
	for rows.Next() {
		var line IndicatorSummary
		if err := rows.Scan(&line.IndicatorCode, &line.IndicatorName, &line.Unit, &line.Axis,
			&line.Total, &line.Target, &line.PerformancePct, &line.VariationPct,
			&line.SitesCount); err != nil {
			return nil, fmt.Errorf("scan fallback line: %w", err)
		}
		out = append(out, line)
	}
	return out, rows.Err()
}

// RefreshProjection rebuilds the materialized view without blocking readers.
func (r *pgRepository) RefreshProjection(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `REFRESH MATERIALIZED VIEW CONCURRENTLY dashboard_projection`); err != nil {
		return fmt.Errorf("refresh dashboard projection: %w", err)
	}
	return nil
}

func (r *pgRepository) OrganizationIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM organizations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list organization ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
