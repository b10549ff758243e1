package assignment

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-esg/meridian-esg/internal/shared"
	"github.com/meridian-esg/meridian-esg/internal/taxonomy"
)

// Repository persists organization assignments.
type Repository interface {
	Codes(ctx context.Context, orgID int64, kind taxonomy.Kind) ([]string, error)
	Replace(ctx context.Context, orgID int64, kind taxonomy.Kind, codes []string) error
	Remove(ctx context.Context, orgID int64, kind taxonomy.Kind) error
	Sector(ctx context.Context, orgID int64) (SectorAssignment, error)
	SetSector(ctx context.Context, assign SectorAssignment) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Codes(ctx context.Context, orgID int64, kind taxonomy.Kind) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT code FROM organization_assignments
WHERE organization_id = $1 AND kind = $2 ORDER BY code`, orgID, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// Replace performs a full overwrite of the assigned code list.
func (r *repository) Replace(ctx context.Context, orgID int64, kind taxonomy.Kind, codes []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM organization_assignments WHERE organization_id = $1 AND kind = $2`,
		orgID, string(kind)); err != nil {
		return err
	}
	for _, code := range codes {
		if _, err := tx.Exec(ctx, `INSERT INTO organization_assignments (organization_id, kind, code) VALUES ($1, $2, $3)`,
			orgID, string(kind), code); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *repository) Remove(ctx context.Context, orgID int64, kind taxonomy.Kind) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM organization_assignments WHERE organization_id = $1 AND kind = $2`,
		orgID, string(kind))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("assignment: organization %d has no %s assignment: %w", orgID, kind, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Sector(ctx context.Context, orgID int64) (SectorAssignment, error) {
	var assign SectorAssignment
	err := r.pool.QueryRow(ctx, `SELECT organization_id, sector_code, COALESCE(subsector_code, '')
FROM organization_sectors WHERE organization_id = $1`, orgID).
		Scan(&assign.OrganizationID, &assign.SectorCode, &assign.SubsectorCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SectorAssignment{}, fmt.Errorf("assignment: organization %d sector: %w", orgID, shared.ErrNotFound)
		}
		return SectorAssignment{}, err
	}
	return assign, nil
}

// SetSector upserts the singular sector/subsector pair.
func (r *repository) SetSector(ctx context.Context, assign SectorAssignment) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO organization_sectors (organization_id, sector_code, subsector_code)
VALUES ($1, $2, NULLIF($3, ''))
ON CONFLICT (organization_id) DO UPDATE SET sector_code = EXCLUDED.sector_code, subsector_code = EXCLUDED.subsector_code`,
		assign.OrganizationID, assign.SectorCode, assign.SubsectorCode)
	return err
}
