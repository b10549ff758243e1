package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-esg/meridian-esg/internal/shared"
)

const uniqueViolation = "23505"

// Repository persists indicator values.
type Repository interface {
	List(ctx context.Context, f Filter) ([]IndicatorValue, error)
	Get(ctx context.Context, id int64) (IndicatorValue, error)
	Find(ctx context.Context, v IndicatorValue) (IndicatorValue, error)
	Insert(ctx context.Context, v *IndicatorValue) error
	Update(ctx context.Context, v *IndicatorValue) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a Postgres-backed ledger repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const valueColumns = `id, uid, organization_id, business_line_id, subsidiary_id, site_id,
	process_code, indicator_code, year, month, value, unit, status, comment,
	submitted_by, submitted_at, validated_by, validated_at, created_at, updated_at`

func scanValue(row pgx.Row) (IndicatorValue, error) {
	var v IndicatorValue
	err := row.Scan(&v.ID, &v.UID, &v.OrganizationID, &v.BusinessLineID, &v.SubsidiaryID,
		&v.SiteID, &v.ProcessCode, &v.IndicatorCode, &v.Year, &v.Month, &v.Value, &v.Unit,
		&v.Status, &v.Comment, &v.SubmittedBy, &v.SubmittedAt, &v.ValidatedBy, &v.ValidatedAt,
		&v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return IndicatorValue{}, shared.ErrNotFound
	}
	return v, err
}

func (r *pgRepository) List(ctx context.Context, f Filter) ([]IndicatorValue, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT ` + valueColumns + ` FROM indicator_values WHERE organization_id = $1`)
	args := []any{f.OrganizationID}

	add := func(clause string, value any) {
		args = append(args, value)
		query.WriteString(fmt.Sprintf(" AND %s = $%d", clause, len(args)))
	}
	if f.Scope.BusinessLineID != nil {
		add("business_line_id", *f.Scope.BusinessLineID)
	}
	if f.Scope.SubsidiaryID != nil {
		add("subsidiary_id", *f.Scope.SubsidiaryID)
	}
	if f.Scope.SiteID != nil {
		add("site_id", *f.Scope.SiteID)
	}
	if f.ProcessCode != "" {
		add("process_code", f.ProcessCode)
	}
	if f.IndicatorCode != "" {
		add("indicator_code", f.IndicatorCode)
	}
	if f.Year != 0 {
		add("year", f.Year)
	}
	if f.Month != 0 {
		add("month", f.Month)
	}
	if f.Status != "" {
		add("status", string(f.Status))
	}
	query.WriteString(" ORDER BY year, month, indicator_code, id")

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list indicator values: %w", err)
	}
	defer rows.Close()

	var out []IndicatorValue
	for rows.Next() {
		v, err := scanValue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan indicator value: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *pgRepository) Get(ctx context.Context, id int64) (IndicatorValue, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+valueColumns+` FROM indicator_values WHERE id = $1`, id)
	return scanValue(row)
}

// Find resolves a row by its composite identity.
func (r *pgRepository) Find(ctx context.Context, v IndicatorValue) (IndicatorValue, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+valueColumns+` FROM indicator_values
		WHERE organization_id = $1
		  AND business_line_id IS NOT DISTINCT FROM $2
		  AND subsidiary_id IS NOT DISTINCT FROM $3
		  AND site_id IS NOT DISTINCT FROM $4
		  AND process_code = $5 AND indicator_code = $6 AND year = $7 AND month = $8`,
		v.OrganizationID, v.BusinessLineID, v.SubsidiaryID, v.SiteID,
		v.ProcessCode, v.IndicatorCode, v.Year, v.Month)
	return scanValue(row)
}

func (r *pgRepository) Insert(ctx context.Context, v *IndicatorValue) error {
	if v.UID == uuid.Nil {
		v.UID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, `INSERT INTO indicator_values
		(uid, organization_id, business_line_id, subsidiary_id, site_id,
		 process_code, indicator_code, year, month, value, unit, status, comment)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id, created_at, updated_at`,
		v.UID, v.OrganizationID, v.BusinessLineID, v.SubsidiaryID, v.SiteID,
		v.ProcessCode, v.IndicatorCode, v.Year, v.Month, v.Value, v.Unit, v.Status, v.Comment).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return shared.ErrDuplicate
		}
		return fmt.Errorf("insert indicator value: %w", err)
	}
	return nil
}

func (r *pgRepository) Update(ctx context.Context, v *IndicatorValue) error {
	tag, err := r.pool.Exec(ctx, `UPDATE indicator_values SET
		value = $2, unit = $3, status = $4, comment = $5,
		submitted_by = $6, submitted_at = $7, validated_by = $8, validated_at = $9,
		updated_at = now()
		WHERE id = $1`,
		v.ID, v.Value, v.Unit, v.Status, v.Comment,
		v.SubmittedBy, v.SubmittedAt, v.ValidatedBy, v.ValidatedAt)
	if err != nil {
		return fmt.Errorf("update indicator value: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
