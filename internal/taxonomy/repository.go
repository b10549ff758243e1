package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-esg/meridian-esg/internal/shared"
)

const uniqueViolation = "23505"

// Repository persists taxonomy reference data.
type Repository interface {
	List(ctx context.Context, kind Kind, filters shared.ListFilters) ([]Element, int, error)
	Get(ctx context.Context, kind Kind, code string) (Element, error)
	Create(ctx context.Context, el Element) (Element, error)
	Update(ctx context.Context, kind Kind, code string, el Element) error
	Delete(ctx context.Context, kind Kind, code string) error
	Upsert(ctx context.Context, el Element) (Element, bool, error)

	ProcessIndicators(ctx context.Context, processCode string) ([]string, error)
	ReplaceProcessIndicators(ctx context.Context, processCode string, indicatorCodes []string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const elementColumns = `id, kind, code, name, description, unit, axis, formula, frequency, value_type, target, created_at, updated_at`

func scanElement(row pgx.Row) (Element, error) {
	var el Element
	err := row.Scan(&el.ID, &el.Kind, &el.Code, &el.Name, &el.Description, &el.Unit,
		&el.Axis, &el.Formula, &el.Frequency, &el.Type, &el.Target, &el.CreatedAt, &el.UpdatedAt)
	return el, err
}

func (r *repository) List(ctx context.Context, kind Kind, filters shared.ListFilters) ([]Element, int, error) {
	query := `SELECT ` + elementColumns + ` FROM taxonomy_elements WHERE kind = $1`
	args := []any{string(kind)}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		query += ` AND (code ILIKE $` + strconv.Itoa(len(args)) + ` OR name ILIKE $` + strconv.Itoa(len(args)) + `)`
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM taxonomy_elements WHERE kind = $1`
	countArgs := []any{string(kind)}
	if filters.Search != "" {
		countArgs = append(countArgs, "%"+filters.Search+"%")
		countQuery += ` AND (code ILIKE $2 OR name ILIKE $2)`
	}
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY code ASC`
	args = append(args, filters.Limit())
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var elements []Element
	for rows.Next() {
		el, err := scanElement(rows)
		if err != nil {
			return nil, 0, err
		}
		elements = append(elements, el)
	}
	return elements, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, kind Kind, code string) (Element, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+elementColumns+` FROM taxonomy_elements WHERE kind = $1 AND code = $2`,
		string(kind), code)
	el, err := scanElement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Element{}, fmt.Errorf("taxonomy: %s %s: %w", kind, code, shared.ErrNotFound)
		}
		return Element{}, err
	}
	return el, nil
}

func (r *repository) Create(ctx context.Context, el Element) (Element, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO taxonomy_elements
(kind, code, name, description, unit, axis, formula, frequency, value_type, target)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, created_at, updated_at`,
		string(el.Kind), el.Code, el.Name, el.Description, el.Unit, string(el.Axis),
		string(el.Formula), string(el.Frequency), string(el.Type), el.Target,
	).Scan(&el.ID, &el.CreatedAt, &el.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Element{}, fmt.Errorf("taxonomy: %s %s: %w", el.Kind, el.Code, shared.ErrDuplicate)
		}
		return Element{}, err
	}
	return el, nil
}

func (r *repository) Update(ctx context.Context, kind Kind, code string, el Element) error {
	tag, err := r.pool.Exec(ctx, `UPDATE taxonomy_elements
SET name = $3, description = $4, unit = $5, axis = $6, formula = $7, frequency = $8, value_type = $9, target = $10, updated_at = NOW()
WHERE kind = $1 AND code = $2`,
		string(kind), code, el.Name, el.Description, el.Unit, string(el.Axis),
		string(el.Formula), string(el.Frequency), string(el.Type), el.Target)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taxonomy: %s %s: %w", kind, code, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, kind Kind, code string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM taxonomy_elements WHERE kind = $1 AND code = $2`, string(kind), code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taxonomy: %s %s: %w", kind, code, shared.ErrNotFound)
	}
	return nil
}

// Upsert inserts the element when missing and reports whether a row was
// created. Existing metadata is left untouched.
func (r *repository) Upsert(ctx context.Context, el Element) (Element, bool, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO taxonomy_elements
(kind, code, name, description, unit, axis, formula, frequency, value_type, target)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (kind, code) DO NOTHING
RETURNING id, created_at, updated_at`,
		string(el.Kind), el.Code, el.Name, el.Description, el.Unit, string(el.Axis),
		string(el.Formula), string(el.Frequency), string(el.Type), el.Target,
	).Scan(&el.ID, &el.CreatedAt, &el.UpdatedAt)
	if err == nil {
		return el, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Element{}, false, err
	}
	existing, err := r.Get(ctx, el.Kind, el.Code)
	if err != nil {
		return Element{}, false, err
	}
	return existing, false, nil
}

func (r *repository) ProcessIndicators(ctx context.Context, processCode string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT indicator_code FROM process_indicators WHERE process_code = $1 ORDER BY indicator_code`, processCode)
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

// ReplaceProcessIndicators overwrites the full indicator list of a process.
func (r *repository) ReplaceProcessIndicators(ctx context.Context, processCode string, indicatorCodes []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM process_indicators WHERE process_code = $1`, processCode); err != nil {
		return err
	}
	for _, code := range indicatorCodes {
		if _, err := tx.Exec(ctx, `INSERT INTO process_indicators (process_code, indicator_code) VALUES ($1, $2)`, processCode, code); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
