package hierarchy

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

// Repository persists organizations and hierarchy nodes.
type Repository interface {
	ListOrganizations(ctx context.Context, filters shared.ListFilters) ([]Organization, int, error)
	GetOrganization(ctx context.Context, id int64) (Organization, error)
	GetOrganizationByName(ctx context.Context, name string) (Organization, error)
	CreateOrganization(ctx context.Context, org Organization) (Organization, error)
	UpdateOrganization(ctx context.Context, id int64, org Organization) error
	DeleteOrganization(ctx context.Context, id int64) error

	ListNodes(ctx context.Context, orgID int64, level Level) ([]Node, error)
	GetNode(ctx context.Context, id int64) (Node, error)
	CreateNode(ctx context.Context, node Node) (Node, error)
	DeleteNode(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ListOrganizations(ctx context.Context, filters shared.ListFilters) ([]Organization, int, error) {
	query := `SELECT id, name, city, country, org_type, created_at, updated_at FROM organizations WHERE 1=1`
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		query += ` AND name ILIKE $` + strconv.Itoa(len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM organizations WHERE 1=1`
	if filters.Search != "" {
		countQuery += ` AND name ILIKE $1`
		if err := r.pool.QueryRow(ctx, countQuery, args[0]).Scan(&total); err != nil {
			return nil, 0, err
		}
	} else if err := r.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name ASC`
	args = append(args, filters.Limit())
	query += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filters.Offset())
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		var org Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.City, &org.Country, &org.Type, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, 0, err
		}
		orgs = append(orgs, org)
	}
	return orgs, total, rows.Err()
}

func (r *repository) GetOrganization(ctx context.Context, id int64) (Organization, error) {
	var org Organization
	err := r.pool.QueryRow(ctx, `SELECT id, name, city, country, org_type, created_at, updated_at FROM organizations WHERE id = $1`, id).
		Scan(&org.ID, &org.Name, &org.City, &org.Country, &org.Type, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Organization{}, fmt.Errorf("hierarchy: organization %d: %w", id, shared.ErrNotFound)
		}
		return Organization{}, err
	}
	return org, nil
}

func (r *repository) GetOrganizationByName(ctx context.Context, name string) (Organization, error) {
	var org Organization
	err := r.pool.QueryRow(ctx, `SELECT id, name, city, country, org_type, created_at, updated_at FROM organizations WHERE name = $1`, name).
		Scan(&org.ID, &org.Name, &org.City, &org.Country, &org.Type, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Organization{}, fmt.Errorf("hierarchy: organization %q: %w", name, shared.ErrNotFound)
		}
		return Organization{}, err
	}
	return org, nil
}

func (r *repository) CreateOrganization(ctx context.Context, org Organization) (Organization, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO organizations (name, city, country, org_type)
VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at`,
		org.Name, org.City, org.Country, string(org.Type)).
		Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Organization{}, fmt.Errorf("hierarchy: organization %q: %w", org.Name, shared.ErrDuplicate)
		}
		return Organization{}, err
	}
	return org, nil
}

func (r *repository) UpdateOrganization(ctx context.Context, id int64, org Organization) error {
	tag, err := r.pool.Exec(ctx, `UPDATE organizations SET name = $2, city = $3, country = $4, org_type = $5, updated_at = NOW() WHERE id = $1`,
		id, org.Name, org.City, org.Country, string(org.Type))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("hierarchy: organization %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) DeleteOrganization(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("hierarchy: organization %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) ListNodes(ctx context.Context, orgID int64, level Level) ([]Node, error) {
	query := `SELECT id, organization_id, level, name, business_line_id, subsidiary_id, created_at
FROM hierarchy_nodes WHERE organization_id = $1`
	args := []any{orgID}
	if level != "" {
		args = append(args, string(level))
		query += ` AND level = $2`
	}
	query += ` ORDER BY level, name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		var n Node
		if err := rows.Scan(&n.ID, &n.OrganizationID, &n.Level, &n.Name, &n.BusinessLineID, &n.SubsidiaryID, &n.CreatedAt); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func (r *repository) GetNode(ctx context.Context, id int64) (Node, error) {
	var n Node
	err := r.pool.QueryRow(ctx, `SELECT id, organization_id, level, name, business_line_id, subsidiary_id, created_at
FROM hierarchy_nodes WHERE id = $1`, id).
		Scan(&n.ID, &n.OrganizationID, &n.Level, &n.Name, &n.BusinessLineID, &n.SubsidiaryID, &n.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Node{}, fmt.Errorf("hierarchy: node %d: %w", id, shared.ErrNotFound)
		}
		return Node{}, err
	}
	return n, nil
}

func (r *repository) CreateNode(ctx context.Context, node Node) (Node, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO hierarchy_nodes (organization_id, level, name, business_line_id, subsidiary_id)
VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		node.OrganizationID, string(node.Level), node.Name, node.BusinessLineID, node.SubsidiaryID).
		Scan(&node.ID, &node.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Node{}, fmt.Errorf("hierarchy: %s %q: %w", node.Level, node.Name, shared.ErrDuplicate)
		}
		return Node{}, err
	}
	return node, nil
}

func (r *repository) DeleteNode(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM hierarchy_nodes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("hierarchy: node %d: %w", id, shared.ErrNotFound)
	}
	return nil
}
