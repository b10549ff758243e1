package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEntry records an administrative mutation against reference data.
type AuditEntry struct {
	Actor    Actor
	Action   string
	Entity   string
	EntityID string
	OrgID    int64
	Meta     map[string]any
	At       time.Time
}

// AuditLogger writes entries into audit_logs. Failures are logged and
// swallowed; auditing must never block the mutation it describes.
type AuditLogger struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool, logger *slog.Logger) *AuditLogger {
	return &AuditLogger{pool: pool, logger: logger}
}

// Record persists the entry best-effort.
func (l *AuditLogger) Record(ctx context.Context, entry AuditEntry) {
	if l == nil || l.pool == nil {
		return
	}
	if err := l.record(ctx, entry); err != nil && l.logger != nil {
		l.logger.Warn("audit record",
			slog.String("action", entry.Action),
			slog.String("entity", entry.Entity),
			slog.Any("error", err))
	}
}

func (l *AuditLogger) record(ctx context.Context, entry AuditEntry) error {
	if entry.Action == "" || entry.Entity == "" || entry.EntityID == "" {
		return errors.New("audit entry requires action/entity/entity_id")
	}
	metaJSON, err := json.Marshal(entry.Meta)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (actor_id, actor_role, action, entity, entity_id, org_id, meta, occurred_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, 0), $7, COALESCE(NULLIF($8, '0001-01-01 00:00:00+00'::timestamptz), NOW()))`,
		entry.Actor.ID, string(entry.Actor.Role), entry.Action, entry.Entity, entry.EntityID, entry.OrgID, metaJSON, entry.At)
	return err
}
