package shared

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// Auditor records destructive or privileged actions.
type Auditor interface {
	Record(ctx context.Context, log AuditLog) error
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`, log.ActorID, log.Action, log.Entity, log.EntityID, metaJSON, at)
	return err
}

// AuditEntry builds an AuditLog for the principal in ctx.
func AuditEntry(ctx context.Context, action, entity string, id int64) AuditLog {
	p, _ := PrincipalFromContext(ctx)
	return AuditLog{ActorID: p.ID, Action: action, Entity: entity, EntityID: strconv.FormatInt(id, 10)}
}

// NopAuditor discards every record.
type NopAuditor struct{}

// Record implements Auditor.
func (NopAuditor) Record(context.Context, AuditLog) error { return nil }
