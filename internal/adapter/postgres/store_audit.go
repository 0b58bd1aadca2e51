package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/ActionForge/internal/domain/audit"
	"github.com/Strob0t/ActionForge/internal/port/auditlog"
)

// AuditStore implements auditlog.Log using PostgreSQL.
type AuditStore struct {
	pool *pgxpool.Pool
}

var _ auditlog.Log = (*AuditStore)(nil)

// NewAuditStore creates an AuditStore backed by the given connection pool.
func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// Append inserts all records in one batch.
func (s *AuditStore) Append(ctx context.Context, recs ...audit.Record) error {
	if len(recs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range recs {
		payload, err := json.Marshal(recs[i].Payload)
		if err != nil {
			return fmt.Errorf("marshal audit payload %s: %w", recs[i].ID, err)
		}
		batch.Queue(
			`INSERT INTO audit_records (id, actor, type, payload, timestamp) VALUES ($1, $2, $3, $4, $5)`,
			recs[i].ID, recs[i].Actor, string(recs[i].Type), payload, recs[i].Timestamp)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("append audit records: %w", err)
	}
	return nil
}

func (s *AuditStore) List(ctx context.Context, limit int) ([]audit.Record, error) {
	query := `SELECT id, actor, type, payload, timestamp FROM audit_records ORDER BY timestamp DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var out []audit.Record
	for rows.Next() {
		var (
			r       audit.Record
			typ     string
			payload []byte
		)
		if err := rows.Scan(&r.ID, &r.Actor, &typ, &payload, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		r.Type = audit.Type(typ)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &r.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal audit payload %s: %w", r.ID, err)
			}
		}
		out = append(out, r)
	}
	return orEmpty(out), rows.Err()
}
