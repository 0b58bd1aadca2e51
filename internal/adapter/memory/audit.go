package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/Strob0t/ActionForge/internal/domain/audit"
	"github.com/Strob0t/ActionForge/internal/port/auditlog"
)

// AuditLog is an append-only in-memory audit log.
type AuditLog struct {
	mu   sync.RWMutex
	recs []audit.Record
}

var _ auditlog.Log = (*AuditLog)(nil)

// NewAuditLog creates an empty log.
func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

func (l *AuditLog) Append(_ context.Context, recs ...audit.Record) error {
	l.mu.Lock()
	l.recs = append(l.recs, recs...)
	l.mu.Unlock()
	return nil
}

// List returns the newest records first.
func (l *AuditLog) List(_ context.Context, limit int) ([]audit.Record, error) {
	l.mu.RLock()
	out := slices.Clone(l.recs)
	l.mu.RUnlock()

	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []audit.Record{}
	}
	return out, nil
}
