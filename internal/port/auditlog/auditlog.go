// Package auditlog defines the append-only audit log port.
package auditlog

import (
	"context"

	"github.com/Strob0t/ActionForge/internal/domain/audit"
)

// Log stores audit records. Records are never updated.
type Log interface {
	Append(ctx context.Context, recs ...audit.Record) error
	// List returns the newest records first, at most limit (0 = all).
	List(ctx context.Context, limit int) ([]audit.Record, error)
}
