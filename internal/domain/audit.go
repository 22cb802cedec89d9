package domain

import (
	"context"

	"shopcore/internal/core/id"
)

// Auditor records document lifecycle events. Implementations must not fail
// the business operation; callers invoke it through AttemptAuxiliary.
type Auditor interface {
	Record(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// NopAuditor discards audit events. Used in tests and tools that do not
// carry an audit log.
type NopAuditor struct{}

func (NopAuditor) Record(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error {
	return nil
}
