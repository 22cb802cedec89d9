package domain

import (
	"context"

	"shopcore/pkg/logger"
)

// AttemptAuxiliary runs a best-effort side effect of a durable state
// transition (financial posting after voucher approval, export-voucher
// creation after order completion).
//
// The primary operation has already committed when this runs; a failure here
// is logged and swallowed so the caller's result is unaffected. Missed
// postings are reconciled manually.
func AttemptAuxiliary(ctx context.Context, operation string, fn func(ctx context.Context) error) {
	if err := fn(ctx); err != nil {
		logger.Error(ctx, "auxiliary operation failed",
			"operation", operation,
			"error", err,
		)
	}
}
