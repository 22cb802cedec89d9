package postgres

import (
	"context"
	"fmt"
	"time"

	corenumerator "shopcore/internal/core/numerator"
)

// Numerator implements document auto-numbering on top of an atomic daily
// counter row per (prefix, date). The UPSERT + RETURNING round trip makes
// concurrent creations allocate distinct sequence values.
type Numerator struct {
	txManager *TxManager
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Numerator)(nil)

// NewNumerator creates a new PostgreSQL-backed number generator.
func NewNumerator(txManager *TxManager) *Numerator {
	return &Numerator{txManager: txManager}
}

// NextNumber allocates the next number for the prefix and day. Runs against
// the caller's transaction when one is active, so an aborted document
// creation may leave a gap in the sequence but never a duplicate.
func (n *Numerator) NextNumber(ctx context.Context, cfg corenumerator.Config, at time.Time) (string, error) {
	key := fmt.Sprintf("%s_%s", cfg.Prefix, corenumerator.DateKey(at))

	var seq int64
	err := n.txManager.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("next number for %s: %w", key, err)
	}

	return corenumerator.Format(cfg, at, seq), nil
}
