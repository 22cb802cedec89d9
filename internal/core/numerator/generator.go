// Package numerator provides domain contracts for document auto-numbering.
// Implementations live in the infrastructure layer.
package numerator

import (
	"context"
	"fmt"
	"time"
)

// Generator mints sequential document numbers.
// This is the domain contract - the PostgreSQL implementation keeps one
// atomic counter per (prefix, day) so concurrent creations never collide.
type Generator interface {
	// NextNumber generates the next document number for the prefix and the
	// day of `at`. Pattern: {prefix}{YYYYMMDD}{seq} with seq zero-padded to
	// cfg.PadWidth (e.g. PN20260829001, TN202608290001).
	//
	// Must be called inside the same transaction that persists the record.
	NextNumber(ctx context.Context, cfg Config, at time.Time) (string, error)
}

// Config holds numbering configuration for one document kind.
type Config struct {
	// Prefix identifies the document kind (PN, PX, TN, TX)
	Prefix string

	// PadWidth is the zero-padded width of the daily sequence
	PadWidth int
}

// Well-known numbering configurations.
var (
	ImportVoucher = Config{Prefix: "PN", PadWidth: 3}
	ExportVoucher = Config{Prefix: "PX", PadWidth: 3}
	IncomeTxn     = Config{Prefix: "TN", PadWidth: 4}
	ExpenseTxn    = Config{Prefix: "TX", PadWidth: 4}
)

// DateKey returns the daily counter key segment for `at` (UTC).
func DateKey(at time.Time) string {
	return at.UTC().Format("20060102")
}

// Format renders the final document number.
func Format(cfg Config, at time.Time, seq int64) string {
	return fmt.Sprintf("%s%s%0*d", cfg.Prefix, DateKey(at), cfg.PadWidth, seq)
}
