package numerator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	at := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)

	require.Equal(t, "PN20260829001", Format(ImportVoucher, at, 1))
	require.Equal(t, "PX20260829042", Format(ExportVoucher, at, 42))
	require.Equal(t, "TN202608290001", Format(IncomeTxn, at, 1))
	require.Equal(t, "TX202608291234", Format(ExpenseTxn, at, 1234))
}

func TestFormat_PadOverflow(t *testing.T) {
	at := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	// sequence wider than the pad is rendered in full, not truncated
	require.Equal(t, "PN202608291000", Format(ImportVoucher, at, 1000))
}

func TestDateKey_UTC(t *testing.T) {
	// 23:30 in UTC+7 is 16:30 UTC the same day
	loc := time.FixedZone("UTC+7", 7*3600)
	at := time.Date(2026, 8, 29, 23, 30, 0, 0, loc)

	require.Equal(t, "20260829", DateKey(at))
}

func TestMockGenerator_SequencePerPrefixAndDay(t *testing.T) {
	ctx := context.Background()
	gen := NewMockGenerator()
	day1 := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	n1, err := gen.NextNumber(ctx, ImportVoucher, day1)
	require.NoError(t, err)
	n2, err := gen.NextNumber(ctx, ImportVoucher, day1)
	require.NoError(t, err)
	require.Equal(t, "PN20260829001", n1)
	require.Equal(t, "PN20260829002", n2)

	// a different prefix has its own counter
	x1, err := gen.NextNumber(ctx, ExportVoucher, day1)
	require.NoError(t, err)
	require.Equal(t, "PX20260829001", x1)

	// the counter resets per day
	d2, err := gen.NextNumber(ctx, ImportVoucher, day2)
	require.NoError(t, err)
	require.Equal(t, "PN20260830001", d2)
}
