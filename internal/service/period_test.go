package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/booth-finance/api/internal/database"
	"github.com/booth-finance/api/internal/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- Mock implementation ---

type mockPeriodStore struct {
	entries    []database.CashbookEntry
	entriesErr error
	ranges     []database.ListPeriodClosingRangesRow
	rangesErr  error

	created   *database.CreatePeriodClosingParams
	createErr error
}

func (m *mockPeriodStore) QueryLedgerRange(ctx context.Context, arg database.QueryLedgerRangeParams) ([]database.CashbookEntry, error) {
	return m.entries, m.entriesErr
}

func (m *mockPeriodStore) ListPeriodClosingRanges(ctx context.Context) ([]database.ListPeriodClosingRangesRow, error) {
	return m.ranges, m.rangesErr
}

func (m *mockPeriodStore) CreatePeriodClosing(ctx context.Context, arg database.CreatePeriodClosingParams) (database.PeriodClosing, error) {
	if m.createErr != nil {
		return database.PeriodClosing{}, m.createErr
	}
	m.created = &arg
	return database.PeriodClosing{
		ID:           uuid.New(),
		StartDate:    arg.StartDate,
		EndDate:      arg.EndDate,
		TotalRevenue: arg.TotalRevenue,
		TotalHpp:     arg.TotalHpp,
		TotalOpex:    arg.TotalOpex,
		NetProfit:    arg.NetProfit,
		CreatedBy:    arg.CreatedBy,
	}, nil
}

// --- Test helpers ---

func entry(date, category, amount string) database.CashbookEntry {
	entryType := enum.EntryTypeOut
	if category == enum.CategoryPenjualan || category == enum.CategoryModalIn {
		entryType = enum.EntryTypeIn
	}
	return database.CashbookEntry{
		ID:       uuid.New(),
		Date:     makeDate(date),
		Type:     entryType,
		Category: category,
		Amount:   makeNumeric(amount),
		UserID:   uuid.New(),
	}
}

func day(val string) time.Time {
	t, _ := time.Parse("2006-01-02", val)
	return t
}

func closingRange(start, end string) database.ListPeriodClosingRangesRow {
	return database.ListPeriodClosingRangesRow{
		StartDate: makeDate(start),
		EndDate:   makeDate(end),
	}
}

// =====================
// SummarizeLedger tests
// =====================

func TestSummarizeLedger_ProfitAndMargin(t *testing.T) {
	entries := []database.CashbookEntry{
		entry("2026-01-05", enum.CategoryPenjualan, "100000.00"),
		entry("2026-01-06", enum.CategoryBahanDagangan, "40000.00"),
		entry("2026-01-07", enum.CategoryOpex, "10000.00"),
	}

	got := SummarizeLedger(entries)
	if !got.Revenue.Equal(decimal.RequireFromString("100000")) {
		t.Errorf("revenue: got %v, want 100000", got.Revenue)
	}
	if !got.Hpp.Equal(decimal.RequireFromString("40000")) {
		t.Errorf("hpp: got %v, want 40000", got.Hpp)
	}
	if !got.Opex.Equal(decimal.RequireFromString("10000")) {
		t.Errorf("opex: got %v, want 10000", got.Opex)
	}
	if !got.NetProfit.Equal(decimal.RequireFromString("50000")) {
		t.Errorf("net_profit: got %v, want 50000", got.NetProfit)
	}
	if !got.Margin.Equal(decimal.RequireFromString("50")) {
		t.Errorf("margin: got %v, want 50", got.Margin)
	}
}

func TestSummarizeLedger_CapitalExcludedFromProfit(t *testing.T) {
	entries := []database.CashbookEntry{
		entry("2026-01-05", enum.CategoryPenjualan, "100000.00"),
		entry("2026-01-05", enum.CategoryModalIn, "500000.00"),
		entry("2026-01-06", enum.CategoryModalOut, "200000.00"),
	}

	got := SummarizeLedger(entries)
	if !got.Revenue.Equal(decimal.RequireFromString("100000")) {
		t.Errorf("revenue: got %v, want 100000", got.Revenue)
	}
	if !got.NetProfit.Equal(decimal.RequireFromString("100000")) {
		t.Errorf("net_profit: got %v, want 100000 (capital movements excluded)", got.NetProfit)
	}
}

func TestSummarizeLedger_ZeroRevenueZeroMargin(t *testing.T) {
	entries := []database.CashbookEntry{
		entry("2026-01-05", enum.CategoryOpex, "25000.00"),
	}

	got := SummarizeLedger(entries)
	if !got.NetProfit.Equal(decimal.RequireFromString("-25000")) {
		t.Errorf("net_profit: got %v, want -25000", got.NetProfit)
	}
	if !got.Margin.IsZero() {
		t.Errorf("margin with zero revenue: got %v, want 0", got.Margin)
	}
}

func TestSummarizeLedger_Empty(t *testing.T) {
	got := SummarizeLedger(nil)
	if !got.Revenue.IsZero() || !got.NetProfit.IsZero() || !got.Margin.IsZero() {
		t.Errorf("empty ledger should produce all-zero totals, got %+v", got)
	}
}

// =====================
// DailyBreakdown tests
// =====================

func TestDailyBreakdown_ZeroFillsQuietDays(t *testing.T) {
	entries := []database.CashbookEntry{
		entry("2026-01-01", enum.CategoryPenjualan, "50000.00"),
		entry("2026-01-03", enum.CategoryOpex, "10000.00"),
	}

	got := DailyBreakdown(entries, day("2026-01-01"), day("2026-01-03"))
	if len(got) != 3 {
		t.Fatalf("days: got %d, want 3", len(got))
	}
	if !got[0].Revenue.Equal(decimal.RequireFromString("50000")) {
		t.Errorf("day 1 revenue: got %v, want 50000", got[0].Revenue)
	}
	if !got[1].Revenue.IsZero() || !got[1].NetProfit.IsZero() {
		t.Errorf("day 2 should be zero-filled, got %+v", got[1])
	}
	if !got[2].NetProfit.Equal(decimal.RequireFromString("-10000")) {
		t.Errorf("day 3 net_profit: got %v, want -10000", got[2].NetProfit)
	}
}

func TestDailyBreakdown_InvertedRange(t *testing.T) {
	got := DailyBreakdown(nil, day("2026-01-10"), day("2026-01-01"))
	if got != nil {
		t.Errorf("inverted range should yield nil, got %v", got)
	}
}

// =====================
// Overlap tests
// =====================

func TestRangesOverlap(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     string
		want                           bool
	}{
		{"partial overlap", "2024-01-15", "2024-02-05", "2024-01-01", "2024-01-31", true},
		{"adjacent no overlap", "2024-02-01", "2024-02-28", "2024-01-01", "2024-01-31", false},
		{"contained", "2024-01-10", "2024-01-20", "2024-01-01", "2024-01-31", true},
		{"shared boundary day", "2024-01-31", "2024-02-10", "2024-01-01", "2024-01-31", true},
		{"same range", "2024-01-01", "2024-01-31", "2024-01-01", "2024-01-31", true},
		{"disjoint before", "2023-12-01", "2023-12-31", "2024-01-01", "2024-01-31", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := rangesOverlap(day(tc.aStart), day(tc.aEnd), day(tc.bStart), day(tc.bEnd))
			if got != tc.want {
				t.Errorf("overlap(%s..%s, %s..%s): got %v, want %v",
					tc.aStart, tc.aEnd, tc.bStart, tc.bEnd, got, tc.want)
			}
		})
	}
}

// =====================
// Preview tests
// =====================

func TestPreview_ReportsOverlap(t *testing.T) {
	store := &mockPeriodStore{
		entries: []database.CashbookEntry{
			entry("2024-01-20", enum.CategoryPenjualan, "100000.00"),
		},
		ranges: []database.ListPeriodClosingRangesRow{
			closingRange("2024-01-01", "2024-01-31"),
		},
	}
	svc := NewPeriodService(store)

	got, err := svc.Preview(context.Background(), day("2024-01-15"), day("2024-02-05"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Overlaps {
		t.Error("expected overlap to be reported")
	}
	if got.EntryCount != 1 {
		t.Errorf("entry count: got %d, want 1", got.EntryCount)
	}
}

func TestPreview_InvalidRange(t *testing.T) {
	svc := NewPeriodService(&mockPeriodStore{})
	_, err := svc.Preview(context.Background(), day("2024-02-01"), day("2024-01-01"))
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got: %v", err)
	}
}

// =====================
// Lock tests
// =====================

func TestLock_HappyPath(t *testing.T) {
	store := &mockPeriodStore{
		entries: []database.CashbookEntry{
			entry("2024-02-05", enum.CategoryPenjualan, "100000.00"),
			entry("2024-02-10", enum.CategoryBahanDagangan, "40000.00"),
			entry("2024-02-12", enum.CategoryOpex, "10000.00"),
		},
		ranges: []database.ListPeriodClosingRangesRow{
			closingRange("2024-01-01", "2024-01-31"),
		},
	}
	svc := NewPeriodService(store)

	closing, err := svc.Lock(context.Background(), day("2024-02-01"), day("2024-02-28"), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if store.created == nil {
		t.Fatal("expected a closing to be persisted")
	}
	if !numericEquals(store.created.TotalRevenue, "100000.00") {
		t.Errorf("total_revenue: got %v, want 100000.00", numericToDecimal(store.created.TotalRevenue))
	}
	if !numericEquals(store.created.NetProfit, "50000.00") {
		t.Errorf("net_profit: got %v, want 50000.00", numericToDecimal(store.created.NetProfit))
	}
	if !closing.StartDate.Time.Equal(day("2024-02-01")) {
		t.Errorf("start_date: got %v, want 2024-02-01", closing.StartDate.Time)
	}
}

func TestLock_RejectsOverlap(t *testing.T) {
	store := &mockPeriodStore{
		entries: []database.CashbookEntry{
			entry("2024-01-20", enum.CategoryPenjualan, "100000.00"),
		},
		ranges: []database.ListPeriodClosingRangesRow{
			closingRange("2024-01-01", "2024-01-31"),
		},
	}
	svc := NewPeriodService(store)

	_, err := svc.Lock(context.Background(), day("2024-01-15"), day("2024-02-05"), uuid.New())
	if !errors.Is(err, ErrPeriodOverlap) {
		t.Fatalf("expected ErrPeriodOverlap, got: %v", err)
	}
	if store.created != nil {
		t.Error("no closing should be persisted on overlap")
	}
}

func TestLock_RejectsEmptyPeriod(t *testing.T) {
	store := &mockPeriodStore{entries: nil}
	svc := NewPeriodService(store)

	_, err := svc.Lock(context.Background(), day("2024-03-01"), day("2024-03-31"), uuid.New())
	if !errors.Is(err, ErrEmptyPeriod) {
		t.Fatalf("expected ErrEmptyPeriod, got: %v", err)
	}
	if store.created != nil {
		t.Error("no closing should be persisted for an empty period")
	}
}

func TestLock_RejectsCapitalOnlyPeriod(t *testing.T) {
	store := &mockPeriodStore{
		entries: []database.CashbookEntry{
			entry("2024-03-05", enum.CategoryModalIn, "500000.00"),
			entry("2024-03-10", enum.CategoryModalOut, "200000.00"),
		},
	}
	svc := NewPeriodService(store)

	_, err := svc.Lock(context.Background(), day("2024-03-01"), day("2024-03-31"), uuid.New())
	if !errors.Is(err, ErrEmptyPeriod) {
		t.Fatalf("expected ErrEmptyPeriod, got: %v", err)
	}
	if store.created != nil {
		t.Error("no closing should be persisted when the range holds only capital movements")
	}
}

func TestLock_InvalidRange(t *testing.T) {
	svc := NewPeriodService(&mockPeriodStore{})
	_, err := svc.Lock(context.Background(), day("2024-02-01"), day("2024-01-01"), uuid.New())
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got: %v", err)
	}
}
