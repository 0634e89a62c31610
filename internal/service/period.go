package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/booth-finance/api/internal/database"
	"github.com/booth-finance/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the period service.
var (
	ErrInvalidPeriod = errors.New("start_date must not be after end_date")
	ErrPeriodOverlap = errors.New("period overlaps an existing closing")
	ErrEmptyPeriod   = errors.New("no revenue or cost entries in period")
)

// PeriodTotals is the profit/loss summary for a date range.
type PeriodTotals struct {
	Revenue   decimal.Decimal
	Hpp       decimal.Decimal
	Opex      decimal.Decimal
	NetProfit decimal.Decimal
	Margin    decimal.Decimal
}

// DailyTotals is a single day's slice of a period breakdown.
type DailyTotals struct {
	Date      time.Time
	Revenue   decimal.Decimal
	Hpp       decimal.Decimal
	Opex      decimal.Decimal
	NetProfit decimal.Decimal
}

// SummarizeLedger aggregates cashbook entries into period totals. Every
// report surface (summary, dashboard, closing preview, closing lock) goes
// through this one function so the numbers can never disagree.
//
// Revenue counts PENJUALAN entries, HPP counts BAHAN_DAGANGAN, Opex counts
// OPEX. Capital movements (MODAL_IN / MODAL_OUT) affect cash position but
// are excluded from profit.
func SummarizeLedger(entries []database.CashbookEntry) PeriodTotals {
	t := PeriodTotals{
		Revenue:   decimal.Zero,
		Hpp:       decimal.Zero,
		Opex:      decimal.Zero,
		NetProfit: decimal.Zero,
		Margin:    decimal.Zero,
	}
	for _, e := range entries {
		amount := numericToDecimal(e.Amount)
		switch e.Category {
		case enum.CategoryPenjualan:
			t.Revenue = t.Revenue.Add(amount)
		case enum.CategoryBahanDagangan:
			t.Hpp = t.Hpp.Add(amount)
		case enum.CategoryOpex:
			t.Opex = t.Opex.Add(amount)
		}
	}
	t.NetProfit = t.Revenue.Sub(t.Hpp).Sub(t.Opex)
	if t.Revenue.IsPositive() {
		t.Margin = t.NetProfit.Div(t.Revenue).Mul(decimal.NewFromInt(100))
	}
	return t
}

// DailyBreakdown buckets cashbook entries per day over [start, end],
// emitting a zero row for days with no activity so charts keep a
// continuous axis.
func DailyBreakdown(entries []database.CashbookEntry, start, end time.Time) []DailyTotals {
	start = truncateDay(start)
	end = truncateDay(end)
	if end.Before(start) {
		return nil
	}

	byDay := make(map[time.Time][]database.CashbookEntry)
	for _, e := range entries {
		day := truncateDay(e.Date.Time)
		byDay[day] = append(byDay[day], e)
	}

	var out []DailyTotals
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		t := SummarizeLedger(byDay[day])
		out = append(out, DailyTotals{
			Date:      day,
			Revenue:   t.Revenue,
			Hpp:       t.Hpp,
			Opex:      t.Opex,
			NetProfit: t.NetProfit,
		})
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// rangesOverlap reports whether [aStart, aEnd] and [bStart, bEnd] share at
// least one day. Both ranges are inclusive.
func rangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !(aEnd.Before(bStart) || aStart.After(bEnd))
}

// PeriodStore defines the DB methods needed for period profit/loss.
type PeriodStore interface {
	QueryLedgerRange(ctx context.Context, arg database.QueryLedgerRangeParams) ([]database.CashbookEntry, error)
	ListPeriodClosingRanges(ctx context.Context) ([]database.ListPeriodClosingRangesRow, error)
	CreatePeriodClosing(ctx context.Context, arg database.CreatePeriodClosingParams) (database.PeriodClosing, error)
}

// PeriodService computes and locks period profit/loss closings.
type PeriodService struct {
	store PeriodStore
}

// NewPeriodService creates a new PeriodService.
func NewPeriodService(store PeriodStore) *PeriodService {
	return &PeriodService{store: store}
}

// PreviewResult is the dry-run view of a would-be closing.
type PreviewResult struct {
	Totals     PeriodTotals
	EntryCount int
	Overlaps   bool
}

// Preview computes totals for a candidate closing without persisting
// anything, and reports whether the range would collide with an existing
// closing.
func (s *PeriodService) Preview(ctx context.Context, start, end time.Time) (*PreviewResult, error) {
	if end.Before(start) {
		return nil, ErrInvalidPeriod
	}

	entries, err := s.store.QueryLedgerRange(ctx, database.QueryLedgerRangeParams{
		StartDate: pgtype.Date{Time: start, Valid: true},
		EndDate:   pgtype.Date{Time: end, Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}

	overlaps, err := s.hasOverlap(ctx, start, end)
	if err != nil {
		return nil, err
	}

	return &PreviewResult{
		Totals:     SummarizeLedger(entries),
		EntryCount: len(entries),
		Overlaps:   overlaps,
	}, nil
}

// Lock persists a period closing after re-checking overlap and non-emptiness.
// Closings are immutable once written; correcting one means involving whoever
// operates the database directly.
func (s *PeriodService) Lock(ctx context.Context, start, end time.Time, createdBy uuid.UUID) (database.PeriodClosing, error) {
	if end.Before(start) {
		return database.PeriodClosing{}, ErrInvalidPeriod
	}

	overlaps, err := s.hasOverlap(ctx, start, end)
	if err != nil {
		return database.PeriodClosing{}, err
	}
	if overlaps {
		return database.PeriodClosing{}, ErrPeriodOverlap
	}

	entries, err := s.store.QueryLedgerRange(ctx, database.QueryLedgerRangeParams{
		StartDate: pgtype.Date{Time: start, Valid: true},
		EndDate:   pgtype.Date{Time: end, Valid: true},
	})
	if err != nil {
		return database.PeriodClosing{}, fmt.Errorf("query ledger: %w", err)
	}

	// Capital movements alone do not make a closeable period: the range must
	// contain at least one revenue or cost entry.
	totals := SummarizeLedger(entries)
	if totals.Revenue.IsZero() && totals.Hpp.IsZero() && totals.Opex.IsZero() {
		return database.PeriodClosing{}, ErrEmptyPeriod
	}

	closing, err := s.store.CreatePeriodClosing(ctx, database.CreatePeriodClosingParams{
		StartDate:    pgtype.Date{Time: start, Valid: true},
		EndDate:      pgtype.Date{Time: end, Valid: true},
		TotalRevenue: decimalToNumeric(totals.Revenue),
		TotalHpp:     decimalToNumeric(totals.Hpp),
		TotalOpex:    decimalToNumeric(totals.Opex),
		NetProfit:    decimalToNumeric(totals.NetProfit),
		CreatedBy:    createdBy,
	})
	if err != nil {
		return database.PeriodClosing{}, fmt.Errorf("create period closing: %w", err)
	}
	return closing, nil
}

func (s *PeriodService) hasOverlap(ctx context.Context, start, end time.Time) (bool, error) {
	existing, err := s.store.ListPeriodClosingRanges(ctx)
	if err != nil {
		return false, fmt.Errorf("list closing ranges: %w", err)
	}
	start = truncateDay(start)
	end = truncateDay(end)
	for _, r := range existing {
		if rangesOverlap(start, end, truncateDay(r.StartDate.Time), truncateDay(r.EndDate.Time)) {
			return true, nil
		}
	}
	return false, nil
}
