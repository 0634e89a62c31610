package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const cashbookColumns = `id, date, type, category, amount, description, user_id, session_id, created_at`

func scanCashbookEntry(row interface{ Scan(...any) error }) (CashbookEntry, error) {
	var e CashbookEntry
	err := row.Scan(&e.ID, &e.Date, &e.Type, &e.Category, &e.Amount,
		&e.Description, &e.UserID, &e.SessionID, &e.CreatedAt)
	return e, err
}

const createCashbookEntry = `
INSERT INTO cashbook_entries (date, type, category, amount, description, user_id, session_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + cashbookColumns

type CreateCashbookEntryParams struct {
	Date        pgtype.Date
	Type        string
	Category    string
	Amount      pgtype.Numeric
	Description pgtype.Text
	UserID      uuid.UUID
	SessionID   pgtype.UUID
}

func (q *Queries) CreateCashbookEntry(ctx context.Context, arg CreateCashbookEntryParams) (CashbookEntry, error) {
	return scanCashbookEntry(q.db.QueryRow(ctx, createCashbookEntry,
		arg.Date, arg.Type, arg.Category, arg.Amount, arg.Description, arg.UserID, arg.SessionID))
}

const listCashbookEntries = `
SELECT ` + cashbookColumns + `
FROM cashbook_entries
WHERE ($1::date IS NULL OR date >= $1)
  AND ($2::date IS NULL OR date <= $2)
  AND ($3::text IS NULL OR type = $3)
  AND ($4::text IS NULL OR category = $4)
ORDER BY date DESC, created_at DESC
LIMIT $5 OFFSET $6
`

type ListCashbookEntriesParams struct {
	StartDate pgtype.Date
	EndDate   pgtype.Date
	Type      pgtype.Text
	Category  pgtype.Text
	Limit     int32
	Offset    int32
}

func (q *Queries) ListCashbookEntries(ctx context.Context, arg ListCashbookEntriesParams) ([]CashbookEntry, error) {
	rows, err := q.db.Query(ctx, listCashbookEntries,
		arg.StartDate, arg.EndDate, arg.Type, arg.Category, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []CashbookEntry
	for rows.Next() {
		e, err := scanCashbookEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const queryLedgerRange = `
SELECT ` + cashbookColumns + `
FROM cashbook_entries
WHERE date >= $1 AND date <= $2
ORDER BY date, created_at
`

type QueryLedgerRangeParams struct {
	StartDate pgtype.Date
	EndDate   pgtype.Date
}

// QueryLedgerRange returns every entry in the inclusive date range, unpaged.
// This is the single fetch behind all period aggregation.
func (q *Queries) QueryLedgerRange(ctx context.Context, arg QueryLedgerRangeParams) ([]CashbookEntry, error) {
	rows, err := q.db.Query(ctx, queryLedgerRange, arg.StartDate, arg.EndDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []CashbookEntry
	for rows.Next() {
		e, err := scanCashbookEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

const getCashTotals = `
SELECT COALESCE(SUM(amount) FILTER (WHERE type = 'IN'), 0)::text  AS total_in,
       COALESCE(SUM(amount) FILTER (WHERE type = 'OUT'), 0)::text AS total_out
FROM cashbook_entries
`

type GetCashTotalsRow struct {
	TotalIn  string
	TotalOut string
}

func (q *Queries) GetCashTotals(ctx context.Context) (GetCashTotalsRow, error) {
	row := q.db.QueryRow(ctx, getCashTotals)
	var r GetCashTotalsRow
	err := row.Scan(&r.TotalIn, &r.TotalOut)
	return r, err
}
