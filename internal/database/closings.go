package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const closingColumns = `id, start_date, end_date, total_revenue, total_hpp, total_opex, net_profit, created_by, created_at`

const listPeriodClosings = `
SELECT pc.id, pc.start_date, pc.end_date, pc.total_revenue, pc.total_hpp,
       pc.total_opex, pc.net_profit, pc.created_by, pc.created_at,
       u.full_name AS created_by_name
FROM period_closings pc
JOIN users u ON u.id = pc.created_by
ORDER BY pc.end_date DESC
`

type ListPeriodClosingsRow struct {
	PeriodClosing
	CreatedByName string
}

func (q *Queries) ListPeriodClosings(ctx context.Context) ([]ListPeriodClosingsRow, error) {
	rows, err := q.db.Query(ctx, listPeriodClosings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var closings []ListPeriodClosingsRow
	for rows.Next() {
		var r ListPeriodClosingsRow
		if err := rows.Scan(&r.ID, &r.StartDate, &r.EndDate, &r.TotalRevenue, &r.TotalHpp,
			&r.TotalOpex, &r.NetProfit, &r.CreatedBy, &r.CreatedAt, &r.CreatedByName); err != nil {
			return nil, err
		}
		closings = append(closings, r)
	}
	return closings, rows.Err()
}

const listPeriodClosingRanges = `
SELECT start_date, end_date
FROM period_closings
ORDER BY start_date
`

type ListPeriodClosingRangesRow struct {
	StartDate pgtype.Date
	EndDate   pgtype.Date
}

func (q *Queries) ListPeriodClosingRanges(ctx context.Context) ([]ListPeriodClosingRangesRow, error) {
	rows, err := q.db.Query(ctx, listPeriodClosingRanges)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ranges []ListPeriodClosingRangesRow
	for rows.Next() {
		var r ListPeriodClosingRangesRow
		if err := rows.Scan(&r.StartDate, &r.EndDate); err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, rows.Err()
}

const createPeriodClosing = `
INSERT INTO period_closings (start_date, end_date, total_revenue, total_hpp, total_opex, net_profit, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + closingColumns

type CreatePeriodClosingParams struct {
	StartDate    pgtype.Date
	EndDate      pgtype.Date
	TotalRevenue pgtype.Numeric
	TotalHpp     pgtype.Numeric
	TotalOpex    pgtype.Numeric
	NetProfit    pgtype.Numeric
	CreatedBy    uuid.UUID
}

// CreatePeriodClosing inserts a locked-period snapshot. Closings are
// immutable: no update or delete statement exists for period_closings.
func (q *Queries) CreatePeriodClosing(ctx context.Context, arg CreatePeriodClosingParams) (PeriodClosing, error) {
	row := q.db.QueryRow(ctx, createPeriodClosing,
		arg.StartDate, arg.EndDate, arg.TotalRevenue, arg.TotalHpp, arg.TotalOpex, arg.NetProfit, arg.CreatedBy)
	var pc PeriodClosing
	err := row.Scan(&pc.ID, &pc.StartDate, &pc.EndDate, &pc.TotalRevenue, &pc.TotalHpp,
		&pc.TotalOpex, &pc.NetProfit, &pc.CreatedBy, &pc.CreatedAt)
	return pc, err
}
