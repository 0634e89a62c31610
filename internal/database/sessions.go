package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const sessionColumns = `id, date, status, opened_by, closed_by, total_sales_input, total_fee,
	fee_paid, fee_paid_at, fee_paid_by, notes, created_at, updated_at`

func scanSession(row interface{ Scan(...any) error }) (BoothSession, error) {
	var s BoothSession
	err := row.Scan(
		&s.ID, &s.Date, &s.Status, &s.OpenedBy, &s.ClosedBy, &s.TotalSalesInput,
		&s.TotalFee, &s.FeePaid, &s.FeePaidAt, &s.FeePaidBy, &s.Notes,
		&s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

const createSession = `
INSERT INTO booth_sessions (date, opened_by)
VALUES ($1, $2)
RETURNING ` + sessionColumns

type CreateSessionParams struct {
	Date     pgtype.Date
	OpenedBy uuid.UUID
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (BoothSession, error) {
	return scanSession(q.db.QueryRow(ctx, createSession, arg.Date, arg.OpenedBy))
}

const getSession = `
SELECT ` + sessionColumns + `
FROM booth_sessions
WHERE id = $1
`

func (q *Queries) GetSession(ctx context.Context, id uuid.UUID) (BoothSession, error) {
	return scanSession(q.db.QueryRow(ctx, getSession, id))
}

const getSessionByDate = `
SELECT ` + sessionColumns + `
FROM booth_sessions
WHERE date = $1
`

func (q *Queries) GetSessionByDate(ctx context.Context, date pgtype.Date) (BoothSession, error) {
	return scanSession(q.db.QueryRow(ctx, getSessionByDate, date))
}

const getSessionForUpdate = `
SELECT ` + sessionColumns + `
FROM booth_sessions
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetSessionForUpdate(ctx context.Context, id uuid.UUID) (BoothSession, error) {
	return scanSession(q.db.QueryRow(ctx, getSessionForUpdate, id))
}

const closeSession = `
UPDATE booth_sessions
SET status = 'CLOSED',
    total_sales_input = $2,
    total_fee = $3,
    closed_by = $4,
    notes = $5,
    updated_at = now()
WHERE id = $1 AND status = 'OPEN'
RETURNING ` + sessionColumns

type CloseSessionParams struct {
	ID              uuid.UUID
	TotalSalesInput pgtype.Numeric
	TotalFee        pgtype.Numeric
	ClosedBy        uuid.UUID
	Notes           pgtype.Text
}

func (q *Queries) CloseSession(ctx context.Context, arg CloseSessionParams) (BoothSession, error) {
	return scanSession(q.db.QueryRow(ctx, closeSession,
		arg.ID, arg.TotalSalesInput, arg.TotalFee, arg.ClosedBy, arg.Notes))
}

const createSessionItem = `
INSERT INTO booth_session_items (session_id, item_id, qty_open)
VALUES ($1, $2, $3)
RETURNING id, session_id, item_id, qty_open, qty_close
`

type CreateSessionItemParams struct {
	SessionID uuid.UUID
	ItemID    uuid.UUID
	QtyOpen   int32
}

func (q *Queries) CreateSessionItem(ctx context.Context, arg CreateSessionItemParams) (BoothSessionItem, error) {
	row := q.db.QueryRow(ctx, createSessionItem, arg.SessionID, arg.ItemID, arg.QtyOpen)
	var si BoothSessionItem
	err := row.Scan(&si.ID, &si.SessionID, &si.ItemID, &si.QtyOpen, &si.QtyClose)
	return si, err
}

const listSessionItems = `
SELECT si.id, si.session_id, si.item_id, si.qty_open, si.qty_close,
       i.name AS item_name, i.price, i.sales_fee
FROM booth_session_items si
JOIN items i ON i.id = si.item_id
WHERE si.session_id = $1
ORDER BY i.name
`

type ListSessionItemsRow struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	ItemID    uuid.UUID
	QtyOpen   int32
	QtyClose  pgtype.Int4
	ItemName  string
	Price     pgtype.Numeric
	SalesFee  pgtype.Numeric
}

func (q *Queries) ListSessionItems(ctx context.Context, sessionID uuid.UUID) ([]ListSessionItemsRow, error) {
	rows, err := q.db.Query(ctx, listSessionItems, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListSessionItemsRow
	for rows.Next() {
		var r ListSessionItemsRow
		if err := rows.Scan(&r.ID, &r.SessionID, &r.ItemID, &r.QtyOpen, &r.QtyClose,
			&r.ItemName, &r.Price, &r.SalesFee); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const updateSessionItemQtyClose = `
UPDATE booth_session_items
SET qty_close = $2
WHERE id = $1
`

type UpdateSessionItemQtyCloseParams struct {
	ID       uuid.UUID
	QtyClose int32
}

func (q *Queries) UpdateSessionItemQtyClose(ctx context.Context, arg UpdateSessionItemQtyCloseParams) error {
	_, err := q.db.Exec(ctx, updateSessionItemQtyClose, arg.ID, arg.QtyClose)
	return err
}

const listSessions = `
SELECT bs.id, bs.date, bs.status, bs.opened_by, bs.closed_by, bs.total_sales_input,
       bs.total_fee, bs.fee_paid, bs.fee_paid_at, bs.fee_paid_by, bs.notes,
       bs.created_at, bs.updated_at,
       uo.full_name AS opened_by_name,
       uc.full_name AS closed_by_name
FROM booth_sessions bs
JOIN users uo ON uo.id = bs.opened_by
LEFT JOIN users uc ON uc.id = bs.closed_by
WHERE ($1::date IS NULL OR bs.date >= $1)
  AND ($2::date IS NULL OR bs.date <= $2)
ORDER BY bs.date DESC
LIMIT $3 OFFSET $4
`

type ListSessionsParams struct {
	StartDate pgtype.Date
	EndDate   pgtype.Date
	Limit     int32
	Offset    int32
}

type ListSessionsRow struct {
	BoothSession
	OpenedByName string
	ClosedByName pgtype.Text
}

func (q *Queries) ListSessions(ctx context.Context, arg ListSessionsParams) ([]ListSessionsRow, error) {
	rows, err := q.db.Query(ctx, listSessions, arg.StartDate, arg.EndDate, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []ListSessionsRow
	for rows.Next() {
		var r ListSessionsRow
		if err := rows.Scan(
			&r.ID, &r.Date, &r.Status, &r.OpenedBy, &r.ClosedBy, &r.TotalSalesInput,
			&r.TotalFee, &r.FeePaid, &r.FeePaidAt, &r.FeePaidBy, &r.Notes,
			&r.CreatedAt, &r.UpdatedAt, &r.OpenedByName, &r.ClosedByName,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, r)
	}
	return sessions, rows.Err()
}

const listFeeSessions = `
SELECT bs.id, bs.date, bs.total_sales_input, bs.total_fee, bs.fee_paid,
       bs.fee_paid_at, bs.closed_by,
       uc.full_name AS closed_by_name
FROM booth_sessions bs
LEFT JOIN users uc ON uc.id = bs.closed_by
WHERE bs.status = 'CLOSED' AND bs.total_fee > 0
ORDER BY bs.date DESC
`

type ListFeeSessionsRow struct {
	ID              uuid.UUID
	Date            pgtype.Date
	TotalSalesInput pgtype.Numeric
	TotalFee        pgtype.Numeric
	FeePaid         bool
	FeePaidAt       pgtype.Timestamptz
	ClosedBy        pgtype.UUID
	ClosedByName    pgtype.Text
}

func (q *Queries) ListFeeSessions(ctx context.Context) ([]ListFeeSessionsRow, error) {
	rows, err := q.db.Query(ctx, listFeeSessions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []ListFeeSessionsRow
	for rows.Next() {
		var r ListFeeSessionsRow
		if err := rows.Scan(&r.ID, &r.Date, &r.TotalSalesInput, &r.TotalFee,
			&r.FeePaid, &r.FeePaidAt, &r.ClosedBy, &r.ClosedByName); err != nil {
			return nil, err
		}
		sessions = append(sessions, r)
	}
	return sessions, rows.Err()
}

const markFeesPaid = `
UPDATE booth_sessions
SET fee_paid = true,
    fee_paid_at = now(),
    fee_paid_by = $2,
    updated_at = now()
WHERE id = ANY($1::uuid[])
  AND status = 'CLOSED'
  AND fee_paid = false
`

type MarkFeesPaidParams struct {
	SessionIds []uuid.UUID
	FeePaidBy  uuid.UUID
}

// MarkFeesPaid returns the number of sessions actually flipped to paid.
// Already-paid or unknown ids fall out of the WHERE clause, which is what
// makes repeated pay calls safe.
func (q *Queries) MarkFeesPaid(ctx context.Context, arg MarkFeesPaidParams) (int64, error) {
	tag, err := q.db.Exec(ctx, markFeesPaid, arg.SessionIds, arg.FeePaidBy)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
