package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/booth-finance/api/internal/database"
	"github.com/booth-finance/api/internal/enum"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Errors returned by the session service.
var (
	ErrEmptyItems          = errors.New("at least one item is required")
	ErrInvalidQtyOpen      = errors.New("qty_open must be >= 0")
	ErrNoOpeningStock      = errors.New("at least one item must have qty_open > 0")
	ErrInvalidItemID       = errors.New("invalid item_id")
	ErrDuplicateItem       = errors.New("duplicate item in opening stock")
	ErrItemNotFound        = errors.New("item not found or inactive")
	ErrDuplicateSession    = errors.New("a session already exists for this date")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionNotOpen      = errors.New("session is not open")
	ErrInvalidTotalSales   = errors.New("total_sales_input must be > 0")
	ErrQtyCloseExceedsOpen = errors.New("qty_close cannot exceed qty_open")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// SessionStore defines the DB methods needed by the booth session lifecycle.
// Satisfied by *database.Queries (and its WithTx variant).
type SessionStore interface {
	GetActiveItem(ctx context.Context, id uuid.UUID) (database.Item, error)
	CreateSession(ctx context.Context, arg database.CreateSessionParams) (database.BoothSession, error)
	CreateSessionItem(ctx context.Context, arg database.CreateSessionItemParams) (database.BoothSessionItem, error)
	GetSessionForUpdate(ctx context.Context, id uuid.UUID) (database.BoothSession, error)
	ListSessionItems(ctx context.Context, sessionID uuid.UUID) ([]database.ListSessionItemsRow, error)
	CloseSession(ctx context.Context, arg database.CloseSessionParams) (database.BoothSession, error)
	UpdateSessionItemQtyClose(ctx context.Context, arg database.UpdateSessionItemQtyCloseParams) error
	CreateCashbookEntry(ctx context.Context, arg database.CreateCashbookEntryParams) (database.CashbookEntry, error)
}

// NewSessionStore creates a SessionStore from a DBTX (pool or tx).
type NewSessionStore func(db database.DBTX) SessionStore

// OpenStockInput is one item's opening stock count.
type OpenStockInput struct {
	ItemID  string
	QtyOpen int32
}

// OpenSessionRequest is the validated input for opening a booth session.
type OpenSessionRequest struct {
	Date     time.Time
	OpenedBy uuid.UUID
	Items    []OpenStockInput
}

// OpenSessionResult is the created session with its stock rows.
type OpenSessionResult struct {
	Session database.BoothSession
	Items   []database.BoothSessionItem
}

// CloseSessionRequest is the validated input for closing a booth session.
// QtyClose is keyed by booth_session_items id; missing entries default to 0.
type CloseSessionRequest struct {
	SessionID  uuid.UUID
	ClosedBy   uuid.UUID
	TotalSales string
	QtyClose   map[uuid.UUID]int32
	Notes      string
}

// CloseSessionResult is the closed session plus the fee accrued at close.
type CloseSessionResult struct {
	Session  database.BoothSession
	TotalFee decimal.Decimal
}

// SessionService handles the booth open/close lifecycle.
type SessionService struct {
	pool     TxBeginner
	newStore NewSessionStore
}

// NewSessionService creates a new SessionService.
func NewSessionService(pool TxBeginner, newStore NewSessionStore) *SessionService {
	return &SessionService{pool: pool, newStore: newStore}
}

// OpenSession validates opening stock and creates the session plus its item
// rows in a single transaction. The unique index on booth_sessions.date is
// the real guard against two concurrent openers; a pre-read existence check
// alone would be racy.
func (s *SessionService) OpenSession(ctx context.Context, req OpenSessionRequest) (*OpenSessionResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	seen := make(map[uuid.UUID]bool, len(req.Items))
	hasStock := false
	itemIDs := make([]uuid.UUID, len(req.Items))
	for i, in := range req.Items {
		id, err := uuid.Parse(in.ItemID)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidItemID)
		}
		if seen[id] {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrDuplicateItem)
		}
		seen[id] = true
		if in.QtyOpen < 0 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQtyOpen)
		}
		if in.QtyOpen > 0 {
			hasStock = true
		}
		itemIDs[i] = id
	}
	if !hasStock {
		return nil, ErrNoOpeningStock
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	for i, id := range itemIDs {
		if _, err := store.GetActiveItem(ctx, id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("items[%d]: %w", i, ErrItemNotFound)
			}
			return nil, fmt.Errorf("items[%d]: get item: %w", i, err)
		}
	}

	session, err := store.CreateSession(ctx, database.CreateSessionParams{
		Date:     pgtype.Date{Time: req.Date, Valid: true},
		OpenedBy: req.OpenedBy,
	})
	if err != nil {
		if isSessionDateConflict(err) {
			return nil, ErrDuplicateSession
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	rows := make([]database.BoothSessionItem, 0, len(req.Items))
	for i, in := range req.Items {
		row, err := store.CreateSessionItem(ctx, database.CreateSessionItemParams{
			SessionID: session.ID,
			ItemID:    itemIDs[i],
			QtyOpen:   in.QtyOpen,
		})
		if err != nil {
			return nil, fmt.Errorf("create session item: %w", err)
		}
		rows = append(rows, row)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OpenSessionResult{Session: session, Items: rows}, nil
}

// CloseSession flips an OPEN session to CLOSED, writes every item's qty_close,
// accrues the employee fee, and appends the PENJUALAN ledger entry -- all in
// one transaction so a failure partway leaves nothing behind.
func (s *SessionService) CloseSession(ctx context.Context, req CloseSessionRequest) (*CloseSessionResult, error) {
	totalSales, err := decimal.NewFromString(req.TotalSales)
	if err != nil || !totalSales.IsPositive() {
		return nil, ErrInvalidTotalSales
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	session, err := store.GetSessionForUpdate(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.Status != enum.SessionStatusOpen {
		return nil, ErrSessionNotOpen
	}

	items, err := store.ListSessionItems(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("list session items: %w", err)
	}

	totalFee := decimal.Zero
	for _, item := range items {
		qtyClose := req.QtyClose[item.ID]
		if qtyClose < 0 {
			qtyClose = 0
		}
		if qtyClose > item.QtyOpen {
			return nil, fmt.Errorf("%s: %w", item.ItemName, ErrQtyCloseExceedsOpen)
		}

		sold := item.QtyOpen - qtyClose
		if sold > 0 {
			fee := numericToDecimal(item.SalesFee)
			totalFee = totalFee.Add(fee.Mul(decimal.NewFromInt32(sold)))
		}

		if err := store.UpdateSessionItemQtyClose(ctx, database.UpdateSessionItemQtyCloseParams{
			ID:       item.ID,
			QtyClose: qtyClose,
		}); err != nil {
			return nil, fmt.Errorf("update qty_close: %w", err)
		}
	}

	notes := pgtype.Text{}
	if req.Notes != "" {
		notes = pgtype.Text{String: req.Notes, Valid: true}
	}

	closed, err := store.CloseSession(ctx, database.CloseSessionParams{
		ID:              session.ID,
		TotalSalesInput: decimalToNumeric(totalSales),
		TotalFee:        decimalToNumeric(totalFee),
		ClosedBy:        req.ClosedBy,
		Notes:           notes,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotOpen
		}
		return nil, fmt.Errorf("close session: %w", err)
	}

	dateStr := session.Date.Time.Format("2006-01-02")
	_, err = store.CreateCashbookEntry(ctx, database.CreateCashbookEntryParams{
		Date:        session.Date,
		Type:        enum.EntryTypeIn,
		Category:    enum.CategoryPenjualan,
		Amount:      decimalToNumeric(totalSales),
		Description: pgtype.Text{String: "Penjualan " + dateStr, Valid: true},
		UserID:      req.ClosedBy,
		SessionID:   pgtype.UUID{Bytes: [16]byte(session.ID), Valid: true},
	})
	if err != nil {
		return nil, fmt.Errorf("create cashbook entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CloseSessionResult{Session: closed, TotalFee: totalFee}, nil
}

// EstimateRevenue computes the advisory revenue estimate for a set of session
// items and proposed closing counts: sum of max(0, qty_open - qty_close) * price.
// The caller may still override the estimate with a manual total at close.
func EstimateRevenue(items []database.ListSessionItemsRow, qtyClose map[uuid.UUID]int32) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		sold := item.QtyOpen - qtyClose[item.ID]
		if sold <= 0 {
			continue
		}
		price := numericToDecimal(item.Price)
		total = total.Add(price.Mul(decimal.NewFromInt32(sold)))
	}
	return total
}

// SessionFee computes the employee fee owed for a set of session items and
// closing counts: sum of max(0, qty_open - qty_close) * sales_fee.
func SessionFee(items []database.ListSessionItemsRow, qtyClose map[uuid.UUID]int32) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		sold := item.QtyOpen - qtyClose[item.ID]
		if sold <= 0 {
			continue
		}
		fee := numericToDecimal(item.SalesFee)
		total = total.Add(fee.Mul(decimal.NewFromInt32(sold)))
	}
	return total
}

// isSessionDateConflict checks if the error is a unique constraint violation
// on booth_sessions.date (pgconn error code 23505).
func isSessionDateConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "booth_sessions_date_key"
	}
	return false
}

// --- Helpers ---

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
