package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/booth-finance/api/internal/database"
	"github.com/booth-finance/api/internal/enum"
	"github.com/booth-finance/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// CashbookStore defines the database methods needed by cashbook handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type CashbookStore interface {
	CreateCashbookEntry(ctx context.Context, arg database.CreateCashbookEntryParams) (database.CashbookEntry, error)
	ListCashbookEntries(ctx context.Context, arg database.ListCashbookEntriesParams) ([]database.CashbookEntry, error)
	GetCashTotals(ctx context.Context) (database.GetCashTotalsRow, error)
}

// CashbookHandler handles the manual cash ledger endpoints.
type CashbookHandler struct {
	store CashbookStore
}

// NewCashbookHandler creates a new CashbookHandler.
func NewCashbookHandler(store CashbookStore) *CashbookHandler {
	return &CashbookHandler{store: store}
}

// RegisterRoutes registers cashbook endpoints on the given Chi router.
func (h *CashbookHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cashbook", h.List)
	r.Get("/cashbook/balance", h.Balance)
	r.Post("/cashbook", h.Create)
}

// --- Request / Response types ---

type createEntryRequest struct {
	Date        string `json:"date"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type entryResponse struct {
	ID          uuid.UUID `json:"id"`
	Date        string    `json:"date"`
	Type        string    `json:"type"`
	Category    string    `json:"category"`
	Amount      string    `json:"amount"`
	Description *string   `json:"description"`
	UserID      uuid.UUID `json:"user_id"`
	SessionID   *string   `json:"session_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type balanceResponse struct {
	TotalIn  string `json:"total_in"`
	TotalOut string `json:"total_out"`
	Balance  string `json:"balance"`
}

func toEntryResponse(e database.CashbookEntry) entryResponse {
	resp := entryResponse{
		ID:        e.ID,
		Date:      e.Date.Time.Format("2006-01-02"),
		Type:      e.Type,
		Category:  e.Category,
		Amount:    numericToString(e.Amount),
		UserID:    e.UserID,
		CreatedAt: e.CreatedAt,
	}
	if e.Description.Valid {
		resp.Description = &e.Description.String
	}
	if e.SessionID.Valid {
		id := uuid.UUID(e.SessionID.Bytes).String()
		resp.SessionID = &id
	}
	return resp
}

// --- Handlers ---

// Create records a manual cashbook entry. The entry type is derived from the
// category; PENJUALAN is reserved for the session close flow and cannot be
// entered by hand.
func (h *CashbookHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Category == enum.CategoryPenjualan {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "PENJUALAN entries are created by closing a session"})
		return
	}

	entryType, ok := enum.EntryTypeForCategory(req.Category)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category"})
		return
	}

	if req.Amount == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount is required"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must be > 0"})
		return
	}

	date := todayBoothDate()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format, want YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	var amountNum pgtype.Numeric
	if err := amountNum.Scan(amount.String()); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return
	}

	desc := pgtype.Text{}
	if req.Description != "" {
		desc = pgtype.Text{String: req.Description, Valid: true}
	}

	entry, err := h.store.CreateCashbookEntry(r.Context(), database.CreateCashbookEntryParams{
		Date:        pgtype.Date{Time: date, Valid: true},
		Type:        entryType,
		Category:    req.Category,
		Amount:      amountNum,
		Description: desc,
		UserID:      claims.UserID,
	})
	if err != nil {
		log.Printf("ERROR: create cashbook entry: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toEntryResponse(entry))
}

// List returns cashbook entries newest first with optional date, type, and
// category filters.
func (h *CashbookHandler) List(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, err := parseDateFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	entryType := pgtype.Text{}
	if s := r.URL.Query().Get("type"); s != "" {
		if s != enum.EntryTypeIn && s != enum.EntryTypeOut {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid type"})
			return
		}
		entryType = pgtype.Text{String: s, Valid: true}
	}

	category := pgtype.Text{}
	if s := r.URL.Query().Get("category"); s != "" {
		if !enum.IsValidCategory(s) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category"})
			return
		}
		category = pgtype.Text{String: s, Valid: true}
	}

	limit, offset := parsePagination(r)

	entries, err := h.store.ListCashbookEntries(r.Context(), database.ListCashbookEntriesParams{
		StartDate: startDate,
		EndDate:   endDate,
		Type:      entryType,
		Category:  category,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		log.Printf("ERROR: list cashbook entries: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]entryResponse, len(entries))
	for i, e := range entries {
		resp[i] = toEntryResponse(e)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Balance returns the all-time cash position: total in, total out, and the
// running balance.
func (h *CashbookHandler) Balance(w http.ResponseWriter, r *http.Request) {
	totals, err := h.store.GetCashTotals(r.Context())
	if err != nil {
		log.Printf("ERROR: get cash totals: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	in, err := decimal.NewFromString(totals.TotalIn)
	if err != nil {
		in = decimal.Zero
	}
	out, err := decimal.NewFromString(totals.TotalOut)
	if err != nil {
		out = decimal.Zero
	}

	writeJSON(w, http.StatusOK, balanceResponse{
		TotalIn:  in.StringFixed(2),
		TotalOut: out.StringFixed(2),
		Balance:  in.Sub(out).StringFixed(2),
	})
}
