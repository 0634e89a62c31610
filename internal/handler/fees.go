package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/booth-finance/api/internal/database"
	"github.com/booth-finance/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeStore defines the database methods needed by fee settlement handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type FeeStore interface {
	ListFeeSessions(ctx context.Context) ([]database.ListFeeSessionsRow, error)
	MarkFeesPaid(ctx context.Context, arg database.MarkFeesPaidParams) (int64, error)
}

// FeeHandler handles employee fee settlement endpoints.
type FeeHandler struct {
	store FeeStore
}

// NewFeeHandler creates a new FeeHandler.
func NewFeeHandler(store FeeStore) *FeeHandler {
	return &FeeHandler{store: store}
}

// RegisterRoutes registers fee endpoints on the given Chi router.
func (h *FeeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/fees", h.List)
	r.Post("/fees/pay", h.Pay)
	r.Post("/fees/pay-all", h.PayAll)
}

// --- Request / Response types ---

type payFeesRequest struct {
	SessionIDs []string `json:"session_ids"`
}

type feeSessionResponse struct {
	SessionID    uuid.UUID  `json:"session_id"`
	Date         string     `json:"date"`
	TotalFee     string     `json:"total_fee"`
	FeePaid      bool       `json:"fee_paid"`
	FeePaidAt    *time.Time `json:"fee_paid_at"`
	ClosedByName *string    `json:"closed_by_name"`
}

type feeListResponse struct {
	Sessions    []feeSessionResponse `json:"sessions"`
	TotalUnpaid string               `json:"total_unpaid"`
	TotalPaid   string               `json:"total_paid"`
}

type payFeesResponse struct {
	SessionsPaid int64 `json:"sessions_paid"`
}

// --- Handlers ---

// List returns every closed session that accrued a fee, with running paid
// and unpaid totals.
func (h *FeeHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListFeeSessions(r.Context())
	if err != nil {
		log.Printf("ERROR: list fee sessions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := feeListResponse{Sessions: make([]feeSessionResponse, len(rows))}
	totalUnpaid := decimal.Zero
	totalPaid := decimal.Zero

	for i, row := range rows {
		s := feeSessionResponse{
			SessionID: row.ID,
			Date:      row.Date.Time.Format("2006-01-02"),
			TotalFee:  numericToString(row.TotalFee),
			FeePaid:   row.FeePaid,
		}
		if row.FeePaidAt.Valid {
			s.FeePaidAt = &row.FeePaidAt.Time
		}
		if row.ClosedByName.Valid {
			name := row.ClosedByName.String
			s.ClosedByName = &name
		}
		resp.Sessions[i] = s

		fee, err := decimal.NewFromString(numericToString(row.TotalFee))
		if err != nil {
			continue
		}
		if row.FeePaid {
			totalPaid = totalPaid.Add(fee)
		} else {
			totalUnpaid = totalUnpaid.Add(fee)
		}
	}

	resp.TotalUnpaid = totalUnpaid.StringFixed(2)
	resp.TotalPaid = totalPaid.StringFixed(2)

	writeJSON(w, http.StatusOK, resp)
}

// Pay marks the given sessions' fees as paid. Sessions already paid are
// skipped, so repeating a request cannot double-pay.
func (h *FeeHandler) Pay(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req payFeesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if len(req.SessionIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_ids is required"})
		return
	}

	ids := make([]uuid.UUID, len(req.SessionIDs))
	for i, s := range req.SessionIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
			return
		}
		ids[i] = id
	}

	h.markPaid(w, r, ids, claims.UserID)
}

// PayAll settles every outstanding fee in one call.
func (h *FeeHandler) PayAll(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	rows, err := h.store.ListFeeSessions(r.Context())
	if err != nil {
		log.Printf("ERROR: list fee sessions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	var ids []uuid.UUID
	for _, row := range rows {
		if !row.FeePaid {
			ids = append(ids, row.ID)
		}
	}

	if len(ids) == 0 {
		writeJSON(w, http.StatusOK, payFeesResponse{SessionsPaid: 0})
		return
	}

	h.markPaid(w, r, ids, claims.UserID)
}

func (h *FeeHandler) markPaid(w http.ResponseWriter, r *http.Request, ids []uuid.UUID, paidBy uuid.UUID) {
	paid, err := h.store.MarkFeesPaid(r.Context(), database.MarkFeesPaidParams{
		SessionIds: ids,
		FeePaidBy:  paidBy,
	})
	if err != nil {
		log.Printf("ERROR: mark fees paid: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, payFeesResponse{SessionsPaid: paid})
}
