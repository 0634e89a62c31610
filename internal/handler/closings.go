package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/booth-finance/api/internal/database"
	"github.com/booth-finance/api/internal/middleware"
	"github.com/booth-finance/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PeriodServicer defines the service methods needed by closing handlers.
// Satisfied by *service.PeriodService; narrow interface for testability.
type PeriodServicer interface {
	Preview(ctx context.Context, start, end time.Time) (*service.PreviewResult, error)
	Lock(ctx context.Context, start, end time.Time, createdBy uuid.UUID) (database.PeriodClosing, error)
}

// ClosingStore defines the database methods needed by closing read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ClosingStore interface {
	ListPeriodClosings(ctx context.Context) ([]database.ListPeriodClosingsRow, error)
}

// ClosingHandler handles the period profit/loss closing endpoints.
type ClosingHandler struct {
	svc   PeriodServicer
	store ClosingStore
}

// NewClosingHandler creates a new ClosingHandler.
func NewClosingHandler(svc PeriodServicer, store ClosingStore) *ClosingHandler {
	return &ClosingHandler{svc: svc, store: store}
}

// RegisterRoutes registers closing endpoints on the given Chi router.
func (h *ClosingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/period-closings", h.List)
	r.Get("/period-closings/preview", h.Preview)
	r.Post("/period-closings", h.Create)
}

// --- Request / Response types ---

type createClosingRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type closingResponse struct {
	ID            uuid.UUID `json:"id"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	TotalRevenue  string    `json:"total_revenue"`
	TotalHpp      string    `json:"total_hpp"`
	TotalOpex     string    `json:"total_opex"`
	NetProfit     string    `json:"net_profit"`
	CreatedBy     uuid.UUID `json:"created_by"`
	CreatedByName string    `json:"created_by_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type previewResponse struct {
	StartDate  string         `json:"start_date"`
	EndDate    string         `json:"end_date"`
	Totals     totalsResponse `json:"totals"`
	EntryCount int            `json:"entry_count"`
	Overlaps   bool           `json:"overlaps"`
}

func toClosingResponse(c database.PeriodClosing) closingResponse {
	return closingResponse{
		ID:           c.ID,
		StartDate:    c.StartDate.Time.Format("2006-01-02"),
		EndDate:      c.EndDate.Time.Format("2006-01-02"),
		TotalRevenue: numericToString(c.TotalRevenue),
		TotalHpp:     numericToString(c.TotalHpp),
		TotalOpex:    numericToString(c.TotalOpex),
		NetProfit:    numericToString(c.NetProfit),
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt,
	}
}

// --- Helpers ---

func parseClosingRange(startStr, endStr string) (time.Time, time.Time, bool) {
	const layout = "2006-01-02"
	start, err := time.Parse(layout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(layout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// --- Handlers ---

// List returns all period closings, newest first.
func (h *ClosingHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListPeriodClosings(r.Context())
	if err != nil {
		log.Printf("ERROR: list period closings: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]closingResponse, len(rows))
	for i, row := range rows {
		c := toClosingResponse(row.PeriodClosing)
		c.CreatedByName = row.CreatedByName
		resp[i] = c
	}

	writeJSON(w, http.StatusOK, resp)
}

// Preview computes a candidate closing's totals without persisting it, so
// the owner can review the numbers before locking the period.
func (h *ClosingHandler) Preview(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseClosingRange(r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_date and end_date are required as YYYY-MM-DD"})
		return
	}

	result, err := h.svc.Preview(r.Context(), start, end)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPeriod) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: preview period closing: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, previewResponse{
		StartDate:  start.Format("2006-01-02"),
		EndDate:    end.Format("2006-01-02"),
		Totals:     toTotalsResponse(result.Totals),
		EntryCount: result.EntryCount,
		Overlaps:   result.Overlaps,
	})
}

// Create locks a period. Rejected when the range overlaps an existing
// closing or contains no ledger entries.
func (h *ClosingHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req createClosingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	start, end, ok := parseClosingRange(req.StartDate, req.EndDate)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_date and end_date are required as YYYY-MM-DD"})
		return
	}

	closing, err := h.svc.Lock(r.Context(), start, end, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPeriod):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrPeriodOverlap):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrEmptyPeriod):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: create period closing: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, toClosingResponse(closing))
}
