package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/booth-finance/api/internal/database"
	"github.com/booth-finance/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportsStore interface {
	QueryLedgerRange(ctx context.Context, arg database.QueryLedgerRangeParams) ([]database.CashbookEntry, error)
	GetCashTotals(ctx context.Context) (database.GetCashTotalsRow, error)
	GetSessionByDate(ctx context.Context, date pgtype.Date) (database.BoothSession, error)
}

// ReportsHandler handles profit/loss report endpoints.
type ReportsHandler struct {
	store ReportsStore
}

// NewReportsHandler creates a new ReportsHandler.
func NewReportsHandler(store ReportsStore) *ReportsHandler {
	return &ReportsHandler{store: store}
}

// RegisterRoutes registers report endpoints on the given Chi router.
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/reports/summary", h.Summary)
	r.Get("/reports/dashboard", h.Dashboard)
}

// --- Response types ---

type totalsResponse struct {
	Revenue   string `json:"revenue"`
	Hpp       string `json:"hpp"`
	Opex      string `json:"opex"`
	NetProfit string `json:"net_profit"`
	Margin    string `json:"margin"`
}

type dailyTotalsResponse struct {
	Date      string `json:"date"`
	Revenue   string `json:"revenue"`
	Hpp       string `json:"hpp"`
	Opex      string `json:"opex"`
	NetProfit string `json:"net_profit"`
}

type summaryResponse struct {
	StartDate string                `json:"start_date"`
	EndDate   string                `json:"end_date"`
	Totals    totalsResponse        `json:"totals"`
	Daily     []dailyTotalsResponse `json:"daily"`
}

type dashboardResponse struct {
	SessionStatus string         `json:"session_status"`
	Today         totalsResponse `json:"today"`
	MonthToDate   totalsResponse `json:"month_to_date"`
	CashBalance   string         `json:"cash_balance"`
}

func toTotalsResponse(t service.PeriodTotals) totalsResponse {
	return totalsResponse{
		Revenue:   t.Revenue.StringFixed(2),
		Hpp:       t.Hpp.StringFixed(2),
		Opex:      t.Opex.StringFixed(2),
		NetProfit: t.NetProfit.StringFixed(2),
		Margin:    t.Margin.StringFixed(1),
	}
}

// --- Handlers ---

// Summary returns profit/loss totals and a per-day breakdown over a date
// range. Defaults to the last 30 days.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	startParam, endParam, err := parseDateFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	end := todayBoothDate()
	if endParam.Valid {
		end = endParam.Time
	}
	start := end.AddDate(0, 0, -29)
	if startParam.Valid {
		start = startParam.Time
	}
	if start.After(end) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_date must not be after end_date"})
		return
	}

	entries, err := h.store.QueryLedgerRange(r.Context(), database.QueryLedgerRangeParams{
		StartDate: pgtype.Date{Time: start, Valid: true},
		EndDate:   pgtype.Date{Time: end, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: query ledger range: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	daily := service.DailyBreakdown(entries, start, end)
	dailyResp := make([]dailyTotalsResponse, len(daily))
	for i, d := range daily {
		dailyResp[i] = dailyTotalsResponse{
			Date:      d.Date.Format("2006-01-02"),
			Revenue:   d.Revenue.StringFixed(2),
			Hpp:       d.Hpp.StringFixed(2),
			Opex:      d.Opex.StringFixed(2),
			NetProfit: d.NetProfit.StringFixed(2),
		}
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
		Totals:    toTotalsResponse(service.SummarizeLedger(entries)),
		Daily:     dailyResp,
	})
}

// Dashboard returns the owner's at-a-glance view: today's session state,
// today's numbers, month-to-date numbers, and the cash position.
func (h *ReportsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	today := todayBoothDate()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	entries, err := h.store.QueryLedgerRange(r.Context(), database.QueryLedgerRangeParams{
		StartDate: pgtype.Date{Time: monthStart, Valid: true},
		EndDate:   pgtype.Date{Time: today, Valid: true},
	})
	if err != nil {
		log.Printf("ERROR: query ledger range: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	var todayEntries []database.CashbookEntry
	for _, e := range entries {
		if e.Date.Time.Equal(today) {
			todayEntries = append(todayEntries, e)
		}
	}

	sessionStatus := "NONE"
	session, err := h.store.GetSessionByDate(r.Context(), pgtype.Date{Time: today, Valid: true})
	if err == nil {
		sessionStatus = session.Status
	} else if !errors.Is(err, pgx.ErrNoRows) {
		log.Printf("ERROR: get today session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

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

	writeJSON(w, http.StatusOK, dashboardResponse{
		SessionStatus: sessionStatus,
		Today:         toTotalsResponse(service.SummarizeLedger(todayEntries)),
		MonthToDate:   toTotalsResponse(service.SummarizeLedger(entries)),
		CashBalance:   in.Sub(out).StringFixed(2),
	})
}
