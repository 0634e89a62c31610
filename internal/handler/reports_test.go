package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/booth-finance/api/internal/database"
	"github.com/booth-finance/api/internal/enum"
	"github.com/booth-finance/api/internal/handler"
	"github.com/booth-finance/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type mockReportsStore struct {
	entries      []database.CashbookEntry
	totals       database.GetCashTotalsRow
	todaySession *database.BoothSession
	lastRange    database.QueryLedgerRangeParams
}

func (m *mockReportsStore) QueryLedgerRange(_ context.Context, arg database.QueryLedgerRangeParams) ([]database.CashbookEntry, error) {
	m.lastRange = arg
	var out []database.CashbookEntry
	for _, e := range m.entries {
		if e.Date.Time.Before(arg.StartDate.Time) || e.Date.Time.After(arg.EndDate.Time) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *mockReportsStore) GetCashTotals(_ context.Context) (database.GetCashTotalsRow, error) {
	return m.totals, nil
}

func (m *mockReportsStore) GetSessionByDate(_ context.Context, _ pgtype.Date) (database.BoothSession, error) {
	if m.todaySession == nil {
		return database.BoothSession{}, pgx.ErrNoRows
	}
	return *m.todaySession, nil
}

func setupReportsRouter(store *mockReportsStore) *chi.Mux {
	h := handler.NewReportsHandler(store)
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(testJWTSecret))
		h.RegisterRoutes(r)
	})
	return r
}

func ledgerEntry(date, entryType, category, amount string) database.CashbookEntry {
	t, _ := time.Parse("2006-01-02", date)
	return database.CashbookEntry{
		ID:       uuid.New(),
		Date:     pgtype.Date{Time: t, Valid: true},
		Type:     entryType,
		Category: category,
		Amount:   makeTestNumericNoT(amount),
		UserID:   uuid.New(),
	}
}

func TestSummary_Totals(t *testing.T) {
	store := &mockReportsStore{
		entries: []database.CashbookEntry{
			ledgerEntry("2026-05-10", enum.EntryTypeIn, enum.CategoryPenjualan, "100000"),
			ledgerEntry("2026-05-10", enum.EntryTypeOut, enum.CategoryBahanDagangan, "40000"),
			ledgerEntry("2026-05-11", enum.EntryTypeOut, enum.CategoryOpex, "10000"),
			// capital moves cash but not profit
			ledgerEntry("2026-05-11", enum.EntryTypeIn, enum.CategoryModalIn, "500000"),
		},
	}
	router := setupReportsRouter(store)

	req := authedRequest(t, http.MethodGet, "/reports/summary?start_date=2026-05-10&end_date=2026-05-12", nil, enum.UserRoleOwner)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200, body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeJSONMap(t, rr)
	totals, ok := resp["totals"].(map[string]interface{})
	if !ok {
		t.Fatalf("totals: got %T", resp["totals"])
	}
	if totals["revenue"] != "100000.00" {
		t.Errorf("revenue: got %v", totals["revenue"])
	}
	if totals["hpp"] != "40000.00" {
		t.Errorf("hpp: got %v", totals["hpp"])
	}
	if totals["opex"] != "10000.00" {
		t.Errorf("opex: got %v", totals["opex"])
	}
	if totals["net_profit"] != "50000.00" {
		t.Errorf("net_profit: got %v", totals["net_profit"])
	}
	if totals["margin"] != "50.0" {
		t.Errorf("margin: got %v", totals["margin"])
	}
}

func TestSummary_DailyZeroFills(t *testing.T) {
	store := &mockReportsStore{
		entries: []database.CashbookEntry{
			ledgerEntry("2026-05-10", enum.EntryTypeIn, enum.CategoryPenjualan, "100000"),
		},
	}
	router := setupReportsRouter(store)

	req := authedRequest(t, http.MethodGet, "/reports/summary?start_date=2026-05-10&end_date=2026-05-12", nil, enum.UserRoleOwner)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	resp := decodeJSONMap(t, rr)
	daily, ok := resp["daily"].([]interface{})
	if !ok {
		t.Fatalf("daily: got %T", resp["daily"])
	}
	if len(daily) != 3 {
		t.Fatalf("daily days: got %d, want 3", len(daily))
	}
	quiet, ok := daily[1].(map[string]interface{})
	if !ok {
		t.Fatalf("daily[1]: got %T", daily[1])
	}
	if quiet["date"] != "2026-05-11" {
		t.Errorf("daily[1].date: got %v", quiet["date"])
	}
	if quiet["revenue"] != "0.00" {
		t.Errorf("daily[1].revenue: got %v", quiet["revenue"])
	}
}

func TestSummary_BadRange(t *testing.T) {
	router := setupReportsRouter(&mockReportsStore{})

	req := authedRequest(t, http.MethodGet, "/reports/summary?start_date=2026-05-12&end_date=2026-05-10", nil, enum.UserRoleOwner)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestSummary_DefaultsToLast30Days(t *testing.T) {
	store := &mockReportsStore{}
	router := setupReportsRouter(store)

	req := authedRequest(t, http.MethodGet, "/reports/summary", nil, enum.UserRoleOwner)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	span := store.lastRange.EndDate.Time.Sub(store.lastRange.StartDate.Time)
	if span != 29*24*time.Hour {
		t.Errorf("range span: got %v, want 29 days", span)
	}
}

func TestDashboard_NoSessionToday(t *testing.T) {
	store := &mockReportsStore{
		totals: database.GetCashTotalsRow{TotalIn: "800000", TotalOut: "300000"},
	}
	router := setupReportsRouter(store)

	req := authedRequest(t, http.MethodGet, "/reports/dashboard", nil, enum.UserRoleOwner)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	resp := decodeJSONMap(t, rr)
	if resp["session_status"] != "NONE" {
		t.Errorf("session_status: got %v, want NONE", resp["session_status"])
	}
	if resp["cash_balance"] != "500000.00" {
		t.Errorf("cash_balance: got %v", resp["cash_balance"])
	}
}

func TestDashboard_OpenSessionStatus(t *testing.T) {
	session := todaySession(enum.SessionStatusOpen)
	store := &mockReportsStore{
		totals:       database.GetCashTotalsRow{TotalIn: "0", TotalOut: "0"},
		todaySession: &session,
	}
	router := setupReportsRouter(store)

	req := authedRequest(t, http.MethodGet, "/reports/dashboard", nil, enum.UserRoleOwner)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	resp := decodeJSONMap(t, rr)
	if resp["session_status"] != "OPEN" {
		t.Errorf("session_status: got %v, want OPEN", resp["session_status"])
	}
	mtd, ok := resp["month_to_date"].(map[string]interface{})
	if !ok {
		t.Fatalf("month_to_date: got %T", resp["month_to_date"])
	}
	if mtd["revenue"] != "0.00" {
		t.Errorf("month_to_date.revenue: got %v", mtd["revenue"])
	}
}
