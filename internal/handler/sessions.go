package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/booth-finance/api/internal/database"
	"github.com/booth-finance/api/internal/middleware"
	"github.com/booth-finance/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// SessionServicer defines the service methods needed by session handlers.
// Satisfied by *service.SessionService; narrow interface for testability.
type SessionServicer interface {
	OpenSession(ctx context.Context, req service.OpenSessionRequest) (*service.OpenSessionResult, error)
	CloseSession(ctx context.Context, req service.CloseSessionRequest) (*service.CloseSessionResult, error)
}

// SessionStore defines the database methods needed by session read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type SessionStore interface {
	GetSession(ctx context.Context, id uuid.UUID) (database.BoothSession, error)
	GetSessionByDate(ctx context.Context, date pgtype.Date) (database.BoothSession, error)
	ListSessionItems(ctx context.Context, sessionID uuid.UUID) ([]database.ListSessionItemsRow, error)
	ListSessions(ctx context.Context, arg database.ListSessionsParams) ([]database.ListSessionsRow, error)
}

// SessionHandler handles the booth session lifecycle endpoints.
type SessionHandler struct {
	svc   SessionServicer
	store SessionStore
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(svc SessionServicer, store SessionStore) *SessionHandler {
	return &SessionHandler{svc: svc, store: store}
}

// RegisterRoutes registers the session endpoints any authenticated user may call.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions", h.List)
	r.Get("/sessions/today", h.Today)
	r.Get("/sessions/{id}", h.Get)
	r.Post("/sessions/{id}/estimate", h.Estimate)
	r.Post("/sessions/{id}/close", h.Close)
}

// RegisterOpenRoute registers the owner-only session open endpoint.
func (h *SessionHandler) RegisterOpenRoute(r chi.Router) {
	r.Post("/sessions/open", h.Open)
}

// --- Request / Response types ---

type openSessionRequest struct {
	Date  string                 `json:"date"`
	Items []openStockItemRequest `json:"items"`
}

type openStockItemRequest struct {
	ItemID  string `json:"item_id"`
	QtyOpen int32  `json:"qty_open"`
}

type estimateRequest struct {
	QtyClose map[string]int32 `json:"qty_close"`
}

type closeSessionRequest struct {
	TotalSalesInput string           `json:"total_sales_input"`
	QtyClose        map[string]int32 `json:"qty_close"`
	Notes           string           `json:"notes"`
}

type sessionResponse struct {
	ID              uuid.UUID  `json:"id"`
	Date            string     `json:"date"`
	Status          string     `json:"status"`
	OpenedBy        uuid.UUID  `json:"opened_by"`
	OpenedByName    string     `json:"opened_by_name,omitempty"`
	ClosedBy        *string    `json:"closed_by"`
	ClosedByName    *string    `json:"closed_by_name,omitempty"`
	TotalSalesInput string     `json:"total_sales_input"`
	TotalFee        string     `json:"total_fee"`
	FeePaid         bool       `json:"fee_paid"`
	FeePaidAt       *time.Time `json:"fee_paid_at"`
	Notes           *string    `json:"notes"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type sessionItemResponse struct {
	ID       uuid.UUID `json:"id"`
	ItemID   uuid.UUID `json:"item_id"`
	ItemName string    `json:"item_name"`
	QtyOpen  int32     `json:"qty_open"`
	QtyClose *int32    `json:"qty_close"`
	Price    string    `json:"price"`
	SalesFee string    `json:"sales_fee"`
}

type sessionDetailResponse struct {
	sessionResponse
	Items []sessionItemResponse `json:"items"`
}

type todayResponse struct {
	Status  string                 `json:"status"`
	Session *sessionDetailResponse `json:"session"`
}

type estimateItemResponse struct {
	ID       uuid.UUID `json:"id"`
	ItemName string    `json:"item_name"`
	QtyOpen  int32     `json:"qty_open"`
	QtyClose int32     `json:"qty_close"`
	Sold     int32     `json:"sold"`
	Revenue  string    `json:"revenue"`
	Fee      string    `json:"fee"`
}

type estimateResponse struct {
	Items            []estimateItemResponse `json:"items"`
	EstimatedRevenue string                 `json:"estimated_revenue"`
	EstimatedFee     string                 `json:"estimated_fee"`
}

func toSessionResponse(s database.BoothSession) sessionResponse {
	resp := sessionResponse{
		ID:              s.ID,
		Date:            s.Date.Time.Format("2006-01-02"),
		Status:          s.Status,
		OpenedBy:        s.OpenedBy,
		TotalSalesInput: numericToString(s.TotalSalesInput),
		TotalFee:        numericToString(s.TotalFee),
		FeePaid:         s.FeePaid,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.ClosedBy.Valid {
		id := uuid.UUID(s.ClosedBy.Bytes).String()
		resp.ClosedBy = &id
	}
	if s.FeePaidAt.Valid {
		resp.FeePaidAt = &s.FeePaidAt.Time
	}
	if s.Notes.Valid {
		resp.Notes = &s.Notes.String
	}
	return resp
}

func toSessionItemResponse(row database.ListSessionItemsRow) sessionItemResponse {
	resp := sessionItemResponse{
		ID:       row.ID,
		ItemID:   row.ItemID,
		ItemName: row.ItemName,
		QtyOpen:  row.QtyOpen,
		Price:    numericToString(row.Price),
		SalesFee: numericToString(row.SalesFee),
	}
	if row.QtyClose.Valid {
		qc := row.QtyClose.Int32
		resp.QtyClose = &qc
	}
	return resp
}

// --- Helpers ---

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func numericMul(n pgtype.Numeric, by decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(numericToString(n))
	if err != nil {
		return decimal.Zero
	}
	return d.Mul(by)
}

// boothLocation returns the booth's local timezone. The booth operates on
// Asia/Jakarta dates regardless of where the server runs.
func boothLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		loc = time.FixedZone("WIB", 7*3600)
	}
	return loc
}

func todayBoothDate() time.Time {
	now := time.Now().In(boothLocation())
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// parseQtyClose converts a JSON qty_close map keyed by session item ID.
func parseQtyClose(in map[string]int32) (map[uuid.UUID]int32, error) {
	out := make(map[uuid.UUID]int32, len(in))
	for key, qty := range in {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("invalid session item ID %q", key)
		}
		out[id] = qty
	}
	return out, nil
}

// --- Handlers ---

// Open opens a new booth session for a date with opening stock counts.
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
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

	items := make([]service.OpenStockInput, len(req.Items))
	for i, in := range req.Items {
		items[i] = service.OpenStockInput{ItemID: in.ItemID, QtyOpen: in.QtyOpen}
	}

	result, err := h.svc.OpenSession(r.Context(), service.OpenSessionRequest{
		Date:     date,
		OpenedBy: claims.UserID,
		Items:    items,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateSession):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrEmptyItems),
			errors.Is(err, service.ErrInvalidQtyOpen),
			errors.Is(err, service.ErrNoOpeningStock),
			errors.Is(err, service.ErrInvalidItemID),
			errors.Is(err, service.ErrDuplicateItem),
			errors.Is(err, service.ErrItemNotFound):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: open session: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	resp := sessionDetailResponse{sessionResponse: toSessionResponse(result.Session)}
	resp.Items = make([]sessionItemResponse, len(result.Items))
	for i, row := range result.Items {
		resp.Items[i] = sessionItemResponse{
			ID:      row.ID,
			ItemID:  row.ItemID,
			QtyOpen: row.QtyOpen,
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Today reports the current day's session state: NONE, OPEN, or CLOSED.
func (h *SessionHandler) Today(w http.ResponseWriter, r *http.Request) {
	date := pgtype.Date{Time: todayBoothDate(), Valid: true}

	session, err := h.store.GetSessionByDate(r.Context(), date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusOK, todayResponse{Status: "NONE"})
			return
		}
		log.Printf("ERROR: get today session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	detail, err := h.sessionDetail(r.Context(), session)
	if err != nil {
		log.Printf("ERROR: get today session items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, todayResponse{Status: session.Status, Session: detail})
}

// List returns sessions newest first, optionally filtered by date range.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	startDate, endDate, err := parseDateFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	limit, offset := parsePagination(r)

	rows, err := h.store.ListSessions(r.Context(), database.ListSessionsParams{
		StartDate: startDate,
		EndDate:   endDate,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		log.Printf("ERROR: list sessions: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]sessionResponse, len(rows))
	for i, row := range rows {
		s := toSessionResponse(row.BoothSession)
		s.OpenedByName = row.OpenedByName
		if row.ClosedByName.Valid {
			name := row.ClosedByName.String
			s.ClosedByName = &name
		}
		resp[i] = s
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns one session with its item rows.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	session, err := h.store.GetSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		log.Printf("ERROR: get session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	detail, err := h.sessionDetail(r.Context(), session)
	if err != nil {
		log.Printf("ERROR: get session items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// Estimate computes the advisory revenue for proposed closing counts without
// touching the session.
func (h *SessionHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	qtyClose, err := parseQtyClose(req.QtyClose)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if _, err := h.store.GetSession(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
			return
		}
		log.Printf("ERROR: get session: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	items, err := h.store.ListSessionItems(r.Context(), id)
	if err != nil {
		log.Printf("ERROR: list session items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	lines := make([]estimateItemResponse, len(items))
	for i, item := range items {
		qc := qtyClose[item.ID]
		if qc < 0 {
			qc = 0
		}
		sold := item.QtyOpen - qc
		if sold < 0 {
			sold = 0
		}
		soldDec := decimal.NewFromInt32(sold)
		lines[i] = estimateItemResponse{
			ID:       item.ID,
			ItemName: item.ItemName,
			QtyOpen:  item.QtyOpen,
			QtyClose: qc,
			Sold:     sold,
			Revenue:  numericMul(item.Price, soldDec).StringFixed(2),
			Fee:      numericMul(item.SalesFee, soldDec).StringFixed(2),
		}
	}

	writeJSON(w, http.StatusOK, estimateResponse{
		Items:            lines,
		EstimatedRevenue: service.EstimateRevenue(items, qtyClose).StringFixed(2),
		EstimatedFee:     service.SessionFee(items, qtyClose).StringFixed(2),
	})
}

// Close closes an open session with final counts and the counted cash total.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}

	var req closeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	qtyClose, err := parseQtyClose(req.QtyClose)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.svc.CloseSession(r.Context(), service.CloseSessionRequest{
		SessionID:  id,
		ClosedBy:   claims.UserID,
		TotalSales: req.TotalSalesInput,
		QtyClose:   qtyClose,
		Notes:      req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrSessionNotOpen):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidTotalSales),
			errors.Is(err, service.ErrQtyCloseExceedsOpen):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Printf("ERROR: close session: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(result.Session))
}

func (h *SessionHandler) sessionDetail(ctx context.Context, session database.BoothSession) (*sessionDetailResponse, error) {
	items, err := h.store.ListSessionItems(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	detail := &sessionDetailResponse{sessionResponse: toSessionResponse(session)}
	detail.Items = make([]sessionItemResponse, len(items))
	for i, row := range items {
		detail.Items[i] = toSessionItemResponse(row)
	}
	return detail, nil
}

// parseDateFilter reads optional start_date / end_date query params as
// inclusive booth-local dates. Zero pgtype.Date means no bound.
func parseDateFilter(r *http.Request) (pgtype.Date, pgtype.Date, error) {
	const layout = "2006-01-02"

	var start, end pgtype.Date
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse(layout, s)
		if err != nil {
			return start, end, fmt.Errorf("invalid start_date format: %w", err)
		}
		start = pgtype.Date{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse(layout, s)
		if err != nil {
			return start, end, fmt.Errorf("invalid end_date format: %w", err)
		}
		end = pgtype.Date{Time: t, Valid: true}
	}
	if start.Valid && end.Valid && start.Time.After(end.Time) {
		return start, end, fmt.Errorf("start_date must not be after end_date")
	}
	return start, end, nil
}

func parsePagination(r *http.Request) (int32, int32) {
	limit := int32(50)
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = int32(v)
		}
	}
	if limit > 200 {
		limit = 200
	}

	offset := int32(0)
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = int32(v)
		}
	}
	return limit, offset
}
