package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/booth-finance/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// ItemStore defines the database methods needed by item handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ItemStore interface {
	ListItems(ctx context.Context) ([]database.Item, error)
	ListActiveItems(ctx context.Context) ([]database.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (database.Item, error)
	CreateItem(ctx context.Context, arg database.CreateItemParams) (database.Item, error)
	UpdateItem(ctx context.Context, arg database.UpdateItemParams) (database.Item, error)
	SetItemActive(ctx context.Context, arg database.SetItemActiveParams) (database.Item, error)
}

// ItemHandler handles the booth menu item endpoints.
type ItemHandler struct {
	store ItemStore
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(store ItemStore) *ItemHandler {
	return &ItemHandler{store: store}
}

// RegisterReadRoutes registers the item endpoints any authenticated user may call.
func (h *ItemHandler) RegisterReadRoutes(r chi.Router) {
	r.Get("/items", h.List)
	r.Get("/items/{id}", h.Get)
}

// RegisterWriteRoutes registers the owner-only item mutations.
func (h *ItemHandler) RegisterWriteRoutes(r chi.Router) {
	r.Post("/items", h.Create)
	r.Put("/items/{id}", h.Update)
	r.Patch("/items/{id}/active", h.SetActive)
}

// --- Request / Response types ---

type itemRequest struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	SalesFee string `json:"sales_fee"`
}

type setItemActiveRequest struct {
	IsActive bool `json:"is_active"`
}

type itemResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	SalesFee  string    `json:"sales_fee"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toItemResponse(i database.Item) itemResponse {
	return itemResponse{
		ID:        i.ID,
		Name:      i.Name,
		Price:     numericToString(i.Price),
		SalesFee:  numericToString(i.SalesFee),
		IsActive:  i.IsActive,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

// --- Helpers ---

var errNegativeAmount = errors.New("negative amount")

// parseMoney accepts a decimal string and rejects negatives.
func parseMoney(s string) (pgtype.Numeric, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, errNegativeAmount
	}
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return n, nil
}

func (h *ItemHandler) parseItemRequest(w http.ResponseWriter, r *http.Request) (itemRequest, pgtype.Numeric, pgtype.Numeric, bool) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, pgtype.Numeric{}, pgtype.Numeric{}, false
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return req, pgtype.Numeric{}, pgtype.Numeric{}, false
	}
	if req.Price == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price is required"})
		return req, pgtype.Numeric{}, pgtype.Numeric{}, false
	}

	price, err := parseMoney(req.Price)
	if err != nil {
		if errors.Is(err, errNegativeAmount) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be >= 0"})
		} else {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		}
		return req, pgtype.Numeric{}, pgtype.Numeric{}, false
	}

	// sales_fee defaults to 0 when omitted
	feeStr := req.SalesFee
	if feeStr == "" {
		feeStr = "0"
	}
	fee, err := parseMoney(feeStr)
	if err != nil {
		if errors.Is(err, errNegativeAmount) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sales_fee must be >= 0"})
		} else {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sales_fee"})
		}
		return req, pgtype.Numeric{}, pgtype.Numeric{}, false
	}

	return req, price, fee, true
}

// --- Handlers ---

// List returns items; ?active=true narrows to active items only
// (the set offered when opening a session).
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		items []database.Item
		err   error
	)
	if r.URL.Query().Get("active") == "true" {
		items, err = h.store.ListActiveItems(r.Context())
	} else {
		items, err = h.store.ListItems(r.Context())
	}
	if err != nil {
		log.Printf("ERROR: list items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]itemResponse, len(items))
	for i, item := range items {
		resp[i] = toItemResponse(item)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Get returns a single item by ID.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	item, err := h.store.GetItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: get item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// Create adds a new menu item.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, price, fee, ok := h.parseItemRequest(w, r)
	if !ok {
		return
	}

	item, err := h.store.CreateItem(r.Context(), database.CreateItemParams{
		Name:     req.Name,
		Price:    price,
		SalesFee: fee,
	})
	if err != nil {
		log.Printf("ERROR: create item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

// Update modifies an existing item's name, price, and fee.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	req, price, fee, ok := h.parseItemRequest(w, r)
	if !ok {
		return
	}

	item, err := h.store.UpdateItem(r.Context(), database.UpdateItemParams{
		ID:       id,
		Name:     req.Name,
		Price:    price,
		SalesFee: fee,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: update item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// SetActive toggles whether an item appears in the opening-stock picker.
// Deactivation never deletes: historical session rows keep referencing it.
func (h *ItemHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req setItemActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	item, err := h.store.SetItemActive(r.Context(), database.SetItemActiveParams{
		ID:       id,
		IsActive: req.IsActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: set item active: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(item))
}
