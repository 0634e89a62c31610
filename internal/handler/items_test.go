package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/booth-finance/api/internal/database"
	"github.com/booth-finance/api/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// --- Mock store ---

type mockItemStore struct {
	items map[uuid.UUID]database.Item
}

func newMockItemStore() *mockItemStore {
	return &mockItemStore{items: make(map[uuid.UUID]database.Item)}
}

func (m *mockItemStore) ListItems(_ context.Context) ([]database.Item, error) {
	var result []database.Item
	for _, i := range m.items {
		result = append(result, i)
	}
	return result, nil
}

func (m *mockItemStore) ListActiveItems(_ context.Context) ([]database.Item, error) {
	var result []database.Item
	for _, i := range m.items {
		if i.IsActive {
			result = append(result, i)
		}
	}
	return result, nil
}

func (m *mockItemStore) GetItem(_ context.Context, id uuid.UUID) (database.Item, error) {
	i, ok := m.items[id]
	if !ok {
		return database.Item{}, pgx.ErrNoRows
	}
	return i, nil
}

func (m *mockItemStore) CreateItem(_ context.Context, arg database.CreateItemParams) (database.Item, error) {
	now := time.Now()
	i := database.Item{
		ID:        uuid.New(),
		Name:      arg.Name,
		Price:     arg.Price,
		SalesFee:  arg.SalesFee,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.items[i.ID] = i
	return i, nil
}

func (m *mockItemStore) UpdateItem(_ context.Context, arg database.UpdateItemParams) (database.Item, error) {
	i, ok := m.items[arg.ID]
	if !ok {
		return database.Item{}, pgx.ErrNoRows
	}
	i.Name = arg.Name
	i.Price = arg.Price
	i.SalesFee = arg.SalesFee
	i.UpdatedAt = time.Now()
	m.items[i.ID] = i
	return i, nil
}

func (m *mockItemStore) SetItemActive(_ context.Context, arg database.SetItemActiveParams) (database.Item, error) {
	i, ok := m.items[arg.ID]
	if !ok {
		return database.Item{}, pgx.ErrNoRows
	}
	i.IsActive = arg.IsActive
	i.UpdatedAt = time.Now()
	m.items[i.ID] = i
	return i, nil
}

// --- Helpers ---

func makeTestNumeric(t *testing.T, val string) pgtype.Numeric {
	t.Helper()
	var n pgtype.Numeric
	if err := n.Scan(val); err != nil {
		t.Fatalf("scan numeric %q: %v", val, err)
	}
	return n
}

func setupItemRouter(store *mockItemStore) *chi.Mux {
	h := handler.NewItemHandler(store)
	r := chi.NewRouter()
	h.RegisterReadRoutes(r)
	h.RegisterWriteRoutes(r)
	return r
}

func seedItem(t *testing.T, store *mockItemStore, name, price, fee string, active bool) database.Item {
	t.Helper()
	i := database.Item{
		ID:       uuid.New(),
		Name:     name,
		Price:    makeTestNumeric(t, price),
		SalesFee: makeTestNumeric(t, fee),
		IsActive: active,
	}
	store.items[i.ID] = i
	return i
}

func decodeJSONMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func decodeJSONList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	return buf
}

// --- Tests ---

func TestListItems_ActiveFilter(t *testing.T) {
	store := newMockItemStore()
	seedItem(t, store, "Tahu Bakso", "5000", "500", true)
	seedItem(t, store, "Risol Mayo", "4000", "400", false)
	router := setupItemRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/items?active=true", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	items := decodeJSONList(t, rr)
	if len(items) != 1 {
		t.Fatalf("items: got %d, want 1", len(items))
	}
	if items[0]["name"] != "Tahu Bakso" {
		t.Errorf("name: got %v, want Tahu Bakso", items[0]["name"])
	}
	if items[0]["price"] != "5000.00" {
		t.Errorf("price: got %v, want 5000.00", items[0]["price"])
	}
}

func TestListItems_All(t *testing.T) {
	store := newMockItemStore()
	seedItem(t, store, "Tahu Bakso", "5000", "500", true)
	seedItem(t, store, "Risol Mayo", "4000", "400", false)
	router := setupItemRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/items", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if items := decodeJSONList(t, rr); len(items) != 2 {
		t.Errorf("items: got %d, want 2", len(items))
	}
}

func TestCreateItem_Success(t *testing.T) {
	store := newMockItemStore()
	router := setupItemRouter(store)

	body := jsonBody(t, map[string]string{
		"name":      "Es Teh Manis",
		"price":     "3000",
		"sales_fee": "200",
	})
	req := httptest.NewRequest(http.MethodPost, "/items", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201, body: %s", rr.Code, rr.Body.String())
	}
	resp := decodeJSONMap(t, rr)
	if resp["name"] != "Es Teh Manis" {
		t.Errorf("name: got %v", resp["name"])
	}
	if resp["sales_fee"] != "200.00" {
		t.Errorf("sales_fee: got %v, want 200.00", resp["sales_fee"])
	}
	if resp["is_active"] != true {
		t.Errorf("is_active: got %v, want true", resp["is_active"])
	}
}

func TestCreateItem_DefaultsFeeToZero(t *testing.T) {
	store := newMockItemStore()
	router := setupItemRouter(store)

	body := jsonBody(t, map[string]string{"name": "Kerupuk", "price": "1000"})
	req := httptest.NewRequest(http.MethodPost, "/items", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201", rr.Code)
	}
	if resp := decodeJSONMap(t, rr); resp["sales_fee"] != "0.00" {
		t.Errorf("sales_fee: got %v, want 0.00", resp["sales_fee"])
	}
}

func TestCreateItem_NegativePrice(t *testing.T) {
	store := newMockItemStore()
	router := setupItemRouter(store)

	body := jsonBody(t, map[string]string{"name": "Bad", "price": "-5"})
	req := httptest.NewRequest(http.MethodPost, "/items", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestCreateItem_MissingName(t *testing.T) {
	store := newMockItemStore()
	router := setupItemRouter(store)

	body := jsonBody(t, map[string]string{"price": "5000"})
	req := httptest.NewRequest(http.MethodPost, "/items", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestUpdateItem_NotFound(t *testing.T) {
	store := newMockItemStore()
	router := setupItemRouter(store)

	body := jsonBody(t, map[string]string{"name": "Ghost", "price": "5000"})
	req := httptest.NewRequest(http.MethodPut, "/items/"+uuid.NewString(), body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
}

func TestSetItemActive_Deactivates(t *testing.T) {
	store := newMockItemStore()
	item := seedItem(t, store, "Tahu Bakso", "5000", "500", true)
	router := setupItemRouter(store)

	body := jsonBody(t, map[string]bool{"is_active": false})
	req := httptest.NewRequest(http.MethodPatch, "/items/"+item.ID.String()+"/active", body)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if resp := decodeJSONMap(t, rr); resp["is_active"] != false {
		t.Errorf("is_active: got %v, want false", resp["is_active"])
	}
	if store.items[item.ID].IsActive {
		t.Error("item should be inactive in store")
	}
}
