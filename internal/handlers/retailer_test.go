package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vastralaya/storefront/internal/auth"
	"github.com/vastralaya/storefront/internal/models"
	"github.com/vastralaya/storefront/internal/services"
)

func newRetailerHandler(db *gorm.DB) *RetailerHandler {
	return NewRetailerHandler(db, services.NewCheckoutService(db), services.NewStatsService(db))
}

func seedRetailer(t *testing.T, db *gorm.DB) models.Retailer {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("portal123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	ret := models.Retailer{Email: "owner@vastralaya.in", PasswordHash: string(hash)}
	if err := db.Create(&ret).Error; err != nil {
		t.Fatalf("seed retailer: %v", err)
	}
	return ret
}

func seedOrder(t *testing.T, db *gorm.DB) *models.Order {
	t.Helper()
	c := seedCustomer(t, db, "priya@example.com")
	addr := seedAddress(t, db, c.ID, true)
	p := seedProduct(t, db, "Shirt", 100, 10)
	order, _, err := services.NewCheckoutService(db).PlaceOrder(services.PlaceOrderInput{
		CustomerID: c.ID,
		AddressID:  addr.ID,
		Lines:      []services.OrderLine{{ProductID: p.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}
	return order
}

func TestRetailerLoginIssuesToken(t *testing.T) {
	db := setupTestDB(t)
	h := newRetailerHandler(db)
	seedRetailer(t, db)

	req := httptest.NewRequest(http.MethodPost, "/retailer/login", strings.NewReader(`{"email":"owner@vastralaya.in","password":"portal123"}`))
	w := httptest.NewRecorder()
	h.Login(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := auth.ParseRetailerToken(payload.Token)
	if err != nil {
		t.Fatalf("issued token must verify: %v", err)
	}
	if claims.Role != "retailer" || claims.Email != "owner@vastralaya.in" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/retailer/login", strings.NewReader(`{"email":"owner@vastralaya.in","password":"nope"}`))
	w2 := httptest.NewRecorder()
	h.Login(w2, req2)
	if w2.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w2.Code)
	}
}

func updateOrder(t *testing.T, h *RetailerHandler, orderID uint, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/retailer/orders/update?id=%d", orderID), strings.NewReader(body))
	w := httptest.NewRecorder()
	h.UpdateOrder(w, req)
	return w
}

func TestRetailerOrderWorkflow(t *testing.T) {
	db := setupTestDB(t)
	h := newRetailerHandler(db)
	order := seedOrder(t, db)

	if w := updateOrder(t, h, order.ID, `{"order_status":"confirmed"}`); w.Code != http.StatusOK {
		t.Fatalf("confirm: expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	// Shipping without tracking is refused.
	w := updateOrder(t, h, order.ID, `{"order_status":"shipped"}`)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "tracking_number_required") {
		t.Fatalf("expected tracking_number_required got %d %s", w.Code, w.Body.String())
	}

	if w := updateOrder(t, h, order.ID, `{"order_status":"shipped","tracking_number":"TRK123"}`); w.Code != http.StatusOK {
		t.Fatalf("ship: expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	w = updateOrder(t, h, order.ID, `{"order_status":"delivered"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("deliver: expected 200 got %d", w.Code)
	}
	var final models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &final); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if final.OrderStatus != models.OrderStatusDelivered || final.TrackingNumber != "TRK123" {
		t.Fatalf("unexpected final order: %+v", final)
	}
}

func TestRetailerInvalidTransition(t *testing.T) {
	db := setupTestDB(t)
	h := newRetailerHandler(db)
	order := seedOrder(t, db)

	w := updateOrder(t, h, order.ID, `{"order_status":"delivered"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid_transition") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"from":"placed"`) {
		t.Fatalf("expected transition details: %s", w.Body.String())
	}
}

func TestRetailerOrdersListAndFilter(t *testing.T) {
	db := setupTestDB(t)
	h := newRetailerHandler(db)
	order := seedOrder(t, db)

	req := httptest.NewRequest(http.MethodGet, "/retailer/orders?status=placed", nil)
	w := httptest.NewRecorder()
	h.Orders(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var orders []models.Order
	if err := json.Unmarshal(w.Body.Bytes(), &orders); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 placed order got %d", len(orders))
	}
	if orders[0].Customer.Email != "priya@example.com" {
		t.Fatalf("expected customer preloaded, got %+v", orders[0].Customer)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/retailer/orders?status=shipped", nil)
	w2 := httptest.NewRecorder()
	h.Orders(w2, req2)
	var shipped []models.Order
	if err := json.Unmarshal(w2.Body.Bytes(), &shipped); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(shipped) != 0 {
		t.Fatalf("expected no shipped orders got %d", len(shipped))
	}

	req3 := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/retailer/orders?id=%d", order.ID), nil)
	w3 := httptest.NewRecorder()
	h.Orders(w3, req3)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w3.Code)
	}
}

func TestRetailerDashboard(t *testing.T) {
	db := setupTestDB(t)
	h := newRetailerHandler(db)
	seedOrder(t, db)

	req := httptest.NewRequest(http.MethodGet, "/retailer/stats", nil)
	w := httptest.NewRecorder()
	h.DashboardStats(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var stats services.DashboardStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalOrders != 1 || stats.TotalRevenue != 200 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
