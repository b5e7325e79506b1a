package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vastralaya/storefront/internal/auth"
	"github.com/vastralaya/storefront/internal/httpx"
	"github.com/vastralaya/storefront/internal/models"
	"github.com/vastralaya/storefront/internal/services"
)

// RetailerHandler covers portal login and the retailer order views.
// Everything except Login sits behind auth.RequireRetailer.
type RetailerHandler struct {
	DB       *gorm.DB
	Checkout *services.CheckoutService
	Stats    *services.StatsService
}

func NewRetailerHandler(db *gorm.DB, checkout *services.CheckoutService, stats *services.StatsService) *RetailerHandler {
	return &RetailerHandler{DB: db, Checkout: checkout, Stats: stats}
}

// Login: POST /retailer/login – issues the signed bearer token.
func (h *RetailerHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"email": "required", "password": "required"})
		return
	}
	var retailer models.Retailer
	if err := h.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(input.Email))).First(&retailer).Error; err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(retailer.PasswordHash), []byte(input.Password)) != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	token, expiresAt, err := auth.IssueRetailerToken(retailer.Email)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "token_issue_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"token": token, "expires_at": expiresAt})
}

// Orders: GET /retailer/orders – all orders, ?status= filters, ?id= one.
func (h *RetailerHandler) Orders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if idStr := r.URL.Query().Get("id"); idStr != "" {
		id, ok := queryID(r)
		if !ok {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
			return
		}
		var order models.Order
		err := h.DB.Preload("Customer").Preload("Address").Preload("Items.Product").First(&order, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				httpx.JSONError(w, http.StatusNotFound, "order_not_found", nil)
				return
			}
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_order", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, order)
		return
	}
	dbq := h.DB.Preload("Customer").Preload("Address").Preload("Items.Product")
	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		dbq = dbq.Where("order_status = ?", status)
	}
	var orders []models.Order
	if err := dbq.Order("created_at desc").Find(&orders).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_orders", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, orders)
}

// UpdateOrder: PUT /retailer/orders/update?id= – status workflow.
func (h *RetailerHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id, ok := queryID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var input struct {
		OrderStatus    string `json:"order_status"`
		TrackingNumber string `json:"tracking_number"`
		PaymentStatus  string `json:"payment_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	order, err := h.Checkout.UpdateStatus(id, services.StatusUpdateInput{
		OrderStatus:    input.OrderStatus,
		TrackingNumber: input.TrackingNumber,
		PaymentStatus:  input.PaymentStatus,
	})
	if err != nil {
		var invalid *services.InvalidTransitionError
		switch {
		case errors.Is(err, services.ErrOrderNotFound):
			httpx.JSONError(w, http.StatusNotFound, "order_not_found", nil)
		case errors.As(err, &invalid):
			httpx.JSONError(w, http.StatusBadRequest, "invalid_transition", map[string]string{"from": invalid.From, "to": invalid.To})
		case errors.Is(err, services.ErrTrackingRequired):
			httpx.JSONError(w, http.StatusBadRequest, "tracking_number_required", nil)
		case errors.Is(err, services.ErrInvalidPaymentStatus):
			httpx.JSONError(w, http.StatusBadRequest, "invalid_payment_status", nil)
		default:
			httpx.JSONError(w, http.StatusInternalServerError, "order_update_failed", nil)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

// DashboardStats: GET /retailer/stats
func (h *RetailerHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	stats, err := h.Stats.Dashboard()
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_stats", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}
