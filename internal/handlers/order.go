package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/vastralaya/storefront/internal/auth"
	"github.com/vastralaya/storefront/internal/httpx"
	"github.com/vastralaya/storefront/internal/models"
	"github.com/vastralaya/storefront/internal/services"
)

// OrderHandler covers the customer side: placing an order from the
// cart (or an explicit line list) and reading own orders.
type OrderHandler struct {
	DB       *gorm.DB
	Checkout *services.CheckoutService
}

func NewOrderHandler(db *gorm.DB, checkout *services.CheckoutService) *OrderHandler {
	return &OrderHandler{DB: db, Checkout: checkout}
}

func (h *OrderHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	customerID, _ := auth.CustomerIDFromContext(r.Context())
	if idStr := r.URL.Query().Get("id"); idStr != "" {
		id, ok := queryID(r)
		if !ok {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
			return
		}
		var order models.Order
		err := h.DB.Preload("Address").Preload("Items.Product").
			Where("id = ? AND customer_id = ?", id, customerID).First(&order).Error
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
	var orders []models.Order
	err := h.DB.Preload("Address").Preload("Items.Product").
		Where("customer_id = ?", customerID).Order("created_at desc").Find(&orders).Error
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_orders", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) create(w http.ResponseWriter, r *http.Request) {
	customerID, _ := auth.CustomerIDFromContext(r.Context())
	var input struct {
		AddressID            uint                 `json:"address_id"`
		Items                []services.OrderLine `json:"items"`
		PaymentScreenshotURL string               `json:"payment_screenshot_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if input.AddressID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"address_id": "required"})
		return
	}

	order, replayed, err := h.Checkout.PlaceOrder(services.PlaceOrderInput{
		CustomerID:           customerID,
		AddressID:            input.AddressID,
		Lines:                input.Items,
		PaymentScreenshotURL: input.PaymentScreenshotURL,
		IdempotencyKey:       r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		writeCheckoutError(w, err)
		return
	}
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	httpx.JSON(w, status, order)
}

func writeCheckoutError(w http.ResponseWriter, err error) {
	var notFound *services.ProductNotFoundError
	var noStock *services.InsufficientStockError
	switch {
	case errors.Is(err, services.ErrAddressNotFound):
		httpx.JSONError(w, http.StatusBadRequest, "address_not_found", nil)
	case errors.Is(err, services.ErrEmptyOrder):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"items": "required"})
	case errors.As(err, &notFound):
		httpx.JSONError(w, http.StatusBadRequest, "product_not_found", map[string]uint{"product_id": notFound.ProductID})
	case errors.As(err, &noStock):
		httpx.JSONError(w, http.StatusBadRequest, "insufficient_stock", map[string]any{
			"product_id": noStock.ProductID,
			"requested":  noStock.Requested,
			"available":  noStock.Available,
		})
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "order_create_failed", nil)
	}
}
