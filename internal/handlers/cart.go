package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/vastralaya/storefront/internal/auth"
	"github.com/vastralaya/storefront/internal/httpx"
	"github.com/vastralaya/storefront/internal/models"
	"github.com/vastralaya/storefront/internal/validation"
)

// CartHandler is owner-scoped: every query filters on the session
// customer, so foreign cart rows come back as not found.
type CartHandler struct {
	DB *gorm.DB
}

func NewCartHandler(db *gorm.DB) *CartHandler { return &CartHandler{DB: db} }

// Handle dispatches GET (list), POST (add), and DELETE (clear) on /cart.
func (h *CartHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.add(w, r)
	case http.MethodDelete:
		h.clear(w, r)
	default:
		w.Header().Set("Allow", "GET,POST,DELETE")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *CartHandler) list(w http.ResponseWriter, r *http.Request) {
	customerID, _ := auth.CustomerIDFromContext(r.Context())
	var items []models.CartItem
	if err := h.DB.Preload("Product").Where("customer_id = ?", customerID).Order("created_at desc").Find(&items).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_cart", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

// add merges into an existing row when the same product/size/color is
// already in the cart; otherwise a new row is created. Stock is not
// checked here, only at checkout.
func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	customerID, _ := auth.CustomerIDFromContext(r.Context())
	var input struct {
		ProductID uint   `json:"product_id"`
		Quantity  int    `json:"quantity"`
		Size      string `json:"size"`
		Color     string `json:"color"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	if input.ProductID == 0 {
		v["product_id"] = "required"
	}
	validation.PositiveInt("quantity", input.Quantity, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	var product models.Product
	if err := h.DB.Where("id = ? AND is_active = ?", input.ProductID, true).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "product_not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_product", nil)
		return
	}

	size := strings.TrimSpace(input.Size)
	color := strings.TrimSpace(input.Color)
	var existing models.CartItem
	err := h.DB.Where("customer_id = ? AND product_id = ? AND size = ? AND color = ?",
		customerID, input.ProductID, size, color).First(&existing).Error
	switch {
	case err == nil:
		existing.Quantity += input.Quantity
		if err := h.DB.Save(&existing).Error; err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "cart_update_failed", nil)
			return
		}
		existing.Product = product
		httpx.JSON(w, http.StatusCreated, existing)
	case errors.Is(err, gorm.ErrRecordNotFound):
		item := models.CartItem{CustomerID: customerID, ProductID: input.ProductID, Quantity: input.Quantity, Size: size, Color: color}
		if err := h.DB.Create(&item).Error; err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "cart_add_failed", nil)
			return
		}
		item.Product = product
		httpx.JSON(w, http.StatusCreated, item)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "cart_add_failed", nil)
	}
}

// Update: PUT /cart/update?id= – quantity only.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	customerID, _ := auth.CustomerIDFromContext(r.Context())
	id, ok := queryID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if input.Quantity < 1 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"quantity": "must_be_positive"})
		return
	}
	var item models.CartItem
	if err := h.DB.Where("id = ? AND customer_id = ?", id, customerID).First(&item).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "cart_item_not_found", nil)
		return
	}
	item.Quantity = input.Quantity
	if err := h.DB.Save(&item).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "cart_update_failed", nil)
		return
	}
	if err := h.DB.Preload("Product").First(&item, item.ID).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "cart_update_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

// Remove: DELETE /cart/remove?id= – one row.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	customerID, _ := auth.CustomerIDFromContext(r.Context())
	id, ok := queryID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	res := h.DB.Where("id = ? AND customer_id = ?", id, customerID).Delete(&models.CartItem{})
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "cart_remove_failed", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "cart_item_not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "item removed from cart"})
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	customerID, _ := auth.CustomerIDFromContext(r.Context())
	if err := h.DB.Where("customer_id = ?", customerID).Delete(&models.CartItem{}).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "cart_clear_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "cart cleared"})
}
