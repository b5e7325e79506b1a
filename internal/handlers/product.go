package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/vastralaya/storefront/internal/httpx"
	"github.com/vastralaya/storefront/internal/models"
	"github.com/vastralaya/storefront/internal/validation"
)

// ProductHandler serves the public catalog read side and the
// retailer-scoped write side. Deletion only deactivates so order items
// keep a valid product reference.
type ProductHandler struct {
	DB *gorm.DB
}

func NewProductHandler(db *gorm.DB) *ProductHandler { return &ProductHandler{DB: db} }

// List: GET /products – public. ?id= returns one product, ?category=
// filters, ?active=false includes deactivated products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	if idStr := r.URL.Query().Get("id"); idStr != "" {
		id, err := strconv.Atoi(idStr)
		if err != nil || id <= 0 {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
			return
		}
		var p models.Product
		if err := h.DB.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				httpx.JSONError(w, http.StatusNotFound, "product_not_found", nil)
				return
			}
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_product", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, p)
		return
	}
	dbq := h.DB.Model(&models.Product{})
	if r.URL.Query().Get("active") != "false" {
		dbq = dbq.Where("is_active = ?", true)
	}
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		dbq = dbq.Where("category = ?", category)
	}
	var products []models.Product
	if err := dbq.Order("created_at desc").Find(&products).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_products", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

type productInput struct {
	Name             *string   `json:"name"`
	Description      *string   `json:"description"`
	Category         *string   `json:"category"`
	Price            *float64  `json:"price"`
	StockQuantity    *int      `json:"stock_quantity"`
	ImageURL         *string   `json:"image_url"`
	AdditionalImages *[]string `json:"additional_images"`
	SizeOptions      *[]string `json:"size_options"`
	ColorOptions     *[]string `json:"color_options"`
	Material         *string   `json:"material"`
	IsActive         *bool     `json:"is_active"`
}

// Create: POST /retailer/products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var input productInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	name, category := deref(input.Name), deref(input.Category)
	validation.Required("name", name, v)
	validation.Required("category", category, v)
	price := 0.0
	if input.Price != nil {
		price = *input.Price
	}
	validation.PositiveFloat("price", price, v)
	stock := 0
	if input.StockQuantity != nil {
		stock = *input.StockQuantity
	}
	validation.NonNegativeInt("stock_quantity", stock, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	p := models.Product{
		Name:          strings.TrimSpace(name),
		Category:      strings.TrimSpace(category),
		Price:         price,
		StockQuantity: stock,
		IsActive:      true,
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.ImageURL != nil {
		p.ImageURL = *input.ImageURL
	}
	if input.AdditionalImages != nil {
		p.AdditionalImages = *input.AdditionalImages
	}
	if input.SizeOptions != nil {
		p.SizeOptions = *input.SizeOptions
	}
	if input.ColorOptions != nil {
		p.ColorOptions = *input.ColorOptions
	}
	if input.Material != nil {
		p.Material = *input.Material
	}
	if err := h.DB.Create(&p).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "product_create_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

// Update: PUT /retailer/products/update?id= – partial update.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id, ok := queryID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	var p models.Product
	if err := h.DB.First(&p, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "product_not_found", nil)
		return
	}
	var input productInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if input.Price != nil && *input.Price <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"price": "must_be_positive"})
		return
	}
	if input.StockQuantity != nil && *input.StockQuantity < 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"stock_quantity": "must_not_be_negative"})
		return
	}
	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Category != nil {
		p.Category = *input.Category
	}
	if input.Price != nil {
		p.Price = *input.Price
	}
	if input.StockQuantity != nil {
		p.StockQuantity = *input.StockQuantity
	}
	if input.ImageURL != nil {
		p.ImageURL = *input.ImageURL
	}
	if input.AdditionalImages != nil {
		p.AdditionalImages = *input.AdditionalImages
	}
	if input.SizeOptions != nil {
		p.SizeOptions = *input.SizeOptions
	}
	if input.ColorOptions != nil {
		p.ColorOptions = *input.ColorOptions
	}
	if input.Material != nil {
		p.Material = *input.Material
	}
	if input.IsActive != nil {
		p.IsActive = *input.IsActive
	}
	if err := h.DB.Save(&p).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "product_update_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

// Delete: DELETE /retailer/products/delete?id= – deactivates only.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id, ok := queryID(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return
	}
	res := h.DB.Model(&models.Product{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "product_delete_failed", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "product_not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "product deactivated"})
}

func queryID(r *http.Request) (uint, bool) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
