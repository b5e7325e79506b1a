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

// ProfileHandler serves the customer profile and the nested address
// book. Address writes go through a transaction so the single-default
// invariant holds even when a new default replaces an old one.
type ProfileHandler struct {
	DB *gorm.DB
}

func NewProfileHandler(db *gorm.DB) *ProfileHandler { return &ProfileHandler{DB: db} }

func (h *ProfileHandler) Handle(w http.ResponseWriter, r *http.Request) {
	customerID, _ := auth.CustomerIDFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		var customer models.Customer
		if err := h.DB.First(&customer, customerID).Error; err != nil {
			httpx.JSONError(w, http.StatusNotFound, "profile_not_found", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, customer)
	case http.MethodPut:
		var input struct {
			FullName    *string `json:"full_name"`
			PhoneNumber *string `json:"phone_number"`
		}
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		var customer models.Customer
		if err := h.DB.First(&customer, customerID).Error; err != nil {
			httpx.JSONError(w, http.StatusNotFound, "profile_not_found", nil)
			return
		}
		if input.FullName != nil && strings.TrimSpace(*input.FullName) != "" {
			customer.FullName = strings.TrimSpace(*input.FullName)
		}
		if input.PhoneNumber != nil {
			customer.PhoneNumber = strings.TrimSpace(*input.PhoneNumber)
		}
		if err := h.DB.Save(&customer).Error; err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "profile_update_failed", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, customer)
	default:
		w.Header().Set("Allow", "GET,PUT")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

type addressInput struct {
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
	Phone        string `json:"phone"`
	IsDefault    bool   `json:"is_default"`
}

func (in addressInput) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("address_line1", in.AddressLine1, v)
	validation.Required("city", in.City, v)
	validation.Required("state", in.State, v)
	validation.Required("pincode", in.Pincode, v)
	validation.Required("phone", in.Phone, v)
	return v
}

// Addresses dispatches GET (list) and POST (create) on /profile/addresses.
func (h *ProfileHandler) Addresses(w http.ResponseWriter, r *http.Request) {
	customerID, _ := auth.CustomerIDFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		var addresses []models.CustomerAddress
		err := h.DB.Where("customer_id = ?", customerID).
			Order("is_default desc").Order("created_at desc").Find(&addresses).Error
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_addresses", nil)
			return
		}
		httpx.JSON(w, http.StatusOK, addresses)
	case http.MethodPost:
		var input addressInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		if v := input.validate(); !v.Empty() {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
			return
		}
		addr := models.CustomerAddress{
			CustomerID:   customerID,
			AddressLine1: input.AddressLine1,
			AddressLine2: input.AddressLine2,
			City:         input.City,
			State:        input.State,
			Pincode:      input.Pincode,
			Phone:        input.Phone,
			IsDefault:    input.IsDefault,
		}
		err := h.DB.Transaction(func(tx *gorm.DB) error {
			if addr.IsDefault {
				if err := tx.Model(&models.CustomerAddress{}).
					Where("customer_id = ?", customerID).
					Update("is_default", false).Error; err != nil {
					return err
				}
			}
			return tx.Create(&addr).Error
		})
		if err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "address_create_failed", nil)
			return
		}
		httpx.JSON(w, http.StatusCreated, addr)
	default:
		w.Header().Set("Allow", "GET,POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

// UpdateAddress: PUT /profile/addresses/update?id=
func (h *ProfileHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
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
	var addr models.CustomerAddress
	if err := h.DB.Where("id = ? AND customer_id = ?", id, customerID).First(&addr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "address_not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_address", nil)
		return
	}
	var input struct {
		AddressLine1 *string `json:"address_line1"`
		AddressLine2 *string `json:"address_line2"`
		City         *string `json:"city"`
		State        *string `json:"state"`
		Pincode      *string `json:"pincode"`
		Phone        *string `json:"phone"`
		IsDefault    *bool   `json:"is_default"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if input.AddressLine1 != nil {
		addr.AddressLine1 = *input.AddressLine1
	}
	if input.AddressLine2 != nil {
		addr.AddressLine2 = *input.AddressLine2
	}
	if input.City != nil {
		addr.City = *input.City
	}
	if input.State != nil {
		addr.State = *input.State
	}
	if input.Pincode != nil {
		addr.Pincode = *input.Pincode
	}
	if input.Phone != nil {
		addr.Phone = *input.Phone
	}
	becameDefault := input.IsDefault != nil && *input.IsDefault && !addr.IsDefault
	if input.IsDefault != nil {
		addr.IsDefault = *input.IsDefault
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if becameDefault {
			if err := tx.Model(&models.CustomerAddress{}).
				Where("customer_id = ? AND id <> ?", customerID, addr.ID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Save(&addr).Error
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "address_update_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, addr)
}

// DeleteAddress: DELETE /profile/addresses/delete?id=
func (h *ProfileHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
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
	res := h.DB.Where("id = ? AND customer_id = ?", id, customerID).Delete(&models.CustomerAddress{})
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "address_delete_failed", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "address_not_found", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "address deleted"})
}
