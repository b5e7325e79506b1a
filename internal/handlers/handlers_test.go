package handlers

import (
	"net/http"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vastralaya/storefront/internal/auth"
	"github.com/vastralaya/storefront/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Customer{}, &models.Retailer{}, &models.CustomerAddress{},
		&models.Product{}, &models.CartItem{}, &models.Order{}, &models.OrderItem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedCustomer(t *testing.T, db *gorm.DB, email string) models.Customer {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	c := models.Customer{Email: email, PasswordHash: string(hash), FullName: "Test Customer"}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return c
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) models.Product {
	t.Helper()
	p := models.Product{Name: name, Category: "shirts", Price: price, StockQuantity: stock, IsActive: true}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p
}

func seedAddress(t *testing.T, db *gorm.DB, customerID uint, isDefault bool) models.CustomerAddress {
	t.Helper()
	a := models.CustomerAddress{
		CustomerID: customerID, AddressLine1: "12 MG Road", City: "Bengaluru",
		State: "KA", Pincode: "560001", Phone: "9900000000", IsDefault: isDefault,
	}
	if err := db.Create(&a).Error; err != nil {
		t.Fatalf("seed address: %v", err)
	}
	return a
}

// asCustomer injects a customer session into the request context.
func asCustomer(r *http.Request, customerID uint) *http.Request {
	return r.WithContext(auth.WithCustomerID(r.Context(), customerID))
}
