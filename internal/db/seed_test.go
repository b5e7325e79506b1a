package db

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vastralaya/storefront/internal/models"
)

func TestSeedRetailerIdempotent(t *testing.T) {
	d, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.AutoMigrate(&models.Retailer{}); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RETAILER_EMAIL", "owner@vastralaya.in")
	t.Setenv("RETAILER_PASSWORD", "portal123")

	if err := Seed(d); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := Seed(d); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var count int64
	d.Model(&models.Retailer{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected exactly one retailer got %d", count)
	}
	var ret models.Retailer
	if err := d.First(&ret).Error; err != nil {
		t.Fatal(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(ret.PasswordHash), []byte("portal123")) != nil {
		t.Fatalf("seeded password hash does not verify")
	}
}

func TestSeedSkipsWithoutEnv(t *testing.T) {
	d, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.AutoMigrate(&models.Retailer{}); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RETAILER_EMAIL", "")
	t.Setenv("RETAILER_PASSWORD", "")

	if err := Seed(d); err != nil {
		t.Fatalf("seed without env should be a no-op: %v", err)
	}
	var count int64
	d.Model(&models.Retailer{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no retailer got %d", count)
	}
}
