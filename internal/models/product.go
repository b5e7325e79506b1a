package models

import "time"

// Product domain model. Retailer "delete" only flips IsActive so that
// existing order items keep a valid reference.
type Product struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Name             string    `gorm:"not null;index" json:"name"`
	Description      string    `json:"description"`
	Category         string    `gorm:"not null;index" json:"category"`
	Price            float64   `gorm:"not null" json:"price"`
	StockQuantity    int       `gorm:"not null" json:"stock_quantity"`
	ImageURL         string    `json:"image_url"`
	AdditionalImages []string  `gorm:"serializer:json" json:"additional_images"`
	SizeOptions      []string  `gorm:"serializer:json" json:"size_options"`
	ColorOptions     []string  `gorm:"serializer:json" json:"color_options"`
	Material         string    `json:"material"`
	IsActive         bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
