package models

import "time"

// CustomerAddress model. At most one address per customer carries
// IsDefault; setting a new default unsets the others first.
type CustomerAddress struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CustomerID   uint      `gorm:"not null;index" json:"customer_id"`
	Customer     Customer  `gorm:"foreignKey:CustomerID" json:"-"`
	AddressLine1 string    `gorm:"not null" json:"address_line1"`
	AddressLine2 string    `json:"address_line2"`
	City         string    `gorm:"not null" json:"city"`
	State        string    `gorm:"not null" json:"state"`
	Pincode      string    `gorm:"not null" json:"pincode"`
	Phone        string    `gorm:"not null" json:"phone"`
	IsDefault    bool      `json:"is_default"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
