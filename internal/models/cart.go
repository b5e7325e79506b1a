package models

import "time"

// CartItem is a pending selection owned by one customer. The composite
// unique index makes add-to-cart a merge: the same product/size/color
// combination increments the existing row instead of duplicating it.
type CartItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CustomerID uint      `gorm:"not null;index:idx_cart_line,unique,priority:1" json:"customer_id"`
	ProductID  uint      `gorm:"not null;index:idx_cart_line,priority:2" json:"product_id"`
	Product    Product   `gorm:"foreignKey:ProductID" json:"product"`
	Quantity   int       `gorm:"not null" json:"quantity"`
	Size       string    `gorm:"not null;default:'';index:idx_cart_line,priority:3" json:"size"`
	Color      string    `gorm:"not null;default:'';index:idx_cart_line,priority:4" json:"color"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
