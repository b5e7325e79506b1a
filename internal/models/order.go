package models

import "time"

// Order lifecycle statuses. Progression is strictly forward; cancelled
// is reachable from any non-terminal status and restores stock.
const (
	OrderStatusPlaced    = "placed"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
)

const PaymentMethodPhonePeQR = "phonepe_qr"

// CanTransition reports whether an order may move from one status to
// another. No transition is reversible.
func CanTransition(from, to string) bool {
	if to == OrderStatusCancelled {
		return from == OrderStatusPlaced || from == OrderStatusConfirmed || from == OrderStatusShipped
	}
	switch from {
	case OrderStatusPlaced:
		return to == OrderStatusConfirmed
	case OrderStatusConfirmed:
		return to == OrderStatusShipped
	case OrderStatusShipped:
		return to == OrderStatusDelivered
	}
	return false
}

// IsTerminalStatus reports whether no further transitions are allowed.
func IsTerminalStatus(s string) bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Order is immutable once created apart from its status fields. Item
// prices are frozen at placement and do not track later product edits.
type Order struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	OrderNumber          string          `gorm:"unique;not null" json:"order_number"`
	CustomerID           uint            `gorm:"not null;index" json:"customer_id"`
	Customer             Customer        `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	AddressID            uint            `gorm:"not null" json:"address_id"`
	Address              CustomerAddress `gorm:"foreignKey:AddressID" json:"address,omitempty"`
	Items                []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	TotalAmount          float64         `gorm:"not null" json:"total_amount"`
	PaymentStatus        string          `gorm:"not null;default:'pending'" json:"payment_status"`
	PaymentMethod        string          `gorm:"not null;default:'phonepe_qr'" json:"payment_method"`
	PaymentScreenshotURL string          `json:"payment_screenshot_url"`
	OrderStatus          string          `gorm:"not null;default:'placed';index" json:"order_status"`
	TrackingNumber       string          `json:"tracking_number"`
	// Optional client-supplied key making placement retry-safe.
	IdempotencyKey *string   `gorm:"uniqueIndex" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OrderID         uint      `gorm:"not null;index" json:"order_id"`
	ProductID       uint      `gorm:"not null" json:"product_id"`
	Product         Product   `gorm:"foreignKey:ProductID" json:"product"`
	Quantity        int       `gorm:"not null" json:"quantity"`
	PriceAtPurchase float64   `gorm:"not null" json:"price_at_purchase"`
	Size            string    `gorm:"not null;default:''" json:"size"`
	Color           string    `gorm:"not null;default:''" json:"color"`
	CreatedAt       time.Time `json:"created_at"`
}
