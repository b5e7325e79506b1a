package services

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/vastralaya/storefront/internal/models"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "checkout").Logger()

// CheckoutService converts carts into orders and drives the order
// status workflow. All multi-step writes run inside one transaction so
// a failure midway leaves no partial order behind.
type CheckoutService struct {
	DB *gorm.DB
}

func NewCheckoutService(db *gorm.DB) *CheckoutService { return &CheckoutService{DB: db} }

// OrderLine is one requested product/variant/quantity line.
type OrderLine struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// PlaceOrderInput carries everything checkout needs. Lines may be nil,
// in which case the customer's live cart is used.
type PlaceOrderInput struct {
	CustomerID           uint
	AddressID            uint
	Lines                []OrderLine
	PaymentScreenshotURL string
	IdempotencyKey       string
}

var (
	ErrEmptyOrder      = errors.New("order has no items")
	ErrAddressNotFound = errors.New("address not found")
	ErrOrderNotFound   = errors.New("order not found")
)

// ProductNotFoundError reports a line referencing a missing or
// inactive product.
type ProductNotFoundError struct {
	ProductID uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// InsufficientStockError reports a line exceeding available stock.
type InsufficientStockError struct {
	ProductID uint
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

// InvalidTransitionError reports a disallowed order status change.
type InvalidTransitionError struct {
	From, To string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

func generateOrderNumber() string {
	millis := time.Now().UnixMilli()
	return fmt.Sprintf("ORD-%d-%03d", millis, rand.Intn(1000))
}

// PlaceOrder validates the request, then inserts the order, snapshots
// item prices, decrements stock, and clears the cart in a single
// transaction. The stock decrement re-checks availability row by row,
// so two concurrent checkouts cannot jointly oversell: the loser rolls
// back with the same insufficient-stock error a failed pre-check gives.
//
// When input carries an idempotency key already seen for this
// customer, the previously created order is returned and replayed is
// true; no writes happen.
func (s *CheckoutService) PlaceOrder(input PlaceOrderInput) (order *models.Order, replayed bool, err error) {
	if input.IdempotencyKey != "" {
		var existing models.Order
		err := s.DB.Where("idempotency_key = ? AND customer_id = ?", input.IdempotencyKey, input.CustomerID).First(&existing).Error
		if err == nil {
			full, loadErr := s.loadOrder(existing.ID)
			return full, true, loadErr
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
	}

	var address models.CustomerAddress
	if err := s.DB.Where("id = ? AND customer_id = ?", input.AddressID, input.CustomerID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrAddressNotFound
		}
		return nil, false, err
	}

	lines := input.Lines
	if len(lines) == 0 {
		var cart []models.CartItem
		if err := s.DB.Where("customer_id = ?", input.CustomerID).Find(&cart).Error; err != nil {
			return nil, false, err
		}
		for _, ci := range cart {
			lines = append(lines, OrderLine{ProductID: ci.ProductID, Quantity: ci.Quantity, Size: ci.Size, Color: ci.Color})
		}
	}
	if len(lines) == 0 {
		return nil, false, ErrEmptyOrder
	}
	for _, l := range lines {
		if l.ProductID == 0 || l.Quantity <= 0 {
			return nil, false, ErrEmptyOrder
		}
	}

	productIDs := make([]uint, 0, len(lines))
	for _, l := range lines {
		productIDs = append(productIDs, l.ProductID)
	}
	var products []models.Product
	if err := s.DB.Where("id IN ? AND is_active = ?", productIDs, true).Find(&products).Error; err != nil {
		return nil, false, err
	}
	productByID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	// Pre-checks reject before any write. The authoritative stock check
	// happens again inside the transaction.
	var total float64
	for _, l := range lines {
		p, ok := productByID[l.ProductID]
		if !ok {
			return nil, false, &ProductNotFoundError{ProductID: l.ProductID}
		}
		if p.StockQuantity < l.Quantity {
			return nil, false, &InsufficientStockError{ProductID: p.ID, Requested: l.Quantity, Available: p.StockQuantity}
		}
		total += p.Price * float64(l.Quantity)
	}

	var idemKey *string
	if input.IdempotencyKey != "" {
		k := input.IdempotencyKey
		idemKey = &k
	}

	created := models.Order{
		OrderNumber:          generateOrderNumber(),
		CustomerID:           input.CustomerID,
		AddressID:            address.ID,
		TotalAmount:          total,
		PaymentStatus:        models.PaymentStatusPending,
		PaymentMethod:        models.PaymentMethodPhonePeQR,
		PaymentScreenshotURL: input.PaymentScreenshotURL,
		OrderStatus:          models.OrderStatusPlaced,
		IdempotencyKey:       idemKey,
	}

	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&created).Error; err != nil {
			// The timestamp+random order number is not collision-proof;
			// retry once with a fresh suffix before failing the checkout.
			if isDuplicateErr(err) {
				created.OrderNumber = generateOrderNumber()
				if err := tx.Create(&created).Error; err != nil {
					return err
				}
			} else {
				return err
			}
		}
		items := make([]models.OrderItem, 0, len(lines))
		for _, l := range lines {
			p := productByID[l.ProductID]
			items = append(items, models.OrderItem{
				OrderID:         created.ID,
				ProductID:       p.ID,
				Quantity:        l.Quantity,
				PriceAtPurchase: p.Price,
				Size:            l.Size,
				Color:           l.Color,
			})
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		for _, l := range lines {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock_quantity >= ?", l.ProductID, l.Quantity).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", l.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != 1 {
				// Stock changed between pre-check and decrement.
				p := productByID[l.ProductID]
				return &InsufficientStockError{ProductID: p.ID, Requested: l.Quantity, Available: p.StockQuantity}
			}
		}
		if err := tx.Where("customer_id = ?", input.CustomerID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return nil
	})
	if txErr != nil {
		// A concurrent request with the same idempotency key may have
		// committed between the read above and our insert, making our
		// insert fail on the key's unique index. If the winner's order
		// exists now, replay it instead of surfacing the failure.
		if idemKey != nil {
			var winner models.Order
			if lookupErr := s.DB.Where("idempotency_key = ? AND customer_id = ?", *idemKey, input.CustomerID).First(&winner).Error; lookupErr == nil {
				full, loadErr := s.loadOrder(winner.ID)
				return full, true, loadErr
			}
		}
		logger.Error().Err(txErr).Uint("customer_id", input.CustomerID).Msg("order placement rolled back")
		return nil, false, txErr
	}

	logger.Info().Str("order_number", created.OrderNumber).Uint("customer_id", input.CustomerID).Float64("total", total).Msg("order placed")
	full, err := s.loadOrder(created.ID)
	return full, false, err
}

// StatusUpdateInput is a retailer-side change to one order.
type StatusUpdateInput struct {
	OrderStatus    string
	TrackingNumber string
	PaymentStatus  string
}

var (
	ErrTrackingRequired     = errors.New("tracking number required to mark an order shipped")
	ErrInvalidPaymentStatus = errors.New("payment status may only move from pending to completed")
)

// UpdateStatus applies a retailer workflow change. Status transitions
// follow placed -> confirmed -> shipped -> delivered, with cancelled
// reachable from any non-terminal status. Shipping requires a tracking
// number set atomically with the transition, and cancellation restores
// each line's stock in the same transaction.
func (s *CheckoutService) UpdateStatus(orderID uint, input StatusUpdateInput) (*models.Order, error) {
	var order models.Order
	if err := s.DB.Preload("Items").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	updates := map[string]any{}
	restock := false
	if input.OrderStatus != "" && input.OrderStatus != order.OrderStatus {
		if !models.CanTransition(order.OrderStatus, input.OrderStatus) {
			return nil, &InvalidTransitionError{From: order.OrderStatus, To: input.OrderStatus}
		}
		if input.OrderStatus == models.OrderStatusShipped && strings.TrimSpace(input.TrackingNumber) == "" {
			return nil, ErrTrackingRequired
		}
		updates["order_status"] = input.OrderStatus
		restock = input.OrderStatus == models.OrderStatusCancelled
	}
	if input.TrackingNumber != "" {
		updates["tracking_number"] = input.TrackingNumber
	}
	if input.PaymentStatus != "" && input.PaymentStatus != order.PaymentStatus {
		if order.PaymentStatus != models.PaymentStatusPending || input.PaymentStatus != models.PaymentStatusCompleted {
			return nil, ErrInvalidPaymentStatus
		}
		updates["payment_status"] = input.PaymentStatus
	}
	if len(updates) == 0 {
		return s.loadOrder(order.ID)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return err
		}
		if restock {
			for _, it := range order.Items {
				res := tx.Model(&models.Product{}).
					Where("id = ?", it.ProductID).
					UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", it.Quantity))
				if res.Error != nil {
					return res.Error
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if restock {
		logger.Info().Uint("order_id", order.ID).Msg("order cancelled, stock restored")
	}
	return s.loadOrder(order.ID)
}

func (s *CheckoutService) loadOrder(id uint) (*models.Order, error) {
	var order models.Order
	if err := s.DB.Preload("Address").Preload("Items.Product").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
