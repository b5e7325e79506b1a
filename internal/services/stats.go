package services

import (
	"gorm.io/gorm"

	"github.com/vastralaya/storefront/internal/models"
)

// StatsService aggregates the retailer dashboard numbers.
type StatsService struct {
	DB *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService { return &StatsService{DB: db} }

type DashboardStats struct {
	TotalOrders      int64   `json:"total_orders"`
	PendingOrders    int64   `json:"pending_orders"`
	CompletedOrders  int64   `json:"completed_orders"`
	TotalRevenue     float64 `json:"total_revenue"`
	ActiveProducts   int64   `json:"active_products"`
	TotalProducts    int64   `json:"total_products"`
	LowStockProducts int64   `json:"low_stock_products"`
}

const lowStockThreshold = 10

// Dashboard computes counts and revenue in the database rather than
// loading every row. Cancelled orders do not count toward revenue.
func (s *StatsService) Dashboard() (*DashboardStats, error) {
	stats := &DashboardStats{}
	if err := s.DB.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Order{}).Where("order_status = ?", models.OrderStatusPlaced).Count(&stats.PendingOrders).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Order{}).Where("order_status = ?", models.OrderStatusDelivered).Count(&stats.CompletedOrders).Error; err != nil {
		return nil, err
	}
	var revenue *float64
	if err := s.DB.Model(&models.Order{}).
		Where("order_status <> ?", models.OrderStatusCancelled).
		Select("SUM(total_amount)").Scan(&revenue).Error; err != nil {
		return nil, err
	}
	if revenue != nil {
		stats.TotalRevenue = *revenue
	}
	if err := s.DB.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Product{}).Where("is_active = ?", true).Count(&stats.ActiveProducts).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Product{}).
		Where("is_active = ? AND stock_quantity < ?", true, lowStockThreshold).
		Count(&stats.LowStockProducts).Error; err != nil {
		return nil, err
	}
	return stats, nil
}
