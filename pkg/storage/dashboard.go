package storage

import (
	"context"
	"fmt"
)

// LowStockThreshold is the stock level under which a product counts as
// low stock on the dashboard
const LowStockThreshold = 10

// DashboardStats aggregates the numbers shown on the admin dashboard
type DashboardStats struct {
	ProductCount  int64   `json:"product_count"`
	TotalStock    int64   `json:"total_stock"`
	LowStockCount int64   `json:"low_stock_count"`
	UserCount     int64   `json:"user_count"`
	OrderCount    int64   `json:"order_count"`
	Revenue       float64 `json:"revenue"`
}

// DashboardStats computes the dashboard aggregates in one pass per table
func (s *Store) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(stock), 0),
		       COALESCE(SUM(CASE WHEN stock < $1 THEN 1 ELSE 0 END), 0)
		FROM products
	`, LowStockThreshold).Scan(&stats.ProductCount, &stats.TotalStock, &stats.LowStockCount)
	if err != nil {
		return nil, fmt.Errorf("aggregating products: %w", err)
	}

	if stats.UserCount, err = s.users.Count(ctx); err != nil {
		return nil, err
	}
	if stats.OrderCount, err = s.orders.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Revenue, err = s.orders.Revenue(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}
