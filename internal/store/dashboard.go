package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Stats struct {
	TotalProducts   int             `json:"totalProducts"`
	WithoutStock    int             `json:"withoutStock"`
	LowStock        int             `json:"lowStock"`
	TotalCategories int             `json:"totalCategories"`
	InventoryValue  decimal.Decimal `json:"inventoryValue"`
}

type DashboardStore struct {
	db *pgxpool.Pool
}

// GetStats gathers the counters in one round trip. Low stock means fewer
// than ten units on hand but not zero; out of stock means exactly zero.
func (s *DashboardStore) GetStats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM products WHERE stock = 0),
			(SELECT COUNT(*) FROM products WHERE stock > 0 AND stock < 10),
			(SELECT COUNT(*) FROM categories),
			(SELECT COALESCE(SUM(price * stock), 0)::text FROM products)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	stats := &Stats{}
	var valueText string
	err := s.db.QueryRow(ctx, query).Scan(
		&stats.TotalProducts,
		&stats.WithoutStock,
		&stats.LowStock,
		&stats.TotalCategories,
		&valueText,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	value, err := decimal.NewFromString(valueText)
	if err != nil {
		return nil, fmt.Errorf("parse inventory value %q: %w", valueText, err)
	}
	stats.InventoryValue = value

	return stats, nil
}
