package storage

import (
	"context"
	"fmt"

	"github.com/platinummonkey/vetrina/pkg/auth"
)

type seedProduct struct {
	name     string
	price    float64
	stock    int64
	category string
}

var seedProducts = []seedProduct{
	{"Laptop Dell XPS 15", 1299.99, 15, "Electronics"},
	{"Mouse Logitech MX Master 3", 89.99, 45, "Accessories"},
	{"Tastiera Meccanica Keychron K2", 159.99, 23, "Accessories"},
	{"Monitor LG UltraWide 34\"", 599.99, 8, "Electronics"},
	{"Webcam Logitech C920", 79.99, 32, "Accessories"},
	{"Cuffie Sony WH-1000XM5", 349.99, 12, "Audio"},
	{"SSD Samsung 1TB", 129.99, 67, "Storage"},
	{"Hub USB-C Anker", 49.99, 89, "Accessories"},
}

// Seed provisions the default accounts and sample catalog, but only
// into empty tables; a populated database is never modified.
func (s *Store) Seed(ctx context.Context) error {
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return err
	}
	if userCount == 0 {
		adminHash, err := auth.HashPassword("admin123")
		if err != nil {
			return fmt.Errorf("hashing seed admin password: %w", err)
		}
		userHash, err := auth.HashPassword("user123")
		if err != nil {
			return fmt.Errorf("hashing seed user password: %w", err)
		}
		if _, err := s.users.Create(ctx, "admin", adminHash, "admin@demo.it", auth.RoleAdmin); err != nil {
			return err
		}
		if _, err := s.users.Create(ctx, "user", userHash, "user@demo.it", auth.RoleUser); err != nil {
			return err
		}
	}

	var productCount int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&productCount); err != nil {
		return fmt.Errorf("counting products: %w", err)
	}
	if productCount == 0 {
		for _, p := range seedProducts {
			if _, err := s.products.Create(ctx, ProductInput{
				Name:     p.name,
				Price:    p.price,
				Stock:    p.stock,
				Category: p.category,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}
