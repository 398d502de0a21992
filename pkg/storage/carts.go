package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// CartItem is a row in a user's cart
type CartItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// CartLine is a cart item joined with its product for display
type CartLine struct {
	CartItem
	ProductName string  `json:"product_name"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
	StockOnHand int64   `json:"stock_on_hand"`
	Category    string  `json:"category"`
}

// CartStore persists per-user cart items
type CartStore struct {
	db *sql.DB
}

// Add puts a product in the user's cart. Adding a product that is
// already present increments its quantity instead of creating a
// second row.
func (s *CartStore) Add(ctx context.Context, userID, productID, quantity int64) (*CartItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}

	existing, err := s.findByProduct(ctx, userID, productID)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if existing != nil {
		return s.setQuantity(ctx, userID, existing.ID, existing.Quantity+quantity)
	}

	now := time.Now().UTC()
	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, userID, productID, quantity, now).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("adding cart item: %w", err)
	}

	return &CartItem{ID: id, UserID: userID, ProductID: productID, Quantity: quantity, CreatedAt: now}, nil
}

func (s *CartStore) findByProduct(ctx context.Context, userID, productID int64) (*CartItem, error) {
	var item CartItem
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, product_id, quantity, created_at
		FROM cart_items WHERE user_id = $1 AND product_id = $2
	`, userID, productID).Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding cart item: %w", err)
	}
	return &item, nil
}

// List returns the user's cart joined with product details
func (s *CartStore) List(ctx context.Context, userID int64) ([]*CartLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.product_id, c.quantity, c.created_at,
		       p.name, p.price, p.stock, p.category
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at, c.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart: %w", err)
	}
	defer rows.Close()

	var lines []*CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity, &l.CreatedAt,
			&l.ProductName, &l.UnitPrice, &l.StockOnHand, &l.Category); err != nil {
			return nil, fmt.Errorf("scanning cart row: %w", err)
		}
		l.LineTotal = l.UnitPrice * float64(l.Quantity)
		lines = append(lines, &l)
	}
	return lines, rows.Err()
}

// UpdateQuantity sets the quantity of a cart item the user owns.
// Ownership is enforced in the query; touching another user's row
// reports ErrNotFound.
func (s *CartStore) UpdateQuantity(ctx context.Context, userID, itemID, quantity int64) (*CartItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1")
	}
	return s.setQuantity(ctx, userID, itemID, quantity)
}

func (s *CartStore) setQuantity(ctx context.Context, userID, itemID, quantity int64) (*CartItem, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $1 WHERE id = $2 AND user_id = $3
	`, quantity, itemID, userID)
	if err != nil {
		return nil, fmt.Errorf("updating cart quantity: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}

	var item CartItem
	err = s.db.QueryRowContext(ctx, `
		SELECT id, user_id, product_id, quantity, created_at
		FROM cart_items WHERE id = $1
	`, itemID).Scan(&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reloading cart item: %w", err)
	}
	return &item, nil
}

// Remove deletes a cart item the user owns, reporting ErrNotFound for
// missing rows and rows owned by someone else alike.
func (s *CartStore) Remove(ctx context.Context, userID, itemID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE id = $1 AND user_id = $2
	`, itemID, userID)
	if err != nil {
		return fmt.Errorf("removing cart item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
