package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Order is a completed checkout
type Order struct {
	ID         int64        `json:"id"`
	Reference  string       `json:"reference"`
	UserID     int64        `json:"user_id"`
	Email      string       `json:"email"`
	Total      float64      `json:"total"`
	PaymentRef string       `json:"payment_ref,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	Items      []*OrderItem `json:"items"`
}

// OrderItem is a line of an order with the unit price snapshotted at
// checkout time, so later product price changes do not rewrite history.
type OrderItem struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"order_id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name,omitempty"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// OrderStore persists orders and their items
type OrderStore struct {
	db *sql.DB
}

// CreateFromCart turns the given cart item ids into an order for the
// user: the total is computed from current product prices, unit prices
// are snapshotted into order items, and the consumed cart rows are
// deleted. The whole operation runs in one transaction.
func (s *OrderStore) CreateFromCart(ctx context.Context, userID int64, email string, cartItemIDs []int64, paymentRef string) (*Order, error) {
	if len(cartItemIDs) == 0 {
		return nil, fmt.Errorf("no cart items selected")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting checkout transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := make([]string, 0, len(cartItemIDs))
	args := []interface{}{userID}
	for _, id := range cartItemIDs {
		args = append(args, id)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	rows, err := tx.QueryContext(ctx, fmt.Sprintf(`
		SELECT c.id, c.product_id, c.quantity, p.name, p.price
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1 AND c.id IN (%s)
	`, strings.Join(placeholders, ", ")), args...)
	if err != nil {
		return nil, fmt.Errorf("loading selected cart items: %w", err)
	}

	type line struct {
		cartID    int64
		productID int64
		quantity  int64
		name      string
		price     float64
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.cartID, &l.productID, &l.quantity, &l.name, &l.price); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning cart line: %w", err)
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrNotFound
	}

	var total float64
	for _, l := range lines {
		total += l.price * float64(l.quantity)
	}

	now := time.Now().UTC()
	reference := uuid.NewString()
	var orderID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (reference, user_id, email, total, payment_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, reference, userID, email, total, paymentRef, now).Scan(&orderID)
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}

	order := &Order{
		ID:         orderID,
		Reference:  reference,
		UserID:     userID,
		Email:      email,
		Total:      total,
		PaymentRef: paymentRef,
		CreatedAt:  now,
	}

	for _, l := range lines {
		var itemID int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, orderID, l.productID, l.quantity, l.price).Scan(&itemID)
		if err != nil {
			return nil, fmt.Errorf("creating order item: %w", err)
		}
		order.Items = append(order.Items, &OrderItem{
			ID:          itemID,
			OrderID:     orderID,
			ProductID:   l.productID,
			ProductName: l.name,
			Quantity:    l.quantity,
			UnitPrice:   l.price,
		})
	}

	// Consume only the cart rows that went into the order
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM cart_items WHERE user_id = $1 AND id IN (%s)
	`, strings.Join(placeholders, ", ")), args...); err != nil {
		return nil, fmt.Errorf("clearing purchased cart items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing checkout: %w", err)
	}
	return order, nil
}

// List returns orders newest first. Standard users see their own;
// admins pass all=true to see everyone's.
func (s *OrderStore) List(ctx context.Context, userID int64, all bool) ([]*Order, error) {
	query := `
		SELECT id, reference, user_id, email, total, COALESCE(payment_ref, ''), created_at
		FROM orders`
	var args []interface{}
	if !all {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	byID := make(map[int64]*Order)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Reference, &o.UserID, &o.Email, &o.Total, &o.PaymentRef, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, &o)
		byID[o.ID] = &o
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	placeholders := make([]string, 0, len(orders))
	var args2 []interface{}
	for _, o := range orders {
		args2 = append(args2, o.ID)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args2)))
	}

	itemRows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT i.id, i.order_id, i.product_id, COALESCE(p.name, ''), i.quantity, i.unit_price
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id IN (%s)
		ORDER BY i.id
	`, strings.Join(placeholders, ", ")), args2...)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item OrderItem
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, &item)
		}
	}
	return orders, itemRows.Err()
}

// Count returns the number of orders
func (s *OrderStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return n, nil
}

// Revenue returns the sum of all order totals
func (s *OrderStore) Revenue(ctx context.Context) (float64, error) {
	var total float64
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(total), 0) FROM orders`).Scan(&total); err != nil {
		return 0, fmt.Errorf("summing revenue: %w", err)
	}
	return total, nil
}
