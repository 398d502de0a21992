package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Product represents a catalog item, including the raw image bytes
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Stock     int64     `json:"stock"`
	Category  string    `json:"category"`
	Image     []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductSummary is a Product row without the image payload; HasImage
// tells clients whether fetching the detail view is worthwhile.
type ProductSummary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Stock     int64     `json:"stock"`
	Category  string    `json:"category"`
	HasImage  bool      `json:"has_image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductInput holds the fields required to create a product
type ProductInput struct {
	Name     string
	Price    float64
	Stock    int64
	Category string
	Image    []byte
}

// ProductPatch holds a partial update. Nil fields are left unchanged;
// a non-nil Image pointing at a nil slice clears the stored image.
type ProductPatch struct {
	Name     *string
	Price    *float64
	Stock    *int64
	Category *string
	Image    *[]byte
}

// ListOptions controls sorting and filtering of the product list
type ListOptions struct {
	SortBy string // one of name, price, stock, category, created_at
	Order  string // asc or desc
	Search string // case-insensitive substring match on name
}

// sortableFields is the whitelist of ORDER BY columns; anything else
// falls back to name. Never interpolate user input directly.
var sortableFields = map[string]bool{
	"name":       true,
	"price":      true,
	"stock":      true,
	"category":   true,
	"created_at": true,
}

// ProductStore persists catalog items
type ProductStore struct {
	db *sql.DB
}

// List returns product summaries ordered and filtered per opts
func (s *ProductStore) List(ctx context.Context, opts ListOptions) ([]*ProductSummary, error) {
	field := opts.SortBy
	if !sortableFields[field] {
		field = "name"
	}
	direction := "ASC"
	if strings.EqualFold(opts.Order, "desc") {
		direction = "DESC"
	}

	query := `
		SELECT id, name, price, stock, category,
		       CASE WHEN image IS NOT NULL THEN 1 ELSE 0 END AS has_image,
		       created_at, updated_at
		FROM products`
	var args []interface{}
	if opts.Search != "" {
		query += ` WHERE LOWER(name) LIKE LOWER($1)`
		args = append(args, "%"+opts.Search+"%")
	}
	query += fmt.Sprintf(` ORDER BY %s %s`, field, direction)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []*ProductSummary
	for rows.Next() {
		var (
			p        ProductSummary
			hasImage int
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Category, &hasImage, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		p.HasImage = hasImage == 1
		products = append(products, &p)
	}
	return products, rows.Err()
}

// Get returns a product by id including its image, or ErrNotFound
func (s *ProductStore) Get(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, price, stock, category, image, created_at, updated_at
		FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Category, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

// Create inserts a new product without an image
func (s *ProductStore) Create(ctx context.Context, in ProductInput) (*Product, error) {
	if in.Price < 0 || in.Stock < 0 {
		return nil, fmt.Errorf("price and stock must be non-negative")
	}

	now := time.Now().UTC()
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO products (name, price, stock, category, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, in.Name, in.Price, in.Stock, in.Category, in.Image, now, now).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	return &Product{
		ID:        id,
		Name:      in.Name,
		Price:     in.Price,
		Stock:     in.Stock,
		Category:  in.Category,
		Image:     in.Image,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Update applies a partial update and returns the stored record.
// Returns ErrNotFound if the product does not exist and an error if
// the patch is empty.
func (s *ProductStore) Update(ctx context.Context, id int64, patch ProductPatch) (*Product, error) {
	var (
		sets []string
		args []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return nil, fmt.Errorf("price must be non-negative")
		}
		add("price", *patch.Price)
	}
	if patch.Stock != nil {
		if *patch.Stock < 0 {
			return nil, fmt.Errorf("stock must be non-negative")
		}
		add("stock", *patch.Stock)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.Image != nil {
		add("image", *patch.Image)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("updating product %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}

	return s.Get(ctx, id)
}

// Delete removes a product and any cart items that reference it.
// Returns ErrNotFound when no row was deleted.
func (s *ProductStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE product_id = $1`, id); err != nil {
		return fmt.Errorf("removing cart references for product %d: %w", id, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}
