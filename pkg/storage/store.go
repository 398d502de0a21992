package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrationsFS embed.FS

// Driver identifies the database backend
type Driver string

const (
	// DriverSQLite is the embedded backend
	DriverSQLite Driver = "sqlite3"
	// DriverPostgres is the managed backend
	DriverPostgres Driver = "postgres"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Config holds database connection settings
type Config struct {
	Driver       Driver
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// DefaultConfig returns an embedded SQLite configuration
func DefaultConfig() Config {
	return Config{
		Driver:       DriverSQLite,
		DSN:          "file:data/vetrina.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	}
}

// Store wraps the database handle and exposes the typed sub-stores
type Store struct {
	db     *sql.DB
	driver Driver

	users    *UserStore
	products *ProductStore
	carts    *CartStore
	orders   *OrderStore
}

// Open connects to the configured database, verifies connectivity and
// applies pending migrations.
func Open(cfg Config) (*Store, error) {
	dsn := cfg.DSN
	if cfg.Driver == DriverSQLite && !strings.Contains(dsn, "_foreign_keys") {
		// Cascade deletes on sessions and cart items depend on this
		if strings.Contains(dsn, "?") {
			dsn += "&_foreign_keys=on"
		} else {
			dsn += "?_foreign_keys=on"
		}
	}

	db, err := sql.Open(string(cfg.Driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := migrate(db, cfg.Driver); err != nil {
		db.Close()
		return nil, err
	}

	return newStore(db, cfg.Driver), nil
}

func newStore(db *sql.DB, driver Driver) *Store {
	s := &Store{db: db, driver: driver}
	s.users = &UserStore{db: db}
	s.products = &ProductStore{db: db}
	s.carts = &CartStore{db: db}
	s.orders = &OrderStore{db: db}
	return s
}

func migrate(db *sql.DB, driver Driver) error {
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	dir := "migrations/sqlite"
	dialect := "sqlite3"
	if driver == DriverPostgres {
		dir = "migrations/postgres"
		dialect = "postgres"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("setting migration dialect: %w", err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// DB exposes the raw handle for components that run their own queries
// (session registry, health checks).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the active backend
func (s *Store) Driver() Driver {
	return s.driver
}

// Users returns the user store
func (s *Store) Users() *UserStore { return s.users }

// Products returns the product store
func (s *Store) Products() *ProductStore { return s.products }

// Carts returns the cart store
func (s *Store) Carts() *CartStore { return s.carts }

// Orders returns the order store
func (s *Store) Orders() *OrderStore { return s.orders }

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	return s.db.Close()
}
