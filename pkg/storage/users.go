package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/platinummonkey/vetrina/pkg/auth"
)

// UserStore persists user records
type UserStore struct {
	db *sql.DB
}

// Create inserts a new user and returns the stored record
func (s *UserStore) Create(ctx context.Context, username, passwordHash, email string, role auth.Role) (*auth.User, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	now := time.Now().UTC()
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, email, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, username, passwordHash, email, string(role), now).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating user %q: %w", username, err)
	}

	return &auth.User{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		Email:        email,
		Role:         role,
		CreatedAt:    now,
	}, nil
}

// FindByUsername returns the user with the given username, or
// ErrNotFound. The password digest is included; callers must not leak it.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, email, role, created_at
		FROM users WHERE username = $1
	`, username))
}

// FindByID returns the user with the given id, or ErrNotFound
func (s *UserStore) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, email, role, created_at
		FROM users WHERE id = $1
	`, id))
}

// FindByEmail returns the user with the given email, or ErrNotFound
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, email, role, created_at
		FROM users WHERE email = $1
	`, email))
}

func (s *UserStore) scanOne(row *sql.Row) (*auth.User, error) {
	var (
		u    auth.User
		role string
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &role, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	u.Role = auth.Role(role)
	return &u, nil
}

// List returns all users without password digests, ordered by id
func (s *UserStore) List(ctx context.Context) ([]*auth.SafeUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, email, role, created_at
		FROM users ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*auth.SafeUser
	for rows.Next() {
		var (
			u    auth.SafeUser
			role string
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		u.Role = auth.Role(role)
		users = append(users, &u)
	}
	return users, rows.Err()
}

// Count returns the number of user rows
func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}
