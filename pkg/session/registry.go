package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Session is a server-tracked record tying an issued token to a user
// and an expiry
type Session struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Token     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Registry persists sessions. One user may hold any number of
// concurrent sessions (multi-device login).
type Registry struct {
	db  *sql.DB
	now func() time.Time
}

// NewRegistry creates a session registry over the given database handle
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db, now: time.Now}
}

// Create inserts a session row for a freshly issued token. Expired
// rows are swept opportunistically after each insert; a failed sweep
// is ignored and retried on the next login.
func (r *Registry) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) (*Session, error) {
	now := r.now().UTC()
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO sessions (user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, userID, token, expiresAt.UTC(), now).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	r.CleanupExpired(ctx)

	return &Session{ID: id, UserID: userID, Token: token, ExpiresAt: expiresAt.UTC(), CreatedAt: now}, nil
}

// FindByToken returns the live session for a token, or (nil, nil) when
// no session exists or the stored expiry has passed. Expired-but-
// unpurged rows are treated as absent.
func (r *Registry) FindByToken(ctx context.Context, token string) (*Session, error) {
	var s Session
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, expires_at, created_at
		FROM sessions
		WHERE token = $1 AND expires_at > $2
	`, token, r.now().UTC()).Scan(&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding session: %w", err)
	}
	return &s, nil
}

// DeleteByToken removes the session for a token. Deleting a token with
// no session is not an error.
func (r *Registry) DeleteByToken(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// DeleteAllForUser revokes every session a user holds, across all
// devices. Idempotent.
func (r *Registry) DeleteAllForUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("deleting user sessions: %w", err)
	}
	return nil
}

// CleanupExpired deletes all rows whose expiry has passed and returns
// how many were removed. Safe to run concurrently with reads.
func (r *Registry) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleaning up sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// CountForUser returns the number of live sessions a user holds
func (r *Registry) CountForUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sessions WHERE user_id = $1 AND expires_at > $2
	`, userID, r.now().UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}
