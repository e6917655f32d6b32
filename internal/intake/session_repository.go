package intake

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SessionRepository persists live intake sessions so a conversation
// survives process restarts. One row per user; saving again overwrites.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository instance.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save upserts the user's session snapshot with a fresh expiry.
func (sr *SessionRepository) Save(ctx context.Context, userID string, s Session, ttl time.Duration) error {
	snapshot, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session for user %s: %w", userID, err)
	}

	now := time.Now().UTC()
	_, err = sr.db.ExecContext(ctx, `
		INSERT INTO intake_sessions (user_id, state, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			state = excluded.state,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		userID, string(snapshot), now.Add(ttl), now, now)
	if err != nil {
		return fmt.Errorf("failed to save session for user %s: %w", userID, err)
	}
	return nil
}

// GetActive retrieves the user's non-expired session, or nil when there
// is none.
func (sr *SessionRepository) GetActive(ctx context.Context, userID string, now time.Time) (*Session, error) {
	var state string
	err := sr.db.QueryRowContext(ctx, `
		SELECT state FROM intake_sessions
		WHERE user_id = ? AND expires_at > ?`,
		userID, now.UTC()).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session for user %s: %w", userID, err)
	}

	s, err := Restore(Catalog(), []byte(state))
	if err != nil {
		return nil, fmt.Errorf("failed to restore session for user %s: %w", userID, err)
	}
	return &s, nil
}

// Delete removes the user's session.
func (sr *SessionRepository) Delete(ctx context.Context, userID string) error {
	_, err := sr.db.ExecContext(ctx, `DELETE FROM intake_sessions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete session for user %s: %w", userID, err)
	}
	return nil
}

// CleanupExpired removes all expired sessions (optional maintenance task).
func (sr *SessionRepository) CleanupExpired(ctx context.Context, now time.Time) error {
	_, err := sr.db.ExecContext(ctx, `DELETE FROM intake_sessions WHERE expires_at <= ?`, now.UTC())
	return err
}
