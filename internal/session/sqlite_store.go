package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore keeps one session row per owner key (a CLI profile or a chat).
type SQLiteStore struct {
	db    *sql.DB
	owner string
}

// NewSQLiteStore creates a store bound to owner. The auth_sessions table is
// created by the database migrations.
func NewSQLiteStore(db *sql.DB, owner string) *SQLiteStore {
	return &SQLiteStore{db: db, owner: owner}
}

func (s *SQLiteStore) Owner() string {
	return s.owner
}

func (s *SQLiteStore) Load(ctx context.Context) (*Session, error) {
	var (
		sess    Session
		expires int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT access_token, expires_at, user_id, user_name FROM auth_sessions WHERE owner = ?`,
		s.owner,
	).Scan(&sess.AccessToken, &expires, &sess.UserID, &sess.UserName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	sess.ExpiresAt = time.Unix(expires, 0).UTC()
	return &sess, nil
}

func (s *SQLiteStore) Save(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO auth_sessions (owner, access_token, expires_at, user_id, user_name, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner) DO UPDATE SET
			access_token = excluded.access_token,
			expires_at   = excluded.expires_at,
			user_id      = excluded.user_id,
			user_name    = excluded.user_name,
			updated_at   = excluded.updated_at`,
		s.owner, sess.AccessToken, sess.ExpiresAt.Unix(), sess.UserID, sess.UserName, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE owner = ?`, s.owner); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// CleanupExpired removes expired sessions of every owner.
func CleanupExpired(ctx context.Context, db *sql.DB, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM auth_sessions WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return res.RowsAffected()
}
