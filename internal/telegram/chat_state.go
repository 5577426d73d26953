package telegram

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Pending actions waiting on a leave confirmation.
const (
	actionOpen     = "open"
	actionClose    = "close"
	actionNew      = "new"
	actionGenerate = "generate"
)

// ChatState is what the bot remembers about a chat across restarts: the
// list it had open and an action waiting for confirmation.
type ChatState struct {
	ChatID        int64
	OpenListID    int64
	PendingAction string
	Context       ChatContext
	ExpiresAt     time.Time
	UpdatedAt     time.Time
}

// ChatContext holds structured data stored in the context_data JSON field
type ChatContext struct {
	ListID int64  `json:"listId,omitempty"`
	Title  string `json:"title,omitempty"`
}

// ChatStateRepository provides access to chat state persistence operations
type ChatStateRepository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewChatStateRepository(db *sql.DB, ttl time.Duration) *ChatStateRepository {
	return &ChatStateRepository{db: db, ttl: ttl, now: time.Now}
}

// Get returns the state of a chat. A missing or expired row yields a fresh
// state rather than an error.
func (r *ChatStateRepository) Get(ctx context.Context, chatID int64) (*ChatState, error) {
	var (
		st          = ChatState{ChatID: chatID}
		contextData string
		expires     int64
		updated     int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT open_list_id, pending_action, context_data, expires_at, updated_at
		FROM chat_states WHERE chat_id = ? AND expires_at > ?`,
		chatID, r.now().Unix(),
	).Scan(&st.OpenListID, &st.PendingAction, &contextData, &expires, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &ChatState{ChatID: chatID}, nil
		}
		return nil, fmt.Errorf("failed to load chat state %d: %w", chatID, err)
	}
	if contextData != "" {
		if err := json.Unmarshal([]byte(contextData), &st.Context); err != nil {
			return nil, fmt.Errorf("failed to decode chat state %d: %w", chatID, err)
		}
	}
	st.ExpiresAt = time.Unix(expires, 0).UTC()
	st.UpdatedAt = time.Unix(updated, 0).UTC()
	return &st, nil
}

// Save upserts the state and pushes its expiry forward.
func (r *ChatStateRepository) Save(ctx context.Context, st *ChatState) error {
	data, err := json.Marshal(st.Context)
	if err != nil {
		return err
	}
	now := r.now()
	st.UpdatedAt = now.UTC()
	st.ExpiresAt = now.Add(r.ttl).UTC()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO chat_states (chat_id, open_list_id, pending_action, context_data, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			open_list_id   = excluded.open_list_id,
			pending_action = excluded.pending_action,
			context_data   = excluded.context_data,
			expires_at     = excluded.expires_at,
			updated_at     = excluded.updated_at`,
		st.ChatID, st.OpenListID, st.PendingAction, string(data), st.ExpiresAt.Unix(), st.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save chat state %d: %w", st.ChatID, err)
	}
	return nil
}

func (r *ChatStateRepository) Delete(ctx context.Context, chatID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM chat_states WHERE chat_id = ?`, chatID); err != nil {
		return fmt.Errorf("failed to delete chat state %d: %w", chatID, err)
	}
	return nil
}

// CleanupExpired removes all expired states.
func (r *ChatStateRepository) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_states WHERE expires_at <= ?`, r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup chat states: %w", err)
	}
	return res.RowsAffected()
}

// setPending records an action to run once the user confirms leaving.
func (st *ChatState) setPending(action string, c ChatContext) {
	st.PendingAction = action
	st.Context = c
}

func (st *ChatState) clearPending() {
	st.PendingAction = ""
	st.Context = ChatContext{}
}
