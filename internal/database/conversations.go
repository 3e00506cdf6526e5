package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/courseflix/courseflix-api/internal/conversation"
)

// ConversationRepository persists conversation contexts as JSONB documents
type ConversationRepository struct {
	db *DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// SaveContext inserts or replaces the stored context for a conversation
func (r *ConversationRepository) SaveContext(ctx context.Context, conversationID string, c *conversation.Context) error {
	query := `
		INSERT INTO conversations (id, user_id, state, turns, context, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET state = EXCLUDED.state,
			turns = EXCLUDED.turns,
			context = EXCLUDED.context,
			updated_at = EXCLUDED.updated_at
	`

	contextJSON, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation context: %w", err)
	}

	now := time.Now()
	_, err = r.db.ExecContext(ctx, query,
		conversationID,
		c.UserID,
		c.Conversation.State,
		c.Conversation.Turns,
		contextJSON,
		c.Metadata.StartedAt,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}

	return nil
}

// LoadContext retrieves a stored context. Returns (nil, nil) when the
// conversation is unknown.
func (r *ConversationRepository) LoadContext(ctx context.Context, conversationID string) (*conversation.Context, error) {
	query := `SELECT context FROM conversations WHERE id = $1`

	var contextJSON []byte
	err := r.db.QueryRowContext(ctx, query, conversationID).Scan(&contextJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	c := &conversation.Context{}
	if err := json.Unmarshal(contextJSON, c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation context: %w", err)
	}
	return c, nil
}

// ListUserContexts returns a user's most recently updated conversations
func (r *ConversationRepository) ListUserContexts(ctx context.Context, userID string, limit int) ([]*conversation.Context, error) {
	query := `
		SELECT context
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	contexts := []*conversation.Context{}
	for rows.Next() {
		var contextJSON []byte
		if err := rows.Scan(&contextJSON); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		c := &conversation.Context{}
		if err := json.Unmarshal(contextJSON, c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conversation context: %w", err)
		}
		contexts = append(contexts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}
	return contexts, nil
}

// DeleteOlderThan removes conversations not updated since the cutoff
func (r *ConversationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE updated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale conversations: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted conversations: %w", err)
	}
	return deleted, nil
}
