// Package checkpoint persists the state machine's execution position keyed by
// conversation id, enabling resume after interruption without replaying
// committed turns.
package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/conversim/conversim/genai/simulation"
)

type Service struct {
	db *sql.DB
}

func New(db *sql.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &Service{db: db}, nil
}

// LoadOrInit returns the saved cursor for a conversation, initializing the
// row with a start-of-conversation cursor when missing. Initialization is
// idempotent, so concurrent workers can call it at process start.
func (s *Service) LoadOrInit(ctx context.Context, conversationID string) (simulation.Cursor, error) {
	initial := simulation.Cursor{NextSpeaker: simulation.SpeakerA}
	data, err := json.Marshal(initial)
	if err != nil {
		return simulation.Cursor{}, fmt.Errorf("failed to marshal cursor: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO checkpoint (conversation_id, cursor) VALUES (?, ?)",
		conversationID, string(data)); err != nil {
		return simulation.Cursor{}, fmt.Errorf("failed to init checkpoint: %w", err)
	}

	var stored string
	err = s.db.QueryRowContext(ctx,
		"SELECT cursor FROM checkpoint WHERE conversation_id = ?", conversationID).Scan(&stored)
	if err != nil {
		return simulation.Cursor{}, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	var cursor simulation.Cursor
	if err := json.Unmarshal([]byte(stored), &cursor); err != nil {
		return simulation.Cursor{}, fmt.Errorf("failed to parse checkpoint cursor: %w", err)
	}
	if cursor.NextSpeaker == "" {
		cursor.NextSpeaker = simulation.SpeakerA
	}
	return cursor, nil
}

// Save upserts the cursor for a conversation.
func (s *Service) Save(ctx context.Context, conversationID string, cursor simulation.Cursor) error {
	return save(ctx, s.db, conversationID, cursor)
}

// SaveTx upserts the cursor within an existing transaction so callers can
// commit it together with the transcript append.
func (s *Service) SaveTx(ctx context.Context, tx *sql.Tx, conversationID string, cursor simulation.Cursor) error {
	return save(ctx, tx, conversationID, cursor)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func save(ctx context.Context, db execer, conversationID string, cursor simulation.Cursor) error {
	data, err := json.Marshal(cursor)
	if err != nil {
		return fmt.Errorf("failed to marshal cursor: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO checkpoint (conversation_id, cursor, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(conversation_id) DO UPDATE SET cursor = excluded.cursor, updated_at = CURRENT_TIMESTAMP`,
		conversationID, string(data))
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}
