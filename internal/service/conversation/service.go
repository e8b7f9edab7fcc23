// Package conversation implements the durable store consumed by the
// conversation state machine: transcript snapshots and checkpoint cursors
// committed as one logical step.
package conversation

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/conversim/conversim/genai/simulation"
	checkpointdao "github.com/conversim/conversim/internal/dao/checkpoint"
	convdao "github.com/conversim/conversim/internal/dao/conversation"
)

// Service satisfies simulation.Store and simulation.Checkpoints over a shared
// database handle.
type Service struct {
	db          *sql.DB
	records     *convdao.Service
	checkpoints *checkpointdao.Service
}

func New(db *sql.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	records, err := convdao.New(db)
	if err != nil {
		return nil, err
	}
	checkpoints, err := checkpointdao.New(db)
	if err != nil {
		return nil, err
	}
	return &Service{db: db, records: records, checkpoints: checkpoints}, nil
}

// Records exposes the underlying conversation record DAO.
func (s *Service) Records() *convdao.Service {
	return s.records
}

// AppendTurn appends one utterance to the transcript snapshot and advances
// the checkpoint cursor in a single transaction. If the process dies, either
// both writes are visible or neither is, which is what makes resume replay
// no committed side effect.
func (s *Service) AppendTurn(ctx context.Context, conversationID string, entry simulation.TranscriptEntry, cursor simulation.Cursor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var data string
	if err := tx.QueryRowContext(ctx,
		"SELECT transcript FROM conversation WHERE id = ?", conversationID).Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("conversation %v not found", conversationID)
		}
		return fmt.Errorf("failed to read transcript: %w", err)
	}
	transcript, err := simulation.UnmarshalTranscript(data)
	if err != nil {
		return err
	}
	transcript = append(transcript, entry)

	if err := s.records.UpdateTranscriptTx(ctx, tx, conversationID, transcript); err != nil {
		return err
	}
	if err := s.checkpoints.SaveTx(ctx, tx, conversationID, cursor); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit turn: %w", err)
	}
	return nil
}

// Snapshot returns the committed transcript.
func (s *Service) Snapshot(ctx context.Context, conversationID string) ([]simulation.TranscriptEntry, error) {
	return s.records.Transcript(ctx, conversationID)
}

// Finalize writes the terminal record snapshot.
func (s *Service) Finalize(ctx context.Context, conversationID string, transcript []simulation.TranscriptEntry, analysis simulation.AnalysisResult, status simulation.Status) error {
	return s.records.Finalize(ctx, conversationID, transcript, analysis, status)
}

// LoadOrInit returns the saved execution cursor, initializing when missing.
func (s *Service) LoadOrInit(ctx context.Context, conversationID string) (simulation.Cursor, error) {
	return s.checkpoints.LoadOrInit(ctx, conversationID)
}

// Save persists the execution cursor.
func (s *Service) Save(ctx context.Context, conversationID string, cursor simulation.Cursor) error {
	return s.checkpoints.Save(ctx, conversationID, cursor)
}
