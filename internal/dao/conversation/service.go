// Package conversation persists the externally visible conversation records:
// one row per conversation, updated in place so observers can follow a live
// transcript.
package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/conversim/conversim/genai/simulation"
	"github.com/google/uuid"
)

// Record mirrors one conversation row.
type Record struct {
	ID           string
	ParticipantA string
	ParticipantB string
	Transcript   []simulation.TranscriptEntry
	Score        *int
	Takeaways    []string
	Status       simulation.Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Service struct {
	db *sql.DB
}

func New(db *sql.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &Service{db: db}, nil
}

// Create inserts a record in running status with an empty transcript, so the
// conversation is visible to observers before the first model call happens.
func (s *Service) Create(ctx context.Context, participantA, participantB string) (*Record, error) {
	record := &Record{
		ID:           uuid.NewString(),
		ParticipantA: participantA,
		ParticipantB: participantB,
		Transcript:   []simulation.TranscriptEntry{},
		Status:       simulation.StatusRunning,
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO conversation (id, participant_a, participant_b, transcript, status) VALUES (?, ?, ?, '[]', ?)",
		record.ID, participantA, participantB, string(simulation.StatusRunning))
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return record, nil
}

// Get returns a record by id or nil when not found.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, participant_a, participant_b, transcript, score, takeaways, status, created_at, updated_at
		 FROM conversation WHERE id = ?`, id)
	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation %v: %w", id, err)
	}
	return record, nil
}

// PartnerIDs returns ids of everyone the user already has a conversation
// with, in either participant slot.
func (s *Service) PartnerIDs(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT participant_b FROM conversation WHERE participant_a = ?
		 UNION
		 SELECT participant_a FROM conversation WHERE participant_b = ?`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list existing partners: %w", err)
	}
	defer rows.Close()

	partners := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		partners[id] = true
	}
	return partners, rows.Err()
}

// UpdateTranscriptTx rewrites the transcript snapshot within an existing
// transaction; callers pair it with the checkpoint-cursor write.
func (s *Service) UpdateTranscriptTx(ctx context.Context, tx *sql.Tx, id string, transcript []simulation.TranscriptEntry) error {
	data, err := simulation.MarshalTranscript(transcript)
	if err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx,
		"UPDATE conversation SET transcript = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		data, id)
	if err != nil {
		return fmt.Errorf("failed to update transcript: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("conversation %v not found", id)
	}
	return nil
}

// Transcript returns the committed transcript snapshot.
func (s *Service) Transcript(ctx context.Context, id string) ([]simulation.TranscriptEntry, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT transcript FROM conversation WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("conversation %v not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	return simulation.UnmarshalTranscript(data)
}

// Finalize writes the terminal snapshot: full transcript, score, takeaways
// and the completed/failed status. The status flips exactly once.
func (s *Service) Finalize(ctx context.Context, id string, transcript []simulation.TranscriptEntry, analysis simulation.AnalysisResult, status simulation.Status) error {
	transcriptJSON, err := simulation.MarshalTranscript(transcript)
	if err != nil {
		return err
	}
	takeawaysJSON, err := json.Marshal(analysis.Takeaways)
	if err != nil {
		return fmt.Errorf("failed to marshal takeaways: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE conversation
		 SET transcript = ?, score = ?, takeaways = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		transcriptJSON, analysis.Score, string(takeawaysJSON), string(status), id)
	if err != nil {
		return fmt.Errorf("failed to finalize conversation: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("conversation %v not found", id)
	}
	return nil
}

// FailStale flips running conversations with no progress since the cutoff to
// failed. This is the out-of-band stall transition; the state machine itself
// carries no internal timeout.
func (s *Service) FailStale(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE conversation SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE status = ? AND updated_at < ?`,
		string(simulation.StatusFailed), string(simulation.StatusRunning), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to flag stale conversations: %w", err)
	}
	affected, _ := result.RowsAffected()
	return int(affected), nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var record Record
	var transcriptJSON string
	var score sql.NullInt64
	var takeawaysJSON sql.NullString
	var status string
	if err := row.Scan(&record.ID, &record.ParticipantA, &record.ParticipantB,
		&transcriptJSON, &score, &takeawaysJSON, &status, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return nil, err
	}
	record.Status = simulation.Status(status)
	transcript, err := simulation.UnmarshalTranscript(transcriptJSON)
	if err != nil {
		return nil, err
	}
	record.Transcript = transcript
	if score.Valid {
		value := int(score.Int64)
		record.Score = &value
	}
	if takeawaysJSON.Valid && takeawaysJSON.String != "" {
		if err := json.Unmarshal([]byte(takeawaysJSON.String), &record.Takeaways); err != nil {
			return nil, fmt.Errorf("failed to parse takeaways: %w", err)
		}
	}
	return &record, nil
}

