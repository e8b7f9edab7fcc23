// Package profile persists user profiles and their agent personas.
package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/conversim/conversim/genai/persona"
	"github.com/google/uuid"
)

// IngestionComplete marks a profile whose persona extraction finished; only
// complete profiles are eligible conversation partners.
const IngestionComplete = "complete"

// Profile is a user profile row with its structured persona.
type Profile struct {
	ID              string
	Name            string
	Tagline         string
	Persona         *persona.AgentPersona
	IngestionStatus string
	CreatedAt       time.Time
}

// Participant projects the profile onto a conversation participant.
func (p *Profile) Participant() persona.Participant {
	name := p.Name
	if name == "" {
		name = "User"
	}
	participant := persona.Participant{ID: p.ID, Name: name}
	if p.Persona != nil {
		participant.Persona = *p.Persona
	}
	return participant
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

// Add inserts a profile; a missing id is generated. An empty persona is
// stored as NULL so the profile never surfaces as a conversation partner.
func (s *Service) Add(ctx context.Context, profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("profile is required")
	}
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.IngestionStatus == "" {
		profile.IngestionStatus = IngestionComplete
	}
	var personaJSON interface{}
	if !profile.Persona.IsEmpty() {
		data, err := json.Marshal(profile.Persona)
		if err != nil {
			return fmt.Errorf("failed to marshal persona: %w", err)
		}
		personaJSON = string(data)
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO profile (id, name, tagline, persona, ingestion_status) VALUES (?, ?, ?, ?, ?)",
		profile.ID, profile.Name, profile.Tagline, personaJSON, profile.IngestionStatus)
	if err != nil {
		return fmt.Errorf("failed to add profile: %w", err)
	}
	return nil
}

// Get returns a profile by id or nil when not found.
func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, COALESCE(tagline, ''), persona, ingestion_status, created_at FROM profile WHERE id = ?", id)
	profile, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %v: %w", id, err)
	}
	return profile, nil
}

// EligiblePartners returns all profiles other than excludeID that carry a
// non-empty persona and completed ingestion.
func (s *Service) EligiblePartners(ctx context.Context, excludeID string) ([]*Profile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(tagline, ''), persona, ingestion_status, created_at
		 FROM profile
		 WHERE id != ? AND persona IS NOT NULL AND ingestion_status = ?
		 ORDER BY created_at`, excludeID, IngestionComplete)
	if err != nil {
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}
	defer rows.Close()

	var result []*Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		result = append(result, profile)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row scanner) (*Profile, error) {
	var profile Profile
	var personaJSON sql.NullString
	if err := row.Scan(&profile.ID, &profile.Name, &profile.Tagline, &personaJSON, &profile.IngestionStatus, &profile.CreatedAt); err != nil {
		return nil, err
	}
	if personaJSON.Valid && personaJSON.String != "" {
		var p persona.AgentPersona
		if err := json.Unmarshal([]byte(personaJSON.String), &p); err != nil {
			return nil, fmt.Errorf("failed to parse persona: %w", err)
		}
		profile.Persona = &p
	}
	return &profile, nil
}
