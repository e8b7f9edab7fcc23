// Package connect runs the auto-connect batch: for one user it enumerates
// eligible partners, skips pairs that already conversed, and drives one
// simulated conversation per remaining partner, strictly one at a time.
package connect

import (
	"context"
	"fmt"
	"time"

	"github.com/conversim/conversim/genai/persona"
	"github.com/conversim/conversim/genai/simulation"
	convdao "github.com/conversim/conversim/internal/dao/conversation"
	profiledao "github.com/conversim/conversim/internal/dao/profile"
	elog "github.com/conversim/conversim/internal/log"
)

// Profiles is the subset of the profile DAO the batch needs.
type Profiles interface {
	Get(ctx context.Context, id string) (*profiledao.Profile, error)
	EligiblePartners(ctx context.Context, excludeID string) ([]*profiledao.Profile, error)
}

// Conversations is the subset of the conversation record DAO the batch needs.
type Conversations interface {
	Create(ctx context.Context, participantA, participantB string) (*convdao.Record, error)
	PartnerIDs(ctx context.Context, userID string) (map[string]bool, error)
}

// Runner drives one conversation to completion.
type Runner interface {
	Run(ctx context.Context, initial simulation.State) (simulation.State, error)
}

// Outcome is the per-partner result of a batch.
type Outcome struct {
	PartnerID      string `json:"partnerId"`
	PartnerName    string `json:"partnerName"`
	ConversationID string `json:"conversationId,omitempty"`
	Success        bool   `json:"success"`
	Score          *int   `json:"score,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Result is the JSON-serializable batch summary.
type Result struct {
	UserID    string    `json:"userId"`
	Total     int       `json:"total"`
	Run       int       `json:"simulationsRun"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Outcomes  []Outcome `json:"results"`
}

const (
	defaultMaxTurns = 15
	defaultDelay    = time.Second
)

// Service orchestrates batches.
type Service struct {
	profiles      Profiles
	conversations Conversations
	runner        Runner
	maxTurns      int
	// delay between conversations, a courtesy pause for external rate limits
	delay time.Duration
}

// Option customises a Service.
type Option func(*Service)

// WithMaxTurns sets the per-conversation turn budget (full exchanges).
func WithMaxTurns(maxTurns int) Option {
	return func(s *Service) {
		if maxTurns > 0 {
			s.maxTurns = maxTurns
		}
	}
}

// WithDelay sets the pause inserted between consecutive conversations.
func WithDelay(delay time.Duration) Option {
	return func(s *Service) {
		if delay >= 0 {
			s.delay = delay
		}
	}
}

func New(profiles Profiles, conversations Conversations, runner Runner, opts ...Option) (*Service, error) {
	if profiles == nil {
		return nil, fmt.Errorf("profile store is required")
	}
	if conversations == nil {
		return nil, fmt.Errorf("conversation store is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	s := &Service{
		profiles:      profiles,
		conversations: conversations,
		runner:        runner,
		maxTurns:      defaultMaxTurns,
		delay:         defaultDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RunBatch connects the user with every eligible partner they have not
// conversed with yet. Conversations run strictly sequentially: this bounds
// model API concurrency, lets an observer watch one conversation end-to-end
// without interleaved noise, and rules out duplicate-pairing races.
//
// Per-partner failures become failed outcomes and do not stop the batch; a
// non-nil error means the durable store itself is unavailable.
func (s *Service) RunBatch(ctx context.Context, userID string) (*Result, error) {
	me, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if me == nil || me.Persona == nil {
		return nil, fmt.Errorf("user %v not found or persona not ready", userID)
	}

	partners, err := s.profiles.EligiblePartners(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing, err := s.conversations.PartnerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	var pending []*profiledao.Profile
	for _, partner := range partners {
		if !existing[partner.ID] {
			pending = append(pending, partner)
		}
	}

	result := &Result{UserID: userID, Total: len(pending)}
	self := me.Participant()

	for i, partner := range pending {
		if i > 0 {
			if err := pause(ctx, s.delay); err != nil {
				return result, err
			}
		}
		outcome, err := s.runOne(ctx, self, partner)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
		if outcome.ConversationID != "" {
			result.Run++
		}
		if err != nil {
			// Store unavailability: no conversation can be durably advanced.
			return result, err
		}
	}

	elog.Publish(elog.Event{EventType: elog.BatchFinished, Payload: elog.BatchPayload{
		UserID:    userID,
		Run:       result.Run,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
	}})
	return result, nil
}

func (s *Service) runOne(ctx context.Context, self persona.Participant, partner *profiledao.Profile) (Outcome, error) {
	outcome := Outcome{PartnerID: partner.ID, PartnerName: partner.Name}

	record, err := s.conversations.Create(ctx, self.ID, partner.ID)
	if err != nil {
		outcome.Error = err.Error()
		return outcome, nil
	}
	outcome.ConversationID = record.ID

	elog.Publish(elog.Event{EventType: elog.ConversationStarted, Payload: elog.ConversationPayload{
		ConversationID: record.ID,
		PartnerName:    partner.Name,
		Status:         string(simulation.StatusRunning),
	}})

	initial := simulation.NewState(record.ID, self, partner.Participant(), s.maxTurns)
	final, err := s.runner.Run(ctx, initial)
	if err != nil {
		outcome.Error = err.Error()
		return outcome, err
	}

	outcome.Success = final.TerminationReason != simulation.TerminationError
	if !outcome.Success {
		outcome.Error = final.ErrorMessage
	}
	if final.Analysis != nil {
		score := final.Analysis.Score
		outcome.Score = &score
	}

	elog.Publish(elog.Event{EventType: elog.ConversationFinished, Payload: elog.ConversationPayload{
		ConversationID: record.ID,
		PartnerName:    partner.Name,
		Status:         string(final.FinalStatus()),
		Score:          outcome.Score,
	}})
	return outcome, nil
}

func pause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
