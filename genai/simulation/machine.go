package simulation

import (
	"context"
	"fmt"
	"time"
)

// Store is the durable transcript record consumed by external viewers. The
// implementation must apply AppendTurn's transcript append and cursor advance
// as a single logical step; if those reorder or partially apply,
// restart-safety is broken.
type Store interface {
	// AppendTurn durably appends one utterance and advances the checkpoint
	// cursor in the same step.
	AppendTurn(ctx context.Context, conversationID string, entry TranscriptEntry, cursor Cursor) error

	// Snapshot returns the committed transcript for a conversation.
	Snapshot(ctx context.Context, conversationID string) ([]TranscriptEntry, error)

	// Finalize writes the full transcript, the analysis and the terminal
	// status in one update. It is called exactly once per conversation run.
	Finalize(ctx context.Context, conversationID string, transcript []TranscriptEntry, analysis AnalysisResult, status Status) error
}

// Checkpoints persists the machine's execution position keyed by conversation
// id. LoadOrInit must be idempotent so concurrent workers can call it at
// process start.
type Checkpoints interface {
	LoadOrInit(ctx context.Context, conversationID string) (Cursor, error)
	Save(ctx context.Context, conversationID string, cursor Cursor) error
}

// TurnListener observes every persisted turn, e.g. to drive a live feed.
type TurnListener func(state State, entry TranscriptEntry)

// Runner executes the conversation state machine. Within one conversation
// execution is single-threaded and strictly sequential: each phase's output
// is the complete input to the next.
type Runner struct {
	generator   ReplyGenerator
	analyzer    Analyzer
	store       Store
	checkpoints Checkpoints
	now         func() time.Time
	onTurn      TurnListener
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithClock overrides the timestamp source, mainly for tests.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithTurnListener registers a callback invoked after each persisted turn.
func WithTurnListener(listener TurnListener) RunnerOption {
	return func(r *Runner) {
		r.onTurn = listener
	}
}

// NewRunner builds a Runner; all four collaborators are required.
func NewRunner(generator ReplyGenerator, analyzer Analyzer, store Store, checkpoints Checkpoints, opts ...RunnerOption) (*Runner, error) {
	if generator == nil {
		return nil, fmt.Errorf("reply generator is required")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if checkpoints == nil {
		return nil, fmt.Errorf("checkpoint store is required")
	}
	r := &Runner{
		generator:   generator,
		analyzer:    analyzer,
		store:       store,
		checkpoints: checkpoints,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run drives the conversation to completion and returns the final state.
//
// Model failures terminate the conversation with reason "error" but do not
// produce a Go error: partial conversations are valid artifacts and still get
// analyzed and finalized. A non-nil error signals store or checkpoint
// unavailability, after which no conversation can be durably advanced.
func (r *Runner) Run(ctx context.Context, initial State) (State, error) {
	if err := validateInitial(initial); err != nil {
		return initial, err
	}

	cursor, err := r.checkpoints.LoadOrInit(ctx, initial.ConversationID)
	if err != nil {
		return initial, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	state := initial
	resumed := false
	if cursor.Entries > 0 {
		snapshot, err := r.store.Snapshot(ctx, initial.ConversationID)
		if err != nil {
			return initial, fmt.Errorf("failed to load transcript snapshot: %w", err)
		}
		state = state.restored(snapshot, cursor)
		resumed = true
	}

	for state.Active {
		// On resume the last committed turn was already persisted; skip
		// straight to the termination check so it is not re-emitted.
		if !resumed {
			state, err = r.turn(ctx, state)
			if err != nil {
				return state, err
			}
			if !state.Active {
				break
			}
		}
		resumed = false

		switch Decide(state) {
		case DecisionContinue:
			// Loop back; the speaker was flipped when the turn was applied.
		case DecisionExplicitEnd:
			state = state.WithTermination(TerminationExplicitEnd)
		case DecisionMaxTurns:
			state = state.WithTermination(TerminationMaxTurns)
		case DecisionError:
			state = state.WithTermination(TerminationError)
		}
	}

	state = r.analyze(ctx, state)

	if err := r.store.Finalize(ctx, state.ConversationID, state.Transcript, *state.Analysis, state.FinalStatus()); err != nil {
		return state, fmt.Errorf("failed to finalize conversation: %w", err)
	}
	return state, nil
}

// turn executes the generate and persist phases for the current speaker.
func (r *Runner) turn(ctx context.Context, state State) (State, error) {
	speaking := state.Speaking()

	text, err := r.generator.Generate(ctx, speaking, state.LastMessage, state.Transcript)
	if err != nil {
		return state.WithFailure(fmt.Sprintf("agent reply failed: %v", err)), nil
	}

	entry := TranscriptEntry{
		Speaker:   speaking.Name,
		ID:        speaking.ID,
		Text:      text,
		Timestamp: r.now(),
	}
	next := state.WithEntry(entry)

	if err := r.store.AppendTurn(ctx, state.ConversationID, entry, next.Cursor()); err != nil {
		return state, fmt.Errorf("failed to persist turn: %w", err)
	}
	if r.onTurn != nil {
		r.onTurn(next, entry)
	}
	return next, nil
}

// analyze produces the AnalysisResult once the machine is inactive. Scoring
// failure never fails the conversation: the run itself succeeded even when
// post-hoc analysis did not.
func (r *Runner) analyze(ctx context.Context, state State) State {
	if state.TerminationReason == TerminationError {
		return state.WithAnalysis(AnalysisResult{Score: 0, Takeaways: []string{"Conversation failed due to error"}})
	}
	if len(state.Transcript) < 2 {
		return state.WithAnalysis(AnalysisResult{Score: 0, Takeaways: []string{"Conversation too short to analyze"}})
	}
	analysis, err := r.analyzer.Analyze(ctx, state.Transcript)
	if err != nil {
		return state.WithAnalysis(AnalysisResult{Score: 50, Takeaways: []string{fmt.Sprintf("Analysis failed: %v", err)}})
	}
	return state.WithAnalysis(analysis)
}

func validateInitial(state State) error {
	if state.ConversationID == "" {
		return fmt.Errorf("conversation id is required")
	}
	if state.AgentA.ID == "" || state.AgentB.ID == "" {
		return fmt.Errorf("two participants are required")
	}
	if state.MaxTurns <= 0 {
		return fmt.Errorf("max turns must be positive")
	}
	return nil
}
