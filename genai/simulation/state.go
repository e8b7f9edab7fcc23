package simulation

import (
	"time"

	"github.com/conversim/conversim/genai/persona"
	"github.com/conversim/conversim/genai/prompt"
)

// Speaker labels one of the two conversation participants.
type Speaker string

const (
	SpeakerA Speaker = "A"
	SpeakerB Speaker = "B"
)

// Other returns the opposite speaker label.
func (s Speaker) Other() Speaker {
	if s == SpeakerA {
		return SpeakerB
	}
	return SpeakerA
}

// TranscriptEntry is a single utterance in a conversation transcript.
// Entries are append-only; their order is the order of production.
type TranscriptEntry struct {
	Speaker   string    `json:"speaker"`
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// AnalysisResult is the post-conversation score with ordered takeaways; the
// first takeaway is conventionally used as a headline by consumers.
type AnalysisResult struct {
	Score     int      `json:"score"`
	Takeaways []string `json:"takeaways"`
}

// TerminationReason explains why a conversation stopped.
type TerminationReason string

const (
	TerminationNone        TerminationReason = ""
	TerminationExplicitEnd TerminationReason = "explicit_end"
	TerminationMaxTurns    TerminationReason = "max_turns"
	TerminationError       TerminationReason = "error"
)

// Status is the externally visible lifecycle state of a conversation record.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Cursor is the serialized execution position of the state machine, saved
// together with every persisted turn so that a restart replays no committed
// side effect.
type Cursor struct {
	Entries        int     `json:"entries"`
	NextSpeaker    Speaker `json:"nextSpeaker"`
	CompletedTurns int     `json:"completedTurns"`
}

// State is the working state of the conversation state machine. Transitions
// are pure: With* methods return a new value and never mutate the receiver;
// the transcript is copied on append.
//
// Invariant: Active == false iff TerminationReason is set. CompletedTurns
// increments only when the cycle returns to the starting speaker, so one
// "turn" means both participants have spoken once.
type State struct {
	ConversationID string

	AgentA persona.Participant
	AgentB persona.Participant

	Transcript  []TranscriptEntry
	LastMessage string
	NextSpeaker Speaker

	CompletedTurns int
	MaxTurns       int

	Active            bool
	TerminationReason TerminationReason
	ErrorMessage      string

	Analysis *AnalysisResult
}

// NewState builds the initial state for a conversation: participant A opens,
// the machine is active, nothing has been said.
func NewState(conversationID string, agentA, agentB persona.Participant, maxTurns int) State {
	return State{
		ConversationID: conversationID,
		AgentA:         agentA,
		AgentB:         agentB,
		NextSpeaker:    SpeakerA,
		MaxTurns:       maxTurns,
		Active:         true,
	}
}

// Speaking returns the participant whose turn it is.
func (s State) Speaking() persona.Participant {
	if s.NextSpeaker == SpeakerA {
		return s.AgentA
	}
	return s.AgentB
}

// WithEntry appends the utterance and flips the speaker. The completed-turn
// counter increments only after the second speaker of the pair (B) replied,
// which is what makes a "turn" one full exchange rather than one utterance.
func (s State) WithEntry(entry TranscriptEntry) State {
	transcript := make([]TranscriptEntry, len(s.Transcript), len(s.Transcript)+1)
	copy(transcript, s.Transcript)
	next := s
	next.Transcript = append(transcript, entry)
	next.LastMessage = entry.Text
	if s.NextSpeaker == SpeakerB {
		next.CompletedTurns = s.CompletedTurns + 1
	}
	next.NextSpeaker = s.NextSpeaker.Other()
	return next
}

// WithFailure records a terminal error. Failure is a state transition, not an
// exception: a partial conversation is still a valid, inspectable artifact.
func (s State) WithFailure(message string) State {
	next := s
	next.Active = false
	next.TerminationReason = TerminationError
	next.ErrorMessage = message
	return next
}

// WithTermination marks the conversation inactive for the given reason.
func (s State) WithTermination(reason TerminationReason) State {
	next := s
	next.Active = false
	next.TerminationReason = reason
	return next
}

// WithAnalysis attaches the final analysis result.
func (s State) WithAnalysis(analysis AnalysisResult) State {
	next := s
	next.Analysis = &analysis
	return next
}

// Cursor returns the execution position corresponding to this state.
func (s State) Cursor() Cursor {
	return Cursor{
		Entries:        len(s.Transcript),
		NextSpeaker:    s.NextSpeaker,
		CompletedTurns: s.CompletedTurns,
	}
}

// FinalStatus maps the termination reason to the persisted record status.
func (s State) FinalStatus() Status {
	if s.TerminationReason == TerminationError {
		return StatusFailed
	}
	return StatusCompleted
}

// restored rebuilds the state from a durable transcript snapshot and a saved
// cursor, positioning the machine exactly after the last committed turn.
func (s State) restored(snapshot []TranscriptEntry, cursor Cursor) State {
	next := s
	if cursor.Entries < len(snapshot) {
		snapshot = snapshot[:cursor.Entries]
	}
	next.Transcript = snapshot
	if len(snapshot) > 0 {
		next.LastMessage = snapshot[len(snapshot)-1].Text
	}
	next.NextSpeaker = cursor.NextSpeaker
	next.CompletedTurns = cursor.CompletedTurns
	return next
}

// Turns projects the transcript onto the minimal speaker/text form used by
// prompt builders and the analyzer.
func Turns(entries []TranscriptEntry) []prompt.Turn {
	turns := make([]prompt.Turn, 0, len(entries))
	for _, entry := range entries {
		turns = append(turns, prompt.Turn{Speaker: entry.Speaker, Text: entry.Text})
	}
	return turns
}
