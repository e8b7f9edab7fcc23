package simulation

import (
	"strings"

	"github.com/conversim/conversim/genai/prompt"
)

// Decision is the outcome of the termination check.
type Decision int

const (
	// DecisionContinue keeps the conversation cycling.
	DecisionContinue Decision = iota
	// DecisionExplicitEnd stops because a participant emitted the end marker.
	DecisionExplicitEnd
	// DecisionMaxTurns stops because the turn budget is exhausted.
	DecisionMaxTurns
	// DecisionError stops because a prior phase recorded an error.
	DecisionError
)

func (d Decision) String() string {
	switch d {
	case DecisionContinue:
		return "continue"
	case DecisionExplicitEnd:
		return "explicit_end"
	case DecisionMaxTurns:
		return "max_turns"
	case DecisionError:
		return "error"
	}
	return "unknown"
}

// Decide is the termination policy: a pure predicate over the state.
//
// Precedence is fixed: an explicit end marker represents a conversational
// decision by a participant and wins even when the turn budget is reached;
// the budget is a hard ceiling independent of content; an error is only
// consulted when neither semantic signal fired.
func Decide(s State) Decision {
	if len(s.Transcript) > 0 {
		last := s.Transcript[len(s.Transcript)-1]
		if strings.Contains(last.Text, prompt.EndMarker) {
			return DecisionExplicitEnd
		}
	}
	if s.CompletedTurns >= s.MaxTurns {
		return DecisionMaxTurns
	}
	if s.ErrorMessage != "" {
		return DecisionError
	}
	return DecisionContinue
}
