// Package persona defines the conversational identity an agent assumes in a
// simulated conversation, plus the participant wrapper used by the
// conversation state machine.
package persona

import "strings"

// Identity carries the headline facts about a persona.
type Identity struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Role    string `json:"role,omitempty" yaml:"role,omitempty"`
	Tagline string `json:"tagline,omitempty" yaml:"tagline,omitempty"`
	Company string `json:"company,omitempty" yaml:"company,omitempty"`
}

// AgentPersona is an opaque structured profile owned by the originating user.
// It is immutable once a conversation starts; the orchestration core only
// reads it.
type AgentPersona struct {
	Identity  Identity `json:"identity" yaml:"identity"`
	Skills    []string `json:"skills,omitempty" yaml:"skills,omitempty"`
	Interests []string `json:"interests,omitempty" yaml:"interests,omitempty"`

	// Extras holds persona-specific signals that have no fixed schema,
	// e.g. a voice sample or networking goals.
	Extras map[string]interface{} `json:"extras,omitempty" yaml:"extras,omitempty"`
}

// IsEmpty reports whether the persona carries no identity facts, skills,
// interests or extras.
func (p *AgentPersona) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.Identity == (Identity{}) && len(p.Skills) == 0 && len(p.Interests) == 0 && len(p.Extras) == 0
}

// DisplayName returns the persona name or a generic placeholder.
func (p *AgentPersona) DisplayName() string {
	if p == nil {
		return "User"
	}
	if name := strings.TrimSpace(p.Identity.Name); name != "" {
		return name
	}
	return "User"
}

// Tagline returns the persona tagline or a generic greeting suffix.
func (p *AgentPersona) Tagline() string {
	if p == nil {
		return "Nice to meet you!"
	}
	if tagline := strings.TrimSpace(p.Identity.Tagline); tagline != "" {
		return tagline
	}
	return "Nice to meet you!"
}

// Participant wraps a persona with a stable id and display name. Exactly two
// participants exist per conversation; neither is mutated after the
// conversation is created.
type Participant struct {
	ID      string       `json:"id" yaml:"id"`
	Name    string       `json:"name" yaml:"name"`
	Persona AgentPersona `json:"persona" yaml:"persona"`
}
