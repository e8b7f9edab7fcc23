// Package prompt assembles model-ready prompts from a persona and the
// conversation so far. Builders are pure functions with no state.
package prompt

import (
	"fmt"
	"strings"

	"github.com/conversim/conversim/genai/persona"
)

// EndMarker is the token a participant emits to close a conversation.
const EndMarker = "[END_CONVERSATION]"

// Turn is a minimal rendered transcript line used by prompt builders and the
// analyzer; it deliberately carries no ids or timestamps.
type Turn struct {
	Speaker string
	Text    string
}

// BuildSystem renders the persona-conditioned system instruction.
func BuildSystem(p persona.AgentPersona) string {
	var b strings.Builder

	name := p.DisplayName()
	fmt.Fprintf(&b, "You are %v, attending a professional networking event.\n", name)
	if p.Identity.Role != "" && p.Identity.Company != "" {
		fmt.Fprintf(&b, "You work as %v at %v.\n", p.Identity.Role, p.Identity.Company)
	} else if p.Identity.Role != "" {
		fmt.Fprintf(&b, "You work as %v.\n", p.Identity.Role)
	}
	if p.Identity.Tagline != "" {
		fmt.Fprintf(&b, "Your one-liner: %v\n", p.Identity.Tagline)
	}
	if len(p.Skills) > 0 {
		fmt.Fprintf(&b, "Your skills: %v.\n", strings.Join(p.Skills, ", "))
	}
	if len(p.Interests) > 0 {
		fmt.Fprintf(&b, "Your interests: %v.\n", strings.Join(p.Interests, ", "))
	}
	if goals := extraString(p, "goals"); goals != "" {
		fmt.Fprintf(&b, "What you are looking for: %v\n", goals)
	}
	if voice := extraString(p, "voice"); voice != "" {
		fmt.Fprintf(&b, "Write the way this sample sounds: %v\n", voice)
	}

	b.WriteString("\nRules:\n")
	b.WriteString("- Stay in character; speak in first person.\n")
	b.WriteString("- Keep each reply short and conversational, 1-3 sentences.\n")
	b.WriteString("- Ask questions, look for common ground, be specific about your work.\n")
	fmt.Fprintf(&b, "- When the conversation has reached a natural close, say goodbye and append %v to your reply.\n", EndMarker)
	return b.String()
}

// BuildUser renders the user-turn instruction for the current reply. The last
// message is empty for the opening line of a conversation.
func BuildUser(lastMessage string, history []Turn) string {
	var b strings.Builder
	if len(history) == 0 {
		b.WriteString("You are opening the conversation. Introduce yourself in one or two sentences.")
		return b.String()
	}
	b.WriteString("Conversation so far:\n")
	b.WriteString(RenderTranscript(history))
	if lastMessage != "" {
		fmt.Fprintf(&b, "\nReply to the last message: %v", lastMessage)
	} else {
		b.WriteString("\nContinue the conversation.")
	}
	return b.String()
}

// RenderTranscript renders turns as "Speaker: text" lines.
func RenderTranscript(turns []Turn) string {
	var b strings.Builder
	for _, turn := range turns {
		fmt.Fprintf(&b, "%v: %v\n", turn.Speaker, turn.Text)
	}
	return b.String()
}

func extraString(p persona.AgentPersona, key string) string {
	if len(p.Extras) == 0 {
		return ""
	}
	value, ok := p.Extras[key]
	if !ok {
		return ""
	}
	text, _ := value.(string)
	return strings.TrimSpace(text)
}
