package simulation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/conversim/conversim/genai/llm"
	"github.com/conversim/conversim/genai/persona"
	"github.com/conversim/conversim/genai/prompt"
)

// ReplyGenerator produces the next utterance for the speaking participant.
type ReplyGenerator interface {
	Generate(ctx context.Context, speaker persona.Participant, lastMessage string, history []TranscriptEntry) (string, error)
}

// Generator implements ReplyGenerator on top of an llm.Model with bounded
// retries and sampling tuned for conversational variety rather than
// determinism. A transport failure after exhausted retries is returned as an
// error; a blank-but-successful completion degrades to Fallback so that a
// degenerate model response can never desynchronize turn-taking.
type Generator struct {
	model    llm.Model
	options  *llm.Options
	attempts int
	backoff  time.Duration
}

// GeneratorOption customises a Generator.
type GeneratorOption func(*Generator)

// WithGeneratorAttempts sets the retry budget per reply.
func WithGeneratorAttempts(attempts int) GeneratorOption {
	return func(g *Generator) {
		if attempts > 0 {
			g.attempts = attempts
		}
	}
}

// WithGeneratorBackoff sets the base delay between retries (doubled each attempt).
func WithGeneratorBackoff(backoff time.Duration) GeneratorOption {
	return func(g *Generator) {
		if backoff > 0 {
			g.backoff = backoff
		}
	}
}

// WithGeneratorOptions overrides the default sampling configuration.
func WithGeneratorOptions(options *llm.Options) GeneratorOption {
	return func(g *Generator) {
		if options != nil {
			g.options = options
		}
	}
}

// NewGenerator returns a reply generator with the default sampling profile.
func NewGenerator(model llm.Model, opts ...GeneratorOption) (*Generator, error) {
	if model == nil {
		return nil, fmt.Errorf("model is required")
	}
	g := &Generator{
		model: model,
		options: &llm.Options{
			Temperature: 0.8,
			TopP:        0.9,
			TopK:        30,
			MaxTokens:   200,
		},
		attempts: 3,
		backoff:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate builds a persona-conditioned prompt from the full transcript so
// far and invokes the model.
func (g *Generator) Generate(ctx context.Context, speaker persona.Participant, lastMessage string, history []TranscriptEntry) (string, error) {
	request := &llm.GenerateRequest{
		Messages: []llm.Message{
			llm.NewSystemMessage(prompt.BuildSystem(speaker.Persona)),
			llm.NewUserMessage(prompt.BuildUser(lastMessage, Turns(history))),
		},
		Options: g.options.Clone(),
	}

	var lastErr error
	for attempt := 0; attempt < g.attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, g.backoff<<(attempt-1)); err != nil {
				return "", err
			}
		}
		response, err := g.model.Generate(ctx, request)
		if err != nil {
			lastErr = err
			continue
		}
		text := firstChoice(response)
		if text == "" {
			// Degenerate success: keep the turn alive with a deterministic line.
			return Fallback(speaker), nil
		}
		return text, nil
	}
	return "", fmt.Errorf("reply generation failed after %d attempts: %w", g.attempts, lastErr)
}

// Fallback is the deterministic persona-derived greeting used when the model
// produced no usable text.
func Fallback(speaker persona.Participant) string {
	name := strings.TrimSpace(speaker.Name)
	if name == "" {
		name = speaker.Persona.DisplayName()
	}
	return fmt.Sprintf("Hi! I'm %v. %v", name, speaker.Persona.Tagline())
}

func firstChoice(response *llm.GenerateResponse) string {
	if response == nil || len(response.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(response.Choices[0].Message.Content)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
