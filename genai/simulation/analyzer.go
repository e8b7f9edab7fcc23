package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/conversim/conversim/genai/llm"
	"github.com/conversim/conversim/genai/prompt"
)

// Analyzer scores a finished transcript. It is best effort: callers must
// never fail a conversation because scoring failed.
type Analyzer interface {
	Analyze(ctx context.Context, transcript []TranscriptEntry) (AnalysisResult, error)
}

const analyzerInstruction = `You evaluate a simulated networking conversation between two professionals.
Score how promising this connection is from 0 (no fit at all) to 100 (obvious strong match),
considering shared interests, complementary skills and the energy of the exchange.
Respond with JSON only: {"score": <integer 0-100>, "takeaways": ["<short takeaway>", ...]}.
The first takeaway is used as a headline; keep each takeaway under 15 words.`

// TranscriptAnalyzer implements Analyzer using an llm.Model in JSON mode.
type TranscriptAnalyzer struct {
	model    llm.Model
	options  *llm.Options
	attempts int
	backoff  time.Duration
}

// AnalyzerOption customises a TranscriptAnalyzer.
type AnalyzerOption func(*TranscriptAnalyzer)

// WithAnalyzerAttempts sets the retry budget per scoring call.
func WithAnalyzerAttempts(attempts int) AnalyzerOption {
	return func(a *TranscriptAnalyzer) {
		if attempts > 0 {
			a.attempts = attempts
		}
	}
}

// WithAnalyzerOptions overrides the default scoring sampling configuration.
func WithAnalyzerOptions(options *llm.Options) AnalyzerOption {
	return func(a *TranscriptAnalyzer) {
		if options != nil {
			a.options = options
		}
	}
}

// NewAnalyzer returns a transcript analyzer with a near-deterministic
// sampling profile.
func NewAnalyzer(model llm.Model, opts ...AnalyzerOption) (*TranscriptAnalyzer, error) {
	if model == nil {
		return nil, fmt.Errorf("model is required")
	}
	a := &TranscriptAnalyzer{
		model: model,
		options: &llm.Options{
			Temperature: 0.2,
			MaxTokens:   512,
			JSONMode:    true,
		},
		attempts: 2,
		backoff:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Analyze renders the transcript, asks the model for a score and parses the
// JSON verdict.
func (a *TranscriptAnalyzer) Analyze(ctx context.Context, transcript []TranscriptEntry) (AnalysisResult, error) {
	request := &llm.GenerateRequest{
		Messages: []llm.Message{
			llm.NewSystemMessage(analyzerInstruction),
			llm.NewUserMessage(prompt.RenderTranscript(Turns(transcript))),
		},
		Options: a.options.Clone(),
	}

	var lastErr error
	for attempt := 0; attempt < a.attempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, a.backoff<<(attempt-1)); err != nil {
				return AnalysisResult{}, err
			}
		}
		response, err := a.model.Generate(ctx, request)
		if err != nil {
			lastErr = err
			continue
		}
		result, err := parseAnalysis(firstChoice(response))
		if err != nil {
			lastErr = err
			continue
		}
		return result, nil
	}
	return AnalysisResult{}, fmt.Errorf("transcript analysis failed after %d attempts: %w", a.attempts, lastErr)
}

func parseAnalysis(text string) (AnalysisResult, error) {
	text = stripFences(text)
	if text == "" {
		return AnalysisResult{}, fmt.Errorf("empty analysis response")
	}
	var result AnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return AnalysisResult{}, fmt.Errorf("failed to parse analysis response: %w", err)
	}
	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > 100 {
		result.Score = 100
	}
	return result, nil
}

// stripFences removes a markdown code fence some models wrap around JSON.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
