package simulation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/conversim/conversim/genai/llm"
	"github.com/stretchr/testify/assert"
)

// scriptedModel replays canned outcomes, one per Generate call.
type scriptedModel struct {
	outcomes []modelOutcome
	calls    int
	requests []*llm.GenerateRequest
}

type modelOutcome struct {
	text string
	err  error
}

func (m *scriptedModel) Generate(ctx context.Context, request *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	m.requests = append(m.requests, request)
	outcome := m.outcomes[len(m.outcomes)-1]
	if m.calls < len(m.outcomes) {
		outcome = m.outcomes[m.calls]
	}
	m.calls++
	if outcome.err != nil {
		return nil, outcome.err
	}
	return &llm.GenerateResponse{
		Choices: []llm.Choice{{Message: llm.NewAssistantMessage(outcome.text)}},
	}, nil
}

func TestGenerator_Generate(t *testing.T) {
	t.Parallel()
	agentA, _ := testParticipants()

	var testCases = []struct {
		description string
		outcomes    []modelOutcome
		expect      string
		expectErr   bool
		expectCalls int
	}{
		{
			description: "first attempt succeeds",
			outcomes:    []modelOutcome{{text: "  Hello there!  "}},
			expect:      "Hello there!",
			expectCalls: 1,
		},
		{
			description: "transient failure then success",
			outcomes: []modelOutcome{
				{err: fmt.Errorf("timeout")},
				{text: "Recovered reply"},
			},
			expect:      "Recovered reply",
			expectCalls: 2,
		},
		{
			description: "blank completion degrades to fallback",
			outcomes:    []modelOutcome{{text: "   "}},
			expect:      "Hi! I'm Ada. I build data pipelines",
			expectCalls: 1,
		},
		{
			description: "exhausted retries return an error",
			outcomes:    []modelOutcome{{err: fmt.Errorf("unavailable")}},
			expectErr:   true,
			expectCalls: 3,
		},
	}

	for _, testCase := range testCases {
		model := &scriptedModel{outcomes: testCase.outcomes}
		generator, err := NewGenerator(model, WithGeneratorBackoff(time.Millisecond))
		assert.Nil(t, err, testCase.description)

		actual, err := generator.Generate(context.Background(), agentA, "", nil)
		if testCase.expectErr {
			assert.NotNil(t, err, testCase.description)
			assert.Contains(t, err.Error(), "after 3 attempts", testCase.description)
		} else {
			assert.Nil(t, err, testCase.description)
			assert.EqualValues(t, testCase.expect, actual, testCase.description)
		}
		assert.EqualValues(t, testCase.expectCalls, model.calls, testCase.description)
	}
}

func TestGenerator_PromptShape(t *testing.T) {
	t.Parallel()
	_, agentB := testParticipants()
	model := &scriptedModel{outcomes: []modelOutcome{{text: "Sure!"}}}
	generator, err := NewGenerator(model)
	assert.Nil(t, err)

	history := []TranscriptEntry{
		entry("Ada", "user-a", "hello"),
		entry("Ben", "user-b", "hi"),
	}
	_, err = generator.Generate(context.Background(), agentB, "hi", history)
	assert.Nil(t, err)

	request := model.requests[0]
	assert.EqualValues(t, 2, len(request.Messages))
	assert.EqualValues(t, llm.RoleSystem, request.Messages[0].Role)
	assert.Contains(t, request.Messages[0].Content, "Ben")
	assert.Contains(t, request.Messages[1].Content, "hello")
	assert.EqualValues(t, 0.8, request.Options.Temperature)
	assert.EqualValues(t, 0.9, request.Options.TopP)
	assert.EqualValues(t, 30, request.Options.TopK)
	assert.EqualValues(t, 200, request.Options.MaxTokens)
}

func TestFallback(t *testing.T) {
	t.Parallel()
	agentA, _ := testParticipants()
	assert.EqualValues(t, "Hi! I'm Ada. I build data pipelines", Fallback(agentA))

	anonymous := agentA
	anonymous.Name = ""
	anonymous.Persona.Identity.Name = ""
	anonymous.Persona.Identity.Tagline = ""
	assert.EqualValues(t, "Hi! I'm User. Nice to meet you!", Fallback(anonymous))
}
