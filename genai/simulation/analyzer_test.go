package simulation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTranscriptAnalyzer_Analyze(t *testing.T) {
	t.Parallel()
	transcript := []TranscriptEntry{
		entry("Ada", "user-a", "hello"),
		entry("Ben", "user-b", "hi"),
	}

	var testCases = []struct {
		description string
		outcomes    []modelOutcome
		expect      AnalysisResult
		expectErr   bool
	}{
		{
			description: "plain JSON verdict",
			outcomes:    []modelOutcome{{text: `{"score": 78, "takeaways": ["Strong data engineering overlap", "Both ship in Go"]}`}},
			expect:      AnalysisResult{Score: 78, Takeaways: []string{"Strong data engineering overlap", "Both ship in Go"}},
		},
		{
			description: "fenced JSON verdict",
			outcomes:    []modelOutcome{{text: "```json\n{\"score\": 61, \"takeaways\": [\"Worth a follow up\"]}\n```"}},
			expect:      AnalysisResult{Score: 61, Takeaways: []string{"Worth a follow up"}},
		},
		{
			description: "score clamped to 100",
			outcomes:    []modelOutcome{{text: `{"score": 140, "takeaways": ["Off the charts"]}`}},
			expect:      AnalysisResult{Score: 100, Takeaways: []string{"Off the charts"}},
		},
		{
			description: "negative score clamped to 0",
			outcomes:    []modelOutcome{{text: `{"score": -4, "takeaways": ["No fit"]}`}},
			expect:      AnalysisResult{Score: 0, Takeaways: []string{"No fit"}},
		},
		{
			description: "invalid JSON then valid retry",
			outcomes: []modelOutcome{
				{text: "I would rate this 80 out of 100"},
				{text: `{"score": 80, "takeaways": ["Recovered"]}`},
			},
			expect: AnalysisResult{Score: 80, Takeaways: []string{"Recovered"}},
		},
		{
			description: "transport failure on every attempt",
			outcomes:    []modelOutcome{{err: fmt.Errorf("unavailable")}},
			expectErr:   true,
		},
	}

	for _, testCase := range testCases {
		model := &scriptedModel{outcomes: testCase.outcomes}
		analyzer, err := NewAnalyzer(model)
		assert.Nil(t, err, testCase.description)
		analyzer.backoff = time.Millisecond

		actual, err := analyzer.Analyze(context.Background(), transcript)
		if testCase.expectErr {
			assert.NotNil(t, err, testCase.description)
			continue
		}
		assert.Nil(t, err, testCase.description)
		assert.EqualValues(t, testCase.expect, actual, testCase.description)
	}
}

func TestTranscriptAnalyzer_RequestShape(t *testing.T) {
	t.Parallel()
	model := &scriptedModel{outcomes: []modelOutcome{{text: `{"score": 50, "takeaways": []}`}}}
	analyzer, err := NewAnalyzer(model)
	assert.Nil(t, err)

	transcript := []TranscriptEntry{entry("Ada", "user-a", "hello"), entry("Ben", "user-b", "hi")}
	_, err = analyzer.Analyze(context.Background(), transcript)
	assert.Nil(t, err)

	request := model.requests[0]
	assert.True(t, request.Options.JSONMode)
	assert.EqualValues(t, 0.2, request.Options.Temperature)
	assert.Contains(t, request.Messages[1].Content, "Ada: hello")
	assert.Contains(t, request.Messages[1].Content, "Ben: hi")
}

func TestStripFences(t *testing.T) {
	t.Parallel()
	assert.EqualValues(t, `{"score": 1}`, stripFences("```json\n{\"score\": 1}\n```"))
	assert.EqualValues(t, `{"score": 1}`, stripFences("```\n{\"score\": 1}\n```"))
	assert.EqualValues(t, `{"score": 1}`, stripFences(`{"score": 1}`))
}
