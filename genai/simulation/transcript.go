package simulation

import (
	"encoding/json"
	"fmt"
)

// MarshalTranscript encodes a transcript snapshot as the JSON document stored
// in the conversation record.
func MarshalTranscript(transcript []TranscriptEntry) (string, error) {
	if transcript == nil {
		transcript = []TranscriptEntry{}
	}
	data, err := json.Marshal(transcript)
	if err != nil {
		return "", fmt.Errorf("failed to marshal transcript: %w", err)
	}
	return string(data), nil
}

// UnmarshalTranscript decodes a stored transcript snapshot.
func UnmarshalTranscript(data string) ([]TranscriptEntry, error) {
	if data == "" {
		return []TranscriptEntry{}, nil
	}
	var transcript []TranscriptEntry
	if err := json.Unmarshal([]byte(data), &transcript); err != nil {
		return nil, fmt.Errorf("failed to parse transcript: %w", err)
	}
	return transcript, nil
}
