package llm

// Options carries sampling and output controls for a generate call.
type Options struct {
	// Model is the model to use.
	Model string `json:"model" yaml:"model"`

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Temperature is the temperature for sampling, between 0 and 1.
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// TopK is the number of tokens to consider for top-k sampling.
	TopK int `json:"top_k" yaml:"top_k"`

	// TopP is the cumulative probability for top-p sampling.
	TopP float64 `json:"top_p" yaml:"top_p"`

	// StopWords is a list of sequences to stop on.
	StopWords []string `json:"stop_words,omitempty" yaml:"stop_words,omitempty"`

	// Seed is a seed for deterministic sampling.
	Seed int `json:"seed,omitempty" yaml:"seed,omitempty"`

	// JSONMode requests a JSON-only response from the provider.
	JSONMode bool `json:"json,omitempty" yaml:"json,omitempty"`

	// ResponseMIMEType is the MIME type of the generated candidate text.
	// Supported MIME types: text/plain (default), application/json.
	ResponseMIMEType string `json:"response_mime_type,omitempty" yaml:"response_mime_type,omitempty"`
}

// Clone returns a shallow copy so callers can adjust per-request settings
// without mutating shared defaults.
func (o *Options) Clone() *Options {
	if o == nil {
		return nil
	}
	clone := *o
	if len(o.StopWords) > 0 {
		clone.StopWords = append([]string(nil), o.StopWords...)
	}
	return &clone
}
