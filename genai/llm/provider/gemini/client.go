package gemini

import (
	"fmt"
	"net/http"
	"os"
	"time"

	basecfg "github.com/conversim/conversim/genai/llm/provider/base"
)

// Client represents a Gemini API client
type Client struct {
	basecfg.Config
	APIKey  string
	Version string
}

// NewClient creates a new Gemini client with the given API key and model name,
// e.g. "gemini-2.0-flash". An empty API key falls back to the GEMINI_API_KEY
// environment variable.
func NewClient(apiKey, model string, options ...ClientOption) *Client {
	client := &Client{
		Config: basecfg.Config{
			HTTPClient: &http.Client{Timeout: 5 * time.Minute},
			Model:      model,
		},
		APIKey: apiKey,
	}

	// Apply options
	for _, option := range options {
		option(client)
	}

	if client.APIKey == "" {
		client.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if client.Model == "" {
		client.Model = defaultModel
	}
	if client.Version == "" {
		client.Version = "v1beta"
		//https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent
	}
	if client.BaseURL == "" {
		client.BaseURL = fmt.Sprintf(geminiEndpoint, client.Version)
	}
	return client
}
