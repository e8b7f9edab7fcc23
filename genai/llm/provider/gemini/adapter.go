package gemini

import (
	"strings"

	"github.com/conversim/conversim/genai/llm"
)

// ToRequest converts an llm.GenerateRequest to a Gemini Request.
//
// System messages are folded into systemInstruction; the remaining
// conversation is mapped to contents with Gemini roles ("user"/"model").
func ToRequest(request *llm.GenerateRequest) *Request {
	req := &Request{}
	req.Contents = make([]Content, 0, len(request.Messages))

	if request.Options != nil {
		req.GenerationConfig = &GenerationConfig{}

		if request.Options.Temperature > 0 {
			req.GenerationConfig.Temperature = request.Options.Temperature
		}
		if request.Options.MaxTokens > 0 {
			req.GenerationConfig.MaxOutputTokens = request.Options.MaxTokens
		}
		if request.Options.TopP > 0 {
			req.GenerationConfig.TopP = request.Options.TopP
		}
		if request.Options.TopK > 0 {
			req.GenerationConfig.TopK = request.Options.TopK
		}
		if len(request.Options.StopWords) > 0 {
			req.GenerationConfig.StopSequences = request.Options.StopWords
		}
		if request.Options.Seed > 0 {
			req.GenerationConfig.Seed = request.Options.Seed
		}
		if request.Options.ResponseMIMEType != "" {
			req.GenerationConfig.ResponseMIMEType = request.Options.ResponseMIMEType
		} else if request.Options.JSONMode {
			req.GenerationConfig.ResponseMIMEType = "application/json"
		}
	}

	var systemParts []Part
	for _, message := range request.Messages {
		switch message.Role {
		case llm.RoleSystem:
			systemParts = append(systemParts, Part{Text: message.Content})
		case llm.RoleAssistant:
			req.Contents = append(req.Contents, Content{Role: "model", Parts: []Part{{Text: message.Content}}})
		default:
			req.Contents = append(req.Contents, Content{Role: "user", Parts: []Part{{Text: message.Content}}})
		}
	}
	if len(systemParts) > 0 {
		req.SystemInstruction = &SystemInstruction{Role: "system", Parts: systemParts}
	}
	return req
}

// ToLLMResponse converts a Gemini Response to an llm.GenerateResponse.
func ToLLMResponse(response *Response) *llm.GenerateResponse {
	resp := &llm.GenerateResponse{Model: response.ModelVersion}
	for i, candidate := range response.Candidates {
		var builder strings.Builder
		for _, part := range candidate.Content.Parts {
			builder.WriteString(part.Text)
		}
		resp.Choices = append(resp.Choices, llm.Choice{
			Index:        i,
			Message:      llm.NewAssistantMessage(builder.String()),
			FinishReason: strings.ToLower(candidate.FinishReason),
		})
	}
	if usage := response.UsageMetadata; usage != nil {
		resp.Usage = &llm.Usage{
			PromptTokens:     usage.PromptTokenCount,
			CompletionTokens: usage.CandidatesTokenCount,
			TotalTokens:      usage.TotalTokenCount,
		}
	}
	return resp
}
