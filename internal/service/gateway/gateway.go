package gateway

import "context"

// DefaultSystemPrompt is used when a request carries no context.
const DefaultSystemPrompt = "You are a helpful dating and relationship assistant for RizzMate. You understand and can respond in English, Hindi, and Hinglish (Hindi-English mix). Provide friendly, supportive, and engaging advice in the same language as the user's input."

const imageUnsupportedNote = " (Note: Image was provided but cannot be processed with current model)"

// Request is the gateway wire contract.
type Request struct {
	Prompt  string `json:"prompt"`
	Context string `json:"context,omitempty"`
	// Image is base64 without a data URL prefix.
	Image string `json:"image,omitempty"`
}

// Response is the gateway reply body.
type Response struct {
	Response string `json:"response,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// Gateway completes a single prompt. Failures are *apperr.GenerationError.
type Gateway interface {
	Complete(ctx context.Context, req Request) (string, error)
}

func systemPrompt(req Request) string {
	if req.Context != "" {
		return req.Context
	}
	return DefaultSystemPrompt
}
