package gateway

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/rizzmate/backend/internal/apperr"
	"github.com/zhouzirui/rizzmate/backend/internal/config"
)

// OpenRouterProvider talks to OpenRouter's OpenAI-compatible API.
type OpenRouterProvider struct {
	client      *openai.Client
	model       string
	visionModel string
	temperature float32
	maxTokens   int
}

// NewOpenRouterProvider builds a provider from gateway config. Without an
// API key every call fails with a configuration error.
func NewOpenRouterProvider(cfg config.GatewayConfig) *OpenRouterProvider {
	p := &OpenRouterProvider{
		model:       cfg.OpenRouterModel,
		visionModel: cfg.OpenRouterVisionModel,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
	if cfg.OpenRouterAPIKey == "" {
		return p
	}

	clientCfg := openai.DefaultConfig(cfg.OpenRouterAPIKey)
	clientCfg.BaseURL = cfg.OpenRouterBaseURL
	clientCfg.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &headerTransport{
			base:    http.DefaultTransport,
			referer: cfg.Referer,
			title:   cfg.Title,
		},
	}
	p.client = openai.NewClientWithConfig(clientCfg)
	return p
}

func (p *OpenRouterProvider) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", apperr.Generation(0, "prompt is required", nil)
	}
	if p.client == nil {
		return "", apperr.Generation(0, "OPENROUTER_API_KEY not configured", nil)
	}

	userMsg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt}
	model := p.model
	if req.Image != "" {
		if p.visionModel != "" {
			model = p.visionModel
			userMsg = openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: "data:image/jpeg;base64," + req.Image},
					},
				},
			}
		} else {
			log.Println("[gateway] image provided but no vision model configured, sending text only")
			userMsg.Content = req.Prompt + imageUnsupportedNote
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(req)},
			userMsg,
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		TopP:        1,
	})
	if err != nil {
		status := upstreamStatus(err)
		log.Printf("[gateway] openrouter call failed model=%s status=%d: %v", model, status, err)
		return "", apperr.Generation(status, "OpenRouter API error", err)
	}

	if len(resp.Choices) == 0 {
		return "", apperr.Generation(http.StatusOK, "no response generated", nil)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", apperr.Generation(http.StatusOK, "no response generated", nil)
	}

	log.Printf("[gateway] openrouter reply model=%s length=%d", model, len(text))
	return text, nil
}

func upstreamStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// headerTransport adds the attribution headers OpenRouter expects.
type headerTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.referer != "" {
		clone.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		clone.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(clone)
}
