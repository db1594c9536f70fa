package gateway

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/rizzmate/backend/internal/apperr"
)

// ArkProvider serves the gateway contract with a Volcengine Ark model.
type ArkProvider struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewArkProvider compiles a template → model chain around chatModel,
// usually from config.AIConfig.NewChatModel.
func NewArkProvider(ctx context.Context, chatModel model.BaseChatModel) (*ArkProvider, error) {
	if chatModel == nil {
		return &ArkProvider{}, nil
	}

	// 对话内容可能包含花括号，这里只用占位符，不做 FString 格式化
	template := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system", false),
		schema.MessagesPlaceholder("query", false),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile ark chain: %w", err)
	}
	return &ArkProvider{chain: runnable}, nil
}

func (p *ArkProvider) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", apperr.Generation(0, "prompt is required", nil)
	}
	if p.chain == nil {
		return "", apperr.Generation(0, "ark chat model not configured", nil)
	}

	resp, err := p.chain.Invoke(ctx, map[string]any{
		"system": []*schema.Message{schema.SystemMessage(systemPrompt(req))},
		"query":  []*schema.Message{userMessage(req)},
	})
	if err != nil {
		log.Printf("[gateway] ark call failed: %v", err)
		return "", apperr.Generation(0, "Ark API error", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", apperr.Generation(0, "no response generated", nil)
	}
	return strings.TrimSpace(resp.Content), nil
}

func userMessage(req Request) *schema.Message {
	if req.Image == "" {
		return schema.UserMessage(req.Prompt)
	}
	return &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: req.Prompt},
			{
				Type:     schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{URL: "data:image/jpeg;base64," + req.Image},
			},
		},
	}
}
