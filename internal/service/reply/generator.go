package reply

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/rizzmate/backend/internal/apperr"
	"github.com/zhouzirui/rizzmate/backend/internal/model/tone"
	"github.com/zhouzirui/rizzmate/backend/internal/service/gateway"
)

// Input is what the user submits: conversation text, a screenshot, or both.
type Input struct {
	Text  string
	Image []byte
}

// HasImage reports whether a screenshot was supplied.
func (in Input) HasImage() bool {
	return len(in.Image) > 0
}

// Generator turns a conversation into a reply in the requested tone.
type Generator struct {
	gateway   gateway.Gateway
	tones     tone.Store
	textTmpl  prompt.ChatTemplate
	imageTmpl prompt.ChatTemplate
}

// NewGenerator creates a generator calling gw.
func NewGenerator(gw gateway.Gateway, tones tone.Store) *Generator {
	return &Generator{
		gateway:   gw,
		tones:     tones,
		textTmpl:  newTextTemplate(),
		imageTmpl: newImageTemplate(),
	}
}

// Validate checks the input without calling the model. It must pass before
// any credit is spent.
func (g *Generator) Validate(input Input, toneID string) (tone.Tone, error) {
	if strings.TrimSpace(input.Text) == "" && !input.HasImage() {
		return tone.Tone{}, apperr.Validation("please provide either conversation text or upload a screenshot")
	}
	if strings.TrimSpace(toneID) == "" {
		return tone.Tone{}, apperr.Validation("tone is required")
	}
	t, ok := g.tones.FindByID(toneID)
	if !ok {
		return tone.Tone{}, apperr.Validation(fmt.Sprintf("unsupported tone %q", toneID))
	}
	return t, nil
}

// Generate produces exactly one reply, or a generation error.
func (g *Generator) Generate(ctx context.Context, input Input, toneID string) (string, error) {
	t, err := g.Validate(input, toneID)
	if err != nil {
		return "", err
	}

	req, err := g.buildRequest(ctx, input, t)
	if err != nil {
		return "", err
	}

	text, err := g.gateway.Complete(ctx, req)
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.Generation(0, "no response generated", nil)
	}

	log.Printf("[reply] generated tone=%s image=%v length=%d", t.ID, input.HasImage(), len(text))
	return text, nil
}

func (g *Generator) buildRequest(ctx context.Context, input Input, t tone.Tone) (gateway.Request, error) {
	conversation := strings.TrimSpace(input.Text)
	tmpl := g.textTmpl
	if input.HasImage() {
		tmpl = g.imageTmpl
		if conversation == "" {
			conversation = screenshotPlaceholder
		}
	}

	msgs, err := tmpl.Format(ctx, map[string]any{
		"tone":         t.ID,
		"conversation": conversation,
		"hint":         t.PromptHint,
	})
	if err != nil {
		return gateway.Request{}, apperr.Generation(0, "render prompt", err)
	}

	req := gateway.Request{}
	for _, msg := range msgs {
		switch msg.Role {
		case schema.System:
			req.Context = msg.Content
		case schema.User:
			req.Prompt = msg.Content
		}
	}
	if input.HasImage() {
		req.Image = base64.StdEncoding.EncodeToString(input.Image)
	}
	return req, nil
}
