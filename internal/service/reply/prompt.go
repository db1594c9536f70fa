package reply

import (
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

const contextTemplate = `You are RizzMate, an AI dating assistant. Your job is to analyze dating app conversations and generate perfect replies.

Context: User wants a {tone} response.
Conversation: {conversation}
Tone guidance: {hint}

Generate a {tone} reply that is:
- Engaging and conversation-continuing
- Matches the {tone} tone perfectly
- Natural and authentic
- Not too long (1-2 sentences max)
- Appropriate for dating app context

Return ONLY the reply text, no explanations or quotes.`

const (
	textInstruction  = `Analyze this dating app conversation and generate a {tone} reply: "{conversation}"`
	imageInstruction = `Analyze this dating app conversation screenshot and generate a {tone} reply. Please read the conversation in the image and create an engaging response that matches the {tone} tone.`

	screenshotPlaceholder = "Screenshot uploaded - please analyze the image"
)

func newTextTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(contextTemplate),
		schema.UserMessage(textInstruction),
	)
}

func newImageTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(contextTemplate),
		schema.UserMessage(imageInstruction),
	)
}
