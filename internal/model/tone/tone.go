package tone

// Tone is a reply style the user can pick for a generated message.
type Tone struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Emoji      string `json:"emoji"`
	PromptHint string `json:"promptHint"`
}

// Seed returns the built-in tones offered by the reply generator.
func Seed() []Tone {
	return []Tone{
		{
			ID:         "flirty",
			Label:      "Flirty",
			Emoji:      "😍",
			PromptHint: "Be playful and charming with a light romantic tease. Keep it confident, never crude.",
		},
		{
			ID:         "funny",
			Label:      "Funny",
			Emoji:      "😂",
			PromptHint: "Lead with humour and wit. A clever callback to something they said beats a generic joke.",
		},
		{
			ID:         "casual",
			Label:      "Casual",
			Emoji:      "😊",
			PromptHint: "Sound relaxed and natural, like texting a friend. Short sentences, no pressure.",
		},
	}
}
