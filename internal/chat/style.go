package chat

// Style selects the personality preset a conversation is seeded with.
// The closed set is friend/coach/assistant; Custom carries its own
// system prompt.
type Style struct {
	label  string
	prompt string
}

var (
	Friend = Style{
		label: "friend",
		prompt: "You are a friendly, warm, and supportive AI companion. " +
			"Engage in conversations with genuine interest and empathy. " +
			"Be helpful while maintaining a casual, approachable tone.",
	}
	Coach = Style{
		label: "coach",
		prompt: "You are a motivational AI coach focused on helping users achieve their goals. " +
			"Ask probing questions, provide encouragement, and offer practical advice. " +
			"Be supportive but also challenge users to grow and improve.",
	}
	Assistant = Style{
		label: "assistant",
		prompt: "You are a professional AI assistant. Provide clear, accurate, and helpful responses. " +
			"Be polite, efficient, and focused on solving problems and answering questions effectively.",
	}
)

const defaultCustomPrompt = "You are a helpful AI assistant. Respond naturally and adapt your " +
	"communication style based on the user's preferences and the context of the conversation."

// Custom builds a style with a caller-supplied system prompt.
func Custom(prompt string) Style {
	if prompt == "" {
		prompt = defaultCustomPrompt
	}
	return Style{label: "custom", prompt: prompt}
}

// ParseStyle resolves a preset label. Unknown labels report ok=false so
// callers can fall back to a default.
func ParseStyle(label string) (Style, bool) {
	switch label {
	case "friend":
		return Friend, true
	case "coach":
		return Coach, true
	case "assistant":
		return Assistant, true
	case "custom":
		return Custom(""), true
	}
	return Style{}, false
}

func (s Style) Label() string        { return s.label }
func (s Style) SystemPrompt() string { return s.prompt }

// styleFromDocument rebuilds a Style when loading a session: preset
// labels resolve to their canonical prompt, anything else keeps the
// stored system prompt as a custom style.
func styleFromDocument(label, storedPrompt string) Style {
	if s, ok := ParseStyle(label); ok && label != "custom" {
		return s
	}
	return Custom(storedPrompt)
}
