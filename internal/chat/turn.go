package chat

import "time"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Metrics carries the performance block some local servers (LM Studio's
// native API) attach to a completion. All fields are optional; times are
// in seconds.
type Metrics struct {
	TokensGenerated  int     `json:"tokens_generated"`
	TokensPerSecond  float64 `json:"tokens_per_second,omitempty"`
	GenerationTime   float64 `json:"generation_time,omitempty"`
	TimeToFirstToken float64 `json:"time_to_first_token,omitempty"`
}

// Turn is one message in a conversation. Turns are immutable once
// appended; ordering is strictly insertion order.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Metrics   *Metrics  `json:"metrics,omitempty"`
}

func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

func AssistantTurn(content string, m *Metrics) Turn {
	return Turn{Role: RoleAssistant, Content: content, Timestamp: time.Now().UTC(), Metrics: m}
}

func systemTurn(content string) Turn {
	return Turn{Role: RoleSystem, Content: content, Timestamp: time.Now().UTC()}
}
