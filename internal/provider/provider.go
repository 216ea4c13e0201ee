package provider

import "context"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Params are the generation knobs forwarded with every request.
type Params struct {
	Temperature float64
	MaxTokens   int
}

// Stats is the optional performance block returned by LM Studio's
// native API. Times are in seconds.
type Stats struct {
	TokensGenerated  int
	TokensPerSecond  float64
	GenerationTime   float64
	TimeToFirstToken float64
}

// Completion is one assistant reply plus whatever metadata the server
// attached.
type Completion struct {
	Message      Message
	Stats        *Stats
	FinishReason string
}

// Inference is the contract the shell relies on: one completion per
// call, or a ConnectionError / TimeoutError / ProtocolError.
type Inference interface {
	Complete(ctx context.Context, msgs []Message, p Params) (*Completion, error)
	Models(ctx context.Context) ([]string, error)
	ModelName() string
}
