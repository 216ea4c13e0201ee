package chat

import (
	"encoding/json"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

const DefaultMaxTurns = 50

// Conversation is an ordered, bounded sequence of turns. The system
// turn sits at index 0 and is never evicted; at most maxTurns
// user/assistant turns are retained, oldest dropped first.
type Conversation struct {
	id        string
	style     Style
	createdAt time.Time
	updatedAt time.Time
	turns     []Turn
	maxTurns  int
}

// New builds a fresh conversation seeded with the style's system prompt.
func New(style Style, maxTurns int) *Conversation {
	if maxTurns < 1 {
		maxTurns = DefaultMaxTurns
	}
	now := time.Now().UTC()
	return &Conversation{
		id:        uuid.New().String(),
		style:     style,
		createdAt: now,
		updatedAt: now,
		turns:     []Turn{systemTurn(style.SystemPrompt())},
		maxTurns:  maxTurns,
	}
}

func (c *Conversation) ID() string           { return c.id }
func (c *Conversation) Style() Style         { return c.style }
func (c *Conversation) CreatedAt() time.Time { return c.createdAt }
func (c *Conversation) UpdatedAt() time.Time { return c.updatedAt }

// Len counts every turn, system included.
func (c *Conversation) Len() int { return len(c.turns) }

// TurnCount counts user/assistant turns only.
func (c *Conversation) TurnCount() int { return len(c.turns) - 1 }

func (c *Conversation) SetMaxTurns(n int) {
	if n > 0 {
		c.maxTurns = n
		c.evict()
	}
}

// Append adds a turn at the end, stamping it if the caller didn't, and
// evicts the oldest non-system turns once the bound is exceeded. A
// system turn replaces the seed prompt instead of growing the history.
func (c *Conversation) Append(t Turn) {
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}
	if t.Role == RoleSystem {
		c.turns[0] = t
	} else {
		c.turns = append(c.turns, t)
		c.evict()
	}
	c.updatedAt = time.Now().UTC()
}

func (c *Conversation) evict() {
	for len(c.turns)-1 > c.maxTurns {
		c.turns = append(c.turns[:1], c.turns[2:]...)
	}
}

// History yields turns in insertion order: the system turn first, then
// the most recent limit user/assistant turns (all of them when limit
// is 0). The sequence is finite and restartable; each range re-walks
// the current state.
func (c *Conversation) History(limit int) iter.Seq[Turn] {
	return func(yield func(Turn) bool) {
		if !yield(c.turns[0]) {
			return
		}
		rest := c.turns[1:]
		if limit > 0 && len(rest) > limit {
			rest = rest[len(rest)-limit:]
		}
		for _, t := range rest {
			if !yield(t) {
				return
			}
		}
	}
}

// Clear resets the history to the system turn alone.
func (c *Conversation) Clear() {
	c.turns = c.turns[:1]
	c.updatedAt = time.Now().UTC()
}

// document is the on-disk session shape.
type document struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Style     string    `json:"style"`
	Turns     []Turn    `json:"turns"`
}

const documentSchema = `{
  "type": "object",
  "required": ["id", "created_at", "updated_at", "style", "turns"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "created_at": {"type": "string"},
    "updated_at": {"type": "string"},
    "style": {"type": "string"},
    "turns": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["role", "content", "timestamp"],
        "properties": {
          "role": {"enum": ["system", "user", "assistant"]},
          "content": {"type": "string"},
          "timestamp": {"type": "string"},
          "metrics": {"type": "object"}
        }
      }
    }
  }
}`

var schema = gojsonschema.NewStringLoader(documentSchema)

func (c *Conversation) MarshalJSON() ([]byte, error) {
	return json.Marshal(document{
		ID:        c.id,
		CreatedAt: c.createdAt,
		UpdatedAt: c.updatedAt,
		Style:     c.style.Label(),
		Turns:     c.turns,
	})
}

// UnmarshalJSON validates the document against the session schema
// before decoding, so corrupt records surface as *FormatError rather
// than a partially populated conversation.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &FormatError{Reason: err.Error()}
	}
	if !result.Valid() {
		return &FormatError{Reason: result.Errors()[0].String()}
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return &FormatError{Reason: err.Error()}
	}
	if doc.Turns[0].Role != RoleSystem {
		return &FormatError{Reason: "first turn must have role system"}
	}
	for i := 1; i < len(doc.Turns); i++ {
		if doc.Turns[i].Role == RoleSystem {
			return &FormatError{Reason: "system turn after index 0"}
		}
		if doc.Turns[i].Timestamp.Before(doc.Turns[i-1].Timestamp) {
			return &FormatError{Reason: "turns not ordered by timestamp"}
		}
	}

	c.id = doc.ID
	c.createdAt = doc.CreatedAt
	c.updatedAt = doc.UpdatedAt
	c.style = styleFromDocument(doc.Style, doc.Turns[0].Content)
	c.turns = doc.Turns
	if c.maxTurns < 1 {
		c.maxTurns = DefaultMaxTurns
	}
	return nil
}
