package chat

import (
	"fmt"
	"os"
	"strings"
)

// Export writes the conversation to path as a human-readable markdown
// transcript. The system prompt is omitted.
func Export(c *Conversation, path string) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Companion Session %s\n\n", c.ID()))
	sb.WriteString(fmt.Sprintf("Style: %s  \nCreated: %s\n\n", c.Style().Label(), c.CreatedAt().Format("2006-01-02 15:04")))
	for t := range c.History(0) {
		switch t.Role {
		case RoleSystem:
			continue
		case RoleUser:
			sb.WriteString("## You\n")
			sb.WriteString(t.Content + "\n\n")
		case RoleAssistant:
			sb.WriteString("## Companion\n")
			sb.WriteString(t.Content + "\n\n")
		}
	}
	return os.WriteFile(path, []byte(sb.String()), 0644)
}
