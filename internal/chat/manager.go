package chat

import (
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Manager owns the sessions directory and the active conversation
// lifecycle: create, load, save, list, delete.
type Manager struct {
	dir      string
	maxTurns int
	autoSave bool
}

// Summary is one row of List: enough to pick a session without
// decoding the full turn history.
type Summary struct {
	ID        string
	Style     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Turns     int
}

// NewManager creates the sessions directory if needed. A failure here
// is the one startup error callers should treat as fatal.
func NewManager(dir string, maxTurns int, autoSave bool) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	if maxTurns < 1 {
		maxTurns = DefaultMaxTurns
	}
	return &Manager{dir: dir, maxTurns: maxTurns, autoSave: autoSave}, nil
}

func (m *Manager) Dir() string { return m.dir }

// Create starts a fresh conversation seeded from style.
func (m *Manager) Create(style Style) *Conversation {
	return New(style, m.maxTurns)
}

// Load reads the record for id. Returns *NotFoundError when no record
// exists and *FormatError when the document is corrupt.
func (m *Manager) Load(id string) (*Conversation, error) {
	data, err := os.ReadFile(m.path(id))
	if os.IsNotExist(err) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, err
	}
	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, err
	}
	conv.SetMaxTurns(m.maxTurns)
	return &conv, nil
}

// Save writes the conversation under its id. The document goes to a
// temp file first and is renamed over the final path, so a crash
// mid-write never corrupts the previous good record.
func (m *Manager) Save(c *Conversation) (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	path := m.path(c.ID())
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return path, nil
}

// AutoSave persists the conversation when auto-save is enabled.
func (m *Manager) AutoSave(c *Conversation) error {
	if !m.autoSave {
		return nil
	}
	_, err := m.Save(c)
	return err
}

// List yields a summary per session record, newest first. The
// directory is re-read on every iteration; unreadable or in-flight
// (.tmp) files are skipped.
func (m *Manager) List() iter.Seq[Summary] {
	return func(yield func(Summary) bool) {
		entries, err := os.ReadDir(m.dir)
		if err != nil {
			return
		}
		var sums []Summary
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(m.dir, e.Name()))
			if err != nil {
				continue
			}
			var doc document
			if err := json.Unmarshal(data, &doc); err != nil || doc.ID == "" {
				continue
			}
			sums = append(sums, Summary{
				ID:        doc.ID,
				Style:     doc.Style,
				CreatedAt: doc.CreatedAt,
				UpdatedAt: doc.UpdatedAt,
				Turns:     len(doc.Turns) - 1,
			})
		}
		sort.Slice(sums, func(i, j int) bool {
			return sums[i].UpdatedAt.After(sums[j].UpdatedAt)
		})
		for _, s := range sums {
			if !yield(s) {
				return
			}
		}
	}
}

// Delete removes the record for id. Deleting a session that does not
// exist is a no-op.
func (m *Manager) Delete(id string) error {
	err := os.Remove(m.path(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.dir, id+".json")
}
