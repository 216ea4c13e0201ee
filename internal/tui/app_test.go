package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pcastell/companion/internal/chat"
	"github.com/pcastell/companion/internal/config"
	"github.com/pcastell/companion/internal/provider"
)

type mockClient struct {
	reply string
	err   error
}

func (m mockClient) Complete(ctx context.Context, msgs []provider.Message, p provider.Params) (*provider.Completion, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &provider.Completion{
		Message: provider.Message{Role: provider.RoleAssistant, Content: m.reply},
		Stats:   &provider.Stats{TokensGenerated: 7, TokensPerSecond: 20},
	}, nil
}
func (m mockClient) Models(ctx context.Context) ([]string, error) { return []string{"mock"}, nil }
func (m mockClient) ModelName() string                            { return "test-model" }

func newTestModel(t *testing.T, client provider.Inference) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.SessionsDir = t.TempDir()
	mgr, err := chat.NewManager(cfg.SessionsDir, cfg.MaxSessionTurns, cfg.AutoSave)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	conv := mgr.Create(chat.Friend)
	m := NewModel(cfg, mgr, client, conv)
	um, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return um.(Model)
}

func TestShell_SendAndReceive(t *testing.T) {
	m := newTestModel(t, mockClient{reply: "Nice to meet you!"})

	m.textarea.SetValue("hello there")
	um, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = um.(Model)

	if !m.waiting {
		t.Error("shell should be waiting after send")
	}
	if m.conv.TurnCount() != 1 {
		t.Errorf("user turn not appended: %d turns", m.conv.TurnCount())
	}
	if cmd == nil {
		t.Fatal("send should produce a command")
	}

	// Drive the async completion to its message and feed it back.
	msg := findCompletionMsg(t, cmd)
	um, _ = m.Update(msg)
	m = um.(Model)

	if m.waiting {
		t.Error("shell still waiting after reply")
	}
	if m.conv.TurnCount() != 2 {
		t.Errorf("assistant turn not appended: %d turns", m.conv.TurnCount())
	}
	if !strings.Contains(m.viewport.View(), "Nice to meet you!") {
		t.Error("reply not rendered in transcript")
	}
}

func TestShell_ErrorKeepsUserTurn(t *testing.T) {
	m := newTestModel(t, mockClient{err: &provider.ConnectionError{
		URL: "http://localhost:1234",
		Err: errors.New("dial tcp: connection refused"),
	}})

	m.textarea.SetValue("are you there?")
	um, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = um.(Model)

	msg := findCompletionMsg(t, cmd)
	um, _ = m.Update(msg)
	m = um.(Model)

	if m.waiting {
		t.Error("shell stuck waiting after error")
	}
	if m.conv.TurnCount() != 1 {
		t.Errorf("user turn must survive a failed request: %d turns", m.conv.TurnCount())
	}
	last := m.messages[len(m.messages)-1]
	if last.role != "error" {
		t.Errorf("expected trailing error message, got %q", last.role)
	}
}

func TestShell_UnknownCommand(t *testing.T) {
	m := newTestModel(t, mockClient{})

	m.textarea.SetValue("/teleport")
	um, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = um.(Model)

	last := m.messages[len(m.messages)-1]
	if last.role != "error" || !strings.Contains(last.content, "/teleport") {
		t.Errorf("unknown command not reported: %+v", last)
	}
	if m.conv.TurnCount() != 0 {
		t.Error("a command must not become a conversation turn")
	}
}

func TestShell_NewCommandSwitchesStyle(t *testing.T) {
	m := newTestModel(t, mockClient{})
	oldID := m.conv.ID()

	m.textarea.SetValue("/new coach")
	um, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = um.(Model)

	if m.conv.ID() == oldID {
		t.Error("expected a fresh conversation")
	}
	if m.conv.Style().Label() != "coach" {
		t.Errorf("style not switched: %s", m.conv.Style().Label())
	}
}

func TestShell_SaveThenLoad(t *testing.T) {
	m := newTestModel(t, mockClient{})
	m.conv.Append(chat.UserTurn("remember this"))
	id := m.conv.ID()

	m.textarea.SetValue("/save")
	um, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = um.(Model)

	m.textarea.SetValue("/new")
	um, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = um.(Model)

	m.textarea.SetValue("/load " + id)
	um, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = um.(Model)

	if m.conv.ID() != id {
		t.Errorf("session not restored: %s != %s", m.conv.ID(), id)
	}
	if m.conv.TurnCount() != 1 {
		t.Errorf("restored history wrong: %d turns", m.conv.TurnCount())
	}
}

func TestShell_ListWithNoSessions(t *testing.T) {
	m := newTestModel(t, mockClient{})

	m.textarea.SetValue("/list")
	um, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = um.(Model)

	if m.picker.active {
		t.Error("picker should stay closed with no sessions")
	}
	last := m.messages[len(m.messages)-1]
	if !strings.Contains(last.content, "No saved sessions") {
		t.Errorf("expected empty-list notice, got %q", last.content)
	}
}

func TestShell_HeaderRendering(t *testing.T) {
	m := newTestModel(t, mockClient{})
	view := m.View()
	if !strings.Contains(view, "test-model") {
		t.Error("header should display model name")
	}
	if !strings.Contains(view, "friend") {
		t.Error("header should display conversation style")
	}
}

// findCompletionMsg runs the (possibly batched) command tree until the
// completion message surfaces.
func findCompletionMsg(t *testing.T, cmd tea.Cmd) completionMsg {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case completionMsg:
			return msg
		case tea.BatchMsg:
			queue = append(queue, msg...)
		}
	}
	t.Fatal("no completion message produced")
	return completionMsg{}
}
