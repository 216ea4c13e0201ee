package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pcastell/companion/internal/chat"
	"github.com/pcastell/companion/internal/config"
	"github.com/pcastell/companion/internal/health"
	"github.com/pcastell/companion/internal/provider"
)

var thinkingSpinner = spinner.Spinner{
	Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	FPS:    time.Second / 12,
}

type completionMsg struct {
	out *provider.Completion
	err error
}

type statusMsg struct {
	status health.Status
}

type chatMessage struct {
	role    string // user | assistant | system | error | welcome
	content string
	metrics *chat.Metrics
}

type Model struct {
	width, height int
	viewport      viewport.Model
	textarea      textarea.Model
	spinner       spinner.Model
	messages      []chatMessage
	waiting       bool
	picker        PickerModel

	cfg    *config.Config
	mgr    *chat.Manager
	client provider.Inference
	conv   *chat.Conversation

	renderer *glamour.TermRenderer
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewModel wires the shell around an existing conversation (freshly
// created or loaded from a session record).
func NewModel(cfg *config.Config, mgr *chat.Manager, client provider.Inference, conv *chat.Conversation) Model {
	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.Focus()
	ta.CharLimit = 0
	ta.SetHeight(1)
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(White)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(DimTeal)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = thinkingSpinner
	sp.Style = SpinnerStyle

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	// Rendering capability is decided once at startup: glamour when the
	// terminal can take it, plain text otherwise.
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		renderer = nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		viewport: vp,
		textarea: ta,
		spinner:  sp,
		picker:   NewPickerModel(),
		cfg:      cfg,
		mgr:      mgr,
		client:   client,
		conv:     conv,
		renderer: renderer,
		ctx:      ctx,
		cancel:   cancel,
	}

	if conv.TurnCount() > 0 {
		m.rehydrate()
		m.messages = append(m.messages, chatMessage{role: "system", content: "Restored session " + shortID(conv.ID())})
	} else {
		m.messages = append(m.messages, chatMessage{
			role: "welcome",
			content: fmt.Sprintf("Welcome! You're chatting with %s in %s style.\n\n"+
				"Type a message to begin, or /help for commands.",
				client.ModelName(), conv.Style().Label()),
		})
	}
	return m
}

// rehydrate rebuilds the transcript from a loaded conversation.
func (m *Model) rehydrate() {
	for t := range m.conv.History(0) {
		switch t.Role {
		case chat.RoleUser:
			m.messages = append(m.messages, chatMessage{role: "user", content: t.Content})
		case chat.RoleAssistant:
			m.messages = append(m.messages, chatMessage{role: "assistant", content: t.Content, metrics: t.Metrics})
		}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerH := 11
		inputH := 3
		pickerH := 0
		if m.picker.active {
			pickerH = 16
		}
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - headerH - inputH - pickerH
		m.textarea.SetWidth(msg.Width - 6)
		m.rebuildView()

	case tea.KeyMsg:
		if m.picker.active {
			switch msg.String() {
			case "enter":
				if id, ok := m.picker.Selected(); ok {
					m.picker.active = false
					return m.loadSession(id)
				}
			case "esc":
				m.picker.active = false
				m.rebuildView()
				return m, nil
			}
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			return m, cmd
		}

		switch msg.Type {
		case tea.KeyPgUp:
			m.viewport.HalfViewUp()
			return m, nil
		case tea.KeyPgDown:
			m.viewport.HalfViewDown()
			return m, nil
		case tea.KeyEsc:
			m.mgr.AutoSave(m.conv)
			m.cancel()
			return m, tea.Quit
		case tea.KeyCtrlC:
			if m.waiting {
				// Abandon the in-flight request; the user turn stays.
				m.cancel()
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.waiting = false
				m.messages = append(m.messages, chatMessage{role: "system", content: "Request cancelled"})
				m.rebuildView()
				return m, nil
			}
			m.mgr.AutoSave(m.conv)
			m.cancel()
			return m, tea.Quit
		case tea.KeyEnter:
			if msg.Alt {
				break
			}
			text := strings.TrimSpace(m.textarea.Value())
			if text == "" {
				return m, nil
			}
			if m.waiting {
				m.messages = append(m.messages, chatMessage{role: "system", content: "Still waiting for a reply... (Ctrl+C to cancel)"})
				m.rebuildView()
				return m, nil
			}
			m.textarea.Reset()
			if strings.HasPrefix(text, "/") {
				return m.handleCommand(text)
			}
			return m.sendChat(text)
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case completionMsg:
		if msg.err != nil && errors.Is(msg.err, context.Canceled) {
			// Stale reply from a request the user already cancelled.
			return m, nil
		}
		m.waiting = false
		if msg.err != nil {
			// The user turn stays appended; only the reply is missing.
			m.messages = append(m.messages, chatMessage{role: "error", content: describeError(msg.err)})
			m.rebuildView()
			return m, nil
		}
		var metrics *chat.Metrics
		if msg.out.Stats != nil {
			metrics = &chat.Metrics{
				TokensGenerated:  msg.out.Stats.TokensGenerated,
				TokensPerSecond:  msg.out.Stats.TokensPerSecond,
				GenerationTime:   msg.out.Stats.GenerationTime,
				TimeToFirstToken: msg.out.Stats.TimeToFirstToken,
			}
		}
		m.conv.Append(chat.AssistantTurn(msg.out.Message.Content, metrics))
		if err := m.mgr.AutoSave(m.conv); err != nil {
			m.messages = append(m.messages, chatMessage{role: "error", content: "auto-save failed: " + err.Error()})
		}
		m.messages = append(m.messages, chatMessage{role: "assistant", content: msg.out.Message.Content, metrics: metrics})
		m.rebuildView()
		return m, nil

	case statusMsg:
		m.waiting = false
		st := msg.status
		if st.Reachable {
			var sb strings.Builder
			fmt.Fprintf(&sb, "Server healthy (%s, %s)", st.BaseURL, st.Latency.Round(time.Millisecond))
			if len(st.Models) > 0 {
				fmt.Fprintf(&sb, "\nModels: %s", strings.Join(st.Models, ", "))
			}
			m.messages = append(m.messages, chatMessage{role: "system", content: sb.String()})
		} else {
			m.messages = append(m.messages, chatMessage{role: "error", content: st.Error})
		}
		m.rebuildView()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.waiting {
			m.rebuildView()
		}
		cmds = append(cmds, cmd)
	}

	if !m.picker.active {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// sendChat appends the user turn and fires the completion request. The
// turn stays in the conversation whatever the request outcome.
func (m Model) sendChat(text string) (tea.Model, tea.Cmd) {
	m.conv.Append(chat.UserTurn(text))
	m.messages = append(m.messages, chatMessage{role: "user", content: text})
	m.waiting = true
	m.rebuildView()

	var msgs []provider.Message
	for t := range m.conv.History(m.cfg.MaxSessionTurns) {
		msgs = append(msgs, provider.Message{Role: provider.Role(t.Role), Content: t.Content})
	}
	params := provider.Params{Temperature: m.cfg.Temperature, MaxTokens: m.cfg.MaxTokens}
	ctx := m.ctx
	client := m.client
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		out, err := client.Complete(ctx, msgs, params)
		return completionMsg{out: out, err: err}
	})
}

func (m Model) handleCommand(text string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(text)
	cmd := parts[0]
	arg := ""
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/help":
		m.messages = append(m.messages, chatMessage{
			role: "system",
			content: `Available commands:
  /new [style]   — start a new conversation (friend, coach, assistant)
  /styles        — list styles, built-in and saved presets
  /save          — save the current conversation
  /load <id>     — load a saved conversation
  /list          — pick from saved conversations
  /delete <id>   — delete a saved conversation
  /clear         — clear the current conversation
  /export [path] — export transcript to markdown
  /status        — check the inference server
  /quit          — exit

Keyboard:
  Enter — send · Alt+Enter — newline · Ctrl+C — cancel request / quit
  PgUp/PgDown — scroll · Esc — quit`,
		})

	case "/new":
		m.mgr.AutoSave(m.conv)
		style := m.conv.Style()
		if arg != "" {
			s, ok := ResolveStyle(arg)
			if !ok {
				m.messages = append(m.messages, chatMessage{role: "error", content: fmt.Sprintf("unknown style %q (friend, coach, assistant, or a saved preset)", arg)})
				break
			}
			style = s
		}
		m.conv = m.mgr.Create(style)
		m.messages = append(m.messages, chatMessage{role: "system", content: fmt.Sprintf("Started new %s conversation %s", style.Label(), shortID(m.conv.ID()))})

	case "/save":
		path, err := m.mgr.Save(m.conv)
		if err != nil {
			m.messages = append(m.messages, chatMessage{role: "error", content: err.Error()})
		} else {
			m.messages = append(m.messages, chatMessage{role: "system", content: "Saved to " + path})
		}

	case "/load":
		if arg == "" {
			m.messages = append(m.messages, chatMessage{role: "error", content: "usage: /load <id>"})
			break
		}
		return m.loadSession(arg)

	case "/list":
		m.picker.Open(m.mgr)
		if !m.picker.active {
			m.messages = append(m.messages, chatMessage{role: "system", content: "No saved sessions"})
		} else {
			headerH := 11
			inputH := 3
			m.viewport.Height = m.height - headerH - inputH - 16
		}

	case "/delete":
		if arg == "" {
			m.messages = append(m.messages, chatMessage{role: "error", content: "usage: /delete <id>"})
			break
		}
		if err := m.mgr.Delete(arg); err != nil {
			m.messages = append(m.messages, chatMessage{role: "error", content: err.Error()})
		} else {
			m.messages = append(m.messages, chatMessage{role: "system", content: "Deleted " + shortID(arg)})
		}

	case "/clear":
		m.conv.Clear()
		m.messages = nil
		m.messages = append(m.messages, chatMessage{role: "system", content: "Conversation cleared"})

	case "/export":
		path := "companion-session.md"
		if arg != "" {
			path = arg
		}
		if err := chat.Export(m.conv, path); err != nil {
			m.messages = append(m.messages, chatMessage{role: "error", content: err.Error()})
		} else {
			m.messages = append(m.messages, chatMessage{role: "system", content: "Exported to " + path})
		}

	case "/styles":
		names, _ := config.ListStylePresets()
		content := "Built-in styles: friend, coach, assistant"
		if len(names) > 0 {
			content += "\nSaved presets: " + strings.Join(names, ", ")
		}
		m.messages = append(m.messages, chatMessage{role: "system", content: content})

	case "/status":
		m.waiting = true
		baseURL, apiKey := m.cfg.BaseURL, m.cfg.APIKey
		ctx := m.ctx
		m.rebuildView()
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			return statusMsg{status: health.Check(ctx, baseURL, apiKey)}
		})

	case "/quit", "/exit":
		m.mgr.AutoSave(m.conv)
		m.cancel()
		return m, tea.Quit

	default:
		m.messages = append(m.messages, chatMessage{role: "error", content: fmt.Sprintf("unknown command %s (try /help)", cmd)})
	}

	m.rebuildView()
	return m, nil
}

// loadSession swaps the shell onto a saved conversation. Sessions are
// small local files, so the load is synchronous.
func (m Model) loadSession(id string) (tea.Model, tea.Cmd) {
	conv, err := m.mgr.Load(id)
	if err != nil {
		m.messages = append(m.messages, chatMessage{role: "error", content: err.Error()})
		m.rebuildView()
		return m, nil
	}
	m.mgr.AutoSave(m.conv)
	m.conv = conv
	m.messages = nil
	m.rehydrate()
	m.messages = append(m.messages, chatMessage{role: "system", content: "Loaded session " + shortID(id)})
	m.rebuildView()
	return m, nil
}

// ResolveStyle maps a name onto a built-in style or a saved preset.
func ResolveStyle(name string) (chat.Style, bool) {
	if s, ok := chat.ParseStyle(name); ok {
		return s, true
	}
	if p, err := config.LoadStylePreset(name); err == nil {
		return chat.Custom(p.Prompt), true
	}
	return chat.Style{}, false
}

func describeError(err error) string {
	var timeoutErr *provider.TimeoutError
	var connErr *provider.ConnectionError
	var protoErr *provider.ProtocolError
	switch {
	case errors.As(err, &timeoutErr):
		return "The server took too long to reply. Your message is kept; try again or /status to check the server."
	case errors.As(err, &connErr):
		return err.Error() + " — your message is kept."
	case errors.As(err, &protoErr):
		return err.Error()
	default:
		return err.Error()
	}
}

func (m *Model) rebuildView() {
	var sb strings.Builder

	for _, msg := range m.messages {
		switch msg.role {
		case "welcome":
			sb.WriteString(AssistantLabelStyle.Render("Companion") + "\n")
			sb.WriteString(AssistantMsgStyle.Render(msg.content) + "\n\n")
		case "user":
			sb.WriteString(UserLabelStyle.Render("You") + "\n")
			sb.WriteString(UserMsgStyle.Render(msg.content) + "\n\n")
		case "assistant":
			sb.WriteString(AssistantLabelStyle.Render("Companion") + "\n")
			sb.WriteString(m.renderMarkdown(msg.content))
			if msg.metrics != nil && msg.metrics.TokensGenerated > 0 {
				sb.WriteString(MetricsStyle.Render(formatMetrics(msg.metrics)) + "\n")
			}
			sb.WriteString("\n")
		case "system":
			sb.WriteString(SystemMsgStyle.Render("  ℹ "+msg.content) + "\n\n")
		case "error":
			sb.WriteString(ErrorStyle.Render("  ✗ "+msg.content) + "\n\n")
		}
	}

	if m.waiting {
		sb.WriteString(SpinnerStyle.Render(" "+m.spinner.View()+" Thinking...") + "\n")
	}

	wasAtBottom := m.viewport.AtBottom()
	m.viewport.SetContent(sb.String())
	if wasAtBottom || len(m.messages) <= 1 {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return AssistantMsgStyle.Render(content) + "\n"
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return AssistantMsgStyle.Render(content) + "\n"
	}
	return strings.TrimRight(rendered, "\n") + "\n"
}

func formatMetrics(mt *chat.Metrics) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("%d tok", mt.TokensGenerated))
	if mt.TokensPerSecond > 0 {
		parts = append(parts, fmt.Sprintf("%.1f tok/s", mt.TokensPerSecond))
	}
	if mt.GenerationTime > 0 {
		parts = append(parts, fmt.Sprintf("%.2fs", mt.GenerationTime))
	}
	return "  " + strings.Join(parts, " · ")
}

func (m Model) View() string {
	title := BannerStyle.Render(Banner)
	status := lipgloss.JoinHorizontal(lipgloss.Center,
		StatusBarStyle.Render(" "+m.client.ModelName()+" "),
		HelpStyle.Render("  "+m.conv.Style().Label()+" · "+shortID(m.conv.ID())),
	)

	header := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(DimTeal).
		Width(m.width).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "  "+status))

	prompt := lipgloss.NewStyle().Foreground(Teal).Bold(true).Render("> ")
	if m.waiting {
		prompt = lipgloss.NewStyle().Foreground(Amber).Bold(true).Render("● ")
	}
	inputBox := InputBorderStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, prompt, m.textarea.View()))

	help := HelpStyle.Render("Enter: send  •  /help  •  Esc: quit")

	mainView := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		inputBox,
		lipgloss.NewStyle().PaddingLeft(2).Render(help),
	)

	if m.picker.active {
		return lipgloss.JoinVertical(lipgloss.Left, mainView, m.picker.View())
	}
	return mainView
}
