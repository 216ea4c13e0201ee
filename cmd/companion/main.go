package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pcastell/companion/internal/chat"
	"github.com/pcastell/companion/internal/config"
	"github.com/pcastell/companion/internal/health"
	"github.com/pcastell/companion/internal/provider"
	"github.com/pcastell/companion/internal/tui"
)

// set via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	modelFlag := flag.String("model", "", "Model name (overrides config)")
	styleFlag := flag.String("style", "", "Conversation style (friend, coach, assistant)")
	sessionFlag := flag.String("session", "", "Resume a saved session by ID")
	listFlag := flag.Bool("list", false, "List saved sessions and exit")
	checkFlag := flag.Bool("check-status", false, "Check the inference server and exit")
	exportFlag := flag.String("export", "", "Export a session to markdown (session ID)")
	outFlag := flag.String("out", "", "Output path for --export")
	versionFlag := flag.Bool("version", false, "Print version")
	helpFlag := flag.Bool("help", false, "Show help")
	flag.BoolVar(helpFlag, "h", false, "Show help")

	flag.Usage = showHelp
	flag.Parse()

	if *helpFlag {
		showHelp()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("companion %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal("config error: %s", err)
	}
	if *modelFlag != "" {
		cfg.Model = *modelFlag
	}

	mgr, err := chat.NewManager(cfg.SessionsDir, cfg.MaxSessionTurns, cfg.AutoSave)
	if err != nil {
		fatal("cannot open sessions directory %s: %s", cfg.SessionsDir, err)
	}

	if *listFlag {
		cmdList(mgr)
		return
	}
	if *checkFlag {
		cmdCheckStatus(cfg)
		return
	}
	if *exportFlag != "" {
		cmdExport(mgr, *exportFlag, *outFlag)
		return
	}

	styleName := cfg.DefaultStyle
	if *styleFlag != "" {
		styleName = *styleFlag
	}
	style, ok := tui.ResolveStyle(styleName)
	if !ok {
		fatal("unknown style %q (friend, coach, assistant, or a saved preset)", styleName)
	}

	var conv *chat.Conversation
	if *sessionFlag != "" {
		conv, err = mgr.Load(*sessionFlag)
		if err != nil {
			fatal("cannot resume session: %s", err)
		}
	} else {
		conv = mgr.Create(style)
	}

	var client provider.Inference = provider.NewClient(
		cfg.BaseURL, cfg.APIKey, cfg.Model,
		time.Duration(cfg.RequestTimeout)*time.Second,
	)
	client = provider.WithRetry(client, 3)

	// Startup health check: warn but never block the shell — the server
	// may come up after we do.
	fmt.Print(tui.BannerStyle.Render(tui.Banner))
	fmt.Printf("\n  %s\n", tui.StatusBarStyle.Render(" "+cfg.Model+" "))
	fmt.Printf("  %s", tui.SpinnerStyle.Render("● Checking server..."))
	status := health.Check(context.Background(), cfg.BaseURL, cfg.APIKey)
	if status.Reachable {
		fmt.Printf("\r  %s (%s)\n\n", tui.BannerStyle.Render("✓ Connected"), status.Latency.Round(time.Millisecond))
	} else {
		fmt.Printf("\r  %s\n", tui.WarningStyle.Render("⚠ "+status.Error))
		fmt.Printf("  %s\n\n", tui.HelpStyle.Render("Starting anyway — messages will fail until the server is up"))
	}

	m := tui.NewModel(cfg, mgr, client, conv)

	var opts []tea.ProgramOption
	if isTerminal() {
		opts = append(opts, tea.WithAltScreen())
	}
	opts = append(opts, tea.WithMouseCellMotion())

	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		fatal("shell error: %s", err)
	}
}

func cmdList(mgr *chat.Manager) {
	fmt.Println(tui.BannerStyle.Render("  Saved Sessions"))
	fmt.Println()
	count := 0
	for s := range mgr.List() {
		count++
		fmt.Printf("  %s  %-10s  %3d turns  updated %s\n",
			tui.UserLabelStyle.Render(s.ID),
			s.Style,
			s.Turns,
			tui.HelpStyle.Render(s.UpdatedAt.Local().Format("2006-01-02 15:04")),
		)
	}
	if count == 0 {
		fmt.Println(tui.HelpStyle.Render("  No saved sessions in " + mgr.Dir()))
	}
}

func cmdCheckStatus(cfg *config.Config) {
	fmt.Printf("  %s %s ... ",
		tui.SpinnerStyle.Render("●"),
		tui.UserLabelStyle.Render(cfg.BaseURL),
	)
	status := health.Check(context.Background(), cfg.BaseURL, cfg.APIKey)
	if !status.Reachable {
		fmt.Println(tui.ErrorStyle.Render("✗ " + status.Error))
		os.Exit(1)
	}
	fmt.Printf("%s %s\n",
		tui.BannerStyle.Render("✓ OK"),
		tui.HelpStyle.Render(status.Latency.Round(time.Millisecond).String()),
	)
	if len(status.Models) > 0 {
		fmt.Println()
		for _, m := range status.Models {
			marker := "  "
			if m == cfg.Model {
				marker = tui.BannerStyle.Render("● ")
			}
			fmt.Printf("  %s%s\n", marker, m)
		}
	}
	if err := health.CheckModel(context.Background(), cfg.BaseURL, cfg.APIKey, cfg.Model); err != nil {
		fmt.Println()
		fmt.Println(tui.WarningStyle.Render("  ⚠ " + err.Error()))
	}
}

func cmdExport(mgr *chat.Manager, id, out string) {
	conv, err := mgr.Load(id)
	if err != nil {
		fatal("%s", err)
	}
	if out == "" {
		out = fmt.Sprintf("companion-%s.md", shortID(id))
	}
	if err := chat.Export(conv, out); err != nil {
		fatal("export failed: %s", err)
	}
	fmt.Println(tui.BannerStyle.Render("  ✓ Exported to " + out))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func isTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func fatal(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, tui.ErrorStyle.Render("error: "+msg))
	os.Exit(1)
}

func showHelp() {
	help := `
` + tui.BannerStyle.Render("Companion") + ` - a private chat companion for local models

` + tui.UserLabelStyle.Render("USAGE:") + `
  companion [flags]           Start an interactive chat

` + tui.UserLabelStyle.Render("FLAGS:") + `
  --model <name>              Use a specific model
  --style <name>              Conversation style: friend, coach, assistant
  --session <id>              Resume a saved session
  --list                      List saved sessions
  --check-status              Check the inference server
  --export <id> [--out path]  Export a session to markdown
  --version                   Show version
  --help, -h                  Show this help

` + tui.UserLabelStyle.Render("CHAT COMMANDS:") + `
  /new [style]                Start a new conversation
  /save  /load <id>  /list    Manage sessions
  /delete <id>  /clear        Delete a session / clear the transcript
  /export [path]              Export transcript to markdown
  /status                     Check the inference server
  /quit                       Exit

` + tui.UserLabelStyle.Render("CONFIGURATION:") + `
  ~/.config/companion/config.yaml, or COMPANION_* environment variables
  (COMPANION_BASE_URL, COMPANION_MODEL, COMPANION_DEFAULT_STYLE, ...)

` + strings.TrimSpace(tui.HelpStyle.Render("Runs against any OpenAI-compatible local server (LM Studio, Ollama).")) + `
`
	fmt.Println(help)
}
