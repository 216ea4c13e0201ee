package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Core palette
	Teal      = lipgloss.Color("#00D4AA")
	Cyan      = lipgloss.Color("#4ECDC4")
	Amber     = lipgloss.Color("#FFB347")
	DimTeal   = lipgloss.Color("#0A5C4E")
	DarkGray  = lipgloss.Color("#3a3a4e")
	MidGray   = lipgloss.Color("#6a6a7e")
	LightGray = lipgloss.Color("#aaaaaa")
	White     = lipgloss.Color("#e0e0e0")
	Red       = lipgloss.Color("#FF4136")

	// Banner and status
	BannerStyle = lipgloss.NewStyle().
			Foreground(Teal).
			Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Background(DimTeal).
			Foreground(White).
			Bold(true).
			Padding(0, 1)

	// User messages
	UserLabelStyle = lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true)

	UserMsgStyle = lipgloss.NewStyle().
			Foreground(White)

	// Assistant messages
	AssistantLabelStyle = lipgloss.NewStyle().
				Foreground(Teal).
				Bold(true)

	AssistantMsgStyle = lipgloss.NewStyle().
				Foreground(LightGray)

	// Metrics footer under assistant replies
	MetricsStyle = lipgloss.NewStyle().
			Foreground(DarkGray).
			Italic(true)

	// System notices
	SystemMsgStyle = lipgloss.NewStyle().
			Foreground(MidGray).
			Italic(true)

	// Errors and warnings
	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(Amber).
			Bold(true)

	// Input
	InputBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(DimTeal).
				Padding(0, 1)

	// Spinner
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(Teal)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(DimTeal)

	// Separator
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(DimTeal)

	// Picker box
	PickerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Teal).
			Padding(0, 1)
)

const Banner = `
   ██████╗ ██████╗ ███╗   ███╗██████╗  █████╗ ███╗   ██╗██╗ ██████╗ ███╗   ██╗
  ██╔════╝██╔═══██╗████╗ ████║██╔══██╗██╔══██╗████╗  ██║██║██╔═══██╗████╗  ██║
  ██║     ██║   ██║██╔████╔██║██████╔╝███████║██╔██╗ ██║██║██║   ██║██╔██╗ ██║
  ██║     ██║   ██║██║╚██╔╝██║██╔═══╝ ██╔══██║██║╚██╗██║██║██║   ██║██║╚██╗██║
  ╚██████╗╚██████╔╝██║ ╚═╝ ██║██║     ██║  ██║██║ ╚████║██║╚██████╔╝██║ ╚████║
   ╚═════╝ ╚═════╝ ╚═╝     ╚═╝╚═╝     ╚═╝  ╚═╝╚═╝  ╚═══╝╚═╝ ╚═════╝ ╚═╝  ╚═══╝
`
