package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pcastell/companion/internal/chat"
)

type sessionItem struct {
	summary chat.Summary
}

func (i sessionItem) Title() string { return shortID(i.summary.ID) + "  " + i.summary.Style }
func (i sessionItem) Description() string {
	return fmt.Sprintf("%d turns · updated %s",
		i.summary.Turns, i.summary.UpdatedAt.Local().Format("2006-01-02 15:04"))
}
func (i sessionItem) FilterValue() string { return i.summary.ID }

// PickerModel is the /list overlay: saved sessions, newest first.
type PickerModel struct {
	list   list.Model
	active bool
}

func NewPickerModel() PickerModel {
	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = lipgloss.NewStyle().
		Foreground(Teal).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(Teal).
		PaddingLeft(1)
	d.Styles.SelectedDesc = d.Styles.SelectedTitle.Foreground(DimTeal)

	l := list.New(nil, d, 44, 14)
	l.Title = "Saved Sessions"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().Foreground(Teal).Bold(true).MarginLeft(2)

	return PickerModel{list: l}
}

// Open refreshes the picker from the manager and activates it.
func (p *PickerModel) Open(mgr *chat.Manager) {
	var items []list.Item
	for s := range mgr.List() {
		items = append(items, sessionItem{summary: s})
	}
	p.list.SetItems(items)
	p.list.ResetSelected()
	p.list.ResetFilter()
	p.active = len(items) > 0
}

// Selected returns the highlighted session id, if any.
func (p *PickerModel) Selected() (string, bool) {
	it, ok := p.list.SelectedItem().(sessionItem)
	if !ok {
		return "", false
	}
	return it.summary.ID, true
}

func (p PickerModel) Update(msg tea.Msg) (PickerModel, tea.Cmd) {
	if !p.active {
		return p, nil
	}
	var cmd tea.Cmd
	p.list, cmd = p.list.Update(msg)
	return p, cmd
}

func (p PickerModel) View() string {
	if !p.active {
		return ""
	}
	return PickerBoxStyle.Render(p.list.View())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
