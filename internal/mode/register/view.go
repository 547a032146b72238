package register

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"orgreg/internal/ui/styles"
)

// View renders the form centered in the viewport with an optional
// status bar along the bottom.
func (m Model) View() string {
	bg := m.background()
	view := m.form.Overlay(bg)

	if m.services.Config != nil && m.services.Config.UI.ShowStatusBar {
		view = m.overlayStatusBar(view)
	}
	return view
}

// background fills the viewport so the form overlay has a canvas to
// composite onto.
func (m Model) background() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	line := strings.Repeat(" ", m.width)
	lines := make([]string, m.height)
	for i := range lines {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// overlayStatusBar replaces the last line of the view with session and
// endpoint status.
func (m Model) overlayStatusBar(view string) string {
	lines := strings.Split(view, "\n")
	if len(lines) == 0 {
		return view
	}

	mutedStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor)

	var parts []string
	if m.services.Session != nil {
		user := m.services.Session.UserID()
		if m.services.Session.Expired() {
			parts = append(parts, user+" (session expired)")
		} else {
			parts = append(parts, user)
		}
	}
	if m.services.Client != nil {
		if m.services.Client.Resolved() {
			parts = append(parts, m.services.Client.BaseURL())
		} else {
			parts = append(parts, "resolving endpoint...")
		}
	}

	bar := mutedStyle.Render(" " + strings.Join(parts, "  •  "))
	lines[len(lines)-1] = bar
	return strings.Join(lines, "\n")
}
