package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"orgreg/internal/mode/shared"
	"orgreg/internal/ui/styles"
)

// panelWidth is the fixed width of the dashboard panel.
const panelWidth = 72

// View renders the organization details panel and onboarding content
// centered in the viewport.
func (m Model) View() string {
	labelStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor).Width(10)
	valueStyle := lipgloss.NewStyle().Foreground(styles.TextPrimaryColor)

	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}

	registered := "now"
	if m.services.Clock != nil {
		registered = shared.FormatRelativeTimeWithClock(m.registeredAt, m.services.Clock)
	}

	rows := []string{
		row("Name", m.org.Name),
		row("Email", m.org.Email),
		row("Industry", m.org.Industry),
		row("Type", m.org.Type),
		row("Location", strings.TrimSuffix(m.org.State+", "+m.org.Country, ", ")),
		row("Address", m.org.Address),
		row("Id", m.org.GUID),
		row("Created", registered),
	}

	panel := styles.FormSection(styles.FormSectionConfig{
		Content: rows,
		Width:   panelWidth,
		TopLeft: "Your Organization",
	})

	onboarding := m.renderOnboarding(panelWidth - 2)

	content := lipgloss.JoinVertical(lipgloss.Left, panel, onboarding)

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	return content
}
