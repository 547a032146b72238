// Package dashboard shows the newly created organization with
// onboarding guidance for the freshly registered account.
package dashboard

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"orgreg/internal/keys"
	"orgreg/internal/log"
	"orgreg/internal/mode"
	"orgreg/internal/organization"
	"orgreg/internal/ui/markdown"
	"orgreg/internal/ui/toaster"
)

// copyBinding copies the organization GUID to the clipboard.
var copyBinding = key.NewBinding(
	key.WithKeys("c"),
	key.WithHelp("c", "copy guid"),
)

// quitBinding exits the application from the dashboard.
var quitBinding = key.NewBinding(
	key.WithKeys("q", "ctrl+c"),
	key.WithHelp("q", "quit"),
)

// onboardingTemplate is rendered below the organization details.
const onboardingTemplate = `## Welcome, %s

Your organization account is ready. A few things to do next:

1. **Invite your team** from the members page on the web dashboard.
2. **Review your profile** and replace the placeholder description.
3. **Connect a billing method** to unlock paid features.

Press ` + "`c`" + ` to copy your organization id, ` + "`q`" + ` to exit.`

// Model holds the dashboard mode state.
type Model struct {
	services mode.Services
	org      organization.Organization

	// registeredAt is when the organization was created, for the
	// relative timestamp in the header.
	registeredAt time.Time

	// onboarding caches the rendered markdown for the current width.
	onboarding      string
	onboardingWidth int

	width  int
	height int
}

// New creates the dashboard for a just-registered organization.
func New(services mode.Services, org organization.Organization) Model {
	registeredAt := time.Now()
	if services.Clock != nil {
		registeredAt = services.Clock.Now()
	}
	return Model{
		services:     services,
		org:          org,
		registeredAt: registeredAt,
	}
}

// Organization returns the organization being shown.
func (m Model) Organization() organization.Organization {
	return m.org
}

// Init implements the mode controller interface.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the dashboard mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, quitBinding), key.Matches(keyMsg, keys.Common.Quit):
		return m, tea.Quit

	case key.Matches(keyMsg, copyBinding):
		if m.services.Clipboard == nil {
			return m, nil
		}
		if err := m.services.Clipboard.Copy(m.org.GUID); err != nil {
			log.Warn(log.CatMode, "Clipboard copy failed", "error", err)
			return m, showToast("Could not copy to clipboard", toaster.StyleError)
		}
		return m, showToast("Organization id copied", toaster.StyleSuccess)
	}

	return m, nil
}

// showToast produces a ShowToastMsg command for the root model.
func showToast(title string, style toaster.Style) tea.Cmd {
	return func() tea.Msg {
		return mode.ShowToastMsg{Title: title, Style: style}
	}
}

// SetSize handles terminal resize events.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	return m
}

// renderOnboarding renders the onboarding markdown at the given width,
// caching the result. Render failures degrade to the raw text.
func (m *Model) renderOnboarding(width int) string {
	if m.onboarding != "" && m.onboardingWidth == width {
		return m.onboarding
	}

	content := fmt.Sprintf(onboardingTemplate, m.org.Name)

	style := ""
	if m.services.Config != nil {
		style = m.services.Config.UI.MarkdownStyle
	}

	renderer, err := markdown.New(width, style)
	if err != nil {
		log.Warn(log.CatUI, "Markdown renderer unavailable", "error", err)
		m.onboarding = content
	} else {
		rendered, err := renderer.Render(content)
		if err != nil {
			log.Warn(log.CatUI, "Onboarding render failed", "error", err)
			m.onboarding = content
		} else {
			m.onboarding = rendered
		}
	}

	m.onboardingWidth = width
	return m.onboarding
}
