// Package mode defines the mode controller interface and shared services.
package mode

import (
	tea "github.com/charmbracelet/bubbletea"

	"orgreg/internal/catalog"
	"orgreg/internal/config"
	"orgreg/internal/draft"
	"orgreg/internal/mode/shared"
	"orgreg/internal/platform"
	"orgreg/internal/session"
	"orgreg/internal/ui/toaster"
)

// AppMode identifies the current application mode.
type AppMode int

const (
	ModeRegister AppMode = iota
	ModeDashboard
)

// Controller defines the interface all modes must implement.
type Controller interface {
	// Init returns initial commands for the mode.
	Init() tea.Cmd

	// Update handles messages and returns updated model and commands.
	Update(msg tea.Msg) (Controller, tea.Cmd)

	// View renders the mode's UI.
	View() string

	// SetSize handles terminal resize events.
	SetSize(width, height int) Controller
}

// Services contains shared dependencies injected into mode controllers.
type Services struct {
	Client    *platform.Client
	Session   *session.Provider
	Catalogs  *catalog.Service
	Drafts    draft.Repository
	Config    *config.Config
	Clipboard shared.Clipboard
	Clock     shared.Clock
}

// ShowToastMsg requests the root model display a toast notification.
// Description is optional and renders below the title when present.
type ShowToastMsg struct {
	Title       string
	Description string
	Style       toaster.Style
}
