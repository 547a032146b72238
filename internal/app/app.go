// Package app contains the root application model.
package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"orgreg/internal/log"
	"orgreg/internal/mode"
	"orgreg/internal/mode/dashboard"
	"orgreg/internal/mode/register"
	"orgreg/internal/session"
	"orgreg/internal/ui/toaster"
)

// toastDuration is how long a toast stays on screen.
const toastDuration = 3 * time.Second

// sessionReloadedMsg signals that the credentials file changed and was
// reloaded.
type sessionReloadedMsg struct{}

// Model is the root application state.
type Model struct {
	// Mode management
	currentMode mode.AppMode
	register    register.Model
	dashboard   dashboard.Model

	// Shared services (passed to mode controllers)
	services mode.Services

	// Global state
	width  int
	height int

	// Centralized toaster, owned by app rather than individual modes
	toaster toaster.Model

	// Credentials file watcher (nil when watching is disabled)
	sessionWatcher *session.Watcher
	sessionReloads <-chan struct{}
}

// New creates the application model. The session watcher is optional;
// pass nil when credentials watching is disabled.
func New(services mode.Services, sessionWatcher *session.Watcher) Model {
	m := Model{
		currentMode:    mode.ModeRegister,
		register:       register.New(services),
		services:       services,
		toaster:        toaster.New(),
		sessionWatcher: sessionWatcher,
	}

	if sessionWatcher != nil {
		reloads, err := sessionWatcher.Start()
		if err != nil {
			// The app works without live credential reloads
			log.Warn(log.CatSession, "Credentials watcher failed to start", "error", err)
			m.sessionWatcher = nil
		} else {
			m.sessionReloads = reloads
		}
	}

	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.register.Init()}
	if m.sessionReloads != nil {
		cmds = append(cmds, m.waitForSessionReload())
	}
	return tea.Batch(cmds...)
}

// waitForSessionReload listens for the next credentials reload.
func (m Model) waitForSessionReload() tea.Cmd {
	reloads := m.sessionReloads
	return func() tea.Msg {
		if _, ok := <-reloads; !ok {
			return nil
		}
		return sessionReloadedMsg{}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		m.register = m.register.SetSize(msg.Width, msg.Height)
		m.dashboard = m.dashboard.SetSize(msg.Width, msg.Height)
		m.toaster = m.toaster.SetSize(msg.Width, msg.Height)

		return m, nil

	case register.RegisteredMsg:
		log.Info(log.CatMode, "Switching mode", "from", "register", "to", "dashboard")
		m.currentMode = mode.ModeDashboard
		m.dashboard = dashboard.New(m.services, msg.Organization).SetSize(m.width, m.height)
		return m, m.dashboard.Init()

	case sessionReloadedMsg:
		log.Info(log.CatSession, "Credentials reloaded")
		return m, tea.Batch(
			m.waitForSessionReload(),
			func() tea.Msg {
				return mode.ShowToastMsg{Title: "Credentials refreshed", Style: toaster.StyleInfo}
			},
		)

	case mode.ShowToastMsg:
		m.toaster = m.toaster.ShowWithDescription(msg.Title, msg.Description, msg.Style)
		return m, toaster.ScheduleDismiss(toastDuration)

	case toaster.DismissMsg:
		m.toaster = m.toaster.Hide()
		return m, nil
	}

	// Delegate all other messages to the active mode controller
	switch m.currentMode {
	case mode.ModeDashboard:
		var cmd tea.Cmd
		m.dashboard, cmd = m.dashboard.Update(msg)
		return m, cmd
	default:
		var cmd tea.Cmd
		m.register, cmd = m.register.Update(msg)
		return m, cmd
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var view string
	switch m.currentMode {
	case mode.ModeDashboard:
		view = m.dashboard.View()
	default:
		view = m.register.View()
	}

	// Overlay toaster on top of the active mode's view
	if m.toaster.Visible() {
		view = m.toaster.Overlay(view, m.width, m.height)
	}
	return view
}

// Close releases resources held by the application.
func (m *Model) Close() error {
	if m.sessionWatcher != nil {
		return m.sessionWatcher.Stop()
	}
	return nil
}
