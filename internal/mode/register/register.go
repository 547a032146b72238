// Package register implements the organization registration mode.
//
// The mode hosts the registration form, resolves the platform base URL
// through discovery, loads catalog options for the select fields, and
// submits the registration to the platform API. Form values persist as
// a local draft so a cancelled session can be resumed later.
package register

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"orgreg/internal/catalog"
	"orgreg/internal/keys"
	"orgreg/internal/draft"
	"orgreg/internal/log"
	"orgreg/internal/mode"
	"orgreg/internal/organization"
	"orgreg/internal/platform"
	"orgreg/internal/ui/form"
	"orgreg/internal/ui/toaster"
)

// requestTimeout bounds discovery, catalog and submission requests
// issued from commands.
const requestTimeout = 30 * time.Second

// resolveRetryDelay is how long to wait before retrying discovery
// after a failed attempt.
const resolveRetryDelay = 5 * time.Second

// Field keys double as the wire field names in the registration payload.
const (
	fieldName     = "name"
	fieldEmail    = "email"
	fieldIndustry = "industry"
	fieldType     = "type"
	fieldCountry  = "country"
	fieldState    = "state"
	fieldAddress  = "address"
)

// RegisteredMsg signals that the organization was created and the app
// should switch to the dashboard. It is sent at most once.
type RegisteredMsg struct {
	Organization organization.Organization
}

// resolvedMsg carries the discovered API base URL.
type resolvedMsg struct {
	baseURL string
}

// resolveFailedMsg signals that discovery failed.
type resolveFailedMsg struct {
	err error
}

// retryResolveMsg triggers another discovery attempt.
type retryResolveMsg struct{}

// catalogsLoadedMsg carries the select field options.
type catalogsLoadedMsg struct {
	industries []catalog.Item
	orgTypes   []catalog.Item
	countries  []catalog.Item
}

// statesLoadedMsg carries the states for a selected country.
type statesLoadedMsg struct {
	country string
	states  []catalog.Item
}

// countryChangedMsg is produced by the country field's OnChange hook.
type countryChangedMsg struct {
	country string
}

// submitRequestedMsg is produced by the form's OnSubmit hook.
type submitRequestedMsg struct {
	values map[string]any
}

// cancelRequestedMsg is produced by the form's OnCancel hook.
type cancelRequestedMsg struct{}

// submitResultMsg carries the outcome of a submission attempt.
type submitResultMsg struct {
	org organization.Organization
	err error
}

// Model holds the registration mode state.
type Model struct {
	services mode.Services
	form     form.Model

	width  int
	height int

	// resolving is true while a discovery attempt is in flight.
	resolving bool

	// resolveWarned suppresses repeat toasts across discovery retries.
	resolveWarned bool

	// submitting is true from submit until the attempt settles.
	submitting bool

	// registered latches after the first successful submission so the
	// dashboard switch fires exactly once.
	registered bool

	// current is the draft being edited, nil when starting fresh.
	current *draft.Draft

	industries []catalog.Item
	orgTypes   []catalog.Item
	countries  []catalog.Item
	states     []catalog.Item
}

// New creates the registration mode. The user's most recent draft, if
// any, pre-fills the form.
func New(services mode.Services) Model {
	m := Model{services: services}
	m.current = m.loadDraft()
	m.form = form.New(m.buildFormConfig())
	return m
}

// loadDraft returns the user's most recent draft, or nil.
func (m Model) loadDraft() *draft.Draft {
	if m.services.Drafts == nil || m.services.Session == nil {
		return nil
	}

	d, err := m.services.Drafts.FindLatest(m.services.Session.UserID())
	if err != nil {
		var nf *draft.NotFoundError
		if !errors.As(err, &nf) {
			log.Warn(log.CatDraft, "Failed to load draft", "error", err)
		}
		return nil
	}

	log.Info(log.CatDraft, "Resuming draft", "guid", d.GUID, "updatedAt", d.UpdatedAt)
	return d
}

// draftValue returns the saved draft value for a field key, or "".
func (m Model) draftValue(key string) string {
	if m.current == nil {
		return ""
	}
	return m.current.Values[key]
}

// buildFormConfig assembles the registration form. Select options start
// from the embedded catalog defaults and refresh once the platform
// catalogs load.
func (m Model) buildFormConfig() form.Config {
	return form.Config{
		Title:       "Register Organization",
		SubmitLabel: "Create",
		CancelLabel: "Cancel",
		MinWidth:    64,
		Fields: []form.FieldConfig{
			{
				Key:          fieldName,
				Type:         form.FieldTypeText,
				Label:        "Organization Name",
				Hint:         "required",
				Placeholder:  "Acme Inc",
				MaxLength:    120,
				InitialValue: m.draftValue(fieldName),
			},
			{
				Key:          fieldEmail,
				Type:         form.FieldTypeText,
				Label:        "Email",
				Hint:         "required",
				Placeholder:  "admin@acme.com",
				MaxLength:    254,
				InitialValue: m.draftValue(fieldEmail),
			},
			{
				Key:     fieldIndustry,
				Type:    form.FieldTypeSearchSelect,
				Label:   "Industry",
				Hint:    "required",
				Options: m.optionsFor(catalog.DefaultIndustries(), fieldIndustry),
			},
			{
				Key:     fieldType,
				Type:    form.FieldTypeSelect,
				Label:   "Organization Type",
				Hint:    "required",
				Options: m.optionsFor(catalog.DefaultOrgTypes(), fieldType),
			},
			{
				Key:               fieldCountry,
				Type:              form.FieldTypeSearchSelect,
				Label:             "Country",
				Hint:              "required",
				SearchPlaceholder: "Search countries...",
				Options:           m.optionsFor(catalog.DefaultCountries(), fieldCountry),
				OnChange: func(value string) tea.Msg {
					return countryChangedMsg{country: value}
				},
			},
			{
				Key:     fieldState,
				Type:    form.FieldTypeSearchSelect,
				Label:   "State",
				Hint:    "required",
				Options: m.optionsFor(catalog.DefaultStates(m.draftValue(fieldCountry)), fieldState),
			},
			{
				Key:          fieldAddress,
				Type:         form.FieldTypeText,
				Label:        "Address",
				Hint:         "required",
				Placeholder:  "1 Main Street",
				MaxLength:    200,
				InitialValue: m.draftValue(fieldAddress),
			},
		},
		OnSubmit: func(values map[string]any) tea.Msg {
			return submitRequestedMsg{values: values}
		},
		OnCancel: func() tea.Msg {
			return cancelRequestedMsg{}
		},
	}
}

// optionsFor converts catalog items to form options, marking the draft
// value selected when present.
func (m Model) optionsFor(items []catalog.Item, key string) []form.ListOption {
	saved := m.draftValue(key)
	opts := make([]form.ListOption, len(items))
	for i, item := range items {
		opts[i] = form.ListOption{
			Label:    item.Label,
			Value:    item.Value,
			Selected: saved != "" && item.Value == saved,
		}
	}
	return opts
}

// Init starts discovery and catalog loading alongside the form.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.form.Init(), m.loadCatalogsCmd()}
	if country := m.draftValue(fieldCountry); country != "" {
		cmds = append(cmds, m.loadStatesCmd(country))
	}
	if m.services.Client != nil && !m.services.Client.Resolved() {
		cmds = append(cmds, m.resolveCmd())
	}
	return tea.Batch(cmds...)
}

// Update handles messages for the registration mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resolvedMsg:
		m.resolving = false
		log.Info(log.CatDiscovery, "Platform endpoint resolved", "baseUrl", msg.baseURL)
		return m, nil

	case resolveFailedMsg:
		m.resolving = false
		log.Warn(log.CatDiscovery, "Discovery failed, will retry", "error", msg.err)
		retry := tea.Tick(resolveRetryDelay, func(time.Time) tea.Msg {
			return retryResolveMsg{}
		})
		if !m.resolveWarned {
			m.resolveWarned = true
			return m, tea.Batch(retry,
				showToast("Connection trouble",
					"Could not reach the platform, retrying in the background", toaster.StyleWarn))
		}
		return m, retry

	case retryResolveMsg:
		if m.services.Client != nil && !m.services.Client.Resolved() {
			return m, m.resolveCmd()
		}
		return m, nil

	case catalogsLoadedMsg:
		m.industries = msg.industries
		m.orgTypes = msg.orgTypes
		m.countries = msg.countries
		m.form = m.form.SetFieldOptions(fieldIndustry, m.optionsFor(msg.industries, fieldIndustry))
		m.form = m.form.SetFieldOptions(fieldType, m.optionsFor(msg.orgTypes, fieldType))
		m.form = m.form.SetFieldOptions(fieldCountry, m.optionsFor(msg.countries, fieldCountry))
		return m, nil

	case statesLoadedMsg:
		// Stale responses for a previously selected country are dropped
		if selected, _ := m.form.Value(fieldCountry).(string); selected != "" && selected != msg.country {
			return m, nil
		}
		m.states = msg.states
		m.form = m.form.SetFieldOptions(fieldState, m.optionsFor(msg.states, fieldState))
		return m, nil

	case countryChangedMsg:
		return m, m.loadStatesCmd(msg.country)

	case submitRequestedMsg:
		return m.handleSubmitRequested(msg.values)

	case submitResultMsg:
		return m.handleSubmitResult(msg)

	case cancelRequestedMsg:
		m.saveDraft()
		return m, tea.Quit

	case tea.KeyMsg:
		// Ctrl+C quits like cancel, saving the draft first
		if key.Matches(msg, keys.Common.Quit) {
			m.saveDraft()
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

// handleSubmitRequested validates the form values and, when valid,
// starts the submission.
func (m Model) handleSubmitRequested(values map[string]any) (Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}

	reg := organization.FromValues(values)

	if errs := reg.ValidateAgainst(m.membership()); errs != nil {
		log.Debug(log.CatMode, "Registration blocked by validation", "fields", len(errs))
		m.form, _ = m.form.SetFieldErrors(errs)
		return m, nil
	}

	if m.services.Session != nil && m.services.Session.Expired() {
		return m, showToast("Your session has expired", "Refresh your credentials and try again.", toaster.StyleWarn)
	}

	if m.services.Client == nil || !m.services.Client.Resolved() {
		cmds := []tea.Cmd{showToast("Still connecting to the platform", "Please try again in a moment.", toaster.StyleInfo)}
		if m.services.Client != nil && !m.resolving {
			cmds = append(cmds, m.resolveCmd())
		}
		return m, tea.Batch(cmds...)
	}

	m.submitting = true
	m.form, _ = m.form.SetFieldErrors(nil)
	m.form = m.form.SetLoading("Creating your organization...")
	return m, tea.Batch(m.submitCmd(reg), m.form.Spin())
}

// handleSubmitResult settles a submission attempt. Field errors replace
// any stale set from a previous attempt; other failures surface as a
// toast. Success switches to the dashboard exactly once.
func (m Model) handleSubmitResult(msg submitResultMsg) (Model, tea.Cmd) {
	m.submitting = false
	m.form = m.form.SetLoading("")

	if msg.err == nil {
		if m.registered {
			return m, nil
		}
		m.registered = true
		m.form, _ = m.form.SetFieldErrors(nil)
		m.deleteDraft()

		org := msg.org
		log.Info(log.CatMode, "Organization registered", "guid", org.GUID, "name", org.Name)
		return m, tea.Batch(
			showToast("Organization created", "", toaster.StyleSuccess),
			func() tea.Msg { return RegisteredMsg{Organization: org} },
		)
	}

	var verr *platform.ValidationError
	if errors.As(msg.err, &verr) {
		var unknown []string
		m.form, unknown = m.form.SetFieldErrors(verr.FieldMap())
		for _, field := range unknown {
			log.Warn(log.CatMode, "Server reported error for unknown field", "field", field)
		}
		return m, nil
	}

	log.ErrorErr(log.CatMode, "Registration failed", msg.err)
	return m, showToast(userMessage(msg.err), "", toaster.StyleError)
}

// membership builds the catalog sets the registration is checked
// against. Empty sets skip the membership check, so validation works
// before catalogs finish loading.
func (m Model) membership() organization.Catalogs {
	return organization.Catalogs{
		Industries: catalog.Values(m.currentOrDefault(m.industries, catalog.DefaultIndustries)),
		Types:      catalog.Values(m.currentOrDefault(m.orgTypes, catalog.DefaultOrgTypes)),
		Countries:  catalog.Values(m.currentOrDefault(m.countries, catalog.DefaultCountries)),
		States:     catalog.Values(m.states),
	}
}

// currentOrDefault prefers loaded catalog items over embedded defaults.
func (m Model) currentOrDefault(items []catalog.Item, fallback func() []catalog.Item) []catalog.Item {
	if len(items) > 0 {
		return items
	}
	return fallback()
}

// userMessage extracts the user-facing text from a submission error.
func userMessage(err error) string {
	var perr *platform.Error
	if errors.As(err, &perr) {
		return perr.UserMessage()
	}
	return platform.FallbackMessage
}

// showToast produces a ShowToastMsg command for the root model.
func showToast(title, description string, style toaster.Style) tea.Cmd {
	return func() tea.Msg {
		return mode.ShowToastMsg{Title: title, Description: description, Style: style}
	}
}

// saveDraft persists the current form values so the user can resume
// later. Empty forms are not saved.
func (m *Model) saveDraft() {
	if m.services.Drafts == nil || m.services.Session == nil || m.registered {
		return
	}

	values := make(map[string]string)
	for key, v := range m.form.Values() {
		s, _ := v.(string)
		values[key] = s
	}

	d := m.current
	if d == nil {
		d = draft.New(m.services.Session.UserID(), values)
	} else {
		d.Values = values
		d.Touch()
	}

	if d.Empty() {
		return
	}

	if err := m.services.Drafts.Save(d); err != nil {
		log.ErrorErr(log.CatDraft, "Failed to save draft", err)
		return
	}
	m.current = d
	log.Info(log.CatDraft, "Draft saved", "guid", d.GUID)
}

// deleteDraft removes the resumed draft after a successful registration.
func (m *Model) deleteDraft() {
	if m.current == nil || m.services.Drafts == nil {
		return
	}
	if err := m.services.Drafts.Delete(m.current.GUID); err != nil {
		log.Warn(log.CatDraft, "Failed to delete submitted draft", "guid", m.current.GUID, "error", err)
	}
	m.current = nil
}

// resolveCmd resolves the API base URL through the discovery endpoint.
func (m Model) resolveCmd() tea.Cmd {
	client := m.services.Client
	discoveryURL := ""
	if m.services.Config != nil {
		discoveryURL = m.services.Config.API.DiscoveryURL
	}
	if client == nil || discoveryURL == "" {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		baseURL, err := client.Resolve(ctx, discoveryURL)
		if err != nil {
			return resolveFailedMsg{err: err}
		}
		return resolvedMsg{baseURL: baseURL}
	}
}

// loadCatalogsCmd loads the industry, type and country options.
func (m Model) loadCatalogsCmd() tea.Cmd {
	svc := m.services.Catalogs
	if svc == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return catalogsLoadedMsg{
			industries: svc.Industries(ctx),
			orgTypes:   svc.OrgTypes(ctx),
			countries:  svc.Countries(ctx),
		}
	}
}

// loadStatesCmd loads the state options for a country.
func (m Model) loadStatesCmd(country string) tea.Cmd {
	svc := m.services.Catalogs
	if svc == nil || country == "" {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return statesLoadedMsg{country: country, states: svc.States(ctx, country)}
	}
}

// submitCmd sends the registration to the platform.
func (m Model) submitCmd(reg organization.Registration) tea.Cmd {
	client := m.services.Client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		org, err := client.CreateOrganization(ctx, reg)
		return submitResultMsg{org: org, err: err}
	}
}

// SetSize handles terminal resize events.
func (m Model) SetSize(width, height int) Model {
	m.width = width
	m.height = height
	m.form = m.form.SetSize(width, height)
	return m
}
