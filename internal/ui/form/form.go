package form

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"orgreg/internal/keys"
)

// SubmitMsg is sent when the form is submitted successfully.
//
// The Values map contains all field values keyed by FieldConfig.Key.
// Text fields yield string values; select fields yield the selected
// option's Value (empty string when nothing is selected).
type SubmitMsg struct {
	Values map[string]any // Field values keyed by FieldConfig.Key
}

// CancelMsg is sent when the form is cancelled (via Esc key or Cancel button).
type CancelMsg struct{}

// spinnerFrames defines the braille spinner animation sequence shown
// while the form is in the loading state.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinnerTickMsg advances the loading spinner.
type spinnerTickMsg struct{}

// Model is the form state.
//
// Create a new Model with New(cfg). Model is immutable - all methods return
// a new Model rather than modifying the receiver.
type Model struct {
	config        Config
	fields        []fieldState
	focusedIndex  int // Index into fields (-1 = on buttons)
	focusedButton int // 0 = submit, 1 = cancel (when focusedIndex == -1)

	// Viewport for overlay positioning
	width, height int

	// Validation error shown above the buttons
	validationError string

	// loadingText, if non-empty, shows a loading indicator instead of
	// buttons and makes the form ignore keyboard input.
	loadingText  string
	spinnerFrame int
}

// New creates a new form with the given configuration.
//
// The form starts with focus on the first field (or the submit button
// if there are no fields). Use SetSize to set viewport dimensions
// before rendering.
func New(cfg Config) Model {
	m := Model{
		config: cfg,
		fields: make([]fieldState, len(cfg.Fields)),
	}

	for i, fieldCfg := range cfg.Fields {
		m.fields[i] = newFieldState(fieldCfg)
	}

	if len(m.fields) > 0 {
		m.focusedIndex = 0
		fs := &m.fields[0]
		if fs.config.Type == FieldTypeText {
			fs.textInput.Focus()
		}
	} else {
		m.focusedIndex = -1
	}

	return m
}

// Init returns the initial command for the Bubble Tea model.
// Returns a cursor blink command if the first focused field has a text input.
func (m Model) Init() tea.Cmd {
	if m.focusedIndex >= 0 && m.focusedIndex < len(m.fields) {
		if m.fields[m.focusedIndex].config.Type == FieldTypeText {
			return textinput.Blink
		}
	}
	return nil
}

// Update handles messages for the form.
//
// Returns SubmitMsg when the form is submitted successfully, CancelMsg when
// cancelled. Returns nil commands for internal state changes.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinnerTickMsg:
		if m.loadingText == "" {
			return m, nil
		}
		m.spinnerFrame++
		return m, spinnerTick()

	case tea.KeyMsg:
		// Ignore keyboard input while loading
		if m.loadingText != "" {
			return m, nil
		}
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		if m.loadingText != "" {
			return m, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease {
			if cmd := m.handleButtonClick(msg); cmd != nil {
				return m, cmd
			}
			if cmd, ok := m.handleItemClick(msg); ok {
				return m, cmd
			}
			if m.handleFieldClick(msg) {
				return m, m.blinkCmd()
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	// Forward to focused text input if applicable
	if m.focusedIndex >= 0 && m.focusedIndex < len(m.fields) {
		fs := &m.fields[m.focusedIndex]
		if fs.config.Type == FieldTypeText {
			var cmd tea.Cmd
			fs.textInput, cmd = fs.textInput.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// handleKeyMsg processes keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	// Handle Esc - a SearchSelect consumes it to collapse before the
	// form treats it as cancel.
	if key.Matches(msg, keys.Common.Escape) {
		if m.focusedIndex >= 0 && m.focusedIndex < len(m.fields) {
			fs := &m.fields[m.focusedIndex]
			if fs.config.Type == FieldTypeSearchSelect && fs.searchExpanded {
				fs.searchExpanded = false
				fs.searchInput.Blur()
				return m, nil
			}
		}
		return m, m.cancelCmd()
	}

	// Ctrl+S submits from any field
	if key.Matches(msg, keys.Component.Save) {
		return m.submit()
	}

	// SearchSelect has its own two-state key handling
	if m.focusedIndex >= 0 && m.focusedIndex < len(m.fields) {
		fs := &m.fields[m.focusedIndex]
		if fs.config.Type == FieldTypeSearchSelect {
			return m.handleKeyForSearchSelect(msg, fs)
		}
	}

	switch {
	case key.Matches(msg, keys.Component.Tab), key.Matches(msg, keys.Component.Next):
		m = m.nextField()
		return m, m.blinkCmd()

	case key.Matches(msg, keys.Component.ShiftTab), key.Matches(msg, keys.Component.Prev):
		m = m.prevField()
		return m, m.blinkCmd()

	case key.Matches(msg, keys.Common.Enter):
		return m.handleEnter()

	case key.Matches(msg, keys.Common.Left):
		if m.focusedIndex == -1 && m.focusedButton == 1 {
			m.focusedButton = 0
			return m, nil
		}

	case key.Matches(msg, keys.Common.Right):
		if m.focusedIndex == -1 && m.focusedButton == 0 {
			m.focusedButton = 1
			return m, nil
		}

	case key.Matches(msg, keys.Common.Down):
		// j should type in text inputs, not navigate
		if msg.String() == "j" && m.isTextFieldFocused() {
			break
		}
		if m.focusedIndex >= 0 && m.focusedIndex < len(m.fields) {
			fs := &m.fields[m.focusedIndex]
			if fs.config.Type == FieldTypeText {
				m = m.nextField()
				return m, m.blinkCmd()
			}
			if fs.config.Type == FieldTypeSelect {
				// At bottom (or empty list), escape to next field
				if len(fs.listItems) == 0 || fs.listCursor >= len(fs.listItems)-1 {
					m = m.nextField()
					return m, m.blinkCmd()
				}
				fs.listCursor++
				return m, nil
			}
		} else if m.focusedIndex == -1 {
			// On buttons: Submit -> Cancel -> first field
			if m.focusedButton == 0 {
				m.focusedButton = 1
				return m, nil
			} else if len(m.fields) > 0 {
				m.focusedIndex = 0
				m.focusFieldForward()
				return m, m.blinkCmd()
			}
		}

	case key.Matches(msg, keys.Common.Up):
		// k should type in text inputs, not navigate
		if msg.String() == "k" && m.isTextFieldFocused() {
			break
		}
		if m.focusedIndex >= 0 && m.focusedIndex < len(m.fields) {
			fs := &m.fields[m.focusedIndex]
			if fs.config.Type == FieldTypeText {
				m = m.prevField()
				return m, m.blinkCmd()
			}
			if fs.config.Type == FieldTypeSelect {
				// At top (or empty list), escape to previous field
				if len(fs.listItems) == 0 || fs.listCursor <= 0 {
					m = m.prevField()
					return m, m.blinkCmd()
				}
				fs.listCursor--
				return m, nil
			}
		} else if m.focusedIndex == -1 {
			// On buttons: Cancel -> Submit -> last field
			if m.focusedButton == 1 {
				m.focusedButton = 0
				return m, nil
			} else if len(m.fields) > 0 {
				m.focusedIndex = len(m.fields) - 1
				m.focusFieldBackward()
				return m, m.blinkCmd()
			}
		}

	case key.Matches(msg, keys.Component.Toggle):
		if m.focusedIndex >= 0 && m.focusedIndex < len(m.fields) {
			fs := &m.fields[m.focusedIndex]
			if fs.config.Type == FieldTypeSelect {
				return m, m.selectAtCursor(fs)
			}
		}
	}

	// Forward to focused text input for character input
	if m.focusedIndex >= 0 && m.focusedIndex < len(m.fields) {
		fs := &m.fields[m.focusedIndex]
		if fs.config.Type == FieldTypeText {
			var cmd tea.Cmd
			fs.textInput, cmd = fs.textInput.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// handleEnter processes Enter key based on current focus.
func (m Model) handleEnter() (Model, tea.Cmd) {
	if m.focusedIndex >= 0 && m.focusedIndex < len(m.fields) {
		fs := &m.fields[m.focusedIndex]

		if fs.config.Type == FieldTypeSelect {
			return m, m.selectAtCursor(fs)
		}

		// Text fields: advance to next field
		m = m.nextField()
		return m, m.blinkCmd()
	}

	// On buttons
	switch m.focusedButton {
	case 0: // Submit
		return m.submit()
	case 1: // Cancel
		return m, m.cancelCmd()
	}

	return m, nil
}

// handleKeyForSearchSelect processes keyboard input for searchable select
// fields. Collapsed the field shows the selected value and Enter expands it;
// expanded it shows a filter input plus the matching options.
//
// Uses arrow keys (not j/k) for list navigation to avoid conflicts with typing.
func (m Model) handleKeyForSearchSelect(msg tea.KeyMsg, fs *fieldState) (Model, tea.Cmd) {
	if !fs.searchExpanded {
		switch {
		case key.Matches(msg, keys.Component.Tab), msg.Type == tea.KeyDown, key.Matches(msg, keys.Component.Next), msg.String() == "j":
			return m.nextField(), m.blinkCmd()
		case key.Matches(msg, keys.Component.ShiftTab), msg.Type == tea.KeyUp, key.Matches(msg, keys.Component.Prev), msg.String() == "k":
			return m.prevField(), m.blinkCmd()
		case key.Matches(msg, keys.Common.Enter):
			m.expandSearch(fs)
			return m, textinput.Blink
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Component.Tab):
		fs.searchExpanded = false
		fs.searchInput.Blur()
		return m.nextField(), m.blinkCmd()

	case key.Matches(msg, keys.Component.ShiftTab):
		fs.searchExpanded = false
		fs.searchInput.Blur()
		return m.prevField(), m.blinkCmd()

	// Note: Escape is handled in handleKeyMsg before dispatch to collapse search

	case msg.Type == tea.KeyDown, key.Matches(msg, keys.Component.Next):
		if len(fs.searchFiltered) > 0 && fs.listCursor < len(fs.searchFiltered)-1 {
			fs.listCursor++
			m.ensureSearchCursorVisible(fs)
		}
		return m, nil

	case msg.Type == tea.KeyUp, key.Matches(msg, keys.Component.Prev):
		if fs.listCursor > 0 {
			fs.listCursor--
			m.ensureSearchCursorVisible(fs)
		}
		return m, nil

	case key.Matches(msg, keys.Common.Enter):
		var cmd tea.Cmd
		if len(fs.searchFiltered) > 0 && fs.listCursor < len(fs.searchFiltered) {
			cmd = m.applySelection(fs, fs.searchFiltered[fs.listCursor])
		}
		fs.searchExpanded = false
		fs.searchInput.Blur()
		return m, cmd

	default:
		// Forward all other keys to the filter input (including j/k for typing)
		var cmd tea.Cmd
		fs.searchInput, cmd = fs.searchInput.Update(msg)
		m.updateSearchFilter(fs)
		return m, cmd
	}
}

// expandSearch opens the search list positioned at the current selection.
func (m *Model) expandSearch(fs *fieldState) {
	fs.searchExpanded = true
	fs.searchInput.SetValue("")
	fs.searchInput.Focus()
	m.updateSearchFilter(fs)
	for i, idx := range fs.searchFiltered {
		if fs.listItems[idx].selected {
			fs.listCursor = i
			break
		}
	}
	fs.scrollOffset = 0
	m.ensureSearchCursorVisible(fs)
}

// updateSearchFilter filters items based on current search text.
func (m *Model) updateSearchFilter(fs *fieldState) {
	query := strings.ToLower(fs.searchInput.Value())

	if query == "" {
		fs.searchFiltered = make([]int, len(fs.listItems))
		for i := range fs.listItems {
			fs.searchFiltered[i] = i
		}
	} else {
		fs.searchFiltered = nil
		for i, item := range fs.listItems {
			if strings.Contains(strings.ToLower(item.label), query) {
				fs.searchFiltered = append(fs.searchFiltered, i)
			}
		}
	}

	if fs.listCursor >= len(fs.searchFiltered) {
		fs.listCursor = 0
		fs.scrollOffset = 0
	}
}

// ensureSearchCursorVisible adjusts scroll offset to keep cursor in view.
func (m *Model) ensureSearchCursorVisible(fs *fieldState) {
	maxVisible := fs.config.MaxVisibleItems
	if maxVisible <= 0 {
		maxVisible = 5
	}

	if fs.listCursor >= fs.scrollOffset+maxVisible {
		fs.scrollOffset = fs.listCursor - maxVisible + 1
	}
	if fs.listCursor < fs.scrollOffset {
		fs.scrollOffset = fs.listCursor
	}
}

// selectAtCursor selects the option under the cursor of a select field.
func (m *Model) selectAtCursor(fs *fieldState) tea.Cmd {
	if fs.listCursor < 0 || fs.listCursor >= len(fs.listItems) {
		return nil
	}
	return m.applySelection(fs, fs.listCursor)
}

// applySelection marks exactly one option selected and produces the
// field's OnChange message when the value changed.
func (m *Model) applySelection(fs *fieldState, index int) tea.Cmd {
	prev := fs.selectedValue()
	for i := range fs.listItems {
		fs.listItems[i].selected = i == index
	}
	next := fs.selectedValue()

	if next != prev && fs.config.OnChange != nil {
		onChange := fs.config.OnChange
		return func() tea.Msg { return onChange(next) }
	}
	return nil
}

// submit validates and submits the form.
func (m Model) submit() (Model, tea.Cmd) {
	// Clear previous errors
	m.validationError = ""
	for i := range m.fields {
		m.fields[i].errMsg = ""
	}

	values := make(map[string]any)
	for i := range m.fields {
		values[m.fields[i].config.Key] = m.fields[i].value()
	}

	if m.config.Validate != nil {
		if err := m.config.Validate(values); err != nil {
			m.validationError = err.Error()
			return m, nil
		}
	}

	if m.config.OnSubmit != nil {
		onSubmit := m.config.OnSubmit
		return m, func() tea.Msg { return onSubmit(values) }
	}
	return m, func() tea.Msg { return SubmitMsg{Values: values} }
}

// cancelCmd produces the cancel message.
func (m Model) cancelCmd() tea.Cmd {
	if m.config.OnCancel != nil {
		onCancel := m.config.OnCancel
		return func() tea.Msg { return onCancel() }
	}
	return func() tea.Msg { return CancelMsg{} }
}

// nextField moves focus to the next field or button.
func (m Model) nextField() Model {
	if m.focusedIndex >= 0 {
		m.blurCurrentField()

		if m.focusedIndex+1 < len(m.fields) {
			m.focusedIndex++
			m.focusFieldForward()
		} else {
			m.focusedIndex = -1
			m.focusedButton = 0
		}
	} else {
		if m.focusedButton == 0 {
			m.focusedButton = 1
		} else if len(m.fields) > 0 {
			// Wrap to first field
			m.focusedIndex = 0
			m.focusFieldForward()
		} else {
			m.focusedButton = 0
		}
	}
	return m
}

// prevField moves focus to the previous field or button.
func (m Model) prevField() Model {
	if m.focusedIndex >= 0 {
		m.blurCurrentField()

		if m.focusedIndex > 0 {
			m.focusedIndex--
			m.focusFieldBackward()
		} else {
			// Wrap to cancel button
			m.focusedIndex = -1
			m.focusedButton = 1
		}
	} else {
		if m.focusedButton == 1 {
			m.focusedButton = 0
		} else if len(m.fields) > 0 {
			m.focusedIndex = len(m.fields) - 1
			m.focusFieldBackward()
		} else {
			m.focusedButton = 1
		}
	}
	return m
}

// focusFieldForward sets focus on the current field when navigating forward.
func (m *Model) focusFieldForward() {
	fs := &m.fields[m.focusedIndex]
	switch fs.config.Type {
	case FieldTypeText:
		fs.textInput.Focus()
	case FieldTypeSelect:
		// Position cursor at first item when entering from above
		fs.listCursor = 0
	case FieldTypeSearchSelect:
		// Start collapsed - user must press Enter to expand
		fs.searchExpanded = false
	}
}

// focusFieldBackward sets focus on the current field when navigating backward.
func (m *Model) focusFieldBackward() {
	fs := &m.fields[m.focusedIndex]
	switch fs.config.Type {
	case FieldTypeText:
		fs.textInput.Focus()
	case FieldTypeSelect:
		// Position cursor at last item when entering from below
		if len(fs.listItems) > 0 {
			fs.listCursor = len(fs.listItems) - 1
		}
	case FieldTypeSearchSelect:
		fs.searchExpanded = false
	}
}

// blurCurrentField removes focus from the currently focused field.
func (m *Model) blurCurrentField() {
	if m.focusedIndex < 0 || m.focusedIndex >= len(m.fields) {
		return
	}
	fs := &m.fields[m.focusedIndex]
	switch fs.config.Type {
	case FieldTypeText:
		fs.textInput.Blur()
	case FieldTypeSearchSelect:
		fs.searchInput.Blur()
		fs.searchExpanded = false // Collapse when leaving field
	}
}

// isTextFieldFocused reports whether the focused field is a text input.
func (m Model) isTextFieldFocused() bool {
	return m.focusedIndex >= 0 && m.focusedIndex < len(m.fields) &&
		m.fields[m.focusedIndex].config.Type == FieldTypeText
}

// blinkCmd returns the blink command if the currently focused field is a text input.
func (m Model) blinkCmd() tea.Cmd {
	if m.focusedIndex >= 0 && m.focusedIndex < len(m.fields) {
		fs := &m.fields[m.focusedIndex]
		switch fs.config.Type {
		case FieldTypeText:
			return textinput.Blink
		case FieldTypeSearchSelect:
			if fs.searchExpanded {
				return textinput.Blink
			}
		}
	}
	return nil
}

// SetSize sets the viewport dimensions for overlay rendering.
// Call this before View() or Overlay() to ensure proper centering.
func (m Model) SetSize(w, h int) Model {
	m.width = w
	m.height = h
	return m
}

// SetLoading sets the loading state of the form.
// When text is non-empty, the form displays a progress indicator instead of
// buttons and ignores keyboard input. Pass empty string to clear loading state.
func (m Model) SetLoading(text string) Model {
	m.loadingText = text
	return m
}

// IsLoading returns true if the form is in loading state.
func (m Model) IsLoading() bool {
	return m.loadingText != ""
}

// Spin returns the command that animates the loading indicator.
// Issue it together with SetLoading.
func (m Model) Spin() tea.Cmd {
	return spinnerTick()
}

func spinnerTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

// SetError sets the form-level validation error message.
// Pass empty string to clear the error.
func (m Model) SetError(text string) Model {
	m.validationError = text
	return m
}

// SetFieldErrors replaces all field-local error messages with the given
// set, keyed by FieldConfig.Key. Previously set messages are cleared, so
// stale errors never survive a new attempt. Keys that match no field are
// returned so the caller can decide what to do with them.
func (m Model) SetFieldErrors(errs map[string]string) (Model, []string) {
	for i := range m.fields {
		m.fields[i].errMsg = ""
	}

	var unknown []string
	for key, msg := range errs {
		found := false
		for i := range m.fields {
			if m.fields[i].config.Key == key {
				m.fields[i].errMsg = msg
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, key)
		}
	}
	return m, unknown
}

// ClearFieldErrors removes all field-local error messages.
func (m Model) ClearFieldErrors() Model {
	m, _ = m.SetFieldErrors(nil)
	return m
}

// FieldError returns the field-local error for key, or "".
func (m Model) FieldError(key string) string {
	for i := range m.fields {
		if m.fields[i].config.Key == key {
			return m.fields[i].errMsg
		}
	}
	return ""
}

// SetFieldOptions replaces the options of a select field, keeping the
// current selection when its value still exists in the new set.
func (m Model) SetFieldOptions(key string, opts []ListOption) Model {
	for i := range m.fields {
		fs := &m.fields[i]
		if fs.config.Key != key {
			continue
		}
		if fs.config.Type == FieldTypeSelect || fs.config.Type == FieldTypeSearchSelect {
			fs.setOptions(opts)
		}
		break
	}
	return m
}

// Value returns the current value of the field with the given key.
func (m Model) Value(key string) any {
	for i := range m.fields {
		if m.fields[i].config.Key == key {
			return m.fields[i].value()
		}
	}
	return nil
}

// Values returns a map of all current field values.
func (m Model) Values() map[string]any {
	values := make(map[string]any)
	for i := range m.fields {
		values[m.fields[i].config.Key] = m.fields[i].value()
	}
	return values
}

// handleFieldClick checks if a field zone was clicked and focuses it.
// Returns true if a field was focused.
func (m *Model) handleFieldClick(msg tea.MouseMsg) bool {
	for i := range m.fields {
		fs := &m.fields[i]

		zoneID := makeFieldZoneID(i)
		z := zone.Get(zoneID)
		if z == nil || !z.InBounds(msg) {
			continue
		}

		m.blurCurrentField()
		m.focusedIndex = i
		switch fs.config.Type {
		case FieldTypeText:
			fs.textInput.Focus()
		case FieldTypeSearchSelect:
			// Toggle expanded state on click
			if fs.searchExpanded {
				fs.searchExpanded = false
				fs.searchInput.Blur()
			} else {
				m.expandSearch(fs)
			}
		}
		return true
	}
	return false
}

// handleItemClick checks if a select option zone was clicked and handles it.
func (m *Model) handleItemClick(msg tea.MouseMsg) (tea.Cmd, bool) {
	for fieldIdx := range m.fields {
		fs := &m.fields[fieldIdx]

		switch fs.config.Type {
		case FieldTypeSelect:
			for itemIdx := range fs.listItems {
				z := zone.Get(makeItemZoneID(fieldIdx, itemIdx))
				if z == nil || !z.InBounds(msg) {
					continue
				}
				m.blurCurrentField()
				m.focusedIndex = fieldIdx
				fs.listCursor = itemIdx
				return m.applySelection(fs, itemIdx), true
			}

		case FieldTypeSearchSelect:
			if !fs.searchExpanded {
				continue
			}
			for row, itemIdx := range fs.searchFiltered {
				z := zone.Get(makeItemZoneID(fieldIdx, itemIdx))
				if z == nil || !z.InBounds(msg) {
					continue
				}
				cmd := m.applySelection(fs, itemIdx)
				fs.listCursor = row
				fs.searchExpanded = false
				fs.searchInput.Blur()
				return cmd, true
			}
		}
	}
	return nil, false
}

// handleButtonClick checks if a button zone was clicked and handles it.
// Returns a tea.Cmd if a button was clicked, nil otherwise.
func (m *Model) handleButtonClick(msg tea.MouseMsg) tea.Cmd {
	if z := zone.Get(zoneSubmitButton); z != nil && z.InBounds(msg) {
		m.blurCurrentField()
		m.focusedIndex = -1
		m.focusedButton = 0
		// submit() has a value receiver, assign the returned model back
		newM, cmd := m.submit()
		*m = newM
		return cmd
	}

	if z := zone.Get(zoneCancelButton); z != nil && z.InBounds(msg) {
		m.blurCurrentField()
		m.focusedIndex = -1
		m.focusedButton = 1
		return m.cancelCmd()
	}

	return nil
}
