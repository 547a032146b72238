package form

import (
	"github.com/charmbracelet/bubbles/textinput"
)

// fieldState holds runtime state for a field.
type fieldState struct {
	config FieldConfig // Original configuration

	// Text field state
	textInput textinput.Model

	// Select field state
	listCursor int        // Cursor position within list
	listItems  []listItem // Items with selection state

	// SearchSelect field state
	searchInput    textinput.Model // Search/filter input
	searchFiltered []int           // Indices into listItems matching search
	scrollOffset   int             // First visible item for scrolling
	searchExpanded bool            // Whether search list is expanded (vs showing selected value)

	// errMsg is the field-local validation message, empty when the
	// field is valid.
	errMsg string
}

// listItem tracks selection state for list items.
type listItem struct {
	label    string
	value    string
	selected bool
}

// newFieldState creates a fieldState from a FieldConfig.
func newFieldState(cfg FieldConfig) fieldState {
	fs := fieldState{
		config: cfg,
	}

	switch cfg.Type {
	case FieldTypeText:
		ti := textinput.New()
		ti.Placeholder = cfg.Placeholder
		ti.Prompt = ""
		if cfg.MaxLength > 0 {
			ti.CharLimit = cfg.MaxLength
		}
		if cfg.InitialValue != "" {
			ti.SetValue(cfg.InitialValue)
		}
		ti.Width = 36 // Default width, fits in a 50-wide form
		fs.textInput = ti

	case FieldTypeSelect:
		fs.setOptions(cfg.Options)

	case FieldTypeSearchSelect:
		fs.setOptions(cfg.Options)

		ti := textinput.New()
		ti.Placeholder = cfg.SearchPlaceholder
		if ti.Placeholder == "" {
			ti.Placeholder = "Search..."
		}
		ti.Prompt = ""
		ti.Width = 36
		fs.searchInput = ti
	}

	return fs
}

// setOptions replaces the option list, preserving a previously selected
// value when it still exists in the new set.
func (fs *fieldState) setOptions(opts []ListOption) {
	prev := fs.selectedValue()

	fs.listItems = make([]listItem, len(opts))
	fs.listCursor = 0
	selected := -1
	for i, opt := range opts {
		fs.listItems[i] = listItem{
			label:    opt.Label,
			value:    opt.Value,
			selected: opt.Selected,
		}
		if opt.Selected {
			selected = i
		}
		if prev != "" && opt.Value == prev {
			selected = i
		}
	}

	// Exactly one selection survives.
	for i := range fs.listItems {
		fs.listItems[i].selected = i == selected
	}
	if selected >= 0 {
		fs.listCursor = selected
	}

	// Reset the search filter to show everything.
	fs.searchFiltered = make([]int, len(fs.listItems))
	for i := range fs.listItems {
		fs.searchFiltered[i] = i
	}
	fs.scrollOffset = 0
}

// selectedValue returns the value of the selected option, or "".
func (fs *fieldState) selectedValue() string {
	for _, item := range fs.listItems {
		if item.selected {
			return item.value
		}
	}
	return ""
}

// value extracts the current value from the field state.
func (fs *fieldState) value() any {
	switch fs.config.Type {
	case FieldTypeText:
		return fs.textInput.Value()

	case FieldTypeSelect, FieldTypeSearchSelect:
		return fs.selectedValue()
	}
	return nil
}
