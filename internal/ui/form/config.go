// Package form provides a configuration-driven form component.
//
// Use form when a screen needs:
//   - Multiple field types (text, select, searchable select)
//   - Consistent keyboard navigation (Tab/Shift+Tab to cycle fields)
//   - Built-in validation with field-local error messages
//   - A submitting state that disables input and shows a progress indicator
//
// Message Flow:
//
// When the form is submitted successfully, form sends a SubmitMsg containing
// a Values map with all field values keyed by FieldConfig.Key. When cancelled,
// it sends a CancelMsg. Select fields with OnChange set additionally produce
// the factory's message whenever their selection changes.
//
// Wrapper Pattern (using message factories):
//
// To integrate the form into a mode controller while preserving its API, use
// OnSubmit and OnCancel factories to produce custom message types directly:
//
//	cfg := form.Config{
//	    Title:  "Register",
//	    Fields: []form.FieldConfig{...},
//	    OnSubmit: func(values map[string]any) tea.Msg {
//	        return submitRequestedMsg{values: values}
//	    },
//	}
//
// If OnSubmit/OnCancel are nil, the form produces the default
// SubmitMsg/CancelMsg types.
package form

import (
	tea "github.com/charmbracelet/bubbletea"
)

// FieldType identifies the type of form field.
type FieldType int

const (
	// FieldTypeText is a single-line text input field.
	// Uses the textinput bubble for handling input.
	// Supports Placeholder, MaxLength, and InitialValue options.
	FieldTypeText FieldType = iota

	// FieldTypeSelect is a single-select list (radio button style).
	// Navigate with j/k, selecting automatically deselects others.
	// Supports Options and OnChange.
	FieldTypeSelect

	// FieldTypeSearchSelect is a single-select list behind a search input.
	// Collapsed it shows the selected value; Enter expands to a filter
	// input plus the matching options. Supports Options, OnChange,
	// SearchPlaceholder and MaxVisibleItems.
	FieldTypeSearchSelect
)

// FieldConfig defines a single form field.
//
// Common fields for all types:
//   - Key: Unique identifier used as the map key in SubmitMsg.Values
//   - Label: Section header displayed above the field
//   - Hint: Displayed next to label (e.g., "required", "optional")
type FieldConfig struct {
	Key   string    // Unique identifier for this field (used in SubmitMsg.Values)
	Type  FieldType // Type of field
	Label string    // Section label (e.g., "Company Name")
	Hint  string    // Section hint (e.g., "required", "optional")

	// Text field options
	Placeholder  string // Placeholder text for text inputs
	MaxLength    int    // Character limit (0 = unlimited)
	InitialValue string // Pre-filled value

	// Select field options
	Options []ListOption // Available options for select fields

	// SearchSelect field options
	SearchPlaceholder string // Placeholder for the filter input (default: "Search...")
	MaxVisibleItems   int    // Visible rows when expanded (default: 5)

	// OnChange produces a message whenever a select field's selection
	// changes. Ignored for text fields.
	OnChange func(value string) tea.Msg
}

// ListOption represents an item in a select field.
//
// Label is displayed to the user, Value is returned in SubmitMsg.Values.
type ListOption struct {
	Label    string // Display text
	Value    string // Programmatic value (returned in SubmitMsg)
	Selected bool   // Initially selected
}

// Config defines the complete form configuration.
//
// The Validate function receives all field values and should return an error
// if validation fails; the error message is displayed above the buttons. For
// per-field messages use SetFieldErrors on the model instead.
type Config struct {
	Title       string                     // Form title displayed at top
	Fields      []FieldConfig              // Form fields in display order
	SubmitLabel string                     // Submit button label (default: "Submit")
	CancelLabel string                     // Cancel button label (default: "Cancel")
	MinWidth    int                        // Minimum form width (default: 50)
	Validate    func(map[string]any) error // Validation function (optional)

	// OnSubmit produces a custom message when the form is submitted.
	// If nil, the form produces SubmitMsg{Values: values}.
	OnSubmit func(values map[string]any) tea.Msg

	// OnCancel produces a custom message when the form is cancelled.
	// If nil, the form produces CancelMsg{}.
	OnCancel func() tea.Msg
}
