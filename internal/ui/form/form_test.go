package form

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/require"
)

func init() {
	zone.NewGlobal()
}

// getValues extracts field values from the model (test helper, accesses internal state)
func getValues(m Model) map[string]any {
	values := make(map[string]any)
	for i := range m.fields {
		values[m.fields[i].config.Key] = m.fields[i].value()
	}
	return values
}

func typeString(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// --- Focus Cycling Tests ---

func TestFocusCycling_Forward(t *testing.T) {
	cfg := Config{
		Title: "Test Form",
		Fields: []FieldConfig{
			{Key: "field1", Type: FieldTypeText, Label: "Field 1"},
			{Key: "field2", Type: FieldTypeText, Label: "Field 2"},
		},
	}
	m := New(cfg)

	// Start on first field
	require.Equal(t, 0, m.focusedIndex)

	// Tab to second field
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, 1, m.focusedIndex)

	// Tab to submit button
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, -1, m.focusedIndex, "expected buttons focus")
	require.Equal(t, 0, m.focusedButton, "expected submit button")

	// Tab to cancel button
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, 1, m.focusedButton, "expected cancel button")

	// Tab wraps to first field
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, 0, m.focusedIndex, "expected wrapped to first field")
}

func TestFocusCycling_Reverse(t *testing.T) {
	cfg := Config{
		Title: "Test Form",
		Fields: []FieldConfig{
			{Key: "field1", Type: FieldTypeText, Label: "Field 1"},
			{Key: "field2", Type: FieldTypeText, Label: "Field 2"},
		},
	}
	m := New(cfg)

	// Shift+Tab wraps to cancel button
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, -1, m.focusedIndex, "expected buttons focus")
	require.Equal(t, 1, m.focusedButton, "expected cancel button")

	// Shift+Tab to submit button
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, 0, m.focusedButton, "expected submit button")

	// Shift+Tab to second field
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, 1, m.focusedIndex)
}

// --- Submit / Cancel Tests ---

func TestSubmit_EmitsValues(t *testing.T) {
	var got map[string]any
	cfg := Config{
		Title: "Test Form",
		Fields: []FieldConfig{
			{Key: "name", Type: FieldTypeText, Label: "Name"},
		},
		OnSubmit: func(values map[string]any) tea.Msg {
			got = values
			return SubmitMsg{Values: values}
		},
	}
	m := New(cfg)
	m = typeString(m, "Acme Inc")

	// Ctrl+S submits from the field
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd, "expected submit command")
	cmd()
	require.Equal(t, "Acme Inc", got["name"])
}

func TestSubmit_ValidationBlocks(t *testing.T) {
	submitted := false
	cfg := Config{
		Title: "Test Form",
		Fields: []FieldConfig{
			{Key: "name", Type: FieldTypeText, Label: "Name"},
		},
		Validate: func(values map[string]any) error {
			if values["name"] == "" {
				return errors.New("name is required")
			}
			return nil
		},
		OnSubmit: func(values map[string]any) tea.Msg {
			submitted = true
			return nil
		},
	}
	m := New(cfg)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Nil(t, cmd, "expected no command when validation fails")
	require.False(t, submitted)
	require.Equal(t, "name is required", m.validationError)

	// Error is visible in the view
	require.Contains(t, m.View(), "name is required")
}

func TestSubmit_ClearsStaleErrors(t *testing.T) {
	cfg := Config{
		Title: "Test Form",
		Fields: []FieldConfig{
			{Key: "email", Type: FieldTypeText, Label: "Email"},
		},
		OnSubmit: func(values map[string]any) tea.Msg { return nil },
	}
	m := New(cfg)

	m, unknown := m.SetFieldErrors(map[string]string{"email": "has already been taken"})
	require.Empty(t, unknown)
	require.Equal(t, "has already been taken", m.FieldError("email"))

	// A new submission clears previous field errors before validating
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.Empty(t, m.FieldError("email"))
}

func TestCancel_EmitsCancelMsg(t *testing.T) {
	cancelled := false
	cfg := Config{
		Title:  "Test Form",
		Fields: []FieldConfig{{Key: "field1", Type: FieldTypeText, Label: "Field 1"}},
		OnCancel: func() tea.Msg {
			cancelled = true
			return CancelMsg{}
		},
	}
	m := New(cfg)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd, "expected cancel command")
	cmd()
	require.True(t, cancelled)
}

// --- Field Error Tests ---

func TestSetFieldErrors_UnknownKeysReported(t *testing.T) {
	cfg := Config{
		Title: "Test Form",
		Fields: []FieldConfig{
			{Key: "email", Type: FieldTypeText, Label: "Email"},
		},
	}
	m := New(cfg)

	m, unknown := m.SetFieldErrors(map[string]string{
		"email":    "invalid",
		"missing":  "no such field",
		"missing2": "also absent",
	})
	require.Equal(t, "invalid", m.FieldError("email"))
	require.ElementsMatch(t, []string{"missing", "missing2"}, unknown)
}

func TestSetFieldErrors_ReplacesPreviousSet(t *testing.T) {
	cfg := Config{
		Title: "Test Form",
		Fields: []FieldConfig{
			{Key: "name", Type: FieldTypeText, Label: "Name"},
			{Key: "email", Type: FieldTypeText, Label: "Email"},
		},
	}
	m := New(cfg)

	m, _ = m.SetFieldErrors(map[string]string{"name": "too short"})
	m, _ = m.SetFieldErrors(map[string]string{"email": "has already been taken"})

	require.Empty(t, m.FieldError("name"), "stale error should be cleared")
	require.Equal(t, "has already been taken", m.FieldError("email"))
}

func TestFieldErrors_RenderedUnderField(t *testing.T) {
	cfg := Config{
		Title: "Test Form",
		Fields: []FieldConfig{
			{Key: "email", Type: FieldTypeText, Label: "Email"},
		},
	}
	m := New(cfg)
	m, _ = m.SetFieldErrors(map[string]string{"email": "has already been taken"})

	require.Contains(t, m.View(), "has already been taken")
}

// --- Select Field Tests ---

func selectCfg() Config {
	return Config{
		Title: "Test Form",
		Fields: []FieldConfig{
			{
				Key:   "industry",
				Type:  FieldTypeSelect,
				Label: "Industry",
				Options: []ListOption{
					{Label: "Agriculture", Value: "Agriculture"},
					{Label: "Technology", Value: "Technology"},
					{Label: "Finance", Value: "Finance"},
				},
			},
		},
	}
}

func TestSelect_EnterPicksCursorItem(t *testing.T) {
	m := New(selectCfg())

	// Move cursor to second item and select it
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	values := getValues(m)
	require.Equal(t, "Technology", values["industry"])
}

func TestSelect_SingleSelection(t *testing.T) {
	m := New(selectCfg())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter}) // select Agriculture
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter}) // select Finance

	fs := &m.fields[0]
	selected := 0
	for _, item := range fs.listItems {
		if item.selected {
			selected++
		}
	}
	require.Equal(t, 1, selected, "exactly one option selected")
	require.Equal(t, "Finance", getValues(m)["industry"])
}

func TestSelect_OnChangeFires(t *testing.T) {
	type changedMsg struct{ value string }

	cfg := selectCfg()
	cfg.Fields[0].OnChange = func(value string) tea.Msg {
		return changedMsg{value: value}
	}
	m := New(cfg)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd, "expected change command")
	msg := cmd()
	require.Equal(t, changedMsg{value: "Agriculture"}, msg)
}

func TestSelect_OnChangeSkippedWhenUnchanged(t *testing.T) {
	cfg := selectCfg()
	cfg.Fields[0].Options[0].Selected = true
	cfg.Fields[0].OnChange = func(value string) tea.Msg {
		return value
	}
	m := New(cfg)

	// Re-selecting the already-selected item produces no command
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
}

func TestSetFieldOptions_PreservesSelection(t *testing.T) {
	m := New(selectCfg())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter}) // Technology

	m = m.SetFieldOptions("industry", []ListOption{
		{Label: "Technology", Value: "Technology"},
		{Label: "Mining", Value: "Mining"},
	})
	require.Equal(t, "Technology", getValues(m)["industry"])
}

func TestSetFieldOptions_DropsVanishedSelection(t *testing.T) {
	m := New(selectCfg())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter}) // Agriculture

	m = m.SetFieldOptions("industry", []ListOption{
		{Label: "Technology", Value: "Technology"},
	})
	require.Equal(t, "", getValues(m)["industry"])
}

// --- SearchSelect Field Tests ---

func searchSelectCfg() Config {
	return Config{
		Title: "Test Form",
		Fields: []FieldConfig{
			{
				Key:   "country",
				Type:  FieldTypeSearchSelect,
				Label: "Country",
				Options: []ListOption{
					{Label: "Ghana", Value: "Ghana"},
					{Label: "Kenya", Value: "Kenya"},
					{Label: "Nigeria", Value: "Nigeria"},
				},
				MaxVisibleItems: 2,
			},
		},
	}
}

func TestSearchSelect_ExpandFilterSelect(t *testing.T) {
	m := New(searchSelectCfg())

	// Enter expands the search list
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.fields[0].searchExpanded)

	// Type a filter and select the only match
	m = typeString(m, "nig")
	require.Len(t, m.fields[0].searchFiltered, 1)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.False(t, m.fields[0].searchExpanded, "selection collapses the list")
	require.Equal(t, "Nigeria", getValues(m)["country"])
}

func TestSearchSelect_EscCollapsesBeforeCancel(t *testing.T) {
	m := New(searchSelectCfg())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.fields[0].searchExpanded)

	// First Esc collapses, no cancel
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.Nil(t, cmd)
	require.False(t, m.fields[0].searchExpanded)

	// Second Esc cancels the form
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	require.IsType(t, CancelMsg{}, cmd())
}

func TestSearchSelect_ScrollWindow(t *testing.T) {
	m := New(searchSelectCfg())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	// MaxVisibleItems is 2; moving to the third item scrolls
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	require.Equal(t, 2, m.fields[0].listCursor)
	require.Equal(t, 1, m.fields[0].scrollOffset)
}

// --- Loading State Tests ---

func TestLoading_IgnoresInput(t *testing.T) {
	cfg := Config{
		Title:  "Test Form",
		Fields: []FieldConfig{{Key: "name", Type: FieldTypeText, Label: "Name"}},
	}
	m := New(cfg)
	m = m.SetLoading("Submitting...")
	require.True(t, m.IsLoading())

	// Keys do nothing while loading
	m2, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Nil(t, cmd)
	require.Equal(t, m.focusedIndex, m2.focusedIndex)

	// Esc does not cancel either
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.Nil(t, cmd)
}

func TestLoading_ReplacesButtons(t *testing.T) {
	cfg := Config{
		Title:       "Test Form",
		Fields:      []FieldConfig{{Key: "name", Type: FieldTypeText, Label: "Name"}},
		SubmitLabel: "Create",
	}
	m := New(cfg)

	require.Contains(t, m.View(), "Create")

	m = m.SetLoading("Submitting...")
	view := m.View()
	require.Contains(t, view, "Submitting...")
	require.NotContains(t, view, "Create")

	m = m.SetLoading("")
	require.False(t, m.IsLoading())
	require.Contains(t, m.View(), "Create")
}

func TestLoading_SpinnerAdvances(t *testing.T) {
	m := New(Config{Title: "Test Form"})
	m = m.SetLoading("Working")

	m, cmd := m.Update(spinnerTickMsg{})
	require.Equal(t, 1, m.spinnerFrame)
	require.NotNil(t, cmd, "spinner keeps ticking while loading")

	m = m.SetLoading("")
	_, cmd = m.Update(spinnerTickMsg{})
	require.Nil(t, cmd, "tick stops when loading cleared")
}

// --- Rendering Tests ---

func TestView_RendersTitleAndFields(t *testing.T) {
	cfg := Config{
		Title: "Register Organization",
		Fields: []FieldConfig{
			{Key: "name", Type: FieldTypeText, Label: "Organization Name", Hint: "required"},
		},
	}
	m := New(cfg)
	view := m.View()

	require.Contains(t, view, "Register Organization")
	require.Contains(t, view, "Organization Name")
	require.True(t, strings.Contains(view, "required"))
}
