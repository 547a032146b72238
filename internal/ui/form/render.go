package form

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"orgreg/internal/ui/overlay"
	"orgreg/internal/ui/styles"
)

// View renders the form content (without overlay).
func (m Model) View() string {
	width := m.config.MinWidth
	if width == 0 {
		width = 50
	}
	contentWidth := width - 2 // Account for outer border

	// Title with bottom border
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.OverlayTitleColor)
	borderStyle := lipgloss.NewStyle().Foreground(styles.BorderDefaultColor)
	titleBorder := borderStyle.Render(strings.Repeat("─", width))

	// Content style adds horizontal padding
	contentPadding := lipgloss.NewStyle().PaddingLeft(1)

	var content strings.Builder
	content.WriteString(contentPadding.Render(titleStyle.Render(m.config.Title)))
	content.WriteString("\n")
	content.WriteString(titleBorder)
	content.WriteString("\n\n")

	// Render each field with its error line (if any)
	errorStyle := lipgloss.NewStyle().Foreground(styles.StatusErrorColor)
	for i := range m.fields {
		fieldView := zone.Mark(makeFieldZoneID(i), m.renderField(i, contentWidth))
		content.WriteString(contentPadding.Render(fieldView))
		content.WriteString("\n")
		if msg := m.fields[i].errMsg; msg != "" {
			content.WriteString(contentPadding.Render(" " + errorStyle.Render(msg)))
			content.WriteString("\n")
		}
		content.WriteString("\n")
	}

	// Form-level validation error (if any)
	if m.validationError != "" {
		content.WriteString(contentPadding.Render(" " + errorStyle.Render(m.validationError)))
		content.WriteString("\n\n")
	}

	// Loading indicator replaces the buttons while a submission is in flight
	if m.loadingText != "" {
		content.WriteString(contentPadding.Render(" " + m.renderLoading()))
	} else {
		content.WriteString(contentPadding.Render(" " + m.renderButtons()))
	}
	content.WriteString("\n")

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.OverlayBorderColor).
		Width(width)

	return boxStyle.Render(content.String())
}

// renderField renders a single field based on its type.
func (m Model) renderField(index int, width int) string {
	fs := &m.fields[index]
	cfg := fs.config
	focused := m.focusedIndex == index

	switch cfg.Type {
	case FieldTypeText:
		return styles.FormSection(styles.FormSectionConfig{
			Content:            []string{fs.textInput.View()},
			Width:              width,
			TopLeft:            cfg.Label,
			TopLeftHint:        cfg.Hint,
			Focused:            focused,
			FocusedBorderColor: styles.BorderHighlightFocusColor,
		})

	case FieldTypeSelect:
		var rows []string
		for i, item := range fs.listItems {
			prefix := " "
			if focused && i == fs.listCursor {
				prefix = styles.SelectionIndicatorStyle.Render(">")
			}
			radio := "( )"
			if item.selected {
				radio = "(●)"
			}
			rows = append(rows, zone.Mark(makeItemZoneID(index, i), prefix+radio+" "+item.label))
		}
		if len(rows) == 0 {
			rows = []string{" (no items)"}
		}
		return styles.FormSection(styles.FormSectionConfig{
			Content:            rows,
			Width:              width,
			TopLeft:            cfg.Label,
			TopLeftHint:        cfg.Hint,
			Focused:            focused,
			FocusedBorderColor: styles.BorderHighlightFocusColor,
		})

	case FieldTypeSearchSelect:
		return m.renderSearchSelectField(index, fs, width, focused)
	}

	return ""
}

// renderSearchSelectField renders a searchable select in collapsed or
// expanded form. Collapsed it shows the current selection on one line;
// expanded it shows the filter input above a scrolling option window.
func (m Model) renderSearchSelectField(index int, fs *fieldState, width int, focused bool) string {
	cfg := fs.config

	if !fs.searchExpanded {
		label := "(none)"
		for _, item := range fs.listItems {
			if item.selected {
				label = item.label
				break
			}
		}
		hint := cfg.Hint
		if hint == "" && focused {
			hint = "enter to change"
		}
		return styles.FormSection(styles.FormSectionConfig{
			Content:            []string{" " + label},
			Width:              width,
			TopLeft:            cfg.Label,
			TopLeftHint:        hint,
			Focused:            focused,
			FocusedBorderColor: styles.BorderHighlightFocusColor,
		})
	}

	maxVisible := cfg.MaxVisibleItems
	if maxVisible <= 0 {
		maxVisible = 5
	}

	rows := []string{fs.searchInput.View(), ""}

	if len(fs.searchFiltered) == 0 {
		mutedStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
		rows = append(rows, mutedStyle.Render(" (no matches)"))
	} else {
		end := fs.scrollOffset + maxVisible
		if end > len(fs.searchFiltered) {
			end = len(fs.searchFiltered)
		}
		for row := fs.scrollOffset; row < end; row++ {
			itemIdx := fs.searchFiltered[row]
			item := fs.listItems[itemIdx]
			prefix := " "
			if row == fs.listCursor {
				prefix = styles.SelectionIndicatorStyle.Render(">")
			}
			radio := "( )"
			if item.selected {
				radio = "(●)"
			}
			rows = append(rows, zone.Mark(makeItemZoneID(index, itemIdx), prefix+radio+" "+item.label))
		}
		if len(fs.searchFiltered) > maxVisible {
			mutedStyle := lipgloss.NewStyle().Foreground(styles.TextMutedColor)
			rows = append(rows, mutedStyle.Render(countIndicator(fs.scrollOffset, end, len(fs.searchFiltered))))
		}
	}

	return styles.FormSection(styles.FormSectionConfig{
		Content:            rows,
		Width:              width,
		TopLeft:            cfg.Label,
		TopLeftHint:        cfg.Hint,
		Focused:            focused,
		FocusedBorderColor: styles.BorderHighlightFocusColor,
	})
}

// countIndicator shows the visible window position within the filtered set.
func countIndicator(start, end, total int) string {
	var b strings.Builder
	b.WriteString(" ")
	if start > 0 {
		b.WriteString("↑ ")
	}
	fmt.Fprintf(&b, "%d-%d of %d", start+1, end, total)
	if end < total {
		b.WriteString(" ↓")
	}
	return b.String()
}

// renderButtons renders the submit and cancel buttons.
func (m Model) renderButtons() string {
	onButtons := m.focusedIndex == -1

	submitLabel := m.config.SubmitLabel
	if submitLabel == "" {
		submitLabel = "Save"
	}
	submitStyle := styles.PrimaryButtonStyle
	if onButtons && m.focusedButton == 0 {
		submitStyle = styles.PrimaryButtonFocusedStyle
	}
	submitBtn := zone.Mark(zoneSubmitButton, submitStyle.Render(submitLabel))

	cancelLabel := m.config.CancelLabel
	if cancelLabel == "" {
		cancelLabel = "Cancel"
	}
	cancelStyle := styles.SecondaryButtonStyle
	if onButtons && m.focusedButton == 1 {
		cancelStyle = styles.SecondaryButtonFocusedStyle
	}
	cancelBtn := zone.Mark(zoneCancelButton, cancelStyle.Render(cancelLabel))

	return submitBtn + "  " + cancelBtn
}

// renderLoading renders the spinner row shown instead of buttons.
func (m Model) renderLoading() string {
	frame := spinnerFrames[m.spinnerFrame%len(spinnerFrames)]
	spinnerStyle := lipgloss.NewStyle().Foreground(styles.SpinnerColor)
	textStyle := lipgloss.NewStyle().Foreground(styles.TextSecondaryColor)
	return spinnerStyle.Render(frame) + " " + textStyle.Render(m.loadingText)
}

// Overlay renders the form centered on top of a background view.
func (m Model) Overlay(bg string) string {
	fg := m.View()

	if bg == "" {
		return lipgloss.Place(
			m.width, m.height,
			lipgloss.Center, lipgloss.Center,
			fg,
		)
	}
	return overlay.Place(overlay.Config{
		Width:    m.width,
		Height:   m.height,
		Position: overlay.Center,
	}, fg, bg)
}
