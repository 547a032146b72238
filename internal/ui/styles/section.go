package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Border characters (rounded) - used by FormSection.
const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// FormSectionConfig controls rendering of a bordered form section.
type FormSectionConfig struct {
	// Content holds the rows rendered inside the border.
	Content []string
	// Width is the total section width including borders.
	Width int
	// TopLeft is the section title, rendered inline in the top border.
	TopLeft string
	// TopLeftHint is rendered after the title as "(hint)".
	TopLeftHint string
	// Focused switches the border to FocusedBorderColor.
	Focused bool
	// FocusedBorderColor is used when Focused is true.
	FocusedBorderColor lipgloss.TerminalColor
}

// FormSection renders a bordered section with an inline title and hint:
//
//	╭─ Title (hint) ──────╮
//	│ content             │
//	╰─────────────────────╯
//
// This is the shared renderer for form fields and other focusable sections.
func FormSection(cfg FormSectionConfig) string {
	var borderColor lipgloss.TerminalColor = BorderDefaultColor
	var titleColor lipgloss.TerminalColor = BorderDefaultColor
	if cfg.Focused {
		borderColor = cfg.FocusedBorderColor
		titleColor = cfg.FocusedBorderColor
	}

	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(titleColor)
	hintStyle := lipgloss.NewStyle().Foreground(TextMutedColor)

	innerWidth := max(cfg.Width-2, 1) // Account for left/right borders

	var topBorder string
	if cfg.TopLeft == "" {
		topBorder = borderStyle.Render(borderTopLeft + strings.Repeat(borderHorizontal, innerWidth) + borderTopRight)
	} else {
		titleLen := lipgloss.Width(cfg.TopLeft)
		if cfg.TopLeftHint != "" {
			titleLen = lipgloss.Width(cfg.TopLeft + " (" + cfg.TopLeftHint + ")")
		}
		dashesAfter := max(innerWidth-titleLen-3, 0) // -3 for "─ " before and " " after title

		topBorder = borderStyle.Render(borderTopLeft+borderHorizontal+" ") + titleStyle.Render(cfg.TopLeft)
		if cfg.TopLeftHint != "" {
			topBorder += " " + hintStyle.Render("("+cfg.TopLeftHint+")")
		}
		topBorder += borderStyle.Render(" " + strings.Repeat(borderHorizontal, dashesAfter) + borderTopRight)
	}

	var contentLines []string
	for _, row := range cfg.Content {
		lineWidth := lipgloss.Width(row)
		padding := ""
		if lineWidth < innerWidth {
			padding = strings.Repeat(" ", innerWidth-lineWidth)
		}
		contentLines = append(contentLines, borderStyle.Render(borderVertical)+row+padding+borderStyle.Render(borderVertical))
	}

	bottomBorder := borderStyle.Render(borderBottomLeft + strings.Repeat(borderHorizontal, innerWidth) + borderBottomRight)

	return topBorder + "\n" + strings.Join(contentLines, "\n") + "\n" + bottomBorder
}
