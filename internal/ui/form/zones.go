package form

import "fmt"

// Zone ID constants for mouse click handling.
const (
	zoneSubmitButton = "form_submit_button"
	zoneCancelButton = "form_cancel_button"
)

// makeFieldZoneID creates a zone ID for a field section.
func makeFieldZoneID(fieldIndex int) string {
	return fmt.Sprintf("form_field_%d", fieldIndex)
}

// makeItemZoneID creates a zone ID for a select option.
func makeItemZoneID(fieldIndex, itemIndex int) string {
	return fmt.Sprintf("form_item_%d_%d", fieldIndex, itemIndex)
}
