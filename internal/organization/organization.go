// Package organization holds the registration domain entity and its
// validation rules.
package organization

// Description is the fixed description sent with every registration.
// The backend requires the field but the client does not collect it.
const Description = "n/a"

// Registration is the set of fields a user fills in to register an
// organization. Validation tags use the wire field names so client-side
// messages and server-side field errors key identically.
type Registration struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Industry string `json:"industry" validate:"required"`
	Type     string `json:"type" validate:"required"`
	Country  string `json:"country" validate:"required"`
	State    string `json:"state" validate:"required"`
	Address  string `json:"address" validate:"required"`
}

// FromValues builds a Registration from form values keyed by wire field name.
// Missing or non-string values become empty strings and surface as
// validation errors.
func FromValues(values map[string]any) Registration {
	str := func(key string) string {
		if v, ok := values[key].(string); ok {
			return v
		}
		return ""
	}
	return Registration{
		Name:     str("name"),
		Email:    str("email"),
		Industry: str("industry"),
		Type:     str("type"),
		Country:  str("country"),
		State:    str("state"),
		Address:  str("address"),
	}
}

// Organization is the created account as returned by the platform.
type Organization struct {
	GUID        string `json:"guid"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Industry    string `json:"industry"`
	Type        string `json:"type"`
	Country     string `json:"country"`
	State       string `json:"state"`
	Address     string `json:"address"`
	Description string `json:"description"`
	UserID      string `json:"user_id"`
}
