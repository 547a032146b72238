// Package draft holds locally saved, not-yet-submitted registration forms.
package draft

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Draft is a saved snapshot of the registration form's values for a user.
type Draft struct {
	ID        int64
	GUID      string
	UserID    string
	Values    map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New creates a draft for a user with a fresh GUID.
func New(userID string, values map[string]string) *Draft {
	now := time.Now()
	return &Draft{
		GUID:      uuid.NewString(),
		UserID:    userID,
		Values:    values,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Empty reports whether the draft holds no non-empty values.
func (d *Draft) Empty() bool {
	for _, v := range d.Values {
		if v != "" {
			return false
		}
	}
	return true
}

// Touch bumps the updated timestamp.
func (d *Draft) Touch() {
	d.UpdatedAt = time.Now()
}

// Repository persists drafts. The sqlite package implements it.
type Repository interface {
	// Save inserts a new draft (ID == 0) or updates an existing one.
	Save(d *Draft) error

	// FindLatest returns the most recently updated draft for a user.
	// Returns *NotFoundError when the user has none.
	FindLatest(userID string) (*Draft, error)

	// FindByGUID returns a draft by its GUID.
	// Returns *NotFoundError when it does not exist.
	FindByGUID(guid string) (*Draft, error)

	// List returns a user's drafts, most recently updated first.
	List(userID string) ([]*Draft, error)

	// Delete removes a draft by GUID. Deleting a missing draft is not an
	// error.
	Delete(guid string) error
}

// NotFoundError indicates no draft matched the lookup.
type NotFoundError struct {
	GUID   string
	UserID string
}

func (e *NotFoundError) Error() string {
	if e.GUID != "" {
		return fmt.Sprintf("draft %s not found", e.GUID)
	}
	return fmt.Sprintf("no draft found for user %s", e.UserID)
}
