package sqlite

import (
	"encoding/json"
	"time"

	"orgreg/internal/draft"
)

// DraftModel represents the database row for the drafts table.
// Time values are Unix timestamps.
type DraftModel struct {
	ID        int64
	GUID      string
	UserID    string
	Values    string // JSON encoded map
	CreatedAt int64
	UpdatedAt int64
	DeletedAt *int64 // nullable
}

// toDraftModel converts a domain draft to a database row.
func toDraftModel(d *draft.Draft) (*DraftModel, error) {
	values, err := json.Marshal(d.Values)
	if err != nil {
		return nil, err
	}
	return &DraftModel{
		ID:        d.ID,
		GUID:      d.GUID,
		UserID:    d.UserID,
		Values:    string(values),
		CreatedAt: d.CreatedAt.Unix(),
		UpdatedAt: d.UpdatedAt.Unix(),
	}, nil
}

// toDomain converts a database row back to a domain draft. Undecodable
// form values degrade to an empty map rather than failing the load.
func (m *DraftModel) toDomain() *draft.Draft {
	values := make(map[string]string)
	_ = json.Unmarshal([]byte(m.Values), &values)

	return &draft.Draft{
		ID:        m.ID,
		GUID:      m.GUID,
		UserID:    m.UserID,
		Values:    values,
		CreatedAt: time.Unix(m.CreatedAt, 0),
		UpdatedAt: time.Unix(m.UpdatedAt, 0),
	}
}
