package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"orgreg/internal/draft"
)

// draftColumns is the list of columns to select for draft queries.
const draftColumns = `id, guid, user_id, form_values, created_at, updated_at, deleted_at`

// draftRepository implements draft.Repository using SQLite.
type draftRepository struct {
	db *sql.DB
}

// newDraftRepository creates a new draftRepository instance.
func newDraftRepository(db *sql.DB) *draftRepository {
	return &draftRepository{db: db}
}

// Ensure draftRepository implements draft.Repository.
var _ draft.Repository = (*draftRepository)(nil)

// scanDraft scans a row into a DraftModel.
func scanDraft(scanner interface{ Scan(...any) error }) (*DraftModel, error) {
	var model DraftModel
	err := scanner.Scan(
		&model.ID, &model.GUID, &model.UserID, &model.Values,
		&model.CreatedAt, &model.UpdatedAt, &model.DeletedAt,
	)
	return &model, err
}

// Save persists a draft to the database.
// For new drafts (ID == 0), inserts a new row and sets the draft ID.
// For existing drafts (ID > 0), updates the existing row.
func (r *draftRepository) Save(d *draft.Draft) error {
	d.UpdatedAt = time.Now()
	model, err := toDraftModel(d)
	if err != nil {
		return fmt.Errorf("encoding draft values: %w", err)
	}

	if d.ID == 0 {
		result, err := r.db.Exec(
			`INSERT INTO drafts (guid, user_id, form_values, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`,
			model.GUID, model.UserID, model.Values, model.CreatedAt, model.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert draft: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		d.ID = id
		return nil
	}

	_, err = r.db.Exec(
		`UPDATE drafts SET form_values = ?, updated_at = ? WHERE id = ?`,
		model.Values, model.UpdatedAt, model.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update draft: %w", err)
	}
	return nil
}

// FindLatest returns the most recently updated draft for a user.
// Soft-deleted drafts are not returned.
func (r *draftRepository) FindLatest(userID string) (*draft.Draft, error) {
	row := r.db.QueryRow(
		`SELECT `+draftColumns+` FROM drafts
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY updated_at DESC, id DESC LIMIT 1`,
		userID,
	)
	model, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &draft.NotFoundError{UserID: userID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest draft: %w", err)
	}
	return model.toDomain(), nil
}

// FindByGUID retrieves a draft by its GUID.
func (r *draftRepository) FindByGUID(guid string) (*draft.Draft, error) {
	row := r.db.QueryRow(
		`SELECT `+draftColumns+` FROM drafts WHERE guid = ? AND deleted_at IS NULL`,
		guid,
	)
	model, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &draft.NotFoundError{GUID: guid}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find draft by guid: %w", err)
	}
	return model.toDomain(), nil
}

// List returns a user's drafts, most recently updated first.
func (r *draftRepository) List(userID string) ([]*draft.Draft, error) {
	rows, err := r.db.Query(
		`SELECT `+draftColumns+` FROM drafts
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY updated_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var drafts []*draft.Draft
	for rows.Next() {
		model, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan draft: %w", err)
		}
		drafts = append(drafts, model.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate drafts: %w", err)
	}
	return drafts, nil
}

// Delete soft-deletes a draft by GUID. Missing drafts are a no-op.
func (r *draftRepository) Delete(guid string) error {
	_, err := r.db.Exec(
		`UPDATE drafts SET deleted_at = ? WHERE guid = ? AND deleted_at IS NULL`,
		time.Now().Unix(), guid,
	)
	if err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}
