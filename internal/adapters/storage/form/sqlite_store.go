package form

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"collect/internal/adapters/storage"
	domain "collect/internal/domain/form"
)

// dateLayout is fixed-width so text ordering matches time ordering; values are stored in UTC.
const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

const formColumns = "id, display_name, jr_form_id, jr_version, form_file_path, md5_hash, created_at, state"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new form store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a form row by its storage id.
// PRE: id is non-empty
// POST: Returns the row or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Form, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+formColumns+" FROM form WHERE id = ?", id)
	f, err := scanForm(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Form{}, fmt.Errorf("form %s: %w", id, domain.ErrNotFound)
	}
	return f, err
}

// ListByLogicalID returns every row for (formID, version).
// PRE: formID is non-empty
// POST: Returns rows ordered by created_at, id; soft-deleted rows included
func (s *SQLiteStore) ListByLogicalID(ctx context.Context, formID, version string) ([]domain.Form, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+formColumns+" FROM form WHERE jr_form_id = ? AND jr_version = ? ORDER BY created_at, id",
		formID, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanForms(rows)
}

// List returns form rows matching the filter.
// PRE: filter.Limit >= 0
// POST: Returns rows ordered by display_name, created_at
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Form, error) {
	var where []string
	var args []any
	if !filter.IncludeDeleted {
		where = append(where, "state = ?")
		args = append(args, string(domain.StateActive))
	}
	if filter.JrFormID != "" {
		where = append(where, "jr_form_id = ?")
		args = append(args, filter.JrFormID)
	}

	query := "SELECT " + formColumns + " FROM form"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY display_name, created_at"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanForms(rows)
}

// Save inserts or updates a form row.
// PRE: entity has been validated
// POST: Entity is persisted
func (s *SQLiteStore) Save(ctx context.Context, f domain.Form) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO form (`+formColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   display_name=excluded.display_name,
		   jr_form_id=excluded.jr_form_id,
		   jr_version=excluded.jr_version,
		   form_file_path=excluded.form_file_path,
		   md5_hash=excluded.md5_hash,
		   state=excluded.state`,
		f.ID, f.DisplayName, f.JrFormID, f.JrVersion, f.FormFilePath, f.MD5Hash,
		f.CreatedAt.UTC().Format(dateLayout), string(f.State))
	if err != nil {
		return fmt.Errorf("save form %s: %w", f.ID, err)
	}
	return nil
}

// Delete physically removes a form row.
// PRE: id is non-empty
// POST: Row removed, or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM form WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete form %s: %w", id, err)
	}
	return requireOneRow(res, id)
}

// SoftDelete flips the row's state to soft_deleted.
// PRE: id is non-empty
// POST: Row state is soft_deleted, or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) SoftDelete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE form SET state = ? WHERE id = ?", string(domain.StateSoftDeleted), id)
	if err != nil {
		return fmt.Errorf("soft delete form %s: %w", id, err)
	}
	return requireOneRow(res, id)
}

func requireOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("form %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanForm(row scanner) (domain.Form, error) {
	var f domain.Form
	var createdAt, state string
	err := row.Scan(&f.ID, &f.DisplayName, &f.JrFormID, &f.JrVersion, &f.FormFilePath, &f.MD5Hash, &createdAt, &state)
	if err != nil {
		return domain.Form{}, err
	}
	if f.CreatedAt, err = time.Parse(dateLayout, createdAt); err != nil {
		return domain.Form{}, fmt.Errorf("form %s: created_at: %w", f.ID, err)
	}
	f.State = domain.State(state)
	return f, nil
}

func scanForms(rows *sql.Rows) ([]domain.Form, error) {
	var forms []domain.Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}
