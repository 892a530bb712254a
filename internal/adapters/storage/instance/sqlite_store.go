package instance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"collect/internal/adapters/storage"
	domain "collect/internal/domain/instance"
)

// dateLayout is fixed-width so text ordering matches time ordering; values are stored in UTC.
const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

const instanceColumns = `id, display_name, submission_uri, instance_file_path, jr_form_id, jr_version, status,
	can_edit_when_complete, last_status_change_at, deleted_at, geometry_type, geometry`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new instance store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an instance by id.
// PRE: id is non-empty
// POST: Returns the row or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Instance, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+instanceColumns+" FROM instance WHERE id = ?", id)
	i, err := scanInstance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Instance{}, fmt.Errorf("instance %s: %w", id, domain.ErrNotFound)
	}
	return i, err
}

// GetByFilePath retrieves the instance stored at path.
// PRE: path is non-empty
// POST: Prefers a live row, then the latest status change; wraps domain.ErrNotFound when none
func (s *SQLiteStore) GetByFilePath(ctx context.Context, path string) (domain.Instance, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+instanceColumns+` FROM instance
		WHERE instance_file_path = ?
		ORDER BY deleted_at IS NOT NULL, last_status_change_at DESC, id
		LIMIT 1`, path)
	i, err := scanInstance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Instance{}, fmt.Errorf("instance at %s: %w", path, domain.ErrNotFound)
	}
	return i, err
}

// ListByLogicalIDNotDeleted returns live instances for (formID, version).
// PRE: formID is non-empty
// POST: Returns rows with deleted_at IS NULL ordered by last_status_change_at, id
func (s *SQLiteStore) ListByLogicalIDNotDeleted(ctx context.Context, formID, version string) ([]domain.Instance, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+instanceColumns+` FROM instance
		 WHERE jr_form_id = ? AND jr_version = ? AND deleted_at IS NULL
		 ORDER BY last_status_change_at, id`,
		formID, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInstances(rows)
}

// List returns instances matching the filter, newest status change first.
// PRE: filter.Limit >= 0
// POST: Deleted rows are included only when filter.IncludeDeleted is set
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Instance, error) {
	var where []string
	var args []any
	if !filter.IncludeDeleted {
		where = append(where, "deleted_at IS NULL")
	}
	if filter.JrFormID != "" {
		where = append(where, "jr_form_id = ?")
		args = append(args, filter.JrFormID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := "SELECT " + instanceColumns + " FROM instance"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY last_status_change_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInstances(rows)
}

// Save inserts or updates an instance. A stored row that is already deleted
// is never overwritten.
// PRE: entity has been validated
// POST: Entity is persisted with NULL geometry if DeletedAt is set; or the row is
// unchanged and the error wraps domain.ErrDeleted
func (s *SQLiteStore) Save(ctx context.Context, i domain.Instance) error {
	var deletedAt any
	geometryType, geometry := nullable(i.GeometryType), nullable(i.Geometry)
	if i.DeletedAt != nil {
		deletedAt = i.DeletedAt.UTC().Format(dateLayout)
		geometryType, geometry = nil, nil
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO instance (`+instanceColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   display_name=excluded.display_name,
		   submission_uri=excluded.submission_uri,
		   instance_file_path=excluded.instance_file_path,
		   jr_form_id=excluded.jr_form_id,
		   jr_version=excluded.jr_version,
		   status=excluded.status,
		   can_edit_when_complete=excluded.can_edit_when_complete,
		   last_status_change_at=excluded.last_status_change_at,
		   deleted_at=excluded.deleted_at,
		   geometry_type=excluded.geometry_type,
		   geometry=excluded.geometry
		 WHERE instance.deleted_at IS NULL`,
		i.ID, i.DisplayName, i.SubmissionURI, i.InstanceFilePath, i.JrFormID, i.JrVersion, string(i.Status),
		i.CanEditWhenComplete, i.LastStatusChangeAt.UTC().Format(dateLayout), deletedAt, geometryType, geometry)
	if err != nil {
		return fmt.Errorf("save instance %s: %w", i.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("save instance %s: %w", i.ID, domain.ErrDeleted)
	}
	return nil
}

// SoftDelete marks a live instance deleted and scrubs its geometry in a single UPDATE.
// If the statement fails nothing is applied.
// PRE: id is non-empty
// POST: deleted_at = at, geometry columns NULL; or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE instance SET deleted_at = ?, geometry_type = NULL, geometry = NULL
		 WHERE id = ? AND deleted_at IS NULL`,
		at.UTC().Format(dateLayout), id)
	if err != nil {
		return fmt.Errorf("soft delete instance %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("instance %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInstance(row scanner) (domain.Instance, error) {
	var i domain.Instance
	var status, lastStatusChange string
	var deletedAt, geometryType, geometry sql.NullString
	err := row.Scan(&i.ID, &i.DisplayName, &i.SubmissionURI, &i.InstanceFilePath, &i.JrFormID, &i.JrVersion,
		&status, &i.CanEditWhenComplete, &lastStatusChange, &deletedAt, &geometryType, &geometry)
	if err != nil {
		return domain.Instance{}, err
	}
	i.Status = domain.Status(status)
	if i.LastStatusChangeAt, err = time.Parse(dateLayout, lastStatusChange); err != nil {
		return domain.Instance{}, fmt.Errorf("instance %s: last_status_change_at: %w", i.ID, err)
	}
	if deletedAt.Valid {
		t, err := time.Parse(dateLayout, deletedAt.String)
		if err != nil {
			return domain.Instance{}, fmt.Errorf("instance %s: deleted_at: %w", i.ID, err)
		}
		i.DeletedAt = &t
	}
	i.GeometryType = geometryType.String
	i.Geometry = geometry.String
	return i, nil
}

func scanInstances(rows *sql.Rows) ([]domain.Instance, error) {
	var instances []domain.Instance
	for rows.Next() {
		i, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, i)
	}
	return instances, rows.Err()
}
