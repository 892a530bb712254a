package instance

import (
	"context"
	"time"

	domain "collect/internal/domain/instance"
)

// Store persists instance rows. Rows are never physically removed.
type Store interface {
	// GetByID retrieves an instance by id, deleted or not.
	// PRE: id is non-empty
	// POST: Returns the row or an error wrapping domain.ErrNotFound
	GetByID(ctx context.Context, id string) (domain.Instance, error)

	// GetByFilePath retrieves the instance stored at path, deleted or not.
	// When several rows share the path, a live row wins over a deleted one, then the most recent change.
	// PRE: path is non-empty
	// POST: Returns the row or an error wrapping domain.ErrNotFound
	GetByFilePath(ctx context.Context, path string) (domain.Instance, error)

	// ListByLogicalIDNotDeleted returns live instances collected against (formID, version).
	// PRE: formID is non-empty
	// POST: Rows with a non-null deleted_at are excluded
	ListByLogicalIDNotDeleted(ctx context.Context, formID, version string) ([]domain.Instance, error)

	// List returns instances matching the filter.
	List(ctx context.Context, filter ListFilter) ([]domain.Instance, error)

	// Save inserts or updates an instance. A row with DeletedAt set is written without geometry.
	// PRE: entity has been validated
	// POST: Entity is persisted
	Save(ctx context.Context, i domain.Instance) error

	// SoftDelete sets deleted_at and clears the geometry columns in one statement.
	// PRE: id is non-empty
	// POST: Row is deleted and scrubbed, or unchanged with an error wrapping domain.ErrNotFound
	SoftDelete(ctx context.Context, id string, at time.Time) error
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit          int
	Offset         int
	JrFormID       string
	Status         domain.Status
	IncludeDeleted bool
}

var _ Store = (*SQLiteStore)(nil)
