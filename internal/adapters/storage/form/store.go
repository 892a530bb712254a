package form

import (
	"context"

	domain "collect/internal/domain/form"
)

// Store persists form definition rows.
type Store interface {
	// GetByID retrieves a form row by its storage id, soft-deleted or not.
	// PRE: id is non-empty
	// POST: Returns the row or an error wrapping domain.ErrNotFound
	GetByID(ctx context.Context, id string) (domain.Form, error)

	// ListByLogicalID returns every row sharing (formID, version), soft-deleted rows included.
	// PRE: formID is non-empty
	// POST: Returns rows ordered by created_at, id
	ListByLogicalID(ctx context.Context, formID, version string) ([]domain.Form, error)

	// List returns form rows; soft-deleted rows only when filter.IncludeDeleted is set.
	List(ctx context.Context, filter ListFilter) ([]domain.Form, error)

	// Save inserts or updates a form row.
	// PRE: entity has been validated
	// POST: Entity is persisted
	Save(ctx context.Context, f domain.Form) error

	// Delete physically removes a form row.
	// PRE: id is non-empty
	// POST: Row is gone, or an error wrapping domain.ErrNotFound if there was none
	Delete(ctx context.Context, id string) error

	// SoftDelete flips the row's state to soft_deleted and touches nothing else.
	// PRE: id is non-empty
	// POST: Row state is soft_deleted, or an error wrapping domain.ErrNotFound
	SoftDelete(ctx context.Context, id string) error
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit          int
	Offset         int
	JrFormID       string
	IncludeDeleted bool
}

var _ Store = (*SQLiteStore)(nil)
