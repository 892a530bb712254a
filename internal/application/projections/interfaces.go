package projections

import (
	"context"

	formstore "collect/internal/adapters/storage/form"
	instancestore "collect/internal/adapters/storage/instance"
	"collect/internal/domain/form"
	"collect/internal/domain/instance"
)

// FormStore interface for form queries.
type FormStore interface {
	List(ctx context.Context, filter formstore.ListFilter) ([]form.Form, error)
	ListByLogicalID(ctx context.Context, formID, version string) ([]form.Form, error)
}

// InstanceStore interface for instance queries.
type InstanceStore interface {
	List(ctx context.Context, filter instancestore.ListFilter) ([]instance.Instance, error)
	ListByLogicalIDNotDeleted(ctx context.Context, formID, version string) ([]instance.Instance, error)
}
