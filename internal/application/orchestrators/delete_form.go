package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"collect/internal/domain/form"
	"collect/internal/domain/instance"
)

// FormStoreForDeletion defines the form store interface needed by DeleteForm.
type FormStoreForDeletion interface {
	GetByID(ctx context.Context, id string) (form.Form, error)
	ListByLogicalID(ctx context.Context, formID, version string) ([]form.Form, error)
	Delete(ctx context.Context, id string) error
	SoftDelete(ctx context.Context, id string) error
}

// InstanceStoreForFormDeletion defines the instance store interface needed by DeleteForm.
type InstanceStoreForFormDeletion interface {
	ListByLogicalIDNotDeleted(ctx context.Context, formID, version string) ([]instance.Instance, error)
}

// DeleteFormInput carries input for the delete form orchestrator.
type DeleteFormInput struct {
	FormID string
}

// DeleteFormDeps holds dependencies for DeleteForm.
type DeleteFormDeps struct {
	FormStore     FormStoreForDeletion
	InstanceStore InstanceStoreForFormDeletion
}

// ExecuteDeleteForm removes a form row, or soft-deletes it when it is the
// last row that live instances can resolve their form metadata from.
//
// The reads and the write are not one transaction. An instance saved
// between the instance read and the write is not seen, so the row may be
// hard-deleted and that instance left without a form row. That outcome is
// accepted; instances tolerate a missing form.
//
// PRE: FormID is non-empty and names an existing row
// POST: exactly one of Delete or SoftDelete was issued for FormID; no instance is written
func ExecuteDeleteForm(ctx context.Context, input DeleteFormInput, deps DeleteFormDeps) error {
	if input.FormID == "" {
		return form.ErrEmptyID
	}

	f, err := deps.FormStore.GetByID(ctx, input.FormID)
	if err != nil {
		return err
	}

	id := f.LogicalID()
	live, err := deps.InstanceStore.ListByLogicalIDNotDeleted(ctx, id.FormID, id.Version)
	if err != nil {
		return err
	}
	rows, err := deps.FormStore.ListByLogicalID(ctx, id.FormID, id.Version)
	if err != nil {
		return err
	}

	decision := form.DecideDeletion(len(live), len(rows))
	if err := applyDeletion(ctx, deps.FormStore, f.ID, decision); err != nil {
		return err
	}

	slog.Info("form_event", "event", "form_deleted", "form_id", f.ID, "logical_id", id.String(),
		"decision", string(decision), "live_instances", len(live), "rows_with_identity", len(rows))
	return nil
}

// applyDeletion issues the single write a decision calls for.
func applyDeletion(ctx context.Context, store FormStoreForDeletion, id string, decision form.Decision) error {
	switch decision {
	case form.DecisionHardDelete:
		return store.Delete(ctx, id)
	case form.DecisionSoftDelete:
		return store.SoftDelete(ctx, id)
	default:
		return fmt.Errorf("form %s: unknown deletion decision %q", id, decision)
	}
}
