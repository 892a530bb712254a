package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"collect/internal/domain/instance"
)

// InstanceStoreForDeletion defines the store interface needed by DeleteInstance.
type InstanceStoreForDeletion interface {
	GetByID(ctx context.Context, id string) (instance.Instance, error)
	SoftDelete(ctx context.Context, id string, at time.Time) error
}

// DeleteInstanceInput carries input for the delete instance orchestrator.
type DeleteInstanceInput struct {
	InstanceID string
}

// DeleteInstanceDeps holds dependencies for DeleteInstance.
type DeleteInstanceDeps struct {
	InstanceStore InstanceStoreForDeletion
	Now           func() time.Time
}

// ExecuteDeleteInstance soft-deletes an instance. The row is kept; its
// geometry is cleared in the same write that sets deleted_at.
// PRE: InstanceID is non-empty; instance exists and is not deleted
// POST: DeletedAt set and geometry cleared, or nothing changed and an error is returned
func ExecuteDeleteInstance(ctx context.Context, input DeleteInstanceInput, deps DeleteInstanceDeps) (instance.Instance, error) {
	if input.InstanceID == "" {
		return instance.Instance{}, instance.ErrEmptyID
	}

	inst, err := deps.InstanceStore.GetByID(ctx, input.InstanceID)
	if err != nil {
		return instance.Instance{}, err
	}

	now := deps.Now()
	if err := inst.MarkDeleted(now); err != nil {
		return instance.Instance{}, err
	}

	if err := deps.InstanceStore.SoftDelete(ctx, inst.ID, now); err != nil {
		return instance.Instance{}, err
	}

	slog.Info("instance_event", "event", "instance_deleted", "instance_id", inst.ID,
		"jr_form_id", inst.JrFormID, "jr_version", inst.JrVersion, "status", string(inst.Status))
	return inst, nil
}
