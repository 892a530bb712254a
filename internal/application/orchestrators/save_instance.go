package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"collect/internal/domain/instance"
)

// InstanceStoreForSave defines the store interface needed by SaveInstance.
type InstanceStoreForSave interface {
	GetByID(ctx context.Context, id string) (instance.Instance, error)
	Save(ctx context.Context, i instance.Instance) error
}

// SaveInstanceInput carries input for the save instance orchestrator.
// An empty InstanceID creates a new instance.
type SaveInstanceInput struct {
	InstanceID          string
	DisplayName         string
	InstanceFilePath    string
	JrFormID            string
	JrVersion           string
	SubmissionURI       string
	Status              instance.Status
	CanEditWhenComplete bool
	GeometryType        string
	Geometry            string
}

// SaveInstanceDeps holds dependencies for SaveInstance.
type SaveInstanceDeps struct {
	InstanceStore InstanceStoreForSave
	GenerateID    func() string
	Now           func() time.Time
}

// ExecuteSaveInstance creates a draft or updates a live instance.
// The form reference (JrFormID, JrVersion) and file path are fixed at creation.
// PRE: for updates the instance exists and is not deleted
// POST: instance persisted; LastStatusChangeAt moves only when Status changes
func ExecuteSaveInstance(ctx context.Context, input SaveInstanceInput, deps SaveInstanceDeps) (instance.Instance, error) {
	now := deps.Now()

	if input.InstanceID == "" {
		status := input.Status
		if status == "" {
			status = instance.StatusIncomplete
		}
		inst := instance.Instance{
			ID:                  deps.GenerateID(),
			DisplayName:         input.DisplayName,
			SubmissionURI:       input.SubmissionURI,
			InstanceFilePath:    input.InstanceFilePath,
			JrFormID:            input.JrFormID,
			JrVersion:           input.JrVersion,
			Status:              status,
			CanEditWhenComplete: input.CanEditWhenComplete,
			LastStatusChangeAt:  now,
			GeometryType:        input.GeometryType,
			Geometry:            input.Geometry,
		}
		return persistInstance(ctx, deps, inst, "instance_created")
	}

	inst, err := deps.InstanceStore.GetByID(ctx, input.InstanceID)
	if err != nil {
		return instance.Instance{}, err
	}
	if inst.IsDeleted() {
		return instance.Instance{}, instance.ErrDeleted
	}

	if input.Status != "" && input.Status != inst.Status {
		if err := inst.ChangeStatus(input.Status, now); err != nil {
			return instance.Instance{}, err
		}
	}
	if input.DisplayName != "" {
		inst.DisplayName = input.DisplayName
	}
	if input.SubmissionURI != "" {
		inst.SubmissionURI = input.SubmissionURI
	}
	inst.CanEditWhenComplete = input.CanEditWhenComplete
	inst.GeometryType = input.GeometryType
	inst.Geometry = input.Geometry

	return persistInstance(ctx, deps, inst, "instance_updated")
}

func persistInstance(ctx context.Context, deps SaveInstanceDeps, inst instance.Instance, event string) (instance.Instance, error) {
	if err := inst.Validate(); err != nil {
		return instance.Instance{}, err
	}
	if err := deps.InstanceStore.Save(ctx, inst); err != nil {
		return instance.Instance{}, err
	}
	slog.Info("instance_event", "event", event, "instance_id", inst.ID, "status", string(inst.Status))
	return inst, nil
}
