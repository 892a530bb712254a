package instance

import (
	"errors"
	"strings"
	"time"
)

// Status is the submission state of an instance.
type Status string

// Submission states
const (
	StatusIncomplete       Status = "incomplete"
	StatusComplete         Status = "complete"
	StatusSubmitted        Status = "submitted"
	StatusSubmissionFailed Status = "submission_failed"
)

// Domain errors
var (
	ErrNotFound          = errors.New("instance not found")
	ErrEmptyID           = errors.New("instance id is required")
	ErrEmptyFormID       = errors.New("jr_form_id is required")
	ErrEmptyFilePath     = errors.New("instance file path is required")
	ErrInvalidStatus     = errors.New("status must be 'incomplete', 'complete', 'submitted' or 'submission_failed'")
	ErrAlreadyDeleted    = errors.New("instance is already deleted")
	ErrDeleted           = errors.New("instance is deleted")
	ErrGeometryOnDeleted = errors.New("deleted instance must not carry geometry")
)

// Instance is one submission or draft collected against a form version.
// (JrFormID, JrVersion) refers to a form's logical identity; it is not a
// storage-enforced foreign key and may outlive every matching form row.
type Instance struct {
	ID                  string
	DisplayName         string
	SubmissionURI       string
	InstanceFilePath    string
	JrFormID            string
	JrVersion           string
	Status              Status
	CanEditWhenComplete bool
	LastStatusChangeAt  time.Time
	DeletedAt           *time.Time
	GeometryType        string // empty means null
	Geometry            string // GeoJSON geometry, empty means null
}

// ValidStatus reports whether s is a known submission state.
func ValidStatus(s Status) bool {
	switch s {
	case StatusIncomplete, StatusComplete, StatusSubmitted, StatusSubmissionFailed:
		return true
	}
	return false
}

// Validate checks that the Instance has valid data.
// PRE: Instance struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: a deleted instance has no geometry; a present geometry parses and matches GeometryType
func (i *Instance) Validate() error {
	if i.ID == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(i.JrFormID) == "" {
		return ErrEmptyFormID
	}
	if strings.TrimSpace(i.InstanceFilePath) == "" {
		return ErrEmptyFilePath
	}
	if !ValidStatus(i.Status) {
		return ErrInvalidStatus
	}
	if i.IsDeleted() {
		if i.GeometryType != "" || i.Geometry != "" {
			return ErrGeometryOnDeleted
		}
		return nil
	}
	if i.GeometryType == "" && i.Geometry == "" {
		return nil
	}
	_, err := ParseGeometry(i.GeometryType, i.Geometry)
	return err
}

// IsDeleted reports whether the instance has been soft-deleted.
// INVARIANT: no fields are mutated
func (i *Instance) IsDeleted() bool {
	return i.DeletedAt != nil
}

// MarkDeleted moves the instance into its terminal deleted state.
// Geometry may locate a respondent, so it is discarded; the rest of the
// row (name, path, form reference, status, status time) stays for audit.
// PRE: instance is not deleted
// POST: DeletedAt = at, GeometryType and Geometry empty, other fields unchanged
func (i *Instance) MarkDeleted(at time.Time) error {
	if i.IsDeleted() {
		return ErrAlreadyDeleted
	}
	deletedAt := at
	i.DeletedAt = &deletedAt
	i.GeometryType = ""
	i.Geometry = ""
	return nil
}

// ChangeStatus records a submission state change.
// PRE: instance is not deleted; status is valid
// POST: Status updated; LastStatusChangeAt = at
func (i *Instance) ChangeStatus(status Status, at time.Time) error {
	if i.IsDeleted() {
		return ErrDeleted
	}
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}
	i.Status = status
	i.LastStatusChangeAt = at
	return nil
}
