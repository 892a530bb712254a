package form

import (
	"errors"
	"strings"
	"time"
)

// State is the lifecycle state of a form row.
type State string

// Lifecycle states. A soft-deleted row is never resurrected.
const (
	StateActive      State = "active"
	StateSoftDeleted State = "soft_deleted"
)

// Domain errors
var (
	ErrNotFound         = errors.New("form not found")
	ErrEmptyID          = errors.New("form id is required")
	ErrEmptyFormID      = errors.New("jr_form_id is required")
	ErrEmptyDisplayName = errors.New("form display name is required")
	ErrEmptyFilePath    = errors.New("form file path is required")
	ErrInvalidState     = errors.New("form state must be 'active' or 'soft_deleted'")
)

// LogicalID identifies a form edition independent of its storage row.
// Several rows may share one LogicalID (re-imported duplicates).
type LogicalID struct {
	FormID  string
	Version string
}

// String renders the identity as formID@version, or formID alone when unversioned.
func (l LogicalID) String() string {
	if l.Version == "" {
		return l.FormID
	}
	return l.FormID + "@" + l.Version
}

// Form is one stored row of a form definition version.
type Form struct {
	ID           string
	DisplayName  string
	JrFormID     string
	JrVersion    string // empty when the form declares no version
	FormFilePath string
	MD5Hash      string
	CreatedAt    time.Time
	State        State
}

// Validate checks that the Form has valid data.
// PRE: Form struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: ID, JrFormID, DisplayName and FormFilePath are non-empty; State is known
func (f *Form) Validate() error {
	if f.ID == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(f.JrFormID) == "" {
		return ErrEmptyFormID
	}
	if strings.TrimSpace(f.DisplayName) == "" {
		return ErrEmptyDisplayName
	}
	if strings.TrimSpace(f.FormFilePath) == "" {
		return ErrEmptyFilePath
	}
	if f.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	if f.State != StateActive && f.State != StateSoftDeleted {
		return ErrInvalidState
	}
	return nil
}

// LogicalID returns the (jrFormId, jrVersion) pair of the row.
func (f *Form) LogicalID() LogicalID {
	return LogicalID{FormID: f.JrFormID, Version: f.JrVersion}
}

// IsDeleted reports whether the row has been soft-deleted.
// INVARIANT: State field is not mutated
func (f *Form) IsDeleted() bool {
	return f.State == StateSoftDeleted
}

// SoftDelete flags the row as deleted while keeping it queryable.
// PRE: none
// POST: State is soft_deleted; repeated calls leave it unchanged
func (f *Form) SoftDelete() {
	f.State = StateSoftDeleted
}
