package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"collect/internal/domain/form"
)

// FormStoreForImport defines the store interface needed by ImportForm.
type FormStoreForImport interface {
	Save(ctx context.Context, f form.Form) error
}

// ImportFormInput carries input for the import form orchestrator.
type ImportFormInput struct {
	DisplayName  string
	JrFormID     string
	JrVersion    string
	FormFilePath string
	MD5Hash      string
}

// ImportFormDeps holds dependencies for ImportForm.
type ImportFormDeps struct {
	FormStore  FormStoreForImport
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteImportForm stores a new form row. Importing an edition that already
// has rows adds a duplicate; rows are never merged.
// PRE: JrFormID, DisplayName and FormFilePath are non-empty
// POST: an active form row exists with a generated ID
func ExecuteImportForm(ctx context.Context, input ImportFormInput, deps ImportFormDeps) (form.Form, error) {
	f := form.Form{
		ID:           deps.GenerateID(),
		DisplayName:  input.DisplayName,
		JrFormID:     input.JrFormID,
		JrVersion:    input.JrVersion,
		FormFilePath: input.FormFilePath,
		MD5Hash:      input.MD5Hash,
		CreatedAt:    deps.Now(),
		State:        form.StateActive,
	}
	if err := f.Validate(); err != nil {
		return form.Form{}, err
	}

	if err := deps.FormStore.Save(ctx, f); err != nil {
		return form.Form{}, err
	}

	slog.Info("form_event", "event", "form_imported", "form_id", f.ID, "logical_id", f.LogicalID().String())
	return f, nil
}
