package web

import (
	"net/http"

	"collect/internal/application/listutil"
	"collect/internal/application/orchestrators"
	"collect/internal/application/projections"
)

type importFormRequest struct {
	DisplayName  string `json:"DisplayName" validate:"required"`
	JrFormID     string `json:"JrFormID" validate:"required"`
	JrVersion    string `json:"JrVersion"`
	FormFilePath string `json:"FormFilePath" validate:"required"`
	MD5Hash      string `json:"MD5Hash"`
}

// handleImportForm handles POST /api/forms
func handleImportForm(w http.ResponseWriter, r *http.Request) {
	var req importFormRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	f, err := orchestrators.ExecuteImportForm(r.Context(), orchestrators.ImportFormInput{
		DisplayName:  req.DisplayName,
		JrFormID:     req.JrFormID,
		JrVersion:    req.JrVersion,
		FormFilePath: req.FormFilePath,
		MD5Hash:      req.MD5Hash,
	}, orchestrators.ImportFormDeps{
		FormStore:  stores.FormStore,
		GenerateID: generateID,
		Now:        timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// handleListForms handles GET /api/forms
func handleListForms(w http.ResponseWriter, r *http.Request) {
	page, err := listutil.ParsePage(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := projections.QueryGetFormList(r.Context(), projections.GetFormListQuery{
		JrFormID: r.URL.Query().Get("jrFormId"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	}, projections.GetFormListDeps{
		FormStore:     stores.FormStore,
		InstanceStore: stores.InstanceStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	setNextOffset(w, page, len(result.Forms))
	writeJSON(w, http.StatusOK, result.Forms)
}

// handleGetForm handles GET /api/forms/{id}
// Soft-deleted rows are returned so clients can still show their metadata.
func handleGetForm(w http.ResponseWriter, r *http.Request) {
	f, err := stores.FormStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// handleDeleteForm handles POST /api/forms/{id}/delete
func handleDeleteForm(w http.ResponseWriter, r *http.Request) {
	err := orchestrators.ExecuteDeleteForm(r.Context(), orchestrators.DeleteFormInput{
		FormID: r.PathValue("id"),
	}, orchestrators.DeleteFormDeps{
		FormStore:     stores.FormStore,
		InstanceStore: stores.InstanceStore,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
