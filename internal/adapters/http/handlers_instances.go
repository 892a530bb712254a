package web

import (
	"net/http"

	"collect/internal/application/listutil"
	"collect/internal/application/orchestrators"
	"collect/internal/application/projections"
	"collect/internal/domain/instance"
)

type saveInstanceRequest struct {
	InstanceID          string `json:"InstanceID" validate:"omitempty,uuid"`
	DisplayName         string `json:"DisplayName"`
	InstanceFilePath    string `json:"InstanceFilePath" validate:"required_without=InstanceID"`
	JrFormID            string `json:"JrFormID" validate:"required_without=InstanceID"`
	JrVersion           string `json:"JrVersion"`
	SubmissionURI       string `json:"SubmissionURI" validate:"omitempty,url"`
	Status              string `json:"Status" validate:"omitempty,oneof=incomplete complete submitted submission_failed"`
	CanEditWhenComplete bool   `json:"CanEditWhenComplete"`
	GeometryType        string `json:"GeometryType" validate:"required_with=Geometry"`
	Geometry            string `json:"Geometry" validate:"required_with=GeometryType"`
}

// handleSaveInstance handles POST /api/instances
// An empty InstanceID creates a draft; otherwise the live instance is updated.
func handleSaveInstance(w http.ResponseWriter, r *http.Request) {
	var req saveInstanceRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	inst, err := orchestrators.ExecuteSaveInstance(r.Context(), orchestrators.SaveInstanceInput{
		InstanceID:          req.InstanceID,
		DisplayName:         req.DisplayName,
		InstanceFilePath:    req.InstanceFilePath,
		JrFormID:            req.JrFormID,
		JrVersion:           req.JrVersion,
		SubmissionURI:       req.SubmissionURI,
		Status:              instance.Status(req.Status),
		CanEditWhenComplete: req.CanEditWhenComplete,
		GeometryType:        req.GeometryType,
		Geometry:            req.Geometry,
	}, orchestrators.SaveInstanceDeps{
		InstanceStore: stores.InstanceStore,
		GenerateID:    generateID,
		Now:           timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if req.InstanceID == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, inst)
}

// handleListInstances handles GET /api/instances
func handleListInstances(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := listutil.ParsePage(q)
	if err != nil {
		writeError(w, err)
		return
	}
	includeDeleted, err := listutil.ParseFlag(q, "includeDeleted")
	if err != nil {
		writeError(w, err)
		return
	}
	status := instance.Status(q.Get("status"))
	if status != "" && !instance.ValidStatus(status) {
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}

	result, err := projections.QueryGetInstanceList(r.Context(), projections.GetInstanceListQuery{
		JrFormID:       q.Get("jrFormId"),
		Status:         status,
		IncludeDeleted: includeDeleted,
		Limit:          page.Limit,
		Offset:         page.Offset,
	}, projections.GetInstanceListDeps{
		FormStore:     stores.FormStore,
		InstanceStore: stores.InstanceStore,
	})
	if err != nil {
		internalError(w, err)
		return
	}
	setNextOffset(w, page, len(result.Instances))
	writeJSON(w, http.StatusOK, result.Instances)
}

// handleGetInstance handles GET /api/instances/{id}
func handleGetInstance(w http.ResponseWriter, r *http.Request) {
	inst, err := stores.InstanceStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

// handleGetInstanceByPath handles GET /api/instances/by-path?path=...
func handleGetInstanceByPath(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, instance.ErrEmptyFilePath)
		return
	}
	inst, err := stores.InstanceStore.GetByFilePath(r.Context(), path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}

// handleDeleteInstance handles POST /api/instances/{id}/delete
func handleDeleteInstance(w http.ResponseWriter, r *http.Request) {
	inst, err := orchestrators.ExecuteDeleteInstance(r.Context(), orchestrators.DeleteInstanceInput{
		InstanceID: r.PathValue("id"),
	}, orchestrators.DeleteInstanceDeps{
		InstanceStore: stores.InstanceStore,
		Now:           timeNow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inst)
}
