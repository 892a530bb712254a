package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"collect/internal/application/listutil"
	"collect/internal/domain/form"
	"collect/internal/domain/instance"
)

// maxBodyBytes caps request bodies; geometry payloads are the largest inputs.
const maxBodyBytes = 1 << 20

func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields,
// then runs the struct's validate tags.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errBadRequest{err}
	}
	if err := validate.Struct(v); err != nil {
		return errBadRequest{err}
	}
	return nil
}

type errBadRequest struct{ err error }

func (e errBadRequest) Error() string { return e.err.Error() }
func (e errBadRequest) Unwrap() error { return e.err }

var badRequestErrors = []error{
	form.ErrEmptyID, form.ErrEmptyFormID, form.ErrEmptyDisplayName, form.ErrEmptyFilePath, form.ErrInvalidState,
	instance.ErrEmptyID, instance.ErrEmptyFormID, instance.ErrEmptyFilePath, instance.ErrInvalidStatus,
	instance.ErrGeometryOnDeleted, instance.ErrInvalidGeometry,
	listutil.ErrInvalidParam,
}

// writeError maps domain errors onto status codes; anything unknown is a 500.
func writeError(w http.ResponseWriter, err error) {
	var badRequest errBadRequest
	var invalid validator.ValidationErrors
	switch {
	case errors.Is(err, form.ErrNotFound), errors.Is(err, instance.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, instance.ErrAlreadyDeleted), errors.Is(err, instance.ErrDeleted):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &invalid):
		http.Error(w, invalid.Error(), http.StatusBadRequest)
	case errors.As(err, &badRequest), isBadRequest(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		internalError(w, err)
	}
}

func isBadRequest(err error) bool {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response_encode_failed", "error", err.Error())
	}
}

// NextOffsetHeader is set on list responses when a further page may exist.
const NextOffsetHeader = "X-Next-Offset"

func setNextOffset(w http.ResponseWriter, page listutil.Page, returned int) {
	if page.HasMore(returned) {
		w.Header().Set(NextOffsetHeader, strconv.Itoa(page.Next().Offset))
	}
}

// handlePerf handles GET /api/perf
func handlePerf(w http.ResponseWriter, r *http.Request) {
	if perfCollector == nil {
		http.Error(w, "perf collection disabled", http.StatusNotFound)
		return
	}
	window := 15 * time.Minute
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			http.Error(w, "window must be a positive duration", http.StatusBadRequest)
			return
		}
		window = d
	}
	writeJSON(w, http.StatusOK, perfCollector.Snapshot(time.Now().Add(-window), 10))
}
