package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"taskflow/services/tasks-service/logging"
	"taskflow/services/tasks-service/models"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps the workflow's error kinds onto HTTP status codes. Guard
// and state errors keep their message; anything unclassified is logged and
// hidden behind a generic 500.
func writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidStateTransition), errors.Is(err, models.ErrAlreadyInTargetState), errors.Is(err, models.ErrConflict):
		status = http.StatusConflict
	default:
		logging.Logger.Errorf("Event ID: INTERNAL_ERROR, Description: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
