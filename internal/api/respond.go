package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Message writes a {"message": ...} confirmation body.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}

// Error translates an internal error into the external error contract:
// validation failures map to 400, unknown ids to 404, duplicates to 409,
// anything else to an opaque 500. Internal detail is only logged.
func Error(w http.ResponseWriter, log *slog.Logger, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		JSON(w, http.StatusBadRequest, map[string]string{"error": verr.Message})
	case errors.Is(err, ErrNotFound):
		JSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrConflict):
		JSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Error("internal error", "error", err)
		JSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
