package api

import (
	"encoding/json"
	"errors"
	"net/http"

	pberr "github.com/pegboard-io/pegboard/internal/errors"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes an error response, mapping domain errors to HTTP status codes.
func Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	var notFound *pberr.NotFoundError
	var alreadyExists *pberr.AlreadyExistsError
	var validation *pberr.ValidationError

	switch {
	case errors.As(err, &notFound):
		status = http.StatusNotFound
		// Unknown boards map to 401, not 404. Long-standing contract with
		// deployed clients; see DESIGN.md before changing.
		if notFound.Resource == "board" {
			status = http.StatusUnauthorized
		}
	case errors.As(err, &alreadyExists):
		status = http.StatusConflict
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	}

	JSON(w, status, map[string]string{"error": message})
}

// BadRequest writes a 400 error with the given message.
func BadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, map[string]string{"error": message})
}

// Unauthorized writes a 401 error with the given message.
func Unauthorized(w http.ResponseWriter, message string) {
	JSON(w, http.StatusUnauthorized, map[string]string{"error": message})
}

// Forbidden writes a 403 error with the given message.
func Forbidden(w http.ResponseWriter, message string) {
	JSON(w, http.StatusForbidden, map[string]string{"error": message})
}
