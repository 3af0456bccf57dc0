package http

import (
	"encoding/json"
	"net/http"
)

type apiError struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, map[string]any{
		"status": "success",
		"data":   data,
	})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{
		"status":  "success",
		"message": message,
	})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, apiError{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}

// writeFieldErrors returns the full aggregated validation set keyed by field
// code so the form can mark every failing input at once. 422 distinguishes a
// well-formed submission with bad values from malformed requests (400).
func writeFieldErrors(w http.ResponseWriter, errors map[string][]string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"status":  "error",
		"code":    "VALIDATION_ERROR",
		"message": "one or more fields failed validation",
		"errors":  errors,
	})
}
