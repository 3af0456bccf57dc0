package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/placemesh/listing-intake-service/internal/application"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}

// form hands the client the token pair it must echo back on submit, plus the
// name of the honeypot field the form must render hidden and empty.
func (h *Handler) form(w http.ResponseWriter, r *http.Request) {
	scope := h.ensureScope(w, r)
	tokens, err := h.service.FormTokens(scope)
	if err != nil {
		writeMappedError(r.Context(), w, "issue_form_tokens", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"csrf_token":     tokens.CSRFToken,
		"form_token":     tokens.TimingToken,
		"honeypot_field": h.service.HoneypotFieldName(),
	})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseSubmission(r)
	if err != nil {
		writeMappedError(r.Context(), w, "submit_listing", err)
		return
	}

	result, err := h.service.SubmitListing(r.Context(), req)
	if err != nil {
		var validationErr *application.ValidationFailedError
		if errors.As(err, &validationErr) {
			logHTTPOperationError(r.Context(), "submit_listing", http.StatusUnprocessableEntity,
				"VALIDATION_ERROR", "one or more fields failed validation", nil)
			writeFieldErrors(w, validationErr.Errors.ByCode())
			return
		}
		writeMappedError(r.Context(), w, "submit_listing", err)
		return
	}

	statusCode := http.StatusCreated
	if result.IsUpdate {
		statusCode = http.StatusOK
	}
	writeSuccess(w, statusCode, result)
}

// flash returns and consumes the caller's stashed values from their last
// rejected submission.
func (h *Handler) flash(w http.ResponseWriter, r *http.Request) {
	token, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}
	payload, err := h.service.RecallSubmission(r.Context(), token)
	if err != nil {
		writeMappedError(r.Context(), w, "recall_submission", err)
		return
	}
	writeSuccess(w, http.StatusOK, json.RawMessage(payload))
}
