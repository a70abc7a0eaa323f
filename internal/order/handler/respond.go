package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-order-service/internal/apperr"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: code, Message: message})
}

// respondDomainError maps the typed error taxonomy onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	kind, ok := apperr.KindOf(err)
	if !ok {
		respondError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}

	status := http.StatusInternalServerError
	switch kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindPolicy:
		status = http.StatusForbidden
	case apperr.KindPaymentMismatch:
		status = http.StatusUnprocessableEntity
	case apperr.KindConsistency:
		status = http.StatusConflict
		if errors.Is(err, apperr.ErrOrderNotFound) {
			status = http.StatusNotFound
		}
	}

	respondError(w, status, kind.String(), err.Error())
}
