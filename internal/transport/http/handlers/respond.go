package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/parleychat/parley/internal/domain"
	"github.com/parleychat/parley/pkg/validator"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeValidationErrors(w http.ResponseWriter, errs validator.ValidationErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]any{
			"code":   "VALIDATION_ERROR",
			"fields": errs,
		},
	})
}

// Validation failures reported as 409 rather than 400.
var conflictCodes = map[string]bool{
	"EMAIL_TAKEN":     true,
	"USERNAME_TAKEN":  true,
	"ROOM_NAME_TAKEN": true,
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Errors outside
// the taxonomy log server-side and surface as a generic 500.
func writeDomainError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	code := domain.CodeOf(err)

	var status int
	switch domain.KindOf(err) {
	case domain.KindAuth:
		status = http.StatusUnauthorized
	case domain.KindValidation:
		status = http.StatusBadRequest
		if conflictCodes[code] {
			status = http.StatusConflict
		}
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindForbidden:
		status = http.StatusForbidden
	default:
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		logger.Error(op, zap.Error(err))
	}
	writeError(w, status, code, domain.MessageOf(err))
}
