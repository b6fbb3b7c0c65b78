package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yingshengwanyue/zhouzhou/internal/models"
)

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// respondDomainError maps domain outcomes to status codes. Anything
// outside the taxonomy is a store failure: logged in full, surfaced as a
// generic 500 with no internal detail.
func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		h.respondError(w, http.StatusBadRequest, "required fields are missing or empty")
	case errors.Is(err, models.ErrTooManyFiles):
		h.respondError(w, http.StatusBadRequest, "too many files")
	case errors.Is(err, models.ErrInvalidCredentials):
		h.respondError(w, http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, models.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "diary entry not found")
	case errors.Is(err, models.ErrDuplicateUsername):
		h.respondError(w, http.StatusConflict, "username already exists")
	case errors.Is(err, models.ErrPayloadTooLarge):
		h.respondError(w, http.StatusRequestEntityTooLarge, "file exceeds the size limit")
	case errors.Is(err, models.ErrUnsupportedMedia):
		h.respondError(w, http.StatusUnsupportedMediaType, "only JPEG, JPG, PNG and GIF images are supported")
	default:
		h.log.Errorf("Request failed: %v", err)
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
