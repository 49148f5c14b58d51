package api

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "lockerbox/internal/errors"
	"lockerbox/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("could not encode response", "error", err)
	}
}

// respondError maps an HTTPError to its status, everything else to 500 with a
// generic message so internals do not leak.
func respondError(w http.ResponseWriter, err error) {
	var httpErr *apperrors.HTTPError
	if errors.As(err, &httpErr) {
		respondJSON(w, httpErr.Code, errorResponse{Error: httpErr.Message})
		return
	}
	logger.Error("request failed", "error", err)
	respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

// Admin auth payloads.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type CreateAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TenantID string `json:"tenant_id"`
}
