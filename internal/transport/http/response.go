package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"teambot/internal/domain"
)

type errorResponse struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type requestPayload struct {
	Name      string    `json:"name"`
	CreatorID string    `json:"creator_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	})
}

func mapRequest(req domain.TeamRequest) requestPayload {
	return requestPayload{
		Name:      req.Name,
		CreatorID: req.CreatorID,
		Status:    string(req.Status),
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
	}
}
