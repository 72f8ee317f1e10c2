package domain

import "time"

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// TeamRequest is a client's request to create a team, keyed by team name.
// Join requests are never persisted; they exist only inside the decision
// token attached to the admin prompt.
type TeamRequest struct {
	Name      string
	CreatorID string
	Status    RequestStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
