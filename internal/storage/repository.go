package storage

import (
	"context"

	"teambot/internal/domain"
)

type Repository interface {
	// CreateRequest inserts a new pending request. The store enforces
	// name uniqueness atomically and returns domain.ErrDuplicateName if
	// any record with that name already exists.
	CreateRequest(ctx context.Context, req domain.TeamRequest) (domain.TeamRequest, error)
	GetRequest(ctx context.Context, name string) (domain.TeamRequest, error)
	// TransitionStatus is a compare-and-set on the request's status.
	// It returns false both when no record matches name and when the
	// record is no longer in the from status; callers distinguish the
	// two with a follow-up GetRequest.
	TransitionStatus(ctx context.Context, name string, from, to domain.RequestStatus) (bool, error)
	ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.TeamRequest, error)

	Health(ctx context.Context) error
}
