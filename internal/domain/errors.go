package domain

import "errors"

var (
	ErrDuplicateName           = errors.New("team request already exists")
	ErrRequestNotFound         = errors.New("team request not found")
	ErrAlreadyProcessed        = errors.New("team request already processed")
	ErrTeamRoleNotFound        = errors.New("team role not found")
	ErrMemberNotFound          = errors.New("member not found")
	ErrPrerequisiteRoleMissing = errors.New("baseline staff roles not found")
	ErrNoTeamsAvailable        = errors.New("no approved teams available")
)
