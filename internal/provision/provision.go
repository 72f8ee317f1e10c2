// Package provision creates a team's communication space after approval:
// a category, its channels, the team role, and the creator's role grant.
package provision

import (
	"context"
	"fmt"
	"log"

	"teambot/internal/chat"
	"teambot/internal/domain"
)

type channelBlueprint struct {
	name string
	icon string
	// voice marks the channel as voice-capable.
	voice bool
	// teamVisible grants the team's own role visibility. The notes
	// channel is staff-only.
	teamVisible bool
}

var blueprints = []channelBlueprint{
	{name: "communication", icon: "\U0001F4AC", teamVisible: true},
	{name: "meetings", icon: "\U0001F4C5", voice: true, teamVisible: true},
	{name: "notes", icon: "\U0001F4DD"},
	{name: "files", icon: "\U0001F4C1", teamVisible: true},
	{name: "timeline-progress", icon: "\U0001F4C8", teamVisible: true},
	{name: "payments", icon: "\U0001F4B8", teamVisible: true},
}

type Engine struct {
	prov          chat.Provisioner
	developerRole string
	moderatorRole string
}

func NewEngine(prov chat.Provisioner, developerRole, moderatorRole string) *Engine {
	return &Engine{
		prov:          prov,
		developerRole: developerRole,
		moderatorRole: moderatorRole,
	}
}

// CreateTeamSpace provisions the space for an approved team. Channel
// creation is best effort: a failed channel is logged and the remaining
// steps still run. There is no rollback of completed steps.
func (e *Engine) CreateTeamSpace(ctx context.Context, name, creatorID string) error {
	developerID, ok, err := e.prov.FindRoleByName(ctx, e.developerRole)
	if err != nil {
		return fmt.Errorf("find role %q: %w", e.developerRole, err)
	}
	if !ok {
		return domain.ErrPrerequisiteRoleMissing
	}
	moderatorID, ok, err := e.prov.FindRoleByName(ctx, e.moderatorRole)
	if err != nil {
		return fmt.Errorf("find role %q: %w", e.moderatorRole, err)
	}
	if !ok {
		return domain.ErrPrerequisiteRoleMissing
	}

	// Ensure the team role exists before the channels do, so their
	// permission overwrites can reference it.
	teamRoleID, ok, err := e.prov.FindRoleByName(ctx, name)
	if err != nil {
		return fmt.Errorf("find team role %q: %w", name, err)
	}
	if !ok {
		teamRoleID, err = e.prov.CreateRole(ctx, name)
		if err != nil {
			return fmt.Errorf("create team role %q: %w", name, err)
		}
	}

	categoryID, err := e.prov.CreateCategory(ctx, name)
	if err != nil {
		return fmt.Errorf("create category %q: %w", name, err)
	}

	for _, bp := range blueprints {
		allow := []string{developerID, moderatorID}
		if bp.teamVisible {
			allow = append(allow, teamRoleID)
		}

		spec := chat.ChannelSpec{
			Name:         bp.icon + " " + bp.name,
			Voice:        bp.voice,
			AllowRoleIDs: allow,
		}
		if _, err := e.prov.CreateChannel(ctx, categoryID, spec); err != nil {
			log.Printf("provision: create channel %q for team %q: %v", bp.name, name, err)
		}
	}

	if err := e.prov.GrantRole(ctx, creatorID, teamRoleID); err != nil {
		return fmt.Errorf("grant team role to creator %s: %w", creatorID, err)
	}
	return nil
}

// GrantTeamRole grants the existing role named after the team to userID.
func (e *Engine) GrantTeamRole(ctx context.Context, name, userID string) error {
	roleID, ok, err := e.prov.FindRoleByName(ctx, name)
	if err != nil {
		return fmt.Errorf("find team role %q: %w", name, err)
	}
	if !ok {
		return domain.ErrTeamRoleNotFound
	}

	if err := e.prov.GrantRole(ctx, userID, roleID); err != nil {
		return fmt.Errorf("grant role %q to %s: %w", name, userID, err)
	}
	return nil
}
