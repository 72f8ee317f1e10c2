package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"teambot/internal/chat"
	"teambot/internal/domain"
	"teambot/internal/prompt"
	"teambot/internal/storage"
	"teambot/internal/token"
)

type Service interface {
	// OpenTicket sends the onboarding ticket to a user who just received
	// the client role. Delivery failure is logged, not returned; there is
	// no channel to report it back to.
	OpenTicket(ctx context.Context, userID string) error
	// RequestCreate runs the create-team flow in the given conversation,
	// blocking up to the prompt window. It returns the captured team name
	// together with the flow outcome.
	RequestCreate(ctx context.Context, userID, channelID string) (string, error)
	// RequestJoin runs the join-team flow in the given conversation.
	RequestJoin(ctx context.Context, userID, channelID string) (string, error)
	// DecideCreate applies an administrator's decision on a create
	// request. The first decision wins; later ones see ErrAlreadyProcessed.
	DecideCreate(ctx context.Context, decider, teamName string, approve bool) error
	// DecideJoin applies an administrator's decision on a join request.
	// There is no stored state to mutate; approval grants the team role.
	DecideJoin(ctx context.Context, decider, teamName, requesterID string, approve bool) error
	// DeliverMessage feeds an inbound text message to any waiting prompt.
	DeliverMessage(channelID, authorID, content string) bool

	ListRequests(ctx context.Context, status domain.RequestStatus) ([]domain.TeamRequest, error)
	GetRequest(ctx context.Context, name string) (domain.TeamRequest, error)
	Health(ctx context.Context) error
}

// Provisioner is the slice of the provisioning engine the decision
// handler invokes after approvals.
type Provisioner interface {
	CreateTeamSpace(ctx context.Context, name, creatorID string) error
	GrantTeamRole(ctx context.Context, name, userID string) error
}

type Options struct {
	AdminChannelID string
	PromptWindow   time.Duration
}

type TicketService struct {
	repo           storage.Repository
	chat           chat.Messenger
	prov           Provisioner
	collector      *prompt.Collector
	adminChannelID string
	window         time.Duration
}

var _ Service = (*TicketService)(nil)

func New(repo storage.Repository, messenger chat.Messenger, prov Provisioner, opts Options) *TicketService {
	window := opts.PromptWindow
	if window <= 0 {
		window = prompt.DefaultWindow
	}

	return &TicketService{
		repo:           repo,
		chat:           messenger,
		prov:           prov,
		collector:      prompt.NewCollector(),
		adminChannelID: opts.AdminChannelID,
		window:         window,
	}
}

func (s *TicketService) OpenTicket(ctx context.Context, userID string) error {
	msg := chat.Message{
		Embed: &chat.Embed{
			Title: "Client Ticket",
			Description: "If you are a client that wants to create a new group, click 'Create Team'.\n" +
				"If you are a client that wants to join a team, click 'Join Team'.\n" +
				"If you clicked it by accident, click 'Ignore'.\n\n" +
				"**Warning:** Joining a team that you are not involved with will result in a warning. Continuous acts will result in a ban.",
			Color: chat.ColorBlue,
		},
		Buttons: []chat.Button{
			{ID: token.MenuCreateTeam, Label: "Create Team", Style: chat.ButtonPrimary},
			{ID: token.MenuJoinTeam, Label: "Join Team", Style: chat.ButtonSecondary},
			{ID: token.MenuIgnore, Label: "Ignore", Style: chat.ButtonDanger},
		},
	}

	if err := s.chat.DirectMessage(ctx, userID, msg); err != nil {
		log.Printf("service: could not send ticket to %s: %v", userID, err)
	}
	return nil
}

func (s *TicketService) RequestCreate(ctx context.Context, userID, channelID string) (string, error) {
	if err := s.chat.ChannelMessage(ctx, channelID, chat.Message{Content: "Please provide a team name."}); err != nil {
		return "", fmt.Errorf("send name prompt: %w", err)
	}

	name, err := s.collector.Await(ctx, channelID, userID, s.window)
	if err != nil {
		return "", err
	}

	if err := token.ValidateTeamName(name); err != nil {
		return name, err
	}

	req, err := s.repo.CreateRequest(ctx, domain.TeamRequest{
		Name:      name,
		CreatorID: userID,
		Status:    domain.StatusPending,
	})
	if err != nil {
		return name, err
	}

	if err := s.sendCreatePrompt(ctx, req); err != nil {
		return name, err
	}
	return name, nil
}

func (s *TicketService) sendCreatePrompt(ctx context.Context, req domain.TeamRequest) error {
	approveID, err := token.Decision{Verb: token.VerbApprove, Team: req.Name}.Encode()
	if err != nil {
		return err
	}
	rejectID, err := token.Decision{Verb: token.VerbReject, Team: req.Name}.Encode()
	if err != nil {
		return err
	}

	msg := chat.Message{
		Embed: &chat.Embed{
			Title: "New Team Request",
			Description: fmt.Sprintf("User <@%s> (%s) has requested to create a team named %q.\n\n"+
				"Click the buttons below to approve or reject.", req.CreatorID, req.CreatorID, req.Name),
			Color: chat.ColorYellow,
		},
		Buttons: []chat.Button{
			{ID: approveID, Label: "Approve", Style: chat.ButtonSuccess},
			{ID: rejectID, Label: "Reject", Style: chat.ButtonDanger},
		},
	}

	if err := s.chat.ChannelMessage(ctx, s.adminChannelID, msg); err != nil {
		return fmt.Errorf("send decision prompt: %w", err)
	}
	return nil
}

func (s *TicketService) RequestJoin(ctx context.Context, userID, channelID string) (string, error) {
	approved, err := s.repo.ListByStatus(ctx, domain.StatusApproved)
	if err != nil {
		return "", fmt.Errorf("list approved teams: %w", err)
	}
	if len(approved) == 0 {
		return "", domain.ErrNoTeamsAvailable
	}

	list := ""
	for _, req := range approved {
		list += fmt.Sprintf("- %s\n", req.Name)
	}
	msg := chat.Message{
		Content: "Please provide the name of the team you want to join.",
		Embed: &chat.Embed{
			Title:       "Available Teams",
			Description: list,
			Color:       chat.ColorGreen,
		},
	}
	if err := s.chat.ChannelMessage(ctx, channelID, msg); err != nil {
		return "", fmt.Errorf("send join prompt: %w", err)
	}

	name, err := s.collector.Await(ctx, channelID, userID, s.window)
	if err != nil {
		return "", err
	}

	// The candidate list above is advisory; the typed name is what counts.
	req, err := s.repo.GetRequest(ctx, name)
	if err != nil {
		return name, err
	}
	if req.Status != domain.StatusApproved {
		return name, domain.ErrRequestNotFound
	}

	if err := s.sendJoinPrompt(ctx, name, userID); err != nil {
		return name, err
	}
	return name, nil
}

func (s *TicketService) sendJoinPrompt(ctx context.Context, teamName, requesterID string) error {
	approveID, err := token.Decision{Verb: token.VerbApprove, Join: true, Team: teamName, Requester: requesterID}.Encode()
	if err != nil {
		return err
	}
	rejectID, err := token.Decision{Verb: token.VerbReject, Join: true, Team: teamName, Requester: requesterID}.Encode()
	if err != nil {
		return err
	}

	msg := chat.Message{
		Embed: &chat.Embed{
			Title: "Join Team Request",
			Description: fmt.Sprintf("User <@%s> (%s) has requested to join the team %q.\n\n"+
				"Click the buttons below to approve or reject.", requesterID, requesterID, teamName),
			Color: chat.ColorOrange,
		},
		Buttons: []chat.Button{
			{ID: approveID, Label: "Approve", Style: chat.ButtonSuccess},
			{ID: rejectID, Label: "Reject", Style: chat.ButtonDanger},
		},
	}

	if err := s.chat.ChannelMessage(ctx, s.adminChannelID, msg); err != nil {
		return fmt.Errorf("send decision prompt: %w", err)
	}
	return nil
}

func (s *TicketService) DecideCreate(ctx context.Context, decider, teamName string, approve bool) error {
	to := domain.StatusRejected
	verb := "rejected"
	if approve {
		to = domain.StatusApproved
		verb = "approved"
	}

	ok, err := s.repo.TransitionStatus(ctx, teamName, domain.StatusPending, to)
	if err != nil {
		return fmt.Errorf("transition request %q: %w", teamName, err)
	}
	if !ok {
		if _, err := s.repo.GetRequest(ctx, teamName); err != nil {
			return err
		}
		return domain.ErrAlreadyProcessed
	}

	if approve {
		req, err := s.repo.GetRequest(ctx, teamName)
		if err != nil {
			return err
		}
		if err := s.prov.CreateTeamSpace(ctx, req.Name, req.CreatorID); err != nil {
			return err
		}
	}

	s.notifyAdmins(ctx, fmt.Sprintf("%s has %s the team creation request for %q.", decider, verb, teamName))
	return nil
}

func (s *TicketService) DecideJoin(ctx context.Context, decider, teamName, requesterID string, approve bool) error {
	verb := "rejected"
	if approve {
		verb = "approved"
		if err := s.prov.GrantTeamRole(ctx, teamName, requesterID); err != nil {
			return err
		}
	}

	s.notifyAdmins(ctx, fmt.Sprintf("%s has %s the join request for %q.", decider, verb, teamName))
	return nil
}

func (s *TicketService) notifyAdmins(ctx context.Context, text string) {
	msg := chat.Message{
		Embed: &chat.Embed{
			Title:       "Admin Notification",
			Description: text,
			Color:       chat.ColorRed,
		},
	}
	if err := s.chat.ChannelMessage(ctx, s.adminChannelID, msg); err != nil {
		log.Printf("service: notify admins: %v", err)
	}
}

func (s *TicketService) DeliverMessage(channelID, authorID, content string) bool {
	return s.collector.Deliver(channelID, authorID, content)
}

func (s *TicketService) ListRequests(ctx context.Context, status domain.RequestStatus) ([]domain.TeamRequest, error) {
	return s.repo.ListByStatus(ctx, status)
}

func (s *TicketService) GetRequest(ctx context.Context, name string) (domain.TeamRequest, error) {
	return s.repo.GetRequest(ctx, name)
}

func (s *TicketService) Health(ctx context.Context) error {
	return s.repo.Health(ctx)
}
