// Package discord adapts the workflow to the Discord gateway: it wires
// session events into the service, renders messages and decision
// controls, and implements the provisioning capability with guild REST
// calls.
package discord

import (
	"context"
	"errors"
	"fmt"
	"log"

	"teambot/internal/chat"
	"teambot/internal/config"
	"teambot/internal/domain"
	"teambot/internal/prompt"
	"teambot/internal/service"
	"teambot/internal/token"

	"github.com/bwmarrin/discordgo"
)

var (
	_ chat.Messenger   = (*Bot)(nil)
	_ chat.Provisioner = (*Bot)(nil)
)

const teamRoleColor = 0x0000FF

type Bot struct {
	session    *discordgo.Session
	svc        service.Service
	guildID    string
	clientRole string
}

func New(cfg config.DiscordConfig) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return &Bot{
		session:    session,
		guildID:    cfg.GuildID,
		clientRole: cfg.ClientRole,
	}, nil
}

// Attach registers the event handlers. It must run before Run; the bot
// and the service reference each other, so construction happens in two
// steps.
func (b *Bot) Attach(svc service.Service) {
	b.svc = svc
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onGuildMemberUpdate)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteractionCreate)
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	<-ctx.Done()
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Printf("discord: logged in as %s", r.User.Username)
}

// onGuildMemberUpdate fires the onboarding ticket exactly once per
// transition into the client role.
func (b *Bot) onGuildMemberUpdate(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
	if m.GuildID != b.guildID || m.User == nil {
		return
	}
	// Without the cached previous member state the role diff is unknown;
	// firing here could repeat the ticket on unrelated updates.
	if m.BeforeUpdate == nil {
		return
	}

	clientRoleID, ok, err := b.FindRoleByName(context.Background(), b.clientRole)
	if err != nil {
		log.Printf("discord: resolve client role: %v", err)
		return
	}
	if !ok {
		return
	}

	if hasRole(m.BeforeUpdate.Roles, clientRoleID) || !hasRole(m.Roles, clientRoleID) {
		return
	}

	userID := m.User.ID
	go func() {
		if err := b.svc.OpenTicket(context.Background(), userID); err != nil {
			log.Printf("discord: open ticket for %s: %v", userID, err)
		}
	}()
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	b.svc.DeliverMessage(m.ChannelID, m.Author.ID, m.Content)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent {
		return
	}

	user := interactionUser(i)
	if user == nil {
		return
	}
	customID := i.MessageComponentData().CustomID

	switch customID {
	case token.MenuCreateTeam:
		b.deferThen(i, func(ctx context.Context) string {
			name, err := b.svc.RequestCreate(ctx, user.ID, i.ChannelID)
			return createOutcome(name, err)
		})
	case token.MenuJoinTeam:
		b.deferThen(i, func(ctx context.Context) string {
			name, err := b.svc.RequestJoin(ctx, user.ID, i.ChannelID)
			return joinOutcome(name, err)
		})
	case token.MenuIgnore:
		b.respond(i, "Ticket ignored.")
	default:
		decision, isDecision, err := token.Parse(customID)
		if !isDecision {
			return
		}
		if err != nil {
			log.Printf("discord: parse decision token %q: %v", customID, err)
			b.respond(i, "This decision control is malformed and cannot be processed.")
			return
		}

		decider := user.Username
		approve := decision.Verb == token.VerbApprove
		b.deferThen(i, func(ctx context.Context) string {
			if decision.Join {
				err := b.svc.DecideJoin(ctx, decider, decision.Team, decision.Requester, approve)
				return joinDecisionOutcome(decision, approve, err)
			}
			err := b.svc.DecideCreate(ctx, decider, decision.Team, approve)
			return createDecisionOutcome(decision.Team, approve, err)
		})
	}
}

// deferThen acknowledges the interaction within Discord's response
// deadline, runs the flow (which may block on a prompt window), and edits
// the deferred reply with the outcome.
func (b *Bot) deferThen(i *discordgo.InteractionCreate, fn func(context.Context) string) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		log.Printf("discord: acknowledge interaction: %v", err)
		return
	}

	go func() {
		content := fn(context.Background())
		if _, err := b.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
			log.Printf("discord: edit interaction reply: %v", err)
		}
	}()
}

func (b *Bot) respond(i *discordgo.InteractionCreate, content string) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		log.Printf("discord: respond to interaction: %v", err)
	}
}

func createOutcome(name string, err error) string {
	switch {
	case err == nil:
		return fmt.Sprintf("Team %q has been submitted for approval.", name)
	case errors.Is(err, prompt.ErrNoResponse):
		return "No team name provided. Ticket ignored."
	case errors.Is(err, prompt.ErrCollectorBusy):
		return "A prompt is already waiting for your reply in this conversation."
	case errors.Is(err, token.ErrReservedDelimiter):
		return fmt.Sprintf("Team names may not contain %q. Please start over.", ":")
	case errors.Is(err, domain.ErrDuplicateName):
		return fmt.Sprintf("A team named %q has already been requested.", name)
	default:
		log.Printf("discord: create flow: %v", err)
		return "There was an error processing your team request."
	}
}

func joinOutcome(name string, err error) string {
	switch {
	case err == nil:
		return fmt.Sprintf("Your request to join team %q has been submitted for approval.", name)
	case errors.Is(err, domain.ErrNoTeamsAvailable):
		return "No teams available to join."
	case errors.Is(err, prompt.ErrNoResponse):
		return "No team name provided. Request ignored."
	case errors.Is(err, prompt.ErrCollectorBusy):
		return "A prompt is already waiting for your reply in this conversation."
	case errors.Is(err, domain.ErrRequestNotFound):
		return fmt.Sprintf("The team %q does not exist or is not approved.", name)
	default:
		log.Printf("discord: join flow: %v", err)
		return "There was an error processing your join request."
	}
}

func createDecisionOutcome(teamName string, approve bool, err error) string {
	verb := "rejected"
	if approve {
		verb = "approved"
	}

	switch {
	case err == nil:
		return fmt.Sprintf("Team %q has been %s.", teamName, verb)
	case errors.Is(err, domain.ErrRequestNotFound):
		return fmt.Sprintf("Team %q not found.", teamName)
	case errors.Is(err, domain.ErrAlreadyProcessed):
		return fmt.Sprintf("Team %q has already been processed.", teamName)
	case errors.Is(err, domain.ErrPrerequisiteRoleMissing):
		return fmt.Sprintf("Team %q was approved, but the staff roles are missing; the team space was not provisioned.", teamName)
	default:
		log.Printf("discord: create decision: %v", err)
		return fmt.Sprintf("There was an error processing the request for team %q.", teamName)
	}
}

func joinDecisionOutcome(decision token.Decision, approve bool, err error) string {
	switch {
	case err == nil && approve:
		return fmt.Sprintf("User <@%s> has been approved to join the team %q.", decision.Requester, decision.Team)
	case err == nil:
		return fmt.Sprintf("Join request for team %q has been rejected.", decision.Team)
	case errors.Is(err, domain.ErrTeamRoleNotFound):
		return fmt.Sprintf("Team role for %q not found.", decision.Team)
	case errors.Is(err, domain.ErrMemberNotFound):
		return "User not found."
	default:
		log.Printf("discord: join decision: %v", err)
		return fmt.Sprintf("There was an error processing the join request for team %q.", decision.Team)
	}
}

// Messenger implementation.

func (b *Bot) DirectMessage(ctx context.Context, userID string, msg chat.Message) error {
	channel, err := b.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("open direct channel with %s: %w", userID, err)
	}
	return b.ChannelMessage(ctx, channel.ID, msg)
}

func (b *Bot) ChannelMessage(ctx context.Context, channelID string, msg chat.Message) error {
	if _, err := b.session.ChannelMessageSendComplex(channelID, render(msg), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send message to %s: %w", channelID, err)
	}
	return nil
}

func render(msg chat.Message) *discordgo.MessageSend {
	send := &discordgo.MessageSend{Content: msg.Content}

	if msg.Embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{{
			Title:       msg.Embed.Title,
			Description: msg.Embed.Description,
			Color:       msg.Embed.Color,
		}}
	}

	if len(msg.Buttons) > 0 {
		row := discordgo.ActionsRow{}
		for _, button := range msg.Buttons {
			row.Components = append(row.Components, discordgo.Button{
				Label:    button.Label,
				Style:    buttonStyle(button.Style),
				CustomID: button.ID,
			})
		}
		send.Components = []discordgo.MessageComponent{row}
	}

	return send
}

func buttonStyle(style chat.ButtonStyle) discordgo.ButtonStyle {
	switch style {
	case chat.ButtonSecondary:
		return discordgo.SecondaryButton
	case chat.ButtonSuccess:
		return discordgo.SuccessButton
	case chat.ButtonDanger:
		return discordgo.DangerButton
	default:
		return discordgo.PrimaryButton
	}
}

// Provisioner implementation.

func (b *Bot) FindRoleByName(ctx context.Context, name string) (string, bool, error) {
	roles, err := b.session.GuildRoles(b.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", false, fmt.Errorf("list guild roles: %w", err)
	}
	for _, role := range roles {
		if role.Name == name {
			return role.ID, true, nil
		}
	}
	return "", false, nil
}

func (b *Bot) CreateRole(ctx context.Context, name string) (string, error) {
	color := teamRoleColor
	role, err := b.session.GuildRoleCreate(b.guildID, &discordgo.RoleParams{
		Name:  name,
		Color: &color,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create role %q: %w", name, err)
	}
	return role.ID, nil
}

func (b *Bot) GrantRole(ctx context.Context, userID, roleID string) error {
	if _, err := b.session.GuildMember(b.guildID, userID, discordgo.WithContext(ctx)); err != nil {
		return domain.ErrMemberNotFound
	}
	if err := b.session.GuildMemberRoleAdd(b.guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("add role to member %s: %w", userID, err)
	}
	return nil
}

func (b *Bot) CreateCategory(ctx context.Context, name string) (string, error) {
	channel, err := b.session.GuildChannelCreateComplex(b.guildID, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create category %q: %w", name, err)
	}
	return channel.ID, nil
}

func (b *Bot) CreateChannel(ctx context.Context, categoryID string, spec chat.ChannelSpec) (string, error) {
	// The @everyone role shares the guild's ID.
	overwrites := []*discordgo.PermissionOverwrite{{
		ID:   b.guildID,
		Type: discordgo.PermissionOverwriteTypeRole,
		Deny: discordgo.PermissionViewChannel,
	}}
	for _, roleID := range spec.AllowRoleIDs {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    roleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel,
		})
	}

	channelType := discordgo.ChannelTypeGuildText
	if spec.Voice {
		channelType = discordgo.ChannelTypeGuildVoice
	}

	channel, err := b.session.GuildChannelCreateComplex(b.guildID, discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 channelType,
		ParentID:             categoryID,
		PermissionOverwrites: overwrites,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create channel %q: %w", spec.Name, err)
	}
	return channel.ID, nil
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

func hasRole(roles []string, roleID string) bool {
	for _, id := range roles {
		if id == roleID {
			return true
		}
	}
	return false
}
