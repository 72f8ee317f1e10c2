// Package chat defines the platform-neutral surface the workflow needs
// from the chat gateway: sending messages and provisioning spaces/roles.
// The discord gateway implements both.
package chat

import "context"

type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota + 1
	ButtonSecondary
	ButtonSuccess
	ButtonDanger
)

// Embed colors, matching the palette of the rendered prompts.
const (
	ColorBlue   = 0x3498DB
	ColorYellow = 0xF1C40F
	ColorGreen  = 0x2ECC71
	ColorOrange = 0xE67E22
	ColorRed    = 0xE74C3C
)

type Embed struct {
	Title       string
	Description string
	Color       int
}

type Button struct {
	ID    string
	Label string
	Style ButtonStyle
}

type Message struct {
	Content string
	Embed   *Embed
	Buttons []Button
}

type Messenger interface {
	// DirectMessage opens (or reuses) a private conversation with the
	// user and delivers msg there.
	DirectMessage(ctx context.Context, userID string, msg Message) error
	ChannelMessage(ctx context.Context, channelID string, msg Message) error
}

// ChannelSpec describes one channel to provision. AllowRoleIDs are the
// only roles granted visibility; everyone else is denied.
type ChannelSpec struct {
	Name         string
	Voice        bool
	AllowRoleIDs []string
}

type Provisioner interface {
	FindRoleByName(ctx context.Context, name string) (roleID string, ok bool, err error)
	CreateRole(ctx context.Context, name string) (roleID string, err error)
	GrantRole(ctx context.Context, userID, roleID string) error
	CreateCategory(ctx context.Context, name string) (categoryID string, err error)
	CreateChannel(ctx context.Context, categoryID string, spec ChannelSpec) (channelID string, err error)
}
