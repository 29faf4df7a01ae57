// Package platform defines the collaborator interfaces the moderation core
// consumes. The Discord implementation lives in platform/discord; tests use
// in-memory fakes.
package platform

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a member, role or channel does not exist.
var ErrNotFound = errors.New("not found")

// Member is a guild member snapshot with the fields the core cares about.
type Member struct {
	GuildID   string
	UserID    string
	Username  string
	Bot       bool
	RoleIDs   []string
	RoleNames []string
	// Rank is the position of the member's highest role; higher means more
	// authority. Hierarchy checks compare ranks strictly.
	Rank int
	// CanModerate reports the moderate-members capability.
	CanModerate bool
	JoinedAt    time.Time
	// AccountCreatedAt is when the account itself was registered.
	AccountCreatedAt time.Time
}

type Role struct {
	ID   string
	Name string
	Rank int
}

type Channel struct {
	ID      string
	GuildID string
	Name    string
}

type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
	Content   string
	SentAt    time.Time
}

// Embed is a platform-neutral audit embed.
type Embed struct {
	Title       string
	Description string
	Color       int
	Footer      string
	Fields      []EmbedField
	Timestamp   time.Time
}

type EmbedField struct {
	Name  string
	Value string
}

// RoleColor selects the color policy when a role is created on demand.
type RoleColor int

const (
	// RoleColorGray is used for the muted role.
	RoleColorGray RoleColor = iota
	// RoleColorRandom picks a random color, used for utility roles.
	RoleColorRandom
)

// BanEntry is one standing guild ban.
type BanEntry struct {
	UserID   string
	Username string
	Reason   string
}

// ChannelResolution is the tagged result of resolving a log channel by name:
// either an existing channel was found or a new one was created. Failure is
// the error return.
type ChannelResolution struct {
	Channel *Channel
	Created bool
}

// Membership exposes member and role operations on the chat platform.
type Membership interface {
	FetchMember(ctx context.Context, guildID, userID string) (*Member, error)
	ListMembers(ctx context.Context, guildID string) ([]*Member, error)
	// BotMember returns the acting system's own membership in the guild.
	BotMember(ctx context.Context, guildID string) (*Member, error)

	FindRole(guildID, name string) (*Role, error)
	GetOrCreateRole(ctx context.Context, guildID, name string, color RoleColor) (*Role, error)
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error

	Kick(ctx context.Context, guildID, userID, reason string) error
	// Ban removes the member and optionally purges their messages from the
	// last deleteDays days.
	Ban(ctx context.Context, guildID, userID, reason string, deleteDays int) error
	Unban(ctx context.Context, guildID, userID string) error
	ListBans(ctx context.Context, guildID string) ([]*BanEntry, error)
}

// Channels exposes channel and message operations.
type Channels interface {
	GuildIDs() []string
	GuildName(guildID string) string

	FindTextChannel(guildID, name string) (*Channel, error)
	ListTextChannels(guildID string) ([]*Channel, error)
	// Resolve finds a text channel by exact name or creates it with
	// moderation-only permission overwrites.
	Resolve(ctx context.Context, guildID, name string) (*ChannelResolution, error)

	Send(ctx context.Context, channelID, content string) error
	SendEmbed(ctx context.Context, channelID string, embed *Embed) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	BulkDelete(ctx context.Context, channelID string, messageIDs []string) error
	RecentMessages(ctx context.Context, channelID string, limit int) ([]*Message, error)
}

// Notifier delivers direct messages to users. Best-effort: callers treat
// failures as non-fatal.
type Notifier interface {
	DirectMessage(ctx context.Context, userID, content string) error
	DirectEmbed(ctx context.Context, userID string, embed *Embed) error
}
