// Package discord implements the platform collaborator interfaces on top of
// a discordgo session.
package discord

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/bwmarrin/discordgo"

	"stan-guard/internal/logger"
	"stan-guard/internal/platform"
)

const mutedRoleColor = 0x808080

// Adapter wraps a discordgo session and its state cache.
type Adapter struct {
	session *discordgo.Session
}

func NewAdapter(session *discordgo.Session) *Adapter {
	return &Adapter{session: session}
}

// Session exposes the underlying discordgo session for handler registration.
func (a *Adapter) Session() *discordgo.Session {
	return a.session
}

func (a *Adapter) guild(guildID string) (*discordgo.Guild, error) {
	guild, err := a.session.State.Guild(guildID)
	if err == nil {
		return guild, nil
	}
	guild, err = a.session.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("fetching guild %s: %w", guildID, err)
	}
	return guild, nil
}

// memberFromDiscord converts a discordgo member into the platform snapshot,
// resolving role names and the authority rank from the guild's role list.
func (a *Adapter) memberFromDiscord(guild *discordgo.Guild, m *discordgo.Member) *platform.Member {
	member := &platform.Member{
		GuildID:  guild.ID,
		UserID:   m.User.ID,
		Username: m.User.Username,
		Bot:      m.User.Bot,
		RoleIDs:  m.Roles,
		JoinedAt: m.JoinedAt,
	}

	if created, err := discordgo.SnowflakeTimestamp(m.User.ID); err == nil {
		member.AccountCreatedAt = created
	}

	var permissions int64
	for _, role := range guild.Roles {
		if role.ID == guild.ID {
			// @everyone applies to every member
			permissions |= role.Permissions
			continue
		}
		for _, id := range m.Roles {
			if id == role.ID {
				member.RoleNames = append(member.RoleNames, role.Name)
				permissions |= role.Permissions
				if role.Position > member.Rank {
					member.Rank = role.Position
				}
				break
			}
		}
	}

	member.CanModerate = permissions&discordgo.PermissionAdministrator != 0 ||
		permissions&discordgo.PermissionModerateMembers != 0
	return member
}

func (a *Adapter) FetchMember(ctx context.Context, guildID, userID string) (*platform.Member, error) {
	guild, err := a.guild(guildID)
	if err != nil {
		return nil, err
	}

	m, err := a.session.State.Member(guildID, userID)
	if err != nil {
		m, err = a.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
		if err != nil {
			if restErr, ok := err.(*discordgo.RESTError); ok && restErr.Response != nil && restErr.Response.StatusCode == 404 {
				return nil, platform.ErrNotFound
			}
			return nil, fmt.Errorf("fetching member %s in guild %s: %w", userID, guildID, err)
		}
	}

	return a.memberFromDiscord(guild, m), nil
}

func (a *Adapter) ListMembers(ctx context.Context, guildID string) ([]*platform.Member, error) {
	guild, err := a.guild(guildID)
	if err != nil {
		return nil, err
	}

	var members []*platform.Member
	after := ""
	for {
		batch, err := a.session.GuildMembers(guildID, after, 1000, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing members of guild %s: %w", guildID, err)
		}
		for _, m := range batch {
			members = append(members, a.memberFromDiscord(guild, m))
		}
		if len(batch) < 1000 {
			break
		}
		after = batch[len(batch)-1].User.ID
	}
	return members, nil
}

func (a *Adapter) BotMember(ctx context.Context, guildID string) (*platform.Member, error) {
	return a.FetchMember(ctx, guildID, a.session.State.User.ID)
}

func (a *Adapter) FindRole(guildID, name string) (*platform.Role, error) {
	guild, err := a.guild(guildID)
	if err != nil {
		return nil, err
	}
	for _, role := range guild.Roles {
		if role.Name == name {
			return &platform.Role{ID: role.ID, Name: role.Name, Rank: role.Position}, nil
		}
	}
	return nil, platform.ErrNotFound
}

func (a *Adapter) GetOrCreateRole(ctx context.Context, guildID, name string, color platform.RoleColor) (*platform.Role, error) {
	role, err := a.FindRole(guildID, name)
	if err == nil {
		return role, nil
	}
	if err != platform.ErrNotFound {
		return nil, err
	}

	roleColor := mutedRoleColor
	if color == platform.RoleColorRandom {
		roleColor = rand.Intn(0xFFFFFF + 1)
	}
	var noPermissions int64
	created, err := a.session.GuildRoleCreate(guildID, &discordgo.RoleParams{
		Name:        name,
		Color:       &roleColor,
		Permissions: &noPermissions,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("creating role %q in guild %s: %w", name, guildID, err)
	}
	logger.Infof("Created role %q (%s) in guild %s", name, created.ID, guildID)
	return &platform.Role{ID: created.ID, Name: created.Name, Rank: created.Position}, nil
}

func (a *Adapter) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return a.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (a *Adapter) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return a.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (a *Adapter) Kick(ctx context.Context, guildID, userID, reason string) error {
	return a.session.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx))
}

func (a *Adapter) Ban(ctx context.Context, guildID, userID, reason string, deleteDays int) error {
	return a.session.GuildBanCreateWithReason(guildID, userID, reason, deleteDays, discordgo.WithContext(ctx))
}

func (a *Adapter) Unban(ctx context.Context, guildID, userID string) error {
	return a.session.GuildBanDelete(guildID, userID, discordgo.WithContext(ctx))
}

func (a *Adapter) ListBans(ctx context.Context, guildID string) ([]*platform.BanEntry, error) {
	bans, err := a.session.GuildBans(guildID, 1000, "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	entries := make([]*platform.BanEntry, 0, len(bans))
	for _, ban := range bans {
		entry := &platform.BanEntry{Reason: ban.Reason}
		if ban.User != nil {
			entry.UserID = ban.User.ID
			entry.Username = ban.User.Username
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (a *Adapter) GuildIDs() []string {
	ids := make([]string, 0, len(a.session.State.Guilds))
	for _, g := range a.session.State.Guilds {
		ids = append(ids, g.ID)
	}
	return ids
}

func (a *Adapter) GuildName(guildID string) string {
	guild, err := a.guild(guildID)
	if err != nil {
		return guildID
	}
	return guild.Name
}

func (a *Adapter) FindTextChannel(guildID, name string) (*platform.Channel, error) {
	channels, err := a.ListTextChannels(guildID)
	if err != nil {
		return nil, err
	}
	for _, ch := range channels {
		if ch.Name == name {
			return ch, nil
		}
	}
	return nil, platform.ErrNotFound
}

func (a *Adapter) ListTextChannels(guildID string) ([]*platform.Channel, error) {
	guild, err := a.guild(guildID)
	if err != nil {
		return nil, err
	}
	channels := guild.Channels
	if len(channels) == 0 {
		channels, err = a.session.GuildChannels(guildID)
		if err != nil {
			return nil, fmt.Errorf("listing channels of guild %s: %w", guildID, err)
		}
	}

	var result []*platform.Channel
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText {
			result = append(result, &platform.Channel{ID: ch.ID, GuildID: guildID, Name: ch.Name})
		}
	}
	return result, nil
}

// Resolve finds a text channel by exact name, creating it when missing with
// overwrites that hide it from the default role and open it to the bot, to
// members holding moderation capability and, read-only, to roles above the
// bot's own highest role.
func (a *Adapter) Resolve(ctx context.Context, guildID, name string) (*platform.ChannelResolution, error) {
	existing, err := a.FindTextChannel(guildID, name)
	if err == nil {
		return &platform.ChannelResolution{Channel: existing}, nil
	}
	if err != platform.ErrNotFound {
		return nil, err
	}

	guild, err := a.guild(guildID)
	if err != nil {
		return nil, err
	}
	bot, err := a.BotMember(ctx, guildID)
	if err != nil {
		return nil, err
	}

	overwrites := []*discordgo.PermissionOverwrite{
		{
			// guild id doubles as the @everyone role id
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		},
		{
			ID:    bot.UserID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		},
	}

	if members, err := a.ListMembers(ctx, guildID); err == nil {
		for _, m := range members {
			if m.CanModerate && m.UserID != bot.UserID {
				overwrites = append(overwrites, &discordgo.PermissionOverwrite{
					ID:    m.UserID,
					Type:  discordgo.PermissionOverwriteTypeMember,
					Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
				})
			}
		}
	} else {
		logger.Warningf("Could not list members for overwrites in guild %s: %v", guildID, err)
	}

	for _, role := range guild.Roles {
		if role.Position > bot.Rank {
			overwrites = append(overwrites, &discordgo.PermissionOverwrite{
				ID:    role.ID,
				Type:  discordgo.PermissionOverwriteTypeRole,
				Allow: discordgo.PermissionViewChannel,
			})
		}
	}

	created, err := a.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		PermissionOverwrites: overwrites,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("creating log channel %q in guild %s: %w", name, guildID, err)
	}

	logger.Infof("Created log channel %q (%s) in guild %s", name, created.ID, guildID)
	return &platform.ChannelResolution{
		Channel: &platform.Channel{ID: created.ID, GuildID: guildID, Name: created.Name},
		Created: true,
	}, nil
}

func (a *Adapter) Send(ctx context.Context, channelID, content string) error {
	_, err := a.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) SendEmbed(ctx context.Context, channelID string, embed *platform.Embed) error {
	_, err := a.session.ChannelMessageSendEmbed(channelID, toDiscordEmbed(embed), discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return a.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

func (a *Adapter) BulkDelete(ctx context.Context, channelID string, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if len(messageIDs) == 1 {
		return a.session.ChannelMessageDelete(channelID, messageIDs[0], discordgo.WithContext(ctx))
	}
	return a.session.ChannelMessagesBulkDelete(channelID, messageIDs, discordgo.WithContext(ctx))
}

func (a *Adapter) RecentMessages(ctx context.Context, channelID string, limit int) ([]*platform.Message, error) {
	messages, err := a.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching messages of channel %s: %w", channelID, err)
	}
	result := make([]*platform.Message, 0, len(messages))
	for _, m := range messages {
		result = append(result, &platform.Message{
			ID:        m.ID,
			ChannelID: channelID,
			AuthorID:  m.Author.ID,
			Content:   m.Content,
			SentAt:    m.Timestamp,
		})
	}
	return result, nil
}

func (a *Adapter) DirectMessage(ctx context.Context, userID, content string) error {
	channel, err := a.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("opening DM channel to %s: %w", userID, err)
	}
	_, err = a.session.ChannelMessageSend(channel.ID, content, discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) DirectEmbed(ctx context.Context, userID string, embed *platform.Embed) error {
	channel, err := a.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("opening DM channel to %s: %w", userID, err)
	}
	_, err = a.session.ChannelMessageSendEmbed(channel.ID, toDiscordEmbed(embed), discordgo.WithContext(ctx))
	return err
}

func toDiscordEmbed(embed *platform.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       embed.Title,
		Description: embed.Description,
		Color:       embed.Color,
	}
	if embed.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: embed.Footer}
	}
	if !embed.Timestamp.IsZero() {
		out.Timestamp = embed.Timestamp.Format("2006-01-02T15:04:05Z07:00")
	}
	for _, f := range embed.Fields {
		value := f.Value
		if strings.TrimSpace(value) == "" {
			value = "​"
		}
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: value})
	}
	return out
}
