package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"stan-guard/internal/automod"
	"stan-guard/internal/crash"
	"stan-guard/internal/logger"
	"stan-guard/internal/moderation"
	"stan-guard/internal/models"
	"stan-guard/internal/platform"
)

func (h *Handler) onReady(s *discordgo.Session, r *discordgo.Ready) {
	logger.Infof("Logged in as %s, serving %d guilds", r.User.Username, len(r.Guilds))

	if err := h.RegisterCommands(); err != nil {
		logger.Errorf("Registering slash commands failed: %v", err)
	}

	guildIDs := make([]string, 0, len(r.Guilds))
	for _, guild := range r.Guilds {
		guildIDs = append(guildIDs, guild.ID)
		if _, err := h.settings.Ensure(guild.ID); err != nil {
			logger.Errorf("Settings bootstrap for guild %s failed: %v", guild.ID, err)
		}
	}
	if err := h.settings.RemoveStale(guildIDs); err != nil {
		logger.Errorf("Stale settings cleanup failed: %v", err)
	}
}

func (h *Handler) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if _, err := h.settings.Ensure(g.ID); err != nil {
		logger.Errorf("Settings bootstrap for guild %s failed: %v", g.ID, err)
	}
}

func (h *Handler) onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		return
	}
	h.settings.Forget(g.ID)
	logger.Infof("Left guild %s", g.ID)
}

func (h *Handler) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}
	if m.GuildID == "" {
		return
	}
	if h.prompts.Fulfill(promptKey(m.GuildID, m.ChannelID, m.Author.ID), m.Content) {
		return
	}

	crash.SafeGoroutine("automod-scan", func() {
		h.scanMessage(m)
	})
}

func (h *Handler) scanMessage(m *discordgo.MessageCreate) {
	ctx, cancel := commandContext()
	defer cancel()

	settings, err := h.settings.Ensure(m.GuildID)
	if err != nil {
		logger.Errorf("Settings load for guild %s failed: %v", m.GuildID, err)
		return
	}
	if !settings.Automod {
		return
	}

	author, err := h.adapter.FetchMember(ctx, m.GuildID, m.Author.ID)
	if err != nil {
		logger.Warningf("Could not fetch message author %s in guild %s: %v", m.Author.ID, m.GuildID, err)
		return
	}
	bot, err := h.adapter.BotMember(ctx, m.GuildID)
	if err != nil {
		logger.Warningf("Could not fetch bot member in guild %s: %v", m.GuildID, err)
		return
	}

	match := h.engine.Scan(automod.ScanInput{
		Content:          m.Content,
		ChannelName:      h.channelName(m.ChannelID),
		AuthorIsBot:      m.Author.Bot,
		AuthorRank:       author.Rank,
		SystemRank:       bot.Rank,
		Enabled:          settings.Automod,
		ExcludedChannels: settings.AutomodExcludedChannels,
		CustomBlacklist:  settings.AutomodBlacklist,
		UniteBlacklist:   settings.UniteAutomodBlacklists,
		CustomBadLinks:   settings.AutomodBadLinks,
		UniteBadLinks:    settings.UniteAutomodBadLinks,
	})
	if !match.Matched {
		return
	}

	logger.Infof("Automod match (%s: %q) by user %s in guild %s", match.Kind, match.Term, m.Author.ID, m.GuildID)
	err = h.orch.EnforceFilterMatch(ctx, moderation.FilteredMessage{
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		ChannelName: h.channelName(m.ChannelID),
		MessageID:   m.ID,
		AuthorID:    m.Author.ID,
		Term:        match.Term,
		Kind:        string(match.Kind),
	})
	if err != nil {
		logger.Errorf("Automod enforcement in guild %s failed: %v", m.GuildID, err)
	}
}

func (h *Handler) onGuildMemberAdd(s *discordgo.Session, e *discordgo.GuildMemberAdd) {
	ctx, cancel := commandContext()
	defer cancel()

	accountCreatedAt, _ := discordgo.SnowflakeTimestamp(e.User.ID)
	verdict := h.tracker.Record(e.GuildID, e.User.ID, e.User.Username, accountCreatedAt, time.Now())
	if verdict.YoungAcct {
		h.repelRaider(ctx, e)
		return
	}

	settings, err := h.settings.Ensure(e.GuildID)
	if err != nil {
		logger.Errorf("Settings load for guild %s failed: %v", e.GuildID, err)
		return
	}
	if verdict.BurstJoin || verdict.SimilarName {
		h.quarantineRaider(ctx, e, verdict, settings)
	}

	if settings.NewMemberRoleName != "" {
		role, err := h.adapter.GetOrCreateRole(ctx, e.GuildID, settings.NewMemberRoleName, platform.RoleColorRandom)
		if err != nil {
			logger.Errorf("Could not resolve role %q in guild %s: %v", settings.NewMemberRoleName, e.GuildID, err)
		} else if err := h.adapter.AddRole(ctx, e.GuildID, e.User.ID, role.ID); err != nil {
			logger.Errorf("Could not assign role %q to user %s in guild %s: %v", settings.NewMemberRoleName, e.User.ID, e.GuildID, err)
		}
	}

	if err := h.members.Remember(e.GuildID, e.User.ID, nil); err != nil {
		logger.Warningf("Member snapshot for user %s in guild %s failed: %v", e.User.ID, e.GuildID, err)
	}
}

// repelRaider DMs and kicks a joiner whose account is too young.
func (h *Handler) repelRaider(ctx context.Context, e *discordgo.GuildMemberAdd) {
	cause := "account created minutes before joining"
	logger.Warningf("Raid heuristic (%s) kicked user %s from guild %s", cause, e.User.ID, e.GuildID)

	if err := h.adapter.DirectMessage(ctx, e.User.ID, fmt.Sprintf(
		"You were removed from %s by the anti-raid protection. If you are human, wait a while and rejoin.",
		h.adapter.GuildName(e.GuildID))); err != nil {
		logger.Warningf("Could not DM raid-flagged user %s: %v", e.User.ID, err)
	}
	if err := h.adapter.Kick(ctx, e.GuildID, e.User.ID, "Anti-raid: "+cause); err != nil {
		logger.Errorf("Could not kick raid-flagged user %s from guild %s: %v", e.User.ID, e.GuildID, err)
	}
}

// quarantineRaider assigns the muted role to a joiner flagged by the burst
// or similar-name heuristics. The member stays in the guild.
func (h *Handler) quarantineRaider(ctx context.Context, e *discordgo.GuildMemberAdd, verdict automod.RaidVerdict, settings *models.ServerSettings) {
	cause := "join burst in progress"
	if verdict.SimilarName {
		cause = "username matches a wave of recent joiners"
	}

	role, err := h.adapter.GetOrCreateRole(ctx, e.GuildID, settings.MutedRoleName, platform.RoleColorGray)
	if err != nil {
		logger.Errorf("Could not resolve role %q in guild %s: %v", settings.MutedRoleName, e.GuildID, err)
		return
	}
	if err := h.adapter.AddRole(ctx, e.GuildID, e.User.ID, role.ID); err != nil {
		logger.Errorf("Could not quarantine user %s in guild %s: %v", e.User.ID, e.GuildID, err)
		return
	}
	logger.Warningf("Raid heuristic (%s) quarantined user %s in guild %s", cause, e.User.ID, e.GuildID)
}

func (h *Handler) onGuildMemberRemove(s *discordgo.Session, e *discordgo.GuildMemberRemove) {
	if err := h.members.Forget(e.GuildID, e.User.ID); err != nil {
		logger.Warningf("Member snapshot cleanup for user %s in guild %s failed: %v", e.User.ID, e.GuildID, err)
	}
	for _, kind := range []models.SanctionKind{models.SanctionMute, models.SanctionWarning} {
		if _, err := h.sanctions.DeleteAllForSubject(e.GuildID, e.User.ID, kind); err != nil {
			logger.Warningf("Sanction cleanup for departed user %s in guild %s failed: %v", e.User.ID, e.GuildID, err)
		}
	}
}
