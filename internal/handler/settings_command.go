package handler

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"stan-guard/internal/logger"
	"stan-guard/internal/models"
)

func (h *Handler) handleSettings(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	ctx, cancel := commandContext()
	defer cancel()

	actor, err := h.adapter.FetchMember(ctx, i.GuildID, i.Member.User.ID)
	if err != nil || !actor.CanModerate {
		h.reply(i, "Not allowed: you lack the moderation capability.")
		return
	}

	options := optionMap(data)
	key := strings.TrimSpace(stringValue(options, "key"))
	value := stringValue(options, "value")

	if key == "" {
		h.showSettings(i)
		return
	}
	if value != "" {
		if err := h.settings.Update(i.GuildID, key, value); err != nil {
			h.reply(i, "Could not update setting: "+err.Error()+".")
			return
		}
		h.reply(i, fmt.Sprintf("Setting %s updated.", key))
		return
	}

	// No value given: prompt the actor and apply their next message in
	// this channel, or give up after the window.
	guildID, channelID, userID := i.GuildID, i.ChannelID, i.Member.User.ID
	h.prompts.Await(promptKey(guildID, channelID, userID),
		func(reply string) {
			if err := h.settings.Update(guildID, key, reply); err != nil {
				h.say(channelID, "Could not update setting: "+err.Error()+".")
				return
			}
			h.say(channelID, fmt.Sprintf("Setting %s updated.", key))
		},
		func() {
			h.say(channelID, fmt.Sprintf("No reply received, %s is unchanged.", key))
		})
	h.reply(i, fmt.Sprintf("Reply with the new value for %s within 60 seconds.", key))
}

func (h *Handler) showSettings(i *discordgo.InteractionCreate) {
	settings, err := h.settings.Ensure(i.GuildID)
	if err != nil {
		h.reply(i, failureReply(err))
		return
	}

	var b strings.Builder
	b.WriteString("Current settings:\n")
	for _, line := range settingsLines(settings) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	h.reply(i, b.String())
}

func settingsLines(s *models.ServerSettings) []string {
	return []string{
		fmt.Sprintf("log_channel: %s", s.LogChannelName),
		fmt.Sprintf("muted_role: %s, mute_duration: %s, mute_notice: %t", s.MutedRoleName, s.MuteDuration, s.MuteNotice),
		fmt.Sprintf("warning_duration: %s, max_warnings: %d, warnings_notice: %t", s.WarningDuration, s.MaxWarnings, s.WarningsNotice),
		fmt.Sprintf("delete_banned_user_messages: %t, clear_notice: %t", s.DeleteBannedUserMessages, s.ClearNotice),
		fmt.Sprintf("language: %s", s.Language),
		fmt.Sprintf("automod: %t, excluded channels: %s", s.Automod, s.AutomodExcludedChannels),
		fmt.Sprintf("blacklist: %s (unite: %t)", s.AutomodBlacklist, s.UniteAutomodBlacklists),
		fmt.Sprintf("bad links: %s (unite: %t)", s.AutomodBadLinks, s.UniteAutomodBadLinks),
		fmt.Sprintf("roles: %s / %s / %s", s.ManRoleName, s.GirlRoleName, s.NewMemberRoleName),
	}
}

func (h *Handler) say(channelID, content string) {
	if _, err := h.adapter.Session().ChannelMessageSend(channelID, content); err != nil {
		logger.Errorf("Message to channel %s failed: %v", channelID, err)
	}
}
