package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"stan-guard/internal/models"
	"stan-guard/internal/moderation"
)

const commandTimeout = 30 * time.Second

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

func (h *Handler) handleWarn(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	ctx, cancel := commandContext()
	defer cancel()

	options := optionMap(data)
	result, err := h.orch.Warn(ctx, moderation.ActionRequest{
		GuildID:   i.GuildID,
		ActorID:   i.Member.User.ID,
		SubjectID: options["user"].UserValue(nil).ID,
		Reason:    stringValue(options, "reason"),
		Duration:  stringValue(options, "duration"),
	})
	if err != nil {
		h.reply(i, failureReply(err))
		return
	}
	h.reply(i, withAuditNote(fmt.Sprintf("Warned %s (%d warnings) for %s.",
		result.Subject.Username, result.WarningCount, moderation.FormatDuration(result.Duration)), result.AuditErr))
}

func (h *Handler) handleDeleteWarn(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	ctx, cancel := commandContext()
	defer cancel()

	options := optionMap(data)
	result, err := h.orch.ReverseWarning(ctx, i.GuildID, options["user"].UserValue(nil).ID)
	if err != nil {
		h.reply(i, failureReply(err))
		return
	}
	if !result.Reversed {
		h.reply(i, "This member has no warnings.")
		return
	}
	h.reply(i, withAuditNote(fmt.Sprintf("Removed the most recent warning; %d remain.", result.Remaining), result.AuditErr))
}

func (h *Handler) handleWarnList(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	options := optionMap(data)
	records, err := h.orch.ListWarnings(options["user"].UserValue(nil).ID)
	if err != nil {
		h.reply(i, failureReply(err))
		return
	}
	if len(records) == 0 {
		h.reply(i, "This member has no warnings.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d warnings:\n", len(records))
	for _, record := range records {
		fmt.Fprintf(&b, "- %s (expires in %s)\n", record.Reason, remainingText(record))
	}
	h.reply(i, b.String())
}

func (h *Handler) handleMute(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	ctx, cancel := commandContext()
	defer cancel()

	options := optionMap(data)
	result, err := h.orch.Mute(ctx, moderation.ActionRequest{
		GuildID:   i.GuildID,
		ActorID:   i.Member.User.ID,
		SubjectID: options["user"].UserValue(nil).ID,
		Reason:    stringValue(options, "reason"),
		Duration:  stringValue(options, "duration"),
	})
	if err != nil {
		h.reply(i, failureReply(err))
		return
	}
	h.reply(i, withAuditNote(fmt.Sprintf("Muted %s for %s.",
		result.Subject.Username, moderation.FormatDuration(result.Duration)), result.AuditErr))
}

func (h *Handler) handleUnmute(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	ctx, cancel := commandContext()
	defer cancel()

	options := optionMap(data)
	result, err := h.orch.ReverseMute(ctx, i.GuildID, options["user"].UserValue(nil).ID)
	if err != nil {
		h.reply(i, failureReply(err))
		return
	}
	if !result.Reversed {
		h.reply(i, "This member is not muted.")
		return
	}
	h.reply(i, withAuditNote("Mute lifted.", result.AuditErr))
}

func (h *Handler) handleMuteList(i *discordgo.InteractionCreate) {
	records, err := h.orch.ListActive(i.GuildID, models.SanctionMute)
	if err != nil {
		h.reply(i, failureReply(err))
		return
	}
	if len(records) == 0 {
		h.reply(i, "No members are muted.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d muted members:\n", len(records))
	for _, record := range records {
		fmt.Fprintf(&b, "- <@%s>: %s (expires in %s)\n", record.UserID, record.Reason, remainingText(record))
	}
	h.reply(i, b.String())
}

func (h *Handler) handleKick(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	ctx, cancel := commandContext()
	defer cancel()

	options := optionMap(data)
	result, err := h.orch.Kick(ctx, moderation.ActionRequest{
		GuildID:   i.GuildID,
		ActorID:   i.Member.User.ID,
		SubjectID: options["user"].UserValue(nil).ID,
		Reason:    stringValue(options, "reason"),
	})
	if err != nil {
		h.reply(i, failureReply(err))
		return
	}
	h.reply(i, withAuditNote(fmt.Sprintf("Kicked %s.", result.Subject.Username), result.AuditErr))
}

func (h *Handler) handleBan(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	ctx, cancel := commandContext()
	defer cancel()

	options := optionMap(data)
	result, err := h.orch.Ban(ctx, moderation.ActionRequest{
		GuildID:   i.GuildID,
		ActorID:   i.Member.User.ID,
		SubjectID: options["user"].UserValue(nil).ID,
		Reason:    stringValue(options, "reason"),
	})
	if err != nil {
		h.reply(i, failureReply(err))
		return
	}
	h.reply(i, withAuditNote(fmt.Sprintf("Banned %s.", result.Subject.Username), result.AuditErr))
}

func (h *Handler) handleUnban(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	ctx, cancel := commandContext()
	defer cancel()

	options := optionMap(data)
	result, err := h.orch.Unban(ctx, i.GuildID, i.Member.User.ID, stringValue(options, "user_id"))
	if err != nil {
		h.reply(i, failureReply(err))
		return
	}
	h.reply(i, withAuditNote("Ban lifted.", result.AuditErr))
}

func (h *Handler) handleBanList(i *discordgo.InteractionCreate) {
	ctx, cancel := commandContext()
	defer cancel()

	entries, err := h.orch.ListBans(ctx, i.GuildID)
	if err != nil {
		h.reply(i, failureReply(err))
		return
	}
	if len(entries) == 0 {
		h.reply(i, "No users are banned.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d banned users:\n", len(entries))
	for _, entry := range entries {
		reason := entry.Reason
		if reason == "" {
			reason = "No reason recorded"
		}
		fmt.Fprintf(&b, "- %s (<@%s>): %s\n", entry.Username, entry.UserID, reason)
	}
	h.reply(i, b.String())
}

func (h *Handler) handleReport(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	ctx, cancel := commandContext()
	defer cancel()

	options := optionMap(data)
	result, err := h.orch.Report(ctx, moderation.ReportRequest{
		GuildID:    i.GuildID,
		ReporterID: i.Member.User.ID,
		SubjectID:  options["user"].UserValue(nil).ID,
		Reason:     stringValue(options, "reason"),
	})
	if err != nil {
		h.reply(i, failureReply(err))
		return
	}
	h.reply(i, fmt.Sprintf("Reported %s to the moderators.", result.Subject.Username))
}

func (h *Handler) handleVerify(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	ctx, cancel := commandContext()
	defer cancel()

	options := optionMap(data)
	result, err := h.orch.Verify(ctx, moderation.VerifyRequest{
		GuildID:   i.GuildID,
		ActorID:   i.Member.User.ID,
		SubjectID: options["user"].UserValue(nil).ID,
		Action:    moderation.VerifyAction(stringValue(options, "action")),
		Gender:    stringValue(options, "gender"),
	})
	if err != nil {
		h.reply(i, failureReply(err))
		return
	}
	if result.Banned {
		h.reply(i, withAuditNote(fmt.Sprintf("Denied access to %s.", result.Subject.Username), result.AuditErr))
		return
	}
	h.reply(i, withAuditNote(fmt.Sprintf("%s now has the %s role.",
		result.Subject.Username, result.RoleName), result.AuditErr))
}

func (h *Handler) handleClear(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	ctx, cancel := commandContext()
	defer cancel()

	options := optionMap(data)
	count := int(options["count"].IntValue())
	if count < 1 {
		count = 1
	}
	if count > 100 {
		count = 100
	}

	result, err := h.orch.Clear(ctx, moderation.ClearRequest{
		GuildID:     i.GuildID,
		ActorID:     i.Member.User.ID,
		ChannelID:   i.ChannelID,
		ChannelName: h.channelName(i.ChannelID),
		Limit:       count,
	})
	if err != nil {
		h.reply(i, failureReply(err))
		return
	}

	message := fmt.Sprintf("Deleted %d messages.", result.Deleted)
	if result.Skipped > 0 {
		message = fmt.Sprintf("Deleted %d messages; %d were older than 14 days and skipped.", result.Deleted, result.Skipped)
	}
	h.reply(i, withAuditNote(message, result.AuditErr))
}

func (h *Handler) channelName(channelID string) string {
	session := h.adapter.Session()
	channel, err := session.State.Channel(channelID)
	if err != nil {
		channel, err = session.Channel(channelID)
		if err != nil {
			return channelID
		}
	}
	return channel.Name
}

func remainingText(record *models.Sanction) string {
	remaining := time.Until(record.ExpiryTime())
	if remaining <= 0 {
		return "moments"
	}
	return moderation.FormatDuration(remaining)
}

func withAuditNote(message string, auditErr error) string {
	if auditErr != nil {
		return message + " The audit log entry could not be written."
	}
	return message
}
