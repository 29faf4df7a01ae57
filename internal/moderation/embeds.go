package moderation

import (
	"fmt"
	"time"

	"stan-guard/internal/platform"
)

const (
	colorMute    = 0xFFFF00
	colorWarning = 0xFF0000
	colorReverse = 0x00FF00
	colorKick    = 0xFF7F00
	colorBan     = 0x8B0000
	colorAutomod = 0xFF4500
	colorClear   = 0x00FF00
)

func auditEmbed(title string, color int, fields []platform.EmbedField) *platform.Embed {
	return &platform.Embed{
		Title:     title,
		Color:     color,
		Fields:    fields,
		Timestamp: time.Now(),
	}
}

func subjectField(subject *platform.Member) platform.EmbedField {
	return platform.EmbedField{Name: "User", Value: fmt.Sprintf("%s (%s)", subject.Username, subject.UserID)}
}

func actorField(actor *platform.Member) platform.EmbedField {
	return platform.EmbedField{Name: "Moderator", Value: fmt.Sprintf("%s (%s)", actor.Username, actor.UserID)}
}

func reasonField(reason string) platform.EmbedField {
	return platform.EmbedField{Name: "Reason", Value: reason}
}

func muteEmbed(actor, subject *platform.Member, reason string, d time.Duration) *platform.Embed {
	return auditEmbed("Member muted", colorMute, []platform.EmbedField{
		subjectField(subject),
		actorField(actor),
		reasonField(reason),
		{Name: "Duration", Value: FormatDuration(d)},
	})
}

func warnEmbed(actor, subject *platform.Member, reason string, d time.Duration, count int64, max int) *platform.Embed {
	return auditEmbed("Member warned", colorWarning, []platform.EmbedField{
		subjectField(subject),
		actorField(actor),
		reasonField(reason),
		{Name: "Duration", Value: FormatDuration(d)},
		{Name: "Warnings", Value: fmt.Sprintf("%d/%d", count, max)},
	})
}

func maxWarningsEmbed(actor, subject *platform.Member, max int) *platform.Embed {
	return auditEmbed("Warning rejected", colorWarning, []platform.EmbedField{
		subjectField(subject),
		actorField(actor),
		{Name: "Cause", Value: fmt.Sprintf("Member already has the maximum of %d warnings", max)},
	})
}

func reversalEmbed(title string, subject *platform.Member, detail string) *platform.Embed {
	fields := []platform.EmbedField{subjectField(subject)}
	if detail != "" {
		fields = append(fields, platform.EmbedField{Name: "Detail", Value: detail})
	}
	return auditEmbed(title, colorReverse, fields)
}

func kickEmbed(actor, subject *platform.Member, reason string) *platform.Embed {
	return auditEmbed("Member kicked", colorKick, []platform.EmbedField{
		subjectField(subject),
		actorField(actor),
		reasonField(reason),
	})
}

func banEmbed(actor, subject *platform.Member, reason string) *platform.Embed {
	return auditEmbed("Member banned", colorBan, []platform.EmbedField{
		subjectField(subject),
		actorField(actor),
		reasonField(reason),
	})
}

func unbanEmbed(actor *platform.Member, userID string) *platform.Embed {
	return auditEmbed("Member unbanned", colorReverse, []platform.EmbedField{
		{Name: "User", Value: userID},
		actorField(actor),
	})
}

func automodEmbed(subject *platform.Member, term, kind, channelName string) *platform.Embed {
	return auditEmbed("Message filtered", colorAutomod, []platform.EmbedField{
		subjectField(subject),
		{Name: "Matched term", Value: term},
		{Name: "List", Value: kind},
		{Name: "Channel", Value: channelName},
	})
}

func reportEmbed(reporter, subject *platform.Member, reason string) *platform.Embed {
	return auditEmbed("Member reported", colorMute, []platform.EmbedField{
		subjectField(subject),
		{Name: "Reported by", Value: fmt.Sprintf("%s (%s)", reporter.Username, reporter.UserID)},
		reasonField(reason),
	})
}

func verifyAssignEmbed(actor, subject *platform.Member, roleName string) *platform.Embed {
	return auditEmbed("Member verified", colorReverse, []platform.EmbedField{
		subjectField(subject),
		actorField(actor),
		{Name: "Role", Value: roleName},
	})
}

func verifyDenyEmbed(actor, subject *platform.Member) *platform.Embed {
	return auditEmbed("Verification denied", colorWarning, []platform.EmbedField{
		subjectField(subject),
		actorField(actor),
		reasonField(denyReason),
	})
}

func verifySwapEmbed(actor, subject *platform.Member, roleName string) *platform.Embed {
	return auditEmbed("Gendered role changed", colorMute, []platform.EmbedField{
		subjectField(subject),
		actorField(actor),
		{Name: "Role", Value: roleName},
	})
}

func clearEmbed(actor *platform.Member, channelName string, deleted, skipped int) *platform.Embed {
	fields := []platform.EmbedField{
		actorField(actor),
		{Name: "Channel", Value: channelName},
		{Name: "Deleted", Value: fmt.Sprintf("%d", deleted)},
	}
	if skipped > 0 {
		fields = append(fields, platform.EmbedField{
			Name:  "Skipped",
			Value: fmt.Sprintf("%d messages older than 14 days", skipped),
		})
	}
	return auditEmbed("Messages cleared", colorClear, fields)
}
