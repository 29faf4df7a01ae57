package moderation

import (
	"context"

	"stan-guard/internal/logger"
	"stan-guard/internal/models"
	"stan-guard/internal/platform"
)

// auditAction selects which log channel an audit entry goes to.
type auditAction int

const (
	auditMain auditAction = iota
	auditMute
	auditWarning
	auditBan
	auditKick
	auditReport
	auditClear
)

// channelNameFor picks the per-action log channel when its use flag is set,
// falling back to the main log channel otherwise.
func channelNameFor(settings *models.ServerSettings, action auditAction) string {
	switch action {
	case auditMute:
		if settings.MuteLogChannelUse && settings.MuteLogChannelName != "" {
			return settings.MuteLogChannelName
		}
	case auditWarning:
		if settings.WarningLogChannelUse && settings.WarningLogChannelName != "" {
			return settings.WarningLogChannelName
		}
	case auditBan:
		if settings.BanLogChannelUse && settings.BanLogChannelName != "" {
			return settings.BanLogChannelName
		}
	case auditKick:
		if settings.KickLogChannelUse && settings.KickLogChannelName != "" {
			return settings.KickLogChannelName
		}
	case auditReport:
		if settings.ReportLogChannelUse && settings.ReportLogChannelName != "" {
			return settings.ReportLogChannelName
		}
	case auditClear:
		if settings.ClearLogChannelUse && settings.ClearLogChannelName != "" {
			return settings.ClearLogChannelName
		}
	}
	return settings.LogChannelName
}

// resolveLogChannel locates or creates the log channel for an action. Only a
// freshly created main log channel is written back to settings; per-action
// channels never self-register.
func (o *Orchestrator) resolveLogChannel(ctx context.Context, settings *models.ServerSettings, action auditAction) (*platform.Channel, error) {
	name := channelNameFor(settings, action)
	resolution, err := o.channels.Resolve(ctx, settings.GuildID, name)
	if err != nil {
		return nil, platformErr("resolve log channel", err)
	}
	if resolution.Created && name == settings.LogChannelName {
		if err := o.settings.Save(settings); err != nil {
			logger.Errorf("Could not persist settings after creating log channel %q in guild %s: %v", name, settings.GuildID, err)
		}
	}
	return resolution.Channel, nil
}

// sendAudit writes one audit embed to the resolved log channel. The error is
// returned for surfacing to the actor; the primary action stands regardless.
func (o *Orchestrator) sendAudit(ctx context.Context, settings *models.ServerSettings, action auditAction, embed *platform.Embed) error {
	channel, err := o.resolveLogChannel(ctx, settings, action)
	if err != nil {
		logger.Errorf("Audit log channel unavailable in guild %s: %v", settings.GuildID, err)
		return err
	}
	if err := o.channels.SendEmbed(ctx, channel.ID, embed); err != nil {
		logger.Errorf("Audit send to channel %s in guild %s failed: %v", channel.ID, settings.GuildID, err)
		return platformErr("send audit", err)
	}
	return nil
}
