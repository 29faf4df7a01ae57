package moderation

import (
	"context"
	"fmt"

	"stan-guard/internal/logger"
)

// ClearRequest asks for the most recent messages of a channel to be
// removed.
type ClearRequest struct {
	GuildID     string
	ActorID     string
	ChannelID   string
	ChannelName string
	Limit       int
}

// ClearResult reports how many messages were removed and how many were too
// old for the platform's bulk-delete window.
type ClearResult struct {
	Deleted  int
	Skipped  int
	AuditErr error
}

// Clear bulk-deletes the channel's most recent messages. Messages older
// than the platform's 14-day ceiling are filtered out beforehand and
// reported as skipped.
func (o *Orchestrator) Clear(ctx context.Context, req ClearRequest) (*ClearResult, error) {
	settings, err := o.settings.Ensure(req.GuildID)
	if err != nil {
		return nil, storageErr("load settings", err)
	}

	actor, err := o.members.FetchMember(ctx, req.GuildID, req.ActorID)
	if err != nil {
		return nil, platformErr("fetch actor", err)
	}
	if !actor.CanModerate {
		return nil, &AuthorizationError{Reason: "you lack the moderation capability"}
	}

	messages, err := o.channels.RecentMessages(ctx, req.ChannelID, req.Limit)
	if err != nil {
		return nil, platformErr("fetch messages", err)
	}

	cutoff := o.now().Add(-bulkDeleteWindow)
	var deletable []string
	skipped := 0
	for _, m := range messages {
		if m.SentAt.Before(cutoff) {
			skipped++
			continue
		}
		deletable = append(deletable, m.ID)
	}

	if len(deletable) > 0 {
		if err := o.channels.BulkDelete(ctx, req.ChannelID, deletable); err != nil {
			return nil, platformErr("bulk delete", err)
		}
	}

	result := &ClearResult{Deleted: len(deletable), Skipped: skipped}
	result.AuditErr = o.sendAudit(ctx, settings, auditClear,
		clearEmbed(actor, req.ChannelName, result.Deleted, result.Skipped))

	if settings.ClearNotice {
		if err := o.channels.Send(ctx, req.ChannelID, fmt.Sprintf("Cleared %d messages.", result.Deleted)); err != nil {
			logger.Warningf("Clear notice in channel %s failed: %v", req.ChannelID, err)
		}
	}
	return result, nil
}

// FilteredMessage describes an automod match ready for enforcement.
type FilteredMessage struct {
	GuildID     string
	ChannelID   string
	ChannelName string
	MessageID   string
	AuthorID    string
	Term        string
	Kind        string
}

// EnforceFilterMatch deletes a matched message, writes the audit entry and
// DMs the author. The DM is best-effort; a closed inbox never fails the
// enforcement.
func (o *Orchestrator) EnforceFilterMatch(ctx context.Context, match FilteredMessage) error {
	settings, err := o.settings.Ensure(match.GuildID)
	if err != nil {
		return storageErr("load settings", err)
	}

	if err := o.channels.DeleteMessage(ctx, match.ChannelID, match.MessageID); err != nil {
		return platformErr("delete message", err)
	}

	subject := o.memberOrPlaceholder(ctx, match.GuildID, match.AuthorID)
	if auditErr := o.sendAudit(ctx, settings, auditMain,
		automodEmbed(subject, match.Term, match.Kind, match.ChannelName)); auditErr != nil {
		logger.Errorf("Automod audit entry failed in guild %s: %v", match.GuildID, auditErr)
	}

	o.notify(ctx, match.AuthorID, fmt.Sprintf(
		"Your message in %s was removed because it matched a filtered term.",
		o.channels.GuildName(match.GuildID)))
	return nil
}
