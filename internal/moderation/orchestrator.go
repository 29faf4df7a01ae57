package moderation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stan-guard/internal/logger"
	"stan-guard/internal/models"
	"stan-guard/internal/platform"
	"stan-guard/internal/scheduler"
	"stan-guard/internal/storage"
)

const defaultReason = "No reason provided"

// bulkDeleteWindow is the platform ceiling: messages older than this cannot
// be bulk-deleted and are counted as skipped instead.
const bulkDeleteWindow = 14 * 24 * time.Hour

// banMessagePurgeDays is how many days of a banned member's messages are
// purged when the guild has message deletion on ban enabled.
const banMessagePurgeDays = 7

// SettingsProvider hands the orchestrator the per-guild settings record,
// creating it with defaults when the guild has none yet.
type SettingsProvider interface {
	Ensure(guildID string) (*models.ServerSettings, error)
	Save(settings *models.ServerSettings) error
}

// Orchestrator runs moderation actions as short pipelines: authorization,
// the primary platform mutation, the ledger write, then audit logging and
// notification. Authorization failures stop before any mutation; later
// failures leave the mutation in place and are surfaced to the actor.
type Orchestrator struct {
	members   platform.Membership
	channels  platform.Channels
	notifier  platform.Notifier
	sanctions *storage.SanctionRepository
	settings  SettingsProvider
	timers    *timerRegistry
	now       func() time.Time

	reportsMu   sync.Mutex
	lastReports map[string]time.Time
}

func NewOrchestrator(
	members platform.Membership,
	channels platform.Channels,
	notifier platform.Notifier,
	sanctions *storage.SanctionRepository,
	settings SettingsProvider,
) *Orchestrator {
	return &Orchestrator{
		members:     members,
		channels:    channels,
		notifier:    notifier,
		sanctions:   sanctions,
		settings:    settings,
		timers:      newTimerRegistry(),
		now:         time.Now,
		lastReports: make(map[string]time.Time),
	}
}

// ActionRequest describes one actor-initiated sanction action.
type ActionRequest struct {
	GuildID   string
	ActorID   string
	SubjectID string
	Reason    string
	// Duration overrides the guild default when non-empty.
	Duration string
}

// ActionResult reports a completed action back to the actor's reply path.
type ActionResult struct {
	Subject   *platform.Member
	Duration  time.Duration
	ExpiresAt time.Time
	// WarningCount is the standing warning count after a warn action.
	WarningCount int64
	// AuditErr is set when the action itself succeeded but the audit log
	// entry could not be delivered.
	AuditErr error
}

// ReversalResult reports whether a reversal found anything to undo.
type ReversalResult struct {
	Reversed  bool
	Remaining int64
	AuditErr  error
}

func (r ActionRequest) reason() string {
	if r.Reason == "" {
		return defaultReason
	}
	return r.Reason
}

// authorize fetches the three members involved and runs the capability and
// hierarchy checks. It rejects before any mutation: the actor must hold the
// moderate capability, and both the actor and the acting system must outrank
// the subject strictly.
func (o *Orchestrator) authorize(ctx context.Context, guildID, actorID, subjectID string) (actor, subject, bot *platform.Member, err error) {
	subject, err = o.members.FetchMember(ctx, guildID, subjectID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return nil, nil, nil, &ValidationError{Reason: "member not found"}
		}
		return nil, nil, nil, platformErr("fetch subject", err)
	}

	actor, err = o.members.FetchMember(ctx, guildID, actorID)
	if err != nil {
		return nil, nil, nil, platformErr("fetch actor", err)
	}

	bot, err = o.members.BotMember(ctx, guildID)
	if err != nil {
		return nil, nil, nil, platformErr("fetch bot member", err)
	}

	if !actor.CanModerate {
		return nil, nil, nil, &AuthorizationError{Reason: "you lack the moderation capability"}
	}
	if actor.Rank <= subject.Rank {
		return nil, nil, nil, &AuthorizationError{Reason: "the member outranks you"}
	}
	if bot.Rank <= subject.Rank {
		return nil, nil, nil, &AuthorizationError{Reason: "the member outranks the bot"}
	}
	return actor, subject, bot, nil
}

func (o *Orchestrator) duration(override, guildDefault string) time.Duration {
	if override != "" {
		return ParseDuration(override)
	}
	return ParseDuration(guildDefault)
}

// Mute assigns the muted role, records the sanction and schedules its
// expiry.
func (o *Orchestrator) Mute(ctx context.Context, req ActionRequest) (*ActionResult, error) {
	settings, err := o.settings.Ensure(req.GuildID)
	if err != nil {
		return nil, storageErr("load settings", err)
	}

	actor, subject, _, err := o.authorize(ctx, req.GuildID, req.ActorID, req.SubjectID)
	if err != nil {
		return nil, err
	}

	muted, err := o.sanctions.HasActiveForSubject(req.GuildID, subject.UserID, models.SanctionMute, o.now().UnixMilli())
	if err != nil {
		return nil, storageErr("check standing mute", err)
	}
	if muted {
		return nil, &ValidationError{Reason: "member is already muted"}
	}

	role, err := o.members.GetOrCreateRole(ctx, req.GuildID, settings.MutedRoleName, platform.RoleColorGray)
	if err != nil {
		return nil, platformErr("resolve muted role", err)
	}
	if err := o.members.AddRole(ctx, req.GuildID, subject.UserID, role.ID); err != nil {
		return nil, platformErr("assign muted role", err)
	}

	d := o.duration(req.Duration, settings.MuteDuration)
	expiresAt := o.now().Add(d)
	record := &models.Sanction{
		GuildID:   req.GuildID,
		UserID:    subject.UserID,
		Kind:      models.SanctionMute,
		ExpiresAt: expiresAt.UnixMilli(),
		Reason:    req.reason(),
	}
	// The role stays assigned even if the ledger write fails; the next
	// successful mute or a manual unmute reconciles it.
	if err := o.sanctions.Create(record); err != nil {
		return nil, storageErr("create mute", err)
	}
	o.registerExpiry(record)

	result := &ActionResult{Subject: subject, Duration: d, ExpiresAt: expiresAt}
	result.AuditErr = o.sendAudit(ctx, settings, auditMute, muteEmbed(actor, subject, req.reason(), d))

	if settings.MuteNotice {
		o.notify(ctx, subject.UserID, fmt.Sprintf(
			"You have been muted in %s for %s. Reason: %s",
			o.channels.GuildName(req.GuildID), FormatDuration(d), req.reason()))
	}
	return result, nil
}

// Warn records a warning unless the subject already sits at the guild's
// ceiling. A ceiling hit rejects the action with ErrMaxWarnings but still
// writes exactly one audit entry.
func (o *Orchestrator) Warn(ctx context.Context, req ActionRequest) (*ActionResult, error) {
	settings, err := o.settings.Ensure(req.GuildID)
	if err != nil {
		return nil, storageErr("load settings", err)
	}

	actor, subject, _, err := o.authorize(ctx, req.GuildID, req.ActorID, req.SubjectID)
	if err != nil {
		return nil, err
	}

	count, err := o.sanctions.CountForSubject(subject.UserID, models.SanctionWarning)
	if err != nil {
		return nil, storageErr("count warnings", err)
	}
	if count >= int64(settings.MaxWarnings) {
		if auditErr := o.sendAudit(ctx, settings, auditWarning, maxWarningsEmbed(actor, subject, settings.MaxWarnings)); auditErr != nil {
			logger.Errorf("Max-warnings audit entry failed in guild %s: %v", req.GuildID, auditErr)
		}
		return nil, ErrMaxWarnings
	}

	d := o.duration(req.Duration, settings.WarningDuration)
	expiresAt := o.now().Add(d)
	record := &models.Sanction{
		GuildID:   req.GuildID,
		UserID:    subject.UserID,
		Kind:      models.SanctionWarning,
		ExpiresAt: expiresAt.UnixMilli(),
		Reason:    req.reason(),
	}
	if err := o.sanctions.Create(record); err != nil {
		return nil, storageErr("create warning", err)
	}
	o.registerExpiry(record)

	result := &ActionResult{Subject: subject, Duration: d, ExpiresAt: expiresAt, WarningCount: count + 1}
	result.AuditErr = o.sendAudit(ctx, settings, auditWarning,
		warnEmbed(actor, subject, req.reason(), d, count+1, settings.MaxWarnings))

	if settings.WarningsNotice {
		o.notify(ctx, subject.UserID, fmt.Sprintf(
			"You have been warned in %s (%d/%d). Reason: %s",
			o.channels.GuildName(req.GuildID), count+1, settings.MaxWarnings, req.reason()))
	}
	return result, nil
}

// ReverseMute removes the muted role and deletes every mute row for the
// subject. Invoking it when no mute stands is a no-op that writes no audit
// entry.
func (o *Orchestrator) ReverseMute(ctx context.Context, guildID, subjectID string) (*ReversalResult, error) {
	settings, err := o.settings.Ensure(guildID)
	if err != nil {
		return nil, storageErr("load settings", err)
	}

	deletedIDs, err := o.sanctions.DeleteAllForSubject(guildID, subjectID, models.SanctionMute)
	if err != nil {
		return nil, storageErr("delete mutes", err)
	}
	if len(deletedIDs) == 0 {
		return &ReversalResult{}, nil
	}
	for _, id := range deletedIDs {
		o.timers.cancel(id)
	}

	subject := o.removeRoleIfPresent(ctx, guildID, subjectID, settings.MutedRoleName)

	result := &ReversalResult{Reversed: true}
	result.AuditErr = o.sendAudit(ctx, settings, auditMute, reversalEmbed("Mute lifted", subject, ""))
	return result, nil
}

// ReverseWarning deletes the subject's most recent warning. Invoking it when
// no warning stands is a no-op that writes no audit entry.
func (o *Orchestrator) ReverseWarning(ctx context.Context, guildID, subjectID string) (*ReversalResult, error) {
	settings, err := o.settings.Ensure(guildID)
	if err != nil {
		return nil, storageErr("load settings", err)
	}

	deleted, remaining, err := o.sanctions.DeleteMostRecentForSubject(guildID, subjectID, models.SanctionWarning)
	if err != nil {
		return nil, storageErr("delete warning", err)
	}
	if deleted == nil {
		return &ReversalResult{}, nil
	}
	o.timers.cancel(deleted.ID)

	subject := o.memberOrPlaceholder(ctx, guildID, subjectID)
	result := &ReversalResult{Reversed: true, Remaining: remaining}
	result.AuditErr = o.sendAudit(ctx, settings, auditWarning,
		reversalEmbed("Warning removed", subject, fmt.Sprintf("%d warnings remain", remaining)))
	return result, nil
}

// Kick removes the subject from the guild.
func (o *Orchestrator) Kick(ctx context.Context, req ActionRequest) (*ActionResult, error) {
	settings, err := o.settings.Ensure(req.GuildID)
	if err != nil {
		return nil, storageErr("load settings", err)
	}

	actor, subject, _, err := o.authorize(ctx, req.GuildID, req.ActorID, req.SubjectID)
	if err != nil {
		return nil, err
	}

	// DM before the kick; afterwards there is no shared guild to deliver
	// through.
	o.notify(ctx, subject.UserID, fmt.Sprintf(
		"You have been kicked from %s. Reason: %s", o.channels.GuildName(req.GuildID), req.reason()))

	if err := o.members.Kick(ctx, req.GuildID, subject.UserID, req.reason()); err != nil {
		return nil, platformErr("kick member", err)
	}

	result := &ActionResult{Subject: subject}
	result.AuditErr = o.sendAudit(ctx, settings, auditKick, kickEmbed(actor, subject, req.reason()))
	return result, nil
}

// Ban removes the subject permanently, purging recent messages when the
// guild has that enabled.
func (o *Orchestrator) Ban(ctx context.Context, req ActionRequest) (*ActionResult, error) {
	settings, err := o.settings.Ensure(req.GuildID)
	if err != nil {
		return nil, storageErr("load settings", err)
	}

	actor, subject, _, err := o.authorize(ctx, req.GuildID, req.ActorID, req.SubjectID)
	if err != nil {
		return nil, err
	}

	o.notify(ctx, subject.UserID, fmt.Sprintf(
		"You have been banned from %s. Reason: %s", o.channels.GuildName(req.GuildID), req.reason()))

	purgeDays := 0
	if settings.DeleteBannedUserMessages {
		purgeDays = banMessagePurgeDays
	}
	if err := o.members.Ban(ctx, req.GuildID, subject.UserID, req.reason(), purgeDays); err != nil {
		return nil, platformErr("ban member", err)
	}

	result := &ActionResult{Subject: subject}
	result.AuditErr = o.sendAudit(ctx, settings, auditBan, banEmbed(actor, subject, req.reason()))
	return result, nil
}

// Unban lifts a ban. The subject is not a member, so only the actor's
// capability is checked.
func (o *Orchestrator) Unban(ctx context.Context, guildID, actorID, subjectID string) (*ActionResult, error) {
	settings, err := o.settings.Ensure(guildID)
	if err != nil {
		return nil, storageErr("load settings", err)
	}

	actor, err := o.members.FetchMember(ctx, guildID, actorID)
	if err != nil {
		return nil, platformErr("fetch actor", err)
	}
	if !actor.CanModerate {
		return nil, &AuthorizationError{Reason: "you lack the moderation capability"}
	}

	if err := o.members.Unban(ctx, guildID, subjectID); err != nil {
		return nil, platformErr("unban member", err)
	}

	result := &ActionResult{}
	result.AuditErr = o.sendAudit(ctx, settings, auditBan, unbanEmbed(actor, subjectID))
	return result, nil
}

// registerExpiry arms the in-memory timer for a fresh sanction row. The
// periodic sweep remains the durable backstop.
func (o *Orchestrator) registerExpiry(record *models.Sanction) {
	id := record.ID
	guildID := record.GuildID
	userID := record.UserID
	kind := record.Kind

	handle := scheduler.After(record.ExpiryTime(), fmt.Sprintf("expiry-%s-%d", kind, id), func() {
		o.timers.drop(id)
		o.expire(guildID, userID, kind)
	})
	o.timers.register(id, handle)
}

// expire is the timer-fired reversal. It shares the reversal routines with
// explicit commands, so a row already removed by command or sweep is a
// no-op.
func (o *Orchestrator) expire(guildID, userID string, kind models.SanctionKind) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	switch kind {
	case models.SanctionMute:
		_, err = o.ReverseMute(ctx, guildID, userID)
	case models.SanctionWarning:
		_, err = o.ReverseWarning(ctx, guildID, userID)
	}
	if err != nil {
		logger.Errorf("Expiry of %s for user %s in guild %s failed: %v", kind, userID, guildID, err)
	}
}

// notify sends a best-effort DM. Closed DMs are common; failure is logged
// and never escalates.
func (o *Orchestrator) notify(ctx context.Context, userID, content string) {
	if err := o.notifier.DirectMessage(ctx, userID, content); err != nil {
		logger.Warningf("Could not DM user %s: %v", userID, err)
	}
}

// removeRoleIfPresent strips a role by name from a member who may already
// have left the guild.
func (o *Orchestrator) removeRoleIfPresent(ctx context.Context, guildID, userID, roleName string) *platform.Member {
	subject, err := o.members.FetchMember(ctx, guildID, userID)
	if err != nil {
		if !errors.Is(err, platform.ErrNotFound) {
			logger.Warningf("Could not fetch member %s in guild %s: %v", userID, guildID, err)
		}
		return &platform.Member{GuildID: guildID, UserID: userID, Username: userID}
	}

	role, err := o.members.FindRole(guildID, roleName)
	if err != nil {
		if !errors.Is(err, platform.ErrNotFound) {
			logger.Warningf("Could not find role %q in guild %s: %v", roleName, guildID, err)
		}
		return subject
	}
	for _, id := range subject.RoleIDs {
		if id == role.ID {
			if err := o.members.RemoveRole(ctx, guildID, userID, role.ID); err != nil {
				logger.Errorf("Could not remove role %q from user %s in guild %s: %v", roleName, userID, guildID, err)
			}
			break
		}
	}
	return subject
}

func (o *Orchestrator) memberOrPlaceholder(ctx context.Context, guildID, userID string) *platform.Member {
	subject, err := o.members.FetchMember(ctx, guildID, userID)
	if err != nil {
		return &platform.Member{GuildID: guildID, UserID: userID, Username: userID}
	}
	return subject
}

// ListActive returns the standing sanctions of one kind for display,
// soonest expiry first.
func (o *Orchestrator) ListActive(guildID string, kind models.SanctionKind) ([]*models.Sanction, error) {
	records, err := o.sanctions.ListActive(guildID, kind, o.now().UnixMilli())
	if err != nil {
		return nil, storageErr("list active", err)
	}
	return records, nil
}

// ListBans returns the guild's standing bans.
func (o *Orchestrator) ListBans(ctx context.Context, guildID string) ([]*platform.BanEntry, error) {
	entries, err := o.members.ListBans(ctx, guildID)
	if err != nil {
		return nil, platformErr("list bans", err)
	}
	return entries, nil
}

// ListWarnings returns a subject's standing warnings across guilds.
func (o *Orchestrator) ListWarnings(subjectID string) ([]*models.Sanction, error) {
	records, err := o.sanctions.ListForSubject(subjectID, models.SanctionWarning)
	if err != nil {
		return nil, storageErr("list warnings", err)
	}
	return records, nil
}
