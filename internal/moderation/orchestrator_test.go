package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stan-guard/internal/models"
	"stan-guard/internal/platform"
)

func TestMuteAssignsRoleAndRecordsSanction(t *testing.T) {
	orch, fake, _, repo := newTestOrchestrator(t)
	start := time.Now()

	result, err := orch.Mute(context.Background(), ActionRequest{
		GuildID: "g1", ActorID: "mod", SubjectID: "u1", Reason: "spam",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NoError(t, result.AuditErr)
	assert.Equal(t, 5*time.Minute, result.Duration)

	require.Len(t, fake.rolesAdded, 1)
	role, err := fake.FindRole("g1", "Muted")
	require.NoError(t, err)
	assert.Equal(t, "u1:"+role.ID, fake.rolesAdded[0])

	active, err := repo.ListActive("g1", models.SanctionMute, start.UnixMilli())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "u1", active[0].UserID)
	assert.Equal(t, "spam", active[0].Reason)
	assert.InDelta(t, start.Add(5*time.Minute).UnixMilli(), active[0].ExpiresAt, 2000)

	// audit went to the dedicated mute log channel
	require.Len(t, fake.embedsSent, 1)
	channel, err := fake.FindTextChannel("g1", "mute_stan_log")
	require.NoError(t, err)
	assert.Equal(t, channel.ID, fake.embedsSent[0].channelID)
}

func TestMuteRejectedWhenActorDoesNotOutrankSubject(t *testing.T) {
	orch, fake, _, repo := newTestOrchestrator(t)
	fake.addMember(&platform.Member{GuildID: "g1", UserID: "peer", Username: "peer", Rank: 5, CanModerate: true})

	_, err := orch.Mute(context.Background(), ActionRequest{
		GuildID: "g1", ActorID: "mod", SubjectID: "peer",
	})
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)

	// rejected before any mutation
	assert.Empty(t, fake.rolesAdded)
	assert.Empty(t, fake.embedsSent)
	count, err := repo.CountForSubject("peer", models.SanctionMute)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMuteRejectedWhenBotDoesNotOutrankSubject(t *testing.T) {
	orch, fake, _, _ := newTestOrchestrator(t)
	fake.addMember(&platform.Member{GuildID: "g1", UserID: "admin", Username: "admin", Rank: 50, CanModerate: true})
	fake.addMember(&platform.Member{GuildID: "g1", UserID: "high", Username: "high", Rank: 20})

	_, err := orch.Mute(context.Background(), ActionRequest{
		GuildID: "g1", ActorID: "admin", SubjectID: "high",
	})
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Empty(t, fake.rolesAdded)
}

func TestMuteRejectedWithoutCapability(t *testing.T) {
	orch, fake, _, _ := newTestOrchestrator(t)
	fake.addMember(&platform.Member{GuildID: "g1", UserID: "bystander", Username: "bystander", Rank: 2})

	_, err := orch.Mute(context.Background(), ActionRequest{
		GuildID: "g1", ActorID: "bystander", SubjectID: "u1",
	})
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestMuteUnknownSubject(t *testing.T) {
	orch, _, _, _ := newTestOrchestrator(t)

	_, err := orch.Mute(context.Background(), ActionRequest{
		GuildID: "g1", ActorID: "mod", SubjectID: "ghost",
	})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestMuteRejectedWhenAlreadyMuted(t *testing.T) {
	orch, fake, _, repo := newTestOrchestrator(t)

	_, err := orch.Mute(context.Background(), ActionRequest{
		GuildID: "g1", ActorID: "mod", SubjectID: "u1",
	})
	require.NoError(t, err)

	_, err = orch.Mute(context.Background(), ActionRequest{
		GuildID: "g1", ActorID: "mod", SubjectID: "u1",
	})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)

	// no second role assignment, no second row
	assert.Len(t, fake.rolesAdded, 1)
	count, err := repo.CountForSubject("u1", models.SanctionMute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestListBansReportsStandingBans(t *testing.T) {
	orch, fake, _, _ := newTestOrchestrator(t)
	fake.bans = []*platform.BanEntry{
		{UserID: "b1", Username: "raider", Reason: "spam"},
	}

	entries, err := orch.ListBans(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "raider", entries[0].Username)
}

func TestWarnCeilingRejectsButStillLogs(t *testing.T) {
	orch, fake, _, repo := newTestOrchestrator(t)

	for i := 0; i < 3; i++ {
		_, err := orch.Warn(context.Background(), ActionRequest{
			GuildID: "g1", ActorID: "mod", SubjectID: "u1", Reason: "strike",
		})
		require.NoError(t, err)
	}
	auditsBefore := len(fake.embedsSent)

	_, err := orch.Warn(context.Background(), ActionRequest{
		GuildID: "g1", ActorID: "mod", SubjectID: "u1", Reason: "one too many",
	})
	require.ErrorIs(t, err, ErrMaxWarnings)

	// exactly one audit entry for the rejected attempt, no new row
	assert.Equal(t, auditsBefore+1, len(fake.embedsSent))
	count, err := repo.CountForSubject("u1", models.SanctionWarning)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestWarningReversalIsIdempotent(t *testing.T) {
	orch, fake, _, _ := newTestOrchestrator(t)

	_, err := orch.Warn(context.Background(), ActionRequest{
		GuildID: "g1", ActorID: "mod", SubjectID: "u1",
	})
	require.NoError(t, err)
	auditsAfterWarn := len(fake.embedsSent)

	first, err := orch.ReverseWarning(context.Background(), "g1", "u1")
	require.NoError(t, err)
	assert.True(t, first.Reversed)
	assert.Equal(t, int64(0), first.Remaining)
	assert.Equal(t, auditsAfterWarn+1, len(fake.embedsSent))

	// the second invocation finds nothing, errors nothing, logs nothing
	second, err := orch.ReverseWarning(context.Background(), "g1", "u1")
	require.NoError(t, err)
	assert.False(t, second.Reversed)
	assert.Equal(t, auditsAfterWarn+1, len(fake.embedsSent))
}

func TestMuteReversalIsIdempotent(t *testing.T) {
	orch, fake, _, _ := newTestOrchestrator(t)

	_, err := orch.Mute(context.Background(), ActionRequest{
		GuildID: "g1", ActorID: "mod", SubjectID: "u1",
	})
	require.NoError(t, err)

	first, err := orch.ReverseMute(context.Background(), "g1", "u1")
	require.NoError(t, err)
	assert.True(t, first.Reversed)
	require.Len(t, fake.rolesRemoved, 1)

	second, err := orch.ReverseMute(context.Background(), "g1", "u1")
	require.NoError(t, err)
	assert.False(t, second.Reversed)
	assert.Len(t, fake.rolesRemoved, 1)
}

func TestWarningLifecycleScenario(t *testing.T) {
	orch, fake, _, repo := newTestOrchestrator(t)
	start := time.Now()

	for i := 0; i < 3; i++ {
		result, err := orch.Warn(context.Background(), ActionRequest{
			GuildID: "g1", ActorID: "mod", SubjectID: "u1",
		})
		require.NoError(t, err)
		assert.InDelta(t, start.Add(30*time.Minute).UnixMilli(), result.ExpiresAt.UnixMilli(), 2000)
	}

	_, err := orch.Warn(context.Background(), ActionRequest{
		GuildID: "g1", ActorID: "mod", SubjectID: "u1",
	})
	require.ErrorIs(t, err, ErrMaxWarnings)

	// push the clock past every expiry and let the sweep reverse them
	orch.now = func() time.Time { return start.Add(31 * time.Minute) }
	sweeper := NewSweeper(orch, fake, repo, &fakeMemberCache{present: []string{"bot", "mod", "u1"}}, 2*time.Minute)
	sweeper.now = orch.now
	sweeper.RunOnce(context.Background())

	records, err := repo.ListForSubject("u1", models.SanctionWarning)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSweepCleansUpDepartedSubjects(t *testing.T) {
	orch, fake, _, repo := newTestOrchestrator(t)
	start := time.Now()

	_, err := orch.Mute(context.Background(), ActionRequest{
		GuildID: "g1", ActorID: "mod", SubjectID: "u1",
	})
	require.NoError(t, err)

	orch.now = func() time.Time { return start.Add(time.Hour) }
	sweeper := NewSweeper(orch, fake, repo, &fakeMemberCache{present: []string{"bot", "mod"}}, 2*time.Minute)
	sweeper.now = orch.now
	sweeper.RunOnce(context.Background())

	count, err := repo.CountForSubject("u1", models.SanctionMute)
	require.NoError(t, err)
	assert.Zero(t, count)
	// departed subject: rows removed without touching roles
	assert.Empty(t, fake.rolesRemoved)
}

func TestAuditSendFailureDoesNotFailAction(t *testing.T) {
	orch, fake, _, repo := newTestOrchestrator(t)
	fake.failSendEmbed = true

	result, err := orch.Mute(context.Background(), ActionRequest{
		GuildID: "g1", ActorID: "mod", SubjectID: "u1",
	})
	require.NoError(t, err)
	assert.Error(t, result.AuditErr)

	count, err := repo.CountForSubject("u1", models.SanctionMute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestKickNotifiesBeforeRemoval(t *testing.T) {
	orch, fake, _, _ := newTestOrchestrator(t)

	result, err := orch.Kick(context.Background(), ActionRequest{
		GuildID: "g1", ActorID: "mod", SubjectID: "u1", Reason: "trolling",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", result.Subject.UserID)
	assert.Equal(t, []string{"u1"}, fake.kicked)
	require.Len(t, fake.dms, 1)
}

func TestBanHonorsMessagePurgeSetting(t *testing.T) {
	orch, fake, settings, _ := newTestOrchestrator(t)
	settings.settings.DeleteBannedUserMessages = true

	_, err := orch.Ban(context.Background(), ActionRequest{
		GuildID: "g1", ActorID: "mod", SubjectID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1:7"}, fake.banned)
}

func TestBanClosedDMsAreSwallowed(t *testing.T) {
	orch, fake, _, _ := newTestOrchestrator(t)
	fake.failDM = true

	_, err := orch.Ban(context.Background(), ActionRequest{
		GuildID: "g1", ActorID: "mod", SubjectID: "u1",
	})
	require.NoError(t, err)
	assert.Len(t, fake.banned, 1)
}

func TestUnbanRequiresCapabilityOnly(t *testing.T) {
	orch, fake, _, _ := newTestOrchestrator(t)

	_, err := orch.Unban(context.Background(), "g1", "mod", "gone-user")
	require.NoError(t, err)
	assert.Equal(t, []string{"gone-user"}, fake.unbanned)

	fake.addMember(&platform.Member{GuildID: "g1", UserID: "bystander", Rank: 1})
	_, err = orch.Unban(context.Background(), "g1", "bystander", "gone-user")
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)
}
