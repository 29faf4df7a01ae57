package moderation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stan-guard/internal/platform"
)

func TestClearSkipsMessagesBeyondBulkDeleteWindow(t *testing.T) {
	orch, fake, _, _ := newTestOrchestrator(t)

	now := time.Now()
	for i := 0; i < 7; i++ {
		fake.messages["general"] = append(fake.messages["general"], &platform.Message{
			ID: fmt.Sprintf("fresh-%d", i), ChannelID: "general", SentAt: now.Add(-time.Hour),
		})
	}
	for i := 0; i < 3; i++ {
		fake.messages["general"] = append(fake.messages["general"], &platform.Message{
			ID: fmt.Sprintf("stale-%d", i), ChannelID: "general", SentAt: now.Add(-15 * 24 * time.Hour),
		})
	}

	result, err := orch.Clear(context.Background(), ClearRequest{
		GuildID: "g1", ActorID: "mod", ChannelID: "general", ChannelName: "general", Limit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, result.Deleted)
	assert.Equal(t, 3, result.Skipped)

	require.Len(t, fake.bulkDeleted, 1)
	assert.Len(t, fake.bulkDeleted[0], 7)
	for _, id := range fake.bulkDeleted[0] {
		assert.NotContains(t, id, "stale")
	}
}

func TestClearRequiresCapability(t *testing.T) {
	orch, fake, _, _ := newTestOrchestrator(t)
	fake.addMember(&platform.Member{GuildID: "g1", UserID: "bystander", Rank: 1})

	_, err := orch.Clear(context.Background(), ClearRequest{
		GuildID: "g1", ActorID: "bystander", ChannelID: "general", ChannelName: "general", Limit: 10,
	})
	var authErr *AuthorizationError
	require.ErrorAs(t, err, &authErr)
	assert.Empty(t, fake.bulkDeleted)
}

func TestClearNothingDeletableSkipsBulkCall(t *testing.T) {
	orch, fake, _, _ := newTestOrchestrator(t)

	fake.messages["general"] = []*platform.Message{
		{ID: "stale", ChannelID: "general", SentAt: time.Now().Add(-20 * 24 * time.Hour)},
	}

	result, err := orch.Clear(context.Background(), ClearRequest{
		GuildID: "g1", ActorID: "mod", ChannelID: "general", ChannelName: "general", Limit: 10,
	})
	require.NoError(t, err)
	assert.Zero(t, result.Deleted)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, fake.bulkDeleted)
}

func TestEnforceFilterMatchDeletesAndNotifies(t *testing.T) {
	orch, fake, _, _ := newTestOrchestrator(t)

	err := orch.EnforceFilterMatch(context.Background(), FilteredMessage{
		GuildID: "g1", ChannelID: "general", ChannelName: "general",
		MessageID: "m1", AuthorID: "u1", Term: "fuck", Kind: "blacklist",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"m1"}, fake.deletedMessages)
	require.Len(t, fake.dms, 1)

	// automod audits belong to the main log channel, not the report one
	require.Len(t, fake.embedsSent, 1)
	channel, err := fake.FindTextChannel("g1", "stan_logs")
	require.NoError(t, err)
	assert.Equal(t, channel.ID, fake.embedsSent[0].channelID)
}

func TestEnforceFilterMatchSwallowsClosedDMs(t *testing.T) {
	orch, fake, _, _ := newTestOrchestrator(t)
	fake.failDM = true

	err := orch.EnforceFilterMatch(context.Background(), FilteredMessage{
		GuildID: "g1", ChannelID: "general", ChannelName: "general",
		MessageID: "m1", AuthorID: "u1", Term: "badword", Kind: "blacklist",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, fake.deletedMessages)
}

func TestMainLogChannelCreationPersistsSettings(t *testing.T) {
	orch, fake, settings, _ := newTestOrchestrator(t)
	// only the main channel name is configured for clears
	settings.settings.ClearLogChannelUse = false

	_, err := orch.Clear(context.Background(), ClearRequest{
		GuildID: "g1", ActorID: "mod", ChannelID: "general", ChannelName: "general", Limit: 5,
	})
	require.NoError(t, err)
	assert.Contains(t, fake.createdChannels, "stan_logs")
	assert.Equal(t, 1, settings.saves)
}

func TestSecondaryLogChannelCreationDoesNotPersist(t *testing.T) {
	orch, fake, settings, _ := newTestOrchestrator(t)

	_, err := orch.Mute(context.Background(), ActionRequest{
		GuildID: "g1", ActorID: "mod", SubjectID: "u1",
	})
	require.NoError(t, err)
	assert.Contains(t, fake.createdChannels, "mute_stan_log")
	assert.Zero(t, settings.saves)
}
