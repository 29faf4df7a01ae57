package moderation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportPostsToReportChannel(t *testing.T) {
	orch, fake, _, _ := newTestOrchestrator(t)

	// plain members may report; no capability needed
	result, err := orch.Report(context.Background(), ReportRequest{
		GuildID: "g1", ReporterID: "u1", SubjectID: "mod", Reason: "abuse",
	})
	require.NoError(t, err)
	assert.Equal(t, "mod", result.Subject.UserID)

	require.Len(t, fake.embedsSent, 1)
	channel, err := fake.FindTextChannel("g1", "report_stan_log")
	require.NoError(t, err)
	assert.Equal(t, channel.ID, fake.embedsSent[0].channelID)
}

func TestReportCooldownPerReporter(t *testing.T) {
	orch, fake, _, _ := newTestOrchestrator(t)
	base := time.Now()
	orch.now = func() time.Time { return base }

	_, err := orch.Report(context.Background(), ReportRequest{
		GuildID: "g1", ReporterID: "u1", SubjectID: "mod",
	})
	require.NoError(t, err)

	_, err = orch.Report(context.Background(), ReportRequest{
		GuildID: "g1", ReporterID: "u1", SubjectID: "mod",
	})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Len(t, fake.embedsSent, 1)

	// another reporter is not rate limited
	_, err = orch.Report(context.Background(), ReportRequest{
		GuildID: "g1", ReporterID: "mod", SubjectID: "u1",
	})
	require.NoError(t, err)

	orch.now = func() time.Time { return base.Add(31 * time.Second) }
	_, err = orch.Report(context.Background(), ReportRequest{
		GuildID: "g1", ReporterID: "u1", SubjectID: "mod",
	})
	require.NoError(t, err)
}

func TestReportUnknownSubject(t *testing.T) {
	orch, _, _, _ := newTestOrchestrator(t)

	_, err := orch.Report(context.Background(), ReportRequest{
		GuildID: "g1", ReporterID: "u1", SubjectID: "ghost",
	})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestReportFailsWhenLogUndeliverable(t *testing.T) {
	orch, fake, _, _ := newTestOrchestrator(t)
	fake.failSendEmbed = true

	_, err := orch.Report(context.Background(), ReportRequest{
		GuildID: "g1", ReporterID: "u1", SubjectID: "mod",
	})
	require.Error(t, err)

	// the failed attempt does not consume the cooldown
	fake.failSendEmbed = false
	_, err = orch.Report(context.Background(), ReportRequest{
		GuildID: "g1", ReporterID: "u1", SubjectID: "mod",
	})
	require.NoError(t, err)
}
