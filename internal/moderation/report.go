package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stan-guard/internal/platform"
)

// reportCooldown is the per-user wait between reports.
const reportCooldown = 30 * time.Second

// ReportRequest is a member's complaint about another member. Any member
// may file one; no moderation capability is required.
type ReportRequest struct {
	GuildID    string
	ReporterID string
	SubjectID  string
	Reason     string
}

type ReportResult struct {
	Subject *platform.Member
}

// Report posts the complaint to the report log channel. The log entry is
// the whole point of the action, so a failed send fails the report.
func (o *Orchestrator) Report(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	settings, err := o.settings.Ensure(req.GuildID)
	if err != nil {
		return nil, storageErr("load settings", err)
	}

	if wait := o.reportWait(req.ReporterID); wait > 0 {
		return nil, &ValidationError{Reason: fmt.Sprintf(
			"wait %d seconds before filing another report", int(wait.Seconds())+1)}
	}

	subject, err := o.members.FetchMember(ctx, req.GuildID, req.SubjectID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			return nil, &ValidationError{Reason: "member not found"}
		}
		return nil, platformErr("fetch subject", err)
	}
	reporter, err := o.members.FetchMember(ctx, req.GuildID, req.ReporterID)
	if err != nil {
		return nil, platformErr("fetch reporter", err)
	}

	reason := req.Reason
	if reason == "" {
		reason = defaultReason
	}
	if err := o.sendAudit(ctx, settings, auditReport, reportEmbed(reporter, subject, reason)); err != nil {
		return nil, err
	}

	o.reportsMu.Lock()
	o.lastReports[req.ReporterID] = o.now()
	o.reportsMu.Unlock()

	return &ReportResult{Subject: subject}, nil
}

// reportWait returns how long the reporter must still wait, zero when the
// cooldown has passed.
func (o *Orchestrator) reportWait(reporterID string) time.Duration {
	o.reportsMu.Lock()
	defer o.reportsMu.Unlock()
	last, ok := o.lastReports[reporterID]
	if !ok {
		return 0
	}
	remaining := reportCooldown - o.now().Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}
