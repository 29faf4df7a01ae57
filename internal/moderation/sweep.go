package moderation

import (
	"context"
	"time"

	"stan-guard/internal/logger"
	"stan-guard/internal/models"
	"stan-guard/internal/platform"
	"stan-guard/internal/scheduler"
	"stan-guard/internal/storage"
)

// MemberCache refreshes the stored membership snapshot of a guild and
// returns the user ids currently present. It is a best-effort cache, never
// an authority for permission decisions.
type MemberCache interface {
	Refresh(ctx context.Context, guildID string) ([]string, error)
}

// Sweeper is the durable backstop behind the in-memory expiry timers: on a
// fixed interval it walks every guild, reverses expired sanctions and
// removes rows whose subject has left. A restart loses timers but never
// sanctions.
type Sweeper struct {
	orch      *Orchestrator
	channels  platform.Channels
	sanctions *storage.SanctionRepository
	cache     MemberCache
	interval  time.Duration
	now       func() time.Time
}

func NewSweeper(orch *Orchestrator, channels platform.Channels, sanctions *storage.SanctionRepository, cache MemberCache, interval time.Duration) *Sweeper {
	return &Sweeper{
		orch:      orch,
		channels:  channels,
		sanctions: sanctions,
		cache:     cache,
		interval:  interval,
		now:       time.Now,
	}
}

// Start launches the periodic sweep and returns its stop function.
func (s *Sweeper) Start() (stop func()) {
	return scheduler.Every(s.interval, "sanction-sweep", func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.interval)
		defer cancel()
		s.RunOnce(ctx)
	})
}

// RunOnce sweeps every guild. Per-guild failures are logged and never stop
// the pass.
func (s *Sweeper) RunOnce(ctx context.Context) {
	for _, guildID := range s.channels.GuildIDs() {
		s.sweepGuild(ctx, guildID)
	}
}

func (s *Sweeper) sweepGuild(ctx context.Context, guildID string) {
	// A failed refresh leaves presence unknown; reversal still runs, only
	// the departed-subject cleanup is skipped.
	var present map[string]bool
	if userIDs, err := s.cache.Refresh(ctx, guildID); err != nil {
		logger.Warningf("Member cache refresh for guild %s failed: %v", guildID, err)
	} else {
		present = make(map[string]bool, len(userIDs))
		for _, id := range userIDs {
			present[id] = true
		}
	}

	nowMs := s.now().UnixMilli()
	s.sweepMutes(ctx, guildID, nowMs, present)
	s.sweepWarnings(ctx, guildID, nowMs, present)
}

func (s *Sweeper) sweepMutes(ctx context.Context, guildID string, nowMs int64, present map[string]bool) {
	expired, err := s.sanctions.ListExpired(guildID, models.SanctionMute, nowMs)
	if err != nil {
		logger.Errorf("Listing expired mutes in guild %s failed: %v", guildID, err)
		return
	}

	seen := make(map[string]bool)
	for _, record := range expired {
		if seen[record.UserID] {
			continue
		}
		seen[record.UserID] = true

		if present != nil && !present[record.UserID] {
			s.cleanupDeparted(guildID, record.UserID, models.SanctionMute)
			continue
		}
		if _, err := s.orch.ReverseMute(ctx, guildID, record.UserID); err != nil {
			logger.Errorf("Sweeping mute of user %s in guild %s failed: %v", record.UserID, guildID, err)
		}
	}
}

func (s *Sweeper) sweepWarnings(ctx context.Context, guildID string, nowMs int64, present map[string]bool) {
	expired, err := s.sanctions.ListExpired(guildID, models.SanctionWarning, nowMs)
	if err != nil {
		logger.Errorf("Listing expired warnings in guild %s failed: %v", guildID, err)
		return
	}

	departed := make(map[string]bool)
	for _, record := range expired {
		if departed[record.UserID] {
			continue
		}
		if present != nil && !present[record.UserID] {
			departed[record.UserID] = true
			s.cleanupDeparted(guildID, record.UserID, models.SanctionWarning)
			continue
		}
		if _, err := s.orch.ReverseWarning(ctx, guildID, record.UserID); err != nil {
			logger.Errorf("Sweeping warning of user %s in guild %s failed: %v", record.UserID, guildID, err)
		}
	}
}

// cleanupDeparted drops every row of a subject who left the guild so no
// orphaned sanctions linger. Log-and-continue: cleanup must not abort the
// sweep.
func (s *Sweeper) cleanupDeparted(guildID, userID string, kind models.SanctionKind) {
	deletedIDs, err := s.sanctions.DeleteAllForSubject(guildID, userID, kind)
	if err != nil {
		logger.Errorf("Cleaning up %s rows of departed user %s in guild %s failed: %v", kind, userID, guildID, err)
		return
	}
	for _, id := range deletedIDs {
		s.orch.timers.cancel(id)
	}
	if len(deletedIDs) > 0 {
		logger.Infof("Removed %d %s rows of departed user %s in guild %s", len(deletedIDs), kind, userID, guildID)
	}
}
