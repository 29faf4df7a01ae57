package automod

import (
	"strings"
	"sync"
	"time"
	"unicode"
)

const (
	joinWindow       = 2 * time.Minute
	joinBurstLimit   = 25
	minAccountAge    = 30 * time.Minute
	similarNameLimit = 3
)

type join struct {
	userID   string
	username string
	at       time.Time
}

// RaidVerdict describes why a joining member looks like part of a raid.
type RaidVerdict struct {
	Suspicious  bool
	BurstJoin   bool
	YoungAcct   bool
	SimilarName bool
}

// JoinTracker watches guild join events for raid patterns: bursts of joins
// in a short window, accounts created minutes before joining, and waves of
// near-identical usernames.
type JoinTracker struct {
	mu    sync.Mutex
	joins map[string][]join
}

func NewJoinTracker() *JoinTracker {
	return &JoinTracker{joins: make(map[string][]join)}
}

// Record registers a join and returns a verdict for it. Entries older than
// the tracking window are pruned on every call.
func (t *JoinTracker) Record(guildID, userID, username string, accountCreatedAt, joinedAt time.Time) RaidVerdict {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := joinedAt.Add(-joinWindow)
	recent := t.joins[guildID][:0]
	for _, j := range t.joins[guildID] {
		if j.at.After(cutoff) {
			recent = append(recent, j)
		}
	}
	recent = append(recent, join{userID: userID, username: username, at: joinedAt})
	t.joins[guildID] = recent

	verdict := RaidVerdict{}
	if len(recent) >= joinBurstLimit {
		verdict.BurstJoin = true
	}
	if !accountCreatedAt.IsZero() && joinedAt.Sub(accountCreatedAt) < minAccountAge {
		verdict.YoungAcct = true
	}

	similar := 0
	name := normalizeName(username)
	for _, j := range recent {
		if normalizeName(j.username) == name {
			similar++
		}
	}
	if similar >= similarNameLimit {
		verdict.SimilarName = true
	}

	verdict.Suspicious = verdict.BurstJoin || verdict.YoungAcct || verdict.SimilarName
	return verdict
}

// normalizeName folds case and strips digits so serial names like bot1,
// bot2, bot3 compare equal.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if !unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
