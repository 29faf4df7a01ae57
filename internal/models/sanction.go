package models

import "time"

// SanctionKind discriminates the two structurally identical sanction rows.
// The only behavioral difference is the rollback action on expiry.
type SanctionKind string

const (
	SanctionMute    SanctionKind = "mute"
	SanctionWarning SanctionKind = "warning"
)

// Sanction is a durable mute or warning record. Rows are created by the
// moderation orchestrator, never updated, and deleted either by an explicit
// reversal command or by the expiry sweep.
type Sanction struct {
	ID        uint         `gorm:"primaryKey;autoIncrement"`
	GuildID   string       `gorm:"index:idx_sanctions_guild_user;size:32;not null"`
	UserID    string       `gorm:"index:idx_sanctions_guild_user;size:32;not null"`
	Kind      SanctionKind `gorm:"index;size:16;not null"`
	ExpiresAt int64        `gorm:"index;not null"` // unix milliseconds
	Reason    string       `gorm:"type:text"`
	CreatedAt time.Time
}

// Active reports whether the sanction is still in force at the given
// instant (unix milliseconds).
func (s *Sanction) Active(nowMs int64) bool {
	return s.ExpiresAt > nowMs
}

// ExpiryTime returns the expiry instant as a time.Time.
func (s *Sanction) ExpiryTime() time.Time {
	return time.UnixMilli(s.ExpiresAt)
}
