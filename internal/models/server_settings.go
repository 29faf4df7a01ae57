package models

import (
	"sync"
	"time"
)

// ServerSettings is the per-guild configuration record. Exactly one row per
// guild; created lazily with defaults the first time the guild is seen.
type ServerSettings struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	GuildID string `gorm:"uniqueIndex;size:32;not null"`

	LogChannelName string `gorm:"size:128"`

	MuteLogChannelName string `gorm:"size:128"`
	MuteLogChannelUse  bool
	MutedRoleName      string `gorm:"size:128"`
	MuteDuration       string `gorm:"size:64"`
	MuteNotice         bool

	WarningLogChannelName string `gorm:"size:128"`
	WarningLogChannelUse  bool
	WarningDuration       string `gorm:"size:64"`
	MaxWarnings           int
	WarningsNotice        bool

	BanLogChannelName        string `gorm:"size:128"`
	BanLogChannelUse         bool
	DeleteBannedUserMessages bool

	KickLogChannelName string `gorm:"size:128"`
	KickLogChannelUse  bool

	ReportLogChannelName string `gorm:"size:128"`
	ReportLogChannelUse  bool

	ClearLogChannelName string `gorm:"size:128"`
	ClearLogChannelUse  bool
	ClearNotice         bool

	Language string `gorm:"size:8"`

	Automod                 bool
	AutomodExcludedChannels string `gorm:"type:text"`
	AutomodBlacklist        string `gorm:"type:text"`
	AutomodBadLinks         string `gorm:"type:text"`
	UniteAutomodBlacklists  bool
	UniteAutomodBadLinks    bool

	ManRoleName       string `gorm:"size:128"`
	GirlRoleName      string `gorm:"size:128"`
	NewMemberRoleName string `gorm:"size:128"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidLanguages lists the language codes a guild may configure.
var ValidLanguages = []string{"ben", "chi", "eng", "fra", "ger", "hin", "jpn", "kor", "por", "rus", "spa"}

// IsValidLanguage reports whether code is an accepted language code.
func IsValidLanguage(code string) bool {
	for _, l := range ValidLanguages {
		if l == code {
			return true
		}
	}
	return false
}

// SettingsManager is an in-memory read-through cache of settings rows,
// safe for concurrent use.
type SettingsManager struct {
	settingsMap map[string]*ServerSettings
	mu          sync.RWMutex
}

func NewSettingsManager() *SettingsManager {
	return &SettingsManager{
		settingsMap: make(map[string]*ServerSettings),
	}
}

// Get returns a copy of the cached record, so handler goroutines can read
// and mutate their view without racing each other. Mutations only take
// effect through Add.
func (m *SettingsManager) Get(guildID string) *ServerSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cached, ok := m.settingsMap[guildID]
	if !ok {
		return nil
	}
	copied := *cached
	return &copied
}

// Add caches a copy of the record; the caller keeps ownership of its own
// pointer.
func (m *SettingsManager) Add(settings *ServerSettings) {
	copied := *settings
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settingsMap[copied.GuildID] = &copied
}

func (m *SettingsManager) Remove(guildID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.settingsMap, guildID)
}

// GuildIDs returns the cached guild ids in no particular order.
func (m *SettingsManager) GuildIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.settingsMap))
	for id := range m.settingsMap {
		ids = append(ids, id)
	}
	return ids
}
