// Package service contains the application services bridging repositories,
// caches and the moderation core.
package service

import (
	"fmt"
	"strconv"
	"strings"

	"stan-guard/internal/config"
	"stan-guard/internal/logger"
	"stan-guard/internal/models"
	"stan-guard/internal/storage"
)

// ErrUnknownSetting is returned when an update names a setting that does
// not exist.
var ErrUnknownSetting = fmt.Errorf("unknown setting")

// SettingsService owns the per-guild settings records: a read-through cache
// in front of the repository, lazy default creation and typed updates.
type SettingsService struct {
	repo    *storage.SettingsRepository
	manager *models.SettingsManager
	seeds   config.ModerationConfig
}

func NewSettingsService(repo *storage.SettingsRepository, seeds config.ModerationConfig) *SettingsService {
	return &SettingsService{
		repo:    repo,
		manager: models.NewSettingsManager(),
		seeds:   seeds,
	}
}

// Ensure returns the guild's settings record, creating it with seed
// defaults the first time the guild is seen.
func (s *SettingsService) Ensure(guildID string) (*models.ServerSettings, error) {
	if settings := s.manager.Get(guildID); settings != nil {
		return settings, nil
	}

	settings, err := s.repo.Get(guildID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = s.defaults(guildID)
		if err := s.repo.Save(settings); err != nil {
			return nil, err
		}
		logger.Infof("Created default settings for guild %s", guildID)
	}

	s.manager.Add(settings)
	return settings, nil
}

// Save persists a settings record and refreshes the cache.
func (s *SettingsService) Save(settings *models.ServerSettings) error {
	if err := s.repo.Save(settings); err != nil {
		return err
	}
	s.manager.Add(settings)
	return nil
}

// Forget drops a guild from the cache, used when the bot leaves a guild.
func (s *SettingsService) Forget(guildID string) {
	s.manager.Remove(guildID)
}

// RemoveStale deletes settings rows of guilds the bot no longer belongs to.
func (s *SettingsService) RemoveStale(keepGuildIDs []string) error {
	removed, err := s.repo.RemoveStale(keepGuildIDs)
	if err != nil {
		return err
	}
	if removed > 0 {
		logger.Infof("Removed settings of %d stale guilds", removed)
	}
	keep := make(map[string]bool, len(keepGuildIDs))
	for _, id := range keepGuildIDs {
		keep[id] = true
	}
	for _, id := range s.manager.GuildIDs() {
		if !keep[id] {
			s.manager.Remove(id)
		}
	}
	return nil
}

func (s *SettingsService) defaults(guildID string) *models.ServerSettings {
	seeds := s.seeds
	return &models.ServerSettings{
		GuildID:                  guildID,
		LogChannelName:           seeds.LogChannelName,
		MuteLogChannelName:       seeds.MuteLogChannelName,
		MuteLogChannelUse:        seeds.MuteLogChannelUse,
		MutedRoleName:            seeds.MutedRoleName,
		MuteDuration:             seeds.MuteDuration,
		MuteNotice:               seeds.MuteNotice,
		WarningLogChannelName:    seeds.WarningLogChannelName,
		WarningLogChannelUse:     seeds.WarningLogChannelUse,
		WarningDuration:          seeds.WarningDuration,
		MaxWarnings:              seeds.MaxWarnings,
		WarningsNotice:           seeds.WarningsNotice,
		BanLogChannelName:        seeds.BanLogChannelName,
		BanLogChannelUse:         seeds.BanLogChannelUse,
		DeleteBannedUserMessages: seeds.DeleteBannedUserMessages,
		KickLogChannelName:       seeds.KickLogChannelName,
		KickLogChannelUse:        seeds.KickLogChannelUse,
		ReportLogChannelName:     seeds.ReportLogChannelName,
		ReportLogChannelUse:      seeds.ReportLogChannelUse,
		ClearLogChannelName:      seeds.ClearLogChannelName,
		ClearLogChannelUse:       seeds.ClearLogChannelUse,
		ClearNotice:              seeds.ClearNotice,
		Language:                 seeds.Language,
		Automod:                  seeds.Automod,
		AutomodExcludedChannels:  seeds.AutomodExcludedChannels,
		AutomodBlacklist:         seeds.AutomodBlacklist,
		AutomodBadLinks:          seeds.AutomodBadLinks,
		UniteAutomodBlacklists:   seeds.UniteAutomodBlacklists,
		UniteAutomodBadLinks:     seeds.UniteAutomodBadLinks,
		ManRoleName:              seeds.ManRoleName,
		GirlRoleName:             seeds.GirlRoleName,
		NewMemberRoleName:        seeds.NewMemberRoleName,
	}
}

// Update applies one named setting change after validating the value
// against the field's type.
func (s *SettingsService) Update(guildID, key, value string) error {
	settings, err := s.Ensure(guildID)
	if err != nil {
		return err
	}

	value = strings.TrimSpace(value)
	if err := applySetting(settings, strings.ToLower(key), value); err != nil {
		return err
	}
	return s.Save(settings)
}

func applySetting(settings *models.ServerSettings, key, value string) error {
	switch key {
	case "log_channel":
		settings.LogChannelName = value
	case "mute_log_channel":
		settings.MuteLogChannelName = value
	case "mute_log_channel_use":
		return setBool(&settings.MuteLogChannelUse, value)
	case "muted_role":
		settings.MutedRoleName = value
	case "mute_duration":
		settings.MuteDuration = value
	case "mute_notice":
		return setBool(&settings.MuteNotice, value)
	case "warning_log_channel":
		settings.WarningLogChannelName = value
	case "warning_log_channel_use":
		return setBool(&settings.WarningLogChannelUse, value)
	case "warning_duration":
		settings.WarningDuration = value
	case "max_warnings":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("max_warnings must be a positive number")
		}
		settings.MaxWarnings = n
	case "warnings_notice":
		return setBool(&settings.WarningsNotice, value)
	case "ban_log_channel":
		settings.BanLogChannelName = value
	case "ban_log_channel_use":
		return setBool(&settings.BanLogChannelUse, value)
	case "delete_banned_user_messages":
		return setBool(&settings.DeleteBannedUserMessages, value)
	case "kick_log_channel":
		settings.KickLogChannelName = value
	case "kick_log_channel_use":
		return setBool(&settings.KickLogChannelUse, value)
	case "report_log_channel":
		settings.ReportLogChannelName = value
	case "report_log_channel_use":
		return setBool(&settings.ReportLogChannelUse, value)
	case "clear_log_channel":
		settings.ClearLogChannelName = value
	case "clear_log_channel_use":
		return setBool(&settings.ClearLogChannelUse, value)
	case "clear_notice":
		return setBool(&settings.ClearNotice, value)
	case "language":
		if !models.IsValidLanguage(value) {
			return fmt.Errorf("language must be one of %s", strings.Join(models.ValidLanguages, ", "))
		}
		settings.Language = value
	case "automod":
		return setBool(&settings.Automod, value)
	case "automod_excluded_channels":
		settings.AutomodExcludedChannels = value
	case "automod_blacklist":
		settings.AutomodBlacklist = value
	case "automod_bad_links":
		settings.AutomodBadLinks = value
	case "unite_automod_blacklists":
		return setBool(&settings.UniteAutomodBlacklists, value)
	case "unite_automod_bad_links":
		return setBool(&settings.UniteAutomodBadLinks, value)
	case "man_role":
		settings.ManRoleName = value
	case "girl_role":
		settings.GirlRoleName = value
	case "new_member_role":
		settings.NewMemberRoleName = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	return nil
}

func setBool(target *bool, value string) error {
	switch strings.ToLower(value) {
	case "true", "yes", "on", "1":
		*target = true
	case "false", "no", "off", "0":
		*target = false
	default:
		return fmt.Errorf("value must be true or false")
	}
	return nil
}
