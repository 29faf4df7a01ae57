package storage

import (
	"errors"
	"time"

	"stan-guard/internal/models"

	"gorm.io/gorm"
)

// SettingsRepository handles database operations for ServerSettings
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// MigrateTable ensures the ServerSettings table exists
func (r *SettingsRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.ServerSettings{})
}

// Get retrieves the settings row for a guild, or nil when absent
func (r *SettingsRepository) Get(guildID string) (*models.ServerSettings, error) {
	var settings models.ServerSettings
	result := r.db.Where("guild_id = ?", guildID).First(&settings)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &settings, nil
}

// GetAll retrieves settings for every known guild
func (r *SettingsRepository) GetAll() ([]*models.ServerSettings, error) {
	var all []*models.ServerSettings
	result := r.db.Find(&all)
	return all, result.Error
}

// Save creates a new settings row or updates an existing one
func (r *SettingsRepository) Save(settings *models.ServerSettings) error {
	var existing models.ServerSettings
	result := r.db.Where("guild_id = ?", settings.GuildID).First(&existing)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			settings.CreatedAt = time.Now()
			settings.UpdatedAt = time.Now()
			return r.db.Create(settings).Error
		}
		return result.Error
	}

	settings.ID = existing.ID
	settings.CreatedAt = existing.CreatedAt
	settings.UpdatedAt = time.Now()

	return r.db.Save(settings).Error
}

// RemoveStale deletes settings rows for guilds the bot no longer serves
func (r *SettingsRepository) RemoveStale(keepGuildIDs []string) (int64, error) {
	if len(keepGuildIDs) == 0 {
		return 0, nil
	}
	result := r.db.
		Where("guild_id NOT IN ?", keepGuildIDs).
		Delete(&models.ServerSettings{})
	return result.RowsAffected, result.Error
}
