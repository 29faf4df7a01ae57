package storage

import (
	"errors"

	"stan-guard/internal/models"

	"gorm.io/gorm"
)

// SanctionRepository handles database operations for Sanction rows
type SanctionRepository struct {
	db *gorm.DB
}

// NewSanctionRepository creates a new SanctionRepository
func NewSanctionRepository(db *gorm.DB) *SanctionRepository {
	return &SanctionRepository{db: db}
}

// MigrateTable ensures the Sanction table exists
func (r *SanctionRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.Sanction{})
}

// Create inserts a new sanction row. An expiry in the past is accepted; the
// row is simply expired from the start.
func (r *SanctionRepository) Create(record *models.Sanction) error {
	return r.db.Create(record).Error
}

// ListActive returns all sanctions of the given kind still in force in a
// guild, ordered by expiry ascending for display.
func (r *SanctionRepository) ListActive(guildID string, kind models.SanctionKind, nowMs int64) ([]*models.Sanction, error) {
	var records []*models.Sanction
	result := r.db.
		Where("guild_id = ? AND kind = ? AND expires_at > ?", guildID, kind, nowMs).
		Order("expires_at ASC").
		Find(&records)
	return records, result.Error
}

// ListForSubject returns all sanctions of the given kind for a user,
// regardless of guild. Used to count standing warnings.
func (r *SanctionRepository) ListForSubject(userID string, kind models.SanctionKind) ([]*models.Sanction, error) {
	var records []*models.Sanction
	result := r.db.
		Where("user_id = ? AND kind = ?", userID, kind).
		Find(&records)
	return records, result.Error
}

// CountForSubject returns the number of standing sanctions of the given
// kind for a user.
func (r *SanctionRepository) CountForSubject(userID string, kind models.SanctionKind) (int64, error) {
	var count int64
	result := r.db.Model(&models.Sanction{}).
		Where("user_id = ? AND kind = ?", userID, kind).
		Count(&count)
	return count, result.Error
}

// HasActiveForSubject reports whether the subject holds any sanction of the
// given kind still in force in a guild.
func (r *SanctionRepository) HasActiveForSubject(guildID, userID string, kind models.SanctionKind, nowMs int64) (bool, error) {
	var count int64
	result := r.db.Model(&models.Sanction{}).
		Where("guild_id = ? AND user_id = ? AND kind = ? AND expires_at > ?", guildID, userID, kind, nowMs).
		Count(&count)
	return count > 0, result.Error
}

// ListExpired returns all rows of the given kind in a guild whose expiry is
// at or before asOf.
func (r *SanctionRepository) ListExpired(guildID string, kind models.SanctionKind, asOfMs int64) ([]*models.Sanction, error) {
	var records []*models.Sanction
	result := r.db.
		Where("guild_id = ? AND kind = ? AND expires_at <= ?", guildID, kind, asOfMs).
		Find(&records)
	return records, result.Error
}

// DeleteMostRecentForSubject deletes the single sanction with the greatest
// expiry for the subject (ties broken by id descending) and returns the
// deleted row plus the post-deletion count. Finding no row returns nil
// without error; reversal must be idempotent.
func (r *SanctionRepository) DeleteMostRecentForSubject(guildID, userID string, kind models.SanctionKind) (*models.Sanction, int64, error) {
	var latest models.Sanction
	result := r.db.
		Where("guild_id = ? AND user_id = ? AND kind = ?", guildID, userID, kind).
		Order("expires_at DESC, id DESC").
		First(&latest)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, 0, nil
		}
		return nil, 0, result.Error
	}

	if err := r.db.Delete(&models.Sanction{}, latest.ID).Error; err != nil {
		return nil, 0, err
	}

	var remaining int64
	result = r.db.Model(&models.Sanction{}).
		Where("guild_id = ? AND user_id = ? AND kind = ?", guildID, userID, kind).
		Count(&remaining)
	return &latest, remaining, result.Error
}

// DeleteAllForSubject removes every sanction of the given kind for a user in
// a guild and returns the ids of the rows removed. Used for mute reversal
// and for cleanup when the subject left the guild.
func (r *SanctionRepository) DeleteAllForSubject(guildID, userID string, kind models.SanctionKind) ([]uint, error) {
	var records []*models.Sanction
	if err := r.db.
		Where("guild_id = ? AND user_id = ? AND kind = ?", guildID, userID, kind).
		Find(&records).Error; err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	if err := r.db.Delete(&models.Sanction{}, ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
