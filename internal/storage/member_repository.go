package storage

import (
	"errors"

	"stan-guard/internal/models"

	"gorm.io/gorm"
)

// MemberRepository handles database operations for the MemberInfo cache
type MemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// MigrateTable ensures the MemberInfo table exists
func (r *MemberRepository) MigrateTable() error {
	return r.db.AutoMigrate(&models.MemberInfo{})
}

// Get retrieves a cached member snapshot, or nil when absent
func (r *MemberRepository) Get(guildID, userID string) (*models.MemberInfo, error) {
	var info models.MemberInfo
	result := r.db.Where("guild_id = ? AND user_id = ?", guildID, userID).First(&info)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &info, nil
}

// ListGuildUserIDs returns all cached user ids for a guild
func (r *MemberRepository) ListGuildUserIDs(guildID string) ([]string, error) {
	var ids []string
	result := r.db.Model(&models.MemberInfo{}).
		Where("guild_id = ?", guildID).
		Pluck("user_id", &ids)
	return ids, result.Error
}

// UpsertMany replaces the snapshots for the given members in one transaction
func (r *MemberRepository) UpsertMany(infos []*models.MemberInfo) error {
	if len(infos) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, info := range infos {
			if err := tx.Save(info).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a single member snapshot
func (r *MemberRepository) Delete(guildID, userID string) error {
	return r.db.
		Where("guild_id = ? AND user_id = ?", guildID, userID).
		Delete(&models.MemberInfo{}).Error
}

// RemoveStale deletes cached rows for users no longer in the guild
func (r *MemberRepository) RemoveStale(guildID string, keepUserIDs []string) (int64, error) {
	query := r.db.Where("guild_id = ?", guildID)
	if len(keepUserIDs) > 0 {
		query = query.Where("user_id NOT IN ?", keepUserIDs)
	}
	result := query.Delete(&models.MemberInfo{})
	return result.RowsAffected, result.Error
}
