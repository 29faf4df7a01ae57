package service

import (
	"context"
	"strings"

	"stan-guard/internal/models"
	"stan-guard/internal/platform"
	"stan-guard/internal/storage"
)

// MemberService maintains the stored membership snapshot per guild. The
// snapshot spares the sweep a full member fetch when only presence and role
// names are needed; the live platform stays the source of truth.
type MemberService struct {
	repo    *storage.MemberRepository
	members platform.Membership
}

func NewMemberService(repo *storage.MemberRepository, members platform.Membership) *MemberService {
	return &MemberService{repo: repo, members: members}
}

// Refresh pulls the guild's full member list from the platform, rewrites
// the snapshot and returns the user ids currently present.
func (s *MemberService) Refresh(ctx context.Context, guildID string) ([]string, error) {
	members, err := s.members.ListMembers(ctx, guildID)
	if err != nil {
		return nil, err
	}

	infos := make([]*models.MemberInfo, 0, len(members))
	userIDs := make([]string, 0, len(members))
	for _, m := range members {
		infos = append(infos, &models.MemberInfo{
			GuildID: guildID,
			UserID:  m.UserID,
			Roles:   strings.Join(m.RoleNames, ","),
		})
		userIDs = append(userIDs, m.UserID)
	}

	if err := s.repo.UpsertMany(infos); err != nil {
		return nil, err
	}
	if _, err := s.repo.RemoveStale(guildID, userIDs); err != nil {
		return nil, err
	}
	return userIDs, nil
}

// Remember stores or refreshes the snapshot of a single member.
func (s *MemberService) Remember(guildID, userID string, roleNames []string) error {
	return s.repo.UpsertMany([]*models.MemberInfo{{
		GuildID: guildID,
		UserID:  userID,
		Roles:   strings.Join(roleNames, ","),
	}})
}

// Snapshot returns the stored snapshot of one member, or nil when none is
// cached.
func (s *MemberService) Snapshot(guildID, userID string) (*models.MemberInfo, error) {
	return s.repo.Get(guildID, userID)
}

// Forget drops one member from the snapshot, used on leave events.
func (s *MemberService) Forget(guildID, userID string) error {
	return s.repo.Delete(guildID, userID)
}
