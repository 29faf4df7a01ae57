package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stan-guard/internal/models"
)

func newMemberRepo(t *testing.T) *MemberRepository {
	t.Helper()
	repo := NewMemberRepository(newTestDB(t))
	require.NoError(t, repo.MigrateTable())
	return repo
}

func TestMemberUpsertAndGet(t *testing.T) {
	repo := newMemberRepo(t)

	require.NoError(t, repo.UpsertMany([]*models.MemberInfo{
		{GuildID: "g1", UserID: "u1", Roles: "Muted,NewMember"},
		{GuildID: "g1", UserID: "u2", Roles: ""},
	}))

	info, err := repo.Get("g1", "u1")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.True(t, info.HasRole("Muted"))
	assert.False(t, info.HasRole("Admin"))

	// upsert replaces the role snapshot
	require.NoError(t, repo.UpsertMany([]*models.MemberInfo{
		{GuildID: "g1", UserID: "u1", Roles: "NewMember"},
	}))
	info, err = repo.Get("g1", "u1")
	require.NoError(t, err)
	assert.False(t, info.HasRole("Muted"))
}

func TestMemberRemoveStale(t *testing.T) {
	repo := newMemberRepo(t)

	require.NoError(t, repo.UpsertMany([]*models.MemberInfo{
		{GuildID: "g1", UserID: "u1"},
		{GuildID: "g1", UserID: "u2"},
		{GuildID: "g2", UserID: "u1"},
	}))

	removed, err := repo.RemoveStale("g1", []string{"u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	ids, err := repo.ListGuildUserIDs("g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ids)

	// other guilds untouched
	ids, err = repo.ListGuildUserIDs("g2")
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}
