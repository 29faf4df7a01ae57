package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"stan-guard/internal/config"
	"stan-guard/internal/storage"
)

func testSeeds() config.ModerationConfig {
	return config.ModerationConfig{
		LogChannelName:          "stan_logs",
		MutedRoleName:           "Muted",
		MuteDuration:            "5m",
		WarningDuration:         "30m",
		MaxWarnings:             3,
		Language:                "eng",
		Automod:                 true,
		AutomodBlacklist:        "fuck",
		AutomodBadLinks:         "azino777cashcazino-slots.ru",
		AutomodExcludedChannels: "stan_logs, clear_stan_log",
		UniteAutomodBlacklists:  true,
		UniteAutomodBadLinks:    true,
		NewMemberRoleName:       "NewMember",
	}
}

func newTestService(t *testing.T) *SettingsService {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	repo := storage.NewSettingsRepository(db)
	require.NoError(t, repo.MigrateTable())
	return NewSettingsService(repo, testSeeds())
}

func TestEnsureCreatesDefaults(t *testing.T) {
	svc := newTestService(t)

	settings, err := svc.Ensure("g1")
	require.NoError(t, err)
	assert.Equal(t, "stan_logs", settings.LogChannelName)
	assert.Equal(t, 3, settings.MaxWarnings)
	assert.Equal(t, "eng", settings.Language)
	assert.True(t, settings.Automod)

	// second call serves the record from the cache
	again, err := svc.Ensure("g1")
	require.NoError(t, err)
	assert.Equal(t, settings, again)
}

func TestEnsureHandsOutIndependentCopies(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.Ensure("g1")
	require.NoError(t, err)
	first.MaxWarnings = 99

	second, err := svc.Ensure("g1")
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	// a caller-side mutation never leaks into the cache without Save
	assert.Equal(t, 3, second.MaxWarnings)
}

func TestUpdateValidatesValues(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.Update("g1", "max_warnings", "5"))
	settings, err := svc.Ensure("g1")
	require.NoError(t, err)
	assert.Equal(t, 5, settings.MaxWarnings)

	assert.Error(t, svc.Update("g1", "max_warnings", "many"))
	assert.Error(t, svc.Update("g1", "max_warnings", "0"))

	require.NoError(t, svc.Update("g1", "automod", "off"))
	settings, err = svc.Ensure("g1")
	require.NoError(t, err)
	assert.False(t, settings.Automod)
	assert.Error(t, svc.Update("g1", "automod", "maybe"))

	require.NoError(t, svc.Update("g1", "language", "rus"))
	assert.Error(t, svc.Update("g1", "language", "klingon"))

	err = svc.Update("g1", "no_such_setting", "x")
	assert.ErrorIs(t, err, ErrUnknownSetting)
}

func TestUpdatePersists(t *testing.T) {
	svc := newTestService(t)

	require.NoError(t, svc.Update("g1", "muted_role", "Silenced"))

	// drop the cache and reload from the database
	svc.Forget("g1")
	settings, err := svc.Ensure("g1")
	require.NoError(t, err)
	assert.Equal(t, "Silenced", settings.MutedRoleName)
}

func TestRemoveStaleDropsDepartedGuilds(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Ensure("g1")
	require.NoError(t, err)
	_, err = svc.Ensure("g2")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveStale([]string{"g1"}))

	svc.Forget("g1")
	svc.Forget("g2")
	settings, err := svc.Ensure("g2")
	require.NoError(t, err)
	// recreated from seeds, not the old row
	assert.Equal(t, "stan_logs", settings.LogChannelName)
}
