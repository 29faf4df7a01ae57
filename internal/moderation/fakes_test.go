package moderation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"stan-guard/internal/models"
	"stan-guard/internal/platform"
	"stan-guard/internal/storage"
)

// fakePlatform implements the Membership, Channels and Notifier
// collaborators in memory and records every mutation for assertions.
type fakePlatform struct {
	botID    string
	members  map[string]*platform.Member
	roles    map[string][]*platform.Role
	channels map[string][]*platform.Channel
	messages map[string][]*platform.Message

	bans []*platform.BanEntry

	rolesAdded      []string
	rolesRemoved    []string
	createdChannels []string
	embedsSent      []sentEmbed
	messagesSent    []string
	deletedMessages []string
	bulkDeleted     [][]string
	kicked          []string
	banned          []string
	unbanned        []string
	dms             []string

	failDM        bool
	failSendEmbed bool
	nextRoleID    int
	nextChannelID int
}

type sentEmbed struct {
	channelID string
	embed     *platform.Embed
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		botID:    "bot",
		members:  make(map[string]*platform.Member),
		roles:    make(map[string][]*platform.Role),
		channels: make(map[string][]*platform.Channel),
		messages: make(map[string][]*platform.Message),
	}
}

func (f *fakePlatform) addMember(m *platform.Member) {
	f.members[m.GuildID+":"+m.UserID] = m
}

func (f *fakePlatform) FetchMember(ctx context.Context, guildID, userID string) (*platform.Member, error) {
	m, ok := f.members[guildID+":"+userID]
	if !ok {
		return nil, platform.ErrNotFound
	}
	return m, nil
}

func (f *fakePlatform) ListMembers(ctx context.Context, guildID string) ([]*platform.Member, error) {
	var out []*platform.Member
	for _, m := range f.members {
		if m.GuildID == guildID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakePlatform) BotMember(ctx context.Context, guildID string) (*platform.Member, error) {
	return f.FetchMember(ctx, guildID, f.botID)
}

func (f *fakePlatform) FindRole(guildID, name string) (*platform.Role, error) {
	for _, role := range f.roles[guildID] {
		if role.Name == name {
			return role, nil
		}
	}
	return nil, platform.ErrNotFound
}

func (f *fakePlatform) GetOrCreateRole(ctx context.Context, guildID, name string, color platform.RoleColor) (*platform.Role, error) {
	if role, err := f.FindRole(guildID, name); err == nil {
		return role, nil
	}
	f.nextRoleID++
	role := &platform.Role{ID: fmt.Sprintf("role-%d", f.nextRoleID), Name: name}
	f.roles[guildID] = append(f.roles[guildID], role)
	return role, nil
}

func (f *fakePlatform) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	f.rolesAdded = append(f.rolesAdded, userID+":"+roleID)
	if m, ok := f.members[guildID+":"+userID]; ok {
		m.RoleIDs = append(m.RoleIDs, roleID)
	}
	return nil
}

func (f *fakePlatform) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	f.rolesRemoved = append(f.rolesRemoved, userID+":"+roleID)
	return nil
}

func (f *fakePlatform) Kick(ctx context.Context, guildID, userID, reason string) error {
	f.kicked = append(f.kicked, userID)
	return nil
}

func (f *fakePlatform) Ban(ctx context.Context, guildID, userID, reason string, deleteDays int) error {
	f.banned = append(f.banned, fmt.Sprintf("%s:%d", userID, deleteDays))
	return nil
}

func (f *fakePlatform) Unban(ctx context.Context, guildID, userID string) error {
	f.unbanned = append(f.unbanned, userID)
	return nil
}

func (f *fakePlatform) ListBans(ctx context.Context, guildID string) ([]*platform.BanEntry, error) {
	return f.bans, nil
}

func (f *fakePlatform) GuildIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, m := range f.members {
		if !seen[m.GuildID] {
			seen[m.GuildID] = true
			ids = append(ids, m.GuildID)
		}
	}
	return ids
}

func (f *fakePlatform) GuildName(guildID string) string {
	return "Guild " + guildID
}

func (f *fakePlatform) FindTextChannel(guildID, name string) (*platform.Channel, error) {
	for _, ch := range f.channels[guildID] {
		if ch.Name == name {
			return ch, nil
		}
	}
	return nil, platform.ErrNotFound
}

func (f *fakePlatform) ListTextChannels(guildID string) ([]*platform.Channel, error) {
	return f.channels[guildID], nil
}

func (f *fakePlatform) Resolve(ctx context.Context, guildID, name string) (*platform.ChannelResolution, error) {
	if ch, err := f.FindTextChannel(guildID, name); err == nil {
		return &platform.ChannelResolution{Channel: ch}, nil
	}
	f.nextChannelID++
	ch := &platform.Channel{ID: fmt.Sprintf("ch-%d", f.nextChannelID), GuildID: guildID, Name: name}
	f.channels[guildID] = append(f.channels[guildID], ch)
	f.createdChannels = append(f.createdChannels, name)
	return &platform.ChannelResolution{Channel: ch, Created: true}, nil
}

func (f *fakePlatform) Send(ctx context.Context, channelID, content string) error {
	f.messagesSent = append(f.messagesSent, channelID+":"+content)
	return nil
}

func (f *fakePlatform) SendEmbed(ctx context.Context, channelID string, embed *platform.Embed) error {
	if f.failSendEmbed {
		return fmt.Errorf("send rejected")
	}
	f.embedsSent = append(f.embedsSent, sentEmbed{channelID: channelID, embed: embed})
	return nil
}

func (f *fakePlatform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	f.deletedMessages = append(f.deletedMessages, messageID)
	return nil
}

func (f *fakePlatform) BulkDelete(ctx context.Context, channelID string, messageIDs []string) error {
	f.bulkDeleted = append(f.bulkDeleted, messageIDs)
	return nil
}

func (f *fakePlatform) RecentMessages(ctx context.Context, channelID string, limit int) ([]*platform.Message, error) {
	msgs := f.messages[channelID]
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func (f *fakePlatform) DirectMessage(ctx context.Context, userID, content string) error {
	if f.failDM {
		return fmt.Errorf("dms closed")
	}
	f.dms = append(f.dms, userID+":"+content)
	return nil
}

func (f *fakePlatform) DirectEmbed(ctx context.Context, userID string, embed *platform.Embed) error {
	if f.failDM {
		return fmt.Errorf("dms closed")
	}
	f.dms = append(f.dms, userID+":embed")
	return nil
}

// fakeSettings hands out a single settings record and counts saves.
type fakeSettings struct {
	settings *models.ServerSettings
	saves    int
}

func (f *fakeSettings) Ensure(guildID string) (*models.ServerSettings, error) {
	return f.settings, nil
}

func (f *fakeSettings) Save(settings *models.ServerSettings) error {
	f.saves++
	return nil
}

// fakeMemberCache reports a fixed set of present members.
type fakeMemberCache struct {
	present []string
}

func (f *fakeMemberCache) Refresh(ctx context.Context, guildID string) ([]string, error) {
	return f.present, nil
}

func testSettings(guildID string) *models.ServerSettings {
	return &models.ServerSettings{
		GuildID:               guildID,
		LogChannelName:        "stan_logs",
		MuteLogChannelName:    "mute_stan_log",
		MuteLogChannelUse:     true,
		MutedRoleName:         "Muted",
		MuteDuration:          "5m",
		WarningLogChannelName: "warn_stan_log",
		WarningLogChannelUse:  true,
		WarningDuration:       "30m",
		MaxWarnings:           3,
		ClearLogChannelName:   "clear_stan_log",
		ClearLogChannelUse:    true,
		ReportLogChannelName:  "report_stan_log",
		ReportLogChannelUse:   true,
		Language:              "eng",
		ManRoleName:           "Man",
		GirlRoleName:          "Woman",
		NewMemberRoleName:     "NewMember",
	}
}

func testSanctionRepo(t *testing.T) *storage.SanctionRepository {
	t.Helper()

	dsn := fmt.Sprintf("file:mod_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	repo := storage.NewSanctionRepository(db)
	require.NoError(t, repo.MigrateTable())
	return repo
}

// newTestOrchestrator wires an orchestrator over the fakes with a guild of
// one moderator, one regular subject and the bot.
func newTestOrchestrator(t *testing.T) (*Orchestrator, *fakePlatform, *fakeSettings, *storage.SanctionRepository) {
	t.Helper()

	fake := newFakePlatform()
	fake.addMember(&platform.Member{GuildID: "g1", UserID: "bot", Username: "guard", Bot: true, Rank: 10, CanModerate: true})
	fake.addMember(&platform.Member{GuildID: "g1", UserID: "mod", Username: "moderator", Rank: 5, CanModerate: true})
	fake.addMember(&platform.Member{GuildID: "g1", UserID: "u1", Username: "subject", Rank: 1})

	settings := &fakeSettings{settings: testSettings("g1")}
	repo := testSanctionRepo(t)
	orch := NewOrchestrator(fake, fake, fake, repo, settings)
	return orch, fake, settings, repo
}
