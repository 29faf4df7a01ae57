package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// global configuration structure
type Config struct {
	Bot        BotConfig        `mapstructure:"bot"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	Automod    AutomodConfig    `mapstructure:"automod"`
}

// Discord bot configuration
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// logging configuration
type LoggerConfig struct {
	Directory  string            `mapstructure:"directory"`
	Rotation   LogRotationConfig `mapstructure:"rotation"`
	TimeFormat string            `mapstructure:"time_format"`
	Level      string            `mapstructure:"level"`
}

// log rotation settings
type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
}

// ModerationConfig holds the seed values used when a guild gets its
// settings row created on first contact. Per-guild values live in the
// database afterwards; changing these only affects new guilds.
type ModerationConfig struct {
	LogChannelName string `mapstructure:"log_channel_name"`

	MuteLogChannelName string `mapstructure:"mute_log_channel_name"`
	MuteLogChannelUse  bool   `mapstructure:"mute_log_channel_use"`
	MutedRoleName      string `mapstructure:"muted_role_name"`
	MuteDuration       string `mapstructure:"mute_duration"`
	MuteNotice         bool   `mapstructure:"mute_notice"`

	WarningLogChannelName string `mapstructure:"warning_log_channel_name"`
	WarningLogChannelUse  bool   `mapstructure:"warning_log_channel_use"`
	WarningDuration       string `mapstructure:"warning_duration"`
	MaxWarnings           int    `mapstructure:"max_warnings"`
	WarningsNotice        bool   `mapstructure:"warnings_notice"`

	BanLogChannelName        string `mapstructure:"ban_log_channel_name"`
	BanLogChannelUse         bool   `mapstructure:"ban_log_channel_use"`
	DeleteBannedUserMessages bool   `mapstructure:"delete_banned_user_messages"`

	KickLogChannelName string `mapstructure:"kick_log_channel_name"`
	KickLogChannelUse  bool   `mapstructure:"kick_log_channel_use"`

	ReportLogChannelName string `mapstructure:"report_log_channel_name"`
	ReportLogChannelUse  bool   `mapstructure:"report_log_channel_use"`

	ClearLogChannelName string `mapstructure:"clear_log_channel_name"`
	ClearLogChannelUse  bool   `mapstructure:"clear_log_channel_use"`
	ClearNotice         bool   `mapstructure:"clear_notice"`

	Language string `mapstructure:"language"`

	Automod                 bool   `mapstructure:"automod"`
	AutomodExcludedChannels string `mapstructure:"automod_excluded_channels"`
	AutomodBlacklist        string `mapstructure:"automod_blacklist"`
	AutomodBadLinks         string `mapstructure:"automod_bad_links"`
	UniteAutomodBlacklists  bool   `mapstructure:"unite_automod_blacklists"`
	UniteAutomodBadLinks    bool   `mapstructure:"unite_automod_bad_links"`

	ManRoleName       string `mapstructure:"man_role_name"`
	GirlRoleName      string `mapstructure:"girl_role_name"`
	NewMemberRoleName string `mapstructure:"new_member_role_name"`
}

// automod runtime settings: global list files and sweep cadence
type AutomodConfig struct {
	BlacklistFile string        `mapstructure:"blacklist_file"`
	BadLinksFile  string        `mapstructure:"bad_links_file"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

var cfg *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())

	// Unmarshal configuration
	cfg = &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot.token is required")
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		log.Fatal("Configuration not initialized, call Load() first")
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.directory", "logs")
	v.SetDefault("logger.rotation.max_size", 10)
	v.SetDefault("logger.rotation.max_backups", 30)
	v.SetDefault("logger.rotation.max_age", 90)
	v.SetDefault("logger.rotation.compress", true)
	v.SetDefault("logger.time_format", "2006/01/02 15:04:05")
	v.SetDefault("logger.level", "INFO")

	v.SetDefault("database.charset", "utf8mb4")

	v.SetDefault("moderation.log_channel_name", "stan_logs")
	v.SetDefault("moderation.mute_log_channel_name", "mute_stan_log")
	v.SetDefault("moderation.mute_log_channel_use", true)
	v.SetDefault("moderation.muted_role_name", "Muted")
	v.SetDefault("moderation.mute_duration", "5m")
	v.SetDefault("moderation.mute_notice", false)
	v.SetDefault("moderation.warning_log_channel_name", "warn_stan_log")
	v.SetDefault("moderation.warning_log_channel_use", true)
	v.SetDefault("moderation.warning_duration", "30m")
	v.SetDefault("moderation.max_warnings", 3)
	v.SetDefault("moderation.warnings_notice", false)
	v.SetDefault("moderation.ban_log_channel_name", "ban_stan_log")
	v.SetDefault("moderation.ban_log_channel_use", true)
	v.SetDefault("moderation.delete_banned_user_messages", false)
	v.SetDefault("moderation.kick_log_channel_name", "kick_stan_log")
	v.SetDefault("moderation.kick_log_channel_use", true)
	v.SetDefault("moderation.report_log_channel_name", "report_stan_log")
	v.SetDefault("moderation.report_log_channel_use", true)
	v.SetDefault("moderation.clear_log_channel_name", "clear_stan_log")
	v.SetDefault("moderation.clear_log_channel_use", true)
	v.SetDefault("moderation.clear_notice", true)
	v.SetDefault("moderation.language", "eng")
	v.SetDefault("moderation.automod", true)
	v.SetDefault("moderation.automod_excluded_channels", "stan_logs, clear_stan_log")
	v.SetDefault("moderation.automod_blacklist", "fuck")
	v.SetDefault("moderation.automod_bad_links", "azino777cashcazino-slots.ru")
	v.SetDefault("moderation.unite_automod_blacklists", true)
	v.SetDefault("moderation.unite_automod_bad_links", true)
	v.SetDefault("moderation.man_role_name", "♂")
	v.SetDefault("moderation.girl_role_name", "♀")
	v.SetDefault("moderation.new_member_role_name", "NewMember")

	v.SetDefault("automod.blacklist_file", "blacklist.txt")
	v.SetDefault("automod.bad_links_file", "bad_links.txt")
	v.SetDefault("automod.sweep_interval", 2*time.Minute)
}
