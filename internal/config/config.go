package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DiscordToken string           `yaml:"discord_token"`
	GuildID      string           `yaml:"guild_id"`
	LogLevel     string           `yaml:"log_level"`
	Database     DatabaseConfig   `yaml:"database"`
	Health       HealthConfig     `yaml:"health"`
	Channels     ChannelConfig    `yaml:"channels"`
	Roles        RoleConfig       `yaml:"roles"`
	Economy      EconomyConfig    `yaml:"economy"`
	Moderation   ModerationConfig `yaml:"moderation"`
	OpenAI       OpenAIConfig     `yaml:"openai"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type HealthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type ChannelConfig struct {
	TicketArchive  string `yaml:"ticket_archive"`
	TicketCategory string `yaml:"ticket_category"`
}

type RoleConfig struct {
	Admin   string `yaml:"admin"`
	Mod     string `yaml:"mod"`
	Support string `yaml:"support"`
}

type EconomyConfig struct {
	MessageCoins        float64 `yaml:"message_coins"`
	MessageMinWords     int     `yaml:"message_min_words"`
	MessageXP           int     `yaml:"message_xp"`
	VoiceCoinsPerMinute float64 `yaml:"voice_coins_per_minute"`
	VoiceXPPerMinute    int     `yaml:"voice_xp_per_minute"`
	MilestoneStep       int     `yaml:"milestone_step"`
}

type ModerationConfig struct {
	MaxActiveWarns    int `yaml:"max_active_warns"`
	WarnWindowDays    int `yaml:"warn_window_days"`
	SweepIntervalMins int `yaml:"sweep_interval_minutes"`
}

type OpenAIConfig struct {
	APIKey       string `yaml:"api_key"`
	Model        string `yaml:"model"`
	HistoryTurns int    `yaml:"history_turns"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Database: DatabaseConfig{Driver: "sqlite", DSN: "/data/reque.db"},
		Health:   HealthConfig{Enabled: false, Addr: ":8080"},
		Channels: ChannelConfig{TicketCategory: "TICKETS"},
		Economy: EconomyConfig{
			MessageCoins:        0.05,
			MessageMinWords:     5,
			MessageXP:           1,
			VoiceCoinsPerMinute: 1,
			VoiceXPPerMinute:    5,
			MilestoneStep:       100,
		},
		Moderation: ModerationConfig{
			MaxActiveWarns:    5,
			WarnWindowDays:    7,
			SweepIntervalMins: 60,
		},
		OpenAI: OpenAIConfig{Model: "gpt-3.5-turbo", HistoryTurns: 10},
	}
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)
	if cfg.DiscordToken == "" {
		return Config{}, errors.New("DISCORD_TOKEN is required")
	}
	if cfg.Database.Driver != "sqlite" && cfg.Database.Driver != "postgres" {
		return Config{}, errors.New("database driver must be sqlite or postgres")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DiscordToken = envString("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.GuildID = envString("GUILD_ID", cfg.GuildID)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)
	cfg.Database.Driver = envString("DATABASE_DRIVER", cfg.Database.Driver)
	cfg.Database.DSN = envString("DATABASE_DSN", cfg.Database.DSN)
	cfg.Health.Enabled = envBool("HEALTH_ENABLED", cfg.Health.Enabled)
	cfg.Health.Addr = envString("HEALTH_ADDR", cfg.Health.Addr)
	cfg.Channels.TicketArchive = envString("TICKET_ARCHIVE_CHANNEL", cfg.Channels.TicketArchive)
	cfg.Channels.TicketCategory = envString("TICKET_CATEGORY", cfg.Channels.TicketCategory)
	cfg.Roles.Admin = envString("ADMIN_ROLE_ID", cfg.Roles.Admin)
	cfg.Roles.Mod = envString("MOD_ROLE_ID", cfg.Roles.Mod)
	cfg.Roles.Support = envString("SUPPORT_ROLE_ID", cfg.Roles.Support)
	cfg.Economy.MessageCoins = envFloat("MESSAGE_COINS", cfg.Economy.MessageCoins)
	cfg.Economy.MessageMinWords = envInt("MESSAGE_MIN_WORDS", cfg.Economy.MessageMinWords)
	cfg.Economy.MessageXP = envInt("MESSAGE_XP", cfg.Economy.MessageXP)
	cfg.Economy.VoiceCoinsPerMinute = envFloat("VOICE_COINS_PER_MINUTE", cfg.Economy.VoiceCoinsPerMinute)
	cfg.Economy.VoiceXPPerMinute = envInt("VOICE_XP_PER_MINUTE", cfg.Economy.VoiceXPPerMinute)
	cfg.Economy.MilestoneStep = envInt("MILESTONE_STEP", cfg.Economy.MilestoneStep)
	cfg.Moderation.MaxActiveWarns = envInt("MAX_ACTIVE_WARNS", cfg.Moderation.MaxActiveWarns)
	cfg.Moderation.WarnWindowDays = envInt("WARN_WINDOW_DAYS", cfg.Moderation.WarnWindowDays)
	cfg.Moderation.SweepIntervalMins = envInt("SWEEP_INTERVAL_MINUTES", cfg.Moderation.SweepIntervalMins)
	cfg.OpenAI.APIKey = envString("OPENAI_API_KEY", cfg.OpenAI.APIKey)
	cfg.OpenAI.Model = envString("OPENAI_MODEL", cfg.OpenAI.Model)
	cfg.OpenAI.HistoryTurns = envInt("OPENAI_HISTORY_TURNS", cfg.OpenAI.HistoryTurns)
}

func BuildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lvl := strings.ToLower(level)
	switch lvl {
	case "debug", "info", "warn", "error":
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(lvl))
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func envString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "1" || lower == "true" || lower == "yes"
	}
	return fallback
}
