package config

import "testing"

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")
	t.Setenv("DISCORD_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error without token")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("GUILD_ID", "g1")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "postgres://localhost/reque")
	t.Setenv("MAX_ACTIVE_WARNS", "3")
	t.Setenv("MILESTONE_STEP", "250")
	t.Setenv("MESSAGE_COINS", "0.1")
	t.Setenv("VOICE_COINS_PER_MINUTE", "2.5")
	t.Setenv("OPENAI_MODEL", "gpt-4")
	t.Setenv("HEALTH_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DiscordToken != "tok" || cfg.GuildID != "g1" {
		t.Fatalf("token/guild overrides not applied: %+v", cfg)
	}
	if cfg.Database.Driver != "postgres" || cfg.Database.DSN != "postgres://localhost/reque" {
		t.Fatalf("database overrides not applied: %+v", cfg.Database)
	}
	if cfg.Moderation.MaxActiveWarns != 3 {
		t.Fatalf("expected 3 max warns, got %d", cfg.Moderation.MaxActiveWarns)
	}
	if cfg.Economy.MilestoneStep != 250 {
		t.Fatalf("expected milestone step 250, got %d", cfg.Economy.MilestoneStep)
	}
	if cfg.Economy.MessageCoins != 0.1 {
		t.Fatalf("expected message coins 0.1, got %f", cfg.Economy.MessageCoins)
	}
	if cfg.Economy.VoiceCoinsPerMinute != 2.5 {
		t.Fatalf("expected voice coins 2.5, got %f", cfg.Economy.VoiceCoinsPerMinute)
	}
	if cfg.OpenAI.Model != "gpt-4" {
		t.Fatalf("expected model override, got %q", cfg.OpenAI.Model)
	}
	if !cfg.Health.Enabled {
		t.Fatalf("expected health enabled")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("DATABASE_DRIVER", "mysql")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")
	t.Setenv("DISCORD_TOKEN", "tok")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Economy.MessageCoins != 0.05 || cfg.Economy.MessageMinWords != 5 {
		t.Fatalf("unexpected economy defaults: %+v", cfg.Economy)
	}
	if cfg.Moderation.MaxActiveWarns != 5 || cfg.Moderation.WarnWindowDays != 7 {
		t.Fatalf("unexpected moderation defaults: %+v", cfg.Moderation)
	}
	if cfg.OpenAI.Model != "gpt-3.5-turbo" || cfg.OpenAI.HistoryTurns != 10 {
		t.Fatalf("unexpected openai defaults: %+v", cfg.OpenAI)
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("debug").String() != "debug" {
		t.Fatalf("debug mapping broken")
	}
	if parseLevel("bogus").String() != "info" {
		t.Fatalf("unknown levels fall back to info")
	}
}
