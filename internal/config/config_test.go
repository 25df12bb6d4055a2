package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Run("RequiresToken", func(t *testing.T) {
		t.Setenv("DISCORD_TOKEN", "")
		_, err := LoadConfig("nonexistent.yaml")
		if err == nil {
			t.Fatal("expected error without a token")
		}
		if !strings.Contains(err.Error(), "DISCORD_TOKEN") {
			t.Errorf("expected token error, got %v", err)
		}
	})

	t.Run("LoadDefaultWhenMissing", func(t *testing.T) {
		t.Setenv("DISCORD_TOKEN", "secret")
		config, err := LoadConfig("nonexistent.yaml")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config.Discord.Token != "secret" {
			t.Errorf("expected token from env, got %q", config.Discord.Token)
		}
		if config.Game.LockCooldown != 8*time.Second {
			t.Errorf("expected LockCooldown 8s, got %v", config.Game.LockCooldown)
		}
		if config.Game.OpenCooldown != 5*time.Second {
			t.Errorf("expected OpenCooldown 5s, got %v", config.Game.OpenCooldown)
		}
		if len(config.Game.PublicRooms) != 8 {
			t.Errorf("expected 8 public rooms, got %d", len(config.Game.PublicRooms))
		}
		if config.Log.File != "discord.log" {
			t.Errorf("expected log file discord.log, got %q", config.Log.File)
		}
		if config.HTTP.Enabled() {
			t.Error("status server should be off by default")
		}
	})

	t.Run("LoadFromYAML", func(t *testing.T) {
		t.Setenv("DISCORD_TOKEN", "secret")
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "bot.yaml")

		yamlContent := `
discord:
  guildId: "1234"
log:
  level: debug
  format: json
game:
  lockCooldown: 3s
  publicRooms: [Tavern, Mill]
http:
  port: "8080"
`
		if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Discord.GuildID != "1234" {
			t.Errorf("expected guild 1234, got %q", config.Discord.GuildID)
		}
		if config.Game.LockCooldown != 3*time.Second {
			t.Errorf("expected LockCooldown 3s, got %v", config.Game.LockCooldown)
		}
		if config.Game.OpenCooldown != 5*time.Second {
			t.Errorf("expected default OpenCooldown, got %v", config.Game.OpenCooldown)
		}
		if len(config.Game.PublicRooms) != 2 || config.Game.PublicRooms[0] != "Tavern" {
			t.Errorf("unexpected public rooms %v", config.Game.PublicRooms)
		}
		if config.Log.Format != "json" {
			t.Errorf("expected json log format, got %q", config.Log.Format)
		}
		if config.HTTP.Addr() != "127.0.0.1:8080" {
			t.Errorf("unexpected http addr %q", config.HTTP.Addr())
		}
	})

	t.Run("EnvOverridesFile", func(t *testing.T) {
		t.Setenv("DISCORD_TOKEN", "secret")
		t.Setenv("LOG_LEVEL", "warn")
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "bot.yaml")
		if err := os.WriteFile(configPath, []byte("log:\n  level: debug\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if config.Log.Level != "warn" {
			t.Errorf("expected env log level warn, got %q", config.Log.Level)
		}
	})

	t.Run("BrokenYAML", func(t *testing.T) {
		t.Setenv("DISCORD_TOKEN", "secret")
		configPath := filepath.Join(t.TempDir(), "bot.yaml")
		if err := os.WriteFile(configPath, []byte("game: [unclosed"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfig(configPath); err == nil {
			t.Fatal("expected a parse error")
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *BotConfig {
		c := DefaultConfig()
		c.Discord.Token = "secret"
		return c
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("default config with token should be valid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *BotConfig)
	}{
		{"no token", func(c *BotConfig) { c.Discord.Token = "" }},
		{"bad level", func(c *BotConfig) { c.Log.Level = "loud" }},
		{"bad format", func(c *BotConfig) { c.Log.Format = "xml" }},
		{"zero lock cooldown", func(c *BotConfig) { c.Game.LockCooldown = 0 }},
		{"negative open cooldown", func(c *BotConfig) { c.Game.OpenCooldown = -time.Second }},
		{"no public rooms", func(c *BotConfig) { c.Game.PublicRooms = nil }},
		{"duplicate room", func(c *BotConfig) { c.Game.PublicRooms = []string{"Bar", "Bar"} }},
		{"blank room", func(c *BotConfig) { c.Game.PublicRooms = []string{""} }},
		{"zero command burst", func(c *BotConfig) { c.Game.CommandBurst = 0 }},
		{"http without rate", func(c *BotConfig) { c.HTTP.Port = "8080"; c.HTTP.RateLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
