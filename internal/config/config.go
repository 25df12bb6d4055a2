package config

import (
	"fmt"
	"strings"
	"time"

	"clocktower/internal/game"
)

// This file defines the configuration structures used by viper_config.go
// The actual loading is handled by viper in viper_config.go

// BotConfig represents the bot configuration
type BotConfig struct {
	Discord DiscordSettings `yaml:"discord"`
	Log     LogSettings     `yaml:"log"`
	Flavor  FlavorSettings  `yaml:"flavor"`
	Game    GameSettings    `yaml:"game"`
	HTTP    HTTPSettings    `yaml:"http"`
}

// DiscordSettings holds the connection to Discord
type DiscordSettings struct {
	Token string `yaml:"token"`
	// GuildID scopes slash commands to one server; empty registers them globally
	GuildID string `yaml:"guildId"`
}

// LogSettings controls zerolog output
type LogSettings struct {
	File   string `yaml:"file"`
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// FlavorSettings points at an announcement catalog
type FlavorSettings struct {
	File string `yaml:"file"` // empty uses the embedded default
}

// GameSettings tunes the referee
type GameSettings struct {
	LockCooldown time.Duration `yaml:"lockCooldown"`
	OpenCooldown time.Duration `yaml:"openCooldown"`
	PublicRooms  []string      `yaml:"publicRooms"`

	// Per-user slash command throttle (using golang.org/x/time/rate)
	CommandRate  float64 `yaml:"commandRate"`
	CommandBurst int     `yaml:"commandBurst"`
}

// HTTPSettings configures the optional status server
type HTTPSettings struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"` // empty disables the server
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RateLimit       float64       `yaml:"rateLimit"`
	RateLimitBurst  int           `yaml:"rateLimitBurst"`
	MaxRequestSize  int64         `yaml:"maxRequestSize"`
}

// Enabled reports whether the status server should run
func (h HTTPSettings) Enabled() bool {
	return h.Port != ""
}

// Addr returns host:port
func (h HTTPSettings) Addr() string {
	return h.Host + ":" + h.Port
}

// DefaultConfig returns a default configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		Log: LogSettings{
			File:   "discord.log",
			Level:  "info",
			Format: "console",
		},
		Game: GameSettings{
			LockCooldown: 8 * time.Second,
			OpenCooldown: 5 * time.Second,
			PublicRooms:  append([]string(nil), game.DefaultPublicRooms...),
			CommandRate:  1,
			CommandBurst: 5,
		},
		HTTP: HTTPSettings{
			Host:            "127.0.0.1",
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       10,
			RateLimitBurst:  20,
			MaxRequestSize:  1 << 20,
		},
	}
}

var logLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}

// Validate checks if the configuration is valid
func (c *BotConfig) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("DISCORD_TOKEN environment variable must be set")
	}

	valid := false
	for _, l := range logLevels {
		if strings.EqualFold(c.Log.Level, l) {
			valid = true
		}
	}
	if !valid {
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		return fmt.Errorf("log format must be console or json, got %q", c.Log.Format)
	}

	if c.Game.LockCooldown <= 0 {
		return fmt.Errorf("lockCooldown must be positive")
	}
	if c.Game.OpenCooldown <= 0 {
		return fmt.Errorf("openCooldown must be positive")
	}
	if len(c.Game.PublicRooms) == 0 {
		return fmt.Errorf("at least one public room must be configured")
	}
	seen := make(map[string]bool)
	for _, room := range c.Game.PublicRooms {
		if room == "" {
			return fmt.Errorf("public room names cannot be empty")
		}
		if seen[room] {
			return fmt.Errorf("duplicate public room %q", room)
		}
		seen[room] = true
	}
	if c.Game.CommandRate <= 0 || c.Game.CommandBurst < 1 {
		return fmt.Errorf("commandRate and commandBurst must be positive")
	}

	if c.HTTP.Enabled() && (c.HTTP.RateLimit <= 0 || c.HTTP.RateLimitBurst < 1) {
		return fmt.Errorf("http rateLimit and rateLimitBurst must be positive")
	}

	return nil
}
