package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration using Viper
// Priority order: Environment variables > Config file > Defaults
func LoadConfig(configPath string) (*BotConfig, error) {
	v := viper.New()

	// Set config file details
	v.SetConfigName("bot")
	v.SetConfigType("yaml")

	// Add config paths
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/clocktower")
	}

	// Enable environment variable binding
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind the short env names operators already use
	v.BindEnv("discord.token", "DISCORD_TOKEN")
	v.BindEnv("discord.guildid", "DISCORD_GUILD_ID")
	v.BindEnv("log.file", "LOG_FILE")
	v.BindEnv("log.level", "LOG_LEVEL")
	v.BindEnv("log.format", "LOG_FORMAT")
	v.BindEnv("flavor.file", "FLAVOR_FILE")
	v.BindEnv("http.port", "PORT")
	v.BindEnv("http.host", "HOST")

	d := DefaultConfig()
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.guildid", "")
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("flavor.file", "")

	v.SetDefault("game.lockcooldown", d.Game.LockCooldown.String())
	v.SetDefault("game.opencooldown", d.Game.OpenCooldown.String())
	v.SetDefault("game.publicrooms", d.Game.PublicRooms)
	v.SetDefault("game.commandrate", d.Game.CommandRate)
	v.SetDefault("game.commandburst", d.Game.CommandBurst)

	v.SetDefault("http.host", d.HTTP.Host)
	v.SetDefault("http.port", "")
	v.SetDefault("http.readtimeout", d.HTTP.ReadTimeout.String())
	v.SetDefault("http.shutdowntimeout", d.HTTP.ShutdownTimeout.String())
	v.SetDefault("http.ratelimit", d.HTTP.RateLimit)
	v.SetDefault("http.ratelimitburst", d.HTTP.RateLimitBurst)
	v.SetDefault("http.maxrequestsize", d.HTTP.MaxRequestSize)

	// Try to read config file (it's optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; continue with env vars and defaults
	}

	cfg := &BotConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
