package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"clocktower"
	"clocktower/internal/commands"
	"clocktower/internal/config"
	"clocktower/internal/events"
	"clocktower/internal/flavor"
	"clocktower/internal/handlers"
	"clocktower/internal/platform/discord"
	"clocktower/internal/referee"
	"clocktower/internal/store"
)

const intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates | discordgo.IntentsGuildMembers

// loadFlavor reads the configured catalog or falls back to the embedded one
func loadFlavor(path string) (*flavor.Catalog, error) {
	if path == "" {
		return flavor.Parse(clocktower.DefaultFlavorYAML, "yaml")
	}
	return flavor.Load(path)
}

// newStore creates tables on demand, one per guild, all sharing the session
func newStore(cfg *config.BotConfig, s *discordgo.Session, catalog *flavor.Catalog, bus *events.Bus) *store.MemoryStore {
	return store.NewMemoryStore(func(guildID string) *referee.Table {
		return referee.NewTable(guildID, discord.NewGuild(s, guildID), referee.Options{
			LockCooldown: cfg.Game.LockCooldown,
			OpenCooldown: cfg.Game.OpenCooldown,
			PublicRooms:  cfg.Game.PublicRooms,
			Flavor:       catalog,
			Events:       bus,
			Logger:       log.Logger,
		})
	})
}

// newStatusServer builds the optional HTTP status server
func newStatusServer(cfg config.HTTPSettings, h *handlers.Handler) *http.Server {
	return &http.Server{
		Addr:        cfg.Addr(),
		Handler:     handlers.SetupRouter(h, cfg, nil),
		ReadTimeout: cfg.ReadTimeout,
		// no write timeout: the grimoire stream stays open
	}
}

// run connects to Discord and serves until ctx is cancelled
func run(ctx context.Context, cfg *config.BotConfig) error {
	catalog, err := loadFlavor(cfg.Flavor.File)
	if err != nil {
		return fmt.Errorf("loading flavor text: %w", err)
	}

	s, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("creating discord session: %w", err)
	}
	s.Identify.Intents = intents

	bus := events.NewBus()
	tables := newStore(cfg, s, catalog, bus)
	router := commands.NewRouter(tables, commands.Options{
		Flavor:       catalog,
		CommandRate:  cfg.Game.CommandRate,
		CommandBurst: cfg.Game.CommandBurst,
		Latency:      s.HeartbeatLatency,
		Logger:       log.Logger,
	})

	var connected atomic.Bool
	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		connected.Store(true)
		log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("connected to discord")
	})
	s.AddHandler(func(s *discordgo.Session, d *discordgo.Disconnect) {
		connected.Store(false)
		log.Warn().Msg("disconnected from discord")
	})
	s.AddHandler(router.OnInteraction)
	s.AddHandler(router.OnVoiceStateUpdate)

	if err := s.Open(); err != nil {
		return fmt.Errorf("opening discord connection: %w", err)
	}
	defer s.Close()

	defs, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, cfg.Discord.GuildID, router.Definitions())
	if err != nil {
		return fmt.Errorf("registering commands: %w", err)
	}
	log.Info().Int("commands", len(defs)).Str("scope", cfg.Discord.GuildID).Msg("commands registered")

	var server *http.Server
	serverErr := make(chan error, 1)
	if cfg.HTTP.Enabled() {
		h := handlers.New(tables, bus, connected.Load, log.Logger)
		server = newStatusServer(cfg.HTTP, h)
		go func() {
			log.Info().Str("addr", server.Addr).Msg("starting status server")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serverErr:
		return fmt.Errorf("status server: %w", err)
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("status server forced to shutdown")
		}
	}
	return nil
}
