package handlers

import (
	"github.com/rs/zerolog"

	"clocktower/internal/events"
	"clocktower/internal/store"
	"clocktower/internal/views/pages"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store *store.MemoryStore
	bus   *events.Bus
	ready func() bool
	log   zerolog.Logger
}

// New creates a new handler. ready reports whether the bot is connected to
// Discord; nil means always ready.
func New(store *store.MemoryStore, bus *events.Bus, ready func() bool, log zerolog.Logger) *Handler {
	if ready == nil {
		ready = func() bool { return true }
	}
	return &Handler{
		store: store,
		bus:   bus,
		ready: ready,
		log:   log,
	}
}

// Store returns the handler's store (for testing)
func (h *Handler) Store() *store.MemoryStore {
	return h.store
}

// view collects the current grimoire for a guild
func (h *Handler) view(guildID string) (pages.GrimoireView, error) {
	table, err := h.store.GetTable(guildID)
	if err != nil {
		return pages.GrimoireView{}, err
	}
	return pages.GrimoireView{
		GuildID:  guildID,
		Snapshot: table.Session().Snapshot(),
		Rooms:    table.RoomStatuses(),
	}, nil
}
