package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clocktower/internal/views/pages"
)

// PlayerStatus is one seat in the status document
type PlayerStatus struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Alive     bool   `json:"alive"`
	GhostVote bool   `json:"ghostVote"`
}

// RoomStatus is one public room in the status document
type RoomStatus struct {
	Name      string `json:"name"`
	Locked    bool   `json:"locked"`
	Occupants int    `json:"occupants"`
}

// TableStatus is the JSON view of a guild's table
type TableStatus struct {
	GuildID       string         `json:"guildId"`
	GameID        string         `json:"gameId,omitempty"`
	Active        bool           `json:"active"`
	ChannelsReady bool           `json:"channelsReady"`
	Day           int            `json:"day"`
	Phase         string         `json:"phase"`
	Storyteller   string         `json:"storyteller,omitempty"`
	Players       []PlayerStatus `json:"players"`
	Rooms         []RoomStatus   `json:"rooms"`
}

func tableStatus(v pages.GrimoireView) TableStatus {
	snap := v.Snapshot
	out := TableStatus{
		GuildID:       v.GuildID,
		GameID:        snap.GameID,
		Active:        snap.Active,
		ChannelsReady: snap.ChannelsReady,
		Day:           snap.Clock.Day,
		Phase:         snap.Clock.Phase.String(),
		Players:       make([]PlayerStatus, 0, len(snap.Players)),
		Rooms:         make([]RoomStatus, 0, len(v.Rooms)),
	}
	if snap.Storyteller != nil {
		out.Storyteller = snap.Storyteller.Name
	}
	for _, p := range snap.Players {
		out.Players = append(out.Players, PlayerStatus{ID: p.ID, Name: p.Name, Alive: p.Alive, GhostVote: p.GhostVote})
	}
	for _, r := range v.Rooms {
		out.Rooms = append(out.Rooms, RoomStatus{Name: r.Name, Locked: r.Locked, Occupants: r.Occupants})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Status returns one guild's table as JSON
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guild")
	v, err := h.view(guildID)
	if err != nil {
		http.Error(w, "Table not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tableStatus(v))
}

// ListStatus returns every known table as JSON
func (h *Handler) ListStatus(w http.ResponseWriter, r *http.Request) {
	out := make([]TableStatus, 0)
	for _, table := range h.store.ListTables() {
		v, err := h.view(table.GuildID)
		if err != nil {
			continue
		}
		out = append(out, tableStatus(v))
	}
	writeJSON(w, http.StatusOK, out)
}

// GrimoirePage renders the live status page for a guild
func (h *Handler) GrimoirePage(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guild")
	v, err := h.view(guildID)
	if err != nil {
		http.Error(w, "Table not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.GrimoirePage(v).Render(r.Context(), w); err != nil {
		h.log.Error().Err(err).Str("guild", guildID).Msg("rendering grimoire")
	}
}
