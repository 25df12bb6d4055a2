package handlers

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	datastar "github.com/starfederation/datastar-go/datastar"

	"clocktower/internal/views/pages"
)

// heartbeatInterval keeps idle streams from being closed by browsers
var heartbeatInterval = 30 * time.Second

// StreamGrimoire streams the grimoire fragment each time the table changes
func (h *Handler) StreamGrimoire(w http.ResponseWriter, r *http.Request) {
	guildID := chi.URLParam(r, "guild")
	log := h.log.With().Str("guild", guildID).Logger()

	if _, err := h.store.GetTable(guildID); err != nil {
		http.Error(w, "Table not found", http.StatusNotFound)
		return
	}

	sse := datastar.NewSSE(w, r)

	events := h.bus.Subscribe(guildID)
	defer h.bus.Unsubscribe(guildID, events)
	log.Debug().Msg("grimoire stream opened")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Msg("grimoire stream closed")
			return
		case <-heartbeat.C:
			if err := sse.MarshalAndPatchSignals(map[string]any{"heartbeat": time.Now().Format(time.RFC3339)}); err != nil {
				log.Debug().Err(err).Msg("heartbeat failed, closing stream")
				return
			}
		case event, ok := <-events:
			if !ok {
				return
			}
			v, err := h.view(guildID)
			if err != nil {
				return
			}
			if err := sse.PatchElements(renderToString(pages.Grimoire(v)), datastar.WithSelector("#grimoire")); err != nil {
				log.Debug().Err(err).Str("event", event.Type).Msg("patch failed, closing stream")
				return
			}
		}
	}
}

// renderToString renders a templ component to string
func renderToString(component templ.Component) string {
	buf := &bytes.Buffer{}
	component.Render(context.Background(), buf)
	return buf.String()
}
