// Package pages renders the read-only grimoire status page.
package pages

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"clocktower/internal/game"
	"clocktower/internal/referee"
	"clocktower/internal/views/layouts"
)

// GrimoireView is everything the page shows for one guild
type GrimoireView struct {
	GuildID  string
	Snapshot game.Snapshot
	Rooms    []referee.RoomStatus
}

// GrimoirePage is the full page. It opens an SSE stream that replaces
// #grimoire whenever the table changes.
func GrimoirePage(v GrimoireView) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		stream := "/sse/grimoire/" + templ.EscapeString(v.GuildID)
		if _, err := fmt.Fprintf(w, `<div data-on-load="@get('%s')"></div>`, stream); err != nil {
			return err
		}
		return Grimoire(v).Render(ctx, w)
	})
	return layouts.Base("Grimoire", body)
}

// Grimoire renders the #grimoire fragment
func Grimoire(v GrimoireView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		snap := v.Snapshot
		esc := templ.EscapeString

		b.WriteString(`<section id="grimoire"><h1>Blood on the Clocktower</h1>`)
		if snap.Active {
			fmt.Fprintf(&b, `<p id="clock">%s</p>`, esc(snap.Clock.String()))
		} else {
			b.WriteString(`<p id="clock">No game is running</p>`)
		}

		storyteller := "Nobody"
		if snap.Storyteller != nil {
			storyteller = snap.Storyteller.Name
		}
		fmt.Fprintf(&b, `<p>Storyteller: <strong>%s</strong></p>`, esc(storyteller))

		fmt.Fprintf(&b, `<h2>Players (%d)</h2><ol id="players">`, len(snap.Players))
		for _, p := range snap.Players {
			class, status := "alive", "alive"
			if !p.Alive {
				class, status = "dead", "dead"
				if p.GhostVote {
					status = "dead, ghost vote"
				}
			}
			fmt.Fprintf(&b, `<li class="%s">%s <small>(%s)</small></li>`, class, esc(p.Name), status)
		}
		b.WriteString(`</ol>`)

		if len(v.Rooms) > 0 {
			b.WriteString(`<h2>Rooms</h2><table id="rooms"><tr><th>Room</th><th>Door</th><th>Inside</th></tr>`)
			for _, r := range v.Rooms {
				door, class := "open", ""
				if r.Locked {
					door, class = "locked", ` class="locked"`
				}
				fmt.Fprintf(&b, `<tr%s><td>%s</td><td>%s</td><td>%d</td></tr>`, class, esc(r.Name), door, r.Occupants)
			}
			b.WriteString(`</table>`)
		}
		b.WriteString(`</section>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}
