package pages

import (
	"testing"

	"clocktower/internal/game"
	"clocktower/internal/referee"
	"clocktower/internal/testhelpers"
)

func activeView() GrimoireView {
	dead := *game.NewPlayer("p2", "Bob")
	dead.Kill()
	return GrimoireView{
		GuildID: "g1",
		Snapshot: game.Snapshot{
			Active:      true,
			Clock:       game.PhaseClock{Day: 2, Phase: game.PhaseMidday},
			Storyteller: game.NewPlayer("st", "Sam"),
			Players:     []game.Player{*game.NewPlayer("p1", "Alice"), dead},
		},
		Rooms: []referee.RoomStatus{
			{ID: "r1", Name: "Church", Locked: true, Occupants: 2},
			{ID: "r2", Name: "Bar"},
		},
	}
}

func TestGrimoire(t *testing.T) {
	renderer := testhelpers.NewTemplateRenderer(t)

	t.Run("active game", func(t *testing.T) {
		renderer.Render(Grimoire(activeView())).
			AssertValid().
			AssertHasElementWithID("grimoire").
			AssertContains("day 2, Midday").
			AssertContains("<strong>Sam</strong>").
			AssertContains("Players (2)").
			AssertHasClass("dead").
			AssertContains("dead, ghost vote").
			AssertHasClass("locked").
			AssertElementCount("tr", 3)
	})

	t.Run("idle table", func(t *testing.T) {
		renderer.Render(Grimoire(GrimoireView{GuildID: "g1"})).
			AssertValid().
			AssertContains("No game is running").
			AssertContains("Nobody").
			AssertNotContains(`id="rooms"`)
	})

	t.Run("escapes names", func(t *testing.T) {
		v := GrimoireView{Snapshot: game.Snapshot{Players: []game.Player{*game.NewPlayer("x", "<b>x</b>")}}}
		renderer.Render(Grimoire(v)).
			AssertNotContains("<b>x</b>").
			AssertContains("&lt;b&gt;x&lt;/b&gt;")
	})
}

func TestGrimoirePage(t *testing.T) {
	testhelpers.NewTemplateRenderer(t).
		Render(GrimoirePage(activeView())).
		AssertValid().
		AssertContains("<!doctype html>").
		AssertHasDatastarAttribute("on-load", "@get('/sse/grimoire/g1')").
		AssertHasElementWithID("grimoire")
}
