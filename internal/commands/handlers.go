package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clocktower/internal/game"
	"clocktower/internal/referee"
)

func mention(userID string) string {
	return "<@" + userID + ">"
}

// failed reports whether err stopped the command from taking effect
func failed(err error) bool {
	return err != nil && !errors.Is(err, referee.ErrIncomplete)
}

func (r *Router) ping(ctx context.Context, t *referee.Table, req Request) (Response, error) {
	if r.latency == nil {
		return Response{Content: "Pong!"}, nil
	}
	return Response{Content: fmt.Sprintf("Pong! Latency is %s", r.latency())}, nil
}

func showGame(ctx context.Context, t *referee.Table, req Request) (Response, error) {
	embed := t.ShowGame()
	return Response{Embed: &embed}, nil
}

func setupRoles(ctx context.Context, t *referee.Table, req Request) (Response, error) {
	created, err := t.SetupRoles(ctx)
	if err != nil {
		return Response{}, err
	}
	if len(created) == 0 {
		return Response{Content: "All roles already exist"}, nil
	}
	return Response{Content: "Initialised roles: " + strings.Join(created, ", ")}, nil
}

func setStoryteller(ctx context.Context, t *referee.Table, req Request) (Response, error) {
	id, err := req.member()
	if err != nil {
		return Response{}, err
	}
	if _, err := t.SetStoryteller(ctx, id); err != nil {
		return Response{}, err
	}
	return Response{Content: mention(id) + " is now the storyteller"}, nil
}

func addPlayer(ctx context.Context, t *referee.Table, req Request) (Response, error) {
	id, err := req.member()
	if err != nil {
		return Response{}, err
	}
	_, added, err := t.AddPlayer(ctx, id)
	if err != nil {
		return Response{}, err
	}
	if !added {
		return Response{Content: mention(id) + " is already playing"}, nil
	}
	return Response{Content: "Added player: " + mention(id) + " to the game"}, nil
}

func removePlayer(ctx context.Context, t *referee.Table, req Request) (Response, error) {
	id, err := req.member()
	if err != nil {
		return Response{}, err
	}
	removed, err := t.RemovePlayer(ctx, id)
	if err != nil {
		return Response{}, err
	}
	if !removed {
		return Response{Content: mention(id) + " was not playing"}, nil
	}
	return Response{Content: "Removed player: " + mention(id)}, nil
}

func syncRoles(ctx context.Context, t *referee.Table, req Request) (Response, error) {
	snap, err := t.SyncRoles(ctx)
	if err != nil {
		return Response{}, err
	}
	return Response{Content: fmt.Sprintf("Synced member roles to the bot successfully: %d players", len(snap.Players))}, nil
}

func setupChannels(ctx context.Context, t *referee.Table, req Request) (Response, error) {
	rooms, err := t.SetupChannels(ctx)
	if err != nil {
		return Response{}, err
	}
	return Response{Content: fmt.Sprintf("Created %d private rooms and %d public rooms",
		rooms.PrivateRoomCount(), len(rooms.PublicRooms))}, nil
}

func startGame(ctx context.Context, t *referee.Table, req Request) (Response, error) {
	report, err := t.StartGame(ctx)
	if failed(err) {
		return Response{}, err
	}
	return Response{Content: "The game has started, " + report.String()}, err
}

func endGame(ctx context.Context, t *referee.Table, req Request) (Response, error) {
	err := t.EndGame(ctx, req.str(optReason))
	if failed(err) {
		return Response{}, err
	}
	return Response{Content: "The game has been ended!"}, err
}

func advancePhase(ctx context.Context, t *referee.Table, req Request) (Response, error) {
	var phase *game.Phase
	if v, ok := req.integer(optTime); ok {
		p := game.Phase(v)
		phase = &p
	}
	var day *int
	if v, ok := req.integer(optDay); ok {
		day = &v
	}

	clock, report, err := t.AdvancePhase(ctx, phase, day)
	if failed(err) {
		return Response{}, err
	}
	return Response{Content: fmt.Sprintf("Advanced to %s, %s", clock, report)}, err
}

func retryMovement(ctx context.Context, t *referee.Table, req Request) (Response, error) {
	report, err := t.RetryMovement(ctx)
	if err != nil {
		return Response{}, err
	}
	return Response{Content: "Attempted to move players to the appropriate channel, " + report.String()}, nil
}

func killPlayer(ctx context.Context, t *referee.Table, req Request) (Response, error) {
	id, err := req.member()
	if err != nil {
		return Response{}, err
	}
	_, err = t.KillPlayer(ctx, id, req.str(optReason))
	if failed(err) {
		return Response{}, err
	}
	return Response{Content: "Killed player: " + mention(id)}, err
}

func resurrectPlayer(ctx context.Context, t *referee.Table, req Request) (Response, error) {
	id, err := req.member()
	if err != nil {
		return Response{}, err
	}
	_, err = t.ResurrectPlayer(ctx, id)
	if failed(err) {
		return Response{}, err
	}
	return Response{Content: "Resurrected player: " + mention(id)}, err
}

func spendGhostVote(ctx context.Context, t *referee.Table, req Request) (Response, error) {
	id, err := req.member()
	if err != nil {
		return Response{}, err
	}
	if _, err := t.SpendGhostVote(ctx, id); err != nil {
		return Response{}, err
	}
	return Response{Content: mention(id) + " has used their ghost vote"}, nil
}

func openDoor(ctx context.Context, t *referee.Table, req Request) (Response, error) {
	room, err := t.OpenDoor(ctx, req.UserID)
	if err != nil {
		return Response{}, err
	}
	return Response{Content: "Opened the door to " + room}, nil
}

func lockDoor(ctx context.Context, t *referee.Table, req Request) (Response, error) {
	room, err := t.LockDoor(ctx, req.UserID)
	if err != nil {
		return Response{}, err
	}
	return Response{Content: "Locked " + room}, nil
}
