package commands

import (
	"errors"
	"strings"

	"clocktower/internal/game"
	"clocktower/internal/referee"
)

const replyUnknown = "Something went wrong"

var replies = []struct {
	err   error
	reply string
}{
	{referee.ErrBusy, "Currently processing another command, please wait"},
	{ErrPermissionDenied, "You do not have permission to use this command"},
	{ErrRateLimited, "You are sending commands too quickly, slow down"},
	{ErrNoGuild, "This command only works in a server"},
	{ErrUnknownCommand, "Unknown command"},
	{ErrMissingOption, "A required option is missing"},
	{referee.ErrRolesMissing, "Bot roles are missing, run /setup_roles first"},
	{referee.ErrIncomplete, "Some players could not be updated, try /retry_player_movement"},
	{referee.ErrNotInVoice, "You are not in a voice channel"},
	{referee.ErrNotPublicRoom, "Doors only work in the public rooms"},
	{referee.ErrRoomEmpty, "Nobody is in that room"},
	{game.ErrGameActive, "You cannot change the roster during an active game"},
	{game.ErrAlreadyActive, "A game is already running, end it before starting a new one"},
	{game.ErrNotActive, "Requires a game to be running"},
	{game.ErrChannelsNotReady, "Channels have not been set up yet, run /setup_channels first"},
	{game.ErrNoPlayers, "Cannot set up channels with no added players"},
	{game.ErrInvalidTime, "That is not a valid day or phase"},
	{game.ErrIsStoryteller, "You cannot make the storyteller a player"},
	{game.ErrNotAPlayer, "That member is not listed as a player"},
	{game.ErrStillAlive, "Living players have no ghost vote to spend"},
	{game.ErrGhostVoteSpent, "That ghost vote has already been used"},
}

// replyFor maps an error to the message shown to the caller
func replyFor(err error) string {
	var conflict *game.RoleConflictError
	if errors.As(err, &conflict) {
		return strings.Join(conflict.Members, " and ") + " " + conflict.Reason
	}
	for _, r := range replies {
		if errors.Is(err, r.err) {
			return r.reply
		}
	}
	return replyUnknown
}
