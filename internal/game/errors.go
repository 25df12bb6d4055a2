package game

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTransition is the parent of every rejected state change.
var ErrInvalidTransition = errors.New("invalid state transition")

var (
	ErrGameActive       = fmt.Errorf("%w: cannot change the roster during an active game", ErrInvalidTransition)
	ErrAlreadyActive    = fmt.Errorf("%w: a game is already running", ErrInvalidTransition)
	ErrNotActive        = fmt.Errorf("%w: there is no active game", ErrInvalidTransition)
	ErrChannelsNotReady = fmt.Errorf("%w: channels have not been set up", ErrInvalidTransition)
	ErrNoPlayers        = fmt.Errorf("%w: no players have been added", ErrInvalidTransition)
	ErrInvalidTime      = fmt.Errorf("%w: invalid day or phase", ErrInvalidTransition)
	ErrIsStoryteller    = fmt.Errorf("%w: the storyteller cannot be a player", ErrInvalidTransition)
	ErrNotAPlayer       = fmt.Errorf("%w: not listed as a player", ErrInvalidTransition)
	ErrStillAlive       = fmt.Errorf("%w: living players have no ghost vote", ErrInvalidTransition)
	ErrGhostVoteSpent   = fmt.Errorf("%w: ghost vote already spent", ErrInvalidTransition)
)

// RoleConflictError reports an ambiguous storyteller/player marking found
// while rebuilding the roster from external roles.
type RoleConflictError struct {
	Members []string
	Reason  string
}

func (e *RoleConflictError) Error() string {
	return fmt.Sprintf("role conflict: %s %s", strings.Join(e.Members, " and "), e.Reason)
}
