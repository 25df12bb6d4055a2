package game

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateErrorsAreInvalidTransitions(t *testing.T) {
	errorList := []error{
		ErrGameActive,
		ErrAlreadyActive,
		ErrNotActive,
		ErrChannelsNotReady,
		ErrNoPlayers,
		ErrInvalidTime,
		ErrIsStoryteller,
		ErrNotAPlayer,
		ErrStillAlive,
		ErrGhostVoteSpent,
	}

	for i, err := range errorList {
		assert.ErrorIs(t, err, ErrInvalidTransition, "%v", err)
		for j := i + 1; j < len(errorList); j++ {
			assert.False(t, errors.Is(err, errorList[j]), "%v should not match %v", err, errorList[j])
		}
	}
}

func TestRoleConflictError(t *testing.T) {
	var err error = &RoleConflictError{Members: []string{"alice", "bob"}, Reason: "cannot both be storytellers"}
	wrapped := fmt.Errorf("sync roles: %w", err)

	var conflict *RoleConflictError
	assert.True(t, errors.As(wrapped, &conflict))
	assert.Equal(t, "role conflict: alice and bob cannot both be storytellers", conflict.Error())
	assert.False(t, errors.Is(wrapped, ErrInvalidTransition))
}
