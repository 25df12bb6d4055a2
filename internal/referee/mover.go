package referee

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"clocktower/internal/game"
	"clocktower/internal/platform"
)

// MoveReport lists who was moved and who could not be
type MoveReport struct {
	Moved   []string
	Skipped []string
}

func (r MoveReport) String() string {
	return fmt.Sprintf("moved %d of %d players", len(r.Moved), len(r.Moved)+len(r.Skipped))
}

// Mover applies the access and location each phase demands to every player
type Mover struct {
	platform platform.Platform
	session  *game.Session
	log      zerolog.Logger
}

// NewMover creates a mover for one session
func NewMover(p platform.Platform, s *game.Session, log zerolog.Logger) *Mover {
	return &Mover{platform: p, session: s, log: log}
}

// phaseAccess is the role change each phase makes
var phaseAccess = map[game.Phase]Change{
	game.PhaseNight:  {Grant: []Role{RoleNight}, Revoke: []Role{RoleDay, RoleRoam}},
	game.PhaseDawn:   {Grant: []Role{RoleDay}, Revoke: []Role{RoleNight, RoleRoam}},
	game.PhaseMidday: {Grant: []Role{RoleRoam}},
	game.PhaseDusk:   {Revoke: []Role{RoleRoam}},
}

// Apply changes every player's roles and private room access for phase,
// then moves them. extra changes are folded into the same role edit.
//
// A player who cannot be moved is logged and skipped. Role edit failures
// do not stop the batch either; they are returned together at the end.
func (m *Mover) Apply(ctx context.Context, roles RoleSet, phase game.Phase, extra ...Change) (MoveReport, error) {
	change, ok := phaseAccess[phase]
	if !ok {
		return MoveReport{}, fmt.Errorf("%w: phase %d", game.ErrInvalidTime, int(phase))
	}
	changes := append([]Change{change}, extra...)
	rooms := m.session.Rooms()

	var errs []error
	for _, p := range m.session.Players() {
		if err := m.privateRoomAccess(ctx, rooms, p.ID, phase); err != nil {
			errs = append(errs, fmt.Errorf("room access for %s: %w", p.Name, err))
		}
		if err := roles.apply(ctx, m.platform, p.ID, changes...); err != nil {
			m.log.Error().Err(err).Str("user", p.ID).Stringer("phase", phase).Msg("role edit failed")
			errs = append(errs, fmt.Errorf("roles for %s: %w", p.Name, err))
		}
	}

	report := m.Relocate(ctx, phase)
	return report, errors.Join(errs...)
}

// privateRoomAccess opens a player's room to them at night and shuts it at
// dawn. Other phases leave it alone.
func (m *Mover) privateRoomAccess(ctx context.Context, rooms *game.RoomAssignment, userID string, phase game.Phase) error {
	room, ok := rooms.PrivateRoom(userID)
	if !ok {
		return nil
	}
	switch phase {
	case game.PhaseNight:
		return m.platform.SetChannelPermission(ctx, room, platform.MemberOverwrite(userID, platform.PermView|platform.PermConnect, 0))
	case game.PhaseDawn:
		return m.platform.SetChannelPermission(ctx, room, platform.MemberOverwrite(userID, 0, platform.PermView|platform.PermConnect))
	}
	return nil
}

// destination returns where a player belongs during phase
func destination(rooms *game.RoomAssignment, userID string, phase game.Phase) (string, bool) {
	if phase == game.PhaseNight {
		return rooms.PrivateRoom(userID)
	}
	return rooms.TownVoice, rooms.TownVoice != ""
}

// Relocate moves every player to where phase says they belong without
// touching roles. Failures are logged and skipped.
func (m *Mover) Relocate(ctx context.Context, phase game.Phase) MoveReport {
	rooms := m.session.Rooms()
	var report MoveReport
	for _, p := range m.session.Players() {
		dest, ok := destination(rooms, p.ID, phase)
		if !ok {
			report.Skipped = append(report.Skipped, p.ID)
			m.log.Warn().Str("user", p.ID).Stringer("phase", phase).Msg("no destination room")
			continue
		}
		if current, err := m.platform.VoiceChannel(ctx, p.ID); err == nil && current == dest {
			report.Moved = append(report.Moved, p.ID)
			continue
		}
		err := m.platform.MoveMember(ctx, p.ID, dest)
		switch {
		case errors.Is(err, platform.ErrNotConnected):
			report.Skipped = append(report.Skipped, p.ID)
			m.log.Info().Str("user", p.ID).Msg("player not in voice, not moved")
		case err != nil:
			report.Skipped = append(report.Skipped, p.ID)
			m.log.Warn().Err(err).Str("user", p.ID).Msg("move failed")
		default:
			report.Moved = append(report.Moved, p.ID)
		}
	}
	return report
}
