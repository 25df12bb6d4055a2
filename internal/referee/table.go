package referee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"clocktower/internal/events"
	"clocktower/internal/flavor"
	"clocktower/internal/game"
	"clocktower/internal/platform"
)

// ErrIncomplete wraps failures that left some players un-updated after the
// command itself took effect
var ErrIncomplete = errors.New("done, but some players could not be updated")

// Options configures a Table
type Options struct {
	LockCooldown time.Duration
	OpenCooldown time.Duration
	PublicRooms  []string
	Flavor       *flavor.Catalog
	Events       *events.Bus
	Logger       zerolog.Logger

	// After replaces time.After for door timers
	After func(time.Duration) <-chan time.Time
}

// RoomStatus describes one public room for status displays
type RoomStatus struct {
	ID        string
	Name      string
	Locked    bool
	Whitelist []string
	Occupants int
}

// Table is one guild's game: the session plus everything that acts on the
// server for it. Commands that change the game run one at a time through
// the gate; voice updates and doors go through the reactor instead.
type Table struct {
	GuildID   string
	CreatedAt time.Time

	platform    platform.Platform
	session     *game.Session
	gate        Gate
	reactor     *Reactor
	mover       *Mover
	flavor      *flavor.Catalog
	events      *events.Bus
	publicRooms []string
	log         zerolog.Logger

	namesMu   sync.RWMutex
	roomNames map[string]string
}

// NewTable creates an idle table for a guild
func NewTable(guildID string, p platform.Platform, opts Options) *Table {
	session := game.NewSession()
	log := opts.Logger.With().Str("guild", guildID).Logger()
	publicRooms := opts.PublicRooms
	if len(publicRooms) == 0 {
		publicRooms = game.DefaultPublicRooms
	}

	t := &Table{
		GuildID:     guildID,
		CreatedAt:   time.Now(),
		platform:    p,
		session:     session,
		reactor:     NewReactor(p, session, log, opts.LockCooldown, opts.OpenCooldown),
		mover:       NewMover(p, session, log),
		flavor:      opts.Flavor,
		events:      opts.Events,
		publicRooms: publicRooms,
		roomNames:   make(map[string]string),
		log:         log,
	}
	if opts.After != nil {
		t.reactor.after = opts.After
	}
	return t
}

// Session exposes the game state for read-only callers
func (t *Table) Session() *game.Session {
	return t.session
}

func (t *Table) publish(kind string, data any) {
	t.events.Publish(events.Event{Type: kind, GuildID: t.GuildID, Data: data})
}

// announce posts to the town record. A failed post is logged, never fatal.
func (t *Table) announce(ctx context.Context, rooms *game.RoomAssignment, text string) {
	if rooms.TownText == "" {
		t.log.Warn().Str("text", text).Msg("no town record to announce to")
		return
	}
	if err := t.platform.SendMessage(ctx, rooms.TownText, platform.Message{Content: text}); err != nil {
		t.log.Error().Err(err).Msg("announcement failed")
	}
}

func (t *Table) roles(ctx context.Context, required ...Role) (RoleSet, error) {
	roles, err := FetchRoles(ctx, t.platform)
	if err != nil {
		return nil, fmt.Errorf("fetching roles: %w", err)
	}
	if err := roles.Require(required...); err != nil {
		return nil, err
	}
	return roles, nil
}

func incomplete(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrIncomplete, err)
}

// ManagedRoles reads the bot's roles from the server without taking the gate
func (t *Table) ManagedRoles(ctx context.Context) (RoleSet, error) {
	return FetchRoles(ctx, t.platform)
}

// SetupRoles creates the managed roles the server lacks
func (t *Table) SetupRoles(ctx context.Context) ([]string, error) {
	var created []string
	err := t.gate.Run(ctx, func(ctx context.Context) error {
		var err error
		created, err = EnsureRoles(ctx, t.platform)
		return err
	})
	return created, err
}

// SetStoryteller hands the storyteller role to userID, unseating them
// first if they were a player.
func (t *Table) SetStoryteller(ctx context.Context, userID string) (game.Player, error) {
	var out game.Player
	err := t.gate.Run(ctx, func(ctx context.Context) error {
		if t.session.Active() {
			return game.ErrGameActive
		}
		roles, err := t.roles(ctx, RoleStoryteller, RolePlayer)
		if err != nil {
			return err
		}
		member, err := t.platform.Member(ctx, userID)
		if err != nil {
			return fmt.Errorf("fetching member: %w", err)
		}
		if prev := t.session.Storyteller(); prev != nil && prev.ID != userID {
			if err := roles.apply(ctx, t.platform, prev.ID, Change{Revoke: []Role{RoleStoryteller}}); err != nil {
				return fmt.Errorf("removing previous storyteller: %w", err)
			}
		}
		if err := roles.apply(ctx, t.platform, userID, Change{Grant: []Role{RoleStoryteller}, Revoke: []Role{RolePlayer}}); err != nil {
			return err
		}
		if err := t.session.SetStoryteller(member.ID, member.Name); err != nil {
			return err
		}
		out = *t.session.Storyteller()
		t.log.Info().Str("user", userID).Msg("storyteller set")
		t.publish(events.TypeRoster, t.session.Snapshot())
		return nil
	})
	return out, err
}

// AddPlayer seats a member at the end of the table. added is false when
// they were already seated.
func (t *Table) AddPlayer(ctx context.Context, userID string) (player game.Player, added bool, err error) {
	err = t.gate.Run(ctx, func(ctx context.Context) error {
		if t.session.IsStoryteller(userID) {
			return game.ErrIsStoryteller
		}
		if t.session.Active() {
			return game.ErrGameActive
		}
		roles, err := t.roles(ctx, RolePlayer)
		if err != nil {
			return err
		}
		member, err := t.platform.Member(ctx, userID)
		if err != nil {
			return fmt.Errorf("fetching member: %w", err)
		}
		if err := roles.apply(ctx, t.platform, userID, Change{Grant: []Role{RolePlayer}}); err != nil {
			return err
		}
		if added, err = t.session.AddPlayer(member.ID, member.Name); err != nil {
			return err
		}
		player, _ = t.session.Player(userID)
		t.log.Info().Str("user", userID).Bool("added", added).Msg("player added")
		t.publish(events.TypeRoster, t.session.Snapshot())
		return nil
	})
	return player, added, err
}

// RemovePlayer unseats a member. removed is false when they were not seated.
func (t *Table) RemovePlayer(ctx context.Context, userID string) (removed bool, err error) {
	err = t.gate.Run(ctx, func(ctx context.Context) error {
		if t.session.Active() {
			return game.ErrGameActive
		}
		roles, err := t.roles(ctx, RolePlayer)
		if err != nil {
			return err
		}
		if err := roles.apply(ctx, t.platform, userID, Change{Revoke: []Role{RolePlayer}}); err != nil {
			return err
		}
		if removed, err = t.session.RemovePlayer(userID); err != nil {
			return err
		}
		t.log.Info().Str("user", userID).Bool("removed", removed).Msg("player removed")
		t.publish(events.TypeRoster, t.session.Snapshot())
		return nil
	})
	return removed, err
}

// SyncRoles rebuilds the roster from who holds the player and storyteller
// roles on the server.
func (t *Table) SyncRoles(ctx context.Context) (game.Snapshot, error) {
	var snap game.Snapshot
	err := t.gate.Run(ctx, func(ctx context.Context) error {
		if t.session.Active() {
			return game.ErrGameActive
		}
		roles, err := t.roles(ctx, RoleStoryteller, RolePlayer)
		if err != nil {
			return err
		}
		members, err := t.platform.Members(ctx)
		if err != nil {
			return fmt.Errorf("listing members: %w", err)
		}
		candidates := make([]game.Candidate, 0, len(members))
		for _, m := range members {
			c := game.Candidate{
				ID:            m.ID,
				Name:          m.Name,
				IsStoryteller: roles.Has(m, RoleStoryteller),
				IsPlayer:      roles.Has(m, RolePlayer),
			}
			if c.IsStoryteller || c.IsPlayer {
				candidates = append(candidates, c)
			}
		}
		if err := t.session.Resync(candidates); err != nil {
			return err
		}
		t.reactor.Reset()
		snap = t.session.Snapshot()
		t.log.Info().Int("players", len(snap.Players)).Msg("roster synced from roles")
		t.publish(events.TypeRoster, snap)
		return nil
	})
	return snap, err
}

// SetupChannels rebuilds the game category for the current roster
func (t *Table) SetupChannels(ctx context.Context) (*game.RoomAssignment, error) {
	var rooms *game.RoomAssignment
	err := t.gate.Run(ctx, func(ctx context.Context) error {
		if t.session.Active() {
			return game.ErrGameActive
		}
		players := t.session.Players()
		if len(players) == 0 {
			return game.ErrNoPlayers
		}
		roles, err := t.roles(ctx, RoleStoryteller, RoleDay, RoleRoam)
		if err != nil {
			return err
		}

		t.session.InvalidateChannels()
		t.reactor.Reset()
		built, err := BuildChannels(ctx, t.platform, roles, players, t.publicRooms)
		if err != nil {
			return fmt.Errorf("setting up channels: %w", err)
		}
		if err := t.session.MarkChannelsReady(built); err != nil {
			return err
		}

		names := make(map[string]string, len(built.PublicRooms))
		for i, id := range built.PublicRooms {
			names[id] = t.publicRooms[i]
		}
		t.namesMu.Lock()
		t.roomNames = names
		t.namesMu.Unlock()
		rooms = built
		t.log.Info().Int("private", built.PrivateRoomCount()).Int("public", len(built.PublicRooms)).Msg("channels ready")
		t.publish(events.TypeChannels, t.session.Snapshot())
		return nil
	})
	return rooms, err
}

// StartGame begins the first night and sends everyone to their rooms
func (t *Table) StartGame(ctx context.Context) (MoveReport, error) {
	var report MoveReport
	err := t.gate.Run(ctx, func(ctx context.Context) error {
		if t.session.Active() {
			return game.ErrAlreadyActive
		}
		if !t.session.ChannelsReady() {
			return game.ErrChannelsNotReady
		}
		roles, err := t.roles(ctx, RolePlayer, RoleNight, RoleDay, RoleRoam, RoleAlive, RoleDead)
		if err != nil {
			return err
		}
		if err := t.session.Start(); err != nil {
			return err
		}
		log := t.log.With().Str("game", t.session.GameID).Logger()
		log.Info().Int("players", len(t.session.Players())).Msg("game started")

		var moveErr error
		report, moveErr = t.mover.Apply(ctx, roles, game.PhaseNight, Change{
			Grant:  []Role{RoleAlive, RolePlayer},
			Revoke: []Role{RoleDead},
		})
		clock := t.session.Clock()
		t.announce(ctx, t.session.Rooms(), clock.Announcement())
		t.publish(events.TypeStarted, t.session.Snapshot())
		return incomplete(moveErr)
	})
	return report, err
}

// EndGame stops the game, strips the per-game roles and posts the closing
// announcement for reason.
func (t *Table) EndGame(ctx context.Context, reason string) error {
	return t.gate.Run(ctx, func(ctx context.Context) error {
		if !t.session.Active() {
			return game.ErrNotActive
		}
		rooms := t.session.Rooms()
		players := t.session.Players()
		gameID := t.session.GameID

		t.reactor.Reset()
		if err := t.session.End(); err != nil {
			return err
		}

		var errs []error
		roles, err := FetchRoles(ctx, t.platform)
		if err != nil {
			errs = append(errs, err)
		} else {
			for _, p := range players {
				if err := roles.apply(ctx, t.platform, p.ID, Change{Revoke: flagRoles}); err != nil {
					t.log.Warn().Err(err).Str("user", p.ID).Msg("clearing game roles failed")
					errs = append(errs, fmt.Errorf("roles for %s: %w", p.Name, err))
				}
			}
		}

		t.announce(ctx, rooms, t.endingText(reason))
		t.log.Info().Str("game", gameID).Str("reason", reason).Msg("game ended")
		t.publish(events.TypeEnded, t.session.Snapshot())
		return incomplete(errors.Join(errs...))
	})
}

func (t *Table) endingText(reason string) string {
	if t.flavor != nil {
		if text := t.flavor.Ending(reason); text != "" {
			return text
		}
	}
	return "The game is over!"
}

func (t *Table) deathText(reason string) string {
	if t.flavor != nil {
		if text := t.flavor.Death(reason); text != "" {
			return text
		}
	}
	return "is dead!"
}

func (t *Table) resurrectText() string {
	if t.flavor != nil && t.flavor.Resurrect != "" {
		return t.flavor.Resurrect
	}
	return "is alive!"
}

// AdvancePhase moves the clock, applies the new phase's access to every
// player and announces the time. See game.Session.AdvancePhase for how
// phase and day combine.
func (t *Table) AdvancePhase(ctx context.Context, phase *game.Phase, day *int) (game.PhaseClock, MoveReport, error) {
	var clock game.PhaseClock
	var report MoveReport
	err := t.gate.Run(ctx, func(ctx context.Context) error {
		if !t.session.Active() {
			return game.ErrNotActive
		}
		roles, err := t.roles(ctx, RoleNight, RoleDay, RoleRoam)
		if err != nil {
			return err
		}
		if clock, err = t.session.AdvancePhase(phase, day); err != nil {
			return err
		}
		t.log.Info().Str("game", t.session.GameID).Int("day", clock.Day).Stringer("phase", clock.Phase).Msg("phase advanced")

		var moveErr error
		report, moveErr = t.mover.Apply(ctx, roles, clock.Phase)
		t.announce(ctx, t.session.Rooms(), clock.Announcement())
		t.publish(events.TypePhase, clock)
		return incomplete(moveErr)
	})
	return clock, report, err
}

// RetryMovement moves players to where the current phase puts them,
// without touching roles.
func (t *Table) RetryMovement(ctx context.Context) (MoveReport, error) {
	var report MoveReport
	err := t.gate.Run(ctx, func(ctx context.Context) error {
		if !t.session.Active() {
			return game.ErrNotActive
		}
		report = t.mover.Relocate(ctx, t.session.Clock().Phase)
		return nil
	})
	return report, err
}

// KillPlayer marks a player dead and announces it with reason's text.
// Killing a dead player again is allowed.
func (t *Table) KillPlayer(ctx context.Context, userID, reason string) (game.Player, error) {
	var out game.Player
	err := t.gate.Run(ctx, func(ctx context.Context) error {
		roles, err := t.roles(ctx, RoleAlive, RoleDead)
		if err != nil {
			return err
		}
		if out, err = t.session.Kill(userID); err != nil {
			return err
		}
		roleErr := roles.apply(ctx, t.platform, userID, Change{Grant: []Role{RoleDead}, Revoke: []Role{RoleAlive}})
		t.announce(ctx, t.session.Rooms(), out.Mention()+" "+t.deathText(reason))
		t.log.Info().Str("user", userID).Str("reason", reason).Msg("player killed")
		t.publish(events.TypePlayer, out)
		return incomplete(roleErr)
	})
	return out, err
}

// ResurrectPlayer marks a player alive again
func (t *Table) ResurrectPlayer(ctx context.Context, userID string) (game.Player, error) {
	var out game.Player
	err := t.gate.Run(ctx, func(ctx context.Context) error {
		roles, err := t.roles(ctx, RoleAlive, RoleDead)
		if err != nil {
			return err
		}
		if out, err = t.session.Resurrect(userID); err != nil {
			return err
		}
		roleErr := roles.apply(ctx, t.platform, userID, Change{Grant: []Role{RoleAlive}, Revoke: []Role{RoleDead}})
		t.announce(ctx, t.session.Rooms(), out.Mention()+" "+t.resurrectText())
		t.log.Info().Str("user", userID).Msg("player resurrected")
		t.publish(events.TypePlayer, out)
		return incomplete(roleErr)
	})
	return out, err
}

// SpendGhostVote uses up a dead player's one remaining vote
func (t *Table) SpendGhostVote(ctx context.Context, userID string) (game.Player, error) {
	var out game.Player
	err := t.gate.Run(ctx, func(ctx context.Context) error {
		var err error
		if out, err = t.session.SpendGhostVote(userID); err != nil {
			return err
		}
		t.announce(ctx, t.session.Rooms(), out.Mention()+" has used their ghost vote.")
		t.publish(events.TypePlayer, out)
		return nil
	})
	return out, err
}

// callerRoom returns the public room the caller is standing in
func (t *Table) callerRoom(ctx context.Context, userID string) (string, error) {
	room, err := t.platform.VoiceChannel(ctx, userID)
	if err != nil {
		return "", err
	}
	if room == "" {
		return "", ErrNotInVoice
	}
	if !t.session.Rooms().IsPublic(room) {
		return "", ErrNotPublicRoom
	}
	return room, nil
}

// OpenDoor opens the caller's public room for a moment. It returns the
// room's name.
func (t *Table) OpenDoor(ctx context.Context, userID string) (string, error) {
	room, err := t.callerRoom(ctx, userID)
	if err != nil {
		return "", err
	}
	if err := t.reactor.OpenDoor(ctx, room); err != nil {
		return "", err
	}
	t.publish(events.TypeDoor, t.RoomStatuses())
	return t.roomName(room), nil
}

// LockDoor locks the caller's public room around whoever is inside
func (t *Table) LockDoor(ctx context.Context, userID string) (string, error) {
	room, err := t.callerRoom(ctx, userID)
	if err != nil {
		return "", err
	}
	if err := t.reactor.LockDoor(ctx, room); err != nil {
		return "", err
	}
	t.publish(events.TypeDoor, t.RoomStatuses())
	return t.roomName(room), nil
}

// HandleVoiceUpdate passes a voice move to the reactor
func (t *Table) HandleVoiceUpdate(ctx context.Context, userID, from, to string) {
	t.reactor.HandleVoiceUpdate(ctx, userID, from, to)
	if rooms := t.session.Rooms(); rooms.IsPublic(from) || rooms.IsPublic(to) {
		t.publish(events.TypeDoor, t.RoomStatuses())
	}
}

func (t *Table) roomName(room string) string {
	t.namesMu.RLock()
	defer t.namesMu.RUnlock()

	if name, ok := t.roomNames[room]; ok {
		return name
	}
	return room
}

// RoomStatuses reports the lock state of every public room
func (t *Table) RoomStatuses() []RoomStatus {
	rooms := t.session.Rooms()
	out := make([]RoomStatus, 0, len(rooms.PublicRooms))

	t.reactor.mu.Lock()
	defer t.reactor.mu.Unlock()

	locks := t.session.Locks()
	for _, id := range rooms.PublicRooms {
		out = append(out, RoomStatus{
			ID:        id,
			Name:      t.roomName(id),
			Locked:    locks.IsLocked(id),
			Whitelist: locks.Whitelist(id),
			Occupants: len(t.reactor.occupants[id]),
		})
	}
	return out
}

// ShowGame renders the table as an embed
func (t *Table) ShowGame() platform.Embed {
	snap := t.session.Snapshot()
	embed := platform.Embed{
		Title: "Blood on the Clocktower",
		Color: roleColor,
	}
	if snap.Active {
		embed.Description = snap.Clock.String()
	} else {
		embed.Description = "No game is running"
	}

	storyteller := "Nobody"
	if snap.Storyteller != nil {
		storyteller = snap.Storyteller.Mention()
	}
	embed.Fields = append(embed.Fields, platform.EmbedField{Name: "Storyteller", Value: storyteller, Inline: true})

	ready := "No"
	if snap.ChannelsReady {
		ready = "Yes"
	}
	embed.Fields = append(embed.Fields, platform.EmbedField{Name: "Channels ready", Value: ready, Inline: true})

	var lines []string
	for i, p := range snap.Players {
		status := "alive"
		if !p.Alive {
			status = "dead"
			if p.GhostVote {
				status += ", ghost vote"
			}
		}
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, p.Mention(), status))
	}
	players := "None"
	if len(lines) > 0 {
		players = strings.Join(lines, "\n")
	}
	embed.Fields = append(embed.Fields, platform.EmbedField{Name: fmt.Sprintf("Players (%d)", len(snap.Players)), Value: players})
	return embed
}
