package game

import (
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Session is the state of one table: who is playing, which channels belong
// to the game and what time it is.
type Session struct {
	GameID string

	storyteller   *Player
	players       []*Player
	active        bool
	channelsReady bool
	rooms         *RoomAssignment
	locks         *LockTable
	clock         PhaseClock

	mu sync.RWMutex
}

// Candidate is one member considered when rebuilding the roster from roles
type Candidate struct {
	ID            string
	Name          string
	IsStoryteller bool
	IsPlayer      bool
}

// Snapshot is a read-only copy of a session
type Snapshot struct {
	GameID        string
	Active        bool
	ChannelsReady bool
	Clock         PhaseClock
	Storyteller   *Player
	Players       []Player
}

// NewSession creates an empty, inactive session
func NewSession() *Session {
	return &Session{
		rooms: NewRoomAssignment(),
		locks: NewLockTable(),
		clock: NewPhaseClock(),
	}
}

func (s *Session) indexOf(id string) int {
	return slices.IndexFunc(s.players, func(p *Player) bool { return p.ID == id })
}

// SetStoryteller makes the given user the storyteller, taking them out of
// the player list first if they were seated.
func (s *Session) SetStoryteller(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return ErrGameActive
	}
	if i := s.indexOf(id); i >= 0 {
		s.players = slices.Delete(s.players, i, i+1)
		s.channelsReady = false
	}
	s.storyteller = NewPlayer(id, name)
	return nil
}

// Storyteller returns a copy of the storyteller, or nil
func (s *Session) Storyteller() *Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.storyteller == nil {
		return nil
	}
	st := *s.storyteller
	return &st
}

// IsStoryteller reports whether id is the storyteller
func (s *Session) IsStoryteller(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.storyteller != nil && s.storyteller.ID == id
}

// AddPlayer seats a player at the end of the table. It reports whether the
// roster changed.
func (s *Session) AddPlayer(id, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return false, ErrGameActive
	}
	if s.storyteller != nil && s.storyteller.ID == id {
		return false, ErrIsStoryteller
	}
	s.channelsReady = false
	if s.indexOf(id) >= 0 {
		return false, nil
	}
	s.players = append(s.players, NewPlayer(id, name))
	return true, nil
}

// RemovePlayer unseats a player. It reports whether the roster changed.
func (s *Session) RemovePlayer(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return false, ErrGameActive
	}
	s.channelsReady = false
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.players = slices.Delete(s.players, i, i+1)
	return true, nil
}

// Players returns copies of the players in seating order
func (s *Session) Players() []Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Player, len(s.players))
	for i, p := range s.players {
		out[i] = *p
	}
	return out
}

// Player returns a copy of one player
func (s *Session) Player(id string) (Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return *s.players[i], true
	}
	return Player{}, false
}

// IsPlayer reports whether id is seated
func (s *Session) IsPlayer(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.indexOf(id) >= 0
}

// Neighbours returns the players seated either side of id. The table wraps.
func (s *Session) Neighbours(id string) (left, right Player, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Player{}, Player{}, false
	}
	n := len(s.players)
	return *s.players[(i+n-1)%n], *s.players[(i+1)%n], true
}

// Resync rebuilds the roster from externally held roles. Nothing changes
// when the candidates conflict.
func (s *Session) Resync(candidates []Candidate) error {
	var storyteller *Player
	var players []*Player
	for _, c := range candidates {
		if c.IsStoryteller && c.IsPlayer {
			return &RoleConflictError{Members: []string{c.Name}, Reason: "cannot be both a player and a storyteller"}
		}
		if c.IsStoryteller {
			if storyteller != nil {
				return &RoleConflictError{Members: []string{c.Name, storyteller.Name}, Reason: "cannot both be storytellers"}
			}
			storyteller = NewPlayer(c.ID, c.Name)
		}
		if c.IsPlayer && !slices.ContainsFunc(players, func(p *Player) bool { return p.ID == c.ID }) {
			players = append(players, NewPlayer(c.ID, c.Name))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return ErrGameActive
	}
	s.storyteller = storyteller
	s.players = players
	s.rooms = NewRoomAssignment()
	s.locks = NewLockTable()
	s.clock = NewPhaseClock()
	s.channelsReady = false
	return nil
}

// MarkChannelsReady installs the channels built for the current roster and
// starts a fresh lock table for them.
func (s *Session) MarkChannelsReady(rooms *RoomAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return ErrGameActive
	}
	for _, p := range s.players {
		if _, ok := rooms.PrivateRoom(p.ID); !ok {
			return fmt.Errorf("%w: %s has no private room", ErrChannelsNotReady, p.Name)
		}
	}
	s.rooms = rooms
	s.locks = NewLockTable()
	s.channelsReady = true
	return nil
}

// InvalidateChannels forgets that channels are ready
func (s *Session) InvalidateChannels() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.channelsReady = false
}

// Start begins the first night
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return ErrAlreadyActive
	}
	if !s.channelsReady {
		return ErrChannelsNotReady
	}
	for _, p := range s.players {
		p.reset()
	}
	s.GameID = uuid.NewString()
	s.active = true
	s.clock = NewPhaseClock()
	return nil
}

// End stops the game and clears the roster
func (s *Session) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return ErrNotActive
	}
	s.active = false
	s.channelsReady = false
	s.players = nil
	s.storyteller = nil
	rooms := *s.rooms
	rooms.ClearPrivateRooms()
	s.rooms = &rooms
	s.locks = NewLockTable()
	return nil
}

// Active reports whether a game is running
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.active
}

// ChannelsReady reports whether the channels match the roster
func (s *Session) ChannelsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.channelsReady
}

// Rooms returns the current room assignment
func (s *Session) Rooms() *RoomAssignment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.rooms
}

// Locks returns the current lock table
func (s *Session) Locks() *LockTable {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.locks
}

// Clock returns the current time of the game
func (s *Session) Clock() PhaseClock {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.clock
}

// AdvancePhase moves the clock of an active game.
//
//	neither given: next phase
//	day only:      set the day, then next phase
//	phase only:    advance to phase, crossing midnight if needed
//	both:          jump to exactly that time
func (s *Session) AdvancePhase(phase *Phase, day *int) (PhaseClock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return s.clock, ErrNotActive
	}
	if day != nil && *day < 1 {
		return s.clock, fmt.Errorf("%w: cannot set day number to %d", ErrInvalidTime, *day)
	}

	next := s.clock
	switch {
	case phase == nil:
		if day != nil {
			next.Day = *day
		}
		next.Increment()
	case day == nil:
		if err := next.AdvanceTo(*phase); err != nil {
			return s.clock, err
		}
	default:
		if err := next.JumpTo(*day, *phase); err != nil {
			return s.clock, err
		}
	}
	s.clock = next
	return next, nil
}

func (s *Session) livePlayer(id string) (*Player, error) {
	if !s.active {
		return nil, ErrNotActive
	}
	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrNotAPlayer
	}
	return s.players[i], nil
}

// Kill marks a player dead. Dead players may be killed again.
func (s *Session) Kill(id string) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.livePlayer(id)
	if err != nil {
		return Player{}, err
	}
	p.Kill()
	return *p, nil
}

// Resurrect marks a player alive again
func (s *Session) Resurrect(id string) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.livePlayer(id)
	if err != nil {
		return Player{}, err
	}
	p.Resurrect()
	return *p, nil
}

// SpendGhostVote consumes a dead player's ghost vote
func (s *Session) SpendGhostVote(id string) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.livePlayer(id)
	if err != nil {
		return Player{}, err
	}
	if err := p.SpendGhostVote(); err != nil {
		return *p, err
	}
	return *p, nil
}

// Snapshot copies the session for display
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		GameID:        s.GameID,
		Active:        s.active,
		ChannelsReady: s.channelsReady,
		Clock:         s.clock,
		Players:       make([]Player, len(s.players)),
	}
	if s.storyteller != nil {
		st := *s.storyteller
		snap.Storyteller = &st
	}
	for i, p := range s.players {
		snap.Players[i] = *p
	}
	return snap
}
