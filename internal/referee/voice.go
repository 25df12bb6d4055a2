package referee

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"clocktower/internal/game"
	"clocktower/internal/platform"
)

const (
	// DefaultLockCooldown is how long the first arrivals get before a room locks
	DefaultLockCooldown = 8 * time.Second
	// DefaultOpenCooldown is how long an opened door stays open
	DefaultOpenCooldown = 5 * time.Second
)

var (
	ErrNotPublicRoom = errors.New("that is not a public room")
	ErrNotInVoice    = errors.New("you are not in a voice channel")
	ErrRoomEmpty     = errors.New("nobody is in that room")
)

// pendingTask is a deferred lock waiting on its timer
type pendingTask struct {
	id     uint64
	cancel context.CancelFunc
}

// Reactor runs the whisper-room policy. The first player into an open public
// room starts a short grace period; when it ends the room locks, keeping
// whoever is inside audible and blocking newcomers. The room opens again
// once the last player leaves.
//
// Every lock table mutation happens under mu, the voice lock, which is
// separate from the command gate.
type Reactor struct {
	mu sync.Mutex

	platform     platform.Platform
	session      *game.Session
	log          zerolog.Logger
	lockCooldown time.Duration
	openCooldown time.Duration

	occupants map[string]map[string]struct{}
	pending   map[string]pendingTask
	nextTask  uint64

	// after is time.After, replaceable in tests
	after func(time.Duration) <-chan time.Time
}

// NewReactor creates a reactor for one session
func NewReactor(p platform.Platform, s *game.Session, log zerolog.Logger, lockCooldown, openCooldown time.Duration) *Reactor {
	if lockCooldown <= 0 {
		lockCooldown = DefaultLockCooldown
	}
	if openCooldown <= 0 {
		openCooldown = DefaultOpenCooldown
	}
	return &Reactor{
		platform:     p,
		session:      s,
		log:          log,
		lockCooldown: lockCooldown,
		openCooldown: openCooldown,
		occupants:    make(map[string]map[string]struct{}),
		pending:      make(map[string]pendingTask),
		after:        time.After,
	}
}

// HandleVoiceUpdate reacts to a member moving between voice channels.
// Mute and deafen updates arrive with from == to and are ignored, as are
// members who are not seated.
func (r *Reactor) HandleVoiceUpdate(ctx context.Context, userID, from, to string) {
	if from == to || !r.session.IsPlayer(userID) {
		return
	}
	rooms := r.session.Rooms()
	ctx = context.WithoutCancel(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if rooms.IsPublic(from) {
		r.leave(ctx, from, userID)
	}
	if rooms.IsPublic(to) {
		r.join(ctx, to, userID)
	}
}

func (r *Reactor) join(ctx context.Context, room, userID string) {
	set, ok := r.occupants[room]
	if !ok {
		set = make(map[string]struct{})
		r.occupants[room] = set
	}
	set[userID] = struct{}{}

	locks := r.session.Locks()
	if locks.IsLocked(room) {
		// newcomers to a locked room are kept out by the channel permission
		return
	}
	locks.AddToWhitelist(room, userID)
	if _, waiting := r.pending[room]; len(set) == 1 && !waiting {
		r.schedule(ctx, room, r.lockCooldown, r.lock)
	}
	r.log.Debug().Str("room", room).Str("user", userID).Msg("joined open room")
}

func (r *Reactor) leave(ctx context.Context, room, userID string) {
	delete(r.occupants[room], userID)

	locks := r.session.Locks()
	wasWhitelisted := locks.IsWhitelisted(room, userID)
	locks.RemoveFromWhitelist(room, userID)
	if locks.IsLocked(room) && wasWhitelisted {
		if err := r.platform.ClearChannelPermission(ctx, room, userID); err != nil {
			r.log.Warn().Err(err).Str("room", room).Str("user", userID).Msg("clearing member access failed")
		}
	}

	if len(r.occupants[room]) > 0 {
		return
	}
	r.cancel(room)
	if locks.IsLocked(room) {
		r.unlock(ctx, room)
	}
}

// schedule arms a deferred action for room, replacing any earlier one
func (r *Reactor) schedule(ctx context.Context, room string, delay time.Duration, action func(context.Context, string)) {
	r.cancel(room)

	taskCtx, cancel := context.WithCancel(ctx)
	r.nextTask++
	task := pendingTask{id: r.nextTask, cancel: cancel}
	r.pending[room] = task
	timer := r.after(delay)

	go func() {
		select {
		case <-timer:
		case <-taskCtx.Done():
			return
		}

		r.mu.Lock()
		defer r.mu.Unlock()

		if taskCtx.Err() != nil {
			return
		}
		if current, ok := r.pending[room]; ok && current.id == task.id {
			delete(r.pending, room)
		}
		cancel()
		action(ctx, room)
	}()
}

func (r *Reactor) cancel(room string) {
	if task, ok := r.pending[room]; ok {
		task.cancel()
		delete(r.pending, room)
	}
}

// lock freezes the whitelist of an occupied room. An empty room stays open;
// the occupants may have left while the timer ran.
func (r *Reactor) lock(ctx context.Context, room string) {
	if len(r.occupants[room]) == 0 {
		r.log.Debug().Str("room", room).Msg("room emptied before lock")
		return
	}
	locks := r.session.Locks()
	locks.Lock(room)

	roles, err := FetchRoles(ctx, r.platform)
	if err != nil {
		r.log.Error().Err(err).Str("room", room).Msg("locking room")
		return
	}
	for _, member := range locks.Whitelist(room) {
		if err := r.platform.SetChannelPermission(ctx, room, platform.MemberOverwrite(member, platform.PermView|platform.PermConnect, 0)); err != nil {
			r.log.Warn().Err(err).Str("room", room).Str("user", member).Msg("whitelisting member failed")
		}
	}
	if roam, ok := roles[RoleRoam]; ok {
		if err := r.platform.SetChannelPermission(ctx, room, platform.RoleOverwrite(roam, platform.PermView, platform.PermConnect)); err != nil {
			r.log.Error().Err(err).Str("room", room).Msg("blocking new joiners failed")
		}
	}
	r.log.Info().Str("room", room).Strs("whitelist", locks.Whitelist(room)).Msg("room locked")
}

// unlock reopens a room to everyone who may roam
func (r *Reactor) unlock(ctx context.Context, room string) {
	r.session.Locks().Unlock(room)

	roles, err := FetchRoles(ctx, r.platform)
	if err != nil {
		r.log.Error().Err(err).Str("room", room).Msg("unlocking room")
		return
	}
	if roam, ok := roles[RoleRoam]; ok {
		if err := r.platform.SetChannelPermission(ctx, room, platform.RoleOverwrite(roam, platform.PermView|platform.PermConnect, 0)); err != nil {
			r.log.Error().Err(err).Str("room", room).Msg("reopening room failed")
		}
	}
	r.log.Info().Str("room", room).Msg("room unlocked")
}

// relock whitelists everyone inside, then locks
func (r *Reactor) relock(ctx context.Context, room string) {
	for member := range r.occupants[room] {
		r.session.Locks().AddToWhitelist(room, member)
	}
	r.lock(ctx, room)
}

// OpenDoor unlocks a public room for the open cooldown so someone can come
// in, then locks it again around whoever is inside. It does not wait for
// the room to lock again.
func (r *Reactor) OpenDoor(ctx context.Context, room string) error {
	if !r.session.Rooms().IsPublic(room) {
		return ErrNotPublicRoom
	}
	ctx = context.WithoutCancel(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.unlock(ctx, room)
	if len(r.occupants[room]) > 0 {
		r.schedule(ctx, room, r.openCooldown, r.relock)
	} else {
		r.cancel(room)
	}
	return nil
}

// LockDoor locks an occupied public room now, whitelisting everyone inside
func (r *Reactor) LockDoor(ctx context.Context, room string) error {
	if !r.session.Rooms().IsPublic(room) {
		return ErrNotPublicRoom
	}
	ctx = context.WithoutCancel(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.occupants[room]) == 0 {
		return ErrRoomEmpty
	}
	r.cancel(room)
	r.relock(ctx, room)
	return nil
}

// Occupants returns the players the reactor believes are in room
func (r *Reactor) Occupants(room string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.occupants[room]))
	for m := range r.occupants[room] {
		out = append(out, m)
	}
	return out
}

// Pending reports whether a deferred action is armed for room
func (r *Reactor) Pending(room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.pending[room]
	return ok
}

// Reset cancels every deferred action and forgets occupancy. Used when the
// channels are rebuilt or the game ends.
func (r *Reactor) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.pending {
		r.cancel(room)
	}
	r.occupants = make(map[string]map[string]struct{})
}
