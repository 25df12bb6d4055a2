package commands

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"clocktower/internal/flavor"
	"clocktower/internal/middleware"
	"clocktower/internal/platform"
	"clocktower/internal/referee"
	"clocktower/internal/store"
)

const (
	cmdPing            = "ping"
	cmdSetupRoles      = "setup_roles"
	cmdSetStoryteller  = "set_storyteller"
	cmdAddPlayer       = "add_player"
	cmdRemovePlayer    = "remove_player"
	cmdShowGame        = "show_game"
	cmdSyncRoles       = "sync_roles"
	cmdSetupChannels   = "setup_channels"
	cmdStartGame       = "start_game"
	cmdEndGame         = "end_game"
	cmdAdvancePhase    = "advance_phase"
	cmdRetryMovement   = "retry_player_movement"
	cmdKillPlayer      = "kill_player"
	cmdResurrectPlayer = "resurrect_player"
	cmdSpendGhostVote  = "spend_ghost_vote"
	cmdOpenDoor        = "open_door"
	cmdLockDoor        = "lock_door"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrNoGuild          = errors.New("command used outside a server")
	ErrRateLimited      = errors.New("too many commands")
	ErrMissingOption    = errors.New("missing option")
)

// access is who may run a command
type access int

const (
	accessOpen access = iota
	// accessPlayer admits players and the storyteller
	accessPlayer
	// accessStoryteller admits the storyteller and server managers
	accessStoryteller
)

// managerPerms let a member run storyteller commands without the role
const managerPerms = discordgo.PermissionAdministrator | discordgo.PermissionManageServer

// Request is one slash command invocation
type Request struct {
	GuildID string
	UserID  string
	Command string
	// Roles are the caller's role IDs
	Roles []string
	// Permissions are the caller's resolved guild permissions
	Permissions int64
	Options     map[string]any
}

func (r Request) str(name string) string {
	s, _ := r.Options[name].(string)
	return s
}

func (r Request) integer(name string) (int, bool) {
	v, ok := r.Options[name].(int64)
	return int(v), ok
}

func (r Request) member() (string, error) {
	id := r.str(optMember)
	if id == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingOption, optMember)
	}
	return id, nil
}

// Response is what the caller sees
type Response struct {
	Content   string
	Embed     *platform.Embed
	Ephemeral bool
}

type handlerFunc func(ctx context.Context, t *referee.Table, req Request) (Response, error)

type command struct {
	access    access
	ephemeral bool
	run       handlerFunc
}

// Options configures a Router
type Options struct {
	Flavor *flavor.Catalog
	// CommandRate and CommandBurst throttle each user; zero disables it
	CommandRate  float64
	CommandBurst int
	// Latency reports the gateway heartbeat latency for ping
	Latency func() time.Duration
	Logger  zerolog.Logger
}

// Router dispatches commands to the caller's table
type Router struct {
	store    *store.MemoryStore
	flavor   *flavor.Catalog
	limiter  *middleware.RateLimiter
	latency  func() time.Duration
	log      zerolog.Logger
	commands map[string]command
	defs     map[string]*discordgo.ApplicationCommand
}

// NewRouter creates a router over the tables in s
func NewRouter(s *store.MemoryStore, opts Options) *Router {
	r := &Router{
		store:   s,
		flavor:  opts.Flavor,
		latency: opts.Latency,
		log:     opts.Logger,
		defs:    definitions(opts.Flavor),
	}
	if opts.CommandRate > 0 {
		r.limiter = middleware.NewRateLimiter(opts.CommandRate, opts.CommandBurst)
	}
	r.commands = map[string]command{
		cmdPing:            {accessOpen, true, r.ping},
		cmdShowGame:        {accessOpen, false, showGame},
		cmdSetupRoles:      {accessStoryteller, true, setupRoles},
		cmdSetStoryteller:  {accessStoryteller, false, setStoryteller},
		cmdAddPlayer:       {accessStoryteller, false, addPlayer},
		cmdRemovePlayer:    {accessStoryteller, false, removePlayer},
		cmdSyncRoles:       {accessStoryteller, false, syncRoles},
		cmdSetupChannels:   {accessStoryteller, true, setupChannels},
		cmdStartGame:       {accessStoryteller, true, startGame},
		cmdEndGame:         {accessStoryteller, true, endGame},
		cmdAdvancePhase:    {accessStoryteller, true, advancePhase},
		cmdRetryMovement:   {accessStoryteller, true, retryMovement},
		cmdKillPlayer:      {accessStoryteller, true, killPlayer},
		cmdResurrectPlayer: {accessStoryteller, true, resurrectPlayer},
		cmdSpendGhostVote:  {accessStoryteller, true, spendGhostVote},
		cmdOpenDoor:        {accessPlayer, true, openDoor},
		cmdLockDoor:        {accessPlayer, true, lockDoor},
	}
	return r
}

// Definitions returns every command for registration, sorted by name
func (r *Router) Definitions() []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b *discordgo.ApplicationCommand) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return out
}

// Ephemeral reports whether a command's reply is shown only to the caller
func (r *Router) Ephemeral(name string) bool {
	cmd, ok := r.commands[name]
	return !ok || cmd.ephemeral
}

// Dispatch runs one command and always produces a reply
func (r *Router) Dispatch(ctx context.Context, req Request) Response {
	log := r.log.With().
		Str("guild", req.GuildID).
		Str("user", req.UserID).
		Str("command", req.Command).
		Logger()

	resp, err := r.dispatch(ctx, req)
	resp.Ephemeral = r.Ephemeral(req.Command)
	if err == nil {
		log.Info().Msg("command done")
		return resp
	}

	if errors.Is(err, referee.ErrIncomplete) && resp.Content != "" {
		log.Warn().Err(err).Msg("command done with failures")
		resp.Content += "\n" + replyFor(err)
		return resp
	}

	reply := replyFor(err)
	if reply == replyUnknown {
		log.Error().Err(err).Msg("command failed")
	} else {
		log.Info().Err(err).Msg("command rejected")
	}
	return Response{Content: reply, Ephemeral: resp.Ephemeral}
}

func (r *Router) dispatch(ctx context.Context, req Request) (Response, error) {
	cmd, ok := r.commands[req.Command]
	if !ok {
		return Response{}, fmt.Errorf("%w: %s", ErrUnknownCommand, req.Command)
	}
	if req.GuildID == "" {
		return Response{}, ErrNoGuild
	}
	if r.limiter != nil && !r.limiter.Allow(req.UserID) {
		return Response{}, ErrRateLimited
	}

	table := r.store.GetOrCreate(req.GuildID)
	if err := authorize(ctx, table, cmd.access, req); err != nil {
		return Response{}, err
	}
	return cmd.run(ctx, table, req)
}

// authorize is the one permission check every command passes through
func authorize(ctx context.Context, t *referee.Table, level access, req Request) error {
	if level == accessOpen {
		return nil
	}
	if level == accessStoryteller && req.Permissions&managerPerms != 0 {
		return nil
	}

	roles, err := t.ManagedRoles(ctx)
	if err != nil {
		return fmt.Errorf("checking permissions: %w", err)
	}
	holds := func(role referee.Role) bool {
		id, ok := roles[role]
		return ok && slices.Contains(req.Roles, id)
	}

	if holds(referee.RoleStoryteller) {
		return nil
	}
	if level == accessPlayer && holds(referee.RolePlayer) {
		return nil
	}
	return ErrPermissionDenied
}
