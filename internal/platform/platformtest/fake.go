// Package platformtest provides an in-memory Platform for tests.
package platformtest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"clocktower/internal/platform"
)

const everyoneRole = "everyone"

// SentMessage is a message recorded by Fake
type SentMessage struct {
	Channel string
	platform.Message
}

// Fake records every call and keeps just enough server state to answer
// queries. Failures can be injected per member.
type Fake struct {
	mu sync.Mutex

	nextID     int
	channels   map[string]platform.Channel
	overwrites map[string]map[string]platform.Overwrite
	roles      map[string]string
	members    []*platform.Member
	voice      map[string]string
	messages   []SentMessage
	calls      []string

	// FailMove makes MoveMember fail for a user
	FailMove map[string]error
	// FailRoles makes role edits fail for a user
	FailRoles map[string]error
	// FailCreate makes every CreateChannel fail
	FailCreate error
	// OnMove runs after a successful move, outside the fake's lock
	OnMove func(userID, channelID string)
}

// New creates an empty fake server
func New() *Fake {
	return &Fake{
		channels:   make(map[string]platform.Channel),
		overwrites: make(map[string]map[string]platform.Overwrite),
		roles:      make(map[string]string),
		voice:      make(map[string]string),
		FailMove:   make(map[string]error),
		FailRoles:  make(map[string]error),
	}
}

func (f *Fake) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *Fake) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *Fake) member(userID string) (*platform.Member, error) {
	for _, m := range f.members {
		if m.ID == userID {
			return m, nil
		}
	}
	return nil, fmt.Errorf("unknown member %s", userID)
}

// AddMember registers a server member holding the named roles
func (f *Fake) AddMember(id, name string, roleNames ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m := &platform.Member{ID: id, Name: name}
	for _, rn := range roleNames {
		rid, ok := f.roles[rn]
		if !ok {
			rid = f.id("role")
			f.roles[rn] = rid
		}
		m.Roles = append(m.Roles, rid)
	}
	f.members = append(f.members, m)
}

// Connect places a member in a voice channel
func (f *Fake) Connect(userID, channelID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.voice[userID] = channelID
}

// VoiceChannel returns where a member is connected
func (f *Fake) VoiceChannel(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.voice[userID], nil
}

// RoleID returns the ID of a role by name
func (f *Fake) RoleID(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.roles[name]
}

// MemberRoleNames returns the sorted role names a member holds
func (f *Fake) MemberRoleNames(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.member(userID)
	if err != nil {
		return nil
	}
	var names []string
	for name, id := range f.roles {
		if m.HasRole(id) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// ChannelByName finds a channel by name
func (f *Fake) ChannelByName(name string) (platform.Channel, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return platform.Channel{}, false
}

// Overwrite returns the overwrite for target on a channel
func (f *Fake) Overwrite(channelID, targetID string) (platform.Overwrite, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ow, ok := f.overwrites[channelID][targetID]
	return ow, ok
}

// Messages returns message contents sent to a channel
func (f *Fake) Messages(channelID string) []SentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []SentMessage
	for _, m := range f.messages {
		if m.Channel == channelID {
			out = append(out, m)
		}
	}
	return out
}

// Calls returns the recorded call log
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.calls)
}

func (f *Fake) CreateChannel(ctx context.Context, spec platform.ChannelSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailCreate != nil {
		return "", f.FailCreate
	}
	id := f.id("chan")
	f.channels[id] = platform.Channel{ID: id, Name: spec.Name, Kind: spec.Kind, Parent: spec.Parent}
	f.overwrites[id] = make(map[string]platform.Overwrite)
	for _, ow := range spec.Overwrites {
		f.overwrites[id][ow.ID] = ow
	}
	f.record("create %s", spec.Name)
	return id, nil
}

func (f *Fake) DeleteChannel(ctx context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.channels[channelID]; !ok {
		return platform.ErrUnknownChannel
	}
	f.record("delete %s", f.channels[channelID].Name)
	delete(f.channels, channelID)
	delete(f.overwrites, channelID)
	return nil
}

func (f *Fake) ListChannels(ctx context.Context) ([]platform.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]platform.Channel, 0, len(f.channels))
	for _, ch := range f.channels {
		out = append(out, ch)
	}
	slices.SortFunc(out, func(a, b platform.Channel) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

func (f *Fake) SetChannelPermission(ctx context.Context, channelID string, ow platform.Overwrite) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	set, ok := f.overwrites[channelID]
	if !ok {
		return platform.ErrUnknownChannel
	}
	set[ow.ID] = ow
	f.record("perm %s %s", f.channels[channelID].Name, ow.ID)
	return nil
}

func (f *Fake) ClearChannelPermission(ctx context.Context, channelID, targetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	set, ok := f.overwrites[channelID]
	if !ok {
		return platform.ErrUnknownChannel
	}
	delete(set, targetID)
	f.record("clear %s %s", f.channels[channelID].Name, targetID)
	return nil
}

func (f *Fake) MoveMember(ctx context.Context, userID, channelID string) error {
	f.mu.Lock()
	if err := f.FailMove[userID]; err != nil {
		f.mu.Unlock()
		return err
	}
	if f.voice[userID] == "" {
		f.mu.Unlock()
		return platform.ErrNotConnected
	}
	f.voice[userID] = channelID
	f.record("move %s %s", userID, f.channels[channelID].Name)
	onMove := f.OnMove
	f.mu.Unlock()

	if onMove != nil {
		onMove(userID, channelID)
	}
	return nil
}

func (f *Fake) Roles(ctx context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]string, len(f.roles))
	for k, v := range f.roles {
		out[k] = v
	}
	return out, nil
}

func (f *Fake) CreateRole(ctx context.Context, name string, color int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.id("role")
	f.roles[name] = id
	f.record("role %s", name)
	return id, nil
}

func (f *Fake) EveryoneRole() string {
	return everyoneRole
}

func (f *Fake) Member(ctx context.Context, userID string) (platform.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, err := f.member(userID)
	if err != nil {
		return platform.Member{}, err
	}
	out := *m
	out.Roles = slices.Clone(m.Roles)
	return out, nil
}

func (f *Fake) Members(ctx context.Context) ([]platform.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]platform.Member, len(f.members))
	for i, m := range f.members {
		out[i] = *m
		out[i].Roles = slices.Clone(m.Roles)
	}
	return out, nil
}

func (f *Fake) SetMemberRoles(ctx context.Context, userID string, roleIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.FailRoles[userID]; err != nil {
		return err
	}
	m, err := f.member(userID)
	if err != nil {
		return err
	}
	m.Roles = slices.Clone(roleIDs)
	f.record("roles %s", userID)
	return nil
}

func (f *Fake) GrantRole(ctx context.Context, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.FailRoles[userID]; err != nil {
		return err
	}
	m, err := f.member(userID)
	if err != nil {
		return err
	}
	if !m.HasRole(roleID) {
		m.Roles = append(m.Roles, roleID)
	}
	f.record("grant %s %s", userID, roleID)
	return nil
}

func (f *Fake) RevokeRole(ctx context.Context, userID, roleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.FailRoles[userID]; err != nil {
		return err
	}
	m, err := f.member(userID)
	if err != nil {
		return err
	}
	m.Roles = slices.DeleteFunc(m.Roles, func(r string) bool { return r == roleID })
	f.record("revoke %s %s", userID, roleID)
	return nil
}

func (f *Fake) SendMessage(ctx context.Context, channelID string, msg platform.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = append(f.messages, SentMessage{Channel: channelID, Message: msg})
	f.record("send %s", f.channels[channelID].Name)
	return nil
}

var _ platform.Platform = (*Fake)(nil)
