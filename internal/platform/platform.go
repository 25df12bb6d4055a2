// Package platform describes the chat platform operations the referee needs.
// Everything the bot does to a server goes through Platform so the game
// logic can run against a fake in tests.
package platform

import (
	"context"
	"errors"
)

var (
	// ErrNotConnected is returned when moving a member who is in no voice channel
	ErrNotConnected = errors.New("member is not connected to voice")
	// ErrUnknownChannel is returned for a channel the platform does not know
	ErrUnknownChannel = errors.New("unknown channel")
)

// ChannelKind is the type of a channel
type ChannelKind int

const (
	KindCategory ChannelKind = iota
	KindText
	KindVoice
)

// Perm is a set of channel permissions
type Perm uint8

const (
	PermView Perm = 1 << iota
	PermConnect
	PermSend
)

// Overwrite allows or denies permissions on a channel for a role or member
type Overwrite struct {
	ID     string
	Member bool
	Allow  Perm
	Deny   Perm
}

// RoleOverwrite builds an overwrite for a role
func RoleOverwrite(roleID string, allow, deny Perm) Overwrite {
	return Overwrite{ID: roleID, Allow: allow, Deny: deny}
}

// MemberOverwrite builds an overwrite for a single member
func MemberOverwrite(userID string, allow, deny Perm) Overwrite {
	return Overwrite{ID: userID, Member: true, Allow: allow, Deny: deny}
}

// ChannelSpec describes a channel to create
type ChannelSpec struct {
	Name       string
	Kind       ChannelKind
	Parent     string
	Overwrites []Overwrite
}

// Channel is an existing channel
type Channel struct {
	ID     string
	Name   string
	Kind   ChannelKind
	Parent string
}

// Member is a server member with the roles they hold
type Member struct {
	ID    string
	Name  string
	Roles []string
}

// HasRole reports whether the member holds roleID
func (m Member) HasRole(roleID string) bool {
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// Embed is a rich message body
type Embed struct {
	Title       string
	Description string
	Fields      []EmbedField
	Color       int
}

// EmbedField is one titled block of an embed
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Message is text, an embed or both
type Message struct {
	Content string
	Embed   *Embed
}

// Platform is one server on the chat platform
type Platform interface {
	CreateChannel(ctx context.Context, spec ChannelSpec) (string, error)
	DeleteChannel(ctx context.Context, channelID string) error
	ListChannels(ctx context.Context) ([]Channel, error)
	SetChannelPermission(ctx context.Context, channelID string, ow Overwrite) error
	ClearChannelPermission(ctx context.Context, channelID, targetID string) error

	// MoveMember moves a member into a voice channel. It fails with
	// ErrNotConnected when the member is in no voice channel.
	MoveMember(ctx context.Context, userID, channelID string) error
	// VoiceChannel returns the voice channel a member is in, or ""
	VoiceChannel(ctx context.Context, userID string) (string, error)

	// Roles returns role IDs by role name
	Roles(ctx context.Context) (map[string]string, error)
	CreateRole(ctx context.Context, name string, color int) (string, error)
	EveryoneRole() string

	Member(ctx context.Context, userID string) (Member, error)
	Members(ctx context.Context) ([]Member, error)
	// SetMemberRoles replaces the full role list of a member in one call
	SetMemberRoles(ctx context.Context, userID string, roleIDs []string) error
	GrantRole(ctx context.Context, userID, roleID string) error
	RevokeRole(ctx context.Context, userID, roleID string) error

	SendMessage(ctx context.Context, channelID string, msg Message) error
}
