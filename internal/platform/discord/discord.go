// Package discord binds platform.Platform to a Discord guild.
package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"clocktower/internal/platform"
)

// errCodeNotConnected is Discord's "Target user is not connected to voice"
const errCodeNotConnected = 40032

// memberPageSize is the largest page Discord serves for member listing
const memberPageSize = 1000

// Guild is one Discord server seen through the platform interface
type Guild struct {
	session *discordgo.Session
	guildID string
}

// NewGuild binds a session to a guild
func NewGuild(s *discordgo.Session, guildID string) *Guild {
	return &Guild{session: s, guildID: guildID}
}

// ID returns the guild ID
func (g *Guild) ID() string {
	return g.guildID
}

func channelType(kind platform.ChannelKind) discordgo.ChannelType {
	switch kind {
	case platform.KindCategory:
		return discordgo.ChannelTypeGuildCategory
	case platform.KindVoice:
		return discordgo.ChannelTypeGuildVoice
	}
	return discordgo.ChannelTypeGuildText
}

func channelKind(t discordgo.ChannelType) platform.ChannelKind {
	switch t {
	case discordgo.ChannelTypeGuildCategory:
		return platform.KindCategory
	case discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildStageVoice:
		return platform.KindVoice
	}
	return platform.KindText
}

// Bits converts platform permissions to Discord permission bits
func Bits(p platform.Perm) int64 {
	var bits int64
	if p&platform.PermView != 0 {
		bits |= discordgo.PermissionViewChannel
	}
	if p&platform.PermConnect != 0 {
		bits |= discordgo.PermissionVoiceConnect
	}
	if p&platform.PermSend != 0 {
		bits |= discordgo.PermissionSendMessages
	}
	return bits
}

func overwriteType(ow platform.Overwrite) discordgo.PermissionOverwriteType {
	if ow.Member {
		return discordgo.PermissionOverwriteTypeMember
	}
	return discordgo.PermissionOverwriteTypeRole
}

// DisplayName picks the name a member is shown as in the guild
func DisplayName(m *discordgo.Member) string {
	switch {
	case m.Nick != "":
		return m.Nick
	case m.User == nil:
		return ""
	case m.User.GlobalName != "":
		return m.User.GlobalName
	}
	return m.User.Username
}

func toMember(m *discordgo.Member) platform.Member {
	out := platform.Member{Name: DisplayName(m), Roles: m.Roles}
	if m.User != nil {
		out.ID = m.User.ID
	}
	return out
}

func (g *Guild) CreateChannel(ctx context.Context, spec platform.ChannelSpec) (string, error) {
	overwrites := make([]*discordgo.PermissionOverwrite, 0, len(spec.Overwrites))
	for _, ow := range spec.Overwrites {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    ow.ID,
			Type:  overwriteType(ow),
			Allow: Bits(ow.Allow),
			Deny:  Bits(ow.Deny),
		})
	}
	ch, err := g.session.GuildChannelCreateComplex(g.guildID, discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 channelType(spec.Kind),
		ParentID:             spec.Parent,
		PermissionOverwrites: overwrites,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create channel %q: %w", spec.Name, err)
	}
	return ch.ID, nil
}

func (g *Guild) DeleteChannel(ctx context.Context, channelID string) error {
	if _, err := g.session.ChannelDelete(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("delete channel %s: %w", channelID, err)
	}
	return nil
}

func (g *Guild) ListChannels(ctx context.Context) ([]platform.Channel, error) {
	channels, err := g.session.GuildChannels(g.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	out := make([]platform.Channel, 0, len(channels))
	for _, ch := range channels {
		out = append(out, platform.Channel{
			ID:     ch.ID,
			Name:   ch.Name,
			Kind:   channelKind(ch.Type),
			Parent: ch.ParentID,
		})
	}
	return out, nil
}

func (g *Guild) SetChannelPermission(ctx context.Context, channelID string, ow platform.Overwrite) error {
	err := g.session.ChannelPermissionSet(channelID, ow.ID, overwriteType(ow), Bits(ow.Allow), Bits(ow.Deny), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("set permission on %s: %w", channelID, err)
	}
	return nil
}

func (g *Guild) ClearChannelPermission(ctx context.Context, channelID, targetID string) error {
	if err := g.session.ChannelPermissionDelete(channelID, targetID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("clear permission on %s: %w", channelID, err)
	}
	return nil
}

func (g *Guild) MoveMember(ctx context.Context, userID, channelID string) error {
	if vs, err := g.session.State.VoiceState(g.guildID, userID); err == nil && vs.ChannelID == "" {
		return platform.ErrNotConnected
	}
	err := g.session.GuildMemberMove(g.guildID, userID, &channelID, discordgo.WithContext(ctx))
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil && restErr.Message.Code == errCodeNotConnected {
		return platform.ErrNotConnected
	}
	if err != nil {
		return fmt.Errorf("move %s: %w", userID, err)
	}
	return nil
}

func (g *Guild) VoiceChannel(ctx context.Context, userID string) (string, error) {
	vs, err := g.session.State.VoiceState(g.guildID, userID)
	if errors.Is(err, discordgo.ErrStateNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("voice state of %s: %w", userID, err)
	}
	return vs.ChannelID, nil
}

func (g *Guild) Roles(ctx context.Context) (map[string]string, error) {
	roles, err := g.session.GuildRoles(g.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	out := make(map[string]string, len(roles))
	for _, r := range roles {
		out[r.Name] = r.ID
	}
	return out, nil
}

func (g *Guild) CreateRole(ctx context.Context, name string, color int) (string, error) {
	role, err := g.session.GuildRoleCreate(g.guildID, &discordgo.RoleParams{
		Name:  name,
		Color: &color,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("create role %q: %w", name, err)
	}
	return role.ID, nil
}

// EveryoneRole returns the @everyone role, which shares the guild's ID
func (g *Guild) EveryoneRole() string {
	return g.guildID
}

func (g *Guild) Member(ctx context.Context, userID string) (platform.Member, error) {
	m, err := g.session.GuildMember(g.guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Member{}, fmt.Errorf("fetch member %s: %w", userID, err)
	}
	return toMember(m), nil
}

func (g *Guild) Members(ctx context.Context) ([]platform.Member, error) {
	var out []platform.Member
	after := ""
	for {
		page, err := g.session.GuildMembers(g.guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("list members: %w", err)
		}
		for _, m := range page {
			out = append(out, toMember(m))
		}
		if len(page) < memberPageSize {
			return out, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func (g *Guild) SetMemberRoles(ctx context.Context, userID string, roleIDs []string) error {
	_, err := g.session.GuildMemberEdit(g.guildID, userID, &discordgo.GuildMemberParams{
		Roles: &roleIDs,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("set roles of %s: %w", userID, err)
	}
	return nil
}

func (g *Guild) GrantRole(ctx context.Context, userID, roleID string) error {
	if err := g.session.GuildMemberRoleAdd(g.guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("grant role to %s: %w", userID, err)
	}
	return nil
}

func (g *Guild) RevokeRole(ctx context.Context, userID, roleID string) error {
	if err := g.session.GuildMemberRoleRemove(g.guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("revoke role from %s: %w", userID, err)
	}
	return nil
}

func (g *Guild) SendMessage(ctx context.Context, channelID string, msg platform.Message) error {
	send := &discordgo.MessageSend{Content: msg.Content}
	if msg.Embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{Embed(msg.Embed)}
	}
	if _, err := g.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send message to %s: %w", channelID, err)
	}
	return nil
}

// Embed converts a platform embed to Discord's form
func Embed(e *platform.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return out
}

var _ platform.Platform = (*Guild)(nil)
