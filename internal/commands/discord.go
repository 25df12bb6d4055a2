package commands

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"clocktower/internal/platform/discord"
)

// commandTimeout bounds one interaction, well inside Discord's 15 minute
// follow-up window
const commandTimeout = 2 * time.Minute

// RequestFromInteraction converts a slash command interaction
func RequestFromInteraction(i *discordgo.InteractionCreate) Request {
	data := i.ApplicationCommandData()
	req := Request{
		GuildID: i.GuildID,
		Command: data.Name,
		Options: make(map[string]any, len(data.Options)),
	}
	if i.Member != nil {
		req.UserID = i.Member.User.ID
		req.Roles = i.Member.Roles
		req.Permissions = i.Member.Permissions
	} else if i.User != nil {
		req.UserID = i.User.ID
	}

	for _, opt := range data.Options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionUser:
			req.Options[opt.Name] = opt.UserValue(nil).ID
		case discordgo.ApplicationCommandOptionInteger:
			req.Options[opt.Name] = opt.IntValue()
		case discordgo.ApplicationCommandOptionString:
			req.Options[opt.Name] = opt.StringValue()
		}
	}
	return req
}

// OnInteraction is the discordgo handler for slash commands. It defers the
// reply, runs the command and edits the deferred reply with the result.
func (r *Router) OnInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	req := RequestFromInteraction(i)
	log := r.log.With().Str("guild", req.GuildID).Str("command", req.Command).Logger()

	var flags discordgo.MessageFlags
	if r.Ephemeral(req.Command) {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags},
	})
	if err != nil {
		log.Error().Err(err).Msg("deferring interaction")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	resp := r.Dispatch(ctx, req)

	edit := &discordgo.WebhookEdit{Content: &resp.Content}
	if resp.Embed != nil {
		edit.Embeds = &[]*discordgo.MessageEmbed{discord.Embed(resp.Embed)}
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		log.Error().Err(err).Msg("editing interaction reply")
	}
}

// OnVoiceStateUpdate forwards voice moves to the guild's table. Guilds
// without a table have no game to react to.
func (r *Router) OnVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	table, err := r.store.GetTable(v.GuildID)
	if err != nil {
		return
	}
	from := ""
	if v.BeforeUpdate != nil {
		from = v.BeforeUpdate.ChannelID
	}
	table.HandleVoiceUpdate(context.Background(), v.UserID, from, v.ChannelID)
}
