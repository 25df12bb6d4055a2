package commands

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitions(t *testing.T) {
	e := newEnv(t, Options{})
	defs := e.router.Definitions()

	require.Len(t, defs, len(e.router.commands))
	for i := 1; i < len(defs); i++ {
		assert.Less(t, defs[i-1].Name, defs[i].Name)
	}
	for _, d := range defs {
		_, ok := e.router.commands[d.Name]
		assert.True(t, ok, "%s has no handler", d.Name)
		assert.NotEmpty(t, d.Description, d.Name)
	}

	byName := e.router.defs

	end := byName[cmdEndGame].Options[0]
	assert.Equal(t, optReason, end.Name)
	assert.False(t, end.Required)
	require.Len(t, end.Choices, 4)
	assert.Equal(t, "Good wins", end.Choices[0].Name)
	assert.Equal(t, "good", end.Choices[0].Value)

	kill := byName[cmdKillPlayer].Options
	require.Len(t, kill, 2)
	assert.Equal(t, discordgo.ApplicationCommandOptionUser, kill[0].Type)
	assert.True(t, kill[0].Required)
	assert.Len(t, kill[1].Choices, 4)

	advance := byName[cmdAdvancePhase].Options
	require.Len(t, advance, 2)
	require.Len(t, advance[0].Choices, 4)
	assert.Equal(t, "Night", advance[0].Choices[0].Name)
	assert.Equal(t, 3, advance[0].Choices[3].Value)
	require.NotNil(t, advance[1].MinValue)
	assert.Equal(t, 1.0, *advance[1].MinValue)
}

func TestRequestFromInteraction(t *testing.T) {
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: "g1",
		Member: &discordgo.Member{
			User:        &discordgo.User{ID: "u1"},
			Roles:       []string{"r1"},
			Permissions: discordgo.PermissionManageServer,
		},
		Data: discordgo.ApplicationCommandInteractionData{
			Name: cmdKillPlayer,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{Name: optMember, Type: discordgo.ApplicationCommandOptionUser, Value: "p1"},
				{Name: optReason, Type: discordgo.ApplicationCommandOptionString, Value: "night"},
				{Name: optDay, Type: discordgo.ApplicationCommandOptionInteger, Value: float64(2)},
			},
		},
	}}

	req := RequestFromInteraction(i)
	assert.Equal(t, "g1", req.GuildID)
	assert.Equal(t, "u1", req.UserID)
	assert.Equal(t, cmdKillPlayer, req.Command)
	assert.Equal(t, []string{"r1"}, req.Roles)
	assert.Equal(t, int64(discordgo.PermissionManageServer), req.Permissions)

	id, err := req.member()
	require.NoError(t, err)
	assert.Equal(t, "p1", id)
	assert.Equal(t, "night", req.str(optReason))
	day, ok := req.integer(optDay)
	assert.True(t, ok)
	assert.Equal(t, 2, day)
}
