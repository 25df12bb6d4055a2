// Package commands turns slash-command interactions into table operations.
package commands

import (
	"github.com/bwmarrin/discordgo"

	"clocktower/internal/flavor"
	"clocktower/internal/game"
)

// Option names shared by definitions and handlers
const (
	optMember = "member"
	optReason = "reason"
	optTime   = "time"
	optDay    = "day"
)

func memberOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        optMember,
		Description: description,
		Required:    true,
	}
}

func reasonOption(description string, entries []flavor.Entry) *discordgo.ApplicationCommandOption {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(entries))
	for _, e := range entries {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: e.Name, Value: e.Key})
	}
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        optReason,
		Description: description,
		Choices:     choices,
	}
}

func phaseOption() *discordgo.ApplicationCommandOption {
	phases := []game.Phase{game.PhaseNight, game.PhaseDawn, game.PhaseMidday, game.PhaseDusk}
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(phases))
	for _, p := range phases {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: p.String(), Value: int(p)})
	}
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        optTime,
		Description: "The next phase to skip the game to (optional)",
		Choices:     choices,
	}
}

func dayOption() *discordgo.ApplicationCommandOption {
	minDay := 1.0
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        optDay,
		Description: "The day number to skip the game to (optional)",
		MinValue:    &minDay,
	}
}

// definitions returns the application command for every registered name.
// Reason choices come from the flavor catalog.
func definitions(catalog *flavor.Catalog) map[string]*discordgo.ApplicationCommand {
	var endings, deaths []flavor.Entry
	if catalog != nil {
		endings, deaths = catalog.Endings, catalog.Deaths
	}

	defs := []*discordgo.ApplicationCommand{
		{Name: cmdPing, Description: "Check that the bot is listening"},
		{Name: cmdSetupRoles, Description: "Inits user roles for the bot"},
		{
			Name:        cmdSetStoryteller,
			Description: "Set which user is the storyteller for the next game",
			Options:     []*discordgo.ApplicationCommandOption{memberOption("The member to make the storyteller")},
		},
		{
			Name:        cmdAddPlayer,
			Description: "Add a player to the next game",
			Options:     []*discordgo.ApplicationCommandOption{memberOption("The member to add")},
		},
		{
			Name:        cmdRemovePlayer,
			Description: "Remove a player from the next game",
			Options:     []*discordgo.ApplicationCommandOption{memberOption("The member to remove")},
		},
		{Name: cmdShowGame, Description: "Show the players in a game"},
		{Name: cmdSyncRoles, Description: "Syncs the bot to the bot-specific roles on the server"},
		{Name: cmdSetupChannels, Description: "Creates the channels needed for the game"},
		{Name: cmdStartGame, Description: "Starts a game: set up players, storyteller and channels first"},
		{
			Name:        cmdEndGame,
			Description: "Ends the active game, with an optional reason",
			Options:     []*discordgo.ApplicationCommandOption{reasonOption("The reason the game is over (optional)", endings)},
		},
		{
			Name:        cmdAdvancePhase,
			Description: "Advances the game to the next phase, or a set time if given",
			Options:     []*discordgo.ApplicationCommandOption{phaseOption(), dayOption()},
		},
		{Name: cmdRetryMovement, Description: "Attempts to move all players according to the day phase"},
		{
			Name:        cmdKillPlayer,
			Description: "Announces and marks that a player is dead, with an optional reason",
			Options: []*discordgo.ApplicationCommandOption{
				memberOption("The member to kill"),
				reasonOption("The announced reason (optional)", deaths),
			},
		},
		{
			Name:        cmdResurrectPlayer,
			Description: "Announces and marks that a player is alive",
			Options:     []*discordgo.ApplicationCommandOption{memberOption("The member to resurrect")},
		},
		{
			Name:        cmdSpendGhostVote,
			Description: "Marks that a dead player has used their ghost vote",
			Options:     []*discordgo.ApplicationCommandOption{memberOption("The dead player who voted")},
		},
		{Name: cmdOpenDoor, Description: "Opens the door of the public room you are in"},
		{Name: cmdLockDoor, Description: "Locks the public room you are in"},
	}

	out := make(map[string]*discordgo.ApplicationCommand, len(defs))
	for _, d := range defs {
		out[d.Name] = d
	}
	return out
}
