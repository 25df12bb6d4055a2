package referee

import (
	"context"
	"fmt"

	"clocktower/internal/game"
	"clocktower/internal/platform"
)

// Channel names created by setup
const (
	CategoryName         = "Blood on the Clocktower"
	StorytellerTextName  = "Grimoire"
	StorytellerVoiceName = "Storyteller's Lounge"
	TownTextName         = "Town Record"
	TownVoiceName        = "Town Square"
)

// BuildChannels tears down any earlier game category and creates a fresh
// one: the storyteller pair, the town pair, the public rooms and one
// private room per player in seating order.
//
// Nothing is rolled back when a call fails halfway; running it again
// replaces whatever was left.
func BuildChannels(ctx context.Context, p platform.Platform, roles RoleSet, players []game.Player, publicRooms []string) (*game.RoomAssignment, error) {
	if err := roles.Require(RoleStoryteller, RoleDay, RoleRoam); err != nil {
		return nil, err
	}
	if err := deleteCategory(ctx, p); err != nil {
		return nil, fmt.Errorf("removing old channels: %w", err)
	}

	everyone := p.EveryoneRole()
	storyteller := roles[RoleStoryteller]
	hidden := platform.RoleOverwrite(everyone, 0, platform.PermView)
	storytellerFull := platform.RoleOverwrite(storyteller, platform.PermView|platform.PermConnect|platform.PermSend, 0)

	rooms := game.NewRoomAssignment()
	var err error
	create := func(name string, kind platform.ChannelKind, ows ...platform.Overwrite) string {
		if err != nil {
			return ""
		}
		var id string
		id, err = p.CreateChannel(ctx, platform.ChannelSpec{Name: name, Kind: kind, Parent: rooms.Category, Overwrites: ows})
		if err != nil {
			err = fmt.Errorf("creating %s: %w", name, err)
		}
		return id
	}

	rooms.Category = create(CategoryName, platform.KindCategory)
	rooms.StorytellerText = create(StorytellerTextName, platform.KindText, hidden, storytellerFull)
	rooms.StorytellerVoice = create(StorytellerVoiceName, platform.KindVoice, hidden, storytellerFull)
	rooms.TownText = create(TownTextName, platform.KindText,
		platform.RoleOverwrite(everyone, platform.PermView, platform.PermSend),
		platform.RoleOverwrite(roles[RoleDay], platform.PermSend, 0),
		storytellerFull,
	)
	rooms.TownVoice = create(TownVoiceName, platform.KindVoice,
		hidden,
		platform.RoleOverwrite(roles[RoleDay], platform.PermView|platform.PermConnect, 0),
		storytellerFull,
	)
	for _, name := range publicRooms {
		id := create(name, platform.KindVoice,
			hidden,
			platform.RoleOverwrite(roles[RoleRoam], platform.PermView|platform.PermConnect, 0),
			storytellerFull,
		)
		if err == nil {
			rooms.PublicRooms = append(rooms.PublicRooms, id)
		}
	}
	for i, pl := range players {
		id := create(game.PrivateRoomName(i), platform.KindVoice,
			hidden,
			platform.MemberOverwrite(pl.ID, platform.PermView, 0),
			storytellerFull,
		)
		if err == nil {
			rooms.AssignPrivateRoom(pl.ID, id)
		}
	}
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

// deleteCategory removes the game category and everything in it
func deleteCategory(ctx context.Context, p platform.Platform) error {
	channels, err := p.ListChannels(ctx)
	if err != nil {
		return err
	}
	for _, cat := range channels {
		if cat.Kind != platform.KindCategory || cat.Name != CategoryName {
			continue
		}
		for _, ch := range channels {
			if ch.Parent == cat.ID {
				if err := p.DeleteChannel(ctx, ch.ID); err != nil {
					return err
				}
			}
		}
		if err := p.DeleteChannel(ctx, cat.ID); err != nil {
			return err
		}
	}
	return nil
}
