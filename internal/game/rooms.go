package game

import (
	"fmt"
	"slices"
)

// DefaultPublicRooms are the themed day rooms created at setup
var DefaultPublicRooms = []string{
	"Church",
	"Bar",
	"Courthouse",
	"Library",
	"Docks",
	"Market",
	"Graveyard",
	"Park",
}

var privateRoomNames = []string{
	"Red Room",
	"Blue Room",
	"Yellow Room",
	"Purple Room",
	"Orange Room",
	"Green Room",
	"Cyan Room",
	"Brown Room",
	"Black Room",
	"White Room",
}

// PrivateRoomName returns the name of the nth player's night room. Names
// cycle through the colours and gain a number once the list wraps.
func PrivateRoomName(n int) string {
	name := privateRoomNames[n%len(privateRoomNames)]
	if n >= len(privateRoomNames) {
		name = fmt.Sprintf("%s %d", name, n/len(privateRoomNames))
	}
	return name
}

// RoomAssignment records the channels created for a game
type RoomAssignment struct {
	Category         string
	TownText         string
	TownVoice        string
	StorytellerText  string
	StorytellerVoice string
	PublicRooms      []string

	private map[string]string
	owners  map[string]string
}

// NewRoomAssignment creates an empty assignment
func NewRoomAssignment() *RoomAssignment {
	return &RoomAssignment{
		private: make(map[string]string),
		owners:  make(map[string]string),
	}
}

// AssignPrivateRoom binds room to player, replacing any earlier binding
func (a *RoomAssignment) AssignPrivateRoom(playerID, room string) {
	if old, ok := a.private[playerID]; ok {
		delete(a.owners, old)
	}
	a.private[playerID] = room
	a.owners[room] = playerID
}

// PrivateRoom returns the night room of player
func (a *RoomAssignment) PrivateRoom(playerID string) (string, bool) {
	room, ok := a.private[playerID]
	return room, ok
}

// OwnerOf returns the player a private room belongs to
func (a *RoomAssignment) OwnerOf(room string) (string, bool) {
	owner, ok := a.owners[room]
	return owner, ok
}

// IsPublic reports whether room is one of the shared day rooms
func (a *RoomAssignment) IsPublic(room string) bool {
	return room != "" && slices.Contains(a.PublicRooms, room)
}

// PrivateRoomCount returns the number of bound private rooms
func (a *RoomAssignment) PrivateRoomCount() int {
	return len(a.private)
}

// ClearPrivateRooms drops every player binding
func (a *RoomAssignment) ClearPrivateRooms() {
	a.private = make(map[string]string)
	a.owners = make(map[string]string)
}

// Channels returns every channel in the assignment, category last
func (a *RoomAssignment) Channels() []string {
	var out []string
	for _, ch := range []string{a.StorytellerText, a.StorytellerVoice, a.TownText, a.TownVoice} {
		if ch != "" {
			out = append(out, ch)
		}
	}
	out = append(out, a.PublicRooms...)
	for room := range a.owners {
		out = append(out, room)
	}
	if a.Category != "" {
		out = append(out, a.Category)
	}
	return out
}
