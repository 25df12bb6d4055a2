package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"

	"clocktower/internal/platform"
)

func TestBits(t *testing.T) {
	assert.Equal(t, int64(0), Bits(0))
	assert.Equal(t, discordgo.PermissionViewChannel, Bits(platform.PermView))
	assert.Equal(t, discordgo.PermissionViewChannel|discordgo.PermissionVoiceConnect,
		Bits(platform.PermView|platform.PermConnect))
	assert.Equal(t, discordgo.PermissionSendMessages, Bits(platform.PermSend))
}

func TestChannelKindRoundTrip(t *testing.T) {
	for _, kind := range []platform.ChannelKind{platform.KindCategory, platform.KindText, platform.KindVoice} {
		assert.Equal(t, kind, channelKind(channelType(kind)))
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name   string
		member *discordgo.Member
		want   string
	}{
		{"nick wins", &discordgo.Member{Nick: "Nick", User: &discordgo.User{Username: "user", GlobalName: "Global"}}, "Nick"},
		{"global name", &discordgo.Member{User: &discordgo.User{Username: "user", GlobalName: "Global"}}, "Global"},
		{"username", &discordgo.Member{User: &discordgo.User{Username: "user"}}, "user"},
		{"no user", &discordgo.Member{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayName(tt.member))
		})
	}
}

func TestEmbed(t *testing.T) {
	e := Embed(&platform.Embed{
		Title:  "Grimoire",
		Color:  0x0062ff,
		Fields: []platform.EmbedField{{Name: "Day", Value: "1", Inline: true}},
	})

	assert.Equal(t, "Grimoire", e.Title)
	assert.Equal(t, 0x0062ff, e.Color)
	assert.Len(t, e.Fields, 1)
	assert.True(t, e.Fields[0].Inline)
}
