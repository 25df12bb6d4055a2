package referee

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clocktower/internal/platform/platformtest"
)

func TestEnsureRoles_CreatesOnlyMissing(t *testing.T) {
	fake := platformtest.New()
	fake.AddMember("u1", "One", string(RolePlayer))
	ctx := context.Background()

	created, err := EnsureRoles(ctx, fake)
	require.NoError(t, err)
	assert.Len(t, created, len(AllRoles)-1)
	assert.NotContains(t, created, string(RolePlayer))

	created, err = EnsureRoles(ctx, fake)
	require.NoError(t, err)
	assert.Empty(t, created)

	rs, err := FetchRoles(ctx, fake)
	require.NoError(t, err)
	assert.Empty(t, rs.Missing())
}

func TestRoleSet_Require(t *testing.T) {
	rs := RoleSet{RolePlayer: "r1"}

	assert.NoError(t, rs.Require(RolePlayer))
	err := rs.Require(RolePlayer, RoleDay, RoleNight)
	assert.ErrorIs(t, err, ErrRolesMissing)
	assert.Contains(t, err.Error(), "ctb-Day, ctb-Night")
}

func TestRoleSet_Edit(t *testing.T) {
	rs := RoleSet{RoleDay: "day", RoleNight: "night", RoleRoam: "roam"}

	tests := []struct {
		name    string
		current []string
		grant   []Role
		revoke  []Role
		want    []string
	}{
		{"grant", []string{"other"}, []Role{RoleDay}, nil, []string{"other", "day"}},
		{"grant held", []string{"day"}, []Role{RoleDay}, nil, []string{"day"}},
		{"revoke", []string{"night", "other", "roam"}, nil, []Role{RoleNight, RoleRoam}, []string{"other"}},
		{"swap", []string{"day", "roam"}, []Role{RoleNight}, []Role{RoleDay, RoleRoam}, []string{"night"}},
		{"unknown role ignored", []string{"other"}, []Role{RoleDead}, []Role{RoleAlive}, []string{"other"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current := append([]string(nil), tt.current...)
			got := rs.Edit(current, tt.grant, tt.revoke)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.current, current, "input must not be modified")
		})
	}
}

func TestRoleSet_ApplyIsOneEdit(t *testing.T) {
	fake := platformtest.New()
	ctx := context.Background()
	_, err := EnsureRoles(ctx, fake)
	require.NoError(t, err)
	fake.AddMember("u1", "One", string(RoleDay), string(RoleRoam))

	rs, err := FetchRoles(ctx, fake)
	require.NoError(t, err)

	before := len(fake.Calls())
	err = rs.apply(ctx, fake, "u1",
		Change{Grant: []Role{RoleNight}, Revoke: []Role{RoleDay, RoleRoam}},
		Change{Grant: []Role{RoleAlive}},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"roles u1"}, fake.Calls()[before:])
	assert.Equal(t, []string{string(RoleAlive), string(RoleNight)}, fake.MemberRoleNames("u1"))

	before = len(fake.Calls())
	require.NoError(t, rs.apply(ctx, fake, "u1", Change{Grant: []Role{RoleNight}}))
	assert.Empty(t, fake.Calls()[before:], "no call when nothing changes")
}
