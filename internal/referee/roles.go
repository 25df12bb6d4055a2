package referee

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"clocktower/internal/platform"
)

// Role is a server role the bot manages, named as it appears on the server
type Role string

const (
	// RoleStoryteller has full movement and runs the game
	RoleStoryteller Role = "ctb-StoryTeller"
	// RolePlayer is held by everyone seated
	RolePlayer Role = "ctb-Player"
	// RoleDay can use the town square
	RoleDay Role = "ctb-Day"
	// RoleNight can only use their own room
	RoleNight Role = "ctb-Night"
	// RoleRoam may enter the public rooms
	RoleRoam Role = "ctb-Roam"
	RoleAlive Role = "ctb-Alive"
	RoleDead  Role = "ctb-Dead"
)

// AllRoles lists every managed role in creation order
var AllRoles = []Role{RoleStoryteller, RolePlayer, RoleDay, RoleNight, RoleRoam, RoleAlive, RoleDead}

// flagRoles are the per-game status roles stripped when a game ends
var flagRoles = []Role{RoleDay, RoleNight, RoleRoam, RoleAlive, RoleDead}

const roleColor = 0x0062ff

// ErrRolesMissing means setup_roles has not been run on the server
var ErrRolesMissing = errors.New("bot roles are missing, run /setup_roles first")

// RoleSet maps managed roles to their IDs on one server. It is fetched once
// per command and used for every check and edit that command makes.
type RoleSet map[Role]string

// FetchRoles reads the managed roles from the server
func FetchRoles(ctx context.Context, p platform.Platform) (RoleSet, error) {
	byName, err := p.Roles(ctx)
	if err != nil {
		return nil, err
	}
	rs := make(RoleSet, len(AllRoles))
	for _, r := range AllRoles {
		if id, ok := byName[string(r)]; ok {
			rs[r] = id
		}
	}
	return rs, nil
}

// Missing returns the managed roles the server lacks
func (rs RoleSet) Missing() []Role {
	var missing []Role
	for _, r := range AllRoles {
		if _, ok := rs[r]; !ok {
			missing = append(missing, r)
		}
	}
	return missing
}

// Require fails unless every given role exists
func (rs RoleSet) Require(roles ...Role) error {
	var missing []string
	for _, r := range roles {
		if _, ok := rs[r]; !ok {
			missing = append(missing, string(r))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w (%s)", ErrRolesMissing, strings.Join(missing, ", "))
	}
	return nil
}

// Has reports whether the member holds role
func (rs RoleSet) Has(m platform.Member, role Role) bool {
	id, ok := rs[role]
	return ok && m.HasRole(id)
}

// Edit returns current with revoke removed and grant added. Roles outside
// the managed set are left alone.
func (rs RoleSet) Edit(current []string, grant, revoke []Role) []string {
	out := slices.Clone(current)
	for _, r := range revoke {
		if id, ok := rs[r]; ok {
			out = slices.DeleteFunc(out, func(have string) bool { return have == id })
		}
	}
	for _, r := range grant {
		if id, ok := rs[r]; ok && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// Change is a grant/revoke pair applied in one role edit
type Change struct {
	Grant  []Role
	Revoke []Role
}

// apply fetches the member and writes the edited role list in one call
func (rs RoleSet) apply(ctx context.Context, p platform.Platform, userID string, changes ...Change) error {
	m, err := p.Member(ctx, userID)
	if err != nil {
		return err
	}
	roles := m.Roles
	for _, c := range changes {
		roles = rs.Edit(roles, c.Grant, c.Revoke)
	}
	if slices.Equal(roles, m.Roles) {
		return nil
	}
	return p.SetMemberRoles(ctx, userID, roles)
}

// EnsureRoles creates any managed role the server lacks and returns the
// names it created.
func EnsureRoles(ctx context.Context, p platform.Platform) ([]string, error) {
	rs, err := FetchRoles(ctx, p)
	if err != nil {
		return nil, err
	}
	var created []string
	for _, r := range rs.Missing() {
		if _, err := p.CreateRole(ctx, string(r), roleColor); err != nil {
			return created, err
		}
		created = append(created, string(r))
	}
	return created, nil
}
