package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestExpandSuperAdminImpliesOrganizer(t *testing.T) {
	caps := Expand([]Role{RoleSuperAdmin})
	require.True(t, caps.Has(RoleSuperAdmin))
	require.True(t, caps.Has(RoleOrganizer))
	require.False(t, caps.Has(RoleCyclist))
}

func TestExpandPlainRoles(t *testing.T) {
	caps := Expand([]Role{RoleCyclist, RoleOrganizer})
	require.True(t, caps.Has(RoleCyclist))
	require.True(t, caps.Has(RoleOrganizer))
	require.False(t, caps.Has(RoleSuperAdmin))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("organizer")
	require.NoError(t, err)
	require.Equal(t, RoleOrganizer, role)

	_, err = ParseRole("director")
	require.Error(t, err)
}

func TestDecideSuperAdminAllowsEverything(t *testing.T) {
	admin := uuid.New()
	caps := Expand([]Role{RoleSuperAdmin})
	for _, action := range []Action{ActionReviewRoles, ActionCreateEvent, ActionManageEvent, ActionSelf} {
		require.True(t, Decide(admin, caps, action, uuid.New()), "action %s", action)
	}
}

func TestDecideManageEventRequiresOwnership(t *testing.T) {
	organizer := uuid.New()
	other := uuid.New()
	caps := Expand([]Role{RoleOrganizer})

	require.True(t, Decide(organizer, caps, ActionManageEvent, organizer))
	require.False(t, Decide(organizer, caps, ActionManageEvent, other))

	// The organizer capability alone is not enough without ownership, and
	// ownership alone is not enough without the capability.
	cyclistCaps := Expand([]Role{RoleCyclist})
	require.False(t, Decide(organizer, cyclistCaps, ActionManageEvent, organizer))
}

func TestDecideSelfScoped(t *testing.T) {
	user := uuid.New()
	caps := Expand(nil)

	require.True(t, Decide(user, caps, ActionSelf, user))
	require.False(t, Decide(user, caps, ActionSelf, uuid.New()))
}

func TestDecideDeniesByDefault(t *testing.T) {
	user := uuid.New()
	caps := Expand([]Role{RoleCyclist})

	require.False(t, Decide(user, caps, ActionReviewRoles, uuid.Nil))
	require.False(t, Decide(user, caps, ActionCreateEvent, uuid.Nil))
	require.False(t, Decide(uuid.Nil, Expand([]Role{RoleSuperAdmin}), ActionSelf, uuid.Nil))
}
