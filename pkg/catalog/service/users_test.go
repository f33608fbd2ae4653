package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datalakehq/catalogd/pkg/catalog/models"
)

func TestRegisterUsersBatch(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()

	statuses := svc.RegisterUsers(ctx, admin, []UserRequest{
		{Username: "bob", Password: "bob-password", OrgPositions: []string{"acme/eng"}},
		{Username: "nopass"},
		{Username: "bob", Password: "again"}, // duplicate username
	})
	require.Len(t, statuses, 3)
	assert.Equal(t, http.StatusCreated, statuses[0].Code)
	assert.Equal(t, http.StatusBadRequest, statuses[1].Code)
	assert.Equal(t, http.StatusConflict, statuses[2].Code)

	bob := identityOf(t, svc, admin.Tenant.ID, "bob")
	assert.Equal(t, []string{"acme/eng"}, bob.User.OrgPositions)
	assert.False(t, bob.User.Admin)

	// Registration is admin-only.
	statuses = svc.RegisterUsers(ctx, bob, []UserRequest{{Username: "eve", Password: "eve-password"}})
	assert.Equal(t, http.StatusForbidden, statuses[0].Code)
}

func TestPositionAssignmentRules(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()

	// The immediate parent of a position must already be held.
	statuses := svc.RegisterUsers(ctx, admin, []UserRequest{
		{Username: "deep", Password: "deep-password", OrgPositions: []string{"acme/eng/data"}},
	})
	require.Equal(t, http.StatusBadRequest, statuses[0].Code)

	lead := registerUser(t, svc, admin, "lead", false, "acme/eng")
	statuses = svc.RegisterUsers(ctx, admin, []UserRequest{
		{Username: "deep", Password: "deep-password", OrgPositions: []string{"acme/eng/data"}},
	})
	require.Equal(t, http.StatusCreated, statuses[0].Code, statuses[0].Message)

	// Handing out an admin role needs a strict ancestor of the position.
	statuses = svc.RegisterUsers(ctx, admin, []UserRequest{
		{Username: "peer", Password: "peer-password", Admin: true, OrgPositions: []string{"acme"}},
	})
	assert.Equal(t, http.StatusForbidden, statuses[0].Code)
	statuses = svc.RegisterUsers(ctx, admin, []UserRequest{
		{Username: "boss", Password: "boss-password", Admin: true, OrgPositions: []string{"acme/eng"}},
	})
	assert.Equal(t, http.StatusCreated, statuses[0].Code, statuses[0].Message)

	// Positions outside the granter's subtree cannot be handed out.
	err := svc.UpdateUserRole(ctx, lead, RoleRequest{Username: "deep", OrgPositions: []string{"acme/sales"}})
	require.True(t, models.IsFault(err, models.KindPrivacy))
}

func TestUpdateUserRoleRebuildsAcquiredGrants(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()
	bob := registerUser(t, svc, admin, "bob", false, "acme/eng")
	carol := registerUser(t, svc, admin, "carol", false, "acme/eng")

	mustCreateDir(t, svc, bob, "/datasets")
	dir, err := svc.store.GetDirectory(ctx, admin.Tenant.ID, "/datasets")
	require.NoError(t, err)

	// Carol holds no grant until she is promoted above bob.
	_, err = svc.store.GetPermission(ctx, dir.ID, carol.User.ID)
	require.True(t, errors.Is(err, models.ErrPermissionNotFound))

	require.NoError(t, svc.UpdateUserRole(ctx, admin, RoleRequest{
		Username: "carol", Admin: true, OrgPositions: []string{"acme/eng"},
	}))
	grant, err := svc.store.GetPermission(ctx, dir.ID, carol.User.ID)
	require.NoError(t, err)
	assert.True(t, grant.Acquired)
	assert.Equal(t, models.OwnerAction, grant.Action)

	// Moving bob out of carol's subtree drops the acquired grant; the
	// tenant root keeps theirs.
	require.NoError(t, svc.UpdateUserRole(ctx, admin, RoleRequest{
		Username: "bob", OrgPositions: []string{"acme/sales"},
	}))
	_, err = svc.store.GetPermission(ctx, dir.ID, carol.User.ID)
	require.True(t, errors.Is(err, models.ErrPermissionNotFound))
	grant, err = svc.store.GetPermission(ctx, dir.ID, admin.User.ID)
	require.NoError(t, err)
	assert.True(t, grant.Acquired)
}

func TestDeleteUserRole(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()
	bob := registerUser(t, svc, admin, "bob", false, "acme/eng")
	lead := registerUser(t, svc, admin, "lead", true, "acme/eng")

	mustCreateDir(t, svc, bob, "/reports")
	dir, err := svc.store.GetDirectory(ctx, admin.Tenant.ID, "/reports")
	require.NoError(t, err)
	_, err = svc.store.GetPermission(ctx, dir.ID, lead.User.ID)
	require.NoError(t, err)

	// Demotion is admin-only.
	err = svc.DeleteUserRole(ctx, bob, "lead")
	require.True(t, models.IsFault(err, models.KindPrivacy))

	require.NoError(t, svc.DeleteUserRole(ctx, admin, "lead"))
	lead = identityOf(t, svc, admin.Tenant.ID, "lead")
	assert.False(t, lead.User.Admin)
	assert.Empty(t, lead.User.OrgPositions)
	_, err = svc.store.GetPermission(ctx, dir.ID, lead.User.ID)
	require.True(t, errors.Is(err, models.ErrPermissionNotFound))

	err = svc.DeleteUserRole(ctx, admin, "nobody")
	require.True(t, models.IsFault(err, models.KindNotFound))
}
