package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datalakehq/catalogd/pkg/catalog/models"
)

func TestCreateDirectoriesExpandsParents(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()
	bob := registerUser(t, svc, admin, "bob", false, "acme/eng")

	statuses := svc.CreateDirectories(ctx, bob, []DirectoryRequest{
		{Path: "/sales/q1/reports", Meta: "team=finance"},
	})
	require.Len(t, statuses, 1)
	require.Equal(t, http.StatusCreated, statuses[0].Code, statuses[0].Message)

	for _, path := range []string{"/sales", "/sales/q1", "/sales/q1/reports"} {
		dir, err := svc.store.GetDirectory(ctx, bob.Tenant.ID, path)
		require.NoError(t, err, path)
		assert.Equal(t, bob.User.ID, dir.OwnerID, path)

		grant, err := svc.store.GetPermission(ctx, dir.ID, bob.User.ID)
		require.NoError(t, err, path)
		assert.Equal(t, models.OwnerAction, grant.Action)
	}

	// Descriptive metadata lands on the leaf only.
	view, err := svc.GetDirectory(ctx, bob, "/sales/q1/reports", "")
	require.NoError(t, err)
	require.Len(t, view.Metadata, 1)
	assert.Equal(t, "team", view.Metadata[0].Key)

	parent, err := svc.GetDirectory(ctx, bob, "/sales/q1", "")
	require.NoError(t, err)
	assert.Empty(t, parent.Metadata)
}

func TestCreateDirectoriesBatchReporting(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()

	statuses := svc.CreateDirectories(ctx, admin, []DirectoryRequest{
		{Path: "/data"},
		{Path: "/data"},                             // duplicate
		{Path: "data"},                              // not absolute
		{Path: "/data//raw"},                        // empty segment
		{Path: "/ok", Meta: "private@team=finance"}, // private on directory
	})
	require.Len(t, statuses, 5)
	assert.Equal(t, http.StatusCreated, statuses[0].Code)
	assert.Equal(t, http.StatusConflict, statuses[1].Code)
	assert.Equal(t, http.StatusBadRequest, statuses[2].Code)
	assert.Equal(t, http.StatusBadRequest, statuses[3].Code)
	assert.Equal(t, http.StatusBadRequest, statuses[4].Code)
}

func TestAdminsAcquireOwnerGrants(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()
	lead := registerUser(t, svc, admin, "lead", true, "acme/eng")
	bob := registerUser(t, svc, admin, "bob", false, "acme/eng/data")

	statuses := svc.CreateDirectories(ctx, bob, []DirectoryRequest{{Path: "/warehouse"}})
	require.Equal(t, http.StatusCreated, statuses[0].Code)

	dir, err := svc.store.GetDirectory(ctx, bob.Tenant.ID, "/warehouse")
	require.NoError(t, err)

	for _, adminID := range []string{lead.User.ID, admin.User.ID} {
		grant, err := svc.store.GetPermission(ctx, dir.ID, adminID)
		require.NoError(t, err)
		assert.True(t, grant.Acquired)
		assert.Equal(t, models.OwnerAction, grant.Action)
	}
}

func TestGetDirectoryFiltersAndGroupsPermissions(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()
	bob := registerUser(t, svc, admin, "bob", false, "acme/eng")
	carol := registerUser(t, svc, admin, "carol", false, "acme/eng")

	svc.CreateDirectories(ctx, bob, []DirectoryRequest{{Path: "/finance", Meta: "team=treasury, region=emea"}})
	statuses := svc.UpdatePermissions(ctx, bob, []PermissionRequest{
		{Path: "/finance", Username: "carol", FileAction: "R", DirAction: "R"},
	})
	require.Equal(t, http.StatusOK, statuses[0].Code, statuses[0].Message)

	view, err := svc.GetDirectory(ctx, bob, "/finance", "team&'treasury'")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"carol"}, view.Permissions["RA"])
	assert.ElementsMatch(t, []string{"bob"}, view.Permissions[models.OwnerAction])

	// The root admin's acquired copies live in the store but stay out of
	// the grouped view.
	dir, err := svc.store.GetDirectory(ctx, bob.Tenant.ID, "/finance")
	require.NoError(t, err)
	grant, err := svc.store.GetPermission(ctx, dir.ID, admin.User.ID)
	require.NoError(t, err)
	assert.True(t, grant.Acquired)
	for action, grantees := range view.Permissions {
		assert.NotContains(t, grantees, "root", action)
	}

	// A filter the directory does not satisfy hides it.
	_, err = svc.GetDirectory(ctx, bob, "/finance", "team='sales'")
	require.True(t, models.IsFault(err, models.KindNotFound))

	// Carol holds directory read and may look, strangers may not.
	_, err = svc.GetDirectory(ctx, carol, "/finance", "")
	require.NoError(t, err)

	dave := registerUser(t, svc, admin, "dave", false, "acme/eng")
	_, err = svc.GetDirectory(ctx, dave, "/finance", "")
	require.True(t, models.IsFault(err, models.KindPrivacy))
}

func TestSelfGrantRejected(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()
	bob := registerUser(t, svc, admin, "bob", false, "acme/eng")

	svc.CreateDirectories(ctx, bob, []DirectoryRequest{{Path: "/mine"}})
	statuses := svc.UpdatePermissions(ctx, bob, []PermissionRequest{
		{Path: "/mine", Username: "bob", FileAction: "R", DirAction: "R"},
	})
	require.Equal(t, http.StatusForbidden, statuses[0].Code)
}

func TestGrantToOwnerRejected(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()
	bob := registerUser(t, svc, admin, "bob", false, "acme/eng")

	svc.CreateDirectories(ctx, bob, []DirectoryRequest{{Path: "/mine"}})

	// Ownership already implies the full mask, so an explicit grant to the
	// owner is malformed even when the granter is an admin.
	statuses := svc.UpdatePermissions(ctx, admin, []PermissionRequest{
		{Path: "/mine", Username: "bob", FileAction: "RW", DirAction: ""},
	})
	require.Equal(t, http.StatusBadRequest, statuses[0].Code, statuses[0].Message)
}

func TestDirectoryPathsFoldCase(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()

	statuses := svc.CreateDirectories(ctx, admin, []DirectoryRequest{{Path: "/data"}})
	require.Equal(t, http.StatusCreated, statuses[0].Code)

	// A case variant of an existing path is the same directory.
	statuses = svc.CreateDirectories(ctx, admin, []DirectoryRequest{{Path: "/Data"}})
	require.Equal(t, http.StatusConflict, statuses[0].Code, statuses[0].Message)

	view, err := svc.GetDirectory(ctx, admin, "/DATA", "")
	require.NoError(t, err)
	assert.Equal(t, "/data", view.Path)
}

func TestDirectoryPathReusableAfterDelete(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()

	statuses := svc.CreateDirectories(ctx, admin, []DirectoryRequest{{Path: "/tmpdir"}})
	require.Equal(t, http.StatusCreated, statuses[0].Code)
	require.NoError(t, svc.DeleteDirectory(ctx, admin, "/tmpdir"))

	statuses = svc.CreateDirectories(ctx, admin, []DirectoryRequest{{Path: "/tmpdir"}})
	require.Equal(t, http.StatusCreated, statuses[0].Code, statuses[0].Message)
}

func TestGranterMustHoldDelegatedActions(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()
	bob := registerUser(t, svc, admin, "bob", false, "acme/eng")
	carol := registerUser(t, svc, admin, "carol", false, "acme/eng")
	registerUser(t, svc, admin, "dave", false, "acme/eng")

	svc.CreateDirectories(ctx, bob, []DirectoryRequest{{Path: "/shared"}})
	statuses := svc.UpdatePermissions(ctx, bob, []PermissionRequest{
		{Path: "/shared", Username: "carol", FileAction: "R", DirAction: "R"},
	})
	require.Equal(t, http.StatusOK, statuses[0].Code)

	// Carol only holds read; she cannot hand out write.
	statuses = svc.UpdatePermissions(ctx, carol, []PermissionRequest{
		{Path: "/shared", Username: "dave", FileAction: "RW", DirAction: ""},
	})
	assert.Equal(t, http.StatusForbidden, statuses[0].Code)

	// But she may pass on what she holds.
	statuses = svc.UpdatePermissions(ctx, carol, []PermissionRequest{
		{Path: "/shared", Username: "dave", FileAction: "R", DirAction: "R"},
	})
	assert.Equal(t, http.StatusOK, statuses[0].Code, statuses[0].Message)
}

func TestDeletePermission(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()
	bob := registerUser(t, svc, admin, "bob", false, "acme/eng")
	carol := registerUser(t, svc, admin, "carol", false, "acme/eng")

	svc.CreateDirectories(ctx, bob, []DirectoryRequest{{Path: "/shared"}})
	svc.UpdatePermissions(ctx, bob, []PermissionRequest{
		{Path: "/shared", Username: "carol", FileAction: "R", DirAction: "R"},
	})

	// Carol is neither admin nor owner.
	err := svc.DeletePermission(ctx, carol, "/shared", "carol")
	require.True(t, models.IsFault(err, models.KindPrivacy))

	require.NoError(t, svc.DeletePermission(ctx, bob, "/shared", "carol"))
	_, err = svc.GetDirectory(ctx, carol, "/shared", "")
	require.True(t, models.IsFault(err, models.KindPrivacy))
}

func TestDeleteDirectoryGuards(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()

	svc.CreateDirectories(ctx, admin, []DirectoryRequest{{Path: "/a/b"}})
	_, err := svc.CatalogFile(ctx, admin, FileRequest{Path: "/a/b/data.csv", Size: 10})
	require.NoError(t, err)

	// Parent holds a child directory.
	err = svc.DeleteDirectory(ctx, admin, "/a")
	require.True(t, models.IsFault(err, models.KindConflict))

	// Child holds a live file.
	err = svc.DeleteDirectory(ctx, admin, "/a/b")
	require.True(t, models.IsFault(err, models.KindConflict))

	require.NoError(t, svc.DeleteFile(ctx, admin, "/a/b/data.csv"))
	require.NoError(t, svc.DeleteDirectory(ctx, admin, "/a/b"))
	require.NoError(t, svc.DeleteDirectory(ctx, admin, "/a"))

	_, err = svc.GetDirectory(ctx, admin, "/a", "")
	require.True(t, models.IsFault(err, models.KindNotFound))
}

func TestDirectoryMetaLifecycle(t *testing.T) {
	svc, admin := newTestService(t)
	ctx := context.Background()

	svc.CreateDirectories(ctx, admin, []DirectoryRequest{{Path: "/docs"}})
	require.NoError(t, svc.UpdateDirectoryMeta(ctx, admin, "/docs", "team=docs, region=emea"))

	err := svc.UpdateDirectoryMeta(ctx, admin, "/docs", "private@team=docs")
	require.True(t, models.IsFault(err, models.KindValidation))

	view, err := svc.GetDirectory(ctx, admin, "/docs", "")
	require.NoError(t, err)
	require.Len(t, view.Metadata, 2)

	require.NoError(t, svc.DeleteDirectoryMeta(ctx, admin, "/docs", "region"))
	view, err = svc.GetDirectory(ctx, admin, "/docs", "")
	require.NoError(t, err)
	require.Len(t, view.Metadata, 1)

	err = svc.DeleteDirectoryMeta(ctx, admin, "/docs", "region")
	require.True(t, models.IsFault(err, models.KindNotFound))
}
