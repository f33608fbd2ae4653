package store

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/datalakehq/catalogd/pkg/catalog/models"
	"github.com/datalakehq/catalogd/pkg/catalog/query"
)

func newTestStore(t *testing.T) *GORMStore {
	t.Helper()
	s, err := New(&Config{
		Type:   DatabaseTypeSQLite,
		SQLite: SQLiteConfig{Path: ":memory:"},
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	return s
}

func seedTenant(t *testing.T, s *GORMStore) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{Organization: "acme", APIKey: "api-key-acme"}
	if _, err := s.CreateTenant(context.Background(), tenant); err != nil {
		t.Fatalf("failed to seed tenant: %v", err)
	}
	return tenant
}

func seedUser(t *testing.T, s *GORMStore, tenantID, username string, admin bool, positions ...string) *models.User {
	t.Helper()
	user := &models.User{
		TenantID:     tenantID,
		Username:     username,
		UserKey:      "key-" + username,
		Admin:        admin,
		OrgPositions: positions,
	}
	if _, err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}
	return user
}

func TestTenantCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tenant := seedTenant(t, s)

	got, err := s.GetTenant(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("GetTenant: %v", err)
	}
	if got.Organization != "acme" {
		t.Errorf("organization = %q", got.Organization)
	}

	byKey, err := s.GetTenantByAPIKey(ctx, "api-key-acme")
	if err != nil || byKey.ID != tenant.ID {
		t.Errorf("GetTenantByAPIKey: %v", err)
	}

	if _, err := s.CreateTenant(ctx, &models.Tenant{Organization: "acme", APIKey: "other"}); !errors.Is(err, models.ErrDuplicateTenant) {
		t.Errorf("duplicate organization error = %v", err)
	}

	if _, err := s.GetTenant(ctx, "missing"); !errors.Is(err, models.ErrTenantNotFound) {
		t.Errorf("missing tenant error = %v", err)
	}
}

func TestTenantStorageAccounting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, s)

	if err := s.UpdateTenantQuota(ctx, tenant.ID, 1000); err != nil {
		t.Fatalf("UpdateTenantQuota: %v", err)
	}
	if err := s.AddUsedStorage(ctx, tenant.ID, 600); err != nil {
		t.Fatalf("AddUsedStorage: %v", err)
	}
	if err := s.AddUsedStorage(ctx, tenant.ID, -100); err != nil {
		t.Fatalf("AddUsedStorage negative: %v", err)
	}

	got, err := s.GetTenant(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("GetTenant: %v", err)
	}
	if got.StorageQuota != 1000 || got.UsedStorage != 500 {
		t.Errorf("quota/used = %d/%d", got.StorageQuota, got.UsedStorage)
	}
	if !got.HasCapacity(500) || got.HasCapacity(501) {
		t.Error("capacity check wrong")
	}

	if err := s.UpdateTenantQuota(ctx, "missing", 10); !errors.Is(err, models.ErrTenantNotFound) {
		t.Errorf("missing tenant quota error = %v", err)
	}
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, s)

	user := seedUser(t, s, tenant.ID, "alice", false, "acme/platform")

	got, err := s.GetUserByName(ctx, tenant.ID, "alice")
	if err != nil || got.ID != user.ID {
		t.Fatalf("GetUserByName: %v", err)
	}
	if len(got.OrgPositions) != 1 || got.OrgPositions[0] != "acme/platform" {
		t.Errorf("org positions = %v", got.OrgPositions)
	}

	byKey, err := s.GetUserByKey(ctx, "key-alice")
	if err != nil || byKey.ID != user.ID {
		t.Errorf("GetUserByKey: %v", err)
	}

	// Same username in the same tenant conflicts.
	_, err = s.CreateUser(ctx, &models.User{TenantID: tenant.ID, Username: "alice", UserKey: "key-x"})
	if !errors.Is(err, models.ErrDuplicateUser) {
		t.Errorf("duplicate user error = %v", err)
	}

	// Role update replaces positions and admin flag.
	user.Admin = true
	user.OrgPositions = []string{"acme"}
	if err := s.UpdateUserRole(ctx, user); err != nil {
		t.Fatalf("UpdateUserRole: %v", err)
	}
	got, err = s.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !got.Admin || len(got.OrgPositions) != 1 || got.OrgPositions[0] != "acme" {
		t.Errorf("after role update: admin=%v positions=%v", got.Admin, got.OrgPositions)
	}

	// Clearing the role works the same way.
	got.Admin = false
	got.OrgPositions = nil
	if err := s.UpdateUserRole(ctx, got); err != nil {
		t.Fatalf("UpdateUserRole clear: %v", err)
	}
	cleared, err := s.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if cleared.Admin || len(cleared.OrgPositions) != 0 {
		t.Errorf("after role clear: admin=%v positions=%v", cleared.Admin, cleared.OrgPositions)
	}
}

func TestValidateCredentials(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, s)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	user := &models.User{TenantID: tenant.ID, Username: "bob", UserKey: "key-bob", PasswordHash: string(hash)}
	if _, err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	if _, err := s.ValidateCredentials(ctx, tenant.ID, "bob", "s3cret"); err != nil {
		t.Errorf("valid credentials rejected: %v", err)
	}
	if _, err := s.ValidateCredentials(ctx, tenant.ID, "bob", "wrong"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v", err)
	}
	if _, err := s.ValidateCredentials(ctx, tenant.ID, "nobody", "x"); !errors.Is(err, models.ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v", err)
	}
}

func TestDirectoryCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, s)
	owner := seedUser(t, s, tenant.ID, "alice", false)

	dir := &models.Directory{TenantID: tenant.ID, Path: "/sales", Parent: "", OwnerID: owner.ID}
	if _, err := s.CreateDirectory(ctx, dir); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	child := &models.Directory{TenantID: tenant.ID, Path: "/sales/q1", Parent: "/sales", OwnerID: owner.ID}
	if _, err := s.CreateDirectory(ctx, child); err != nil {
		t.Fatalf("CreateDirectory child: %v", err)
	}

	if _, err := s.CreateDirectory(ctx, &models.Directory{TenantID: tenant.ID, Path: "/sales", OwnerID: owner.ID}); !errors.Is(err, models.ErrDuplicateDirectory) {
		t.Errorf("duplicate path error = %v", err)
	}

	got, err := s.GetDirectory(ctx, tenant.ID, "/sales")
	if err != nil || got.ID != dir.ID {
		t.Fatalf("GetDirectory: %v", err)
	}

	count, err := s.CountChildDirectories(ctx, tenant.ID, "/sales")
	if err != nil || count != 1 {
		t.Errorf("CountChildDirectories = %d, %v", count, err)
	}

	dirs, err := s.ListDirectoriesByPatterns(ctx, tenant.ID, []string{"/sales", "/sales/%"})
	if err != nil || len(dirs) != 2 {
		t.Errorf("ListDirectoriesByPatterns = %d dirs, %v", len(dirs), err)
	}

	if err := s.MarkDirectoryDeleted(ctx, child.ID); err != nil {
		t.Fatalf("MarkDirectoryDeleted: %v", err)
	}
	if _, err := s.GetDirectory(ctx, tenant.ID, "/sales/q1"); !errors.Is(err, models.ErrDirectoryNotFound) {
		t.Errorf("deleted directory still visible: %v", err)
	}
	if err := s.MarkDirectoryDeleted(ctx, child.ID); !errors.Is(err, models.ErrDirectoryNotFound) {
		t.Errorf("double delete error = %v", err)
	}
}

func TestDirectoryMeta(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, s)
	owner := seedUser(t, s, tenant.ID, "alice", false)

	dir := &models.Directory{TenantID: tenant.ID, Path: "/sales", OwnerID: owner.ID}
	if _, err := s.CreateDirectory(ctx, dir); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}

	entries := []models.DirectoryMeta{
		{Key: "region", Value: "emea", IsMeta: true},
		{Key: "team", Mandatory: true},
	}
	if err := s.UpsertDirectoryMeta(ctx, dir.ID, entries); err != nil {
		t.Fatalf("UpsertDirectoryMeta: %v", err)
	}

	// Upserting the same key replaces the row.
	if err := s.UpsertDirectoryMeta(ctx, dir.ID, []models.DirectoryMeta{{Key: "region", Value: "apac", IsMeta: true}}); err != nil {
		t.Fatalf("UpsertDirectoryMeta replace: %v", err)
	}

	metas, err := s.ListDirectoryMeta(ctx, dir.ID)
	if err != nil {
		t.Fatalf("ListDirectoryMeta: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("meta count = %d", len(metas))
	}
	for _, m := range metas {
		if m.Key == "region" && m.Value != "apac" {
			t.Errorf("region value = %q", m.Value)
		}
	}

	if err := s.DeleteDirectoryRules(ctx, dir.ID); err != nil {
		t.Fatalf("DeleteDirectoryRules: %v", err)
	}
	metas, err = s.ListDirectoryMeta(ctx, dir.ID)
	if err != nil || len(metas) != 1 || metas[0].Key != "region" {
		t.Errorf("after rule delete: %v, %v", metas, err)
	}

	if err := s.DeleteDirectoryMeta(ctx, dir.ID, "region"); err != nil {
		t.Fatalf("DeleteDirectoryMeta: %v", err)
	}
	if err := s.DeleteDirectoryMeta(ctx, dir.ID, "region"); !errors.Is(err, models.ErrMetaNotFound) {
		t.Errorf("double meta delete error = %v", err)
	}
}

func TestPermissions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, s)
	owner := seedUser(t, s, tenant.ID, "alice", false)
	bob := seedUser(t, s, tenant.ID, "bob", false)

	dir := &models.Directory{TenantID: tenant.ID, Path: "/sales", OwnerID: owner.ID}
	if _, err := s.CreateDirectory(ctx, dir); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}

	perm := &models.Permission{TenantID: tenant.ID, DirectoryID: dir.ID, UserID: bob.ID, Action: "R", GrantedBy: owner.ID}
	if _, err := s.UpsertPermission(ctx, perm); err != nil {
		t.Fatalf("UpsertPermission: %v", err)
	}

	// Upsert replaces the mask instead of conflicting.
	update := &models.Permission{TenantID: tenant.ID, DirectoryID: dir.ID, UserID: bob.ID, Action: "RW", GrantedBy: owner.ID}
	if _, err := s.UpsertPermission(ctx, update); err != nil {
		t.Fatalf("UpsertPermission update: %v", err)
	}

	got, err := s.GetPermission(ctx, dir.ID, bob.ID)
	if err != nil {
		t.Fatalf("GetPermission: %v", err)
	}
	if got.Action != "RW" {
		t.Errorf("action = %q", got.Action)
	}

	all, err := s.ListDirectoryPermissions(ctx, dir.ID)
	if err != nil || len(all) != 1 {
		t.Errorf("ListDirectoryPermissions = %d, %v", len(all), err)
	}

	if err := s.DeletePermission(ctx, dir.ID, bob.ID); err != nil {
		t.Fatalf("DeletePermission: %v", err)
	}
	if _, err := s.GetPermission(ctx, dir.ID, bob.ID); !errors.Is(err, models.ErrPermissionNotFound) {
		t.Errorf("deleted permission still visible: %v", err)
	}
}

func TestAcquiredPermissionCleanup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, s)
	owner := seedUser(t, s, tenant.ID, "alice", false)
	admin := seedUser(t, s, tenant.ID, "boss", true, "acme")

	dir := &models.Directory{TenantID: tenant.ID, Path: "/sales", OwnerID: owner.ID}
	if _, err := s.CreateDirectory(ctx, dir); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}

	acquired := &models.Permission{TenantID: tenant.ID, DirectoryID: dir.ID, UserID: admin.ID, Action: "R", Acquired: true}
	if _, err := s.UpsertPermission(ctx, acquired); err != nil {
		t.Fatalf("UpsertPermission acquired: %v", err)
	}

	if err := s.DeleteAcquiredPermissions(ctx, tenant.ID, admin.ID); err != nil {
		t.Fatalf("DeleteAcquiredPermissions: %v", err)
	}
	if _, err := s.GetPermission(ctx, dir.ID, admin.ID); !errors.Is(err, models.ErrPermissionNotFound) {
		t.Errorf("acquired permission survived cleanup: %v", err)
	}
}

func TestSchemaDefs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, s)

	defs := []models.SchemaDef{
		{Name: "region", Type: models.MetaTypeText},
		{Name: "priority", Type: models.MetaTypeNumeric},
	}
	if err := s.ReplaceSchemaDefs(ctx, tenant.ID, defs); err != nil {
		t.Fatalf("ReplaceSchemaDefs: %v", err)
	}

	got, err := s.ListSchemaDefs(ctx, tenant.ID)
	if err != nil || len(got) != 2 {
		t.Fatalf("ListSchemaDefs = %d, %v", len(got), err)
	}

	// Replacement swaps the whole set.
	if err := s.ReplaceSchemaDefs(ctx, tenant.ID, defs[:1]); err != nil {
		t.Fatalf("ReplaceSchemaDefs swap: %v", err)
	}
	got, err = s.ListSchemaDefs(ctx, tenant.ID)
	if err != nil || len(got) != 1 || got[0].Name != "region" {
		t.Errorf("after swap: %v, %v", got, err)
	}

	if err := s.DeleteSchemaDef(ctx, tenant.ID, "region"); err != nil {
		t.Fatalf("DeleteSchemaDef: %v", err)
	}
	if err := s.DeleteSchemaDef(ctx, tenant.ID, "region"); !errors.Is(err, models.ErrSchemaDefNotFound) {
		t.Errorf("double schema delete error = %v", err)
	}
}

func seedFile(t *testing.T, s *GORMStore, tenantID, dirID, path, createdBy string, size int64, meta map[string]string) *models.File {
	t.Helper()
	ctx := context.Background()
	name := path[lastSlash(path)+1:]
	file := &models.File{
		TenantID:    tenantID,
		DirectoryID: dirID,
		Name:        name,
		Path:        path,
		Savepoint:   "S3-Main",
		Size:        size,
		CreatedBy:   createdBy,
	}
	if _, err := s.CreateFile(ctx, file); err != nil {
		t.Fatalf("failed to seed file %s: %v", path, err)
	}
	var entries []models.FileMeta
	for k, v := range meta {
		e := models.FileMeta{Key: k, Value: v}
		if n, ok := parseNumeric(v); ok {
			e.ValueNumeric = &n
		}
		entries = append(entries, e)
	}
	if err := s.ReplaceFileMeta(ctx, file.ID, entries); err != nil {
		t.Fatalf("failed to seed metadata for %s: %v", path, err)
	}
	return file
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

func parseNumeric(v string) (float64, bool) {
	n, err := strconv.ParseFloat(v, 64)
	return n, err == nil
}

func TestFileCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, s)
	owner := seedUser(t, s, tenant.ID, "alice", false)

	dir := &models.Directory{TenantID: tenant.ID, Path: "/sales", OwnerID: owner.ID}
	if _, err := s.CreateDirectory(ctx, dir); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}

	file := seedFile(t, s, tenant.ID, dir.ID, "/sales/report.csv", owner.ID, 1024, map[string]string{"region": "emea"})

	got, err := s.GetFileByPath(ctx, tenant.ID, "/sales/report.csv")
	if err != nil || got.ID != file.ID {
		t.Fatalf("GetFileByPath: %v", err)
	}
	if len(got.Metadata) != 1 || got.Metadata[0].Key != "region" {
		t.Errorf("metadata = %v", got.Metadata)
	}

	count, err := s.CountLiveFiles(ctx, dir.ID)
	if err != nil || count != 1 {
		t.Errorf("CountLiveFiles = %d, %v", count, err)
	}

	if err := s.RelocateFile(ctx, file.ID, "/sales/report.csv_01012025000000"); err != nil {
		t.Fatalf("RelocateFile: %v", err)
	}
	if _, err := s.GetFileByPath(ctx, tenant.ID, "/sales/report.csv"); !errors.Is(err, models.ErrFileNotFound) {
		t.Errorf("relocated file still at old path: %v", err)
	}

	if err := s.UpdateFileSize(ctx, file.ID, 2048); err != nil {
		t.Fatalf("UpdateFileSize: %v", err)
	}
	if err := s.MarkFileDeleted(ctx, file.ID); err != nil {
		t.Fatalf("MarkFileDeleted: %v", err)
	}
	count, err = s.CountLiveFiles(ctx, dir.ID)
	if err != nil || count != 0 {
		t.Errorf("CountLiveFiles after delete = %d, %v", count, err)
	}
}

func TestSearchFiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, s)
	alice := seedUser(t, s, tenant.ID, "alice", false)
	bob := seedUser(t, s, tenant.ID, "bob", false)

	dir := &models.Directory{TenantID: tenant.ID, Path: "/sales", OwnerID: alice.ID}
	if _, err := s.CreateDirectory(ctx, dir); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	other := &models.Directory{TenantID: tenant.ID, Path: "/hr", OwnerID: bob.ID}
	if _, err := s.CreateDirectory(ctx, other); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}

	seedFile(t, s, tenant.ID, dir.ID, "/sales/q1.csv", alice.ID, 1024, map[string]string{"region": "emea", "priority": "5"})
	seedFile(t, s, tenant.ID, dir.ID, "/sales/q2.csv", alice.ID, 4096, map[string]string{"region": "apac", "priority": "2"})
	seedFile(t, s, tenant.ID, other.ID, "/hr/pay.csv", bob.ID, 512, map[string]string{"region": "emea"})

	// Metadata equality.
	pred, err := query.ParseMetaFilter("region='emea'")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	files, total, err := s.SearchFiles(ctx, FileSearch{TenantID: tenant.ID, Meta: pred})
	if err != nil {
		t.Fatalf("SearchFiles: %v", err)
	}
	if total != 2 || len(files) != 2 {
		t.Errorf("emea matches = %d/%d", len(files), total)
	}

	// Numeric comparison against value_numeric.
	pred, err = query.ParseMetaFilter("priority>'3'")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	files, total, err = s.SearchFiles(ctx, FileSearch{TenantID: tenant.ID, Meta: pred})
	if err != nil || total != 1 || files[0].Path != "/sales/q1.csv" {
		t.Errorf("numeric matches = %d, %v", total, err)
	}

	// And-before-or combination.
	pred, err = query.ParseMetaFilter("region='emea'&priority>'3',region='apac'")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, total, err = s.SearchFiles(ctx, FileSearch{TenantID: tenant.ID, Meta: pred})
	if err != nil || total != 2 {
		t.Errorf("combined matches = %d, %v", total, err)
	}

	// Size filter.
	size, err := query.ParseSizeFilter(">1kb")
	if err != nil {
		t.Fatalf("parse size: %v", err)
	}
	_, total, err = s.SearchFiles(ctx, FileSearch{TenantID: tenant.ID, Size: size})
	if err != nil || total != 1 {
		t.Errorf("size matches = %d, %v", total, err)
	}

	// Prefix patterns.
	patterns, err := query.ExpandPrefix("/sales")
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	_, total, err = s.SearchFiles(ctx, FileSearch{TenantID: tenant.ID, PathPatterns: patterns})
	if err != nil || total != 2 {
		t.Errorf("prefix matches = %d, %v", total, err)
	}

	// Visibility scoping: bob sees only his own file.
	_, total, err = s.SearchFiles(ctx, FileSearch{TenantID: tenant.ID, ViewerID: bob.ID})
	if err != nil || total != 1 {
		t.Errorf("bob visibility = %d, %v", total, err)
	}

	// A grant widens bob's visibility.
	if _, err := s.UpsertPermission(ctx, &models.Permission{TenantID: tenant.ID, DirectoryID: dir.ID, UserID: bob.ID, Action: "R"}); err != nil {
		t.Fatalf("UpsertPermission: %v", err)
	}
	_, total, err = s.SearchFiles(ctx, FileSearch{TenantID: tenant.ID, ViewerID: bob.ID})
	if err != nil || total != 3 {
		t.Errorf("bob granted visibility = %d, %v", total, err)
	}

	// Pagination.
	page, total, err := s.SearchFiles(ctx, FileSearch{TenantID: tenant.ID, PageNo: 2, PageSize: 2})
	if err != nil || total != 3 || len(page) != 1 {
		t.Errorf("pagination: page=%d total=%d, %v", len(page), total, err)
	}

	// Savepoint filter is case-insensitive.
	_, total, err = s.SearchFiles(ctx, FileSearch{TenantID: tenant.ID, Savepoints: query.ParseCSVFilter("s3-main", true)})
	if err != nil || total != 3 {
		t.Errorf("savepoint matches = %d, %v", total, err)
	}

	// Metadata values compare case-insensitively and honor wildcards.
	pred, err = query.ParseMetaFilter("region='EMEA'")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, total, err = s.SearchFiles(ctx, FileSearch{TenantID: tenant.ID, Meta: pred})
	if err != nil || total != 2 {
		t.Errorf("folded meta matches = %d, %v", total, err)
	}
	pred, err = query.ParseMetaFilter("region='em*'")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, total, err = s.SearchFiles(ctx, FileSearch{TenantID: tenant.ID, Meta: pred})
	if err != nil || total != 2 {
		t.Errorf("wildcard meta matches = %d, %v", total, err)
	}

	// Name filters are wildcard patterns, not exact lists.
	_, total, err = s.SearchFiles(ctx, FileSearch{TenantID: tenant.ID, Names: query.ParseCSVFilter("q*.csv", false)})
	if err != nil || total != 2 {
		t.Errorf("name pattern matches = %d, %v", total, err)
	}
	_, total, err = s.SearchFiles(ctx, FileSearch{TenantID: tenant.ID, Paths: query.ParseCSVFilter("/sales/*", false)})
	if err != nil || total != 2 {
		t.Errorf("path pattern matches = %d, %v", total, err)
	}
}

func TestPathUniquenessFoldsCase(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, s)
	owner := seedUser(t, s, tenant.ID, "alice", false)

	dir := &models.Directory{TenantID: tenant.ID, Path: "/data", OwnerID: owner.ID}
	if _, err := s.CreateDirectory(ctx, dir); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	if _, err := s.CreateDirectory(ctx, &models.Directory{TenantID: tenant.ID, Path: "/Data", OwnerID: owner.ID}); !errors.Is(err, models.ErrDuplicateDirectory) {
		t.Errorf("case variant path error = %v", err)
	}

	got, err := s.GetDirectory(ctx, tenant.ID, "/DATA")
	if err != nil || got.ID != dir.ID {
		t.Fatalf("folded directory lookup: %v", err)
	}

	file := seedFile(t, s, tenant.ID, dir.ID, "/data/Report.csv", owner.ID, 10, nil)
	if _, err := s.CreateFile(ctx, &models.File{
		TenantID: tenant.ID, DirectoryID: dir.ID, Name: "report.csv", Path: "/data/report.csv", CreatedBy: owner.ID,
	}); !errors.Is(err, models.ErrDuplicateFile) {
		t.Errorf("case variant file path error = %v", err)
	}
	gotFile, err := s.GetFileByPath(ctx, tenant.ID, "/data/report.CSV")
	if err != nil || gotFile.ID != file.ID {
		t.Fatalf("folded file lookup: %v", err)
	}

	// Children resolve regardless of the parent path's case.
	child := &models.Directory{TenantID: tenant.ID, Path: "/data/raw", Parent: "/Data", OwnerID: owner.ID}
	if _, err := s.CreateDirectory(ctx, child); err != nil {
		t.Fatalf("CreateDirectory child: %v", err)
	}
	count, err := s.CountChildDirectories(ctx, tenant.ID, "/data")
	if err != nil || count != 1 {
		t.Errorf("CountChildDirectories = %d, %v", count, err)
	}
}

func TestRecreatePathAfterSoftDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tenant := seedTenant(t, s)
	owner := seedUser(t, s, tenant.ID, "alice", false)

	dir := &models.Directory{TenantID: tenant.ID, Path: "/tmpdir", OwnerID: owner.ID}
	if _, err := s.CreateDirectory(ctx, dir); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	if err := s.MarkDirectoryDeleted(ctx, dir.ID); err != nil {
		t.Fatalf("MarkDirectoryDeleted: %v", err)
	}

	// The soft-deleted row no longer reserves the path.
	again := &models.Directory{TenantID: tenant.ID, Path: "/tmpdir", OwnerID: owner.ID}
	if _, err := s.CreateDirectory(ctx, again); err != nil {
		t.Fatalf("recreate after delete: %v", err)
	}
	got, err := s.GetDirectory(ctx, tenant.ID, "/tmpdir")
	if err != nil || got.ID != again.ID {
		t.Fatalf("GetDirectory after recreate: %v", err)
	}

	file := seedFile(t, s, tenant.ID, again.ID, "/tmpdir/a.csv", owner.ID, 10, nil)
	if err := s.MarkFileDeleted(ctx, file.ID); err != nil {
		t.Fatalf("MarkFileDeleted: %v", err)
	}
	if _, err := s.CreateFile(ctx, &models.File{
		TenantID: tenant.ID, DirectoryID: again.ID, Name: "a.csv", Path: "/tmpdir/a.csv", CreatedBy: owner.ID,
	}); err != nil {
		t.Fatalf("recreate file after delete: %v", err)
	}
}
