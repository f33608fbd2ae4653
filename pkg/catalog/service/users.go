package service

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/datalakehq/catalogd/internal/logger"
	"github.com/datalakehq/catalogd/pkg/catalog/models"
	"github.com/datalakehq/catalogd/pkg/catalog/org"
	"github.com/datalakehq/catalogd/pkg/catalog/permission"
)

// UserRequest is one item of a batch user registration.
type UserRequest struct {
	Username     string   `json:"username"`
	Password     string   `json:"password"`
	Admin        bool     `json:"admin,omitempty"`
	OrgPositions []string `json:"org_positions,omitempty"`
}

// RegisterUsers creates the requested users. Only admins may register
// users; positions handed out at registration follow the same delegation
// rules as role updates.
func (s *Service) RegisterUsers(ctx context.Context, id Identity, reqs []UserRequest) []models.Status {
	statuses := make([]models.Status, 0, len(reqs))
	for _, req := range reqs {
		if err := s.registerUser(ctx, id, req); err != nil {
			s.fail(err)
			statuses = append(statuses, models.StatusFromError("username", req.Username, err))
			continue
		}
		statuses = append(statuses, models.StatusOK(http.StatusCreated, "username", req.Username, "user registered"))
	}
	return statuses
}

func (s *Service) registerUser(ctx context.Context, id Identity, req UserRequest) error {
	if !id.User.Admin {
		return models.Privacyf("user %s cannot register users", id.User.Username)
	}
	if req.Username == "" {
		return models.Validationf("username", "", "username is required")
	}
	if req.Password == "" {
		return models.Validationf("password", "", "password is required")
	}

	positions := normalizePositions(req.OrgPositions)
	if err := s.checkPositionAssignment(ctx, id, positions, req.Admin); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := &models.User{
		TenantID:     id.Tenant.ID,
		Username:     req.Username,
		UserKey:      uuid.NewString(),
		PasswordHash: string(hash),
		Admin:        req.Admin,
		OrgPositions: positions,
	}
	if _, err := s.store.CreateUser(ctx, user); err != nil {
		return err
	}

	s.resolver.Invalidate(id.Tenant.ID)
	logger.InfoCtx(ctx, "user registered",
		logger.Username(req.Username), logger.Count(len(positions)))
	return nil
}

// RoleRequest carries a role update for one user.
type RoleRequest struct {
	Username     string   `json:"username"`
	Admin        bool     `json:"admin"`
	OrgPositions []string `json:"org_positions"`
}

// UpdateUserRole replaces a user's admin flag and org positions. The
// granter must hold a strict ancestor of each position when handing out an
// admin role, or an ancestor-or-equal otherwise; the immediate parent of
// each position must already be held by some tenant user. Acquired grants
// touching the user are rebuilt from the new positions.
func (s *Service) UpdateUserRole(ctx context.Context, id Identity, req RoleRequest) error {
	target, err := s.store.GetUserByName(ctx, id.Tenant.ID, req.Username)
	if err != nil {
		return s.fail(err)
	}

	positions := normalizePositions(req.OrgPositions)
	if err := s.checkPositionAssignment(ctx, id, positions, req.Admin); err != nil {
		return s.fail(err)
	}

	target.Admin = req.Admin
	target.OrgPositions = positions
	if err := s.store.UpdateUserRole(ctx, target); err != nil {
		return s.fail(err)
	}

	s.resolver.Invalidate(id.Tenant.ID)
	if err := s.rebuildAcquired(ctx, target); err != nil {
		return err
	}

	logger.InfoCtx(ctx, "user role updated",
		logger.Username(req.Username), logger.Count(len(positions)))
	return nil
}

// DeleteUserRole strips a user of every org position and the admin flag,
// removing the acquired grants that depended on them.
func (s *Service) DeleteUserRole(ctx context.Context, id Identity, username string) error {
	if !id.User.Admin {
		return s.fail(models.Privacyf("user %s cannot delete roles", id.User.Username))
	}
	target, err := s.store.GetUserByName(ctx, id.Tenant.ID, username)
	if err != nil {
		return s.fail(err)
	}

	target.Admin = false
	target.OrgPositions = nil
	if err := s.store.UpdateUserRole(ctx, target); err != nil {
		return s.fail(err)
	}

	s.resolver.Invalidate(id.Tenant.ID)
	if err := s.rebuildAcquired(ctx, target); err != nil {
		return err
	}
	logger.InfoCtx(ctx, "user role deleted", logger.Username(username))
	return nil
}

// checkPositionAssignment verifies the delegation rules for handing out
// the positions, plus the no-gaps rule on the hierarchy.
func (s *Service) checkPositionAssignment(ctx context.Context, id Identity, positions []string, makeAdmin bool) error {
	if len(positions) == 0 {
		return nil
	}
	users, err := s.store.ListTenantUsers(ctx, id.Tenant.ID)
	if err != nil {
		return err
	}
	tenantUsers := make([]models.User, len(users))
	for i, u := range users {
		tenantUsers[i] = *u
	}

	for _, pos := range positions {
		if !permission.CanAssignPosition(id.User, pos, makeAdmin) {
			s.metrics.RecordPermissionCheck(false)
			return models.Privacyf("user %s cannot assign position %q", id.User.Username, pos)
		}
		if !permission.ParentPositionHeld(pos, tenantUsers) {
			return models.Validationf("org_position", pos, "the parent position of %q is held by no user", pos)
		}
	}
	s.metrics.RecordPermissionCheck(true)
	return nil
}

// rebuildAcquired rematerializes the tenant's acquired grants after a role
// change. The target's own acquired grants and those of every admin are
// wiped, then each user's direct grants are copied up to the admins
// positioned above them. Rebuilding the whole tenant keeps admins from
// holding grants acquired through a position the target no longer has.
func (s *Service) rebuildAcquired(ctx context.Context, target *models.User) error {
	users, err := s.store.ListTenantUsers(ctx, target.TenantID)
	if err != nil {
		return err
	}
	tenantUsers := make([]models.User, len(users))
	for i, u := range users {
		tenantUsers[i] = *u
	}

	for _, u := range users {
		if u.ID != target.ID && !u.Admin {
			continue
		}
		if err := s.store.DeleteAcquiredPermissions(ctx, target.TenantID, u.ID); err != nil {
			return err
		}
	}

	for _, u := range users {
		admins := permission.AcquiredAdmins(u, tenantUsers, s.resolver)
		if len(admins) == 0 {
			continue
		}
		grants, err := s.store.ListUserPermissions(ctx, target.TenantID, u.ID)
		if err != nil {
			return err
		}
		for _, g := range grants {
			if g.Acquired {
				continue
			}
			for _, admin := range admins {
				acquired := models.Permission{
					TenantID:    target.TenantID,
					DirectoryID: g.DirectoryID,
					UserID:      admin.ID,
					Action:      g.Action,
					GrantedBy:   g.GrantedBy,
				}
				if err := s.upsertAcquired(ctx, acquired); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func normalizePositions(positions []string) []string {
	out := make([]string, 0, len(positions))
	for _, p := range positions {
		if n := org.Normalize(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}
