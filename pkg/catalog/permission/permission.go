// Package permission decides who may act on catalog directories.
//
// Access derives from three sources: tenant admin status, directory
// ownership and explicit permission grants. Grants carry a packed action
// mask (see models.BuildAction) and are checked per character. Admins whose
// org position sits above a user's position acquire that user's grants
// automatically.
package permission

import (
	"github.com/datalakehq/catalogd/pkg/catalog/models"
	"github.com/datalakehq/catalogd/pkg/catalog/org"
)

// Check verifies that the user may perform the requested action mask on
// the directory. Tenant admins and the directory owner always pass; anyone
// else needs a grant whose mask covers every requested character.
func Check(user *models.User, dir *models.Directory, grants []models.Permission, want string) error {
	if user.Admin || dir.OwnerID == user.ID {
		return nil
	}
	for _, g := range grants {
		if g.UserID == user.ID && g.Covers(want) {
			return nil
		}
	}
	return models.Privacyf("user %s has no %q access to %s", user.Username, want, dir.Path)
}

// Mask returns the effective action mask the user holds on the directory.
// Admins and the owner hold the full mask.
func Mask(user *models.User, dir *models.Directory, grants []models.Permission) string {
	if user.Admin || dir.OwnerID == user.ID {
		return models.OwnerAction
	}
	for _, g := range grants {
		if g.UserID == user.ID {
			return g.Action
		}
	}
	return ""
}

// CheckGrant verifies that the granter may give the grantee the action mask
// on the directory. Granting to oneself is rejected outright, and the owner
// never carries an explicit grant since ownership already implies the full
// mask; a non-admin, non-owner granter must hold every action being handed
// out.
func CheckGrant(granter, grantee *models.User, dir *models.Directory, granterGrants []models.Permission, action string) error {
	if granter.ID == grantee.ID {
		return models.Privacyf("user %s cannot grant permissions to themselves", granter.Username)
	}
	if dir.OwnerID == grantee.ID {
		return models.Validationf("username", grantee.Username, "user %s owns %s and needs no grant", grantee.Username, dir.Path)
	}
	if granter.Admin || dir.OwnerID == granter.ID {
		return nil
	}
	if !models.ActionContains(Mask(granter, dir, granterGrants), action) {
		return models.Privacyf("user %s cannot grant %q on %s", granter.Username, action, dir.Path)
	}
	return nil
}

// AcquiredAdmins returns the tenant admins whose org position lies on the
// prefix chain of any of the grantee's positions. These admins inherit the
// grantee's directory access; callers use the list to materialize acquired
// grants. The grantee never appears in the result.
func AcquiredAdmins(grantee *models.User, tenantUsers []models.User, resolver *org.Resolver) []models.User {
	chains := resolver.Chains(grantee.TenantID, grantee.OrgPositions)
	onChain := make(map[string]struct{})
	for _, chain := range chains {
		for _, pos := range chain {
			onChain[pos] = struct{}{}
		}
	}
	if len(onChain) == 0 {
		return nil
	}

	var acquired []models.User
	for _, u := range tenantUsers {
		if u.ID == grantee.ID || !u.Admin {
			continue
		}
		for _, pos := range u.OrgPositions {
			if _, ok := onChain[org.Normalize(pos)]; ok {
				acquired = append(acquired, u)
				break
			}
		}
	}
	return acquired
}

// CanAssignPosition verifies the delegation rule for role updates. Handing
// out an admin role at a position requires the granter to hold a strict
// ancestor of it; a plain role needs ancestor or the position itself.
func CanAssignPosition(granter *models.User, position string, makeAdmin bool) bool {
	if makeAdmin {
		return org.HoldsAncestor(granter.OrgPositions, position)
	}
	return org.HoldsAncestorOrSelf(granter.OrgPositions, position)
}

// ParentPositionHeld verifies that the immediate parent of a position is
// held by some tenant user, so the hierarchy grows without gaps. Root
// positions have no parent and always pass.
func ParentPositionHeld(position string, tenantUsers []models.User) bool {
	chain := org.PrefixChain(position)
	if len(chain) < 2 {
		return true
	}
	parent := chain[1]
	for _, u := range tenantUsers {
		if u.HasPosition(parent) {
			return true
		}
	}
	return false
}
