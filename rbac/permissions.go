package rbac

import "strings"

// Rule maps a route path prefix to the set of roles allowed to reach it.
// The full rule set is fixed at build time; it is configuration shipped with
// the binary, not user-editable data.
type Rule struct {
	Prefix string
	Roles  []Role
}

var allRoles = []Role{RoleSuperAdmin, RoleModerator, RoleCustomerSupport}

// menuPermissions mirrors the admin menu of the platform front end. The
// super-admin bypass in HasAccess is deliberate and universal, so rules list
// RoleSuperAdmin only for documentation and AccessiblePaths.
var menuPermissions = []Rule{
	{Prefix: "/admin/dashboard", Roles: allRoles},
	{Prefix: "/admin/users", Roles: allRoles},
	{Prefix: "/admin/photo-moderation", Roles: allRoles},
	{Prefix: "/admin/reports", Roles: allRoles},
	{Prefix: "/admin/cms", Roles: allRoles},
	{Prefix: "/admin/matches", Roles: []Role{RoleSuperAdmin, RoleModerator}},
	{Prefix: "/admin/messaging", Roles: []Role{RoleSuperAdmin, RoleModerator}},
	{Prefix: "/admin/notifications", Roles: []Role{RoleSuperAdmin, RoleModerator}},
	{Prefix: "/admin/subscriptions", Roles: []Role{RoleSuperAdmin}},
	{Prefix: "/admin/masters", Roles: []Role{RoleSuperAdmin}},
	{Prefix: "/admin/settings", Roles: []Role{RoleSuperAdmin}},
	{Prefix: "/admin/admin-users", Roles: []Role{RoleSuperAdmin}},
}

// HasAccess reports whether role may reach path.
//
// RoleNone never has access. RoleSuperAdmin always does — an explicit
// first-checked branch, not a derived permission. Every other role is
// decided by the rule with the longest declared prefix of path, so behavior
// stays deterministic even if one declared prefix ever nests inside another.
func HasAccess(role Role, path string) bool {
	return hasAccess(menuPermissions, role, path)
}

func hasAccess(rules []Rule, role Role, path string) bool {
	if role == RoleNone {
		return false
	}
	if role == RoleSuperAdmin {
		return true
	}

	rule, ok := matchRule(rules, path)
	if !ok {
		return false
	}
	for _, r := range rule.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// matchRule returns the rule with the longest prefix of path.
func matchRule(rules []Rule, path string) (Rule, bool) {
	var (
		best  Rule
		found bool
	)
	for _, rule := range rules {
		if !strings.HasPrefix(path, rule.Prefix) {
			continue
		}
		if !found || len(rule.Prefix) > len(best.Prefix) {
			best = rule
			found = true
		}
	}
	return best, found
}

// AccessiblePaths returns the declared prefixes reachable by role, in table
// order. RoleNone gets nothing; RoleSuperAdmin gets every declared prefix.
func AccessiblePaths(role Role) []string {
	if role == RoleNone {
		return nil
	}

	paths := make([]string, 0, len(menuPermissions))
	for _, rule := range menuPermissions {
		if role == RoleSuperAdmin {
			paths = append(paths, rule.Prefix)
			continue
		}
		for _, r := range rule.Roles {
			if r == role {
				paths = append(paths, rule.Prefix)
				break
			}
		}
	}
	return paths
}

// Rules returns a copy of the declared rule table.
func Rules() []Rule {
	rules := make([]Rule, len(menuPermissions))
	copy(rules, menuPermissions)
	return rules
}
