package auth

import (
	"context"
	"fmt"
)

// Marketplace resources protected by the engine.
const (
	ResourceRestaurant = "restaurant"
	ResourceMenu       = "menu"
	ResourceReview     = "review"
	ResourceUser       = "user"
)

// PermissionName derives the unique permission name from its triple.
func PermissionName(resource string, action Action, scope Scope) string {
	return fmt.Sprintf("%s:%s:%s", resource, action, scope)
}

func builtin(resource string, action Action, scope Scope) Permission {
	return Permission{
		Name:     PermissionName(resource, action, scope),
		Resource: resource,
		Action:   action,
		Scope:    scope,
	}
}

// BuiltinPermissions is the bootstrap permission catalog.
var BuiltinPermissions = []Permission{
	builtin(ResourceAny, ActionAny, ScopeGlobal),
	builtin(ResourceRestaurant, ActionRead, ScopeGlobal),
	builtin(ResourceRestaurant, ActionManage, ScopeOwn),
	builtin(ResourceMenu, ActionRead, ScopeGlobal),
	builtin(ResourceMenu, ActionManage, ScopeOwn),
	builtin(ResourceReview, ActionRead, ScopeGlobal),
	builtin(ResourceReview, ActionCreate, ScopeOwn),
	builtin(ResourceReview, ActionUpdate, ScopeOwn),
	builtin(ResourceReview, ActionDelete, ScopeOwn),
	builtin(ResourceUser, ActionRead, ScopeOwn),
	builtin(ResourceUser, ActionUpdate, ScopeOwn),
	builtin(ResourceUser, ActionManage, ScopeGlobal),
}

// BuiltinRole pairs a role with the permission names it receives at
// bootstrap.
type BuiltinRole struct {
	Name        string
	Description string
	Permissions []string
}

// BuiltinRoles is the bootstrap role catalog. "customer" is granted to
// every sign-up; "owner" is granted when a restaurant is claimed;
// "admin" holds the global wildcard.
var BuiltinRoles = []BuiltinRole{
	{
		Name:        "admin",
		Description: "Full access to every resource",
		Permissions: []string{
			PermissionName(ResourceAny, ActionAny, ScopeGlobal),
		},
	},
	{
		Name:        "owner",
		Description: "Manages owned restaurants and their menus",
		Permissions: []string{
			PermissionName(ResourceRestaurant, ActionRead, ScopeGlobal),
			PermissionName(ResourceRestaurant, ActionManage, ScopeOwn),
			PermissionName(ResourceMenu, ActionRead, ScopeGlobal),
			PermissionName(ResourceMenu, ActionManage, ScopeOwn),
			PermissionName(ResourceReview, ActionRead, ScopeGlobal),
		},
	},
	{
		Name:        DefaultRoleName,
		Description: "Browses the marketplace and writes reviews",
		Permissions: []string{
			PermissionName(ResourceRestaurant, ActionRead, ScopeGlobal),
			PermissionName(ResourceMenu, ActionRead, ScopeGlobal),
			PermissionName(ResourceReview, ActionRead, ScopeGlobal),
			PermissionName(ResourceReview, ActionCreate, ScopeOwn),
			PermissionName(ResourceReview, ActionUpdate, ScopeOwn),
			PermissionName(ResourceReview, ActionDelete, ScopeOwn),
			PermissionName(ResourceUser, ActionRead, ScopeOwn),
			PermissionName(ResourceUser, ActionUpdate, ScopeOwn),
		},
	},
}

// Bootstrap upserts the builtin permission and role catalog. Safe to
// run on every startup.
func Bootstrap(ctx context.Context, store Store) error {
	byName := make(map[string]string, len(BuiltinPermissions))
	for i := range BuiltinPermissions {
		perm := BuiltinPermissions[i]
		if err := store.EnsurePermission(ctx, &perm); err != nil {
			return fmt.Errorf("ensure permission %s: %w", perm.Name, err)
		}
		byName[perm.Name] = perm.ID
	}
	for _, br := range BuiltinRoles {
		role := Role{Name: br.Name, Description: br.Description}
		for _, permName := range br.Permissions {
			id, ok := byName[permName]
			if !ok {
				return fmt.Errorf("role %s references unknown permission %s", br.Name, permName)
			}
			role.PermissionIDs = append(role.PermissionIDs, id)
		}
		if err := store.EnsureRole(ctx, &role); err != nil {
			return fmt.Errorf("ensure role %s: %w", br.Name, err)
		}
	}
	return nil
}
