package auth

import (
	"context"
	"fmt"
)

// EffectivePermissions loads the union of the subject's role
// permissions. Suspended subjects resolve to an empty set without
// touching the store; authorization then denies on the suspension flag
// before this result matters.
//
// Roles and permissions are fetched in two explicit steps (roles by id
// set, then permissions by id set) so the result is computed fresh per
// request and never served from a stale relational expansion.
func (e *Engine) EffectivePermissions(ctx context.Context, subject *Subject) ([]Permission, error) {
	if subject == nil || subject.Suspended || len(subject.RoleIDs) == 0 {
		return nil, nil
	}
	roles, err := e.store.RolesByID(ctx, subject.RoleIDs)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	seen := make(map[string]struct{})
	var permIDs []string
	for _, role := range roles {
		for _, id := range role.PermissionIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			permIDs = append(permIDs, id)
		}
	}
	if len(permIDs) == 0 {
		return nil, nil
	}
	perms, err := e.store.PermissionsByID(ctx, permIDs)
	if err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	return perms, nil
}

// grants reports whether any permission in the set covers the
// resource/action pair. Three matches count: the exact pair, manage on
// the resource, and the global wildcard. The set is a union, so match
// order does not affect the outcome, but manage and wildcard checks run
// even after an exact miss.
func grants(perms []Permission, resource string, action Action) bool {
	for _, p := range perms {
		switch {
		case p.Resource == resource && p.Action == action:
			return true
		case p.Resource == resource && p.Action == ActionManage:
			return true
		case p.Resource == ResourceAny && p.Action == ActionAny:
			return true
		}
	}
	return false
}
