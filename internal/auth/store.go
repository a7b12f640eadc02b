package auth

import "context"

// Store describes the persistence operations the auth core depends on.
// Implementations return ErrNotFound for missing entities and
// ErrConflict for unique-constraint violations; every other failure is
// surfaced as-is and treated as internal by the callers.
type Store interface {
	CreateSubject(ctx context.Context, s *Subject) error
	FindSubjectByID(ctx context.Context, id string) (*Subject, error)
	FindSubjectByEmail(ctx context.Context, email string) (*Subject, error)
	// FindSubjectByRefreshToken matches the persisted token value
	// byte-for-byte; superseded or cleared tokens no longer resolve.
	FindSubjectByRefreshToken(ctx context.Context, token string) (*Subject, error)
	UpdateSubject(ctx context.Context, id string, patch SubjectPatch) error

	// RolesByID and PermissionsByID are the two halves of the explicit
	// role -> permission fetch; unknown ids are skipped, not errors.
	RolesByID(ctx context.Context, ids []string) ([]Role, error)
	PermissionsByID(ctx context.Context, ids []string) ([]Permission, error)

	FindRoleByName(ctx context.Context, name string) (*Role, error)
	// EnsurePermission upserts by (resource, action, scope) and fills
	// in the permission ID. Idempotent, used at bootstrap.
	EnsurePermission(ctx context.Context, p *Permission) error
	// EnsureRole upserts by unique name and replaces the permission
	// set. Idempotent, used at bootstrap.
	EnsureRole(ctx context.Context, r *Role) error
}
