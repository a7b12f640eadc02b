package auth

import "time"

// Action is an operation on a protected resource. ActionManage subsumes
// the four CRUD actions for its resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
	ActionAny    Action = "*"
)

// ResourceAny matches every resource when paired with ActionAny.
const ResourceAny = "*"

// Scope declares the breadth of a grant. Stored on every permission;
// the blanket allow path does not currently enforce it (see Authorize).
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeOwn    Scope = "own"
)

// Permission is a fine-grained capability on a resource.
type Permission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Resource  string    `json:"resource"`
	Action    Action    `json:"action"`
	Scope     Scope     `json:"scope"`
	CreatedAt time.Time `json:"created_at"`
}

// Role groups permissions under a unique name.
type Role struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	PermissionIDs []string  `json:"permission_ids,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Subject is an account holder. RefreshToken holds the single currently
// valid long-lived credential; an empty value means no active session.
type Subject struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RoleIDs      []string  `json:"role_ids,omitempty"`
	Suspended    bool      `json:"suspended"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Decision is the outcome of an authorization check. On Allow the
// resolved subject is carried along so callers can avoid a second
// lookup.
type Decision struct {
	Allow   bool     `json:"allow"`
	Reason  string   `json:"reason"`
	Subject *Subject `json:"-"`
}

// Session is the result of a successful sign-up, sign-in or refresh.
type Session struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
	Subject          *Subject  `json:"subject"`
}

// SubjectPatch is a partial update applied by Store.UpdateSubject.
// Nil fields are left untouched; a non-nil empty RefreshToken clears
// the stored token.
type SubjectPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	RoleIDs      []string
	Suspended    *bool
	RefreshToken *string
}
