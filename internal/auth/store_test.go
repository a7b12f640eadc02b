package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"forkplace.org/internal/ids"
)

// fakeStore is an in-memory Store used by the engine and session tests.
// The Postgres implementation has its own sqlmock coverage.
type fakeStore struct {
	mu       sync.Mutex
	subjects map[string]*Subject
	roles    map[string]*Role
	perms    map[string]*Permission
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		subjects: make(map[string]*Subject),
		roles:    make(map[string]*Role),
		perms:    make(map[string]*Permission),
	}
}

func (f *fakeStore) CreateSubject(_ context.Context, s *Subject) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.subjects {
		if existing.Email == s.Email {
			return ErrConflict
		}
	}
	if s.ID == "" {
		s.ID = ids.New()
	}
	s.CreatedAt = time.Now().UTC()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	f.subjects[s.ID] = &cp
	return nil
}

func (f *fakeStore) FindSubjectByID(_ context.Context, id string) (*Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	s, ok := f.subjects[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) FindSubjectByEmail(_ context.Context, email string) (*Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, s := range f.subjects {
		if s.Email == email {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) FindSubjectByRefreshToken(_ context.Context, token string) (*Subject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	if token == "" {
		return nil, ErrNotFound
	}
	for _, s := range f.subjects {
		if s.RefreshToken == token {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) UpdateSubject(_ context.Context, id string, patch SubjectPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	s, ok := f.subjects[id]
	if !ok {
		return ErrNotFound
	}
	if patch.Name != nil {
		s.Name = *patch.Name
	}
	if patch.Email != nil {
		s.Email = *patch.Email
	}
	if patch.PasswordHash != nil {
		s.PasswordHash = *patch.PasswordHash
	}
	if patch.Suspended != nil {
		s.Suspended = *patch.Suspended
	}
	if patch.RefreshToken != nil {
		s.RefreshToken = *patch.RefreshToken
	}
	if patch.RoleIDs != nil {
		s.RoleIDs = append([]string(nil), patch.RoleIDs...)
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeStore) RolesByID(_ context.Context, roleIDs []string) ([]Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []Role
	for _, id := range roleIDs {
		if r, ok := f.roles[id]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) PermissionsByID(_ context.Context, permIDs []string) ([]Permission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []Permission
	for _, id := range permIDs {
		if p, ok := f.perms[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) FindRoleByName(_ context.Context, name string) (*Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, r := range f.roles {
		if r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) EnsurePermission(_ context.Context, p *Permission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.perms {
		if existing.Resource == p.Resource && existing.Action == p.Action && existing.Scope == p.Scope {
			p.ID = existing.ID
			return nil
		}
	}
	if p.ID == "" {
		p.ID = ids.New()
	}
	p.CreatedAt = time.Now().UTC()
	cp := *p
	f.perms[p.ID] = &cp
	return nil
}

func (f *fakeStore) EnsureRole(_ context.Context, r *Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for _, existing := range f.roles {
		if existing.Name == r.Name {
			existing.Description = r.Description
			existing.PermissionIDs = append([]string(nil), r.PermissionIDs...)
			r.ID = existing.ID
			return nil
		}
	}
	if r.ID == "" {
		r.ID = ids.New()
	}
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	cp.PermissionIDs = append([]string(nil), r.PermissionIDs...)
	f.roles[r.ID] = &cp
	return nil
}

// --- test fixture helpers ---

func (f *fakeStore) addPermission(t *testing.T, resource string, action Action, scope Scope) Permission {
	t.Helper()
	p := Permission{
		Name:     PermissionName(resource, action, scope),
		Resource: resource,
		Action:   action,
		Scope:    scope,
	}
	if err := f.EnsurePermission(context.Background(), &p); err != nil {
		t.Fatalf("ensure permission: %v", err)
	}
	return p
}

func (f *fakeStore) addRole(t *testing.T, name string, perms ...Permission) Role {
	t.Helper()
	r := Role{Name: name}
	for _, p := range perms {
		r.PermissionIDs = append(r.PermissionIDs, p.ID)
	}
	if err := f.EnsureRole(context.Background(), &r); err != nil {
		t.Fatalf("ensure role: %v", err)
	}
	return r
}

func (f *fakeStore) addSubject(t *testing.T, email string, roleIDs ...string) *Subject {
	t.Helper()
	s := &Subject{Name: "Test Subject", Email: email, PasswordHash: "x", RoleIDs: roleIDs}
	if err := f.CreateSubject(context.Background(), s); err != nil {
		t.Fatalf("create subject: %v", err)
	}
	return s
}

func newTestIssuer(t *testing.T) *Issuer {
	t.Helper()
	issuer, err := NewIssuer(IssuerConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	return issuer
}

func newTestHasher() Hasher {
	// MinCost keeps the bcrypt work factor out of the test runtime.
	return NewHasher(bcrypt.MinCost)
}
