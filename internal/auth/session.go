package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultRoleName is assigned to every new sign-up.
const DefaultRoleName = "customer"

// Sessions orchestrates the token session lifecycle: sign-up, sign-in,
// access refresh and sign-out. Each subject carries a single persisted
// refresh token acting as a whitelist of one: overwriting or clearing
// it invalidates whatever was issued before. Concurrent sign-ins race
// on that slot and the last writer wins.
type Sessions struct {
	store       Store
	issuer      *Issuer
	hasher      Hasher
	policy      PasswordPolicy
	defaultRole string
}

// SessionsOption configures Sessions.
type SessionsOption func(*Sessions)

// WithPasswordPolicy overrides the sign-up password policy.
func WithPasswordPolicy(p PasswordPolicy) SessionsOption {
	return func(s *Sessions) { s.policy = p }
}

// WithDefaultRole overrides the role granted at sign-up.
func WithDefaultRole(name string) SessionsOption {
	return func(s *Sessions) {
		if strings.TrimSpace(name) != "" {
			s.defaultRole = name
		}
	}
}

// NewSessions constructs the session manager.
func NewSessions(store Store, issuer *Issuer, hasher Hasher, opts ...SessionsOption) (*Sessions, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if issuer == nil {
		return nil, errors.New("auth: token issuer is required")
	}
	s := &Sessions{
		store:       store,
		issuer:      issuer,
		hasher:      hasher,
		policy:      DefaultPasswordPolicy(),
		defaultRole: DefaultRoleName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SignUp registers a new subject, grants the default role and opens a
// session. A duplicate email fails with ErrConflict before any token is
// issued.
func (s *Sessions) SignUp(ctx context.Context, name, email, password string) (Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return Session{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if email == "" || !strings.Contains(email, "@") {
		return Session{}, fmt.Errorf("%w: valid email is required", ErrInvalidInput)
	}
	if err := s.policy.Validate(password); err != nil {
		return Session{}, err
	}

	if _, err := s.store.FindSubjectByEmail(ctx, email); err == nil {
		return Session{}, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return Session{}, fmt.Errorf("%w: find subject: %v", ErrInternal, err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return Session{}, err
	}

	var roleIDs []string
	role, err := s.store.FindRoleByName(ctx, s.defaultRole)
	switch {
	case err == nil:
		roleIDs = []string{role.ID}
	case errors.Is(err, ErrNotFound):
		// Bootstrap has not seeded the role; the subject starts with
		// no grants and relies on ownership checks.
	default:
		return Session{}, fmt.Errorf("%w: find default role: %v", ErrInternal, err)
	}

	subject := &Subject{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		RoleIDs:      roleIDs,
	}
	if err := s.store.CreateSubject(ctx, subject); err != nil {
		if errors.Is(err, ErrConflict) {
			return Session{}, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return Session{}, fmt.Errorf("%w: create subject: %v", ErrInternal, err)
	}

	return s.openSession(ctx, subject)
}

// SignIn authenticates credentials and opens a fresh session,
// overwriting any previously stored refresh token. Unknown email and
// password mismatch fail identically with ErrInvalidCredentials.
func (s *Sessions) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	subject, err := s.store.FindSubjectByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("%w: find subject: %v", ErrInternal, err)
	}
	if !s.hasher.Verify(password, subject.PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}
	if subject.Suspended {
		return Session{}, fmt.Errorf("%w: subject suspended", ErrForbidden)
	}
	return s.openSession(ctx, subject)
}

// RefreshAccess mints a new access token for a presented refresh token.
// The token must equal the subject's currently stored value byte for
// byte: a token superseded by a later sign-in or cleared by sign-out is
// rejected even while its signature is still valid. The refresh token
// itself is not rotated here.
func (s *Sessions) RefreshAccess(ctx context.Context, refreshToken string) (Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return Session{}, ErrUnauthenticated
	}
	subject, err := s.store.FindSubjectByRefreshToken(ctx, refreshToken)
	if errors.Is(err, ErrNotFound) {
		return Session{}, fmt.Errorf("%w: refresh token not recognized", ErrForbidden)
	}
	if err != nil {
		return Session{}, fmt.Errorf("%w: find subject: %v", ErrInternal, err)
	}
	if _, err := s.issuer.Verify(refreshToken, TokenRefresh); err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	if subject.Suspended {
		return Session{}, fmt.Errorf("%w: subject suspended", ErrForbidden)
	}

	roles, err := s.roleNames(ctx, subject)
	if err != nil {
		return Session{}, fmt.Errorf("%w: resolve roles: %v", ErrInternal, err)
	}
	access, accessExp, err := s.issuer.IssueAccess(subject.ID, roles)
	if err != nil {
		return Session{}, err
	}
	return Session{
		AccessToken:     access,
		AccessExpiresAt: accessExp,
		RefreshToken:    refreshToken,
		Subject:         subject,
	}, nil
}

// SignOut clears the subject's stored refresh token so future refreshes
// with it fail at the match step. Idempotent: an unknown or empty token
// is a no-op success.
func (s *Sessions) SignOut(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	subject, err := s.store.FindSubjectByRefreshToken(ctx, refreshToken)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: find subject: %v", ErrInternal, err)
	}
	cleared := ""
	if err := s.store.UpdateSubject(ctx, subject.ID, SubjectPatch{RefreshToken: &cleared}); err != nil {
		return fmt.Errorf("%w: clear refresh token: %v", ErrInternal, err)
	}
	return nil
}

// openSession mints both tokens and persists the refresh token on the
// subject record. Minting happens before the write so a failed issuance
// leaves no half-applied session behind.
func (s *Sessions) openSession(ctx context.Context, subject *Subject) (Session, error) {
	roles, err := s.roleNames(ctx, subject)
	if err != nil {
		return Session{}, fmt.Errorf("%w: resolve roles: %v", ErrInternal, err)
	}
	access, accessExp, err := s.issuer.IssueAccess(subject.ID, roles)
	if err != nil {
		return Session{}, err
	}
	refresh, refreshExp, err := s.issuer.IssueRefresh(subject.ID)
	if err != nil {
		return Session{}, err
	}
	if err := s.store.UpdateSubject(ctx, subject.ID, SubjectPatch{RefreshToken: &refresh}); err != nil {
		return Session{}, fmt.Errorf("%w: store refresh token: %v", ErrInternal, err)
	}
	subject.RefreshToken = refresh
	return Session{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
		Subject:          subject,
	}, nil
}

func (s *Sessions) roleNames(ctx context.Context, subject *Subject) ([]string, error) {
	if len(subject.RoleIDs) == 0 {
		return nil, nil
	}
	roles, err := s.store.RolesByID(ctx, subject.RoleIDs)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names, nil
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
