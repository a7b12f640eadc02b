package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind selects which secret and lifetime a token is bound to.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// Claims are the JWT claims carried by both token kinds. Roles are only
// present on access tokens.
type Claims struct {
	Roles     []string `json:"roles,omitempty"`
	TokenType string   `json:"token_type"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies access and refresh tokens with HS256.
// The two kinds use independent secrets so a leaked access secret
// cannot forge long-lived refresh tokens.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// IssuerConfig carries the token signing configuration.
type IssuerConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

const (
	defaultAccessTTL  = 10 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
	defaultIssuer     = "forkplace"
)

// NewIssuer validates the configuration and constructs an Issuer.
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	access := strings.TrimSpace(cfg.AccessSecret)
	refresh := strings.TrimSpace(cfg.RefreshSecret)
	if access == "" || refresh == "" {
		return nil, errors.New("auth: both access and refresh secrets are required")
	}
	if access == refresh {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	iss := &Issuer{
		accessSecret:  []byte(access),
		refreshSecret: []byte(refresh),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        strings.TrimSpace(cfg.Issuer),
		now:           time.Now,
	}
	if iss.accessTTL <= 0 {
		iss.accessTTL = defaultAccessTTL
	}
	if iss.refreshTTL <= 0 {
		iss.refreshTTL = defaultRefreshTTL
	}
	if iss.issuer == "" {
		iss.issuer = defaultIssuer
	}
	return iss, nil
}

// WithClock overrides the time source. Test hook.
func (i *Issuer) WithClock(fn func() time.Time) *Issuer {
	if fn != nil {
		i.now = fn
	}
	return i
}

// AccessTTL reports the configured access token lifetime.
func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

// RefreshTTL reports the configured refresh token lifetime.
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssueAccess signs a short-lived access token carrying the subject's
// role names.
func (i *Issuer) IssueAccess(subjectID string, roles []string) (string, time.Time, error) {
	return i.issue(subjectID, roles, TokenAccess, i.accessSecret, i.accessTTL)
}

// IssueRefresh signs a long-lived refresh token. It carries only the
// subject identifier: roles are re-resolved when the token is used.
func (i *Issuer) IssueRefresh(subjectID string) (string, time.Time, error) {
	return i.issue(subjectID, nil, TokenRefresh, i.refreshSecret, i.refreshTTL)
}

func (i *Issuer) issue(subjectID string, roles []string, kind TokenKind, secret []byte, ttl time.Duration) (string, time.Time, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return "", time.Time{}, fmt.Errorf("%w: subject id is required", ErrInvalidInput)
	}
	now := i.now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		Roles:     roles,
		TokenType: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: sign %s token: %v", ErrInternal, kind, err)
	}
	return signed, exp, nil
}

// Verify checks signature, expiry and token type for the given kind.
// Failures are distinguished: ErrTokenExpired for lapsed tokens,
// ErrTokenMalformed for undecodable input, ErrTokenInvalid otherwise.
func (i *Issuer) Verify(token string, kind TokenKind) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenMalformed
	}
	secret := i.accessSecret
	if kind == TokenRefresh {
		secret = i.refreshSecret
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, ErrTokenInvalid
		}
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.TokenType != string(kind) {
		return nil, ErrTokenInvalid
	}
	if claims.Issuer != i.issuer {
		return nil, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
