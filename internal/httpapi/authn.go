package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"forkplace.org/internal/auth"
	"forkplace.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/",
	"/healthz",
	"/readyz",
	"/metrics",
	"/v1/info",
	"/v1/auth/signup",
	"/v1/auth/signin",
	"/v1/auth/refresh",
	"/v1/auth/signout",
}

// withAuth verifies the bearer access token on protected paths and
// attaches the decoded identity to the request context. Authorization
// proper happens per handler via the engine.
func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.issuer == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			obs.ObserveAuthzDecision("unauthenticated")
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := a.issuer.Verify(token, auth.TokenAccess)
		if err != nil {
			obs.ObserveAuthzDecision("unauthenticated")
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				writeError(w, http.StatusUnauthorized, "token expired")
			case errors.Is(err, auth.ErrTokenMalformed):
				writeError(w, http.StatusUnauthorized, "token malformed")
			default:
				writeError(w, http.StatusUnauthorized, "token invalid")
			}
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), auth.Identity{
			SubjectID: claims.Subject,
			Roles:     claims.Roles,
		})
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authorize runs the engine for the authenticated subject and writes
// the failure response itself. Returns the decision and whether the
// handler may proceed.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, resource string, action auth.Action, ownership auth.OwnershipCheck) (auth.Decision, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		obs.ObserveAuthzDecision("unauthenticated")
		writeError(w, http.StatusUnauthorized, "authentication required")
		return auth.Decision{}, false
	}
	decision, err := a.engine.Authorize(r.Context(), identity.SubjectID, resource, action, ownership)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrForbidden):
			obs.ObserveAuthzDecision("forbidden")
		case errors.Is(err, auth.ErrNotFound):
			obs.ObserveAuthzDecision("not_found")
		case errors.Is(err, auth.ErrUnauthenticated):
			obs.ObserveAuthzDecision("unauthenticated")
		default:
			obs.ObserveAuthzDecision("error")
		}
		writeAuthError(w, err)
		return decision, false
	}
	obs.ObserveAuthzDecision("allow")
	return decision, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
