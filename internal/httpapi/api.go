package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"forkplace.org/internal/auth"
	"forkplace.org/internal/obs"
)

// ReadyProbe reports readiness, pinging the database when present.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// CookieConfig describes the refresh-token cookie.
type CookieConfig struct {
	Name   string
	MaxAge time.Duration
}

// Limits bounds inbound traffic.
type Limits struct {
	RatePerSecond int
	RateBurst     int
	MaxBodyBytes  int64
}

// API is the HTTP layer. It is glue: every decision is delegated to the
// session manager and the authorization engine.
type API struct {
	mux      *http.ServeMux
	sessions *auth.Sessions
	engine   *auth.Engine
	issuer   *auth.Issuer
	store    auth.Store
	ready    ReadyProbe
	version  string
	cookie   CookieConfig
	limits   Limits
}

// Config wires the API dependencies.
type Config struct {
	Sessions *auth.Sessions
	Engine   *auth.Engine
	Issuer   *auth.Issuer
	Store    auth.Store
	Ready    ReadyProbe
	Version  string
	Cookie   CookieConfig
	Limits   Limits
}

// New builds the API and registers routes.
func New(cfg Config) *API {
	a := &API{
		mux:      http.NewServeMux(),
		sessions: cfg.Sessions,
		engine:   cfg.Engine,
		issuer:   cfg.Issuer,
		store:    cfg.Store,
		ready:    cfg.Ready,
		version:  cfg.Version,
		cookie:   cfg.Cookie,
		limits:   cfg.Limits,
	}
	if a.cookie.Name == "" {
		a.cookie.Name = "forkplace_refresh"
	}
	if a.cookie.MaxAge <= 0 {
		a.cookie.MaxAge = 30 * 24 * time.Hour
	}

	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReadyz)
	a.mux.HandleFunc("/v1/info", a.handleInfo)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/auth/signup", a.handleSignUp)
	a.mux.HandleFunc("/v1/auth/signin", a.handleSignIn)
	a.mux.HandleFunc("/v1/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/v1/auth/signout", a.handleSignOut)

	a.mux.HandleFunc("/v1/me", a.handleMe)
	a.mux.HandleFunc("/v1/subjects/", a.handleSubjects)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	return a
}

// Handler returns the fully wrapped handler chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = obs.Instrument(h)
	h = Logging(h)
	if a.limits.MaxBodyBytes > 0 {
		h = MaxBodyBytes(h, a.limits.MaxBodyBytes)
	}
	if a.limits.RatePerSecond > 0 {
		h = RateLimit(h, a.limits.RateBurst, a.limits.RatePerSecond)
	}
	h = CORS(h)
	h = SecurityHeaders(h)
	return h
}

// --- service handlers ---

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "forkplace-auth",
		"version": a.version,
	})
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := a.ready.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "forkplace-auth",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
