package httpapi

import (
	"net/http"

	"forkplace.org/internal/audit"
	"forkplace.org/internal/auth"
	"forkplace.org/internal/obs"
)

type signUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	AccessToken string        `json:"access_token"`
	Subject     *auth.Subject `json:"subject"`
}

func (a *API) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req signUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.sessions.SignUp(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		obs.ObserveSessionOp("signup", "error")
		writeAuthError(w, err)
		return
	}
	obs.ObserveSessionOp("signup", "ok")
	obs.ObserveTokenIssued("access")
	obs.ObserveTokenIssued("refresh")
	_ = audit.LogEvent(r.Context(), "auth.signup", map[string]any{
		"subject_id": session.Subject.ID,
		"email":      session.Subject.Email,
	})
	a.setRefreshCookie(w, session.RefreshToken)
	writeJSON(w, http.StatusCreated, sessionResponse{
		AccessToken: session.AccessToken,
		Subject:     session.Subject,
	})
}

func (a *API) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req signInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.sessions.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.ObserveSessionOp("signin", "error")
		writeAuthError(w, err)
		return
	}
	obs.ObserveSessionOp("signin", "ok")
	obs.ObserveTokenIssued("access")
	obs.ObserveTokenIssued("refresh")
	_ = audit.LogEvent(r.Context(), "auth.signin", map[string]any{
		"subject_id": session.Subject.ID,
	})
	a.setRefreshCookie(w, session.RefreshToken)
	writeJSON(w, http.StatusOK, sessionResponse{
		AccessToken: session.AccessToken,
		Subject:     session.Subject,
	})
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	token := a.refreshTokenFromCookie(r)
	session, err := a.sessions.RefreshAccess(r.Context(), token)
	if err != nil {
		obs.ObserveSessionOp("refresh", "error")
		writeAuthError(w, err)
		return
	}
	obs.ObserveSessionOp("refresh", "ok")
	obs.ObserveTokenIssued("access")
	_ = audit.LogEvent(r.Context(), "auth.refresh", map[string]any{
		"subject_id": session.Subject.ID,
	})
	writeJSON(w, http.StatusOK, sessionResponse{
		AccessToken: session.AccessToken,
		Subject:     session.Subject,
	})
}

func (a *API) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	token := a.refreshTokenFromCookie(r)
	if err := a.sessions.SignOut(r.Context(), token); err != nil {
		obs.ObserveSessionOp("signout", "error")
		writeAuthError(w, err)
		return
	}
	obs.ObserveSessionOp("signout", "ok")
	_ = audit.LogEvent(r.Context(), "auth.signout", nil)
	a.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// setRefreshCookie stores the refresh token client-side. SameSite=None
// because the marketplace frontend runs on a different origin; Secure
// and HttpOnly are required for that combination to hold anywhere.
func (a *API) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookie.Name,
		Value:    token,
		Path:     "/v1/auth",
		MaxAge:   int(a.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (a *API) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookie.Name,
		Value:    "",
		Path:     "/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (a *API) refreshTokenFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(a.cookie.Name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
