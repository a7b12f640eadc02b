package httpapi

import (
	"net/http"
	"strings"

	"forkplace.org/internal/audit"
	"forkplace.org/internal/auth"
)

// handleMe returns the authenticated subject's own record. It runs the
// ownership path of the engine: "user read" is an own-scoped grant, so
// the predicate resolves the owner to the caller itself.
func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	decision, ok := a.authorize(w, r, auth.ResourceUser, auth.ActionRead, auth.OwnerID(identity.SubjectID))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, decision.Subject)
}

type suspendRequest struct {
	Suspended bool `json:"suspended"`
}

// handleSubjects routes /v1/subjects/{id}/suspend. Suspension requires
// a blanket "user manage" grant; there is no ownership fallback, a
// subject cannot suspend itself into or out of existence.
func (a *API) handleSubjects(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/subjects/"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "suspend" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	subjectID := parts[0]

	if _, ok := a.authorize(w, r, auth.ResourceUser, auth.ActionManage, nil); !ok {
		_ = audit.LogEvent(r.Context(), "authz.denied", map[string]any{
			"resource": auth.ResourceUser,
			"action":   string(auth.ActionManage),
			"target":   subjectID,
		})
		return
	}

	var req suspendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch := auth.SubjectPatch{Suspended: &req.Suspended}
	if err := a.store.UpdateSubject(r.Context(), subjectID, patch); err != nil {
		writeAuthError(w, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "subject.suspend", map[string]any{
		"target":    subjectID,
		"suspended": req.Suspended,
	})
	w.WriteHeader(http.StatusNoContent)
}
