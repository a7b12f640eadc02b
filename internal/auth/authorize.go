package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// OwnershipCheck resolves the owning identity for the request at hand.
// It is consulted only when no blanket permission matches; the resolved
// owner is compared as an opaque string against the subject's id.
type OwnershipCheck func(ctx context.Context) (string, error)

// OwnerID adapts a known owner identifier into an OwnershipCheck.
func OwnerID(id string) OwnershipCheck {
	return func(context.Context) (string, error) { return id, nil }
}

// Engine evaluates allow/deny decisions against the permission store.
type Engine struct {
	store Store
}

// NewEngine constructs an Engine.
func NewEngine(store Store) (*Engine, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	return &Engine{store: store}, nil
}

// Authorize maps (subject, resource, action) to a decision.
//
// Evaluation order: missing subject id denies ErrUnauthenticated;
// unknown subject denies ErrNotFound; a suspended subject denies
// ErrForbidden before any permission is consulted. A blanket match on
// (resource, action), (resource, manage) or (*, *) allows without an
// ownership check, regardless of the permission's stored scope. With no
// blanket match the ownership predicate decides; absent a predicate the
// result is deny. Storage failures deny with ErrInternal so the engine
// never fails open.
//
// On allow the resolved subject rides on the decision so the caller can
// skip a second lookup.
func (e *Engine) Authorize(ctx context.Context, subjectID, resource string, action Action, ownership OwnershipCheck) (Decision, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return Decision{Reason: "no subject"}, ErrUnauthenticated
	}

	subject, err := e.store.FindSubjectByID(ctx, subjectID)
	if errors.Is(err, ErrNotFound) {
		return Decision{Reason: "subject not found"}, ErrNotFound
	}
	if err != nil {
		return Decision{Reason: "subject lookup failed"}, fmt.Errorf("%w: find subject: %v", ErrInternal, err)
	}
	if subject.Suspended {
		return Decision{Reason: "subject suspended", Subject: subject}, ErrForbidden
	}

	perms, err := e.EffectivePermissions(ctx, subject)
	if err != nil {
		return Decision{Reason: "permission resolution failed"}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if grants(perms, resource, action) {
		return Decision{Allow: true, Reason: "granted", Subject: subject}, nil
	}

	if ownership != nil {
		owner, err := ownership(ctx)
		if err != nil || strings.TrimSpace(owner) == "" {
			return Decision{Reason: "owner unresolvable", Subject: subject}, ErrForbidden
		}
		if owner == subject.ID {
			return Decision{Allow: true, Reason: "owner", Subject: subject}, nil
		}
		return Decision{Reason: "not the owner", Subject: subject}, ErrForbidden
	}

	return Decision{Reason: "no matching grant", Subject: subject}, ErrForbidden
}
