package auth

import "errors"

var (
	// ErrInvalidInput rejects malformed arguments before any storage
	// or crypto work happens.
	ErrInvalidInput = errors.New("auth: invalid input")
	// ErrUnauthenticated means no usable credential was presented.
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	// ErrInvalidCredentials covers both unknown email and password
	// mismatch at sign-in; the two are intentionally indistinguishable.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrForbidden means the subject is authenticated but not permitted.
	ErrForbidden = errors.New("auth: forbidden")
	// ErrConflict means a unique field is already taken.
	ErrConflict = errors.New("auth: conflict")
	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("auth: not found")
	// ErrInternal wraps unexpected storage or crypto failures.
	// Authorization never fails open: internal errors surface as deny.
	ErrInternal = errors.New("auth: internal error")

	// Token verification failures. Callers react differently to each:
	// an expired refresh token forces re-login, a malformed one is
	// rejected outright.
	ErrTokenInvalid   = errors.New("auth: token invalid")
	ErrTokenExpired   = errors.New("auth: token expired")
	ErrTokenMalformed = errors.New("auth: token malformed")
)
