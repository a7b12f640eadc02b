package auth

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordPolicy bounds accepted plaintext passwords. Pattern, when
// set, must match the whole password; letter/digit requirements are
// checked separately because RE2 has no lookahead.
type PasswordPolicy struct {
	MinLength     int
	MaxLength     int
	Pattern       *regexp.Regexp
	RequireLetter bool
	RequireDigit  bool
}

var (
	hasLetter = regexp.MustCompile(`[A-Za-z]`)
	hasDigit  = regexp.MustCompile(`[0-9]`)
)

// DefaultPasswordPolicy requires 8..72 printable characters with at
// least one letter and one digit. bcrypt truncates beyond 72 bytes,
// hence the upper bound.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:     8,
		MaxLength:     72,
		Pattern:       regexp.MustCompile(`^[\x20-\x7E]+$`),
		RequireLetter: true,
		RequireDigit:  true,
	}
}

// Validate reports whether the plaintext satisfies the policy.
func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, p.MinLength)
	}
	if p.MaxLength > 0 && len(password) > p.MaxLength {
		return fmt.Errorf("%w: password must be at most %d characters", ErrInvalidInput, p.MaxLength)
	}
	if p.Pattern != nil && !p.Pattern.MatchString(password) {
		return fmt.Errorf("%w: password contains unsupported characters", ErrInvalidInput)
	}
	if p.RequireLetter && !hasLetter.MatchString(password) {
		return fmt.Errorf("%w: password must contain a letter", ErrInvalidInput)
	}
	if p.RequireDigit && !hasDigit.MatchString(password) {
		return fmt.Errorf("%w: password must contain a digit", ErrInvalidInput)
	}
	return nil
}

// Hasher performs one-way password hashing with a fixed cost factor.
type Hasher struct {
	cost int
}

// NewHasher clamps cost into the range bcrypt accepts.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return Hasher{cost: cost}
}

// Hash produces a salted bcrypt hash of the plaintext.
func (h Hasher) Hash(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", fmt.Errorf("%w: password is empty", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("%w: hash password: %v", ErrInternal, err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches the stored hash. bcrypt
// comparison is constant-time with respect to the hash contents.
func (h Hasher) Verify(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
