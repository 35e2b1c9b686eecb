package auth

import "tms-portal/internal/models"

// RawRecord is a user row as read from a credential store.
type RawRecord struct {
	Username string
	Name     string
	Secret   string
	// IsHashed is set by the store when Secret already holds a bcrypt hash.
	IsHashed bool
	Role     string
}

// UserRecord is the canonical, hash-only form of a user.
type UserRecord struct {
	Username       string
	DisplayName    string
	CredentialHash string
	Role           models.UserRole
}

// Directory maps username to UserRecord.
type Directory map[string]UserRecord

// typicalCost returns the most common bcrypt cost in the directory, the
// smaller one on a tie, or fallback when the directory is empty.
func (d Directory) typicalCost(fallback int) int {
	counts := map[int]int{}
	for _, r := range d {
		counts[hashCost(r.CredentialHash, fallback)]++
	}

	best, bestN := fallback, 0
	for c, n := range counts {
		if n > bestN || (n == bestN && c < best) {
			best, bestN = c, n
		}
	}
	return best
}

// SessionIdentity describes who is behind the current request.
// The zero value is an anonymous visitor.
type SessionIdentity struct {
	Username      string          `json:"username,omitempty"`
	DisplayName   string          `json:"display_name,omitempty"`
	Role          models.UserRole `json:"role,omitempty"`
	Authenticated bool            `json:"authenticated"`
}

func (r UserRecord) identity() SessionIdentity {
	return SessionIdentity{
		Username:      r.Username,
		DisplayName:   r.DisplayName,
		Role:          r.Role,
		Authenticated: true,
	}
}

// Authorize reports whether the session is authenticated with exactly the
// required role.
func Authorize(s SessionIdentity, required models.UserRole) bool {
	return s.Authenticated && s.Role == required
}
