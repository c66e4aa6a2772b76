// Package identity reports who the current user is and whether the session
// is an impersonated support session.
package identity

import (
	"errors"
	"sync"
)

// KeyPrefix prefixes every persisted snapshot key.
const KeyPrefix = "redux-state-"

// ErrNotAuthenticated indicates an operation that needs a user ran without one.
var ErrNotAuthenticated = errors.New("not authenticated")

// User is the authenticated user.
type User struct {
	ID string `json:"id" yaml:"id"`
}

// Oracle answers identity questions for the rehydration controller.
type Oracle interface {
	// CurrentUser returns the authenticated user, or nil when logged out.
	CurrentUser() *User

	// IsSupportSession reports whether a support agent is acting on behalf
	// of the user.
	IsSupportSession() bool
}

// Authenticated reports whether u identifies a logged-in user.
func Authenticated(u *User) bool {
	return u != nil && u.ID != ""
}

// Key returns the persistence key for u.
func Key(u *User) string {
	return KeyPrefix + u.ID
}

// KeyFor returns the persistence key for a raw user ID.
func KeyFor(id string) string {
	return KeyPrefix + id
}

// Static is an Oracle whose answers are set explicitly.
type Static struct {
	mu      sync.RWMutex
	user    *User
	support bool
}

// NewStatic creates a Static oracle. An empty id means logged out.
func NewStatic(id string, support bool) *Static {
	s := &Static{support: support}
	if id != "" {
		s.user = &User{ID: id}
	}
	return s
}

// CurrentUser returns a copy of the configured user.
func (s *Static) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsSupportSession returns the configured support flag.
func (s *Static) IsSupportSession() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.support
}

// LogIn switches the current user.
func (s *Static) LogIn(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &User{ID: id}
}

// LogOut clears the current user.
func (s *Static) LogOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}

// SetSupportSession toggles impersonation.
func (s *Static) SetSupportSession(support bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.support = support
}
