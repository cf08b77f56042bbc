// Package client is the cart client view: an explicit login session, an
// HTTP client for the cart API and a view that keeps the last authoritative
// cart plus local coupon state.
package client

import (
	"errors"
	"strings"
	"sync"
)

// ErrLoginRequired is returned for any gesture made without a logged-in user.
var ErrLoginRequired = errors.New("please login to view your cart")

// Session holds the identity of the logged-in user.
type Session struct {
	mu     sync.RWMutex
	userID string
}

// NewSession returns a logged-out session.
func NewSession() *Session {
	return &Session{}
}

// Login starts the session for userID.
func (s *Session) Login(userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrLoginRequired
	}
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
	return nil
}

// Logout ends the session.
func (s *Session) Logout() {
	s.mu.Lock()
	s.userID = ""
	s.mu.Unlock()
}

// UserID returns the logged-in user, if any.
func (s *Session) UserID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.userID != ""
}
