package auth

import "sync"

// Session is the in-memory holder of the current credential and the identity
// decoded from it. It is the authoritative copy; the persisted copies mirror
// it. Only the Manager mutates it.
type Session struct {
	mu       sync.RWMutex
	token    string
	identity *Identity
}

// NewSession returns an empty (logged out) session.
func NewSession() *Session {
	return &Session{}
}

// Token returns the current credential, or ErrNotLoggedIn. It satisfies
// fbapi.TokenSource so outbound requests carry the credential.
func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", ErrNotLoggedIn
	}

	return s.token, nil
}

// Identity returns a copy of the authenticated identity, or nil when logged
// out.
func (s *Session) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.identity == nil {
		return nil
	}

	id := *s.identity

	return &id
}

// LoggedIn reports whether the session holds a credential.
func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token != ""
}

func (s *Session) set(token string, identity *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.identity = identity
}

func (s *Session) clear() {
	s.set("", nil)
}
