package client

import (
	"context"
	"errors"
	"sync"
)

// SessionState describes where the session is in its lifecycle.
type SessionState int

const (
	// StateLoading means a stored credential is being resolved; callers
	// should wait rather than treat the user as signed out.
	StateLoading SessionState = iota
	StateAuthenticated
	StateAnonymous
)

func (s SessionState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Session tracks the current user across sign-in, sign-up and sign-out.
// It starts in StateLoading until Load resolves any stored credential.
type Session struct {
	api *Client

	mu    sync.RWMutex
	state SessionState
	user  *User
}

// NewSession returns a Session in StateLoading.
func NewSession(api *Client) *Session {
	return &Session{api: api, state: StateLoading}
}

// State returns the current session state. An authenticated session whose
// token has been evicted (the server answered 401/403 on some call) resolves
// to anonymous here, so the eviction is visible on the next state read.
func (s *Session) State() SessionState {
	s.mu.RLock()
	state := s.state
	s.mu.RUnlock()

	if state == StateAuthenticated && !s.credentialPresent() {
		s.setAnonymous()
		return StateAnonymous
	}
	return state
}

// User returns the signed-in user, or nil outside StateAuthenticated.
func (s *Session) User() *User {
	if s.State() != StateAuthenticated {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) credentialPresent() bool {
	_, ok := s.api.store.Token()
	return ok
}

// Load resolves the stored credential into a definite state. A rejected
// token resolves to anonymous without error; transport failures also resolve
// to anonymous but the error is returned so callers can retry.
func (s *Session) Load(ctx context.Context) error {
	if _, ok := s.api.store.Token(); !ok {
		s.setAnonymous()
		return nil
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		s.setAnonymous()
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			// The server rejected the token; it has already been evicted.
			return nil
		}
		return err
	}

	s.setAuthenticated(user)
	return nil
}

// SignIn authenticates with the given credentials. On failure the session
// becomes anonymous and the error, including any server detail, is returned.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	user, err := s.api.SignIn(ctx, email, password)
	if err != nil {
		s.setAnonymous()
		return err
	}

	s.setAuthenticated(user)
	return nil
}

// SignUp registers a new account. The session is not signed in; the caller
// is expected to present the sign-in flow next.
func (s *Session) SignUp(ctx context.Context, name, email, password string) error {
	_, err := s.api.SignUp(ctx, name, email, password)
	return err
}

// SignOut ends the session. The local state becomes anonymous even when the
// server-side logout fails; the error is still reported.
func (s *Session) SignOut(ctx context.Context) error {
	err := s.api.SignOut(ctx)
	s.setAnonymous()
	return err
}

func (s *Session) setAuthenticated(user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticated
	s.user = user
}

func (s *Session) setAnonymous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAnonymous
	s.user = nil
}
