package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStartsLoading(t *testing.T) {
	s := NewSession(New("http://localhost", NewMemoryStore()))
	assert.Equal(t, StateLoading, s.State())
	assert.Nil(t, s.User())
}

func TestSessionLoad(t *testing.T) {
	srv := authServer(t)
	defer srv.Close()

	t.Run("no stored token resolves anonymous", func(t *testing.T) {
		s := NewSession(New(srv.URL, NewMemoryStore()))
		require.NoError(t, s.Load(context.Background()))
		assert.Equal(t, StateAnonymous, s.State())
	})

	t.Run("valid token resolves authenticated", func(t *testing.T) {
		store := NewMemoryStore()
		store.SetToken("tok-123")
		s := NewSession(New(srv.URL, store))

		require.NoError(t, s.Load(context.Background()))
		assert.Equal(t, StateAuthenticated, s.State())
		assert.Equal(t, "Ada", s.User().Name)
	})

	t.Run("rejected token resolves anonymous without error", func(t *testing.T) {
		store := NewMemoryStore()
		store.SetToken("stale")
		s := NewSession(New(srv.URL, store))

		require.NoError(t, s.Load(context.Background()))
		assert.Equal(t, StateAnonymous, s.State())
		_, ok := store.Token()
		assert.False(t, ok)
	})
}

func TestSessionSignInFailureStaysAnonymous(t *testing.T) {
	srv := authServer(t)
	defer srv.Close()

	s := NewSession(New(srv.URL, NewMemoryStore()))
	err := s.SignIn(context.Background(), "ada@example.com", "bad")
	require.Error(t, err)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "Incorrect email or password", reqErr.Detail)
	assert.Equal(t, StateAnonymous, s.State())
	assert.Nil(t, s.User())
}

func TestSessionSignInSuccess(t *testing.T) {
	srv := authServer(t)
	defer srv.Close()

	s := NewSession(New(srv.URL, NewMemoryStore()))
	require.NoError(t, s.SignIn(context.Background(), "ada@example.com", "good"))
	assert.Equal(t, StateAuthenticated, s.State())
	assert.Equal(t, uint(1), s.User().ID)
}

func TestSessionSignUpDoesNotAuthenticate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(User{ID: 3, Name: "New", Email: "new@example.com"})
	})
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		t.Error("sign-up must not exchange credentials for a token")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := NewMemoryStore()
	s := NewSession(New(srv.URL, store))
	require.NoError(t, s.Load(context.Background()))

	require.NoError(t, s.SignUp(context.Background(), "New", "new@example.com", "longenough"))

	// The account exists but the user still has to sign in
	assert.Equal(t, StateAnonymous, s.State())
	assert.Nil(t, s.User())
	_, ok := store.Token()
	assert.False(t, ok)
}

func TestSessionReflectsTokenEviction(t *testing.T) {
	var revoked atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"access_token": "tok-123", "token_type": "bearer",
		})
	})
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		if revoked.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Token has been revoked"})
			return
		}
		_ = json.NewEncoder(w).Encode(User{ID: 1, Name: "Ada", IsActive: true})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store := NewMemoryStore()
	s := NewSession(New(srv.URL, store))
	require.NoError(t, s.SignIn(context.Background(), "ada@example.com", "good"))
	require.Equal(t, StateAuthenticated, s.State())

	// Server-side revocation: the next authenticated call gets a 401 and the
	// gateway evicts the stored token.
	revoked.Store(true)
	_, err := s.api.Me(context.Background())
	require.Error(t, err)
	_, ok := store.Token()
	require.False(t, ok)

	assert.Equal(t, StateAnonymous, s.State())
	assert.Nil(t, s.User())
}

func TestSessionSignOut(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	store := NewMemoryStore()
	store.SetToken("tok-123")
	s := NewSession(New(failing.URL, store))

	err := s.SignOut(context.Background())
	assert.Error(t, err)
	assert.Equal(t, StateAnonymous, s.State())
	_, ok := store.Token()
	assert.False(t, ok)
}

func TestGuardPendingWhileIdentityFetchOutstanding(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_ = json.NewEncoder(w).Encode(User{ID: 1, Name: "Ada", IsActive: true})
	}))
	defer srv.Close()

	store := NewMemoryStore()
	store.SetToken("tok-123")
	s := NewSession(New(srv.URL, store))
	guard := NewGuard(s)

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background()) }()

	// While the fetch is outstanding the guard must not deny
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, Pending, guard.Check())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, Allow, guard.Check())
}
