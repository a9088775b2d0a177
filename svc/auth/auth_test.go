package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/txn"
	"github.com/dmitrymomot/tenantkit/svc/auth"
)

type noopTx struct{}

func (noopTx) Commit(context.Context) error   { return nil }
func (noopTx) Rollback(context.Context) error { return nil }

type noopBeginner struct{}

func (noopBeginner) Begin(context.Context) (txn.Tx, error) { return noopTx{}, nil }

type memStore struct {
	mu    sync.Mutex
	users map[string]auth.User
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]auth.User)}
}

func (s *memStore) CreateUser(_ context.Context, u auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Email] = u
	return nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return &u, nil
}

func newTestService(t *testing.T) *auth.Service {
	t.Helper()
	return auth.NewService(newMemStore(), txn.NewManager("test", noopBeginner{}), auth.Config{
		JWTSecret:      "test-secret",
		Issuer:         "test",
		AccessTokenTTL: time.Hour,
	})
}

func TestRegister(t *testing.T) {
	t.Parallel()

	t.Run("creates account with normalized email", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)

		u, err := svc.Register(context.Background(), auth.Credentials{
			Email: "  User@Example.COM ", Password: "correct horse",
		})
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", u.Email)
		assert.NotEmpty(t, u.PasswordHash)
		assert.NotEqual(t, "correct horse", string(u.PasswordHash))
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)

		creds := auth.Credentials{Email: "user@example.com", Password: "correct horse"}
		_, err := svc.Register(context.Background(), creds)
		require.NoError(t, err)

		_, err = svc.Register(context.Background(), creds)
		assert.ErrorIs(t, err, auth.ErrEmailTaken)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)

		_, err := svc.Register(context.Background(), auth.Credentials{
			Email: "not-an-email", Password: "correct horse",
		})
		assert.ErrorIs(t, err, auth.ErrInvalidEmail)
	})

	t.Run("rejects short password", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t)

		_, err := svc.Register(context.Background(), auth.Credentials{
			Email: "user@example.com", Password: "short",
		})
		assert.ErrorIs(t, err, auth.ErrWeakPassword)
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	creds := auth.Credentials{Email: "user@example.com", Password: "correct horse"}
	_, err := svc.Register(context.Background(), creds)
	require.NoError(t, err)

	t.Run("issues verifiable token", func(t *testing.T) {
		t.Parallel()

		token, err := svc.Login(context.Background(), creds)
		require.NoError(t, err)
		assert.Equal(t, "Bearer", token.TokenType)
		assert.True(t, token.ExpiresAt.After(time.Now()))

		email, err := svc.VerifyToken(context.Background(), token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", email)
	})

	t.Run("wrong password", func(t *testing.T) {
		t.Parallel()

		_, err := svc.Login(context.Background(), auth.Credentials{
			Email: creds.Email, Password: "wrong password",
		})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("unknown email fails the same way", func(t *testing.T) {
		t.Parallel()

		_, err := svc.Login(context.Background(), auth.Credentials{
			Email: "ghost@example.com", Password: "correct horse",
		})
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestVerifyToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	_, err := svc.VerifyToken(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	creds := auth.Credentials{Email: "user@example.com", Password: "correct horse"}
	_, err := svc.Register(context.Background(), creds)
	require.NoError(t, err)
	token, err := svc.Login(context.Background(), creds)
	require.NoError(t, err)

	handler := svc.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if email, ok := auth.EmailFromContext(r.Context()); ok {
			w.Header().Set("X-Test-Email", email)
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token sets identity", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user@example.com", w.Header().Get("X-Test-Email"))
	})

	t.Run("no header passes through anonymously", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-Test-Email"))
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non-bearer scheme is rejected", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("require user gate", func(t *testing.T) {
		t.Parallel()

		gated := auth.RequireUser()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()
		gated.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(auth.WithEmail(req.Context(), "user@example.com"))
		w = httptest.NewRecorder()
		gated.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
