package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishta-app/rishta-client/internal/api"
	"github.com/rishta-app/rishta-client/internal/config"
	"github.com/rishta-app/rishta-client/internal/creds"
	"github.com/rishta-app/rishta-client/internal/model"
	"github.com/rishta-app/rishta-client/internal/slice/auth"
	"github.com/rishta-app/rishta-client/internal/store"
)

func respond(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

// setup wires a real credential store (temp sqlite) and an auth slice
// against the given fake backend.
func setup(t *testing.T, handler http.Handler) (*auth.Slice, *creds.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.New()
	cfg.API.BaseURL = srv.URL

	credStore, err := creds.Open(filepath.Join(t.TempDir(), "creds.db"), "test")
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := api.New(cfg, credStore, log)
	slice := auth.New(store.New(), client, credStore, cfg, log)
	client.SetSessionExpiredHook(slice.ForceLogout)
	return slice, credStore
}

func loginHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login", "/auth/register":
			respond(w, map[string]any{
				"user":         model.User{ID: "u1", Name: "Asha", Email: "asha@example.com"},
				"accessToken":  "acc-1",
				"refreshToken": "ref-1",
			})
		case "/auth/me":
			respond(w, model.User{ID: "u1", Name: "Asha Sharma", Email: "asha@example.com"})
		default:
			respond(w, nil)
		}
	})
}

// The user record and the authenticated flag are always set together.
func TestLoginEstablishesSession(t *testing.T) {
	slice, credStore := setup(t, loginHandler(t))

	u, err := slice.Login(context.Background(), "asha@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	st := slice.State()
	assert.True(t, st.Authenticated)
	assert.Equal(t, "u1", st.User.ID)
	assert.True(t, st.Initialized)

	assert.Equal(t, "acc-1", credStore.AccessToken())
	assert.Equal(t, "ref-1", credStore.RefreshToken())
	persisted, ok := credStore.Profile()
	require.True(t, ok)
	assert.Equal(t, "u1", persisted.ID)
}

func TestLoginValidationNeverReachesNetwork(t *testing.T) {
	calls := 0
	slice, _ := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		respond(w, nil)
	}))

	_, err := slice.Login(context.Background(), "", "secret")
	require.Error(t, err)
	assert.Equal(t, 0, calls)

	st := slice.State()
	assert.False(t, st.Authenticated)
}

func TestRegisterPasswordMismatchRejectedLocally(t *testing.T) {
	calls := 0
	slice, _ := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		respond(w, nil)
	}))

	_, err := slice.Register(context.Background(), auth.RegisterInput{
		Name:            "Asha",
		Email:           "asha@example.com",
		Password:        "one",
		ConfirmPassword: "two",
	})
	require.Error(t, err)
	assert.Equal(t, 0, calls)
}

func TestLoginFailureRecordsServerMessage(t *testing.T) {
	slice, _ := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Invalid email or password"})
	}))

	_, err := slice.Login(context.Background(), "asha@example.com", "nope")
	require.Error(t, err)

	st := slice.State()
	assert.False(t, st.Authenticated)
	assert.Equal(t, "Invalid email or password", st.Status.Error)
}

func TestInitializeWithoutCredentialsIsAnonymous(t *testing.T) {
	slice, _ := setup(t, loginHandler(t))

	require.NoError(t, slice.Initialize(context.Background()))

	st := slice.State()
	assert.True(t, st.Initialized)
	assert.False(t, st.Authenticated)
	assert.Empty(t, st.User.ID)
}

func TestInitializeRestoresPersistedSession(t *testing.T) {
	slice, credStore := setup(t, loginHandler(t))
	now := time.Now()
	require.NoError(t, credStore.SetTokens("acc-1", now.Add(time.Hour), "ref-1", now.Add(24*time.Hour)))
	require.NoError(t, credStore.SaveProfile(model.User{ID: "u1", Name: "Asha"}))

	require.NoError(t, slice.Initialize(context.Background()))

	st := slice.State()
	assert.True(t, st.Authenticated)
	assert.True(t, st.Initialized)
	assert.Equal(t, "Asha Sharma", st.User.Name, "record refreshed from the backend")
}

func TestLogoutClearsSessionAndRunsPurge(t *testing.T) {
	slice, credStore := setup(t, loginHandler(t))
	purged := false
	slice.SetLogoutHook(func() { purged = true })

	_, err := slice.Login(context.Background(), "asha@example.com", "secret")
	require.NoError(t, err)

	slice.Logout(context.Background())

	st := slice.State()
	assert.False(t, st.Authenticated)
	assert.Empty(t, st.User.ID)
	assert.True(t, st.Initialized)
	assert.True(t, purged)
	assert.Empty(t, credStore.AccessToken())
	assert.Empty(t, credStore.RefreshToken())
}

func TestForceLogoutClearsSession(t *testing.T) {
	slice, _ := setup(t, loginHandler(t))
	purged := false
	slice.SetLogoutHook(func() { purged = true })

	_, err := slice.Login(context.Background(), "asha@example.com", "secret")
	require.NoError(t, err)

	slice.ForceLogout()

	st := slice.State()
	assert.False(t, st.Authenticated)
	assert.True(t, purged)
}

// failingCreds simulates a broken credential store; everything but
// SetTokens passes through to the real one.
type failingCreds struct{ *creds.Store }

func (failingCreds) SetTokens(string, time.Time, string, time.Time) error {
	return errors.New("disk full")
}

// A persist failure is logged, not fatal: the in-memory session still
// works, it just won't survive a restart.
func TestPersistFailureIsLoggedNotFatal(t *testing.T) {
	srv := httptest.NewServer(loginHandler(t))
	t.Cleanup(srv.Close)

	cfg := config.New()
	cfg.API.BaseURL = srv.URL

	credStore, err := creds.Open(filepath.Join(t.TempDir(), "creds.db"), "test")
	require.NoError(t, err)

	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))
	client := api.New(cfg, credStore, log)
	slice := auth.New(store.New(), client, failingCreds{credStore}, cfg, log)

	u, err := slice.Login(context.Background(), "asha@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.True(t, slice.State().Authenticated)

	assert.Contains(t, logs.String(), "failed to persist session tokens")
}

func TestCurrentUserID(t *testing.T) {
	slice, _ := setup(t, loginHandler(t))
	assert.Empty(t, slice.CurrentUserID())

	_, err := slice.Login(context.Background(), "asha@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", slice.CurrentUserID())
}
