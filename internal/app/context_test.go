package app_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishta-app/rishta-client/internal/app"
	"github.com/rishta-app/rishta-client/internal/config"
	"github.com/rishta-app/rishta-client/internal/creds"
	"github.com/rishta-app/rishta-client/internal/model"
)

func respond(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func reject(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}

func newApp(t *testing.T, handler http.Handler) *app.Context {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.New()
	cfg.API.BaseURL = srv.URL

	credStore, err := creds.Open(filepath.Join(t.TempDir(), "creds.db"), "test")
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return app.New(cfg, credStore, log)
}

// A rejected refresh tears down the session globally: auth goes
// anonymous and every slice's per-user cache is purged.
func TestExpiredSessionForcesLogoutAndPurges(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			respond(w, map[string]any{
				"user":         model.User{ID: "u1", Name: "Asha"},
				"accessToken":  "acc-1",
				"refreshToken": "ref-1",
			})
		case "/chat/rooms":
			respond(w, []model.Room{{CounterpartID: "c1", UnreadCount: 2}})
		case "/auth/refresh-token":
			reject(w, http.StatusUnauthorized, "refresh token revoked")
		case "/matches":
			reject(w, http.StatusUnauthorized, "token expired")
		default:
			respond(w, nil)
		}
	})
	a := newApp(t, handler)
	ctx := context.Background()

	_, err := a.Auth.Login(ctx, "asha@example.com", "secret")
	require.NoError(t, err)
	_, err = a.Messaging.GetChatRooms(ctx)
	require.NoError(t, err)
	require.Len(t, a.Messaging.State().Rooms, 1)

	// Simulate token expiry between calls: the access token is now
	// rejected and so is the refresh.
	require.NoError(t, a.Creds.SetAccessToken("stale", time.Now().Add(time.Hour)))

	_, err = a.Matches.GetMatches(ctx)
	require.Error(t, err)

	assert.False(t, a.Auth.State().Authenticated)
	assert.Empty(t, a.Creds.RefreshToken())
	assert.Empty(t, a.Messaging.State().Rooms, "chat cache purged on forced logout")
	assert.Empty(t, a.Notification.State().Items)
}

// Logging out as one user and in as another never leaks cached state
// across the identity change.
func TestUserSwitchDoesNotLeakState(t *testing.T) {
	user := "u1"
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			respond(w, map[string]any{
				"user":         model.User{ID: user, Name: "User " + user},
				"accessToken":  "acc-" + user,
				"refreshToken": "ref-" + user,
			})
		case "/chat/rooms":
			respond(w, []model.Room{{CounterpartID: "c-" + user, UnreadCount: 1}})
		default:
			respond(w, nil)
		}
	})
	a := newApp(t, handler)
	ctx := context.Background()

	_, err := a.Auth.Login(ctx, "one@example.com", "secret")
	require.NoError(t, err)
	_, err = a.Messaging.GetChatRooms(ctx)
	require.NoError(t, err)

	a.Auth.Logout(ctx)
	assert.Empty(t, a.Messaging.State().Rooms)

	user = "u2"
	_, err = a.Auth.Login(ctx, "two@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, "u2", a.Auth.State().User.ID)
	assert.Empty(t, a.Messaging.State().Rooms, "previous user's rooms are gone")

	_, err = a.Messaging.GetChatRooms(ctx)
	require.NoError(t, err)
	require.Len(t, a.Messaging.State().Rooms, 1)
	assert.Equal(t, "c-u2", a.Messaging.State().Rooms[0].CounterpartID)
}

// SendMessage resolves the sender through the live session while the
// confirmation commit is in flight; the round trip must complete under
// the real wiring, where self() reads through the shared store.
func TestSendMessageCompletesUnderFullWiring(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			respond(w, map[string]any{
				"user":         model.User{ID: "u1", Name: "Asha"},
				"accessToken":  "acc-1",
				"refreshToken": "ref-1",
			})
		case "/chat/messages":
			respond(w, model.Message{ID: "srv-1", SenderID: "u1", ReceiverID: "c1", Content: "hello"})
		default:
			respond(w, nil)
		}
	})
	a := newApp(t, handler)
	ctx := context.Background()

	_, err := a.Auth.Login(ctx, "asha@example.com", "secret")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := a.Messaging.SendMessage(ctx, "c1", "hello")
		assert.NoError(t, err)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SendMessage did not complete")
	}

	st := a.Messaging.State()
	require.Len(t, st.Buckets["c1"], 1)
	assert.Equal(t, "srv-1", st.Buckets["c1"][0].ID)
}
