package admin_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishta-app/rishta-client/internal/api"
	"github.com/rishta-app/rishta-client/internal/config"
	"github.com/rishta-app/rishta-client/internal/model"
	"github.com/rishta-app/rishta-client/internal/slice/admin"
	"github.com/rishta-app/rishta-client/internal/store"
)

type staticTokens struct{}

func (staticTokens) AccessToken() string                    { return "test-token" }
func (staticTokens) RefreshToken() string                   { return "" }
func (staticTokens) SetAccessToken(string, time.Time) error { return nil }
func (staticTokens) Clear() error                           { return nil }

func newSlice(t *testing.T, handler http.Handler) *admin.Slice {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.New()
	cfg.API.BaseURL = srv.URL
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := api.New(cfg, staticTokens{}, log)
	return admin.New(store.New(), client, log)
}

func respond(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func consoleHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/stats":
			respond(w, model.AdminStats{TotalUsers: 120, PendingVerifications: 2})
		case "/admin/users":
			respond(w, []model.AdminUser{
				{User: model.User{ID: "u1", Name: "Asha"}},
				{User: model.User{ID: "u2", Name: "Ravi"}, Banned: true},
			})
		default:
			respond(w, nil)
		}
	})
}

func TestBanFlipsLocalRow(t *testing.T) {
	slice := newSlice(t, consoleHandler())
	ctx := context.Background()

	_, err := slice.ListUsers(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, slice.BanUser(ctx, "u1"))
	st := slice.State()
	assert.True(t, st.Users[0].Banned)
	assert.True(t, st.Users[1].Banned, "other rows untouched")

	require.NoError(t, slice.UnbanUser(ctx, "u2"))
	assert.False(t, slice.State().Users[1].Banned)
}

func TestApproveVerificationDecrementsPendingWithFloor(t *testing.T) {
	slice := newSlice(t, consoleHandler())
	ctx := context.Background()

	_, err := slice.GetDashboardStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, slice.State().Stats.PendingVerifications)

	require.NoError(t, slice.ApproveVerification(ctx, "v1"))
	require.NoError(t, slice.RejectVerification(ctx, "v2", "blurry document"))
	assert.Equal(t, 0, slice.State().Stats.PendingVerifications)

	// Already at zero; another approval never goes negative.
	require.NoError(t, slice.ApproveVerification(ctx, "v3"))
	assert.Equal(t, 0, slice.State().Stats.PendingVerifications)
}

func TestFailureRaisesBannerUntilDismissed(t *testing.T) {
	slice := newSlice(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "Admin access required"})
	}))

	_, err := slice.GetDashboardStats(context.Background())
	require.Error(t, err)

	st := slice.State()
	assert.Equal(t, "Admin access required", st.Banner)
	assert.Equal(t, "Admin access required", st.Status.Error)

	slice.DismissBanner()
	st = slice.State()
	assert.Empty(t, st.Banner)
	assert.Equal(t, "Admin access required", st.Status.Error, "status keeps the last error")
}

func TestListUsersPagination(t *testing.T) {
	var path string
	slice := newSlice(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.RequestURI()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"data":       []model.AdminUser{{User: model.User{ID: "u3"}}},
			"pagination": map[string]any{"page": 2, "totalPages": 4, "totalItems": 70},
		})
	}))

	_, err := slice.ListUsers(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "/admin/users?page=2", path)

	st := slice.State()
	require.NotNil(t, st.UsersPage)
	assert.Equal(t, 4, st.UsersPage.TotalPages)
}
