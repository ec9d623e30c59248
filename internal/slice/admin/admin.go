// Package admin owns the admin console state: dashboard stats, the
// user listing, and moderation actions. Errors here are additionally
// kept in a dismissable banner, matching how the console surfaces them.
package admin

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/rishta-app/rishta-client/internal/api"
	"github.com/rishta-app/rishta-client/internal/apperrors"
	"github.com/rishta-app/rishta-client/internal/model"
	"github.com/rishta-app/rishta-client/internal/store"
)

type State struct {
	Stats      model.AdminStats
	Users      []model.AdminUser
	UsersPage  *api.Pagination
	Banner     string
	Status     store.Status
	StatsReady bool
}

type Slice struct {
	store *store.Store
	api   *api.Client
	log   *slog.Logger

	state State
}

func New(st *store.Store, client *api.Client, log *slog.Logger) *Slice {
	return &Slice{store: st, api: client, log: log}
}

// State returns a snapshot with a copied user list.
func (s *Slice) State() State {
	var out State
	s.store.View(func() {
		out = s.state
		out.Users = append([]model.AdminUser(nil), s.state.Users...)
		if s.state.UsersPage != nil {
			p := *s.state.UsersPage
			out.UsersPage = &p
		}
	})
	return out
}

// GetDashboardStats loads the dashboard summary.
func (s *Slice) GetDashboardStats(ctx context.Context) (model.AdminStats, error) {
	s.store.Commit(func() { s.state.Status.Begin() })

	var stats model.AdminStats
	if err := s.api.Get(ctx, "/admin/stats", &stats); err != nil {
		s.fail(err, "Failed to load dashboard stats")
		return model.AdminStats{}, err
	}

	s.store.Commit(func() {
		s.state.Stats = stats
		s.state.StatsReady = true
		s.state.Status.Done()
	})
	return stats, nil
}

// ListUsers loads one page of the user listing.
func (s *Slice) ListUsers(ctx context.Context, page int) ([]model.AdminUser, error) {
	s.store.Commit(func() { s.state.Status.Begin() })

	path := "/admin/users"
	if page > 1 {
		path += "?page=" + strconv.Itoa(page)
	}

	var users []model.AdminUser
	pagination, err := s.api.GetPage(ctx, path, &users)
	if err != nil {
		s.fail(err, "Failed to load users")
		return nil, err
	}

	s.store.Commit(func() {
		s.state.Users = users
		s.state.UsersPage = pagination
		s.state.Status.Done()
	})
	return users, nil
}

// BanUser suspends an account and flips the local row.
func (s *Slice) BanUser(ctx context.Context, userID string) error {
	return s.moderate(ctx, "/admin/users/"+userID+"/ban", nil, "Failed to ban user", func() {
		s.setBanned(userID, true)
	})
}

// UnbanUser lifts a suspension and flips the local row.
func (s *Slice) UnbanUser(ctx context.Context, userID string) error {
	return s.moderate(ctx, "/admin/users/"+userID+"/unban", nil, "Failed to unban user", func() {
		s.setBanned(userID, false)
	})
}

// ApproveVerification approves a pending verification request.
func (s *Slice) ApproveVerification(ctx context.Context, requestID string) error {
	return s.moderate(ctx, "/admin/verifications/"+requestID+"/approve", nil, "Failed to approve verification", func() {
		if s.state.Stats.PendingVerifications > 0 {
			s.state.Stats.PendingVerifications--
		}
	})
}

// RejectVerification rejects a pending verification request with a note.
func (s *Slice) RejectVerification(ctx context.Context, requestID, note string) error {
	body := map[string]string{"note": note}
	return s.moderate(ctx, "/admin/verifications/"+requestID+"/reject", body, "Failed to reject verification", func() {
		if s.state.Stats.PendingVerifications > 0 {
			s.state.Stats.PendingVerifications--
		}
	})
}

// DismissBanner clears the persisted error banner.
func (s *Slice) DismissBanner() {
	s.store.Commit(func() { s.state.Banner = "" })
}

// Reset drops cached admin state, used on identity change.
func (s *Slice) Reset() {
	s.store.Commit(func() { s.state = State{} })
}

func (s *Slice) moderate(ctx context.Context, path string, body any, fallback string, apply func()) error {
	s.store.Commit(func() { s.state.Status.Begin() })

	if err := s.api.Post(ctx, path, body, nil); err != nil {
		s.fail(err, fallback)
		return err
	}

	s.store.Commit(func() {
		apply()
		s.state.Status.Done()
	})
	return nil
}

// fail records the error both in the status and the banner.
func (s *Slice) fail(err error, fallback string) {
	msg := apperrors.Message(err, fallback)
	s.store.Commit(func() {
		s.state.Status.Fail(msg)
		s.state.Banner = msg
	})
}

// setBanned flips the banned flag on a listed user. Caller holds the
// store lock.
func (s *Slice) setBanned(userID string, banned bool) {
	for i := range s.state.Users {
		if s.state.Users[i].ID == userID {
			s.state.Users[i].Banned = banned
		}
	}
}
