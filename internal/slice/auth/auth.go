// Package auth owns the session: the authenticated user record, the
// authenticated flag, and the initialized flag distinguishing "not yet
// checked" from "checked and anonymous".
package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/rishta-app/rishta-client/internal/api"
	"github.com/rishta-app/rishta-client/internal/apperrors"
	"github.com/rishta-app/rishta-client/internal/config"
	"github.com/rishta-app/rishta-client/internal/model"
	"github.com/rishta-app/rishta-client/internal/store"
)

// CredentialStore persists the session between runs. Implemented by the
// creds store.
type CredentialStore interface {
	SetTokens(access string, accessExpiry time.Time, refresh string, refreshExpiry time.Time) error
	SaveProfile(u model.User) error
	Profile() (model.User, bool)
	RefreshToken() string
	Clear() error
}

type State struct {
	User          model.User
	Authenticated bool
	Initialized   bool
	Status        store.Status
}

type Slice struct {
	store *store.Store
	api   *api.Client
	creds CredentialStore
	cfg   *config.Config
	log   *slog.Logger

	// onLogout runs after the session is cleared, for cross-slice
	// cache purging. Wired by the app context.
	onLogout func()

	state State
}

func New(st *store.Store, client *api.Client, cr CredentialStore, cfg *config.Config, log *slog.Logger) *Slice {
	return &Slice{store: st, api: client, creds: cr, cfg: cfg, log: log}
}

// SetLogoutHook registers the cross-slice purge run on every logout,
// explicit or forced.
func (s *Slice) SetLogoutHook(fn func()) { s.onLogout = fn }

// State returns a snapshot of the session state.
func (s *Slice) State() State {
	var out State
	s.store.View(func() { out = s.state })
	return out
}

type RegisterInput struct {
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Password        string    `json:"password"`
	ConfirmPassword string    `json:"-"`
	Gender          string    `json:"gender"`
	BirthDate       time.Time `json:"birthDate"`
}

// loginPayload is the data block of /auth/login and /auth/register.
type loginPayload struct {
	User         model.User `json:"user"`
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
}

// Login authenticates with the backend and establishes the session.
// Tokens are persisted with their fixed lifetimes, the profile record
// alongside them.
func (s *Slice) Login(ctx context.Context, email, password string) (model.User, error) {
	if email == "" || password == "" {
		return model.User{}, apperrors.Validation("Email and password are required")
	}

	s.store.Commit(func() { s.state.Status.Begin() })

	var payload loginPayload
	err := s.api.Post(ctx, "/auth/login", map[string]string{"email": email, "password": password}, &payload)
	if err != nil {
		msg := apperrors.Message(err, "Login failed, please try again")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return model.User{}, err
	}

	s.establishSession(payload)
	s.log.Info("logged in", "user", payload.User.ID)
	return payload.User, nil
}

// Register creates an account and logs the new user in.
func (s *Slice) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	switch {
	case in.Name == "" || in.Email == "" || in.Password == "":
		return model.User{}, apperrors.Validation("Name, email and password are required")
	case in.Password != in.ConfirmPassword:
		return model.User{}, apperrors.Validation("Passwords do not match")
	}

	s.store.Commit(func() { s.state.Status.Begin() })

	var payload loginPayload
	err := s.api.Post(ctx, "/auth/register", in, &payload)
	if err != nil {
		msg := apperrors.Message(err, "Registration failed, please try again")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return model.User{}, err
	}

	s.establishSession(payload)
	s.log.Info("registered", "user", payload.User.ID)
	return payload.User, nil
}

// Initialize restores a persisted session on startup. With no usable
// credentials the session is marked initialized-and-anonymous; with a
// persisted profile the user record is trusted immediately and then
// refreshed from the backend.
func (s *Slice) Initialize(ctx context.Context) error {
	profile, hasProfile := s.creds.Profile()
	if !hasProfile || s.creds.RefreshToken() == "" {
		s.store.Commit(func() {
			s.state = State{Initialized: true}
		})
		return nil
	}

	s.store.Commit(func() {
		s.setUser(profile)
		s.state.Initialized = true
	})

	var me model.User
	if err := s.api.Get(ctx, "/auth/me", &me); err != nil {
		// A 401 here already tore the session down via the client's
		// session-expired hook; anything else keeps the cached record.
		if apperrors.IsUnauthorized(err) {
			return err
		}
		s.log.Warn("session restore: profile refresh failed", "err", err)
		return nil
	}

	if err := s.creds.SaveProfile(me); err != nil {
		s.log.Warn("failed to persist profile", "err", err)
	}
	s.store.Commit(func() { s.setUser(me) })
	return nil
}

// RefreshProfile re-reads the logged-in user's record.
func (s *Slice) RefreshProfile(ctx context.Context) (model.User, error) {
	s.store.Commit(func() { s.state.Status.Begin() })

	var me model.User
	if err := s.api.Get(ctx, "/auth/me", &me); err != nil {
		msg := apperrors.Message(err, "Failed to load your profile")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return model.User{}, err
	}

	if err := s.creds.SaveProfile(me); err != nil {
		s.log.Warn("failed to persist profile", "err", err)
	}
	s.store.Commit(func() {
		s.setUser(me)
		s.state.Status.Done()
	})
	return me, nil
}

// Logout ends the session. The backend call is best-effort; local
// credentials and session state are cleared regardless.
func (s *Slice) Logout(ctx context.Context) {
	if err := s.api.Post(ctx, "/auth/logout", nil, nil); err != nil {
		s.log.Debug("logout call failed", "err", err)
	}
	_ = s.creds.Clear()
	s.clearSession()
	s.log.Info("logged out")
}

// ForceLogout tears the session down without a backend call. Wired to
// the HTTP client's session-expired hook; credentials are already
// cleared by the time it runs.
func (s *Slice) ForceLogout() {
	s.clearSession()
	s.log.Warn("session expired, forcing logout")
}

// CurrentUserID returns the logged-in user's id, or "" when anonymous.
func (s *Slice) CurrentUserID() string {
	var id string
	s.store.View(func() {
		if s.state.Authenticated {
			id = s.state.User.ID
		}
	})
	return id
}

// establishSession records the session in memory and persists it. A
// failed persist is logged, not fatal: the in-memory session works, it
// just won't survive a restart.
func (s *Slice) establishSession(payload loginPayload) {
	now := time.Now()
	err := s.creds.SetTokens(
		payload.AccessToken, now.Add(s.cfg.Tokens.AccessTTL),
		payload.RefreshToken, now.Add(s.cfg.Tokens.RefreshTTL),
	)
	if err != nil {
		s.log.Warn("failed to persist session tokens", "err", err)
	}
	if err := s.creds.SaveProfile(payload.User); err != nil {
		s.log.Warn("failed to persist profile", "err", err)
	}

	s.store.Commit(func() {
		s.setUser(payload.User)
		s.state.Initialized = true
		s.state.Status.Done()
	})
}

// setUser is the one reducer that writes the user record. Setting a
// user always sets the authenticated flag with it; the two are never
// written independently. Caller holds the store lock.
func (s *Slice) setUser(u model.User) {
	s.state.User = u
	s.state.Authenticated = true
}

func (s *Slice) clearSession() {
	s.store.Commit(func() {
		s.state = State{Initialized: true}
	})
	if s.onLogout != nil {
		s.onLogout()
	}
}
