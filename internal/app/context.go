// Package app wires the client together: credential store, HTTP
// client, the shared store, and the nine domain slices. The context is
// built once at startup and lives for the session; everything is
// injected, nothing is a package-level singleton.
package app

import (
	"log/slog"

	"github.com/rishta-app/rishta-client/internal/api"
	"github.com/rishta-app/rishta-client/internal/config"
	"github.com/rishta-app/rishta-client/internal/creds"
	"github.com/rishta-app/rishta-client/internal/store"

	"github.com/rishta-app/rishta-client/internal/slice/admin"
	"github.com/rishta-app/rishta-client/internal/slice/auth"
	"github.com/rishta-app/rishta-client/internal/slice/matches"
	"github.com/rishta-app/rishta-client/internal/slice/messaging"
	"github.com/rishta-app/rishta-client/internal/slice/notification"
	"github.com/rishta-app/rishta-client/internal/slice/profile"
	"github.com/rishta-app/rishta-client/internal/slice/search"
	"github.com/rishta-app/rishta-client/internal/slice/subscription"
	"github.com/rishta-app/rishta-client/internal/slice/verification"
)

// Context holds the shared dependencies and all slices.
type Context struct {
	Config *config.Config
	Logger *slog.Logger
	Creds  *creds.Store
	API    *api.Client
	Store  *store.Store

	Auth         *auth.Slice
	Profile      *profile.Slice
	Search       *search.Slice
	Matches      *matches.Slice
	Messaging    *messaging.Slice
	Subscription *subscription.Slice
	Verification *verification.Slice
	Notification *notification.Slice
	Admin        *admin.Slice
}

// New builds the full application context.
//
// Cross-slice wiring happens only here: the HTTP client's
// session-expired hook drives auth's forced logout, and every logout
// purges the other slices' cached state so nothing leaks across a user
// switch.
func New(cfg *config.Config, cr *creds.Store, log *slog.Logger) *Context {
	st := store.New()
	client := api.New(cfg, cr, log)

	c := &Context{
		Config: cfg,
		Logger: log,
		Creds:  cr,
		API:    client,
		Store:  st,
	}

	c.Auth = auth.New(st, client, cr, cfg, log)
	c.Profile = profile.New(st, client, log)
	c.Search = search.New(st, client, log)
	c.Matches = matches.New(st, client, log)
	c.Messaging = messaging.New(st, client, log, c.Auth.CurrentUserID)
	c.Subscription = subscription.New(st, client, log)
	c.Verification = verification.New(st, client, log)
	c.Notification = notification.New(st, client, log)
	c.Admin = admin.New(st, client, log)

	client.SetSessionExpiredHook(c.Auth.ForceLogout)
	c.Auth.SetLogoutHook(c.purgeUserState)

	return c
}

// purgeUserState clears every slice's per-user cache. Each slice is
// reset through its own reducer; no slice reads another's state.
func (c *Context) purgeUserState() {
	c.Profile.Reset()
	c.Search.Reset()
	c.Matches.Reset()
	c.Messaging.Reset()
	c.Subscription.Reset()
	c.Verification.Reset()
	c.Notification.Reset()
	c.Admin.Reset()
	c.Logger.Debug("per-user state purged")
}
