package main

import (
	"context"

	"github.com/rishta-app/rishta-client/internal/app"
	"github.com/rishta-app/rishta-client/internal/config"
	"github.com/rishta-app/rishta-client/internal/creds"
	"github.com/rishta-app/rishta-client/internal/logger"
)

func main() {
	cfg := config.New()

	logger.InitFromConfig(cfg)
	log := logger.L()

	credStore, err := creds.Open(cfg.Creds.Path, cfg.Creds.Passphrase)
	if err != nil {
		log.Error("failed to open credential store", "err", err)
		return
	}

	appCtx := app.New(cfg, credStore, log)

	ctx := context.Background()
	if err := appCtx.Auth.Initialize(ctx); err != nil {
		log.Warn("session restore failed", "err", err)
	}

	session := appCtx.Auth.State()
	if !session.Authenticated {
		log.Info("no session, log in via the UI")
		return
	}
	log.Info("session restored", "user", session.User.ID, "name", session.User.Name)

	if _, err := appCtx.Matches.GetMatches(ctx); err != nil {
		log.Error("failed to load matches", "err", err)
	}
	if _, err := appCtx.Messaging.GetChatRooms(ctx); err != nil {
		log.Error("failed to load conversations", "err", err)
	}
	if _, err := appCtx.Notification.GetNotifications(ctx); err != nil {
		log.Error("failed to load notifications", "err", err)
	}

	log.Info("state ready",
		"matches", len(appCtx.Matches.State().All),
		"rooms", len(appCtx.Messaging.State().Rooms),
		"unread_notifications", appCtx.Notification.State().UnreadCount,
	)
}
