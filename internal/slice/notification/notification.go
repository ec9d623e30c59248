// Package notification owns the notification list and its unread count.
//
// The backend returns the list in two shapes: a bare array, or an
// object carrying the list plus an authoritative unread count. Both are
// normalized at the decode boundary; when the server supplies a count
// it wins over the locally derived one.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"github.com/rishta-app/rishta-client/internal/api"
	"github.com/rishta-app/rishta-client/internal/apperrors"
	"github.com/rishta-app/rishta-client/internal/model"
	"github.com/rishta-app/rishta-client/internal/store"
)

type State struct {
	Items       []model.Notification
	UnreadCount int
	Status      store.Status
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

// State returns a snapshot with a copied item list.
func (s *Slice) State() State {
	var out State
	s.store.View(func() {
		out = s.state
		out.Items = append([]model.Notification(nil), s.state.Items...)
	})
	return out
}

// listPayload accepts both response shapes for the notification list.
type listPayload struct {
	Notifications []model.Notification
	UnreadCount   *int
}

func (p *listPayload) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return json.Unmarshal(trimmed, &p.Notifications)
	}
	var obj struct {
		Notifications []model.Notification `json:"notifications"`
		UnreadCount   *int                 `json:"unreadCount"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}
	p.Notifications = obj.Notifications
	p.UnreadCount = obj.UnreadCount
	return nil
}

// GetNotifications loads the list. The unread count prefers the
// server-supplied value and falls back to counting unread items.
func (s *Slice) GetNotifications(ctx context.Context) ([]model.Notification, error) {
	s.store.Commit(func() { s.state.Status.Begin() })

	var payload listPayload
	if err := s.api.Get(ctx, "/notifications", &payload); err != nil {
		msg := apperrors.Message(err, "Failed to load notifications")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return nil, err
	}

	count := countUnread(payload.Notifications)
	if payload.UnreadCount != nil {
		count = *payload.UnreadCount
	}

	s.store.Commit(func() {
		s.state.Items = payload.Notifications
		s.state.UnreadCount = count
		s.state.Status.Done()
	})
	return payload.Notifications, nil
}

// MarkRead flips one notification to read and decrements the unread
// count, floor-clamped at zero.
func (s *Slice) MarkRead(ctx context.Context, notificationID string) error {
	s.store.Commit(func() { s.state.Status.Begin() })

	if err := s.api.Patch(ctx, "/notifications/"+notificationID+"/read", nil, nil); err != nil {
		msg := apperrors.Message(err, "Failed to update notification")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return err
	}

	s.store.Commit(func() {
		for i := range s.state.Items {
			if s.state.Items[i].ID == notificationID && !s.state.Items[i].Read {
				s.state.Items[i].Read = true
				s.decrementUnread()
			}
		}
		s.state.Status.Done()
	})
	return nil
}

// MarkAllRead flips every notification to read and zeroes the count.
func (s *Slice) MarkAllRead(ctx context.Context) error {
	s.store.Commit(func() { s.state.Status.Begin() })

	if err := s.api.Post(ctx, "/notifications/read-all", nil, nil); err != nil {
		msg := apperrors.Message(err, "Failed to update notifications")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return err
	}

	s.store.Commit(func() {
		for i := range s.state.Items {
			s.state.Items[i].Read = true
		}
		s.state.UnreadCount = 0
		s.state.Status.Done()
	})
	return nil
}

// DeleteNotification removes one notification; deleting an unread one
// also decrements the count.
func (s *Slice) DeleteNotification(ctx context.Context, notificationID string) error {
	s.store.Commit(func() { s.state.Status.Begin() })

	if err := s.api.Delete(ctx, "/notifications/"+notificationID, nil); err != nil {
		msg := apperrors.Message(err, "Failed to delete notification")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return err
	}

	s.store.Commit(func() {
		kept := s.state.Items[:0]
		for _, n := range s.state.Items {
			if n.ID == notificationID {
				if !n.Read {
					s.decrementUnread()
				}
				continue
			}
			kept = append(kept, n)
		}
		s.state.Items = kept
		s.state.Status.Done()
	})
	return nil
}

// Reset drops all cached notification state, used on identity change.
func (s *Slice) Reset() {
	s.store.Commit(func() { s.state = State{} })
}

// decrementUnread floors the counter at zero. Caller holds the store
// lock.
func (s *Slice) decrementUnread() {
	if s.state.UnreadCount > 0 {
		s.state.UnreadCount--
	}
}

func countUnread(items []model.Notification) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}
