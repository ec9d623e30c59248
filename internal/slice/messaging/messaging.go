// Package messaging owns the chat state: room summaries, the active
// chat, and per-counterpart message buckets.
//
// A bucket is the ordered message sequence for one conversation, keyed
// by the counterpart's identifier. History fetches replace a bucket
// wholesale; sends append; deletes filter the id out of every bucket.
package messaging

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rishta-app/rishta-client/internal/api"
	"github.com/rishta-app/rishta-client/internal/apperrors"
	"github.com/rishta-app/rishta-client/internal/model"
	"github.com/rishta-app/rishta-client/internal/store"
)

// Delivery states for optimistic local sends.
const (
	DeliveryPending = "pending"
	DeliveryFailed  = "failed"
)

type State struct {
	Rooms      []model.Room
	Buckets    map[string][]model.Message
	ActiveChat string
	Status     store.Status
}

type Slice struct {
	store *store.Store
	api   *api.Client
	log   *slog.Logger

	// self resolves the current user's id; bucket keys are always the
	// counterpart, whichever of sender/receiver is not self.
	self func() string

	state State
}

func New(st *store.Store, client *api.Client, log *slog.Logger, self func() string) *Slice {
	return &Slice{
		store: st,
		api:   client,
		log:   log,
		self:  self,
		state: State{Buckets: make(map[string][]model.Message)},
	}
}

// State returns a snapshot with copied rooms and buckets. Reactions are
// copied per message: later reaction commits must not show through a
// snapshot already handed out.
func (s *Slice) State() State {
	var out State
	s.store.View(func() {
		out = s.state
		out.Rooms = append([]model.Room(nil), s.state.Rooms...)
		out.Buckets = make(map[string][]model.Message, len(s.state.Buckets))
		for k, v := range s.state.Buckets {
			msgs := append([]model.Message(nil), v...)
			for i := range msgs {
				msgs[i].Reactions = append([]model.Reaction(nil), msgs[i].Reactions...)
			}
			out.Buckets[k] = msgs
		}
	})
	return out
}

// GetChatRooms loads the conversation list.
func (s *Slice) GetChatRooms(ctx context.Context) ([]model.Room, error) {
	s.store.Commit(func() { s.state.Status.Begin() })

	var rooms []model.Room
	if err := s.api.Get(ctx, "/chat/rooms", &rooms); err != nil {
		msg := apperrors.Message(err, "Failed to load conversations")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return nil, err
	}

	s.store.Commit(func() {
		s.state.Rooms = rooms
		s.state.Status.Done()
	})
	return rooms, nil
}

// GetChatHistory loads the conversation with one counterpart. The
// fetched sequence replaces the local bucket entirely; optimistic
// entries not present in the server response are discarded.
func (s *Slice) GetChatHistory(ctx context.Context, counterpartID string) ([]model.Message, error) {
	s.store.Commit(func() { s.state.Status.Begin() })

	var history []model.Message
	if err := s.api.Get(ctx, "/chat/history/"+counterpartID, &history); err != nil {
		msg := apperrors.Message(err, "Failed to load chat history")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return nil, err
	}

	s.store.Commit(func() {
		s.state.Buckets[counterpartID] = history
		s.state.Status.Done()
	})
	return history, nil
}

// SendMessage posts a message to the counterpart.
//
// The message is appended to the bucket immediately as a pending entry
// with a client-generated id. On confirmation the pending entry is
// replaced by the server's message; on failure it is marked failed and
// left in place for the view to surface, with RemoveFailed as the
// explicit compensating action.
func (s *Slice) SendMessage(ctx context.Context, counterpartID, content string) (model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return model.Message{}, apperrors.Validation("Message cannot be empty")
	}

	localID := uuid.NewString()
	pending := model.Message{
		ID:         localID,
		SenderID:   s.self(),
		ReceiverID: counterpartID,
		Content:    content,
		SentAt:     time.Now(),
		Delivery:   DeliveryPending,
	}
	s.store.Commit(func() {
		s.state.Status.Begin()
		s.state.Buckets[counterpartID] = append(s.state.Buckets[counterpartID], pending)
	})

	var sent model.Message
	err := s.api.Post(ctx, "/chat/messages", map[string]string{
		"receiverId": counterpartID,
		"content":    content,
	}, &sent)
	if err != nil {
		msg := apperrors.Message(err, "Failed to send message")
		s.store.Commit(func() {
			s.markDelivery(counterpartID, localID, DeliveryFailed)
			s.state.Status.Fail(msg)
		})
		return model.Message{}, err
	}

	// Resolve the bucket key before committing: bucketKey consults the
	// session via self(), which reads through the store.
	key := s.bucketKey(sent)
	s.store.Commit(func() {
		s.replacePending(key, localID, sent)
		s.touchRoomPreview(key, sent)
		s.state.Status.Done()
	})
	return sent, nil
}

// RemoveFailed drops a failed optimistic entry from its bucket.
func (s *Slice) RemoveFailed(counterpartID, localID string) {
	s.store.Commit(func() {
		bucket := s.state.Buckets[counterpartID]
		kept := bucket[:0]
		for _, m := range bucket {
			if m.ID == localID && m.Delivery == DeliveryFailed {
				continue
			}
			kept = append(kept, m)
		}
		s.state.Buckets[counterpartID] = kept
	})
}

// DeleteMessage removes a message everywhere. The slice does not track
// which bucket an id belongs to, so every open conversation is scanned.
func (s *Slice) DeleteMessage(ctx context.Context, messageID string) error {
	s.store.Commit(func() { s.state.Status.Begin() })

	if err := s.api.Delete(ctx, "/chat/messages/"+messageID, nil); err != nil {
		msg := apperrors.Message(err, "Failed to delete message")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return err
	}

	s.store.Commit(func() {
		for key, bucket := range s.state.Buckets {
			kept := bucket[:0]
			for _, m := range bucket {
				if m.ID != messageID {
					kept = append(kept, m)
				}
			}
			s.state.Buckets[key] = kept
		}
		s.state.Status.Done()
	})
	return nil
}

// MarkMessagesRead sends the read receipt for one conversation, flips
// every message in that bucket to read, and zeroes the room's unread
// counter.
func (s *Slice) MarkMessagesRead(ctx context.Context, counterpartID string) error {
	s.store.Commit(func() { s.state.Status.Begin() })

	if err := s.api.Post(ctx, "/chat/rooms/"+counterpartID+"/read", nil, nil); err != nil {
		msg := apperrors.Message(err, "Failed to mark messages read")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return err
	}

	s.store.Commit(func() {
		bucket := s.state.Buckets[counterpartID]
		for i := range bucket {
			bucket[i].Read = true
		}
		s.adjustUnread(counterpartID, 0)
		s.state.Status.Done()
	})
	return nil
}

// ReactToMessage adds an emoji reaction to a message in one bucket.
func (s *Slice) ReactToMessage(ctx context.Context, counterpartID, messageID, emoji string) error {
	s.store.Commit(func() { s.state.Status.Begin() })

	if err := s.api.Post(ctx, "/chat/messages/"+messageID+"/reactions", map[string]string{"emoji": emoji}, nil); err != nil {
		msg := apperrors.Message(err, "Failed to add reaction")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return err
	}

	s.store.Commit(func() {
		s.mutateMessage(counterpartID, messageID, func(m *model.Message) {
			for i := range m.Reactions {
				if m.Reactions[i].Emoji == emoji {
					m.Reactions[i].Count++
					return
				}
			}
			m.Reactions = append(m.Reactions, model.Reaction{Emoji: emoji, Count: 1})
		})
		s.state.Status.Done()
	})
	return nil
}

// RemoveReaction removes one emoji reaction; a reaction at count zero
// is dropped from the list.
func (s *Slice) RemoveReaction(ctx context.Context, counterpartID, messageID, emoji string) error {
	s.store.Commit(func() { s.state.Status.Begin() })

	if err := s.api.Delete(ctx, "/chat/messages/"+messageID+"/reactions/"+emoji, nil); err != nil {
		msg := apperrors.Message(err, "Failed to remove reaction")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return err
	}

	s.store.Commit(func() {
		s.mutateMessage(counterpartID, messageID, func(m *model.Message) {
			for i := range m.Reactions {
				if m.Reactions[i].Emoji != emoji {
					continue
				}
				m.Reactions[i].Count--
				if m.Reactions[i].Count <= 0 {
					m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
				}
				return
			}
		})
		s.state.Status.Done()
	})
	return nil
}

// SetActiveChat records which conversation is open. Local mutation, no
// network call.
func (s *Slice) SetActiveChat(counterpartID string) {
	s.store.Commit(func() { s.state.ActiveChat = counterpartID })
}

// Reset drops all cached chat state, used on identity change.
func (s *Slice) Reset() {
	s.store.Commit(func() {
		s.state = State{Buckets: make(map[string][]model.Message)}
	})
}

// bucketKey picks the conversation key for a message: whichever of
// sender/receiver is not the current user.
func (s *Slice) bucketKey(m model.Message) string {
	if self := s.self(); m.SenderID != self {
		return m.SenderID
	}
	return m.ReceiverID
}

// replacePending swaps a pending optimistic entry for the confirmed
// server message, or appends when the entry is gone (e.g. a history
// fetch replaced the bucket mid-flight). Caller holds the store lock.
func (s *Slice) replacePending(key, localID string, confirmed model.Message) {
	bucket := s.state.Buckets[key]
	for i := range bucket {
		if bucket[i].ID == localID {
			bucket[i] = confirmed
			return
		}
	}
	s.state.Buckets[key] = append(bucket, confirmed)
}

func (s *Slice) markDelivery(key, id, delivery string) {
	bucket := s.state.Buckets[key]
	for i := range bucket {
		if bucket[i].ID == id {
			bucket[i].Delivery = delivery
			return
		}
	}
}

// mutateMessage applies fn to one message in one bucket. Caller holds
// the store lock.
func (s *Slice) mutateMessage(key, messageID string, fn func(*model.Message)) {
	bucket := s.state.Buckets[key]
	for i := range bucket {
		if bucket[i].ID == messageID {
			fn(&bucket[i])
			return
		}
	}
}

// touchRoomPreview updates the room summary after a confirmed send.
// Caller holds the store lock.
func (s *Slice) touchRoomPreview(key string, m model.Message) {
	for i := range s.state.Rooms {
		if s.state.Rooms[i].CounterpartID == key {
			s.state.Rooms[i].LastMessage = m.Content
			s.state.Rooms[i].LastMessageAt = m.SentAt
			return
		}
	}
}

// adjustUnread sets a room's unread counter, clamped at zero. Caller
// holds the store lock.
func (s *Slice) adjustUnread(key string, count int) {
	if count < 0 {
		count = 0
	}
	for i := range s.state.Rooms {
		if s.state.Rooms[i].CounterpartID == key {
			s.state.Rooms[i].UnreadCount = count
			return
		}
	}
}
