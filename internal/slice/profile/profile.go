// Package profile owns the viewer's own public profile and its photos.
package profile

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
	Me     model.Profile
	Loaded bool
	Status store.Status
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

// State returns a snapshot with copied photo list.
func (s *Slice) State() State {
	var out State
	s.store.View(func() {
		out = s.state
		out.Me.Photos = append([]string(nil), s.state.Me.Photos...)
	})
	return out
}

// UpdateInput carries the editable profile fields. Pointer fields are
// omitted when nil so a partial update leaves the rest untouched.
type UpdateInput struct {
	Occupation    *string `json:"occupation,omitempty"`
	Education     *string `json:"education,omitempty"`
	City          *string `json:"city,omitempty"`
	State         *string `json:"state,omitempty"`
	Country       *string `json:"country,omitempty"`
	HeightCM      *int    `json:"heightCm,omitempty"`
	MaritalStatus *string `json:"maritalStatus,omitempty"`
	Diet          *string `json:"diet,omitempty"`
	AboutMe       *string `json:"aboutMe,omitempty"`
	Religion      *string `json:"religion,omitempty"`
	Caste         *string `json:"caste,omitempty"`
	MotherTongue  *string `json:"motherTongue,omitempty"`
}

// GetMyProfile loads the viewer's own profile.
func (s *Slice) GetMyProfile(ctx context.Context) (model.Profile, error) {
	s.store.Commit(func() { s.state.Status.Begin() })

	var me model.Profile
	if err := s.api.Get(ctx, "/profile/me", &me); err != nil {
		msg := apperrors.Message(err, "Failed to load your profile")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return model.Profile{}, err
	}

	s.store.Commit(func() {
		s.state.Me = me
		s.state.Loaded = true
		s.state.Status.Done()
	})
	return me, nil
}

// UpdateProfile applies a partial edit and stores the returned record.
func (s *Slice) UpdateProfile(ctx context.Context, in UpdateInput) (model.Profile, error) {
	s.store.Commit(func() { s.state.Status.Begin() })

	var me model.Profile
	if err := s.api.Put(ctx, "/profile/me", in, &me); err != nil {
		msg := apperrors.Message(err, "Failed to update your profile")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return model.Profile{}, err
	}

	s.store.Commit(func() {
		s.state.Me = me
		s.state.Loaded = true
		s.state.Status.Done()
	})
	return me, nil
}

// UploadPhoto uploads one photo and stores the updated photo list.
func (s *Slice) UploadPhoto(ctx context.Context, filename string, content []byte) ([]string, error) {
	if len(content) == 0 {
		return nil, apperrors.Validation("Photo file is empty")
	}

	s.store.Commit(func() { s.state.Status.Begin() })

	var payload struct {
		Photos []string `json:"photos"`
	}
	if err := s.api.PostMultipart(ctx, "/profile/photos", "photo", filename, content, &payload); err != nil {
		msg := apperrors.Message(err, "Failed to upload photo")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return nil, err
	}

	s.store.Commit(func() {
		s.state.Me.Photos = payload.Photos
		s.state.Status.Done()
	})
	return payload.Photos, nil
}

// DeletePhoto removes the photo at index and stores the updated list.
func (s *Slice) DeletePhoto(ctx context.Context, index int) ([]string, error) {
	s.store.Commit(func() { s.state.Status.Begin() })

	var payload struct {
		Photos []string `json:"photos"`
	}
	if err := s.api.Delete(ctx, "/profile/photos/"+strconv.Itoa(index), &payload); err != nil {
		msg := apperrors.Message(err, "Failed to delete photo")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return nil, err
	}

	s.store.Commit(func() {
		s.state.Me.Photos = payload.Photos
		s.state.Status.Done()
	})
	return payload.Photos, nil
}

// SetPrimaryPhoto promotes the photo at index to the profile picture.
func (s *Slice) SetPrimaryPhoto(ctx context.Context, index int) ([]string, error) {
	s.store.Commit(func() { s.state.Status.Begin() })

	var payload struct {
		Photos []string `json:"photos"`
	}
	if err := s.api.Patch(ctx, "/profile/photos/"+strconv.Itoa(index)+"/primary", nil, &payload); err != nil {
		msg := apperrors.Message(err, "Failed to update photo")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return nil, err
	}

	s.store.Commit(func() {
		s.state.Me.Photos = payload.Photos
		s.state.Status.Done()
	})
	return payload.Photos, nil
}

// Reset drops the cached profile, used on identity change.
func (s *Slice) Reset() {
	s.store.Commit(func() { s.state = State{} })
}
