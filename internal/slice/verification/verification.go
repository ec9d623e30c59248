// Package verification owns the profile verification wizard state:
// ID-proof and photo verification submissions and their review status.
package verification

import (
	"context"
	"log/slog"

	"github.com/rishta-app/rishta-client/internal/api"
	"github.com/rishta-app/rishta-client/internal/apperrors"
	"github.com/rishta-app/rishta-client/internal/model"
	"github.com/rishta-app/rishta-client/internal/store"
)

type State struct {
	Current model.VerificationStatus
	Loaded  bool
	Status  store.Status
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

// State returns a snapshot.
func (s *Slice) State() State {
	var out State
	s.store.View(func() { out = s.state })
	return out
}

// GetStatus loads the current review status.
func (s *Slice) GetStatus(ctx context.Context) (model.VerificationStatus, error) {
	s.store.Commit(func() { s.state.Status.Begin() })

	var vs model.VerificationStatus
	if err := s.api.Get(ctx, "/verification/status", &vs); err != nil {
		msg := apperrors.Message(err, "Failed to load verification status")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return model.VerificationStatus{}, err
	}

	s.store.Commit(func() {
		s.state.Current = vs
		s.state.Loaded = true
		s.state.Status.Done()
	})
	return vs, nil
}

// SubmitIDProof uploads an identity document for review.
func (s *Slice) SubmitIDProof(ctx context.Context, filename string, content []byte) error {
	return s.submit(ctx, "/verification/id-proof", "document", filename, content,
		"Failed to submit ID proof",
		func(vs *model.VerificationStatus) { vs.IDProof = model.VerificationPending })
}

// SubmitPhotoVerification uploads a verification selfie for review.
func (s *Slice) SubmitPhotoVerification(ctx context.Context, filename string, content []byte) error {
	return s.submit(ctx, "/verification/photo", "photo", filename, content,
		"Failed to submit photo verification",
		func(vs *model.VerificationStatus) { vs.PhotoStatus = model.VerificationPending })
}

// Reset drops cached verification state, used on identity change.
func (s *Slice) Reset() {
	s.store.Commit(func() { s.state = State{} })
}

func (s *Slice) submit(ctx context.Context, path, field, filename string, content []byte, fallback string, mark func(*model.VerificationStatus)) error {
	if len(content) == 0 {
		return apperrors.Validation("File is empty")
	}

	s.store.Commit(func() { s.state.Status.Begin() })

	var vs model.VerificationStatus
	if err := s.api.PostMultipart(ctx, path, field, filename, content, &vs); err != nil {
		msg := apperrors.Message(err, fallback)
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return err
	}

	s.store.Commit(func() {
		if vs.IDProof == "" && vs.PhotoStatus == "" {
			// Endpoint returned no body; mark the submitted track
			// pending locally.
			mark(&s.state.Current)
		} else {
			s.state.Current = vs
		}
		s.state.Loaded = true
		s.state.Status.Done()
	})
	return nil
}
