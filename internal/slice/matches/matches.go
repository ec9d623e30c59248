// Package matches owns the match listing: the full candidate list, the
// derived filtered view, and the viewer's interaction flags.
package matches

import (
	"context"
	"log/slog"

	"github.com/rishta-app/rishta-client/internal/api"
	"github.com/rishta-app/rishta-client/internal/apperrors"
	"github.com/rishta-app/rishta-client/internal/model"
	"github.com/rishta-app/rishta-client/internal/store"
)

type State struct {
	// All is the unfiltered server list; Filtered is re-derived from
	// All + Filters + SearchTerm + SortBy on every change to any of
	// the three.
	All        []model.Profile
	Filtered   []model.Profile
	MatchOfDay *model.Profile
	Detail     *model.Profile
	Filters    Filters
	SearchTerm string
	SortBy     SortKey
	Status     store.Status
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

// State returns a snapshot. Slices and pointers are copied so the view
// layer never observes in-place mutation.
func (s *Slice) State() State {
	var out State
	s.store.View(func() {
		out = s.state
		out.All = append([]model.Profile(nil), s.state.All...)
		out.Filtered = append([]model.Profile(nil), s.state.Filtered...)
		if s.state.MatchOfDay != nil {
			m := *s.state.MatchOfDay
			out.MatchOfDay = &m
		}
		if s.state.Detail != nil {
			d := *s.state.Detail
			out.Detail = &d
		}
	})
	return out
}

// GetMatches loads the full match list and re-derives the filtered view.
func (s *Slice) GetMatches(ctx context.Context) ([]model.Profile, error) {
	s.store.Commit(func() { s.state.Status.Begin() })

	var profiles []model.Profile
	if err := s.api.Get(ctx, "/matches", &profiles); err != nil {
		msg := apperrors.Message(err, "Failed to load matches")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return nil, err
	}

	s.store.Commit(func() {
		s.state.All = profiles
		s.refilter()
		s.state.Status.Done()
	})
	return profiles, nil
}

// GetMatchOfTheDay loads today's highlighted candidate.
func (s *Slice) GetMatchOfTheDay(ctx context.Context) (model.Profile, error) {
	s.store.Commit(func() { s.state.Status.Begin() })

	var p model.Profile
	if err := s.api.Get(ctx, "/matches/match-of-the-day", &p); err != nil {
		msg := apperrors.Message(err, "Failed to load match of the day")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return model.Profile{}, err
	}

	s.store.Commit(func() {
		s.state.MatchOfDay = &p
		s.state.Status.Done()
	})
	return p, nil
}

// GetProfileDetail loads one candidate's full profile.
func (s *Slice) GetProfileDetail(ctx context.Context, profileID string) (model.Profile, error) {
	s.store.Commit(func() { s.state.Status.Begin() })

	var p model.Profile
	if err := s.api.Get(ctx, "/profiles/"+profileID, &p); err != nil {
		msg := apperrors.Message(err, "Failed to load profile")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return model.Profile{}, err
	}

	s.store.Commit(func() {
		s.state.Detail = &p
		s.state.Status.Done()
	})
	return p, nil
}

// ShowInterest records interest in a profile. The flag is flipped to
// true locally on success and never flips back within the session.
func (s *Slice) ShowInterest(ctx context.Context, profileID string) error {
	return s.interact(ctx, "/interactions/interest", profileID, func(p *model.Profile) {
		p.HasShownInterest = true
	}, "Failed to send interest")
}

// ShowSuperInterest records a super-interest; same one-way semantics.
func (s *Slice) ShowSuperInterest(ctx context.Context, profileID string) error {
	return s.interact(ctx, "/interactions/super-interest", profileID, func(p *model.Profile) {
		p.HasShownSuperInterest = true
	}, "Failed to send super interest")
}

// Shortlist adds a profile to the shortlist and then verifies the
// stored flag with a second call. This is the one two-call operation.
func (s *Slice) Shortlist(ctx context.Context, profileID string) error {
	s.store.Commit(func() { s.state.Status.Begin() })

	if err := s.api.Post(ctx, "/interactions/shortlist", map[string]string{"profileId": profileID}, nil); err != nil {
		msg := apperrors.Message(err, "Failed to shortlist profile")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return err
	}

	var status struct {
		Shortlisted bool `json:"isShortlisted"`
	}
	if err := s.api.Get(ctx, "/interactions/shortlist/"+profileID+"/status", &status); err != nil {
		msg := apperrors.Message(err, "Failed to confirm shortlist")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return err
	}

	s.store.Commit(func() {
		if status.Shortlisted {
			s.flipFlag(profileID, func(p *model.Profile) { p.IsShortlisted = true })
		}
		s.state.Status.Done()
	})
	return nil
}

// SetFilters replaces the filter record and re-derives the view.
func (s *Slice) SetFilters(f Filters) {
	s.store.Commit(func() {
		s.state.Filters = f
		s.refilter()
	})
}

// SetSearchTerm updates the free-text search and re-derives the view.
func (s *Slice) SetSearchTerm(term string) {
	s.store.Commit(func() {
		s.state.SearchTerm = term
		s.refilter()
	})
}

// SetSortBy updates the sort key and re-derives the view.
func (s *Slice) SetSortBy(key SortKey) {
	s.store.Commit(func() {
		s.state.SortBy = key
		s.refilter()
	})
}

// ClearFilters resets filters, search and sort as a unit.
func (s *Slice) ClearFilters() {
	s.store.Commit(func() {
		s.state.Filters = Filters{}
		s.state.SearchTerm = ""
		s.state.SortBy = ""
		s.refilter()
	})
}

// Reset drops all cached match state, used on identity change.
func (s *Slice) Reset() {
	s.store.Commit(func() { s.state = State{} })
}

func (s *Slice) interact(ctx context.Context, path, profileID string, flip func(*model.Profile), fallback string) error {
	s.store.Commit(func() { s.state.Status.Begin() })

	if err := s.api.Post(ctx, path, map[string]string{"profileId": profileID}, nil); err != nil {
		msg := apperrors.Message(err, fallback)
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return err
	}

	s.store.Commit(func() {
		s.flipFlag(profileID, flip)
		s.state.Status.Done()
	})
	return nil
}

// flipFlag applies a one-way flag mutation everywhere the profile is
// held: the full list, the derived view, the detail pane, and the match
// of the day. Caller holds the store lock.
func (s *Slice) flipFlag(profileID string, flip func(*model.Profile)) {
	for i := range s.state.All {
		if s.state.All[i].ID == profileID {
			flip(&s.state.All[i])
		}
	}
	for i := range s.state.Filtered {
		if s.state.Filtered[i].ID == profileID {
			flip(&s.state.Filtered[i])
		}
	}
	if s.state.Detail != nil && s.state.Detail.ID == profileID {
		flip(s.state.Detail)
	}
	if s.state.MatchOfDay != nil && s.state.MatchOfDay.ID == profileID {
		flip(s.state.MatchOfDay)
	}
}

// refilter re-derives Filtered from All. Caller holds the store lock.
func (s *Slice) refilter() {
	s.state.Filtered = ApplyFilters(s.state.All, s.state.Filters, s.state.SearchTerm, s.state.SortBy)
}
