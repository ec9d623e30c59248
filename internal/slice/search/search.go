// Package search owns the server-side profile search: the criteria
// record and the result page. Criteria are held independently of the
// results they produced and reset as a unit.
package search

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/rishta-app/rishta-client/internal/api"
	"github.com/rishta-app/rishta-client/internal/apperrors"
	"github.com/rishta-app/rishta-client/internal/model"
	"github.com/rishta-app/rishta-client/internal/store"
)

// Criteria is the flat record of optional search constraints sent to
// the backend as query parameters.
type Criteria struct {
	AgeMin        int
	AgeMax        int
	HeightMinCM   int
	HeightMaxCM   int
	Religion      string
	Caste         string
	City          string
	MaritalStatus string
	Education     string
	FreeText      string
	SortBy        string
	Page          int
}

func (c Criteria) query() string {
	q := url.Values{}
	setInt := func(k string, v int) {
		if v > 0 {
			q.Set(k, strconv.Itoa(v))
		}
	}
	setStr := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	setInt("ageMin", c.AgeMin)
	setInt("ageMax", c.AgeMax)
	setInt("heightMin", c.HeightMinCM)
	setInt("heightMax", c.HeightMaxCM)
	setStr("religion", c.Religion)
	setStr("caste", c.Caste)
	setStr("city", c.City)
	setStr("maritalStatus", c.MaritalStatus)
	setStr("education", c.Education)
	setStr("q", c.FreeText)
	setStr("sortBy", c.SortBy)
	setInt("page", c.Page)
	return q.Encode()
}

type State struct {
	Criteria   Criteria
	Results    []model.Profile
	Pagination *api.Pagination
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

// State returns a snapshot with a copied result list.
func (s *Slice) State() State {
	var out State
	s.store.View(func() {
		out = s.state
		out.Results = append([]model.Profile(nil), s.state.Results...)
		if s.state.Pagination != nil {
			p := *s.state.Pagination
			out.Pagination = &p
		}
	})
	return out
}

// SetCriteria replaces the criteria record. Local mutation only; the
// view triggers SearchProfiles when it wants fresh results.
func (s *Slice) SetCriteria(c Criteria) {
	s.store.Commit(func() { s.state.Criteria = c })
}

// ClearCriteria resets the criteria record as a unit.
func (s *Slice) ClearCriteria() {
	s.store.Commit(func() { s.state.Criteria = Criteria{} })
}

// SearchProfiles runs the current criteria against the backend and
// replaces the result page.
func (s *Slice) SearchProfiles(ctx context.Context) ([]model.Profile, error) {
	var criteria Criteria
	s.store.View(func() { criteria = s.state.Criteria })

	s.store.Commit(func() { s.state.Status.Begin() })

	path := "/search"
	if q := criteria.query(); q != "" {
		path += "?" + q
	}

	var results []model.Profile
	page, err := s.api.GetPage(ctx, path, &results)
	if err != nil {
		msg := apperrors.Message(err, "Search failed, please try again")
		s.store.Commit(func() { s.state.Status.Fail(msg) })
		return nil, err
	}

	s.store.Commit(func() {
		s.state.Results = results
		s.state.Pagination = page
		s.state.Status.Done()
	})
	return results, nil
}

// Reset drops criteria and results, used on identity change.
func (s *Slice) Reset() {
	s.store.Commit(func() { s.state = State{} })
}
