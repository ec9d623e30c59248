package matches

import (
	"sort"
	"strings"
	"time"

	"github.com/rishta-app/rishta-client/internal/model"
)

type SortKey string

const (
	SortByName     SortKey = "name"
	SortByNewest   SortKey = "newest"
	SortByVerified SortKey = "verified"
	SortByScore    SortKey = "score"
)

// Filters is the flat record of optional constraints. Zero values mean
// "not active"; active predicates are AND-composed.
type Filters struct {
	AgeMin        int
	AgeMax        int
	HeightMinCM   int
	HeightMaxCM   int
	Religion      string
	Caste         string
	City          string
	MaritalStatus string
	Education     string
	Diet          string
}

// ApplyFilters derives the filtered, sorted view of matches from the
// full list plus the current filter/search/sort inputs.
//
// It is a pure function: the input slice is never mutated and identical
// inputs produce identical ordered output.
func ApplyFilters(matches []model.Profile, f Filters, searchTerm string, sortBy SortKey) []model.Profile {
	now := time.Now()
	term := strings.ToLower(strings.TrimSpace(searchTerm))

	out := make([]model.Profile, 0, len(matches))
	for _, p := range matches {
		if !passesFilters(p, f, now) {
			continue
		}
		if term != "" && !matchesSearch(p, term) {
			continue
		}
		out = append(out, p)
	}

	sortProfiles(out, sortBy)
	return out
}

func passesFilters(p model.Profile, f Filters, now time.Time) bool {
	age := p.Age(now)
	if f.AgeMin > 0 && age < f.AgeMin {
		return false
	}
	if f.AgeMax > 0 && age > f.AgeMax {
		return false
	}
	if f.HeightMinCM > 0 && p.HeightCM < f.HeightMinCM {
		return false
	}
	if f.HeightMaxCM > 0 && p.HeightCM > f.HeightMaxCM {
		return false
	}
	for _, c := range []struct{ want, have string }{
		{f.Religion, p.Religion},
		{f.Caste, p.Caste},
		{f.City, p.City},
		{f.MaritalStatus, p.MaritalStatus},
		{f.Education, p.Education},
		{f.Diet, p.Diet},
	} {
		if c.want != "" && !strings.EqualFold(c.want, c.have) {
			return false
		}
	}
	return true
}

func matchesSearch(p model.Profile, term string) bool {
	for _, field := range []string{p.Name, p.Occupation, p.City, p.Caste} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func sortProfiles(ps []model.Profile, sortBy SortKey) {
	switch sortBy {
	case SortByName:
		sort.SliceStable(ps, func(i, j int) bool {
			return strings.ToLower(ps[i].Name) < strings.ToLower(ps[j].Name)
		})
	case SortByNewest:
		sort.SliceStable(ps, func(i, j int) bool {
			return ps[i].JoinedAt.After(ps[j].JoinedAt)
		})
	case SortByVerified:
		sort.SliceStable(ps, func(i, j int) bool {
			return ps[i].Verified && !ps[j].Verified
		})
	case SortByScore:
		sort.SliceStable(ps, func(i, j int) bool {
			return ps[i].MatchScore > ps[j].MatchScore
		})
	}
}
