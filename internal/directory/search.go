// Package directory implements the memory search over profile records:
// a name filter (exact substring or fuzzy) followed by an optional
// education filter.
package directory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"reunion/internal/fuzzy"
	"reunion/internal/models"
)

// DefaultFuzzyThreshold is the minimum partial ratio for a fuzzy name match.
const DefaultFuzzyThreshold = 70

// Source supplies profile records to the searcher.
type Source interface {
	List(ctx context.Context) ([]models.Profile, error)
	SearchByName(ctx context.Context, fragment string) ([]models.Profile, error)
}

// Basic is the name-only projection of a profile.
type Basic struct {
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	PenName   string `json:"penname"`
}

// Match is a profile together with the education entry that matched.
type Match struct {
	Basic
	Edu *EducationMatch `json:"edu"`
}

// Result holds either structured matches or basic rows, depending on
// whether the query asked for the education filter.
type Result struct {
	Structured bool
	Matches    []Match
	Basic      []Basic
}

// Items returns the rows to serialize.
func (r *Result) Items() any {
	if r.Structured {
		return r.Matches
	}
	return r.Basic
}

// Len is the number of rows in the result.
func (r *Result) Len() int {
	if r.Structured {
		return len(r.Matches)
	}
	return len(r.Basic)
}

// Searcher runs directory queries against a Source.
type Searcher struct {
	source    Source
	threshold float64
}

// NewSearcher creates a Searcher. A non-positive threshold selects DefaultFuzzyThreshold.
func NewSearcher(source Source, threshold float64) *Searcher {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	return &Searcher{source: source, threshold: threshold}
}

// Search validates q, selects candidates and applies the education filter.
func (s *Searcher) Search(ctx context.Context, q Query) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	candidates, err := s.candidates(ctx, q)
	if err != nil {
		return nil, err
	}

	result := &Result{Structured: q.Structured(), Matches: []Match{}, Basic: []Basic{}}
	for i := range candidates {
		p := &candidates[i]
		if !result.Structured {
			result.Basic = append(result.Basic, basicOf(p))
			continue
		}
		if edu := matchEducation(p.EduDetails, q); edu != nil {
			result.Matches = append(result.Matches, Match{Basic: basicOf(p), Edu: edu})
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":   "Search",
		"fuzzy":      q.Fuzzy,
		"structured": result.Structured,
		"candidates": len(candidates),
		"results":    result.Len(),
	}).Debug("directory search finished")
	return result, nil
}

func (s *Searcher) candidates(ctx context.Context, q Query) ([]models.Profile, error) {
	if !q.Fuzzy {
		profiles, err := s.source.SearchByName(ctx, q.Name)
		if err != nil {
			return nil, fmt.Errorf("search profiles by name: %w", err)
		}
		return profiles, nil
	}

	all, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	name := strings.ToLower(q.Name)
	kept := make([]models.Profile, 0, len(all))
	for _, p := range all {
		if s.fuzzyMatch(name, p) {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

func (s *Searcher) fuzzyMatch(name string, p models.Profile) bool {
	for _, field := range []string{p.FirstName, p.LastName, p.PenName} {
		if fuzzy.PartialRatio(name, strings.ToLower(field)) >= s.threshold {
			return true
		}
	}
	return false
}

func basicOf(p *models.Profile) Basic {
	return Basic{Username: p.Username, FirstName: p.FirstName, LastName: p.LastName, PenName: p.PenName}
}

func itoa(v int) string { return strconv.Itoa(v) }
