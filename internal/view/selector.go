// Package view decides which catalog section is visible and renders the
// catalog page.
package view

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/thomasarchive/archive/internal/catalog"
	"github.com/thomasarchive/archive/internal/deeplink"
)

// Selector holds the active section key. Exactly one section is shown
// unless a search query is set, in which case search results replace the
// tab view until the query is cleared.
type Selector struct {
	keys   []string
	active string
	query  string
}

func NewSelector(keys []string) *Selector {
	s := &Selector{keys: slices.Clone(keys)}
	if len(keys) > 0 {
		s.active = keys[0]
	}
	return s
}

// Initial picks the starting section: an explicit tab, else the section of
// the deep-linked episode, else the first section.
func Initial(snap *catalog.Snapshot, tab, path string) *Selector {
	s := NewSelector(snap.Keys())
	if s.Activate(tab) {
		return s
	}
	if _, id, ok := deeplink.Decode(path); ok {
		if key, found := snap.SectionFor(id); found {
			s.Activate(key)
		}
	}
	return s
}

// Activate switches to key. Unknown keys leave the selection unchanged.
func (s *Selector) Activate(key string) bool {
	if !slices.Contains(s.keys, key) {
		return false
	}
	s.active = key
	return true
}

func (s *Selector) SetQuery(q string) {
	s.query = strings.TrimSpace(q)
}

func (s *Selector) Active() string { return s.active }
func (s *Selector) Query() string  { return s.query }

func (s *Selector) Searching() bool {
	return s.query != ""
}

// Visible reports whether the section with key is shown in tab mode.
func (s *Selector) Visible(key string) bool {
	return !s.Searching() && key == s.active
}

// Result is one search hit: an episode or a DVD collection.
type Result struct {
	SectionKey   string
	SectionTitle string
	Title        string
	EpisodeID    string
	CollectionID string
	Cover        string
}

// Search returns every episode and collection whose title contains query,
// ignoring case, in catalog order.
func Search(snap *catalog.Snapshot, query string) []Result {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}
	matches := func(title string) bool {
		return strings.Contains(strings.ToLower(title), needle)
	}

	var results []Result
	for _, sec := range snap.Sections {
		for _, ep := range lo.Filter(sec.Episodes, func(e catalog.Episode, _ int) bool { return matches(e.Title) }) {
			results = append(results, Result{
				SectionKey:   sec.Key,
				SectionTitle: sec.Title,
				Title:        ep.Title,
				EpisodeID:    ep.ID.String(),
				Cover:        ep.Cover,
			})
		}
		for _, c := range lo.Filter(sec.Collections, func(c catalog.Collection, _ int) bool { return matches(c.Title) }) {
			results = append(results, Result{
				SectionKey:   sec.Key,
				SectionTitle: sec.Title,
				Title:        c.Title,
				CollectionID: c.ID,
				Cover:        c.Cover(snap.Region),
			})
		}
	}
	return results
}
