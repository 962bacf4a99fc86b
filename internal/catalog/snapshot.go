package catalog

import (
	"github.com/samber/lo"
	"github.com/thomasarchive/archive/internal/deeplink"
)

// Snapshot is the catalog as loaded for one region. Sections that failed
// to load are listed in Failed and otherwise absent.
type Snapshot struct {
	Region   string
	Sections []Section
	Failed   []string
	Index    *Index
}

func (s *Snapshot) Section(key string) (Section, bool) {
	return lo.Find(s.Sections, func(sec Section) bool { return sec.Key == key })
}

// Collection finds a DVD by id, else an episode section by key.
func (s *Snapshot) Collection(id string) (Collection, bool) {
	for _, sec := range s.Sections {
		if c, ok := lo.Find(sec.Collections, func(c Collection) bool { return c.ID == id }); ok {
			return c, true
		}
	}
	if sec, ok := s.Section(id); ok && sec.Kind != KindDVD {
		return sec.AsCollection(), true
	}
	return Collection{}, false
}

// EpisodeCollection wraps a single indexed episode as a one-track collection.
func (s *Snapshot) EpisodeCollection(id deeplink.EpisodeID) (Collection, bool) {
	ep, ok := s.Index.Lookup(id)
	if !ok {
		return Collection{}, false
	}
	track := DirectTrack(ep.Title, ep.URL, ep.HideEmbedTitle)
	track.ID = ep.ID.String()
	return Collection{ID: ep.ID.String(), Title: ep.Title, Tracks: []TrackReference{track}}, true
}

// SectionFor returns the key of the section holding episode id.
func (s *Snapshot) SectionFor(id deeplink.EpisodeID) (string, bool) {
	for _, sec := range s.Sections {
		if lo.ContainsBy(sec.Episodes, func(e Episode) bool { return e.ID == id }) {
			return sec.Key, true
		}
	}
	return "", false
}

func (s *Snapshot) Keys() []string {
	return lo.Map(s.Sections, func(sec Section, _ int) string { return sec.Key })
}
