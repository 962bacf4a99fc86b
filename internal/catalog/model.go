// Package catalog loads the archive's JSON documents and normalizes them
// into sections, collections and episode records.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/samber/lo"
	"github.com/thomasarchive/archive/internal/deeplink"
	"github.com/thomasarchive/archive/internal/languages"
)

// ErrDocumentNotFound is returned by a Source when the key does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// Source fetches a raw JSON document by key, e.g. "season3.json".
type Source interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Kind selects the adapter used to decode a section's document.
type Kind string

const (
	KindSeason  Kind = "season"
	KindSpecial Kind = "special"
	KindFan     Kind = "fan"
	KindDVD     Kind = "dvd"
)

func (k Kind) Valid() bool {
	switch k {
	case KindSeason, KindSpecial, KindFan, KindDVD:
		return true
	}
	return false
}

// EpisodeRecord is a resolved, playable unit.
type EpisodeRecord struct {
	ID             string `json:"id,omitempty"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	HideEmbedTitle bool   `json:"hideEmbedTitle"`
}

// Episode is a catalog entry with its display metadata.
type Episode struct {
	ID             deeplink.EpisodeID
	Number         int
	Title          string
	URL            string
	Cover          string
	AirDate        string
	Summary        string
	AudioTracks    []string
	AuthorName     string
	AuthorURL      string
	HideEmbedTitle bool
}

func (e Episode) Record() EpisodeRecord {
	return EpisodeRecord{
		ID:             e.ID.String(),
		Title:          e.Title,
		URL:            e.URL,
		HideEmbedTitle: e.HideEmbedTitle,
	}
}

type TrackKind int

const (
	TrackDirect TrackKind = iota
	TrackIndexed
)

// TrackReference is a collection entry before resolution. Direct tracks
// carry their URL; indexed tracks point into a season by episode number.
type TrackReference struct {
	Kind           TrackKind
	ID             string
	Title          string
	URL            string
	HideEmbedTitle bool
	SeasonID       string
	EpisodeNumber  int
}

func DirectTrack(title, url string, hideEmbedTitle bool) TrackReference {
	return TrackReference{Kind: TrackDirect, Title: title, URL: url, HideEmbedTitle: hideEmbedTitle}
}

func IndexedTrack(title, seasonID string, episodeNumber int) TrackReference {
	return TrackReference{Kind: TrackIndexed, Title: title, SeasonID: seasonID, EpisodeNumber: episodeNumber}
}

// Collection is an ordered, playable set of tracks: a DVD or a whole section.
type Collection struct {
	ID         string
	Title      string
	Kind       Kind
	Tracks     []TrackReference
	Regions    []string
	Covers     map[string]string
	CoverURL   string
	SpineColor string
}

// AvailableIn reports whether the collection may be shown in region.
// An empty allow-list means unrestricted.
func (c Collection) AvailableIn(region string) bool {
	return regionAllowed(c.Regions, region)
}

// Cover picks the region cover, then the default cover, then cover_url.
func (c Collection) Cover(region string) string {
	if url, ok := c.Covers[languages.Normalize(region)]; ok && url != "" {
		return url
	}
	if url, ok := c.Covers["default"]; ok && url != "" {
		return url
	}
	return c.CoverURL
}

// SeasonIndex is the normalized episode list of one season or section.
type SeasonIndex struct {
	SeasonID string
	Episodes []Episode
}

// Lookup finds an episode by its number within the season.
func (s SeasonIndex) Lookup(number int) (Episode, bool) {
	return lo.Find(s.Episodes, func(e Episode) bool { return e.Number == number })
}

// Section is one loaded catalog section. Episode sections fill Episodes,
// DVD sections fill Collections.
type Section struct {
	Key         string
	Title       string
	Kind        Kind
	Episodes    []Episode
	Collections []Collection
}

// AsCollection turns an episode section into a collection that plays the
// whole section in order.
func (s Section) AsCollection() Collection {
	return Collection{
		ID:    s.Key,
		Title: s.Title,
		Kind:  s.Kind,
		Tracks: lo.Map(s.Episodes, func(e Episode, _ int) TrackReference {
			track := DirectTrack(e.Title, e.URL, e.HideEmbedTitle)
			track.ID = e.ID.String()
			return track
		}),
	}
}

func regionAllowed(allow []string, region string) bool {
	if len(allow) == 0 {
		return true
	}
	region = languages.Normalize(region)
	return lo.ContainsBy(allow, func(code string) bool {
		return strings.EqualFold(strings.TrimSpace(code), region)
	})
}
