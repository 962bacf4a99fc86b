package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thomasarchive/archive/internal/deeplink"
)

// SectionRef describes one section to load: where its document lives and
// which adapter decodes it.
type SectionRef struct {
	Key         string           `json:"key"`
	Title       string           `json:"title"`
	Kind        Kind             `json:"kind"`
	Document    string           `json:"document,omitempty"`
	Season      int              `json:"season,omitempty"`
	LinkSection deeplink.Section `json:"link_section,omitempty"`
	Regions     []string         `json:"regions,omitempty"`
}

// DocumentKey returns the source key for the section. A "{region}"
// placeholder is replaced with the active region, so a region without its
// own file simply fails to load.
func (r SectionRef) DocumentKey(region string) string {
	doc := r.Document
	if doc == "" {
		doc = r.Key + ".json"
	}
	return strings.ReplaceAll(doc, "{region}", region)
}

func (r SectionRef) linkSection() deeplink.Section {
	if r.LinkSection != "" {
		return r.LinkSection
	}
	switch r.Kind {
	case KindSeason:
		return deeplink.Episodes
	case KindSpecial:
		return deeplink.Specials
	case KindFan:
		return deeplink.Fan
	}
	return ""
}

// episodeID derives the deep-link identifier of the n-th episode.
func (r SectionRef) episodeID(number int) deeplink.EpisodeID {
	var id deeplink.EpisodeID
	switch section := r.linkSection(); section {
	case deeplink.Episodes:
		if r.Season < 1 {
			return deeplink.EpisodeID{}
		}
		id = deeplink.EpisodeID{Section: section, Season: r.Season, Number: number}
	case "":
		return deeplink.EpisodeID{}
	default:
		id = deeplink.EpisodeID{Section: section, Number: number}
	}
	if !id.Valid() {
		return deeplink.EpisodeID{}
	}
	return id
}

// Manifest lists the sections of the catalog in display order.
type Manifest struct {
	Sections []SectionRef `json:"sections"`
}

func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	seen := make(map[string]bool, len(m.Sections))
	for i, ref := range m.Sections {
		if ref.Key == "" {
			return Manifest{}, fmt.Errorf("manifest section %d: missing key", i)
		}
		if !ref.Kind.Valid() {
			return Manifest{}, fmt.Errorf("manifest section %q: unknown kind %q", ref.Key, ref.Kind)
		}
		if seen[ref.Key] {
			return Manifest{}, fmt.Errorf("manifest section %q: duplicate key", ref.Key)
		}
		seen[ref.Key] = true
		if ref.Title == "" {
			m.Sections[i].Title = ref.Key
		}
	}
	return m, nil
}

func (m Manifest) Section(key string) (SectionRef, bool) {
	for _, ref := range m.Sections {
		if ref.Key == key {
			return ref, true
		}
	}
	return SectionRef{}, false
}

// seasonRef returns the manifest entry for a season id referenced by a
// DVD track, or a bare season ref reading "<seasonID>.json".
func (m Manifest) seasonRef(seasonID string) SectionRef {
	if ref, ok := m.Section(seasonID); ok {
		return ref
	}
	return SectionRef{Key: seasonID, Title: seasonID, Kind: KindSeason}
}

//go:embed default_manifest.json
var defaultManifest []byte

// DefaultManifest is the built-in section list used when no manifest file
// is configured.
func DefaultManifest() Manifest {
	m, err := ParseManifest(defaultManifest)
	if err != nil {
		panic(fmt.Sprintf("built-in manifest: %v", err))
	}
	return m
}
