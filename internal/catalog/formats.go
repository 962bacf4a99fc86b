package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/thomasarchive/archive/internal/languages"
)

// flexInt accepts both 7 and "7".
type flexInt int

func (n *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("episode number %q: %w", s, err)
		}
		*n = flexInt(v)
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = flexInt(v)
	return nil
}

// linkField is either a plain URL or an object of per-region URLs keyed
// like {"uk": "...", "us": "..."}.
type linkField struct {
	url      string
	variants map[string]string
}

func (l *linkField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		return nil
	case len(data) > 0 && data[0] == '{':
		return json.Unmarshal(data, &l.variants)
	default:
		return json.Unmarshal(data, &l.url)
	}
}

func (l linkField) pick(region string) string {
	if l.url != "" {
		return l.url
	}
	if url := l.variants[languages.LinkVariant(region)]; url != "" {
		return url
	}
	for _, key := range []string{"uk", "us", "default"} {
		if url := l.variants[key]; url != "" {
			return url
		}
	}
	return ""
}

type rawEpisode struct {
	EpisodeNumber  flexInt   `json:"episode_number"`
	UKTitle        string    `json:"uk_title"`
	Title          string    `json:"title"`
	Link           linkField `json:"link"`
	VideoURL       string    `json:"video_url"`
	Cover          string    `json:"cover"`
	Image          string    `json:"image"`
	AirDate        string    `json:"air_date"`
	Summary        string    `json:"summary"`
	AudioTracks    []string  `json:"audio_tracks"`
	HideEmbedTitle bool      `json:"hide_embed_title"`
}

type rawEpisodeList struct {
	Episodes []rawEpisode `json:"episodes"`
}

type rawFanItem struct {
	Title          string `json:"title"`
	VideoURL       string `json:"video_url"`
	Cover          string `json:"cover"`
	AuthorName     string `json:"author_name"`
	AuthorURL      string `json:"author_url"`
	HideEmbedTitle bool   `json:"hide_embed_title"`
}

type rawTrack struct {
	Title          string  `json:"title"`
	IsDirectLink   bool    `json:"is_direct_link"`
	URL            string  `json:"url"`
	SeasonID       string  `json:"season_id"`
	EpisodeNumber  flexInt `json:"episode_number"`
	HideEmbedTitle bool    `json:"hide_embed_title"`
}

type rawCollection struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Tracks     []rawTrack        `json:"tracks"`
	Regions    []string          `json:"regions"`
	Covers     map[string]string `json:"covers"`
	CoverURL   string            `json:"cover_url"`
	SpineColor string            `json:"spine_color"`
}

// decodeSection runs the adapter selected by ref.Kind.
func decodeSection(ref SectionRef, region string, data []byte) (*Section, error) {
	section := &Section{Key: ref.Key, Title: ref.Title, Kind: ref.Kind}
	var err error
	switch ref.Kind {
	case KindSeason, KindSpecial:
		section.Episodes, err = decodeEpisodes(ref, region, data)
	case KindFan:
		section.Episodes, err = decodeFan(data)
	case KindDVD:
		section.Collections, err = decodeCollections(ref, region, data)
	default:
		err = fmt.Errorf("unknown section kind %q", ref.Kind)
	}
	if err != nil {
		return nil, err
	}
	return section, nil
}

// decodeEpisodes reads {"<sectionKey>": {"episodes": [...]}}. A document
// holding a single section is accepted under any key.
func decodeEpisodes(ref SectionRef, region string, data []byte) ([]Episode, error) {
	var doc map[string]rawEpisodeList
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", ref.Kind, err)
	}
	list, ok := doc[ref.Key]
	if !ok {
		if len(doc) != 1 {
			return nil, fmt.Errorf("decode %s document: no %q entry", ref.Kind, ref.Key)
		}
		list = lo.Values(doc)[0]
	}

	episodes := make([]Episode, 0, len(list.Episodes))
	for _, raw := range list.Episodes {
		number := int(raw.EpisodeNumber)
		episodes = append(episodes, Episode{
			ID:             ref.episodeID(number),
			Number:         number,
			Title:          lo.CoalesceOrEmpty(raw.UKTitle, raw.Title, fmt.Sprintf("Episode %02d", number)),
			URL:            lo.CoalesceOrEmpty(raw.Link.pick(region), raw.VideoURL),
			Cover:          lo.CoalesceOrEmpty(raw.Cover, raw.Image),
			AirDate:        raw.AirDate,
			Summary:        raw.Summary,
			AudioTracks:    raw.AudioTracks,
			HideEmbedTitle: raw.HideEmbedTitle,
		})
	}
	return episodes, nil
}

// decodeFan reads a bare array. Fan entries are numbered from 1 in
// document order.
func decodeFan(data []byte) ([]Episode, error) {
	var items []rawFanItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode fan document: %w", err)
	}
	ref := SectionRef{Kind: KindFan}
	return lo.Map(items, func(item rawFanItem, i int) Episode {
		return Episode{
			ID:             ref.episodeID(i + 1),
			Number:         i + 1,
			Title:          item.Title,
			URL:            item.VideoURL,
			Cover:          item.Cover,
			AuthorName:     item.AuthorName,
			AuthorURL:      item.AuthorURL,
			HideEmbedTitle: item.HideEmbedTitle,
		}
	}), nil
}

// decodeCollections reads the DVD array and drops collections not
// offered in region.
func decodeCollections(ref SectionRef, region string, data []byte) ([]Collection, error) {
	var raws []rawCollection
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode dvd document: %w", err)
	}

	seen := make(map[string]bool, len(raws))
	collections := make([]Collection, 0, len(raws))
	for _, raw := range raws {
		id := raw.ID
		if id == "" {
			id = Slug(raw.Title)
		}
		if id == "" || seen[id] {
			slog.Warn("catalog: skipping dvd with missing or duplicate id", "section", ref.Key, "id", id, "title", raw.Title)
			continue
		}
		seen[id] = true

		c := Collection{
			ID:         id,
			Title:      raw.Title,
			Kind:       KindDVD,
			Tracks:     make([]TrackReference, 0, len(raw.Tracks)),
			Regions:    raw.Regions,
			Covers:     lo.MapKeys(raw.Covers, func(_ string, k string) string { return languages.Normalize(k) }),
			CoverURL:   raw.CoverURL,
			SpineColor: raw.SpineColor,
		}
		if !c.AvailableIn(region) {
			continue
		}
		for i, t := range raw.Tracks {
			track, ok := t.reference()
			if !ok {
				slog.Warn("catalog: skipping dvd track without url or season", "dvd", id, "track", i, "title", t.Title)
				continue
			}
			c.Tracks = append(c.Tracks, track)
		}
		collections = append(collections, c)
	}
	return collections, nil
}

func (t rawTrack) reference() (TrackReference, bool) {
	switch {
	case t.IsDirectLink || (t.SeasonID == "" && t.URL != ""):
		if t.URL == "" {
			return TrackReference{}, false
		}
		return DirectTrack(t.Title, t.URL, t.HideEmbedTitle), true
	case t.SeasonID != "" && t.EpisodeNumber > 0:
		track := IndexedTrack(t.Title, t.SeasonID, int(t.EpisodeNumber))
		track.HideEmbedTitle = t.HideEmbedTitle
		return track, true
	}
	return TrackReference{}, false
}

// Slug lowercases title and joins its ASCII alphanumeric runs with '-'.
func Slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}
