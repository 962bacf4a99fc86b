package catalog

import (
	"context"
	"net/http"

	"github.com/samber/lo"
	"github.com/thomasarchive/archive/internal/httputil"
	"github.com/thomasarchive/archive/internal/languages"
)

type SnapshotProvider interface {
	Snapshot(ctx context.Context, region string) *Snapshot
}

type Handler struct {
	provider SnapshotProvider
}

func NewHandler(provider SnapshotProvider) *Handler {
	return &Handler{provider: provider}
}

type catalogResponse struct {
	Region   string            `json:"region"`
	Sections []sectionResponse `json:"sections"`
	Failed   []string          `json:"failed"`
}

type sectionResponse struct {
	Key         string               `json:"key"`
	Title       string               `json:"title"`
	Kind        Kind                 `json:"kind"`
	Episodes    []episodeResponse    `json:"episodes,omitempty"`
	Collections []collectionResponse `json:"collections,omitempty"`
}

type episodeResponse struct {
	ID             string   `json:"id,omitempty"`
	Number         int      `json:"number"`
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	Cover          string   `json:"cover,omitempty"`
	AirDate        string   `json:"airDate,omitempty"`
	Summary        string   `json:"summary,omitempty"`
	AudioTracks    []string `json:"audioTracks,omitempty"`
	AuthorName     string   `json:"authorName,omitempty"`
	AuthorURL      string   `json:"authorUrl,omitempty"`
	HideEmbedTitle bool     `json:"hideEmbedTitle"`
}

type collectionResponse struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Cover      string          `json:"cover,omitempty"`
	SpineColor string          `json:"spineColor,omitempty"`
	Tracks     []trackResponse `json:"tracks"`
}

type trackResponse struct {
	Title         string `json:"title"`
	Direct        bool   `json:"direct"`
	URL           string `json:"url,omitempty"`
	SeasonID      string `json:"seasonId,omitempty"`
	EpisodeNumber int    `json:"episodeNumber,omitempty"`
}

// Get serves GET /api/catalog for the request's region.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	region := languages.RegionFromContext(r.Context())
	snap := h.provider.Snapshot(r.Context(), region)

	resp := catalogResponse{
		Region:   snap.Region,
		Failed:   lo.Ternary(snap.Failed == nil, []string{}, snap.Failed),
		Sections: lo.Map(snap.Sections, func(s Section, _ int) sectionResponse { return newSectionResponse(s, region) }),
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func newSectionResponse(s Section, region string) sectionResponse {
	return sectionResponse{
		Key:   s.Key,
		Title: s.Title,
		Kind:  s.Kind,
		Episodes: lo.Map(s.Episodes, func(e Episode, _ int) episodeResponse {
			return episodeResponse{
				ID:             e.ID.String(),
				Number:         e.Number,
				Title:          e.Title,
				URL:            e.URL,
				Cover:          e.Cover,
				AirDate:        e.AirDate,
				Summary:        e.Summary,
				AudioTracks:    e.AudioTracks,
				AuthorName:     e.AuthorName,
				AuthorURL:      e.AuthorURL,
				HideEmbedTitle: e.HideEmbedTitle,
			}
		}),
		Collections: lo.Map(s.Collections, func(c Collection, _ int) collectionResponse {
			return collectionResponse{
				ID:         c.ID,
				Title:      c.Title,
				Cover:      c.Cover(region),
				SpineColor: c.SpineColor,
				Tracks: lo.Map(c.Tracks, func(t TrackReference, _ int) trackResponse {
					return trackResponse{
						Title:         t.Title,
						Direct:        t.Kind == TrackDirect,
						URL:           t.URL,
						SeasonID:      t.SeasonID,
						EpisodeNumber: t.EpisodeNumber,
					}
				}),
			}
		}),
	}
}
