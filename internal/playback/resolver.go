// Package playback resolves collections into play queues and drives the
// per-visitor player.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"
	"github.com/thomasarchive/archive/internal/catalog"
	"golang.org/x/sync/errgroup"
)

// ErrNothingPlayable means no track of a collection resolved. It is
// distinct from a partial result, which is not an error.
var ErrNothingPlayable = errors.New("collection has no playable tracks")

type SeasonFetcher interface {
	FetchSeason(ctx context.Context, region, seasonID string) (catalog.SeasonIndex, error)
}

// Resolver turns collections into queues. Season indexes it loads are kept
// for the resolver's lifetime, which is one playback session.
type Resolver struct {
	fetcher SeasonFetcher

	mu      sync.Mutex
	seasons map[string]catalog.SeasonIndex
}

func NewResolver(fetcher SeasonFetcher) *Resolver {
	return &Resolver{fetcher: fetcher, seasons: make(map[string]catalog.SeasonIndex)}
}

// Resolve maps every track of c to an episode record, keeping track order.
// Indexed tracks whose season or episode is missing are dropped.
func (r *Resolver) Resolve(ctx context.Context, region string, c catalog.Collection) ([]catalog.EpisodeRecord, error) {
	seasonIDs := lo.Uniq(lo.FilterMap(c.Tracks, func(t catalog.TrackReference, _ int) (string, bool) {
		return t.SeasonID, t.Kind == catalog.TrackIndexed
	}))
	seasons := r.loadSeasons(ctx, region, seasonIDs)

	queue := make([]catalog.EpisodeRecord, 0, len(c.Tracks))
	for i, t := range c.Tracks {
		switch t.Kind {
		case catalog.TrackDirect:
			if t.URL == "" {
				slog.Info("playback: dropping track without url", "collection", c.ID, "track", i)
				continue
			}
			queue = append(queue, catalog.EpisodeRecord{
				ID:             t.ID,
				Title:          t.Title,
				URL:            t.URL,
				HideEmbedTitle: t.HideEmbedTitle,
			})
		case catalog.TrackIndexed:
			index, ok := seasons[t.SeasonID]
			if !ok {
				continue
			}
			ep, ok := index.Lookup(t.EpisodeNumber)
			if !ok || ep.URL == "" {
				slog.Info("playback: dropping track, episode not found",
					"collection", c.ID, "season", t.SeasonID, "episode", t.EpisodeNumber)
				continue
			}
			record := ep.Record()
			record.Title = lo.CoalesceOrEmpty(t.Title, ep.Title)
			record.HideEmbedTitle = ep.HideEmbedTitle || t.HideEmbedTitle
			queue = append(queue, record)
		}
	}

	if len(queue) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNothingPlayable, c.ID)
	}
	return queue, nil
}

// loadSeasons returns the requested seasons that could be loaded. Uncached
// seasons are fetched concurrently, once each.
func (r *Resolver) loadSeasons(ctx context.Context, region string, ids []string) map[string]catalog.SeasonIndex {
	found := make(map[string]catalog.SeasonIndex, len(ids))
	var missing []string

	r.mu.Lock()
	for _, id := range ids {
		if index, ok := r.seasons[cacheKey(region, id)]; ok {
			found[id] = index
		} else {
			missing = append(missing, id)
		}
	}
	r.mu.Unlock()

	if len(missing) == 0 {
		return found
	}

	fetched := make([]*catalog.SeasonIndex, len(missing))
	var g errgroup.Group
	for i, id := range missing {
		g.Go(func() error {
			index, err := r.fetcher.FetchSeason(ctx, region, id)
			if err != nil {
				slog.Warn("playback: season unavailable", "season", id, "region", region, "error", err)
				return nil
			}
			fetched[i] = &index
			return nil
		})
	}
	_ = g.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, id := range missing {
		if fetched[i] == nil {
			continue
		}
		r.seasons[cacheKey(region, id)] = *fetched[i]
		found[id] = *fetched[i]
	}
	return found
}

func cacheKey(region, seasonID string) string {
	return region + "/" + seasonID
}
