package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// SectionResult is the outcome of loading one section: either Section or
// Err is set.
type SectionResult struct {
	Ref     SectionRef
	Section *Section
	Err     error
}

// Loader fetches and normalizes the sections listed in a manifest.
type Loader struct {
	source   Source
	manifest Manifest
}

func NewLoader(source Source, manifest Manifest) *Loader {
	return &Loader{source: source, manifest: manifest}
}

func (l *Loader) Manifest() Manifest {
	return l.manifest
}

// Load fetches every section offered in region concurrently. A failed
// section is reported in its result and never affects its siblings.
// Results follow manifest order.
func (l *Loader) Load(ctx context.Context, region string) []SectionResult {
	refs := lo.Filter(l.manifest.Sections, func(ref SectionRef, _ int) bool {
		return regionAllowed(ref.Regions, region)
	})

	results := make([]SectionResult, len(refs))
	var g errgroup.Group
	for i, ref := range refs {
		g.Go(func() error {
			section, err := l.LoadSection(ctx, ref, region)
			results[i] = SectionResult{Ref: ref, Section: section, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		if res.Err != nil {
			slog.Warn("catalog: section unavailable", "section", res.Ref.Key, "region", region, "error", res.Err)
		}
	}
	return results
}

func (l *Loader) LoadSection(ctx context.Context, ref SectionRef, region string) (*Section, error) {
	key := ref.DocumentKey(region)
	data, err := l.source.Fetch(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	section, err := decodeSection(ref, region, data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return section, nil
}

// FetchSeason loads the season or section referenced by a DVD track.
func (l *Loader) FetchSeason(ctx context.Context, region, seasonID string) (SeasonIndex, error) {
	ref := l.manifest.seasonRef(seasonID)
	if ref.Kind == KindDVD {
		return SeasonIndex{}, fmt.Errorf("season %q refers to a dvd section", seasonID)
	}
	section, err := l.LoadSection(ctx, ref, region)
	if err != nil {
		return SeasonIndex{}, err
	}
	return SeasonIndex{SeasonID: seasonID, Episodes: section.Episodes}, nil
}

// Snapshot loads the whole catalog for region and indexes it.
func (l *Loader) Snapshot(ctx context.Context, region string) *Snapshot {
	results := l.Load(ctx, region)
	snap := &Snapshot{Region: region}
	for _, res := range results {
		if res.Err != nil {
			snap.Failed = append(snap.Failed, res.Ref.Key)
			continue
		}
		snap.Sections = append(snap.Sections, *res.Section)
	}
	snap.Index = NewIndex(snap.Sections)
	return snap
}
