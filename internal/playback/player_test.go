package playback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thomasarchive/archive/internal/catalog"
)

func newTestPlayer(fetcher SeasonFetcher) *Player {
	return NewPlayer(NewResolver(fetcher), NewShield(time.Hour))
}

func TestPlayerWalksQueueAndClosesAtEnd(t *testing.T) {
	p := newTestPlayer(newFakeSeasons(season2()))

	frame, err := p.Activate(context.Background(), "en-gb", exampleCollection())
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if frame.State != StateOpen || frame.Position != 0 || frame.Total != 2 {
		t.Fatalf("unexpected frame after activate: %+v", frame)
	}
	if frame.Label != "1/2" {
		t.Errorf("expected label 1/2, got %q", frame.Label)
	}
	if frame.CanPrev || frame.IsLast {
		t.Errorf("first of two should have no prev and not be last: %+v", frame)
	}
	if frame.EmbedURL != "https://www.youtube.com/embed/a?autoplay=1&modestbranding=1&rel=0" {
		t.Errorf("unexpected embed url %q", frame.EmbedURL)
	}

	frame = p.Next()
	if frame.Position != 1 || frame.Label != "2/2" || !frame.IsLast || !frame.CanPrev {
		t.Fatalf("unexpected frame after next: %+v", frame)
	}
	if frame.EpisodeID != "episodes/2/4" {
		t.Errorf("expected episodes/2/4, got %q", frame.EpisodeID)
	}

	frame = p.Next()
	if frame.State != StateClosed {
		t.Fatalf("expected closed after last track, got %+v", frame)
	}
	if p.State().Open() {
		t.Error("expected empty queue after closing")
	}
}

func TestPlayerPrevIsNoOpAtStart(t *testing.T) {
	p := newTestPlayer(newFakeSeasons(season2()))
	if _, err := p.Activate(context.Background(), "en-gb", exampleCollection()); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	frame := p.Prev()
	if frame.State != StateOpen || frame.Position != 0 {
		t.Fatalf("expected to stay at 0, got %+v", frame)
	}

	p.Next()
	frame = p.Prev()
	if frame.Position != 0 {
		t.Errorf("expected prev to return to 0, got %d", frame.Position)
	}
}

func TestPlayerTransitionsWhileClosed(t *testing.T) {
	p := newTestPlayer(newFakeSeasons())
	for name, step := range map[string]func() Frame{"next": p.Next, "prev": p.Prev, "close": p.Close} {
		if frame := step(); frame.State != StateClosed {
			t.Errorf("%s while closed: got %+v", name, frame)
		}
	}
}

func TestPlayerFailedActivationKeepsState(t *testing.T) {
	p := newTestPlayer(newFakeSeasons(season2()))
	if _, err := p.Activate(context.Background(), "en-gb", exampleCollection()); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	p.Next()

	broken := catalog.Collection{ID: "broken", Tracks: []catalog.TrackReference{catalog.IndexedTrack("", "s2", 99)}}
	frame, err := p.Activate(context.Background(), "en-gb", broken)
	if !errors.Is(err, ErrNothingPlayable) {
		t.Fatalf("expected ErrNothingPlayable, got %v", err)
	}
	if frame.State != StateOpen || frame.Position != 1 || frame.CollectionID != "mixed" {
		t.Errorf("expected previous playback to continue, got %+v", frame)
	}
}

func TestPlayerActivateReplacesQueue(t *testing.T) {
	p := newTestPlayer(newFakeSeasons(season2()))
	if _, err := p.Activate(context.Background(), "en-gb", exampleCollection()); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	p.Next()

	single := catalog.Collection{ID: "one", Tracks: []catalog.TrackReference{catalog.DirectTrack("Solo", "https://youtu.be/solo", false)}}
	frame, err := p.Activate(context.Background(), "en-gb", single)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if frame.Position != 0 || frame.Total != 1 || frame.CollectionID != "one" {
		t.Errorf("expected fresh queue at 0, got %+v", frame)
	}
}

func TestPlayerCloseDuringResolveDiscardsResult(t *testing.T) {
	fetcher := newFakeSeasons(season2())
	fetcher.gate = make(chan struct{})
	p := newTestPlayer(fetcher)

	type result struct {
		frame Frame
		err   error
	}
	done := make(chan result, 1)
	go func() {
		frame, err := p.Activate(context.Background(), "en-gb", exampleCollection())
		done <- result{frame, err}
	}()

	deadline := time.After(2 * time.Second)
	for fetcher.callCount("s2") == 0 {
		select {
		case <-deadline:
			t.Fatal("resolution never started")
		case <-time.After(5 * time.Millisecond):
		}
	}
	p.Close()
	close(fetcher.gate)

	res := <-done
	if !errors.Is(res.err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", res.err)
	}
	if res.frame.State != StateClosed || p.Current().State != StateClosed {
		t.Errorf("expected player to stay closed, got %+v", p.Current())
	}
}

func TestPlayerShieldFollowsTrack(t *testing.T) {
	p := newTestPlayer(newFakeSeasons())
	c := catalog.Collection{ID: "c", Tracks: []catalog.TrackReference{
		catalog.DirectTrack("Hidden", "https://youtu.be/h", true),
		catalog.DirectTrack("Plain", "https://youtu.be/p", false),
	}}

	frame, err := p.Activate(context.Background(), "en-gb", c)
	if err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !frame.Shield {
		t.Error("expected shield on a track with a hidden title")
	}
	if frame = p.Next(); frame.Shield {
		t.Error("expected no shield on a plain track")
	}
	if frame = p.Prev(); !frame.Shield {
		t.Error("expected shield again after going back")
	}
	if frame = p.Close(); frame.Shield {
		t.Error("expected close to clear the shield")
	}
}
