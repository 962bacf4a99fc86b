package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/thomasarchive/archive/internal/catalog"
	"github.com/thomasarchive/archive/internal/embedurl"
)

// ErrSuperseded is returned by Activate when a Close or a newer Activate
// happened while the queue was resolving. The result is discarded.
var ErrSuperseded = errors.New("activation superseded")

type State string

const (
	StateClosed State = "closed"
	StateOpen   State = "open"
)

// PlaybackState is the live queue. Position is valid whenever Queue is
// non-empty.
type PlaybackState struct {
	Queue    []catalog.EpisodeRecord
	Position int
}

func (s PlaybackState) Open() bool {
	return len(s.Queue) > 0
}

// Frame is what the player surface shows after a transition.
type Frame struct {
	State        State  `json:"state"`
	CollectionID string `json:"collectionId,omitempty"`
	Position     int    `json:"position"`
	Total        int    `json:"total"`
	Label        string `json:"label,omitempty"`
	Title        string `json:"title,omitempty"`
	EpisodeID    string `json:"episodeId,omitempty"`
	EmbedURL     string `json:"embedUrl,omitempty"`
	CanPrev      bool   `json:"canPrev"`
	IsLast       bool   `json:"isLast"`
	Shield       bool   `json:"shield"`
}

// Player is the playback state machine for one visitor: Closed, or Open at
// a queue position.
type Player struct {
	resolver *Resolver
	shield   *Shield

	mu           sync.Mutex
	state        PlaybackState
	collectionID string
	generation   uint64
}

func NewPlayer(resolver *Resolver, shield *Shield) *Player {
	return &Player{resolver: resolver, shield: shield}
}

// Activate resolves c and, on success, replaces the queue and opens at
// position 0. On failure the current state is left as it was.
func (p *Player) Activate(ctx context.Context, region string, c catalog.Collection) (Frame, error) {
	p.mu.Lock()
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	queue, err := p.resolver.Resolve(ctx, region, c)

	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return p.frameLocked(), fmt.Errorf("%w: %s", ErrSuperseded, c.ID)
	}
	if err != nil {
		return p.frameLocked(), err
	}
	p.state = PlaybackState{Queue: queue}
	p.collectionID = c.ID
	p.enterLocked()
	return p.frameLocked(), nil
}

// Next advances, closing the player after the last track.
func (p *Player) Next() Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.state.Open() {
		return p.frameLocked()
	}
	if p.state.Position+1 < len(p.state.Queue) {
		p.state.Position++
		p.enterLocked()
	} else {
		p.closeLocked()
	}
	return p.frameLocked()
}

// Prev steps back; it does nothing at the first track.
func (p *Player) Prev() Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Open() && p.state.Position > 0 {
		p.state.Position--
		p.enterLocked()
	}
	return p.frameLocked()
}

func (p *Player) Close() Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return p.frameLocked()
}

func (p *Player) Pointer(over bool) Frame {
	p.shield.SetPointer(over)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameLocked()
}

func (p *Player) Current() Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frameLocked()
}

// State returns a copy of the live queue and position.
func (p *Player) State() PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PlaybackState{
		Queue:    append([]catalog.EpisodeRecord(nil), p.state.Queue...),
		Position: p.state.Position,
	}
}

func (p *Player) enterLocked() {
	if p.state.Queue[p.state.Position].HideEmbedTitle {
		p.shield.Show()
	} else {
		p.shield.Hide()
	}
}

func (p *Player) closeLocked() {
	p.generation++
	p.state = PlaybackState{}
	p.collectionID = ""
	p.shield.Reset()
}

func (p *Player) frameLocked() Frame {
	if !p.state.Open() {
		return Frame{State: StateClosed}
	}
	pos := p.state.Position
	total := len(p.state.Queue)
	track := p.state.Queue[pos]
	return Frame{
		State:        StateOpen,
		CollectionID: p.collectionID,
		Position:     pos,
		Total:        total,
		Label:        fmt.Sprintf("%d/%d", pos+1, total),
		Title:        track.Title,
		EpisodeID:    track.ID,
		EmbedURL:     embedurl.Normalize(track.URL),
		CanPrev:      pos > 0,
		IsLast:       pos == total-1,
		Shield:       p.shield.Visible(),
	}
}
