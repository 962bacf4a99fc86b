package playback

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const DefaultSessionTTL = 2 * time.Hour

type sessionEntry struct {
	player   *Player
	lastSeen time.Time
}

// Sessions keeps one Player per visitor session. Each player owns its own
// resolver, so season indexes are never shared between visitors.
type Sessions struct {
	fetcher SeasonFetcher
	dwell   time.Duration
	ttl     time.Duration
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*sessionEntry
}

func NewSessions(fetcher SeasonFetcher, shieldDwell, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if shieldDwell <= 0 {
		shieldDwell = DefaultShieldDwell
	}
	return &Sessions{
		fetcher: fetcher,
		dwell:   shieldDwell,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*sessionEntry),
	}
}

// ShieldDwell is how long each player's shield stays up after a track starts.
func (s *Sessions) ShieldDwell() time.Duration {
	return s.dwell
}

// Player returns the session's player, creating it on first use.
func (s *Sessions) Player(sessionID string) *Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[sessionID]
	if !ok {
		entry = &sessionEntry{player: NewPlayer(NewResolver(s.fetcher), NewShield(s.dwell))}
		s.entries[sessionID] = entry
	}
	entry.lastSeen = s.now()
	return entry.player
}

// Lookup returns the session's player without creating one.
func (s *Sessions) Lookup(sessionID string) (*Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[sessionID]
	if !ok {
		return nil, false
	}
	entry.lastSeen = s.now()
	return entry.player, true
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep closes and forgets players idle for longer than the TTL.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, entry := range s.entries {
		if entry.lastSeen.Before(cutoff) {
			entry.player.Close()
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

func StartSessionSweeper(ctx context.Context, sessions *Sessions, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.Sweep(); n > 0 {
					slog.Info("playback: evicted idle sessions", "count", n, "remaining", sessions.Len())
				}
			}
		}
	}()
}
