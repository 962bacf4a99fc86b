package playback

import (
	"sync"
	"time"
)

const DefaultShieldDwell = 3 * time.Second

// Shield is the overlay that hides an embedded player's own title bar.
// Once shown it hides itself after the dwell, but never while the pointer
// is over the player; leaving the player restarts the dwell.
type Shield struct {
	dwell time.Duration

	mu          sync.Mutex
	visible     bool
	pointerOver bool
	timer       *time.Timer
	epoch       uint64
}

func NewShield(dwell time.Duration) *Shield {
	if dwell <= 0 {
		dwell = DefaultShieldDwell
	}
	return &Shield{dwell: dwell}
}

func (s *Shield) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = true
	s.restartLocked()
}

func (s *Shield) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.visible = false
}

// Reset hides the shield and forgets the pointer position.
func (s *Shield) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.visible = false
	s.pointerOver = false
}

func (s *Shield) SetPointer(over bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pointerOver == over {
		return
	}
	s.pointerOver = over
	if !over && s.visible {
		s.restartLocked()
	}
}

func (s *Shield) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

func (s *Shield) restartLocked() {
	s.stopLocked()
	if s.pointerOver {
		return
	}
	epoch := s.epoch
	s.timer = time.AfterFunc(s.dwell, func() { s.expire(epoch) })
}

func (s *Shield) stopLocked() {
	s.epoch++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Shield) expire(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch || s.pointerOver {
		return
	}
	s.visible = false
	s.timer = nil
}
