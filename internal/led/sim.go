package led

import "sync"

// Sim keeps the last frame in memory. It stands in for hardware in tests
// and headless runs.
type Sim struct {
	mu     sync.Mutex
	pixels int
	last   []byte
	frames int
	closed bool
}

func NewSim(pixels int) *Sim {
	return &Sim{pixels: pixels, last: make([]byte, 3*pixels)}
}

func (s *Sim) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if err := checkFrame(rgb, s.pixels); err != nil {
		return err
	}
	copy(s.last, rgb)
	s.frames++
	return nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Last copies the most recent frame.
func (s *Sim) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.last...)
}

// Frames is the number of frames written.
func (s *Sim) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
