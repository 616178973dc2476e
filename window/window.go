// Package window presents frames in a desktop window through ebiten.
//
// ebiten owns the main thread and calls back into Update, Draw and Layout
// there. The game loop runs on its own goroutine and talks to the window
// only through Present, which publishes a finished frame and snapshots the
// input state polled on the ebiten side.
package window

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rhpo/tick"
)

var ErrClosed = errors.New("window closed")

type Props struct {
	Title  string
	Width  int
	Height int
	VSync  bool
	// HUD overlays the measured FPS and TPS.
	HUD bool
}

// Surface implements tick.Surface, tick.Canvas and tick.Keyboard.
type Surface struct {
	*tick.DrawQueue

	props Props

	mutex   sync.RWMutex
	front   tick.Frame
	keys    map[tick.Key]bool
	polled  map[tick.Key]bool
	width   int
	height  int
	resized bool

	closeRequested atomic.Bool
	closing        atomic.Bool

	started   chan struct{}
	startOnce sync.Once
	stopped   chan struct{}
	runErr    error
	drawn     chan struct{}
}

func New(props *Props) *Surface {
	if props == nil {
		props = &Props{}
	}
	if props.Title == "" {
		props.Title = "tick"
	}
	if props.Width == 0 {
		props.Width = 600
	}
	if props.Height == 0 {
		props.Height = 480
	}

	return &Surface{
		DrawQueue: tick.NewDrawQueue(),
		props:     *props,
		keys:      make(map[tick.Key]bool),
		polled:    make(map[tick.Key]bool),
		width:     props.Width,
		height:    props.Height,
		started:   make(chan struct{}),
		stopped:   make(chan struct{}),
		drawn:     make(chan struct{}, 1),
	}
}

// RunMain opens the window and blocks until it closes. It must be called
// from the main goroutine.
func (s *Surface) RunMain() error {
	defer close(s.stopped)

	ebiten.SetWindowTitle(s.props.Title)
	ebiten.SetWindowSize(s.props.Width, s.props.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(s.props.VSync)
	ebiten.SetWindowClosingHandled(true)

	err := ebiten.RunGame(&game{s: s})
	if err != nil {
		s.runErr = fmt.Errorf("window: %w", err)
	}
	return s.runErr
}

// Initialize waits until the window is up.
func (s *Surface) Initialize() error {
	select {
	case <-s.started:
		return nil
	case <-s.stopped:
		if s.runErr != nil {
			return s.runErr
		}
		return ErrClosed
	}
}

func (s *Surface) ShouldTerminate() bool {
	if s.closeRequested.Load() {
		return true
	}
	select {
	case <-s.stopped:
		return true
	default:
		return false
	}
}

// Present publishes the recorded frame and takes the latest input snapshot.
// With vsync it blocks until ebiten has drawn the frame, which paces the
// loop to the display.
func (s *Surface) Present() error {
	select {
	case <-s.drawn:
	default:
	}

	frame := s.Swap()

	s.mutex.Lock()
	s.front = frame
	for k := range s.keys {
		delete(s.keys, k)
	}
	for k, v := range s.polled {
		s.keys[k] = v
	}
	s.mutex.Unlock()

	if !s.props.VSync {
		return nil
	}
	select {
	case <-s.drawn:
	case <-s.stopped:
	}
	return nil
}

// Close makes the ebiten loop terminate on its next update.
func (s *Surface) Close() error {
	s.closing.Store(true)
	return nil
}

func (s *Surface) Resized() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.resized
}

func (s *Surface) SetResized(resized bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.resized = resized
}

func (s *Surface) Size() (int, int) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.width, s.height
}

func (s *Surface) IsKeyPressed(key tick.Key) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.keys[key]
}

func (s *Surface) frontFrame() tick.Frame {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.front
}

func (s *Surface) layout(width, height int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if width == s.width && height == s.height {
		return
	}
	s.width, s.height = width, height
	s.resized = true
}
