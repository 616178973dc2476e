package tick

import (
	"errors"
	"image/color"
)

// Surface is the presentation capability the loop drives.
type Surface interface {
	Initialize() error
	ShouldTerminate() bool
	// Present swaps or flushes the finished frame and polls pending events.
	Present() error
	Resized() bool
	SetResized(resized bool)
	Size() (width, height int)
}

// Simulation is the game logic. Update must take its notion of elapsed time
// only from step.
type Simulation interface {
	Initialize(s Surface) error
	HandleInput(s Surface) error
	Update(step float64) error
	Render(s Surface, ld LoopData) error
	Cleanup() error
}

// Keyboard is implemented by surfaces that deliver key state.
type Keyboard interface {
	IsKeyPressed(key Key) bool
}

// Canvas is implemented by surfaces that accept draw calls.
type Canvas interface {
	SetClearColor(c color.Color)
	Circle(x, y, radius float64, c color.Color)
	Rect(x, y, width, height float64, c color.Color)
	Text(x, y float64, text string, c color.Color)
}

var ErrNoCanvas = errors.New("surface does not accept draw calls")

// SetupCanvas prepares a surface for a simulation: it clears to black and
// drops any pending resize so the first Render starts from a known state.
func SetupCanvas(s Surface) (Canvas, error) {
	canvas, ok := s.(Canvas)
	if !ok {
		return nil, ErrNoCanvas
	}
	canvas.SetClearColor(color.RGBA{0, 0, 0, 255})
	s.SetResized(false)
	return canvas, nil
}

// IsKeyPressed reports false for surfaces without a keyboard.
func IsKeyPressed(s Surface, key Key) bool {
	kb, ok := s.(Keyboard)
	return ok && kb.IsKeyPressed(key)
}
