// Package fade is the minimal demo simulation: the arrow keys fade the
// clear colour between black and white.
package fade

import (
	"fmt"
	"image/color"

	"github.com/rhpo/tick"
	"go.uber.org/zap"
)

// Rate is the colour change per update while a key is held.
const Rate = 0.01

type Game struct {
	logger *zap.Logger
	canvas tick.Canvas

	colour    float64
	direction int

	viewportW, viewportH int
	cleanedUp            bool
}

func New(logger *zap.Logger) *Game {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Game{logger: logger.Named("fade")}
}

func (g *Game) Initialize(s tick.Surface) error {
	canvas, err := tick.SetupCanvas(s)
	if err != nil {
		return fmt.Errorf("fade: %w", err)
	}
	g.canvas = canvas
	g.viewportW, g.viewportH = s.Size()
	return nil
}

func (g *Game) HandleInput(s tick.Surface) error {
	switch {
	case tick.IsKeyPressed(s, tick.KeyUp):
		g.direction = 1
	case tick.IsKeyPressed(s, tick.KeyDown):
		g.direction = -1
	default:
		g.direction = 0
	}
	g.logger.Debug("input", zap.Int("direction", g.direction))
	return nil
}

func (g *Game) Update(step float64) error {
	g.colour += float64(g.direction) * Rate

	if g.colour > 1 {
		g.colour = 1
	} else if g.colour < 0 {
		g.colour = 0
	}
	return nil
}

func (g *Game) Render(s tick.Surface, ld tick.LoopData) error {
	if s.Resized() {
		g.viewportW, g.viewportH = s.Size()
		s.SetResized(false)
		g.logger.Debug("viewport", zap.Int("width", g.viewportW), zap.Int("height", g.viewportH))
	}

	v := uint8(g.colour * 255)
	g.canvas.SetClearColor(color.RGBA{v, v, v, 255})
	g.canvas.Text(8, 16, fmt.Sprintf("colour %.2f", g.colour), color.RGBA{255, 0, 0, 255})
	return nil
}

func (g *Game) Cleanup() error {
	g.cleanedUp = true
	return nil
}

func (g *Game) Colour() float64 {
	return g.colour
}

func (g *Game) Viewport() (int, int) {
	return g.viewportW, g.viewportH
}
