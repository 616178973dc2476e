package window

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/rhpo/tick"
)

var keyMap = map[tick.Key]ebiten.Key{
	tick.KeyUp:     ebiten.KeyArrowUp,
	tick.KeyDown:   ebiten.KeyArrowDown,
	tick.KeyLeft:   ebiten.KeyArrowLeft,
	tick.KeyRight:  ebiten.KeyArrowRight,
	tick.KeySpace:  ebiten.KeySpace,
	tick.KeyEscape: ebiten.KeyEscape,
}

// game adapts Surface to ebiten.Game. All methods run on ebiten's thread.
type game struct {
	s *Surface
}

func (g *game) Update() error {
	g.s.startOnce.Do(func() { close(g.s.started) })

	if g.s.closing.Load() {
		return ebiten.Termination
	}

	if ebiten.IsWindowBeingClosed() || inpututil.IsKeyJustReleased(ebiten.KeyEscape) {
		g.s.closeRequested.Store(true)
	}

	g.s.mutex.Lock()
	for key, code := range keyMap {
		g.s.polled[key] = ebiten.IsKeyPressed(code)
	}
	g.s.mutex.Unlock()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	frame := g.s.frontFrame()

	if frame.Clear != nil {
		screen.Fill(frame.Clear)
	}
	for _, cmd := range frame.Commands {
		drawCommand(screen, cmd)
	}
	if g.s.props.HUD {
		DrawText(screen, &TextProps{
			Text:    fmt.Sprintf("FPS %.0f  TPS %.0f", ebiten.ActualFPS(), ebiten.ActualTPS()),
			X:       8,
			Y:       16,
			Color:   color.RGBA{255, 255, 0, 255},
			FromEnd: true,
		})
	}

	select {
	case g.s.drawn <- struct{}{}:
	default:
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.s.layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

func drawCommand(screen *ebiten.Image, cmd tick.DrawCommand) {
	switch cmd.Type {
	case tick.ShapeCircle:
		vector.DrawFilledCircle(screen, float32(cmd.X), float32(cmd.Y), float32(cmd.Radius), cmd.Color, true)
	case tick.ShapeRectangle:
		vector.DrawFilledRect(screen, float32(cmd.X), float32(cmd.Y), float32(cmd.Width), float32(cmd.Height), cmd.Color, false)
	case tick.ShapeText:
		DrawText(screen, &TextProps{Text: cmd.Text, X: cmd.X, Y: cmd.Y, Color: cmd.Color})
	}
}
