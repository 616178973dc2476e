package window

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

type TextProps struct {
	Text  string
	X, Y  float64
	Color color.Color
	Font  font.Face
	// FromEnd measures X from the right edge of the screen.
	FromEnd bool
}

func DrawText(screen *ebiten.Image, props *TextProps) {
	if props == nil || props.Text == "" {
		return
	}
	applyTextDefaults(props)

	x := int(props.X)
	y := int(props.Y)
	if props.FromEnd {
		x = textX(screen.Bounds().Dx(), props)
	}

	text.Draw(screen, props.Text, props.Font, x, y, props.Color)
}

func textX(screenWidth int, props *TextProps) int {
	bounds, _ := font.BoundString(props.Font, props.Text)
	return int(float64(screenWidth) - float64(bounds.Max.X.Ceil()) - props.X)
}

func applyTextDefaults(props *TextProps) {
	if props.Font == nil {
		props.Font = basicfont.Face7x13
	}
	if props.Color == nil {
		props.Color = color.RGBA{255, 255, 255, 255}
	}
}
