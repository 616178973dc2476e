package tick

import (
	"image/color"
	"sync"
)

type DrawCommand struct {
	Type   ShapeType
	X, Y   float64
	Width  float64
	Height float64
	Radius float64
	Color  color.Color
	Text   string
}

// Frame is a presented set of draw commands.
type Frame struct {
	Clear    color.Color
	Commands []DrawCommand
}

// DrawQueue implements Canvas by recording commands into a back buffer.
// Swap hands the back buffer over as a finished Frame.
type DrawQueue struct {
	clear        color.Color
	drawCommands []DrawCommand
	drawMutex    sync.Mutex
}

func NewDrawQueue() *DrawQueue {
	return &DrawQueue{
		clear:        color.RGBA{0, 0, 0, 255},
		drawCommands: make([]DrawCommand, 0),
	}
}

func (q *DrawQueue) Pen(cmd DrawCommand) {
	q.drawMutex.Lock()
	defer q.drawMutex.Unlock()

	if cmd.Color == nil {
		cmd.Color = color.RGBA{255, 255, 255, 255}
	}
	q.drawCommands = append(q.drawCommands, cmd)
}

func (q *DrawQueue) SetClearColor(c color.Color) {
	q.drawMutex.Lock()
	defer q.drawMutex.Unlock()
	q.clear = c
}

func (q *DrawQueue) Circle(x, y, radius float64, c color.Color) {
	q.Pen(DrawCommand{Type: ShapeCircle, X: x, Y: y, Radius: radius, Color: c})
}

func (q *DrawQueue) Rect(x, y, width, height float64, c color.Color) {
	q.Pen(DrawCommand{Type: ShapeRectangle, X: x, Y: y, Width: width, Height: height, Color: c})
}

func (q *DrawQueue) Text(x, y float64, text string, c color.Color) {
	if text == "" {
		return
	}
	q.Pen(DrawCommand{Type: ShapeText, X: x, Y: y, Text: text, Color: c})
}

// Swap returns the recorded frame and starts an empty one. The clear colour
// carries over.
func (q *DrawQueue) Swap() Frame {
	q.drawMutex.Lock()
	defer q.drawMutex.Unlock()

	frame := Frame{
		Clear:    q.clear,
		Commands: make([]DrawCommand, len(q.drawCommands)),
	}
	copy(frame.Commands, q.drawCommands)
	q.drawCommands = q.drawCommands[:0]
	return frame
}
