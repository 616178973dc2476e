// Package drop is a box2d demo: balls fall into a box and settle. The
// physics world is stepped only with the loop's fixed step, so two runs
// with the same number of updates end in the same state.
package drop

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/ByteArena/box2d"
	"github.com/rhpo/tick"
	"go.uber.org/zap"
)

const (
	velocityIterations = 6
	positionIterations = 3
)

type Props struct {
	// Balls dropped at start. Space adds one more.
	Balls   int
	Radius  float64
	Gravity float64
	Rebound float64
}

type Simulation struct {
	logger *zap.Logger
	props  Props
	canvas tick.Canvas

	world  *box2d.B2World
	ground []*box2d.B2Body
	balls  []*box2d.B2Body

	width, height float64
	spawned       int
	spaceDown     bool
	spawnPending  bool
	steps         int64
}

func New(props *Props, logger *zap.Logger) *Simulation {
	if props == nil {
		props = &Props{}
	}
	if props.Balls == 0 {
		props.Balls = 8
	}
	if props.Radius == 0 {
		props.Radius = 10
	}
	if props.Gravity == 0 {
		props.Gravity = 9.8
	}
	if props.Rebound == 0 {
		props.Rebound = 0.4
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Simulation{
		logger: logger.Named("drop"),
		props:  *props,
	}
}

func (s *Simulation) Initialize(surface tick.Surface) error {
	canvas, err := tick.SetupCanvas(surface)
	if err != nil {
		return fmt.Errorf("drop: %w", err)
	}
	s.canvas = canvas

	w, h := surface.Size()
	if w <= 0 || h <= 0 {
		return errors.New("drop: surface has no area")
	}
	s.width, s.height = float64(w), float64(h)

	world := box2d.MakeB2World(box2d.MakeB2Vec2(0, s.props.Gravity))
	world.SetAllowSleeping(true)
	s.world = &world

	s.createBorders()
	for i := 0; i < s.props.Balls; i++ {
		s.spawn()
	}
	s.logger.Info("world ready", zap.Int("balls", len(s.balls)), zap.Float64("gravity", s.props.Gravity))
	return nil
}

// createBorders builds a floor and two walls along the surface edges.
func (s *Simulation) createBorders() {
	thickness := 20.0
	s.ground = append(s.ground,
		s.staticBox(s.width/2, s.height+thickness/2, s.width, thickness),
		s.staticBox(-thickness/2, s.height/2, thickness, s.height),
		s.staticBox(s.width+thickness/2, s.height/2, thickness, s.height),
	)
}

func (s *Simulation) staticBox(cx, cy, width, height float64) *box2d.B2Body {
	bodyDef := box2d.MakeB2BodyDef()
	bodyDef.Type = box2d.B2BodyType.B2_staticBody
	bodyDef.Position.Set(PixelsToMeters(cx), PixelsToMeters(cy))
	body := s.world.CreateBody(&bodyDef)

	boxShape := box2d.MakeB2PolygonShape()
	boxShape.SetAsBox(PixelsToMeters(width/2), PixelsToMeters(height/2))
	fixture := body.CreateFixture(&boxShape, 0)
	fixture.SetFriction(0.6)
	return body
}

// spawn drops a ball at a position derived from the spawn count so runs are
// reproducible.
func (s *Simulation) spawn() {
	n := s.spawned
	s.spawned++

	margin := s.props.Radius * 2
	x := margin + float64((n*97)%atLeastOne(s.width-2*margin))
	y := margin + float64((n*31)%atLeastOne(s.height/3))

	bodyDef := box2d.MakeB2BodyDef()
	bodyDef.Type = box2d.B2BodyType.B2_dynamicBody
	bodyDef.AllowSleep = true
	bodyDef.Position.Set(PixelsToMeters(x), PixelsToMeters(y))
	body := s.world.CreateBody(&bodyDef)

	circleShape := box2d.MakeB2CircleShape()
	circleShape.SetRadius(PixelsToMeters(s.props.Radius))
	fixture := body.CreateFixture(&circleShape, 1.0)
	fixture.SetFriction(0.3)
	fixture.SetRestitution(s.props.Rebound)

	s.balls = append(s.balls, body)
}

func atLeastOne(v float64) int {
	if v < 1 {
		return 1
	}
	return int(v)
}

// HandleInput only records intent; the world changes inside Update.
func (s *Simulation) HandleInput(surface tick.Surface) error {
	down := tick.IsKeyPressed(surface, tick.KeySpace)
	if down && !s.spaceDown {
		s.spawnPending = true
	}
	s.spaceDown = down
	return nil
}

func (s *Simulation) Update(step float64) error {
	if s.world == nil {
		return errors.New("drop: world not initialized")
	}
	if s.spawnPending {
		s.spawnPending = false
		s.spawn()
		s.logger.Debug("spawned ball", zap.Int("balls", len(s.balls)))
	}
	s.world.Step(step, velocityIterations, positionIterations)
	s.steps++
	return nil
}

func (s *Simulation) Render(surface tick.Surface, ld tick.LoopData) error {
	if surface.Resized() {
		// The physics box keeps its original extent.
		surface.SetResized(false)
	}

	s.canvas.SetClearColor(color.RGBA{16, 16, 24, 255})
	s.canvas.Rect(0, s.height-2, s.width, 2, color.RGBA{200, 200, 200, 255})
	for i, p := range s.Positions() {
		shade := uint8(120 + (i*40)%136)
		s.canvas.Circle(p.X, p.Y, s.props.Radius, color.RGBA{shade, 90, 255 - shade, 255})
	}
	s.canvas.Text(8, 16, fmt.Sprintf("balls %d  steps %d  frame %d", len(s.balls), s.steps, ld.Frame), nil)
	return nil
}

func (s *Simulation) Cleanup() error {
	if s.world == nil {
		return nil
	}
	for _, body := range s.balls {
		s.world.DestroyBody(body)
	}
	for _, body := range s.ground {
		s.world.DestroyBody(body)
	}
	s.balls, s.ground = nil, nil
	s.world = nil
	return nil
}

// Positions returns ball centres in pixels.
func (s *Simulation) Positions() []Vector2 {
	out := make([]Vector2, 0, len(s.balls))
	for _, body := range s.balls {
		p := body.GetPosition()
		out = append(out, NewVector2(MetersToPixels(p.X), MetersToPixels(p.Y)))
	}
	return out
}

func (s *Simulation) Steps() int64 {
	return s.steps
}
