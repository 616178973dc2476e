package drop

import "math"

type Vector2 struct {
	X, Y float64
}

func NewVector2(x, y float64) Vector2 {
	return Vector2{X: x, Y: y}
}

func (v Vector2) Sub(other Vector2) Vector2 {
	return Vector2{X: v.X - other.X, Y: v.Y - other.Y}
}

func (v Vector2) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

const PTM = 32.0

func PixelsToMeters(p float64) float64 {
	return p / PTM
}

func MetersToPixels(m float64) float64 {
	return m * PTM
}
