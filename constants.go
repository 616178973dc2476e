package tick

type ShapeType string

const (
	ShapeCircle    ShapeType = "circle"
	ShapeRectangle ShapeType = "rectangle"
	ShapeText      ShapeType = "text"
)

// Key names the keys simulations may query. Surfaces map them to their
// backend's key codes.
type Key string

const (
	KeyUp     Key = "up"
	KeyDown   Key = "down"
	KeyLeft   Key = "left"
	KeyRight  Key = "right"
	KeySpace  Key = "space"
	KeyEscape Key = "escape"
)
