package geometry

import "math"

// Position is an integer screen coordinate as reported by the pointer surface
// and as stored by the render service.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Pos is a convenience constructor for Position.
func Pos(x, y int) Position {
	return Position{X: x, Y: y}
}

// Point converts the position to a float point.
func (p Position) Point() Point {
	return Point{X: float64(p.X), Y: float64(p.Y)}
}

// Add returns p offset by (dx, dy).
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Point is a 2D point or vector used for derived geometry.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is a convenience constructor for Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Dot returns the dot product of two vectors.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the z component of the 3D cross product of two vectors.
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Length returns the length of the vector.
func (p Point) Length() float64 {
	return math.Hypot(p.X, p.Y)
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(q Point) float64 {
	return p.Sub(q).Length()
}

// Round returns the nearest integer position.
func (p Point) Round() Position {
	return Position{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

// Floor returns the position with both components floored.
func (p Point) Floor() Position {
	return Position{X: int(math.Floor(p.X)), Y: int(math.Floor(p.Y))}
}

// Distance returns the Euclidean distance between two positions.
func Distance(a, b Position) float64 {
	return a.Point().Distance(b.Point())
}
