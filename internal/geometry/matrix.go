package geometry

import "math"

// Matrix2D represents a 2D affine transformation matrix.
// Layout: [a, b, c, d, e, f] representing:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
//
// Screen coordinates grow downwards, so a positive rotation angle turns
// clockwise on screen, matching the sign of the cross product of two screen
// vectors.
type Matrix2D [6]float64

// TranslateMatrix returns a translation matrix.
func TranslateMatrix(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

// ScaleMatrix returns a scale matrix about the origin.
func ScaleMatrix(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// RotateMatrix returns a rotation matrix about the origin (angle in radians).
func RotateMatrix(radians float64) Matrix2D {
	cos := math.Cos(radians)
	sin := math.Sin(radians)
	return Matrix2D{cos, sin, -sin, cos, 0, 0}
}

// RotateAbout returns a rotation by radians about the pivot c.
func RotateAbout(radians float64, c Point) Matrix2D {
	return TranslateMatrix(c.X, c.Y).Multiply(RotateMatrix(radians)).Multiply(TranslateMatrix(-c.X, -c.Y))
}

// ScaleAbout returns a scale by (sx, sy) about the pivot c.
func ScaleAbout(sx, sy float64, c Point) Matrix2D {
	return TranslateMatrix(c.X, c.Y).Multiply(ScaleMatrix(sx, sy)).Multiply(TranslateMatrix(-c.X, -c.Y))
}

// Multiply multiplies this matrix by another: result = m * other
// This applies 'other' first, then 'm'.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*other[0] + m[2]*other[1],        // a
		m[1]*other[0] + m[3]*other[1],        // b
		m[0]*other[2] + m[2]*other[3],        // c
		m[1]*other[2] + m[3]*other[3],        // d
		m[0]*other[4] + m[2]*other[5] + m[4], // e
		m[1]*other[4] + m[3]*other[5] + m[5], // f
	}
}

// Apply transforms a point.
func (m Matrix2D) Apply(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// ApplyAll transforms every point of pts into a new slice.
func (m Matrix2D) ApplyAll(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = m.Apply(p)
	}
	return out
}

// IsIdentity checks if this is the identity matrix (within epsilon).
func (m Matrix2D) IsIdentity() bool {
	const eps = 1e-10
	return math.Abs(m[0]-1) < eps &&
		math.Abs(m[1]) < eps &&
		math.Abs(m[2]) < eps &&
		math.Abs(m[3]-1) < eps &&
		math.Abs(m[4]) < eps &&
		math.Abs(m[5]) < eps
}
