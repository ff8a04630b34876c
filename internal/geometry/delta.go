package geometry

// Delta is a transform applied to a primitive by the render service.
// Implementations: Translate, Rotate, Scale.
type Delta interface {
	// Kind is the wire name of the transform ("Translate", "Rotate", "Scale").
	Kind() string
	// Matrix returns the affine matrix of the transform in screen space.
	Matrix() Matrix2D
}

// Translate moves a primitive by (DX, DY).
type Translate struct {
	DX int
	DY int
}

func (Translate) Kind() string { return "Translate" }

func (t Translate) Matrix() Matrix2D {
	return TranslateMatrix(float64(t.DX), float64(t.DY))
}

// Rotate turns a primitive by Angle radians about Center.
type Rotate struct {
	Angle  float64
	Center Position
}

func (Rotate) Kind() string { return "Rotate" }

func (r Rotate) Matrix() Matrix2D {
	return RotateAbout(r.Angle, r.Center.Point())
}

// Scale stretches a primitive by (SX, SY) about Center.
type Scale struct {
	SX     float64
	SY     float64
	Center Position
}

func (Scale) Kind() string { return "Scale" }

func (s Scale) Matrix() Matrix2D {
	return ScaleAbout(s.SX, s.SY, s.Center.Point())
}
