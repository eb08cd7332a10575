package deck

import "math"

// Vec3 is a point or direction in three dimensions.
type Vec3 [3]float64

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Scale returns s·v.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Dot returns the scalar product of v and o.
func (v Vec3) Dot(o Vec3) float64 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

// Len returns the Euclidean length of v.
func (v Vec3) Len() float64 {
	return math.Sqrt(v.Dot(v))
}

// Unit returns v scaled to length one. The zero vector is returned unchanged.
func (v Vec3) Unit() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Matrix3 is a row-major 3x3 rotation matrix.
type Matrix3 [3][3]float64

// Identity3 is the identity rotation.
var Identity3 = Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// MulVec returns m·v.
func (m Matrix3) MulVec(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// Mul returns m·o.
func (m Matrix3) Mul(o Matrix3) Matrix3 {
	var r Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				r[i][j] += m[i][k] * o[k][j]
			}
		}
	}
	return r
}

// Transpose returns the transpose of m, which is its inverse for rotations.
func (m Matrix3) Transpose() Matrix3 {
	var r Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// Transform is a rigid placement: p' = Rotation·p + Translation.
// A nil Rotation means no rotation.
type Transform struct {
	ID          int      `json:"id,omitempty"`
	Translation Vec3     `json:"translation"`
	Rotation    *Matrix3 `json:"rotation,omitempty"`
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{}
}

// Translate returns a pure translation by v.
func Translate(v Vec3) Transform {
	return Transform{Translation: v}
}

func (t Transform) rotation() Matrix3 {
	if t.Rotation == nil {
		return Identity3
	}
	return *t.Rotation
}

// IsIdentity reports whether t moves nothing.
func (t Transform) IsIdentity() bool {
	return t.Translation == (Vec3{}) && (t.Rotation == nil || *t.Rotation == Identity3)
}

// Apply maps point p through t.
func (t Transform) Apply(p Vec3) Vec3 {
	return t.rotation().MulVec(p).Add(t.Translation)
}

// ApplyVector maps direction v through t's rotation only.
func (t Transform) ApplyVector(v Vec3) Vec3 {
	return t.rotation().MulVec(v)
}

// Inverse returns the transform undoing t.
func (t Transform) Inverse() Transform {
	if t.Rotation == nil {
		return Transform{Translation: t.Translation.Scale(-1)}
	}
	rt := t.Rotation.Transpose()
	return Transform{
		Translation: rt.MulVec(t.Translation).Scale(-1),
		Rotation:    &rt,
	}
}

// Compose returns t∘o: the transform applying o first, then t.
func (t Transform) Compose(o Transform) Transform {
	out := Transform{Translation: t.Apply(o.Translation)}
	if t.Rotation != nil || o.Rotation != nil {
		r := t.rotation().Mul(o.rotation())
		out.Rotation = &r
	}
	return out
}

// TranslationLength returns the length of t's displacement.
func (t Transform) TranslationLength() float64 {
	return t.Translation.Len()
}
