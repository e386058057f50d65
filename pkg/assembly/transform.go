package assembly

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Transform is a 4x4 column-major affine transform (object to world):
// elements 0-2, 4-6, 8-10 are the rotation columns, 12-14 the
// translation.
type Transform [16]float64

// Identity returns the identity transform.
func Identity() Transform {
	var t Transform
	t[0], t[5], t[10], t[15] = 1, 1, 1, 1
	return t
}

// Translation returns a pure translation transform.
func Translation(x, y, z float64) Transform {
	t := Identity()
	t[12], t[13], t[14] = x, y, z
	return t
}

// Point applies the transform to a point, including translation.
func (t Transform) Point(p v3.Vec) v3.Vec {
	return v3.Vec{
		X: t[0]*p.X + t[4]*p.Y + t[8]*p.Z + t[12],
		Y: t[1]*p.X + t[5]*p.Y + t[9]*p.Z + t[13],
		Z: t[2]*p.X + t[6]*p.Y + t[10]*p.Z + t[14],
	}
}

// Direction applies the transform to a direction: no translation,
// renormalized afterwards. Degenerate vectors are returned unchanged.
func (t Transform) Direction(d v3.Vec) v3.Vec {
	out := v3.Vec{
		X: t[0]*d.X + t[4]*d.Y + t[8]*d.Z,
		Y: t[1]*d.X + t[5]*d.Y + t[9]*d.Z,
		Z: t[2]*d.X + t[6]*d.Y + t[10]*d.Z,
	}
	length := out.Length()
	if length > 1e-10 {
		return out.DivScalar(length)
	}
	return out
}
