package geometry3D

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// AxisAngle returns the Rodrigues rotation R = I + sin(a)K + (1-cos(a))K² about the unit
// vector axis, K being the skew matrix of axis.
func AxisAngle(axis r3.Vec, angle float64) *r3.Mat {
	var (
		K   = r3.Skew(axis)
		K2  = r3.NewMat(nil)
		R   = r3.Eye()
		sKt = r3.NewMat(nil)
	)
	K2.Mul(K, K)
	K2.Scale(1-math.Cos(angle), K2)
	sKt.Scale(math.Sin(angle), K)
	R.Add(R, sKt)
	R.Add(R, K2)
	return R
}

// RotationBetween returns the rotation that turns direction u onto direction v.
//
// Parallel inputs (|u x v| below DegenerateTol) give the identity when u.v > 0, otherwise
// a half turn about perp, which should be perpendicular to u. When perp is too short or
// not perpendicular to u, Perpendicular(u) is used instead. The result is always a proper
// rotation; zero-length inputs give the identity.
func RotationBetween(u, v, perp r3.Vec) *r3.Mat {
	var (
		uh, errU = Normalize(u)
		vh, errV = Normalize(v)
	)
	if errU != nil || errV != nil {
		return r3.Eye()
	}
	var (
		c   = r3.Cross(uh, vh)
		dot = r3.Dot(uh, vh)
	)
	if r3.Norm(c) < DegenerateTol {
		if dot > 0 {
			return r3.Eye()
		}
		return AxisAngle(halfTurnAxis(uh, perp), math.Pi)
	}
	axis, _ := Normalize(c)
	return AxisAngle(axis, math.Acos(Clip(dot, -1, 1)))
}

func halfTurnAxis(uh, perp r3.Vec) r3.Vec {
	p, err := Normalize(perp)
	if err != nil || math.Abs(r3.Dot(p, uh)) > perpendicularTol {
		return Perpendicular(uh)
	}
	return p
}

// RotX returns the rotation by angle about the X axis.
func RotX(angle float64) *r3.Mat {
	c, s := math.Cos(angle), math.Sin(angle)
	return r3.NewMat([]float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}

// RotY returns the rotation by angle about the Y axis.
func RotY(angle float64) *r3.Mat {
	c, s := math.Cos(angle), math.Sin(angle)
	return r3.NewMat([]float64{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	})
}

// RotZ returns the rotation by angle about the Z axis.
func RotZ(angle float64) *r3.Mat {
	c, s := math.Cos(angle), math.Sin(angle)
	return r3.NewMat([]float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

// SignedAngle returns the angle from a to b measured counter-clockwise about axis.
// All three vectors are expected to be unit length.
func SignedAngle(a, b, axis r3.Vec) float64 {
	angle := math.Acos(Clip(r3.Dot(a, b), -1, 1))
	if r3.Dot(r3.Cross(a, b), axis) < 0 {
		angle = -angle
	}
	return angle
}

// IsRotation reports whether R is orthonormal with determinant +1 within tol.
func IsRotation(R *r3.Mat, tol float64) bool {
	var RtR mat.Dense
	RtR.Mul(R.T(), R)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.
			if i == j {
				want = 1
			}
			if math.Abs(RtR.At(i, j)-want) > tol {
				return false
			}
		}
	}
	return math.Abs(R.Det()-1) <= tol
}
