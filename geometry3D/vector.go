package geometry3D

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Tolerances shared by every degenerate-vector branch in the module.
const (
	// DegenerateTol is the length below which a vector has no usable direction.
	DegenerateTol = 1e-8
	// perpendicularTol is the cosine above which a supplied axis is not accepted
	// as perpendicular to the vector it should be perpendicular to.
	perpendicularTol = 1e-6
)

var (
	XAxis = r3.Vec{X: 1}
	YAxis = r3.Vec{Y: 1}
	ZAxis = r3.Vec{Z: 1}
)

// DegenerateVectorError reports a vector too short to define a direction.
type DegenerateVectorError struct {
	V    r3.Vec
	Norm float64
}

func (e *DegenerateVectorError) Error() string {
	return fmt.Sprintf("degenerate vector [%g, %g, %g]: norm %g is below %g",
		e.V.X, e.V.Y, e.V.Z, e.Norm, DegenerateTol)
}

// Normalize returns the unit vector along v.
func Normalize(v r3.Vec) (r3.Vec, error) {
	n := r3.Norm(v)
	if n < DegenerateTol {
		return r3.Vec{}, &DegenerateVectorError{V: v, Norm: n}
	}
	return r3.Scale(1/n, v), nil
}

func Cross(u, v r3.Vec) r3.Vec { return r3.Cross(u, v) }

func Dot(u, v r3.Vec) float64 { return r3.Dot(u, v) }

// Clip limits x to [lo, hi].
func Clip(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Perpendicular returns a unit vector perpendicular to u, built against the principal
// axis least aligned with u. Zero-length u yields the X axis.
func Perpendicular(u r3.Vec) r3.Vec {
	var (
		ax, ay, az = math.Abs(u.X), math.Abs(u.Y), math.Abs(u.Z)
		ref        r3.Vec
	)
	switch {
	case ax <= ay && ax <= az:
		ref = XAxis
	case ay <= az:
		ref = YAxis
	default:
		ref = ZAxis
	}
	p, err := Normalize(r3.Cross(u, ref))
	if err != nil {
		return XAxis
	}
	return p
}

// Lerp returns a*(1-t) + b*t.
func Lerp(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(r3.Scale(1-t, a), r3.Scale(t, b))
}

// Centroid returns the arithmetic mean of pts, the zero vector for an empty slice.
func Centroid(pts []r3.Vec) (c r3.Vec) {
	if len(pts) == 0 {
		return
	}
	for _, p := range pts {
		c = r3.Add(c, p)
	}
	return r3.Scale(1/float64(len(pts)), c)
}

// EqualWithin reports whether a and b differ by at most tol in every component.
func EqualWithin(a, b r3.Vec, tol float64) bool {
	d := r3.Sub(a, b)
	return math.Abs(d.X) <= tol && math.Abs(d.Y) <= tol && math.Abs(d.Z) <= tol
}

// ParseVec parses "x,y,z" (commas or whitespace) into a vector.
func ParseVec(s string) (v r3.Vec, err error) {
	var n int
	if n, err = fmt.Sscanf(s, "%g,%g,%g", &v.X, &v.Y, &v.Z); err == nil && n == 3 {
		return
	}
	if n, err = fmt.Sscanf(s, "%g %g %g", &v.X, &v.Y, &v.Z); err == nil && n == 3 {
		return
	}
	return r3.Vec{}, fmt.Errorf("unable to parse vector from %q, want \"x,y,z\"", s)
}
