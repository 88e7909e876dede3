package alignment

import (
	"log"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/PeterAlpajaro/EEG-Model-Generator/geometry3D"
)

// Up is the global direction the coronal-plane normal is turned toward by the twist step.
var Up = geometry3D.YAxis

// Alignment is the result of Align.
type Alignment struct {
	Points LandmarkSet
	// Primary maps the original landmarks onto the intermediate set: anchors placed,
	// before the twist about the anchor axis.
	Primary geometry3D.Transform
	// Transform is the full similarity transform, Twist after Primary.
	Transform geometry3D.Transform
	Scale     float64
	Twist     float64  // radians about the anchor axis
	Fallbacks []string // degenerate branches taken, for diagnostics
}

// Align maps the landmark set onto reference anchors with a similarity transform.
//
// The nasion lands on refAnchor and the inion on refOpposite; the ear landmarks follow
// rigidly with the same uniform scale. A final twist about the anchor axis turns the
// normal of the anchor axis and the ear-to-ear vector toward Up. Degenerate geometry never
// fails: a zero nasion-inion distance uses scale 1, and the twist is skipped when the
// anchor axis is too short, the ear vector is parallel to it, or the axis is parallel to
// Up.
func Align(original LandmarkSet, refAnchor, refOpposite r3.Vec) (al Alignment) {
	var (
		A, B       = original[Nasion], original[Inion]
		AB         = r3.Sub(B, A)
		AD         = r3.Sub(refOpposite, refAnchor)
		origDist   = r3.Norm(AB)
		targetDist = r3.Norm(AD)
	)
	al.Scale = 1
	if origDist != 0 {
		al.Scale = targetDist / origDist
	} else {
		log.Printf("align: nasion and inion coincide, using unit scale")
		al.Fallbacks = append(al.Fallbacks, "zero anchor distance")
	}
	R := geometry3D.RotationBetween(AB, AD, geometry3D.Perpendicular(AB))
	al.Primary = geometry3D.ComposeHomogeneous(R, A, al.Scale, refAnchor)
	al.Transform = al.Primary
	al.Points = original.Transformed(al.Primary)

	twist, ok, reason := twistAngle(al.Points, AD)
	if !ok {
		al.Fallbacks = append(al.Fallbacks, reason)
		return
	}
	al.Twist = twist
	ADdir, _ := geometry3D.Normalize(AD)
	extra := geometry3D.RotationAbout(geometry3D.AxisAngle(ADdir, twist), refAnchor)
	al.Transform = extra.Compose(al.Primary)
	al.Points = al.Points.Transformed(extra)
	return
}

// twistAngle returns the signed angle about AD that turns the normal of (AD, left-right)
// onto the component of Up perpendicular to AD.
func twistAngle(pts LandmarkSet, AD r3.Vec) (angle float64, ok bool, reason string) {
	ADdir, err := geometry3D.Normalize(AD)
	if err != nil {
		return 0, false, "reference anchors coincide"
	}
	CB := r3.Sub(pts[LeftPreauricular], pts[RightPreauricular])
	normal, err := geometry3D.Normalize(r3.Cross(AD, CB))
	if err != nil {
		return 0, false, "ear axis parallel to anchor axis"
	}
	upPerp, err := geometry3D.Normalize(r3.Sub(Up, r3.Scale(r3.Dot(Up, ADdir), ADdir)))
	if err != nil {
		return 0, false, "anchor axis parallel to up"
	}
	angle = geometry3D.SignedAngle(normal, upPerp, ADdir)
	if math.IsNaN(angle) {
		return 0, false, "twist angle undefined"
	}
	return angle, true, ""
}
