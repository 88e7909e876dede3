package geometry3D

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// HeadFrame is the head-relative coordinate frame derived from the four landmarks
// (nasion, left preauricular, right preauricular, inion).
//
// Sagittal points from nasion to inion, Coronal from the left to the right ear and
// Vertical = Sagittal x Coronal. Coronal is re-orthogonalised against Sagittal so the
// three axes form a right handed orthonormal basis.
type HeadFrame struct {
	Center                      r3.Vec
	Sagittal, Coronal, Vertical r3.Vec
}

func NewHeadFrame(nasion, left, right, inion r3.Vec) (hf HeadFrame, err error) {
	hf.Center = Centroid([]r3.Vec{nasion, left, right, inion})
	if hf.Sagittal, err = Normalize(r3.Sub(inion, nasion)); err != nil {
		return HeadFrame{}, fmt.Errorf("nasion and inion coincide: %w", err)
	}
	coronal := r3.Sub(right, left)
	if hf.Vertical, err = Normalize(r3.Cross(hf.Sagittal, coronal)); err != nil {
		return HeadFrame{}, fmt.Errorf("ear axis is parallel to the nasion-inion axis: %w", err)
	}
	hf.Coronal = r3.Unit(r3.Cross(hf.Vertical, hf.Sagittal))
	return
}

// Oriented returns the frame with Vertical on the side of up. Turning it over negates
// Vertical and Coronal together, so the basis stays right handed and Sagittal is kept.
func (hf HeadFrame) Oriented(up r3.Vec) HeadFrame {
	if r3.Dot(hf.Vertical, up) < 0 {
		hf.Vertical = r3.Scale(-1, hf.Vertical)
		hf.Coronal = r3.Scale(-1, hf.Coronal)
	}
	return hf
}

// Forward points from the back of the head to the face.
func (hf HeadFrame) Forward() r3.Vec { return r3.Scale(-1, hf.Sagittal) }

// ToWorld maps canonical head coordinates (X forward, Y up, Z toward the right ear) to
// world coordinates, without the center offset.
func (hf HeadFrame) ToWorld(local r3.Vec) r3.Vec {
	return r3.Add(r3.Add(
		r3.Scale(local.X, hf.Forward()),
		r3.Scale(local.Y, hf.Vertical)),
		r3.Scale(local.Z, hf.Coronal))
}

// Height is the signed distance of p above the center along Vertical.
func (hf HeadFrame) Height(p r3.Vec) float64 {
	return r3.Dot(r3.Sub(p, hf.Center), hf.Vertical)
}

func (hf HeadFrame) String() string {
	f := func(v r3.Vec) string { return fmt.Sprintf("[%8.5f %8.5f %8.5f]", v.X, v.Y, v.Z) }
	return fmt.Sprintf("Center %s Sagittal %s Coronal %s Vertical %s",
		f(hf.Center), f(hf.Sagittal), f(hf.Coronal), f(hf.Vertical))
}
