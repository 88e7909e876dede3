package placement

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/PeterAlpajaro/EEG-Model-Generator/geometry3D"
	"github.com/PeterAlpajaro/EEG-Model-Generator/mesh"
	"github.com/PeterAlpajaro/EEG-Model-Generator/utils"
)

// TemplateUp is the local axis of an electrode template that is turned onto the aim
// direction.
var TemplateUp = geometry3D.YAxis

const (
	TemplateExtentRatio = 1.5 // longest template extent as a multiple of the sphere radius
	CentralTargetOffset = 0.025
	CentralTargetScale  = 2.5
	CentralTargetTag    = "central-target"
)

// PlacedElectrode is a template moved onto the head. Tag is diagnostic only.
type PlacedElectrode struct {
	Mesh      mesh.TriangleMesh
	Transform geometry3D.Transform
	Tag       string
}

// Transform returns the rigid placement: rotate TemplateUp onto aim about the origin,
// then move to surfacePoint + aim*offset. A zero aim keeps the template orientation and
// ignores the offset.
func Transform(surfacePoint, aim r3.Vec, offset float64) geometry3D.Transform {
	dir, err := geometry3D.Normalize(aim)
	if err != nil {
		return geometry3D.Translation(surfacePoint)
	}
	R := geometry3D.RotationBetween(TemplateUp, dir, geometry3D.XAxis)
	return geometry3D.Translation(r3.Add(surfacePoint, r3.Scale(offset, dir))).
		Compose(geometry3D.Rotation(R))
}

func Place(template mesh.TriangleMesh, surfacePoint, aim r3.Vec, offset float64) PlacedElectrode {
	tr := Transform(surfacePoint, aim, offset)
	return PlacedElectrode{
		Mesh:      template.Transformed(tr),
		Transform: tr,
	}
}

// Request is one electrode to place.
type Request struct {
	Point, Aim r3.Vec
	Offset     float64
	Tag        string
}

// PlaceAll places every request, fanning the work out over workers goroutines. The
// result is in request order whatever the worker count.
func PlaceAll(requests []Request, template mesh.TriangleMesh, workers int) (placed []PlacedElectrode) {
	placed = make([]PlacedElectrode, len(requests))
	utils.ParallelFor(workers, len(requests), func(k int) {
		r := requests[k]
		placed[k] = Place(template, r.Point, r.Aim, r.Offset)
		placed[k].Tag = r.Tag
	})
	return
}

// Assemble merges the head, when given, and every placed electrode into one mesh in
// that order.
func Assemble(head *mesh.TriangleMesh, placed []PlacedElectrode) mesh.TriangleMesh {
	parts := make([]mesh.TriangleMesh, 0, len(placed)+1)
	if head != nil {
		parts = append(parts, *head)
	}
	for _, p := range placed {
		parts = append(parts, p.Mesh)
	}
	return mesh.Merge(parts...)
}

// NormalizeTemplate centers the template on its vertex centroid and scales it so its
// longest bounding box extent is TemplateExtentRatio*sphereRadius.
func NormalizeTemplate(template mesh.TriangleMesh, sphereRadius float64) (mesh.TriangleMesh, error) {
	if template.IsEmpty() {
		return mesh.TriangleMesh{}, fmt.Errorf("electrode template has no faces")
	}
	if sphereRadius <= 0 {
		return mesh.TriangleMesh{}, fmt.Errorf("sphere radius must be positive, have %g", sphereRadius)
	}
	ext := template.Extents()
	longest := floats.Max([]float64{ext.X, ext.Y, ext.Z})
	if longest == 0 {
		return mesh.TriangleMesh{}, fmt.Errorf("electrode template has zero extent")
	}
	scale := TemplateExtentRatio * sphereRadius / longest
	tr := geometry3D.ComposeHomogeneous(r3.Eye(), template.Centroid(), scale, r3.Vec{})
	return template.Transformed(tr), nil
}

// DefaultTemplate is a closed disk electrode along +Y centered on the origin, used when
// no electrode mesh is supplied.
func DefaultTemplate(radius, height float64, segments int) mesh.TriangleMesh {
	return mesh.Cylinder(radius, height, segments).Translated(r3.Vec{Y: -height / 2})
}

// CentralTarget places an enlarged, unrotated copy of the template above the center.
func CentralTarget(center, up r3.Vec, template mesh.TriangleMesh, offset, scale float64) PlacedElectrode {
	if u, err := geometry3D.Normalize(up); err == nil {
		up = u
	} else {
		log.Printf("central target: degenerate up axis, placing at the center")
		up = r3.Vec{}
	}
	tr := geometry3D.Translation(r3.Add(center, r3.Scale(offset, up))).Compose(geometry3D.Scaling(scale))
	return PlacedElectrode{
		Mesh:      template.Transformed(tr),
		Transform: tr,
		Tag:       CentralTargetTag,
	}
}
