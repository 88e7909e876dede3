package pipeline

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/PeterAlpajaro/EEG-Model-Generator/InputParameters"
	"github.com/PeterAlpajaro/EEG-Model-Generator/alignment"
	"github.com/PeterAlpajaro/EEG-Model-Generator/layout"
	"github.com/PeterAlpajaro/EEG-Model-Generator/mesh"
	"github.com/PeterAlpajaro/EEG-Model-Generator/placement"
	"github.com/PeterAlpajaro/EEG-Model-Generator/utils"
)

// Built in disk electrode, before normalization.
const (
	DefaultTemplateRadius   = 0.5
	DefaultTemplateHeight   = 0.15
	DefaultTemplateSegments = 24
	MarkerSubdivisions      = 2
)

// Run executes a full placement from a run deck: read the inputs, optionally align the
// landmarks, place the electrodes and write the combined mesh.
func Run(rp *InputParameters.RunParameters, verbose bool) (el Electrodes, err error) {
	var (
		landmarks      alignment.LandmarkSet
		head, template mesh.TriangleMesh
		opts           Options
	)
	if landmarks, err = alignment.ReadLandmarkFile(rp.LandmarkFile); err != nil {
		return
	}
	if head, err = mesh.ReadMeshFile(rp.HeadMesh); err != nil {
		return
	}
	if verbose {
		head.PrintStatistics()
	}
	if template, err = LoadTemplate(rp.ElectrodeMesh, rp.SphereRadius); err != nil {
		return
	}
	if landmarks, err = ResolveAlignment(rp, landmarks, head, verbose); err != nil {
		return
	}
	if opts, err = NewOptions(rp); err != nil {
		return
	}
	opts.Verbose = verbose
	if verbose {
		for _, p := range Markers(landmarks, rp.IntermediateRatio) {
			log.Printf("marker [%10.5f %10.5f %10.5f]", p.X, p.Y, p.Z)
		}
	}
	if el, err = PlaceElectrodes(landmarks, head, template, opts); err != nil {
		return
	}
	if err = mesh.WriteMeshFile(rp.OutputFile, el.Combined); err != nil {
		return
	}
	log.Printf("wrote %d electrodes, %d faces to %s", len(el.Placed), el.Combined.NumFaces(), rp.OutputFile)
	if verbose {
		log.Printf("memory: %s", utils.MemUsage())
	}
	return
}

// LoadTemplate reads the electrode mesh, or builds the disk electrode when path is
// empty, and normalizes it to the sphere radius.
func LoadTemplate(path string, sphereRadius float64) (template mesh.TriangleMesh, err error) {
	if len(path) == 0 {
		template = placement.DefaultTemplate(DefaultTemplateRadius, DefaultTemplateHeight, DefaultTemplateSegments)
	} else if template, err = mesh.ReadMeshFile(path); err != nil {
		return
	}
	return placement.NormalizeTemplate(template, sphereRadius)
}

// ResolveAlignment maps the landmarks onto the reference anchors of the deck, or onto
// anchors detected on the head mesh when AutoReference is set. Without either the
// landmarks are returned unchanged.
func ResolveAlignment(rp *InputParameters.RunParameters, landmarks alignment.LandmarkSet,
	head mesh.TriangleMesh, verbose bool) (alignment.LandmarkSet, error) {
	var anchor, opposite r3.Vec
	switch {
	case rp.ReferenceAnchor != nil && rp.ReferenceOpposite != nil:
		anchor, opposite = arrayVec(*rp.ReferenceAnchor), arrayVec(*rp.ReferenceOpposite)
	case rp.AutoReference:
		ref, err := alignment.DetectReference(head, alignment.DefaultReferenceOptions())
		if err != nil {
			return landmarks, fmt.Errorf("detecting reference anchors: %w", err)
		}
		if verbose {
			log.Printf("reference anchors: nose %v, back of head %v, neck height %.5f",
				ref.Nose, ref.BackOfHead, ref.NeckHeight)
		}
		anchor, opposite = ref.Nose, ref.BackOfHead
	default:
		return landmarks, nil
	}
	al := alignment.Align(landmarks, anchor, opposite)
	for _, f := range al.Fallbacks {
		log.Printf("align: %s", f)
	}
	if verbose {
		log.Printf("aligned with scale %.5f, twist %.5f rad\n%s", al.Scale, al.Twist, al.Transform)
	}
	return al.Points, nil
}

// MarkerMesh merges one small sphere per point, for inspecting landmarks and layouts in
// a mesh viewer.
func MarkerMesh(points []r3.Vec, radius float64) mesh.TriangleMesh {
	sphere := mesh.Icosphere(radius, MarkerSubdivisions)
	parts := make([]mesh.TriangleMesh, len(points))
	for i, p := range points {
		parts[i] = sphere.Translated(p)
	}
	return mesh.Merge(parts...)
}

// Markers returns the landmark marker points: the landmarks, their center, and the
// intermediate points pulled toward the center by ratio.
func Markers(landmarks alignment.LandmarkSet, ratio float64) []r3.Vec {
	return layout.Markers(landmarks, ratio)
}

func arrayVec(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }
