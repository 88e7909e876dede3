package pipeline

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/PeterAlpajaro/EEG-Model-Generator/InputParameters"
	"github.com/PeterAlpajaro/EEG-Model-Generator/alignment"
	"github.com/PeterAlpajaro/EEG-Model-Generator/geometry3D"
	"github.com/PeterAlpajaro/EEG-Model-Generator/layout"
	"github.com/PeterAlpajaro/EEG-Model-Generator/mesh"
	"github.com/PeterAlpajaro/EEG-Model-Generator/placement"
	"github.com/PeterAlpajaro/EEG-Model-Generator/projection"
	"github.com/PeterAlpajaro/EEG-Model-Generator/types"
	"github.com/PeterAlpajaro/EEG-Model-Generator/utils"
)

// Options are the resolved settings of one placement run.
type Options struct {
	Layout           types.LayoutMode
	Projection       types.ProjectionMode
	Aim              types.AimMode
	SphereRadius     float64
	OutwardOffset    float64
	OutlierThreshold float64 // negative disables the lowest point filter
	Rings            []layout.Ring
	Band             layout.ExclusionBand
	Positions        []layout.Position
	IncludeHead      bool
	CentralTarget    bool
	Workers          int
	Verbose          bool
}

func DefaultOptions() Options {
	return Options{
		Layout:           types.Layout_Rings,
		Projection:       types.Projection_Ray,
		Aim:              types.Aim_Center,
		SphereRadius:     0.01,
		OutwardOffset:    0.02,
		OutlierThreshold: 0.01,
		Rings:            layout.DefaultRings(),
		Band:             layout.DefaultExclusionBand(),
		Positions:        layout.Standard1020(),
		IncludeHead:      true,
		CentralTarget:    true,
	}
}

// NewOptions converts a defaulted and validated run deck.
func NewOptions(rp *InputParameters.RunParameters) (opts Options, err error) {
	opts = DefaultOptions()
	if opts.Layout, err = types.NewLayoutMode(rp.LayoutMode); err != nil {
		return
	}
	if opts.Projection, err = types.NewProjectionMode(rp.ProjectionMode); err != nil {
		return
	}
	if opts.Aim, err = types.NewAimMode(rp.AimMode); err != nil {
		return
	}
	opts.SphereRadius = rp.SphereRadius
	if rp.OutwardOffset != nil {
		opts.OutwardOffset = *rp.OutwardOffset
	}
	if rp.LowestPointOutlierThreshold != nil {
		opts.OutlierThreshold = *rp.LowestPointOutlierThreshold
	}
	if len(rp.Rings) != 0 {
		opts.Rings = make([]layout.Ring, len(rp.Rings))
		for i, r := range rp.Rings {
			opts.Rings[i] = layout.Ring{OuterRadiusFraction: r.OuterRadiusFraction, ElectrodeCountPerRing: r.ElectrodeCountPerRing}
		}
	}
	if b := rp.ExclusionBand; b != nil {
		opts.Band = layout.ExclusionBand{Low: b.Low, High: b.High, Disabled: b.Disabled}
	}
	if len(rp.Positions) != 0 {
		opts.Positions = make([]layout.Position, len(rp.Positions))
		for i, p := range rp.Positions {
			opts.Positions[i] = layout.Position{
				Name:     p.Name,
				Coronal:  p.CoronalAngle * math.Pi / 180,
				Sagittal: p.SagittalAngle * math.Pi / 180,
			}
		}
	}
	if rp.IncludeHead != nil {
		opts.IncludeHead = *rp.IncludeHead
	}
	if rp.CentralTarget != nil {
		opts.CentralTarget = *rp.CentralTarget
	}
	opts.Workers = rp.Workers
	return
}

// Site is one candidate after projection, before placement.
type Site struct {
	Candidate layout.Candidate
	Surface   projection.Result
	Point     r3.Vec // where the electrode template origin goes, before any offset
	Aim       r3.Vec
	Offset    float64
}

// Electrodes is the outcome of PlaceElectrodes.
type Electrodes struct {
	Frame       geometry3D.HeadFrame
	OuterRadius float64
	Sites       []Site
	Misses      []string // tags of candidates that did not reach the surface
	Dropped     string   // tag removed by the lowest point filter
	Placed      []placement.PlacedElectrode
	Combined    mesh.TriangleMesh
}

// PlaceElectrodes lays out candidates around the aligned landmarks, projects them onto
// the head, orients the template at each surface point and assembles the result.
func PlaceElectrodes(landmarks [4]r3.Vec, head, template mesh.TriangleMesh, opts Options) (el Electrodes, err error) {
	if el.Frame, err = geometry3D.NewHeadFrame(landmarks[0], landmarks[1], landmarks[2], landmarks[3]); err != nil {
		return
	}
	// Aligned landmarks come out with the ear order turned over, so the projection
	// side follows the global up rather than the landmark winding.
	el.Frame = el.Frame.Oriented(alignment.Up)
	el.OuterRadius = layout.OuterRadius(landmarks[:], el.Frame.Center)

	var cands []layout.Candidate
	switch opts.Layout {
	case types.Layout_Rings:
		cands = layout.Rings(el.Frame, el.OuterRadius, opts.Rings, opts.Band)
	case types.Layout_1020:
		cands = layout.Angular(el.Frame, opts.Positions)
	default:
		return el, fmt.Errorf("unknown layout mode %v", opts.Layout)
	}
	if opts.Verbose {
		log.Printf("%s layout: %d candidates, outer radius %.5f", opts.Layout, len(cands), el.OuterRadius)
	}

	var projector projection.Projector
	if projector, err = projection.New(opts.Projection, head, projection.Options{Up: el.Frame.Vertical}); err != nil {
		return
	}
	el.Sites = make([]Site, len(cands))
	utils.ParallelFor(opts.Workers, len(cands), func(k int) {
		el.Sites[k] = resolveSite(cands[k], projector, el.Frame.Center, opts)
	})
	for _, s := range el.Sites {
		if !s.Surface.Hit {
			log.Printf("no surface found for %s from %v along %v, keeping the unprojected point",
				s.Candidate.Tag, s.Candidate.Position, s.Candidate.Projection)
			el.Misses = append(el.Misses, s.Candidate.Tag)
		}
	}

	if opts.Layout == types.Layout_Rings && opts.OutlierThreshold >= 0 {
		points := make([]r3.Vec, len(el.Sites))
		for i, s := range el.Sites {
			points[i] = s.Point
		}
		if _, dropped := layout.DropLowestOutlier(points, el.Frame.Vertical, opts.OutlierThreshold); dropped >= 0 {
			el.Dropped = el.Sites[dropped].Candidate.Tag
			el.Sites = append(el.Sites[:dropped:dropped], el.Sites[dropped+1:]...)
		}
	}

	requests := make([]placement.Request, len(el.Sites))
	for i, s := range el.Sites {
		requests[i] = placement.Request{Point: s.Point, Aim: s.Aim, Offset: s.Offset, Tag: s.Candidate.Tag}
	}
	el.Placed = placement.PlaceAll(requests, template, opts.Workers)
	if opts.CentralTarget {
		el.Placed = append(el.Placed, placement.CentralTarget(el.Frame.Center, el.Frame.Vertical, template,
			placement.CentralTargetOffset, placement.CentralTargetScale))
	}

	var headPtr *mesh.TriangleMesh
	if opts.IncludeHead {
		headPtr = &head
	}
	el.Combined = placement.Assemble(headPtr, el.Placed)
	if opts.Verbose {
		el.Print()
	}
	return
}

// resolveSite projects a candidate and decides how the electrode faces. Center aiming
// pushes the surface point outward from the center by the offset and turns the template
// toward the center; normal aiming turns it along the surface normal and offsets along it.
func resolveSite(c layout.Candidate, p projection.Projector, center r3.Vec, opts Options) (s Site) {
	s.Candidate = c
	s.Surface = p.Project(projection.Query{Origin: c.Position, Direction: c.Projection})
	s.Point = s.Surface.Point
	outward, err := geometry3D.Normalize(r3.Sub(s.Point, center))
	if err != nil {
		outward = r3.Scale(-1, c.Aim)
	}
	switch opts.Aim {
	case types.Aim_Normal:
		s.Aim = s.Surface.Normal
		if !s.Surface.Hit || s.Aim == (r3.Vec{}) {
			s.Aim = outward
		}
		s.Offset = opts.OutwardOffset
	default:
		if err == nil {
			s.Point = r3.Add(s.Point, r3.Scale(opts.OutwardOffset, outward))
		}
		s.Aim = r3.Scale(-1, outward)
	}
	return
}

func (el Electrodes) Print() {
	fmt.Printf("%s\n", el.Frame)
	fmt.Printf("%-14s %12s %12s %12s %8s %6s\n", "Site", "X", "Y", "Z", "Ring", "Hit")
	for _, s := range el.Sites {
		// ring class from the distance in the horizontal plane of the frame
		d := r3.Sub(s.Point, el.Frame.Center)
		d = r3.Sub(d, r3.Scale(r3.Dot(d, el.Frame.Vertical), el.Frame.Vertical))
		ring := layout.RingTag(r3.Norm(d), el.OuterRadius)
		fmt.Printf("%-14s %12.6f %12.6f %12.6f %8s %6t\n",
			s.Candidate.Tag, s.Point.X, s.Point.Y, s.Point.Z, ring, s.Surface.Hit)
	}
	if len(el.Dropped) != 0 {
		fmt.Printf("Dropped lowest outlier %s\n", el.Dropped)
	}
	fmt.Printf("%d electrodes placed, %d misses\n", len(el.Placed), len(el.Misses))
}
