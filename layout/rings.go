package layout

import (
	"fmt"
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/PeterAlpajaro/EEG-Model-Generator/geometry3D"
)

// Candidate is an unprojected electrode site: the start of the projection query, the
// direction to project along, and a preliminary aim toward the head center.
type Candidate struct {
	Position   r3.Vec
	Projection r3.Vec
	Aim        r3.Vec
	Tag        string
}

type Ring struct {
	OuterRadiusFraction   float64
	ElectrodeCountPerRing int
}

func DefaultRings() []Ring {
	return []Ring{{0.3, 4}, {0.55, 8}, {0.8, 7}}
}

// ExclusionBand drops outermost ring angles whose sine is >= High or <= Low.
type ExclusionBand struct {
	Low, High float64
	Disabled  bool
}

func DefaultExclusionBand() ExclusionBand {
	return ExclusionBand{Low: -0.5, High: 0.9}
}

func (b ExclusionBand) Excludes(angle float64) bool {
	if b.Disabled {
		return false
	}
	s := math.Sin(angle)
	return s >= b.High || s <= b.Low
}

// OuterRadius is the mean distance of the points to center.
func OuterRadius(points []r3.Vec, center r3.Vec) float64 {
	dist := make([]float64, len(points))
	for i, p := range points {
		dist[i] = r3.Norm(r3.Sub(p, center))
	}
	return stat.Mean(dist, nil)
}

// Rings lays out concentric rings in the forward/lateral plane through the frame center.
// Ring i point j sits at angle 2πj/n measured from forward toward the right ear. Only
// the outermost ring honours the exclusion band. Every candidate projects along the
// frame vertical.
func Rings(frame geometry3D.HeadFrame, outer float64, rings []Ring, band ExclusionBand) (cands []Candidate) {
	var (
		forward   = frame.Forward()
		outermost = -1
	)
	for i, r := range rings {
		if outermost < 0 || r.OuterRadiusFraction > rings[outermost].OuterRadiusFraction {
			outermost = i
		}
	}
	for i, r := range rings {
		var (
			radius = r.OuterRadiusFraction * outer
			n      = r.ElectrodeCountPerRing
		)
		for j := 0; j < n; j++ {
			angle := 2 * math.Pi * float64(j) / float64(n)
			if i == outermost && band.Excludes(angle) {
				continue
			}
			offset := r3.Add(
				r3.Scale(radius*math.Cos(angle), forward),
				r3.Scale(radius*math.Sin(angle), frame.Coronal))
			p := r3.Add(frame.Center, offset)
			cands = append(cands, Candidate{
				Position:   p,
				Projection: frame.Vertical,
				Aim:        r3.Scale(-1, offset),
				Tag:        fmt.Sprintf("ring%d-%02d", i+1, j+1),
			})
		}
	}
	return
}

// DropLowestOutlier removes the lowest point along up when it sits more than threshold
// below the second lowest. The remaining points keep their order; dropped is -1 when
// nothing was removed.
func DropLowestOutlier(points []r3.Vec, up r3.Vec, threshold float64) (kept []r3.Vec, dropped int) {
	dropped = -1
	if len(points) < 2 {
		return points, dropped
	}
	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	height := func(i int) float64 { return r3.Dot(points[i], up) }
	sort.SliceStable(order, func(a, b int) bool { return height(order[a]) < height(order[b]) })
	if height(order[1])-height(order[0]) <= threshold {
		return points, dropped
	}
	dropped = order[0]
	log.Printf("dropping point %d at height %.4f, %.4f below the next lowest",
		dropped, height(order[0]), height(order[1])-height(order[0]))
	kept = make([]r3.Vec, 0, len(points)-1)
	kept = append(kept, points[:dropped]...)
	kept = append(kept, points[dropped+1:]...)
	return
}

// Markers returns the four landmarks, their centroid and the four points
// ratio of the way from each landmark to the centroid.
func Markers(landmarks [4]r3.Vec, ratio float64) (markers []r3.Vec) {
	center := geometry3D.Centroid(landmarks[:])
	markers = append(markers, landmarks[:]...)
	markers = append(markers, center)
	for _, p := range landmarks {
		markers = append(markers, geometry3D.Lerp(p, center, ratio))
	}
	return
}

type RingClass uint8

const (
	InnerRing RingClass = iota
	MiddleRing
	OuterRing
)

func (rc RingClass) String() string {
	switch rc {
	case InnerRing:
		return "inner"
	case MiddleRing:
		return "middle"
	}
	return "outer"
}

// RingTag classifies a placed point by its distance from the center relative to the
// outer radius.
func RingTag(distance, outer float64) RingClass {
	switch {
	case distance < 0.4*outer:
		return InnerRing
	case distance < 0.65*outer:
		return MiddleRing
	}
	return OuterRing
}
