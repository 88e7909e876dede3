package alignment

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/PeterAlpajaro/EEG-Model-Generator/geometry3D"
	"github.com/PeterAlpajaro/EEG-Model-Generator/mesh"
)

// Indices into the 68 point facial landmark convention.
const (
	FacialNasion     = 57
	FacialLeftEar    = 0
	FacialRightEar   = 16
	InionProjection  = 1.8 // nasion-to-ear-midpoint multiples from nasion to inion
	MinFacialPoints  = FacialNasion + 1
	DefaultNeckBlock = 10
)

// FromFacialLandmarks derives the reference landmark set from a 68 point facial landmark
// detection. The inion is not visible to a face detector; it is extrapolated along the
// nasion to ear-midpoint line.
func FromFacialLandmarks(points []r3.Vec) (ls LandmarkSet, err error) {
	if len(points) < MinFacialPoints {
		return LandmarkSet{}, fmt.Errorf("need at least %d facial landmarks, have %d", MinFacialPoints, len(points))
	}
	var (
		nasion   = points[FacialNasion]
		left     = points[FacialLeftEar]
		right    = points[FacialRightEar]
		midpoint = geometry3D.Lerp(left, right, 0.5)
	)
	ls = LandmarkSet{
		nasion, left, right,
		r3.Add(nasion, r3.Scale(InionProjection, r3.Sub(midpoint, nasion))),
	}
	return ls, ls.Validate()
}

// ReferenceOptions controls DetectReference. The head mesh must already face +Forward
// with the top of the head toward +Up; orientation is not detected.
type ReferenceOptions struct {
	Forward, Up       r3.Vec
	BlockSize         int     // vertices per height block in the neck search
	MidlineTolerance  float64 // half width of the midline band as a fraction of the lateral range
	NeckHeightOffset  float64 // added to the detected neck height
	DisableNeckFilter bool
}

func DefaultReferenceOptions() ReferenceOptions {
	return ReferenceOptions{
		Forward:          geometry3D.XAxis,
		Up:               geometry3D.YAxis,
		BlockSize:        DefaultNeckBlock,
		MidlineTolerance: 0.2,
	}
}

// Reference holds the mesh derived anchor points.
type Reference struct {
	Nose, BackOfHead r3.Vec
	NeckHeight       float64
}

// FindNeckHeight sorts the vertices by height and walks them in blocks; the neck is the
// block whose spread along forward is smallest. Ties keep the lowest block.
func FindNeckHeight(vertices []r3.Vec, forward, up r3.Vec, blockSize int) (float64, error) {
	if len(vertices) == 0 {
		return 0, fmt.Errorf("no vertices to search for the neck")
	}
	if blockSize < 1 {
		blockSize = DefaultNeckBlock
	}
	var (
		heights = make([]float64, len(vertices))
		order   = make([]int, len(vertices))
	)
	for i, v := range vertices {
		heights[i] = r3.Dot(v, up)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return heights[order[a]] < heights[order[b]] })
	var (
		best      = math.Inf(1)
		bestStart = 0
	)
	for start := 0; start < len(order); start += blockSize {
		end := start + blockSize
		if end > len(order) {
			end = len(order)
		}
		proj := make([]float64, 0, end-start)
		for _, i := range order[start:end] {
			proj = append(proj, r3.Dot(vertices[i], forward))
		}
		if spread := floats.Max(proj) - floats.Min(proj); spread < best {
			best, bestStart = spread, start
		}
	}
	return heights[order[bestStart]], nil
}

// DetectReference finds the nose tip and the back of the head on a head mesh: the most
// forward and most backward vertices above the neck within a band around the midline.
func DetectReference(head mesh.TriangleMesh, opts ReferenceOptions) (ref Reference, err error) {
	var (
		forward, up r3.Vec
	)
	if forward, err = geometry3D.Normalize(opts.Forward); err != nil {
		return ref, fmt.Errorf("forward axis: %w", err)
	}
	if up, err = geometry3D.Normalize(opts.Up); err != nil {
		return ref, fmt.Errorf("up axis: %w", err)
	}
	lateral, err := geometry3D.Normalize(r3.Cross(forward, up))
	if err != nil {
		return ref, fmt.Errorf("forward and up axes are parallel: %w", err)
	}
	above := head.Vertices
	if !opts.DisableNeckFilter {
		if ref.NeckHeight, err = FindNeckHeight(head.Vertices, forward, up, opts.BlockSize); err != nil {
			return
		}
		ref.NeckHeight += opts.NeckHeightOffset
		above = nil
		for _, v := range head.Vertices {
			if r3.Dot(v, up) > ref.NeckHeight {
				above = append(above, v)
			}
		}
		if len(above) == 0 {
			return ref, fmt.Errorf("no vertices above the neck height %g", ref.NeckHeight)
		}
	}
	lat := make([]float64, len(above))
	for i, v := range above {
		lat[i] = r3.Dot(v, lateral)
	}
	var (
		lo, hi    = floats.Min(lat), floats.Max(lat)
		center    = (lo + hi) / 2
		tolerance = opts.MidlineTolerance * (hi - lo)
		fwd       []float64
		midline   []r3.Vec
	)
	for i, v := range above {
		if math.Abs(lat[i]-center) < tolerance {
			midline = append(midline, v)
			fwd = append(fwd, r3.Dot(v, forward))
		}
	}
	if len(midline) == 0 {
		return ref, fmt.Errorf("no vertices within %g of the midline, increase the midline tolerance", tolerance)
	}
	ref.Nose = midline[floats.MaxIdx(fwd)]
	ref.BackOfHead = midline[floats.MinIdx(fwd)]
	return
}
