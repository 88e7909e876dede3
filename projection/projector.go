package projection

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/PeterAlpajaro/EEG-Model-Generator/geometry3D"
	"github.com/PeterAlpajaro/EEG-Model-Generator/mesh"
	"github.com/PeterAlpajaro/EEG-Model-Generator/types"
)

// Query is a projection request: a point and the direction to search along.
type Query struct {
	Origin, Direction r3.Vec
}

// Result of a projection. On a miss Hit is false and Point is the query origin.
type Result struct {
	Point, Normal r3.Vec
	Hit           bool
	Index         int     // vertex or face index depending on the strategy, -1 on a miss
	Distance      float64 // from the origin to Point
}

func miss(q Query) Result {
	return Result{Point: q.Origin, Index: -1}
}

// Projector snaps a query point onto a surface.
type Projector interface {
	Project(q Query) Result
}

// Options configures New.
type Options struct {
	// Up orients the default NearestVertexLine filter; zero means +Y.
	Up r3.Vec
	// Include, when set, replaces the default vertex filter of NearestVertexLine.
	Include func(origin, vertex r3.Vec) bool
}

// New returns the projector for mode over m.
func New(mode types.ProjectionMode, m mesh.TriangleMesh, opts Options) (Projector, error) {
	if m.IsEmpty() {
		return nil, fmt.Errorf("cannot project onto an empty mesh")
	}
	switch mode {
	case types.Projection_Ray:
		return NewRaySurface(m), nil
	case types.Projection_NearestLine:
		p := NewNearestVertexLine(m, opts.Up)
		if opts.Include != nil {
			p.Include = opts.Include
		}
		return p, nil
	case types.Projection_ClosestSurface:
		return NewClosestSurface(m), nil
	case types.Projection_NearestVertex:
		return NewNearestVertex(m), nil
	}
	return nil, fmt.Errorf("unknown projection mode %v", mode)
}

// AbovePlane returns the filter keeping vertices strictly above the origin along up.
func AbovePlane(up r3.Vec) func(origin, vertex r3.Vec) bool {
	return func(origin, vertex r3.Vec) bool {
		return r3.Dot(r3.Sub(vertex, origin), up) > 0
	}
}

// NearestVertexLine picks the mesh vertex closest to the infinite line through the query
// origin along the query direction, among the vertices passing Include.
type NearestVertexLine struct {
	Vertices []r3.Vec
	Normals  []r3.Vec
	Include  func(origin, vertex r3.Vec) bool
}

func NewNearestVertexLine(m mesh.TriangleMesh, up r3.Vec) *NearestVertexLine {
	if up == (r3.Vec{}) {
		up = geometry3D.YAxis
	}
	return &NearestVertexLine{
		Vertices: m.Vertices,
		Normals:  m.VertexNormals(),
		Include:  AbovePlane(up),
	}
}

func (p *NearestVertexLine) Project(q Query) (res Result) {
	res = miss(q)
	dir, err := geometry3D.Normalize(q.Direction)
	if err != nil {
		return
	}
	var (
		candidates []int
		dist       []float64
	)
	for i, v := range p.Vertices {
		if p.Include != nil && !p.Include(q.Origin, v) {
			continue
		}
		candidates = append(candidates, i)
		// perpendicular distance to the line
		dist = append(dist, r3.Norm(r3.Cross(r3.Sub(v, q.Origin), dir)))
	}
	if len(candidates) == 0 {
		return
	}
	res.Index = candidates[floats.MinIdx(dist)]
	res.Hit = true
	res.Point = p.Vertices[res.Index]
	res.Normal = p.Normals[res.Index]
	res.Distance = r3.Norm(r3.Sub(res.Point, q.Origin))
	return
}

// RaySurface intersects the ray from the query origin along the query direction with
// every triangle and keeps the nearest hit.
type RaySurface struct {
	Mesh mesh.TriangleMesh
}

const (
	// rayTolerance admits hits slightly behind the origin, so points already on the
	// surface project onto themselves.
	rayTolerance = 1e-9
	parallelTol  = 1e-12
)

func NewRaySurface(m mesh.TriangleMesh) *RaySurface {
	return &RaySurface{Mesh: m}
}

func (p *RaySurface) Project(q Query) (res Result) {
	res = miss(q)
	dir, err := geometry3D.Normalize(q.Direction)
	if err != nil {
		return
	}
	best := math.Inf(1)
	for k := range p.Mesh.Faces {
		t, ok := IntersectTriangle(q.Origin, dir, p.Mesh.Triangle(k))
		if ok && t < best {
			best = t
			res.Index = k
		}
	}
	if res.Index < 0 {
		return
	}
	res.Hit = true
	res.Point = r3.Add(q.Origin, r3.Scale(best, dir))
	res.Normal = p.Mesh.FaceNormal(res.Index)
	res.Distance = math.Abs(best)
	return
}

// IntersectTriangle is the Möller-Trumbore ray/triangle test. It returns the ray
// parameter of the hit; hits with t < -rayTolerance are rejected.
func IntersectTriangle(origin, dir r3.Vec, tri [3]r3.Vec) (t float64, ok bool) {
	var (
		e1  = r3.Sub(tri[1], tri[0])
		e2  = r3.Sub(tri[2], tri[0])
		pv  = r3.Cross(dir, e2)
		det = r3.Dot(e1, pv)
	)
	if math.Abs(det) < parallelTol {
		return 0, false
	}
	var (
		inv = 1 / det
		tv  = r3.Sub(origin, tri[0])
		u   = r3.Dot(tv, pv) * inv
	)
	if u < 0 || u > 1 {
		return 0, false
	}
	qv := r3.Cross(tv, e1)
	v := r3.Dot(dir, qv) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = r3.Dot(e2, qv) * inv
	return t, t >= -rayTolerance
}

// ClosestSurface returns the exact closest point on the mesh surface to the query origin;
// the query direction is ignored. The normal is the face normal of the winning triangle.
type ClosestSurface struct {
	Mesh mesh.TriangleMesh
}

func NewClosestSurface(m mesh.TriangleMesh) *ClosestSurface {
	return &ClosestSurface{Mesh: m}
}

func (p *ClosestSurface) Project(q Query) (res Result) {
	res = miss(q)
	best := math.Inf(1)
	for k := range p.Mesh.Faces {
		c := ClosestPointOnTriangle(q.Origin, p.Mesh.Triangle(k))
		if d := r3.Norm2(r3.Sub(c, q.Origin)); d < best {
			best = d
			res.Index = k
			res.Point = c
		}
	}
	if res.Index < 0 {
		return
	}
	res.Hit = true
	res.Normal = p.Mesh.FaceNormal(res.Index)
	res.Distance = math.Sqrt(best)
	return
}

// ClosestPointOnTriangle classifies p against the Voronoi regions of the triangle's
// vertices, edges and face.
func ClosestPointOnTriangle(p r3.Vec, tri [3]r3.Vec) r3.Vec {
	var (
		a, b, c = tri[0], tri[1], tri[2]
		ab      = r3.Sub(b, a)
		ac      = r3.Sub(c, a)
		ap      = r3.Sub(p, a)
		d1      = r3.Dot(ab, ap)
		d2      = r3.Dot(ac, ap)
	)
	if d1 <= 0 && d2 <= 0 {
		return a
	}
	bp := r3.Sub(p, b)
	d3, d4 := r3.Dot(ab, bp), r3.Dot(ac, bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	if vc := d1*d4 - d3*d2; vc <= 0 && d1 >= 0 && d3 <= 0 {
		return r3.Add(a, r3.Scale(d1/(d1-d3), ab))
	}
	cp := r3.Sub(p, c)
	d5, d6 := r3.Dot(ab, cp), r3.Dot(ac, cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	if vb := d5*d2 - d1*d6; vb <= 0 && d2 >= 0 && d6 <= 0 {
		return r3.Add(a, r3.Scale(d2/(d2-d6), ac))
	}
	if va := d3*d6 - d5*d4; va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		return r3.Add(b, r3.Scale((d4-d3)/((d4-d3)+(d5-d6)), r3.Sub(c, b)))
	}
	var (
		va    = d3*d6 - d5*d4
		vb    = d5*d2 - d1*d6
		vc    = d1*d4 - d3*d2
		denom = va + vb + vc
	)
	if denom == 0 {
		// zero area triangle that fell through every edge region
		return a
	}
	v, w := vb/denom, vc/denom
	return r3.Add(a, r3.Add(r3.Scale(v, ab), r3.Scale(w, ac)))
}
