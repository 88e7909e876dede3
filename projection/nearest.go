package projection

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/PeterAlpajaro/EEG-Model-Generator/mesh"
)

// meshVertex is a mesh vertex that remembers its storage index inside the k-d tree.
type meshVertex struct {
	P     r3.Vec
	Index int
}

func (v meshVertex) component(d kdtree.Dim) float64 {
	switch d {
	case 0:
		return v.P.X
	case 1:
		return v.P.Y
	case 2:
		return v.P.Z
	}
	panic("unreachable")
}

func (v meshVertex) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return v.component(d) - c.(meshVertex).component(d)
}

func (v meshVertex) Dims() int { return 3 }

func (v meshVertex) Distance(c kdtree.Comparable) float64 {
	return r3.Norm2(r3.Sub(v.P, c.(meshVertex).P))
}

type meshVertices []meshVertex

func (mv meshVertices) Index(i int) kdtree.Comparable { return mv[i] }
func (mv meshVertices) Len() int                      { return len(mv) }
func (mv meshVertices) Slice(start, end int) kdtree.Interface {
	return mv[start:end]
}
func (mv meshVertices) Pivot(d kdtree.Dim) int {
	return vertexPlane{vertices: mv, dim: d}.Pivot()
}

// vertexPlane sorts vertices along one dimension for median partitioning.
type vertexPlane struct {
	vertices meshVertices
	dim      kdtree.Dim
}

func (p vertexPlane) Len() int { return len(p.vertices) }
func (p vertexPlane) Less(i, j int) bool {
	return p.vertices[i].component(p.dim) < p.vertices[j].component(p.dim)
}
func (p vertexPlane) Swap(i, j int) { p.vertices[i], p.vertices[j] = p.vertices[j], p.vertices[i] }
func (p vertexPlane) Slice(start, end int) kdtree.SortSlicer {
	return vertexPlane{vertices: p.vertices[start:end], dim: p.dim}
}
func (p vertexPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }

// NearestVertex snaps the query origin to the nearest mesh vertex. The query direction
// is ignored.
type NearestVertex struct {
	Vertices []r3.Vec
	Normals  []r3.Vec
	tree     *kdtree.Tree
}

func NewNearestVertex(m mesh.TriangleMesh) *NearestVertex {
	pts := make(meshVertices, len(m.Vertices))
	for i, v := range m.Vertices {
		pts[i] = meshVertex{P: v, Index: i}
	}
	return &NearestVertex{
		Vertices: m.Vertices,
		Normals:  m.VertexNormals(),
		tree:     kdtree.New(pts, false),
	}
}

func (p *NearestVertex) Project(q Query) (res Result) {
	res = miss(q)
	if p.tree == nil || p.tree.Root == nil {
		return
	}
	c, d2 := p.tree.Nearest(meshVertex{P: q.Origin, Index: -1})
	if c == nil || math.IsInf(d2, 1) {
		return
	}
	nv := c.(meshVertex)
	res.Hit = true
	res.Index = nv.Index
	res.Point = p.Vertices[nv.Index]
	res.Normal = p.Normals[nv.Index]
	res.Distance = math.Sqrt(d2)
	return
}
