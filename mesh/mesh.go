package mesh

import (
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/PeterAlpajaro/EEG-Model-Generator/geometry3D"
	"github.com/PeterAlpajaro/EEG-Model-Generator/types"
)

// TriangleMesh is an indexed triangle surface. The geometry core treats meshes as read
// only; every transforming method returns a new mesh.
type TriangleMesh struct {
	Vertices []r3.Vec // Vertex coordinates [nvertices]
	Faces    [][3]int // Triangle to vertex connectivity [nfaces][3]
}

func (m TriangleMesh) NumVertices() int { return len(m.Vertices) }

func (m TriangleMesh) NumFaces() int { return len(m.Faces) }

func (m TriangleMesh) IsEmpty() bool { return len(m.Faces) == 0 }

// Validate checks that every face references existing, distinct vertices.
func (m TriangleMesh) Validate() error {
	nv := len(m.Vertices)
	for k, f := range m.Faces {
		for _, v := range f {
			if v < 0 || v >= nv {
				return fmt.Errorf("face %d references vertex %d, mesh has %d vertices", k, v, nv)
			}
		}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			return fmt.Errorf("face %d repeats a vertex: %v", k, f)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (m TriangleMesh) Clone() TriangleMesh {
	c := TriangleMesh{
		Vertices: make([]r3.Vec, len(m.Vertices)),
		Faces:    make([][3]int, len(m.Faces)),
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Faces, m.Faces)
	return c
}

// Transformed returns a copy with every vertex moved by tr and the same topology.
func (m TriangleMesh) Transformed(tr geometry3D.Transform) TriangleMesh {
	c := TriangleMesh{
		Vertices: tr.ApplyAll(m.Vertices),
		Faces:    make([][3]int, len(m.Faces)),
	}
	copy(c.Faces, m.Faces)
	return c
}

func (m TriangleMesh) Translated(t r3.Vec) TriangleMesh {
	return m.Transformed(geometry3D.Translation(t))
}

// Scaled scales about the origin.
func (m TriangleMesh) Scaled(s float64) TriangleMesh {
	return m.Transformed(geometry3D.Scaling(s))
}

// Triangle returns the corner coordinates of face k.
func (m TriangleMesh) Triangle(k int) (tri [3]r3.Vec) {
	f := m.Faces[k]
	for i := 0; i < 3; i++ {
		tri[i] = m.Vertices[f[i]]
	}
	return
}

// FaceNormal returns the unit normal of face k following its winding, or the zero vector
// for a degenerate triangle.
func (m TriangleMesh) FaceNormal(k int) r3.Vec {
	tri := m.Triangle(k)
	n, err := geometry3D.Normalize(r3.Cross(r3.Sub(tri[1], tri[0]), r3.Sub(tri[2], tri[0])))
	if err != nil {
		return r3.Vec{}
	}
	return n
}

// FaceArea returns the area of face k.
func (m TriangleMesh) FaceArea(k int) float64 {
	tri := m.Triangle(k)
	return 0.5 * r3.Norm(r3.Cross(r3.Sub(tri[1], tri[0]), r3.Sub(tri[2], tri[0])))
}

// Bounds returns the axis aligned bounding box.
func (m TriangleMesh) Bounds() (min, max r3.Vec) {
	if len(m.Vertices) == 0 {
		return
	}
	xs, ys, zs := m.Coordinates()
	min = r3.Vec{X: floats.Min(xs), Y: floats.Min(ys), Z: floats.Min(zs)}
	max = r3.Vec{X: floats.Max(xs), Y: floats.Max(ys), Z: floats.Max(zs)}
	return
}

// Extents returns the bounding box edge lengths.
func (m TriangleMesh) Extents() r3.Vec {
	min, max := m.Bounds()
	return r3.Sub(max, min)
}

// Centroid is the mean of the vertex positions.
func (m TriangleMesh) Centroid() r3.Vec {
	return geometry3D.Centroid(m.Vertices)
}

// Coordinates returns the vertex coordinates split by axis.
func (m TriangleMesh) Coordinates() (xs, ys, zs []float64) {
	n := len(m.Vertices)
	xs, ys, zs = make([]float64, n), make([]float64, n), make([]float64, n)
	for i, v := range m.Vertices {
		xs[i], ys[i], zs[i] = v.X, v.Y, v.Z
	}
	return
}

// VertexNormals returns area weighted unit vertex normals. The face normals are gathered
// onto the vertices through the sparse vertex/face incidence matrix; isolated vertices
// get the zero vector.
func (m TriangleMesh) VertexNormals() (normals []r3.Vec) {
	var (
		nv, nf = len(m.Vertices), len(m.Faces)
	)
	normals = make([]r3.Vec, nv)
	if nv == 0 || nf == 0 {
		return
	}
	var (
		inc = sparse.NewDOK(nv, nf)
		FN  = mat.NewDense(nf, 3, nil)
		VN  mat.Dense
	)
	for k, f := range m.Faces {
		for _, v := range f {
			inc.Set(v, k, 1)
		}
		// Unnormalised cross product carries twice the face area
		tri := m.Triangle(k)
		n := r3.Cross(r3.Sub(tri[1], tri[0]), r3.Sub(tri[2], tri[0]))
		FN.SetRow(k, []float64{n.X, n.Y, n.Z})
	}
	VN.Mul(inc.ToCSR(), FN)
	for i := range normals {
		n := r3.Vec{X: VN.At(i, 0), Y: VN.At(i, 1), Z: VN.At(i, 2)}
		if u, err := geometry3D.Normalize(n); err == nil {
			normals[i] = u
		}
	}
	return
}

// Statistics summarises the mesh for diagnostics.
type Statistics struct {
	Vertices, Faces            int
	BoundaryEdges, NonManifold int
	DegenerateFaces            int
	Min, Max                   r3.Vec
	SurfaceArea                float64
}

func (m TriangleMesh) Statistics() (st Statistics) {
	st.Vertices, st.Faces = len(m.Vertices), len(m.Faces)
	ec := types.NewEdgeCount(m.Faces)
	st.BoundaryEdges, st.NonManifold = ec.Boundary(), ec.NonManifold()
	st.Min, st.Max = m.Bounds()
	for k := range m.Faces {
		a := m.FaceArea(k)
		if a < math.SmallestNonzeroFloat32 {
			st.DegenerateFaces++
		}
		st.SurfaceArea += a
	}
	return
}

// PrintStatistics prints mesh statistics
func (m TriangleMesh) PrintStatistics() {
	st := m.Statistics()
	fmt.Printf("Mesh Statistics:\n")
	fmt.Printf("  Vertices: %d\n", st.Vertices)
	fmt.Printf("  Faces: %d\n", st.Faces)
	fmt.Printf("  Boundary edges: %d\n", st.BoundaryEdges)
	fmt.Printf("  Non-manifold edges: %d\n", st.NonManifold)
	fmt.Printf("  Degenerate faces: %d\n", st.DegenerateFaces)
	fmt.Printf("  Surface area: %g\n", st.SurfaceArea)
	fmt.Printf("  Bounds: [%g, %g, %g] - [%g, %g, %g]\n",
		st.Min.X, st.Min.Y, st.Min.Z, st.Max.X, st.Max.Y, st.Max.Z)
}
