package mesh

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/PeterAlpajaro/EEG-Model-Generator/geometry3D"
)

func unitSquare() TriangleMesh {
	return TriangleMesh{
		Vertices: []r3.Vec{{}, {X: 1}, {X: 1, Z: -1}, {Z: -1}},
		Faces:    [][3]int{{0, 1, 2}, {0, 2, 3}},
	}
}

func TestMerge(t *testing.T) {
	var (
		a = unitSquare()
		b = Icosphere(1, 0)
		c = TriangleMesh{}
	)
	m := Merge(a, c, b)
	require.NoError(t, m.Validate())
	assert.Equal(t, a.NumVertices()+b.NumVertices(), m.NumVertices())
	assert.Equal(t, a.NumFaces()+b.NumFaces(), m.NumFaces())
	// First mesh keeps its indices, later meshes are offset
	assert.Equal(t, a.Faces[1], m.Faces[1])
	assert.Equal(t, [3]int{0 + 4, 11 + 4, 5 + 4}, m.Faces[2])
	// No welding: merging a mesh with itself doubles everything
	aa := Merge(a, a)
	assert.Equal(t, 8, aa.NumVertices())
	assert.Equal(t, aa.Vertices[0], aa.Vertices[4])
	// Inputs are untouched
	assert.Equal(t, [3]int{0, 11, 5}, b.Faces[0])
	assert.Equal(t, 0, Merge().NumFaces())
}

func TestPrimitives(t *testing.T) {
	{ // Icosphere
		for sub, nf := range []int{20, 80, 320} {
			s := Icosphere(2, sub)
			require.NoError(t, s.Validate())
			assert.Equal(t, nf, s.NumFaces())
			st := s.Statistics()
			assert.Equal(t, 0, st.BoundaryEdges)
			assert.Equal(t, 0, st.NonManifold)
			// Euler characteristic of a sphere
			assert.Equal(t, 2, st.Vertices-3*st.Faces/2+st.Faces)
			for _, v := range s.Vertices {
				assert.InDelta(t, 2., r3.Norm(v), 1e-12)
			}
			for k := range s.Faces {
				tri := s.Triangle(k)
				assert.Greater(t, r3.Dot(s.FaceNormal(k), r3.Add(r3.Add(tri[0], tri[1]), tri[2])), 0.)
			}
		}
	}
	{ // Cylinder
		c := Cylinder(0.5, 0.2, 16)
		require.NoError(t, c.Validate())
		st := c.Statistics()
		assert.Equal(t, 0, st.BoundaryEdges)
		assert.Equal(t, 0, st.NonManifold)
		min, max := c.Bounds()
		assert.InDelta(t, 0., min.Y, 1e-12)
		assert.InDelta(t, 0.2, max.Y, 1e-12)
		ext := c.Extents()
		assert.InDelta(t, 1., ext.X, 1e-12)
		// Closed surface area: two caps and the side, converging on the smooth value
		exact := 2*math.Pi*0.25 + 2*math.Pi*0.5*0.2
		assert.InDelta(t, exact, st.SurfaceArea, 0.1*exact)
		assert.Equal(t, 3, Cylinder(1, 1, 1).NumFaces()/4)
	}
}

func TestVertexNormals(t *testing.T) {
	s := Icosphere(1, 2)
	normals := s.VertexNormals()
	require.Len(t, normals, s.NumVertices())
	for i, n := range normals {
		assert.Greater(t, r3.Dot(n, r3.Unit(s.Vertices[i])), 0.98)
	}
	// Flat square: every normal is the face normal
	sq := unitSquare()
	for _, n := range sq.VertexNormals() {
		assert.True(t, geometry3D.EqualWithin(n, r3.Vec{Y: 1}, 1e-12))
	}
	// Isolated vertex gets zero
	sq.Vertices = append(sq.Vertices, r3.Vec{X: 5})
	assert.Equal(t, r3.Vec{}, sq.VertexNormals()[4])
}

func TestTransformed(t *testing.T) {
	s := Icosphere(1, 0)
	moved := s.Translated(r3.Vec{X: 3}).Scaled(2)
	assert.True(t, geometry3D.EqualWithin(moved.Centroid(), r3.Vec{X: 6}, 1e-12))
	assert.True(t, geometry3D.EqualWithin(s.Centroid(), r3.Vec{}, 1e-12))
	c := s.Clone()
	c.Vertices[0] = r3.Vec{X: 100}
	assert.NotEqual(t, c.Vertices[0], s.Vertices[0])
}

func TestSTL(t *testing.T) {
	dir := t.TempDir()
	{ // Round trip keeps topology
		fileName := filepath.Join(dir, "sphere.stl")
		s := Icosphere(0.1, 1)
		require.NoError(t, WriteMeshFile(fileName, s))
		m, err := ReadMeshFile(fileName)
		require.NoError(t, err)
		assert.Equal(t, s.NumFaces(), m.NumFaces())
		assert.Equal(t, s.NumVertices(), m.NumVertices())
		assert.Equal(t, 0, m.Statistics().BoundaryEdges)
		for i := range m.Vertices {
			assert.InDelta(t, 0.1, r3.Norm(m.Vertices[i]), 1e-6)
		}
	}
	{ // Missing file
		_, err := ReadMeshFile(filepath.Join(dir, "missing.stl"))
		var mle *MeshLoadError
		require.True(t, errors.As(err, &mle))
		assert.Contains(t, mle.Path, "missing.stl")
	}
	{ // Unsupported extension
		_, err := ReadMeshFile(filepath.Join(dir, "head.glb"))
		var mle *MeshLoadError
		assert.True(t, errors.As(err, &mle))
		assert.Error(t, WriteMeshFile(filepath.Join(dir, "head.obj"), unitSquare()))
	}
}
