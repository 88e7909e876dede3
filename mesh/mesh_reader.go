package mesh

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hschendel/stl"
	"gonum.org/v1/gonum/spatial/r3"
)

// MeshLoadError reports a mesh file that is missing, unreadable or not a usable surface.
type MeshLoadError struct {
	Path string
	Err  error
}

func (e *MeshLoadError) Error() string {
	return fmt.Sprintf("unable to load mesh %s: %v", e.Path, e.Err)
}

func (e *MeshLoadError) Unwrap() error { return e.Err }

// ReadMeshFile reads a mesh file based on extension
func ReadMeshFile(filename string) (m TriangleMesh, err error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".stl":
		m, err = ReadSTL(filename)
	default:
		err = fmt.Errorf("unsupported mesh format: %s", ext)
	}
	if err != nil {
		return TriangleMesh{}, &MeshLoadError{Path: filename, Err: err}
	}
	if m.IsEmpty() {
		return TriangleMesh{}, &MeshLoadError{Path: filename, Err: fmt.Errorf("mesh has no triangles")}
	}
	return
}

// WriteMeshFile writes a mesh file based on extension
func WriteMeshFile(filename string, m TriangleMesh) error {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".stl":
		return WriteSTL(filename, m)
	default:
		return fmt.Errorf("unsupported mesh format: %s", ext)
	}
}

// ReadSTL reads an ASCII or binary STL file. STL stores unconnected triangles, so corners
// with identical coordinates are welded into shared vertices in order of first use.
func ReadSTL(filename string) (m TriangleMesh, err error) {
	var solid *stl.Solid
	if solid, err = stl.ReadFile(filename); err != nil {
		return
	}
	return FromSolid(solid), nil
}

// WriteSTL writes a binary STL file.
func WriteSTL(filename string, m TriangleMesh) error {
	return ToSolid(m, filepath.Base(filename)).WriteFile(filename)
}

func FromSolid(solid *stl.Solid) (m TriangleMesh) {
	index := make(map[stl.Vec3]int, len(solid.Triangles)/2)
	m.Faces = make([][3]int, 0, len(solid.Triangles))
	for _, tri := range solid.Triangles {
		var f [3]int
		for i, v := range tri.Vertices {
			id, ok := index[v]
			if !ok {
				id = len(m.Vertices)
				index[v] = id
				m.Vertices = append(m.Vertices, r3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])})
			}
			f[i] = id
		}
		// Triangles collapsed by float32 rounding carry no surface
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			continue
		}
		m.Faces = append(m.Faces, f)
	}
	return
}

func ToSolid(m TriangleMesh, name string) *stl.Solid {
	solid := &stl.Solid{
		Name:      name,
		Triangles: make([]stl.Triangle, len(m.Faces)),
	}
	toVec3 := func(v r3.Vec) stl.Vec3 {
		return stl.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
	}
	for k, f := range m.Faces {
		solid.Triangles[k].Normal = toVec3(m.FaceNormal(k))
		for i := 0; i < 3; i++ {
			solid.Triangles[k].Vertices[i] = toVec3(m.Vertices[f[i]])
		}
	}
	return solid
}
