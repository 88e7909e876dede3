package mesh

import "gonum.org/v1/gonum/spatial/r3"

// Merge concatenates meshes into one. Vertex lists are appended in argument order and
// face indices are shifted by the number of vertices already emitted. Coincident vertices
// are not welded and overlapping volumes are not unioned.
func Merge(meshes ...TriangleMesh) (out TriangleMesh) {
	var nv, nf int
	for _, m := range meshes {
		nv += len(m.Vertices)
		nf += len(m.Faces)
	}
	out.Vertices = make([]r3.Vec, 0, nv)
	out.Faces = make([][3]int, 0, nf)
	for _, m := range meshes {
		offset := len(out.Vertices)
		out.Vertices = append(out.Vertices, m.Vertices...)
		for _, f := range m.Faces {
			out.Faces = append(out.Faces, [3]int{f[0] + offset, f[1] + offset, f[2] + offset})
		}
	}
	return
}
