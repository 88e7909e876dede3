package mesh

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/PeterAlpajaro/EEG-Model-Generator/types"
)

// Icosphere returns a sphere of the given radius centered at the origin, built by
// subdividing an icosahedron. Faces wind counter-clockwise seen from outside.
func Icosphere(radius float64, subdivisions int) (m TriangleMesh) {
	t := (1 + math.Sqrt(5)) / 2
	m.Vertices = []r3.Vec{
		{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
		{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
		{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
	}
	m.Faces = [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
	for i := range m.Vertices {
		m.Vertices[i] = r3.Unit(m.Vertices[i])
	}
	for s := 0; s < subdivisions; s++ {
		var (
			mid   = make(map[types.EdgeKey]int, 3*len(m.Faces)/2)
			faces = make([][3]int, 0, 4*len(m.Faces))
		)
		midpoint := func(a, b int) int {
			key := types.NewEdgeKey([2]int{a, b})
			if i, ok := mid[key]; ok {
				return i
			}
			m.Vertices = append(m.Vertices, r3.Unit(r3.Add(m.Vertices[a], m.Vertices[b])))
			mid[key] = len(m.Vertices) - 1
			return mid[key]
		}
		for _, f := range m.Faces {
			a, b, c := midpoint(f[0], f[1]), midpoint(f[1], f[2]), midpoint(f[2], f[0])
			faces = append(faces,
				[3]int{f[0], a, c}, [3]int{f[1], b, a}, [3]int{f[2], c, b}, [3]int{a, b, c})
		}
		m.Faces = faces
	}
	for i := range m.Vertices {
		m.Vertices[i] = r3.Scale(radius, m.Vertices[i])
	}
	return
}

// Cylinder returns a closed cylinder of the given radius and height whose axis is +Y,
// with its bottom cap at y = 0 and its top cap at y = height. segments is clamped to at
// least 3.
func Cylinder(radius, height float64, segments int) (m TriangleMesh) {
	if segments < 3 {
		segments = 3
	}
	// Vertex layout: [0, n) bottom ring, [n, 2n) top ring, 2n bottom center, 2n+1 top center
	n := segments
	m.Vertices = make([]r3.Vec, 2*n+2)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		x, z := radius*math.Cos(a), radius*math.Sin(a)
		m.Vertices[i] = r3.Vec{X: x, Z: z}
		m.Vertices[n+i] = r3.Vec{X: x, Y: height, Z: z}
	}
	bc, tc := 2*n, 2*n+1
	m.Vertices[bc] = r3.Vec{}
	m.Vertices[tc] = r3.Vec{Y: height}
	m.Faces = make([][3]int, 0, 4*n)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		m.Faces = append(m.Faces,
			[3]int{i, n + j, j},      // side
			[3]int{i, n + i, n + j},  // side
			[3]int{bc, i, j},         // bottom cap, facing -Y
			[3]int{tc, n + j, n + i}, // top cap, facing +Y
		)
	}
	return
}
