package types

import (
	"fmt"
	"math"
)

/*
EdgeKey is an always positive number that stores a mesh edge's vertices as indices in a
way that can be compared. An edge between vertices [4] and [0] will always be stored as
[0,4], in the ascending order of the index values, so both triangles sharing an edge
produce the same key regardless of their winding.
*/
type EdgeKey uint64

func NewEdgeKey(verts [2]int) (packed EdgeKey) {
	// Two 32 bit unsigned halves, low half is the smaller index
	var (
		limit = math.MaxUint32
	)
	for _, vert := range verts {
		if vert < 0 || vert > limit {
			panic(fmt.Errorf("unable to pack two ints into a uint64, have %d and %d as inputs",
				verts[0], verts[1]))
		}
	}
	i1, i2 := verts[0], verts[1]
	if i1 > i2 {
		i1, i2 = i2, i1
	}
	packed = EdgeKey(uint64(i1) | uint64(i2)<<32)
	return
}

func (ek EdgeKey) GetVertices(rev bool) (verts [2]int) {
	verts[0] = int(uint64(ek) & math.MaxUint32)
	verts[1] = int(uint64(ek) >> 32)
	if rev {
		verts[0], verts[1] = verts[1], verts[0]
	}
	return
}

// EdgeCount tallies how many triangles use each edge. On a closed 2-manifold surface
// every edge is used exactly twice.
type EdgeCount map[EdgeKey]int

func NewEdgeCount(faces [][3]int) (ec EdgeCount) {
	ec = make(EdgeCount, 3*len(faces)/2)
	for _, f := range faces {
		for i := 0; i < 3; i++ {
			ec[NewEdgeKey([2]int{f[i], f[(i+1)%3]})]++
		}
	}
	return
}

// Boundary returns the number of edges used by a single triangle.
func (ec EdgeCount) Boundary() (n int) {
	for _, c := range ec {
		if c == 1 {
			n++
		}
	}
	return
}

// NonManifold returns the number of edges shared by more than two triangles.
func (ec EdgeCount) NonManifold() (n int) {
	for _, c := range ec {
		if c > 2 {
			n++
		}
	}
	return
}
