package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypes(t *testing.T) {
	{ // Test packed int for edge labeling
		en := NewEdgeKey([2]int{1, 0})
		assert.Equal(t, EdgeKey(1<<32), en)
		assert.Equal(t, [2]int{0, 1}, en.GetVertices(false))
		assert.Equal(t, [2]int{1, 0}, en.GetVertices(true))

		en = NewEdgeKey([2]int{100, 1})
		assert.Equal(t, EdgeKey(100*(1<<32)+1), en)
		assert.Equal(t, [2]int{1, 100}, en.GetVertices(false))

		en = NewEdgeKey([2]int{1<<32 - 1, 1<<32 - 1})
		assert.Equal(t, EdgeKey(1<<64-1), en)
		assert.Equal(t, [2]int{1<<32 - 1, 1<<32 - 1}, en.GetVertices(false))

		assert.Panics(t, func() { NewEdgeKey([2]int{-1, 2}) })
	}
	{ // Edge counts for a tetrahedron surface and a single triangle
		tet := [][3]int{{0, 2, 1}, {0, 1, 3}, {1, 2, 3}, {0, 3, 2}}
		ec := NewEdgeCount(tet)
		assert.Len(t, ec, 6)
		assert.Equal(t, 0, ec.Boundary())
		assert.Equal(t, 0, ec.NonManifold())

		ec = NewEdgeCount([][3]int{{0, 1, 2}})
		assert.Equal(t, 3, ec.Boundary())
	}
	{ // Mode labels
		pm, err := NewProjectionMode(" Ray ")
		require.NoError(t, err)
		assert.Equal(t, Projection_Ray, pm)
		pm, err = NewProjectionMode("surface")
		require.NoError(t, err)
		assert.Equal(t, "closest", pm.String())
		_, err = NewProjectionMode("laser")
		assert.Error(t, err)

		am, err := NewAimMode("normal")
		require.NoError(t, err)
		assert.Equal(t, Aim_Normal, am)
		_, err = NewAimMode("")
		assert.Error(t, err)

		lm, err := NewLayoutMode("10-20")
		require.NoError(t, err)
		assert.Equal(t, "1020", lm.String())
	}
}
