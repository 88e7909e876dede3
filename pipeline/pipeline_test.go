package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/PeterAlpajaro/EEG-Model-Generator/InputParameters"
	"github.com/PeterAlpajaro/EEG-Model-Generator/alignment"
	"github.com/PeterAlpajaro/EEG-Model-Generator/geometry3D"
	"github.com/PeterAlpajaro/EEG-Model-Generator/mesh"
	"github.com/PeterAlpajaro/EEG-Model-Generator/placement"
	"github.com/PeterAlpajaro/EEG-Model-Generator/types"
)

// Unit head centered on the origin, X forward, Y up, Z toward the right ear
func canonicalLandmarks() [4]r3.Vec {
	return [4]r3.Vec{{X: 1}, {Z: -1}, {Z: 1}, {X: -1}}
}

// sphereHead is tilted by an arbitrary rotation so axis aligned rays never graze an edge.
func sphereHead() mesh.TriangleMesh {
	R := geometry3D.AxisAngle(r3.Unit(r3.Vec{X: 0.3, Y: 0.5, Z: 0.7}), 0.37)
	return mesh.Icosphere(1, 3).Transformed(geometry3D.Rotation(R))
}

func testTemplate(t *testing.T) mesh.TriangleMesh {
	template, err := LoadTemplate("", 0.01)
	require.NoError(t, err)
	return template
}

func TestPlaceElectrodesRings(t *testing.T) {
	var (
		head     = sphereHead()
		template = testTemplate(t)
		lm       = canonicalLandmarks()
	)
	opts := DefaultOptions()
	opts.OutlierThreshold = 0.1
	el, err := PlaceElectrodes(lm, head, template, opts)
	require.NoError(t, err)
	assert.InDelta(t, 1., el.OuterRadius, 1e-12)
	assert.True(t, geometry3D.EqualWithin(el.Frame.Vertical, geometry3D.YAxis, 1e-12))
	require.Len(t, el.Sites, 16)
	assert.Empty(t, el.Misses)
	assert.Empty(t, el.Dropped)
	for _, s := range el.Sites {
		require.True(t, s.Surface.Hit, s.Candidate.Tag)
		sp := s.Surface.Point
		// Vertical rays keep the horizontal position
		assert.InDelta(t, s.Candidate.Position.X, sp.X, 1e-12)
		assert.InDelta(t, s.Candidate.Position.Z, sp.Z, 1e-12)
		assert.Greater(t, sp.Y, 0.)
		assert.InDelta(t, 0.995, r3.Norm(sp), 0.006)
		// Pushed outward from the center and aimed back at it
		assert.InDelta(t, r3.Norm(sp)+opts.OutwardOffset, r3.Norm(s.Point), 1e-12)
		assert.True(t, geometry3D.EqualWithin(r3.Unit(s.Aim), r3.Scale(-1, r3.Unit(s.Point)), 1e-12))
		assert.Zero(t, s.Offset)
	}
	require.Len(t, el.Placed, 17)
	for i, s := range el.Sites {
		pe := el.Placed[i]
		assert.Equal(t, s.Candidate.Tag, pe.Tag)
		assert.True(t, geometry3D.EqualWithin(pe.Transform.ApplyDirection(placement.TemplateUp), r3.Unit(s.Aim), 1e-9))
		assert.True(t, geometry3D.EqualWithin(pe.Transform.Translation(), s.Point, 1e-12))
	}
	assert.Equal(t, placement.CentralTargetTag, el.Placed[16].Tag)
	assert.Equal(t, head.NumFaces()+17*template.NumFaces(), el.Combined.NumFaces())
	assert.Equal(t, head.Vertices, el.Combined.Vertices[:head.NumVertices()])
	require.NoError(t, el.Combined.Validate())

	{ // Electrodes only
		opts.IncludeHead, opts.CentralTarget = false, false
		only, err := PlaceElectrodes(lm, head, template, opts)
		require.NoError(t, err)
		assert.Equal(t, 16*template.NumFaces(), only.Combined.NumFaces())
	}
}

func TestPlaceElectrodesParallelMatchesSequential(t *testing.T) {
	var (
		head     = sphereHead()
		template = testTemplate(t)
		lm       = canonicalLandmarks()
	)
	for _, layoutMode := range []types.LayoutMode{types.Layout_Rings, types.Layout_1020} {
		opts := DefaultOptions()
		opts.Layout = layoutMode
		opts.OutlierThreshold = 0.1
		opts.Workers = 1
		seq, err := PlaceElectrodes(lm, head, template, opts)
		require.NoError(t, err)
		for _, workers := range []int{2, 7, 64} {
			opts.Workers = workers
			par, err := PlaceElectrodes(lm, head, template, opts)
			require.NoError(t, err)
			assert.Equal(t, seq.Sites, par.Sites)
			assert.Equal(t, seq.Combined, par.Combined)
		}
	}
}

func TestPlaceElectrodes1020(t *testing.T) {
	var (
		head     = sphereHead()
		template = testTemplate(t)
		lm       = canonicalLandmarks()
	)
	opts := DefaultOptions()
	opts.Layout = types.Layout_1020
	opts.Aim = types.Aim_Normal
	opts.OutlierThreshold = 0 // never applied to the 10-20 layout
	el, err := PlaceElectrodes(lm, head, template, opts)
	require.NoError(t, err)
	require.Len(t, el.Sites, 21)
	assert.Empty(t, el.Dropped)
	assert.Empty(t, el.Misses)
	sites := make(map[string]Site, len(el.Sites))
	for _, s := range el.Sites {
		sites[s.Candidate.Tag] = s
		require.True(t, s.Surface.Hit, s.Candidate.Tag)
		assert.Equal(t, s.Surface.Normal, s.Aim)
		assert.Equal(t, opts.OutwardOffset, s.Offset)
		assert.Greater(t, r3.Dot(s.Aim, r3.Unit(s.Surface.Point)), 0.99)
	}
	assert.Equal(t, "C3", el.Sites[0].Candidate.Tag)
	assert.Equal(t, "T8", el.Sites[20].Candidate.Tag)
	assert.True(t, geometry3D.EqualWithin(sites["Cz"].Point, r3.Vec{Y: 1}, 0.01))
	assert.InDelta(t, 0., sites["Fpz"].Point.Z, 1e-9)
	assert.Greater(t, sites["Fpz"].Point.X, 0.9)
	assert.Less(t, sites["Oz"].Point.X, -0.9)
	assert.Greater(t, sites["T8"].Point.Z, 0.9)
	assert.Less(t, sites["T7"].Point.Z, -0.9)
	assert.Len(t, el.Placed, 22)
}

func TestPlaceElectrodesMisses(t *testing.T) {
	var (
		head     = mesh.Icosphere(1, 2).Translated(r3.Vec{X: 10})
		template = testTemplate(t)
	)
	opts := DefaultOptions()
	opts.OutlierThreshold = 0.1
	el, err := PlaceElectrodes(canonicalLandmarks(), head, template, opts)
	require.NoError(t, err)
	assert.Len(t, el.Misses, 16)
	require.Len(t, el.Sites, 16)
	for _, s := range el.Sites {
		assert.Equal(t, -1, s.Surface.Index)
		assert.Equal(t, s.Candidate.Position, s.Surface.Point)
	}
	assert.Len(t, el.Placed, 17)

	{ // Degenerate landmarks and empty heads are errors
		_, err = PlaceElectrodes([4]r3.Vec{}, head, template, opts)
		assert.Error(t, err)
		_, err = PlaceElectrodes(canonicalLandmarks(), mesh.TriangleMesh{}, template, opts)
		assert.Error(t, err)
	}
}

func TestPlaceElectrodesAligned(t *testing.T) {
	var (
		head     = sphereHead()
		template = testTemplate(t)
		lm       = alignment.LandmarkSet(canonicalLandmarks())
	)
	// Anchors left where they are: only the twist about the nasion-inion axis acts
	al := alignment.Align(lm, lm[alignment.Nasion], lm[alignment.Inion])
	opts := DefaultOptions()
	opts.OutlierThreshold = 0.1
	{ // Rings project toward the top of the head
		el, err := PlaceElectrodes(al.Points, head, template, opts)
		require.NoError(t, err)
		assert.True(t, geometry3D.EqualWithin(el.Frame.Vertical, geometry3D.YAxis, 1e-9))
		require.Len(t, el.Sites, 16)
		for _, s := range el.Sites {
			require.True(t, s.Surface.Hit, s.Candidate.Tag)
			assert.Greater(t, s.Surface.Point.Y, 0.5, s.Candidate.Tag)
		}
		ct := el.Placed[len(el.Placed)-1]
		assert.Greater(t, ct.Transform.Translation().Y, 0.)
	}
	{ // 10-20 sites sit on the upper hemisphere with Cz at the vertex
		opts.Layout = types.Layout_1020
		el, err := PlaceElectrodes(al.Points, head, template, opts)
		require.NoError(t, err)
		require.Len(t, el.Sites, 21)
		for _, s := range el.Sites {
			require.True(t, s.Surface.Hit, s.Candidate.Tag)
			assert.Greater(t, s.Surface.Point.Y, 0.2, s.Candidate.Tag)
			if s.Candidate.Tag == "Cz" {
				assert.True(t, geometry3D.EqualWithin(s.Surface.Point, r3.Vec{Y: 1}, 0.01))
			}
		}
	}
}

func TestNewOptions(t *testing.T) {
	rp := &InputParameters.RunParameters{
		LandmarkFile:   "a.xyz",
		HeadMesh:       "head.stl",
		LayoutMode:     "1020",
		ProjectionMode: "closest",
		AimMode:        "normal",
		Positions:      []InputParameters.PositionParameters{{Name: "Cz", CoronalAngle: 90}},
		Workers:        3,
	}
	rp.SetDefaults()
	require.NoError(t, rp.Validate())
	opts, err := NewOptions(rp)
	require.NoError(t, err)
	assert.Equal(t, types.Layout_1020, opts.Layout)
	assert.Equal(t, types.Projection_ClosestSurface, opts.Projection)
	assert.Equal(t, types.Aim_Normal, opts.Aim)
	require.Len(t, opts.Positions, 1)
	assert.InDelta(t, 1.5707963267948966, opts.Positions[0].Coronal, 1e-15)
	assert.Equal(t, DefaultOptions().Rings, opts.Rings)
	assert.Equal(t, DefaultOptions().Band, opts.Band)
	assert.Equal(t, 3, opts.Workers)
	assert.True(t, opts.IncludeHead)

	rp.LayoutMode = "spiral"
	_, err = NewOptions(rp)
	assert.Error(t, err)
}

func TestResolveAlignment(t *testing.T) {
	var (
		head = sphereHead()
		lm   alignment.LandmarkSet
	)
	for i, p := range canonicalLandmarks() {
		lm[i] = r3.Scale(2, p)
	}
	rp := &InputParameters.RunParameters{}
	{ // No anchors: unchanged
		out, err := ResolveAlignment(rp, lm, head, false)
		require.NoError(t, err)
		assert.Equal(t, lm, out)
	}
	{ // Explicit anchors
		rp.ReferenceAnchor = &[3]float64{1, 0, 0}
		rp.ReferenceOpposite = &[3]float64{-1, 0, 0}
		out, err := ResolveAlignment(rp, lm, head, true)
		require.NoError(t, err)
		assert.True(t, geometry3D.EqualWithin(out[alignment.Nasion], r3.Vec{X: 1}, 1e-9))
		assert.True(t, geometry3D.EqualWithin(out[alignment.Inion], r3.Vec{X: -1}, 1e-9))
		assert.InDelta(t, 2., r3.Norm(r3.Sub(out[alignment.LeftPreauricular], out[alignment.RightPreauricular])), 1e-9)
	}
}

func TestRunEndToEnd(t *testing.T) {
	var (
		dir       = t.TempDir()
		headPath  = filepath.Join(dir, "head.stl")
		lmPath    = filepath.Join(dir, "landmarks.xyz")
		outPath   = filepath.Join(dir, "out.stl")
		head      = sphereHead()
		landmarks = alignment.LandmarkSet(canonicalLandmarks())
	)
	require.NoError(t, mesh.WriteMeshFile(headPath, head))
	require.NoError(t, alignment.WriteLandmarkFile(lmPath, landmarks))
	threshold := 0.1
	rp := &InputParameters.RunParameters{
		LandmarkFile:                lmPath,
		HeadMesh:                    headPath,
		OutputFile:                  outPath,
		LowestPointOutlierThreshold: &threshold,
	}
	rp.SetDefaults()
	require.NoError(t, rp.Validate())
	el, err := Run(rp, false)
	require.NoError(t, err)
	assert.Len(t, el.Placed, 17)
	written, err := mesh.ReadMeshFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, el.Combined.NumFaces(), written.NumFaces())

	{ // Anchors detected on a head with a neck, electrodes on the crown
		var (
			R       = geometry3D.AxisAngle(r3.Unit(r3.Vec{X: 0.3, Y: 0.5, Z: 0.7}), 0.37)
			skull   = mesh.Icosphere(1, 3).Transformed(geometry3D.Rotation(R)).Translated(r3.Vec{Y: 1})
			neck    = mesh.Cylinder(0.05, 1, 24).Translated(r3.Vec{Y: -0.5})
			neckHd  = filepath.Join(dir, "neck_head.stl")
			raised  = filepath.Join(dir, "raised.xyz")
			crownLm alignment.LandmarkSet
		)
		for i, p := range canonicalLandmarks() {
			crownLm[i] = r3.Add(p, r3.Vec{Y: 1})
		}
		require.NoError(t, mesh.WriteMeshFile(neckHd, mesh.Merge(skull, neck)))
		require.NoError(t, alignment.WriteLandmarkFile(raised, crownLm))
		auto := &InputParameters.RunParameters{
			LandmarkFile:  raised,
			HeadMesh:      neckHd,
			OutputFile:    filepath.Join(dir, "auto.stl"),
			AutoReference: true,
		}
		auto.SetDefaults()
		noFilter := -1.
		auto.LowestPointOutlierThreshold = &noFilter
		require.NoError(t, auto.Validate())
		el, err := Run(auto, false)
		require.NoError(t, err)
		assert.Greater(t, el.Frame.Vertical.Y, 0.99)
		require.Len(t, el.Sites, 16)
		for _, s := range el.Sites {
			require.True(t, s.Surface.Hit, s.Candidate.Tag)
			assert.Greater(t, s.Surface.Point.Y, 1.2, s.Candidate.Tag)
		}
	}
	{ // Missing inputs surface as errors
		rp.HeadMesh = filepath.Join(dir, "missing.stl")
		_, err = Run(rp, false)
		assert.Error(t, err)
	}
}

func TestMarkerMesh(t *testing.T) {
	markers := Markers(alignment.LandmarkSet(canonicalLandmarks()), 0.75)
	require.Len(t, markers, 9)
	assert.Equal(t, r3.Vec{}, markers[4])
	m := MarkerMesh(markers, 0.01)
	sphere := mesh.Icosphere(0.01, MarkerSubdivisions)
	assert.Equal(t, 9*sphere.NumFaces(), m.NumFaces())
	assert.Equal(t, 9*sphere.NumVertices(), m.NumVertices())
	assert.Empty(t, MarkerMesh(nil, 0.01).Faces)
}

func TestLoadTemplate(t *testing.T) {
	template, err := LoadTemplate("", 0.02)
	require.NoError(t, err)
	ext := template.Extents()
	assert.InDelta(t, 0.03, ext.X, 1e-12)
	assert.InDelta(t, 0.03, ext.Z, 1e-3)
	_, err = LoadTemplate(filepath.Join(t.TempDir(), "none.stl"), 0.02)
	assert.Error(t, err)
}
