package alignment

import (
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/PeterAlpajaro/EEG-Model-Generator/geometry3D"
	"github.com/PeterAlpajaro/EEG-Model-Generator/mesh"
)

func randomVec(rng *rand.Rand, scale float64) r3.Vec {
	return r3.Vec{X: scale * rng.NormFloat64(), Y: scale * rng.NormFloat64(), Z: scale * rng.NormFloat64()}
}

func angleAt(p, a, b r3.Vec) float64 {
	u, v := r3.Unit(r3.Sub(a, p)), r3.Unit(r3.Sub(b, p))
	return math.Acos(geometry3D.Clip(r3.Dot(u, v), -1, 1))
}

func TestAlignConcreteScenario(t *testing.T) {
	var (
		pts = LandmarkSet{{}, {X: -1, Z: -1}, {X: 1, Z: -1}, {Z: -2}}
		al  = Align(pts, r3.Vec{}, r3.Vec{Z: -4})
	)
	assert.InDelta(t, 2., al.Scale, 1e-12)
	assert.True(t, geometry3D.EqualWithin(al.Points[Nasion], r3.Vec{}, 1e-9))
	assert.True(t, geometry3D.EqualWithin(al.Points[Inion], r3.Vec{Z: -4}, 1e-9))
	// Ears mirror each other across the new sagittal axis (the Z axis)
	left, right := al.Points[LeftPreauricular], al.Points[RightPreauricular]
	assert.InDelta(t, left.X, -right.X, 1e-9)
	assert.InDelta(t, left.Y, right.Y, 1e-9)
	assert.InDelta(t, left.Z, right.Z, 1e-9)
	assert.True(t, geometry3D.EqualWithin(left, r3.Vec{X: -2, Z: -2}, 1e-9))
	assert.InDelta(t, 0., al.Twist, 1e-12)
	assert.Empty(t, al.Fallbacks)
}

func TestAlignProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 200; n++ {
		var (
			pts  LandmarkSet
			refA = randomVec(rng, 5)
			refB = r3.Add(refA, randomVec(rng, 3))
		)
		for i := range pts {
			pts[i] = randomVec(rng, 2)
		}
		if pts.Validate() != nil || r3.Norm(r3.Sub(refB, refA)) < 0.1 || r3.Norm(r3.Sub(pts[3], pts[0])) < 0.1 {
			continue
		}
		al := Align(pts, refA, refB)
		// Anchor invariance
		require.True(t, geometry3D.EqualWithin(al.Points[0], refA, 1e-6), "trial %d", n)
		require.True(t, geometry3D.EqualWithin(al.Points[3], refB, 1e-6), "trial %d", n)
		// Scale correctness
		assert.InDelta(t, r3.Norm(r3.Sub(refB, refA)), r3.Norm(r3.Sub(al.Points[3], al.Points[0])), 1e-6)
		// Angles and distance ratios survive
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				for k := j + 1; k < 4; k++ {
					if i == j || i == k {
						continue
					}
					assert.InDelta(t, angleAt(pts[i], pts[j], pts[k]), angleAt(al.Points[i], al.Points[j], al.Points[k]), 1e-6)
				}
				if i != j {
					assert.InDelta(t, al.Scale*r3.Norm(r3.Sub(pts[i], pts[j])), r3.Norm(r3.Sub(al.Points[i], al.Points[j])), 1e-6)
				}
			}
		}
		// The transform reproduces the points and is a proper similarity
		for i := range pts {
			assert.True(t, geometry3D.EqualWithin(al.Transform.Apply(pts[i]), al.Points[i], 1e-6))
		}
		assert.True(t, geometry3D.IsRotation(al.Transform.Rotation(), 1e-6))
		// After the twist the coronal normal lies in the plane of the anchor axis and Up,
		// on the Up side
		if len(al.Fallbacks) == 0 {
			AD := r3.Sub(refB, refA)
			normal := r3.Cross(AD, r3.Sub(al.Points[1], al.Points[2]))
			assert.InDelta(t, 0., r3.Dot(r3.Unit(normal), r3.Unit(r3.Cross(AD, Up))), 1e-6)
			assert.GreaterOrEqual(t, r3.Dot(normal, Up), -1e-9)
		}
	}
}

func TestAlignDegenerate(t *testing.T) {
	{ // Coincident nasion and inion: unit scale, no panic
		pts := LandmarkSet{{X: 1}, {Z: -1}, {Z: 1}, {X: 1}}
		al := Align(pts, r3.Vec{}, r3.Vec{X: 2})
		assert.Equal(t, 1., al.Scale)
		assert.NotEmpty(t, al.Fallbacks)
		assert.True(t, geometry3D.EqualWithin(al.Points[0], r3.Vec{}, 1e-12))
	}
	{ // Anchor axis parallel to Up skips the twist
		pts := LandmarkSet{{}, {X: -1, Y: 1}, {X: 1, Y: 1}, {Y: 2}}
		al := Align(pts, r3.Vec{}, r3.Vec{Y: 4})
		assert.Contains(t, al.Fallbacks, "anchor axis parallel to up")
		assert.True(t, geometry3D.EqualWithin(al.Points[3], r3.Vec{Y: 4}, 1e-9))
	}
	{ // Ears on the anchor axis skip the twist
		pts := LandmarkSet{{}, {Z: -0.5}, {Z: -1.5}, {Z: -2}}
		al := Align(pts, r3.Vec{}, r3.Vec{Z: -4})
		assert.Contains(t, al.Fallbacks, "ear axis parallel to anchor axis")
	}
	{ // Exactly reversed anchor direction takes the half turn branch
		pts := LandmarkSet{{}, {X: -1, Y: 0.5, Z: -1}, {X: 1, Y: 0.5, Z: -1}, {Z: -2}}
		al := Align(pts, r3.Vec{}, r3.Vec{Z: 4})
		assert.True(t, geometry3D.EqualWithin(al.Points[3], r3.Vec{Z: 4}, 1e-9))
		assert.True(t, geometry3D.IsRotation(al.Transform.Rotation(), 1e-9))
	}
}

func TestParseLandmarks(t *testing.T) {
	{ // Separators do not matter
		ls, err := ParseLandmarks(strings.NewReader("1.5, -2 3e-1\n[4;5;6]\n7 8 9\nx=-1.0e+1 y=.5 z=0"))
		require.NoError(t, err)
		assert.Equal(t, r3.Vec{X: 1.5, Y: -2, Z: 0.3}, ls[Nasion])
		assert.Equal(t, r3.Vec{X: -10, Y: 0.5, Z: 0}, ls[Inion])
	}
	{ // Wrong count
		_, err := ParseLandmarks(strings.NewReader("1 2 3 4 5 6 7 8 9 10 11"))
		var mle *MalformedLandmarkFileError
		require.True(t, errors.As(err, &mle))
		assert.Equal(t, 11, mle.Count)
		_, err = ParseLandmarks(strings.NewReader("1 2 3 4 5 6 7 8 9 10 11 12 13"))
		assert.True(t, errors.As(err, &mle))
	}
	{ // File round trip and the path in the error
		dir := t.TempDir()
		fileName := filepath.Join(dir, "aligned_points.xyz")
		ls := LandmarkSet{{X: 1}, {Y: -2}, {Z: 3.25}, {X: -4.125, Y: 1, Z: 2}}
		require.NoError(t, WriteLandmarkFile(fileName, ls))
		got, err := ReadLandmarkFile(fileName)
		require.NoError(t, err)
		assert.Equal(t, ls, got)

		bad := filepath.Join(dir, "bad.xyz")
		require.NoError(t, os.WriteFile(bad, []byte("1 2 3"), 0644))
		_, err = ReadLandmarkFile(bad)
		var mle *MalformedLandmarkFileError
		require.True(t, errors.As(err, &mle))
		assert.Equal(t, bad, mle.Path)

		pts, err := ReadPointFile(fileName)
		require.NoError(t, err)
		assert.Len(t, pts, 4)
		require.NoError(t, os.WriteFile(bad, []byte("1 2 3 4"), 0644))
		_, err = ReadPointFile(bad)
		assert.Error(t, err)
	}
	{ // Coincident landmarks
		assert.Error(t, LandmarkSet{{}, {X: 1}, {X: 1}, {Z: 1}}.Validate())
		assert.NoError(t, LandmarkSet{{}, {X: 1}, {Y: 1}, {Z: 1}}.Validate())
	}
}

func TestFromFacialLandmarks(t *testing.T) {
	pts := make([]r3.Vec, 68)
	for i := range pts {
		pts[i] = r3.Vec{X: float64(i), Y: 100}
	}
	pts[FacialLeftEar] = r3.Vec{Z: -1}
	pts[FacialRightEar] = r3.Vec{Z: 1}
	pts[FacialNasion] = r3.Vec{X: 1}
	ls, err := FromFacialLandmarks(pts)
	require.NoError(t, err)
	assert.Equal(t, r3.Vec{X: 1}, ls[Nasion])
	// Midpoint (0,0,0): inion = nasion + 1.8*(midpoint - nasion)
	assert.True(t, geometry3D.EqualWithin(ls[Inion], r3.Vec{X: -0.8}, 1e-12))
	_, err = FromFacialLandmarks(pts[:20])
	assert.Error(t, err)
}

func TestDetectReference(t *testing.T) {
	var (
		head = mesh.Icosphere(1, 3).Translated(r3.Vec{Y: 1})
		// a narrow neck column below the head
		neck = mesh.Cylinder(0.05, 1, 24).Translated(r3.Vec{Y: -0.5})
		body = mesh.Merge(neck, head)
	)
	ref, err := DetectReference(body, DefaultReferenceOptions())
	require.NoError(t, err)
	assert.Less(t, ref.NeckHeight, 0.6)
	assert.InDelta(t, 1., ref.Nose.X, 0.02)
	assert.InDelta(t, -1., ref.BackOfHead.X, 0.02)
	assert.InDelta(t, 1., ref.Nose.Y, 0.3)

	neckHeight, err := FindNeckHeight(body.Vertices, geometry3D.XAxis, geometry3D.YAxis, 10)
	require.NoError(t, err)
	assert.Equal(t, ref.NeckHeight, neckHeight)

	_, err = FindNeckHeight(nil, geometry3D.XAxis, geometry3D.YAxis, 10)
	assert.Error(t, err)
	opts := DefaultReferenceOptions()
	opts.Up = geometry3D.XAxis
	_, err = DetectReference(body, opts)
	assert.Error(t, err)
}
