package layout

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/PeterAlpajaro/EEG-Model-Generator/geometry3D"
)

// Position is a named electrode site given by two angles, in radians. The canonical
// forward vector is first turned by Coronal about the lateral (Z) axis, lifting it toward
// the vertex, then by Sagittal about the forward (X) axis, tilting it toward the right
// ear for positive values.
type Position struct {
	Name              string
	Coronal, Sagittal float64
}

// FromSpherical converts a site given by its polar angle from the vertex and its
// azimuth from the nose (positive toward the right ear), both in degrees.
func FromSpherical(name string, polar, azimuth float64) Position {
	var (
		th, ph = polar * math.Pi / 180, azimuth * math.Pi / 180
		fwd    = math.Sin(th) * math.Cos(ph)
		up     = math.Cos(th)
		lat    = math.Sin(th) * math.Sin(ph)
	)
	return Position{
		Name:     name,
		Coronal:  math.Acos(geometry3D.Clip(fwd, -1, 1)),
		Sagittal: math.Atan2(lat, up),
	}
}

// Standard1020 returns the 21 sites of the international 10-20 system on an idealised
// spherical head, with the 10% circumference at 72 degrees from the vertex.
func Standard1020() []Position {
	sites := []struct {
		name           string
		polar, azimuth float64
	}{
		{"Fp1", 72, -18}, {"Fpz", 72, 0}, {"Fp2", 72, 18},
		{"F7", 72, -54}, {"F3", 51, -39}, {"Fz", 36, 0}, {"F4", 51, 39}, {"F8", 72, 54},
		{"T7", 72, -90}, {"C3", 36, -90}, {"Cz", 0, 0}, {"C4", 36, 90}, {"T8", 72, 90},
		{"P7", 72, -126}, {"P3", 51, -141}, {"Pz", 36, 180}, {"P4", 51, 141}, {"P8", 72, 126},
		{"O1", 72, -162}, {"Oz", 72, 180}, {"O2", 72, 162},
	}
	positions := make([]Position, len(sites))
	for i, s := range sites {
		positions[i] = FromSpherical(s.name, s.polar, s.azimuth)
	}
	return positions
}

// LocalDirection is the direction of the site in canonical head coordinates: X forward,
// Y up, Z toward the right ear.
func LocalDirection(coronal, sagittal float64) r3.Vec {
	return geometry3D.RotX(sagittal).MulVec(geometry3D.RotZ(coronal).MulVec(geometry3D.XAxis))
}

// Direction maps the site direction into the world through the head frame.
func Direction(frame geometry3D.HeadFrame, coronal, sagittal float64) r3.Vec {
	return frame.ToWorld(LocalDirection(coronal, sagittal))
}

// Angular returns one candidate per position, projected outward from the head center.
// The output is sorted by name.
func Angular(frame geometry3D.HeadFrame, positions []Position) (cands []Candidate) {
	sorted := make([]Position, len(positions))
	copy(sorted, positions)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	cands = make([]Candidate, len(sorted))
	for i, p := range sorted {
		dir := Direction(frame, p.Coronal, p.Sagittal)
		cands[i] = Candidate{
			Position:   frame.Center,
			Projection: dir,
			Aim:        r3.Scale(-1, dir),
			Tag:        p.Name,
		}
	}
	return
}
