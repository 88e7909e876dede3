package geometry3D

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is a similarity transform p' = s*R*p + t held as a 4x4 homogeneous matrix.
// With Scale 1 it is a rigid transform. Transforms are values: every operation returns
// a new Transform.
type Transform struct {
	M *mat.Dense
}

func Identity() Transform {
	M := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		M.Set(i, i, 1)
	}
	return Transform{M: M}
}

func Translation(t r3.Vec) Transform {
	T := Identity()
	T.M.Set(0, 3, t.X)
	T.M.Set(1, 3, t.Y)
	T.M.Set(2, 3, t.Z)
	return T
}

func Scaling(s float64) Transform {
	S := Identity()
	for i := 0; i < 3; i++ {
		S.M.Set(i, i, s)
	}
	return S
}

func Rotation(R *r3.Mat) Transform {
	Rh := Identity()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			Rh.M.Set(i, j, R.At(i, j))
		}
	}
	return Rh
}

// ComposeHomogeneous builds translate(target) * R * scale * translate(-origin): points are
// moved so origin lands on zero, scaled uniformly, rotated and finally moved to target.
func ComposeHomogeneous(R *r3.Mat, origin r3.Vec, scale float64, target r3.Vec) Transform {
	return Translation(target).
		Compose(Rotation(R)).
		Compose(Scaling(scale)).
		Compose(Translation(r3.Scale(-1, origin)))
}

// RotationAbout returns the rotation R applied about pivot.
func RotationAbout(R *r3.Mat, pivot r3.Vec) Transform {
	return ComposeHomogeneous(R, pivot, 1, pivot)
}

// Compose returns tr*other, the transform applying other first and then tr.
func (tr Transform) Compose(other Transform) Transform {
	M := mat.NewDense(4, 4, nil)
	M.Mul(tr.M, other.M)
	return Transform{M: M}
}

// Inverse fails when the transform is singular, i.e. when its scale is zero.
func (tr Transform) Inverse() (inv Transform, err error) {
	M := mat.NewDense(4, 4, nil)
	if err = M.Inverse(tr.M); err != nil {
		return Transform{}, fmt.Errorf("transform is not invertible: %w", err)
	}
	return Transform{M: M}, nil
}

func (tr Transform) Apply(p r3.Vec) r3.Vec {
	M := tr.M
	return r3.Vec{
		X: M.At(0, 0)*p.X + M.At(0, 1)*p.Y + M.At(0, 2)*p.Z + M.At(0, 3),
		Y: M.At(1, 0)*p.X + M.At(1, 1)*p.Y + M.At(1, 2)*p.Z + M.At(1, 3),
		Z: M.At(2, 0)*p.X + M.At(2, 1)*p.Y + M.At(2, 2)*p.Z + M.At(2, 3),
	}
}

// ApplyAll transforms every point as one 4xN product.
func (tr Transform) ApplyAll(pts []r3.Vec) (out []r3.Vec) {
	if len(pts) == 0 {
		return nil
	}
	var (
		N = len(pts)
		P = mat.NewDense(4, N, nil)
		Q mat.Dense
	)
	for j, p := range pts {
		P.Set(0, j, p.X)
		P.Set(1, j, p.Y)
		P.Set(2, j, p.Z)
		P.Set(3, j, 1)
	}
	Q.Mul(tr.M, P)
	out = make([]r3.Vec, N)
	for j := range out {
		out[j] = r3.Vec{X: Q.At(0, j), Y: Q.At(1, j), Z: Q.At(2, j)}
	}
	return
}

// ApplyDirection transforms v as a direction, ignoring translation.
func (tr Transform) ApplyDirection(v r3.Vec) r3.Vec {
	return r3.Sub(tr.Apply(v), tr.Apply(r3.Vec{}))
}

// Scale returns the uniform scale factor, the length of the first basis column.
func (tr Transform) Scale() float64 {
	return r3.Norm(r3.Vec{X: tr.M.At(0, 0), Y: tr.M.At(1, 0), Z: tr.M.At(2, 0)})
}

// Rotation returns the 3x3 rotation with the scale divided out.
func (tr Transform) Rotation() *r3.Mat {
	var (
		s = tr.Scale()
		R = r3.NewMat(nil)
	)
	if s == 0 {
		return r3.Eye()
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			R.Set(i, j, tr.M.At(i, j)/s)
		}
	}
	return R
}

func (tr Transform) Translation() r3.Vec {
	return r3.Vec{X: tr.M.At(0, 3), Y: tr.M.At(1, 3), Z: tr.M.At(2, 3)}
}

func (tr Transform) String() string {
	return fmt.Sprintf("%v", mat.Formatted(tr.M, mat.Squeeze()))
}
