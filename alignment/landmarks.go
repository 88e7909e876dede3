package alignment

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/PeterAlpajaro/EEG-Model-Generator/geometry3D"
)

// Landmark indices within a LandmarkSet.
const (
	Nasion = iota
	LeftPreauricular
	RightPreauricular
	Inion
)

var LandmarkNames = [4]string{"Nasion", "Left Preauricular", "Right Preauricular", "Inion"}

// LandmarkSet holds the four reference landmarks in the order nasion, left preauricular,
// right preauricular, inion. It is a value; transforms return new sets.
type LandmarkSet [4]r3.Vec

// Validate fails when two landmarks coincide.
func (ls LandmarkSet) Validate() error {
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if r3.Norm(r3.Sub(ls[i], ls[j])) < geometry3D.DegenerateTol {
				return fmt.Errorf("landmarks %s and %s coincide at %v", LandmarkNames[i], LandmarkNames[j], ls[i])
			}
		}
	}
	return nil
}

func (ls LandmarkSet) Center() r3.Vec { return geometry3D.Centroid(ls[:]) }

// Frame derives the head frame of the set.
func (ls LandmarkSet) Frame() (geometry3D.HeadFrame, error) {
	return geometry3D.NewHeadFrame(ls[Nasion], ls[LeftPreauricular], ls[RightPreauricular], ls[Inion])
}

// Transformed applies tr to every landmark.
func (ls LandmarkSet) Transformed(tr geometry3D.Transform) (out LandmarkSet) {
	copy(out[:], tr.ApplyAll(ls[:]))
	return
}

func (ls LandmarkSet) Print() {
	for i, p := range ls {
		fmt.Printf("%-20s = [%12.6f %12.6f %12.6f]\n", LandmarkNames[i], p.X, p.Y, p.Z)
	}
}

// MalformedLandmarkFileError reports a landmark file that does not hold exactly 12
// coordinates.
type MalformedLandmarkFileError struct {
	Path  string
	Count int
}

func (e *MalformedLandmarkFileError) Error() string {
	return fmt.Sprintf("malformed landmark file %s: expected 12 coordinate values (4 points x 3 coordinates), found %d",
		e.Path, e.Count)
}

// numberToken matches signed decimal numbers with optional exponent; separators between
// numbers are irrelevant.
var numberToken = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)

// ScanNumbers extracts every numeric token in r.
func ScanNumbers(r io.Reader) (values []float64, err error) {
	var data []byte
	if data, err = io.ReadAll(r); err != nil {
		return
	}
	for _, tok := range numberToken.FindAll(data, -1) {
		var v float64
		if v, err = strconv.ParseFloat(string(tok), 64); err != nil {
			return nil, fmt.Errorf("bad numeric token %q: %w", tok, err)
		}
		values = append(values, v)
	}
	return
}

// ParseLandmarks reads exactly four points from the numeric tokens of r.
func ParseLandmarks(r io.Reader) (ls LandmarkSet, err error) {
	var values []float64
	if values, err = ScanNumbers(r); err != nil {
		return
	}
	if len(values) != 12 {
		return LandmarkSet{}, &MalformedLandmarkFileError{Count: len(values)}
	}
	for i := range ls {
		ls[i] = r3.Vec{X: values[3*i], Y: values[3*i+1], Z: values[3*i+2]}
	}
	return
}

func ReadLandmarkFile(path string) (ls LandmarkSet, err error) {
	var file *os.File
	if file, err = os.Open(path); err != nil {
		return
	}
	defer file.Close()
	if ls, err = ParseLandmarks(file); err != nil {
		if mle, ok := err.(*MalformedLandmarkFileError); ok {
			mle.Path = path
		}
		return
	}
	return
}

// ReadPointFile reads any number of points from a whitespace or comma separated file. The
// token count must be a multiple of 3.
func ReadPointFile(path string) (pts []r3.Vec, err error) {
	var (
		file   *os.File
		values []float64
	)
	if file, err = os.Open(path); err != nil {
		return
	}
	defer file.Close()
	if values, err = ScanNumbers(file); err != nil {
		return
	}
	if len(values)%3 != 0 {
		return nil, fmt.Errorf("point file %s holds %d values, not a multiple of 3", path, len(values))
	}
	pts = make([]r3.Vec, len(values)/3)
	for i := range pts {
		pts[i] = r3.Vec{X: values[3*i], Y: values[3*i+1], Z: values[3*i+2]}
	}
	return
}

// WritePoints writes one point per line with six decimals.
func WritePoints(w io.Writer, pts []r3.Vec) error {
	bw := bufio.NewWriter(w)
	for _, p := range pts {
		if _, err := fmt.Fprintf(bw, "%.6f %.6f %.6f\n", p.X, p.Y, p.Z); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func WritePointFile(path string, pts []r3.Vec) (err error) {
	var file *os.File
	if file, err = os.Create(path); err != nil {
		return
	}
	if err = WritePoints(file, pts); err != nil {
		file.Close()
		return
	}
	return file.Close()
}

func WriteLandmarkFile(path string, ls LandmarkSet) error {
	return WritePointFile(path, ls[:])
}
