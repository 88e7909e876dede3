package InputParameters

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"

	"github.com/PeterAlpajaro/EEG-Model-Generator/types"
)

type RingParameters struct {
	OuterRadiusFraction   float64 `json:"OuterRadiusFraction"`
	ElectrodeCountPerRing int     `json:"ElectrodeCountPerRing"`
}

// BandParameters bound the sine of the outermost ring angles that are kept.
type BandParameters struct {
	Low      float64 `json:"Low"`
	High     float64 `json:"High"`
	Disabled bool    `json:"Disabled"`
}

// PositionParameters is a named 10-20 style site, angles in degrees.
type PositionParameters struct {
	Name          string  `json:"Name"`
	CoronalAngle  float64 `json:"CoronalAngle"`
	SagittalAngle float64 `json:"SagittalAngle"`
}

// Parameters obtained from the YAML run deck. Zero values are replaced by SetDefaults,
// except for pointer fields where only an absent key is.
type RunParameters struct {
	Title                       string               `json:"Title"`
	LandmarkFile                string               `json:"LandmarkFile"`
	HeadMesh                    string               `json:"HeadMesh"`
	ElectrodeMesh               string               `json:"ElectrodeMesh"` // empty selects the built in disk electrode
	OutputFile                  string               `json:"OutputFile"`
	LayoutMode                  string               `json:"LayoutMode"`     // rings | 1020
	ProjectionMode              string               `json:"ProjectionMode"` // ray | line | closest | vertex
	AimMode                     string               `json:"AimMode"`        // center | normal
	SphereRadius                float64              `json:"SphereRadius"`
	IntermediateRatio           float64              `json:"IntermediateRatio"`
	OutwardOffset               *float64             `json:"OutwardOffset"`               // zero is a valid offset
	LowestPointOutlierThreshold *float64             `json:"LowestPointOutlierThreshold"` // negative disables the filter
	Rings                       []RingParameters     `json:"Rings"`
	ExclusionBand               *BandParameters      `json:"ExclusionBand"`
	Positions                   []PositionParameters `json:"Positions"` // empty selects the standard 10-20 table
	ReferenceAnchor             *[3]float64          `json:"ReferenceAnchor"`
	ReferenceOpposite           *[3]float64          `json:"ReferenceOpposite"`
	AutoReference               bool                 `json:"AutoReference"`
	IncludeHead                 *bool                `json:"IncludeHead"`
	CentralTarget               *bool                `json:"CentralTarget"`
	Workers                     int                  `json:"Workers"` // 0 means one per CPU
}

const ExampleFile = `
########################################
Title: "Ring layout"
LandmarkFile: aligned_points.xyz
HeadMesh: head_model.stl
ElectrodeMesh: electrode.stl
OutputFile: head_with_electrodes.stl
LayoutMode: rings            # or 1020
ProjectionMode: ray          # ray, line, closest, vertex
AimMode: center              # or normal
SphereRadius: 0.01
OutwardOffset: 0.02
Rings:
  - {OuterRadiusFraction: 0.3, ElectrodeCountPerRing: 4}
  - {OuterRadiusFraction: 0.55, ElectrodeCountPerRing: 8}
  - {OuterRadiusFraction: 0.8, ElectrodeCountPerRing: 7}
ExclusionBand: {Low: -0.5, High: 0.9}
########################################
`

func (rp *RunParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, rp)
}

// ReadFile parses, defaults and validates a run deck.
func ReadFile(path string) (rp *RunParameters, err error) {
	var data []byte
	if data, err = os.ReadFile(path); err != nil {
		return
	}
	rp = &RunParameters{}
	if err = rp.Parse(data); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	rp.SetDefaults()
	if err = rp.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return
}

func (rp *RunParameters) SetDefaults() {
	setString := func(s *string, def string) {
		if len(*s) == 0 {
			*s = def
		}
	}
	setFloat := func(f *float64, def float64) {
		if *f == 0 {
			*f = def
		}
	}
	setBool := func(b **bool, def bool) {
		if *b == nil {
			*b = &def
		}
	}
	setFloatPtr := func(f **float64, def float64) {
		if *f == nil {
			*f = &def
		}
	}
	setString(&rp.Title, "EEG electrode placement")
	setString(&rp.OutputFile, "head_with_electrodes.stl")
	setString(&rp.LayoutMode, "rings")
	setString(&rp.ProjectionMode, "ray")
	setString(&rp.AimMode, "center")
	setFloat(&rp.SphereRadius, 0.01)
	setFloat(&rp.IntermediateRatio, 0.75)
	setFloatPtr(&rp.OutwardOffset, 0.02)
	setFloatPtr(&rp.LowestPointOutlierThreshold, 0.01)
	if len(rp.Rings) == 0 {
		rp.Rings = []RingParameters{{0.3, 4}, {0.55, 8}, {0.8, 7}}
	}
	if rp.ExclusionBand == nil {
		rp.ExclusionBand = &BandParameters{Low: -0.5, High: 0.9}
	}
	setBool(&rp.IncludeHead, true)
	setBool(&rp.CentralTarget, true)
}

// Validate reports the first inconsistent setting. It expects SetDefaults to have run.
func (rp *RunParameters) Validate() (err error) {
	if len(rp.LandmarkFile) == 0 {
		return fmt.Errorf("must supply a LandmarkFile holding the four reference landmarks")
	}
	if len(rp.HeadMesh) == 0 {
		return fmt.Errorf("must supply a HeadMesh in STL format")
	}
	if _, err = types.NewLayoutMode(rp.LayoutMode); err != nil {
		return
	}
	if _, err = types.NewProjectionMode(rp.ProjectionMode); err != nil {
		return
	}
	if _, err = types.NewAimMode(rp.AimMode); err != nil {
		return
	}
	switch {
	case rp.SphereRadius <= 0:
		return fmt.Errorf("SphereRadius must be positive, have %g", rp.SphereRadius)
	case rp.IntermediateRatio < 0 || rp.IntermediateRatio > 1:
		return fmt.Errorf("IntermediateRatio must lie in [0,1], have %g", rp.IntermediateRatio)
	case rp.OutwardOffset == nil || rp.LowestPointOutlierThreshold == nil:
		return fmt.Errorf("OutwardOffset and LowestPointOutlierThreshold must be set, run SetDefaults first")
	case *rp.OutwardOffset < 0:
		return fmt.Errorf("OutwardOffset must not be negative, have %g", *rp.OutwardOffset)
	case rp.ExclusionBand != nil && !rp.ExclusionBand.Disabled && rp.ExclusionBand.Low >= rp.ExclusionBand.High:
		return fmt.Errorf("ExclusionBand Low (%g) must be below High (%g)", rp.ExclusionBand.Low, rp.ExclusionBand.High)
	case (rp.ReferenceAnchor == nil) != (rp.ReferenceOpposite == nil):
		return fmt.Errorf("ReferenceAnchor and ReferenceOpposite must be given together")
	case rp.AutoReference && rp.ReferenceAnchor != nil:
		return fmt.Errorf("AutoReference cannot be combined with explicit reference anchors")
	case rp.Workers < 0:
		return fmt.Errorf("Workers must not be negative, have %d", rp.Workers)
	}
	for i, r := range rp.Rings {
		if r.OuterRadiusFraction <= 0 || r.ElectrodeCountPerRing < 1 {
			return fmt.Errorf("ring %d needs a positive OuterRadiusFraction and ElectrodeCountPerRing, have %g and %d",
				i+1, r.OuterRadiusFraction, r.ElectrodeCountPerRing)
		}
	}
	seen := make(map[string]bool, len(rp.Positions))
	for _, p := range rp.Positions {
		if len(p.Name) == 0 || seen[p.Name] {
			return fmt.Errorf("positions need unique, non empty names, found %q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

func (rp *RunParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", rp.Title)
	fmt.Printf("[%s]\t\t= Landmark File\n", rp.LandmarkFile)
	fmt.Printf("[%s]\t\t= Head Mesh\n", rp.HeadMesh)
	if len(rp.ElectrodeMesh) == 0 {
		fmt.Printf("[built in disk]\t\t= Electrode Mesh\n")
	} else {
		fmt.Printf("[%s]\t\t= Electrode Mesh\n", rp.ElectrodeMesh)
	}
	fmt.Printf("[%s]\t\t= Output File\n", rp.OutputFile)
	fmt.Printf("[%s]\t\t\t= Layout Mode\n", rp.LayoutMode)
	fmt.Printf("[%s]\t\t\t= Projection Mode\n", rp.ProjectionMode)
	fmt.Printf("[%s]\t\t\t= Aim Mode\n", rp.AimMode)
	fmt.Printf("%8.5f\t\t= Sphere Radius\n", rp.SphereRadius)
	fmt.Printf("%8.5f\t\t= Intermediate Ratio\n", rp.IntermediateRatio)
	if rp.OutwardOffset != nil {
		fmt.Printf("%8.5f\t\t= Outward Offset\n", *rp.OutwardOffset)
	}
	if rp.LowestPointOutlierThreshold != nil {
		fmt.Printf("%8.5f\t\t= Lowest Point Outlier Threshold\n", *rp.LowestPointOutlierThreshold)
	}
	for i, r := range rp.Rings {
		fmt.Printf("Rings[%d] = %5.3f x R, %d electrodes\n", i, r.OuterRadiusFraction, r.ElectrodeCountPerRing)
	}
	if b := rp.ExclusionBand; b != nil {
		if b.Disabled {
			fmt.Printf("[disabled]\t\t= Exclusion Band\n")
		} else {
			fmt.Printf("(%5.3f, %5.3f)\t\t= Exclusion Band\n", b.Low, b.High)
		}
	}
	if len(rp.Positions) == 0 {
		fmt.Printf("[standard 10-20]\t= Positions\n")
	}
	for _, p := range rp.Positions {
		fmt.Printf("Positions[%s] = (%6.2f, %6.2f) deg\n", p.Name, p.CoronalAngle, p.SagittalAngle)
	}
	if rp.ReferenceAnchor != nil {
		fmt.Printf("%v -> %v\t= Reference Anchors\n", *rp.ReferenceAnchor, *rp.ReferenceOpposite)
	}
	if rp.AutoReference {
		fmt.Printf("[detected from head mesh]\t= Reference Anchors\n")
	}
}
