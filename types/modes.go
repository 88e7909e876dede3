package types

import (
	"fmt"
	"strings"
)

// ProjectionMode selects how a candidate point is snapped to the head surface.
type ProjectionMode uint8

const (
	Projection_Ray           ProjectionMode = iota // first ray/triangle intersection
	Projection_NearestLine                         // vertex closest to the projection line
	Projection_ClosestSurface                      // closest point on any triangle
	Projection_NearestVertex                       // closest vertex to the query point
)

var ProjectionNameMap = map[string]ProjectionMode{
	"ray":     Projection_Ray,
	"line":    Projection_NearestLine,
	"closest": Projection_ClosestSurface,
	"surface": Projection_ClosestSurface,
	"vertex":  Projection_NearestVertex,
}

func (pm ProjectionMode) String() string {
	names := [...]string{"ray", "line", "closest", "vertex"}
	if int(pm) >= len(names) {
		return fmt.Sprintf("ProjectionMode(%d)", uint8(pm))
	}
	return names[pm]
}

func NewProjectionMode(label string) (pm ProjectionMode, err error) {
	var ok bool
	if pm, ok = ProjectionNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unknown projection mode %q, use one of ray, line, closest, vertex", label)
	}
	return
}

// AimMode selects the direction a placed electrode's up axis is turned toward.
type AimMode uint8

const (
	Aim_Center AimMode = iota // toward the head center
	Aim_Normal                // along the outward surface normal
)

var AimNameMap = map[string]AimMode{
	"center": Aim_Center,
	"centre": Aim_Center,
	"normal": Aim_Normal,
}

func (am AimMode) String() string {
	names := [...]string{"center", "normal"}
	if int(am) >= len(names) {
		return fmt.Sprintf("AimMode(%d)", uint8(am))
	}
	return names[am]
}

func NewAimMode(label string) (am AimMode, err error) {
	var ok bool
	if am, ok = AimNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unknown aim mode %q, use center or normal", label)
	}
	return
}

// LayoutMode selects how candidate electrode positions are generated.
type LayoutMode uint8

const (
	Layout_Rings LayoutMode = iota // concentric rings around the vertex
	Layout_1020                    // named angular positions
)

var LayoutNameMap = map[string]LayoutMode{
	"rings":   Layout_Rings,
	"ring":    Layout_Rings,
	"1020":    Layout_1020,
	"10-20":   Layout_1020,
	"angular": Layout_1020,
}

func (lm LayoutMode) String() string {
	names := [...]string{"rings", "1020"}
	if int(lm) >= len(names) {
		return fmt.Sprintf("LayoutMode(%d)", uint8(lm))
	}
	return names[lm]
}

func NewLayoutMode(label string) (lm LayoutMode, err error) {
	var ok bool
	if lm, ok = LayoutNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unknown layout mode %q, use rings or 1020", label)
	}
	return
}
