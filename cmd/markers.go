/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/PeterAlpajaro/EEG-Model-Generator/alignment"
	"github.com/PeterAlpajaro/EEG-Model-Generator/mesh"
	"github.com/PeterAlpajaro/EEG-Model-Generator/pipeline"
)

type MarkersModel struct {
	LandmarkFile, OutputFile, PointsFile string
	Ratio, Radius                        float64
}

// MarkersCmd represents the markers command
var MarkersCmd = &cobra.Command{
	Use:   "markers",
	Short: "Write sphere markers at the landmarks, their center and the intermediate points",
	Long: `
Writes a small sphere at each landmark, at their centroid and at the points a ratio of
the way from each landmark toward the centroid, for checking landmark files in a mesh
viewer.

eegplace markers -L aligned_points.xyz -o markers.stl --ratio 0.75`,
	Run: func(cmd *cobra.Command, args []string) {
		mm := &MarkersModel{}
		mm.LandmarkFile, _ = cmd.Flags().GetString("landmarks")
		mm.OutputFile, _ = cmd.Flags().GetString("output")
		mm.PointsFile, _ = cmd.Flags().GetString("points")
		mm.Ratio, _ = cmd.Flags().GetFloat64("ratio")
		mm.Radius, _ = cmd.Flags().GetFloat64("radius")
		pts, err := RunMarkers(mm)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		if viper.GetBool("verbose") {
			for _, p := range pts {
				fmt.Printf("[%12.6f %12.6f %12.6f]\n", p.X, p.Y, p.Z)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(MarkersCmd)
	MarkersCmd.Flags().StringP("landmarks", "L", "", "landmark point file with 4 points")
	MarkersCmd.Flags().StringP("output", "o", "markers.stl", "STL file for the marker spheres")
	MarkersCmd.Flags().String("points", "", "optional point file for the marker coordinates")
	MarkersCmd.Flags().Float64("ratio", 0.75, "fraction of the way from each landmark to the center")
	MarkersCmd.Flags().Float64("radius", 0.01, "marker sphere radius")
}

func RunMarkers(mm *MarkersModel) (pts []r3.Vec, err error) {
	var ls alignment.LandmarkSet
	if len(mm.LandmarkFile) == 0 {
		return nil, fmt.Errorf("must supply a landmark file (-L, --landmarks)")
	}
	if mm.Ratio < 0 || mm.Ratio > 1 {
		return nil, fmt.Errorf("ratio must lie in [0,1], have %g", mm.Ratio)
	}
	if mm.Radius <= 0 {
		return nil, fmt.Errorf("radius must be positive, have %g", mm.Radius)
	}
	if ls, err = alignment.ReadLandmarkFile(mm.LandmarkFile); err != nil {
		return
	}
	pts = pipeline.Markers(ls, mm.Ratio)
	if err = mesh.WriteMeshFile(mm.OutputFile, pipeline.MarkerMesh(pts, mm.Radius)); err != nil {
		return
	}
	if len(mm.PointsFile) != 0 {
		err = alignment.WritePointFile(mm.PointsFile, pts)
	}
	return
}
