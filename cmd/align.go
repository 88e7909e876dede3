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
	"github.com/PeterAlpajaro/EEG-Model-Generator/geometry3D"
	"github.com/PeterAlpajaro/EEG-Model-Generator/mesh"
)

type AlignModel struct {
	LandmarkFile, OutputFile string
	Anchor, Opposite         string
	HeadMesh                 string // when set, anchors are detected on the mesh
	Facial                   bool   // LandmarkFile holds 68 facial landmarks
}

// AlignCmd represents the align command
var AlignCmd = &cobra.Command{
	Use:   "align",
	Short: "Align four landmarks onto reference anchors",
	Long: `
Maps the nasion onto the anchor and the inion onto the opposite point with a similarity
transform, then twists the ears about the anchor axis. The anchors are given directly or
detected on a head mesh.

eegplace align -L landmarks.xyz --anchor 0,0.1,0.09 --opposite 0,0.1,-0.1 -o aligned.xyz
eegplace align -L landmarks.xyz --head head.stl -o aligned.xyz`,
	Run: func(cmd *cobra.Command, args []string) {
		am := &AlignModel{}
		am.LandmarkFile, _ = cmd.Flags().GetString("landmarks")
		am.OutputFile, _ = cmd.Flags().GetString("output")
		am.Anchor, _ = cmd.Flags().GetString("anchor")
		am.Opposite, _ = cmd.Flags().GetString("opposite")
		am.HeadMesh, _ = cmd.Flags().GetString("head")
		am.Facial, _ = cmd.Flags().GetBool("facial")
		al, err := RunAlign(am, viper.GetBool("verbose"))
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		al.Points.Print()
	},
}

func init() {
	rootCmd.AddCommand(AlignCmd)
	AlignCmd.Flags().StringP("landmarks", "L", "", "landmark point file, 4 points (or 68 with --facial)")
	AlignCmd.Flags().StringP("output", "o", "aligned_points.xyz", "file for the aligned landmarks")
	AlignCmd.Flags().String("anchor", "", "reference point for the nasion, as x,y,z")
	AlignCmd.Flags().String("opposite", "", "reference point for the inion, as x,y,z")
	AlignCmd.Flags().String("head", "", "head mesh to detect the anchors on, instead of --anchor/--opposite")
	AlignCmd.Flags().Bool("facial", false, "derive the four landmarks from a 68 point facial landmark file")
}

func RunAlign(am *AlignModel, verbose bool) (al alignment.Alignment, err error) {
	var (
		ls               alignment.LandmarkSet
		anchor, opposite r3.Vec
	)
	if len(am.LandmarkFile) == 0 {
		return al, fmt.Errorf("must supply a landmark file (-L, --landmarks)")
	}
	if am.Facial {
		var pts []r3.Vec
		if pts, err = alignment.ReadPointFile(am.LandmarkFile); err != nil {
			return
		}
		if ls, err = alignment.FromFacialLandmarks(pts); err != nil {
			return
		}
	} else if ls, err = alignment.ReadLandmarkFile(am.LandmarkFile); err != nil {
		return
	}
	switch {
	case len(am.HeadMesh) != 0:
		var (
			head mesh.TriangleMesh
			ref  alignment.Reference
		)
		if head, err = mesh.ReadMeshFile(am.HeadMesh); err != nil {
			return
		}
		if ref, err = alignment.DetectReference(head, alignment.DefaultReferenceOptions()); err != nil {
			return
		}
		anchor, opposite = ref.Nose, ref.BackOfHead
	case len(am.Anchor) != 0 && len(am.Opposite) != 0:
		if anchor, err = geometry3D.ParseVec(am.Anchor); err != nil {
			return
		}
		if opposite, err = geometry3D.ParseVec(am.Opposite); err != nil {
			return
		}
	default:
		return al, fmt.Errorf("must supply --anchor and --opposite, or --head")
	}
	al = alignment.Align(ls, anchor, opposite)
	if verbose {
		fmt.Printf("Scale %8.5f, Twist %8.5f rad\n%s\n", al.Scale, al.Twist, al.Transform)
		for _, f := range al.Fallbacks {
			fmt.Printf("fallback: %s\n", f)
		}
	}
	if len(am.OutputFile) != 0 {
		err = alignment.WriteLandmarkFile(am.OutputFile, al.Points)
	}
	return
}
