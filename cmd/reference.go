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

	"github.com/PeterAlpajaro/EEG-Model-Generator/alignment"
	"github.com/PeterAlpajaro/EEG-Model-Generator/mesh"
)

// ReferenceCmd represents the reference command
var ReferenceCmd = &cobra.Command{
	Use:   "reference",
	Short: "Detect the nose tip and the back of the head on a head mesh",
	Long: `
Finds the neck as the thinnest height block of the mesh, then the most forward and most
backward vertices above it near the midline. The mesh must face +X with +Y up.

eegplace reference --head head.stl`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			head mesh.TriangleMesh
			ref  alignment.Reference
			err  error
		)
		path, _ := cmd.Flags().GetString("head")
		opts := alignment.DefaultReferenceOptions()
		opts.NeckHeightOffset, _ = cmd.Flags().GetFloat64("neckOffset")
		opts.DisableNeckFilter, _ = cmd.Flags().GetBool("noNeck")
		if head, err = mesh.ReadMeshFile(path); err == nil {
			if viper.GetBool("verbose") {
				head.PrintStatistics()
			}
			ref, err = alignment.DetectReference(head, opts)
		}
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		fmt.Printf("%8.5f\t\t= Neck Height\n", ref.NeckHeight)
		fmt.Printf("%v\t= Nose\n", ref.Nose)
		fmt.Printf("%v\t= Back Of Head\n", ref.BackOfHead)
	},
}

func init() {
	rootCmd.AddCommand(ReferenceCmd)
	ReferenceCmd.Flags().String("head", "", "head mesh in STL format")
	ReferenceCmd.Flags().Float64("neckOffset", 0, "added to the detected neck height")
	ReferenceCmd.Flags().Bool("noNeck", false, "search every vertex, without the neck filter")
}
