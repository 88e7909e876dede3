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

	"github.com/PeterAlpajaro/EEG-Model-Generator/InputParameters"
	"github.com/PeterAlpajaro/EEG-Model-Generator/pipeline"
)

type PlaceModel struct {
	DeckFile                       string
	OutputFile                     string
	Layout, Projection, Aim        string
	Workers                        int
	WorkersSet, Verbose, DumpInput bool
}

// PlaceCmd represents the place command
var PlaceCmd = &cobra.Command{
	Use:   "place",
	Short: "Place electrodes on a head mesh as described by a YAML run deck",
	Long: `
Reads the landmark file, head mesh and electrode template named in the run deck, places
one electrode per projected site and writes the combined STL.

eegplace place -I run.yaml [-o out.stl] [--layout 1020] [--projection closest]`,
	Run: func(cmd *cobra.Command, args []string) {
		pm := &PlaceModel{}
		pm.DeckFile, _ = cmd.Flags().GetString("inputParametersFile")
		pm.OutputFile, _ = cmd.Flags().GetString("output")
		pm.Layout, _ = cmd.Flags().GetString("layout")
		pm.Projection, _ = cmd.Flags().GetString("projection")
		pm.Aim, _ = cmd.Flags().GetString("aim")
		pm.Workers = viper.GetInt("workers")
		pm.WorkersSet = viper.IsSet("workers")
		pm.Verbose = viper.GetBool("verbose")
		rp, err := processPlaceInput(pm)
		if err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
		if pm.Verbose {
			rp.Print()
		}
		if _, err = pipeline.Run(rp, pm.Verbose); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(PlaceCmd)
	PlaceCmd.Flags().StringP("inputParametersFile", "I", "", "YAML run deck, see the example printed when it is missing")
	PlaceCmd.Flags().StringP("output", "o", "", "output STL, overrides OutputFile in the deck")
	PlaceCmd.Flags().String("layout", "", "rings or 1020, overrides LayoutMode")
	PlaceCmd.Flags().String("projection", "", "ray, line, closest or vertex, overrides ProjectionMode")
	PlaceCmd.Flags().String("aim", "", "center or normal, overrides AimMode")
}

// processPlaceInput reads the deck and applies command line overrides on top of it.
func processPlaceInput(pm *PlaceModel) (rp *InputParameters.RunParameters, err error) {
	if len(pm.DeckFile) == 0 {
		fmt.Printf("Example File:%s\n", InputParameters.ExampleFile)
		return nil, fmt.Errorf("must supply a run deck (-I, --inputParametersFile) in YAML format")
	}
	if rp, err = InputParameters.ReadFile(pm.DeckFile); err != nil {
		return
	}
	override := func(dst *string, src string) {
		if len(src) != 0 {
			*dst = src
		}
	}
	override(&rp.OutputFile, pm.OutputFile)
	override(&rp.LayoutMode, pm.Layout)
	override(&rp.ProjectionMode, pm.Projection)
	override(&rp.AimMode, pm.Aim)
	if pm.WorkersSet {
		rp.Workers = pm.Workers
	}
	if err = rp.Validate(); err != nil {
		return nil, err
	}
	return
}
