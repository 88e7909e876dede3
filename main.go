package main

import "github.com/PeterAlpajaro/EEG-Model-Generator/cmd"

func main() {
	cmd.Execute()
}
