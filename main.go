package main

import (
	"github.com/cyasts/FindDiffTool/cmd"
)

func main() {
	cmd.Execute()
}
