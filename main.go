package main

import (
	"github.com/hammerlab/mhcseq/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
