package main

import (
	"os"

	"github.com/sanbuphy/autocut-dev/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
