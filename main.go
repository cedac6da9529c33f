package main

import (
	"os"

	"github.com/spigell/interest-filter/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
