package main

import (
	"os"

	"github.com/crptomonkeys/greenwiz/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
