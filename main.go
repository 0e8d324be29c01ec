package main

import (
	"os"

	"github.com/plateful/platefinder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
