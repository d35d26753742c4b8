package main

import (
	"os"

	"github.com/rustyeddy/execbridge/cmd/execbridge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
