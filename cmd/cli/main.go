package main

import (
	"os"

	"github.com/pixido-dev/pixido/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
