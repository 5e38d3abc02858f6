package main

import (
	"os"

	"github.com/turtacn/EcoFootprint-Intelligence/internal/interfaces/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
