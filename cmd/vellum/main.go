package main

import (
	"os"

	"github.com/vellum-search/vellum/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
