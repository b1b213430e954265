// Package main provides the entrypoint for media-mapper.
package main

import (
	"os"

	"github.com/isometry/media-mapper/cmd"
)

func main() {
	if err := cmd.New().Execute(); err != nil {
		os.Exit(1)
	}
}
