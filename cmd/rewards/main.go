// Package main is the single-binary entrypoint for the rewards engine.
package main

import "github.com/robotrecruit/rewards/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
