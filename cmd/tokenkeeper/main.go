package main

import (
	"tokenkeeper/internal/cli"
)

// Build information. These will be set during build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date, builtBy)
	cli.Execute()
}
