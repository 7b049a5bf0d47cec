// Package main is the entry point for the MEV searcher.
package main

import (
	"github.com/fd1az/mev-searcher/cmd/searcher/commands"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, buildDate)
	commands.Execute()
}
