package main

import "github.com/verdantio/carbonledger/internal/cli"

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
