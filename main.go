package main

import (
	"github.com/zkck/cloud-forensics-utils/cmd"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
