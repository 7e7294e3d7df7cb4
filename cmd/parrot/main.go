// parrot - per-client HTTP interception and mocking proxy.
package main

import "github.com/cjzdmj1997/parrot-mocker-web/pkg/cli"

// Build-time variables set via ldflags.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	cli.Execute()
}
