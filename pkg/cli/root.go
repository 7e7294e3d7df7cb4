// Package cli implements the parrot command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "parrot",
	Short: "parrot is a per-client HTTP interception and mocking proxy",
	Long: `parrot intercepts HTTP requests on behalf of web pages, matches them
against per-client mock rules, and either synthesizes the configured response
or forwards the request to the real upstream. Every exchange is streamed to
connected dashboard pages over WebSocket.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	initServeCmd()
	initVersionCmd()
}
