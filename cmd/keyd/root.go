// Package main is the keyd daemon's entry point: a single cobra root
// command that wires the dispatcher core to its concrete collaborators
// and runs the event loop until signaled. Grounded on bnema-waymon/cmd's
// root command shape; keyd has no sub-commands to register because
// spec.md's Non-goals exclude a CLI surface beyond "run the daemon" —
// one command is provided only because cobra's root command is the
// idiomatic zero-subcommand shape in the pack.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:   "keyd",
	Short: "keyd is a key remapping daemon",
	Long: `keyd intercepts input from physical keyboards and mice, remaps
keys through per-device layer configurations, and re-emits the result
through a synthetic input device.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Version = Version
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "keyd: "+format+"\n", args...)
	os.Exit(1)
}
