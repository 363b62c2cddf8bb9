package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/argon-chat/fidocore/cbor"
)

// Version is the fidocore-agent build version, set at build time via
// ldflags; defaults to "dev" for local builds.
var Version = "dev"

// GitCommit is the git commit hash, set at build time via ldflags.
var GitCommit = "unknown"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print fidocore-agent build information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("fidocore-agent %s\n", Version)
			fmt.Printf("  commit: %s\n", GitCommit)
			fmt.Printf("  codec:  %s\n", cbor.VersionInfo())
		},
	}
}
