package cmd

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	verbose bool

	// RootCmd is the root command for buildwright.
	RootCmd = &cobra.Command{
		Use:   "buildwright",
		Short: "Resolves build targets and builds them in dependency order.",
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
		Run: root,
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output.")
}

func root(cmd *cobra.Command, _ []string) {
	_ = cmd.Help()
}
