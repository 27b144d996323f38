package cmd

import (
	"context"

	"github.com/denis-ismailaj/buildwright/internal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(cleanCmd)
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Args:  cobra.NoArgs,
	Short: "Removes all Docker images built by image targets.",
	Run:   clean,
}

func clean(*cobra.Command, []string) {
	// Create Docker client
	cli, err := internal.NewDockerClient()
	if err != nil {
		log.Fatal(err)
	}
	defer cli.Close()

	removed, err := internal.RemoveImages(context.Background(), cli)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("Removed %d images.", removed)
}
