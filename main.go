package main

import (
	"os"

	"github.com/denis-ismailaj/buildwright/cmd"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
