package cmd

import (
	"fmt"
	"strings"

	"github.com/denis-ismailaj/buildwright/internal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:               "inspect <target>",
	Short:             "Displays the definition and build plan of a target.",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTargets,
	Run:               inspect,
}

func inspect(_ *cobra.Command, args []string) {
	reg, err := internal.DefaultRegistry()
	if err != nil {
		log.Fatal(err)
	}

	// Name of the target to inspect
	name := args[0]

	component, err := reg.Lookup(name)
	if err != nil {
		log.Fatal(err)
	}
	plan, err := internal.Expand(reg, []string{name})
	if err != nil {
		log.Fatal(err)
	}

	// Using fmt here so the output can be piped while logs go to stderr.
	fmt.Printf("Target:        %s\n", reg.NameOf(component))
	switch step := component.Step().(type) {
	case internal.Buildable:
		fmt.Printf("Action:        %s\n", step.Action.Describe())
	default:
		fmt.Printf("Action:        (group only)\n")
	}
	if archs := component.Architectures(); archs != nil {
		fmt.Printf("Architectures: %s\n", strings.Join(archs, ", "))
	} else {
		fmt.Printf("Architectures: any\n")
	}
	fmt.Printf("Depends on:    %s\n", strings.Join(component.Dependencies(), ", "))

	req := component.Requirements()
	for _, category := range []struct {
		label string
		set   internal.StringSet
	}{
		{"System packages", req.SystemPackages},
		{"Build deps", req.BuildDeps},
		{"Mirrors", req.Mirrors},
		{"Shallow mirrors", req.ShallowMirrors},
		{"Legacy runtime", req.LegacyRuntimePackages},
		{"Runtime", req.RuntimePackages},
	} {
		if len(category.set) > 0 {
			fmt.Printf("%-15s %s\n", category.label+":", strings.Join(category.set.Sorted(), ", "))
		}
	}
	fmt.Printf("Build order:   %s\n", strings.Join(internal.NewDispatcher(reg).Plan(plan), " -> "))
}
