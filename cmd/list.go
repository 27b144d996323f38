package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/denis-ismailaj/buildwright/internal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Args:  cobra.NoArgs,
	Short: "Lists the targets that can be built.",
	Run:   list,
}

func list(*cobra.Command, []string) {
	reg, err := internal.DefaultRegistry()
	if err != nil {
		log.Fatal(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TARGET\tDEPENDS ON")
	for _, name := range reg.Names() {
		component, _ := reg.Lookup(name)
		if canonical := reg.NameOf(component); canonical != name {
			fmt.Fprintf(w, "%s\t(alias of %s)\n", name, canonical)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(component.Dependencies(), ", "))
	}
	w.Flush()
}
