package internal

var (
	// BaselineSystemPackages are installed regardless of the selected targets.
	BaselineSystemPackages = []string{
		"bc", "bison", "build-essential", "ccache", "flex", "git", "gdb", "less",
		"libelf-dev", "libssl-dev", "python3", "python3-pip", "rsync", "vim", "wget",
	}
	// BaselineRuntimePackages are installed for the current runtime generation regardless of selection.
	BaselineRuntimePackages = []string{"pyelftools", "requests"}
	// InteractivePackages are dropped when installing on a non-interactive host.
	InteractivePackages = []string{"gdb", "less", "vim"}
)

// AggregateOptions tunes requirement aggregation to the host.
type AggregateOptions struct {
	NonInteractive  bool
	HostArch        string
	CrossToolchains map[string]StringSet
}

// Aggregate unions the requirements of every component and adds the baselines.
func Aggregate(components []*Component, opts AggregateOptions) Requirements {
	total := NewRequirements()
	total.SystemPackages.Add(BaselineSystemPackages...)
	total.RuntimePackages.Add(BaselineRuntimePackages...)

	for _, component := range components {
		total.Union(component.requirements)
	}

	// A cross compiler is needed for every architecture but the host's own.
	for arch, pkgs := range opts.CrossToolchains {
		if arch == opts.HostArch {
			continue
		}
		total.SystemPackages.Union(pkgs)
	}

	if opts.NonInteractive {
		total.SystemPackages.Remove(InteractivePackages...)
	}
	return total
}
