package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Buildwright resolves requested targets and builds them.
type Buildwright struct {
	reg        *Registry
	env        *Environment
	dispatcher *Dispatcher
	installer  *Installer
	docker     DockerAPI
	state      State
	failedAt   string // target whose action failed, set in the FailedAt state
}

// RunOptions selects what a run does.
type RunOptions struct {
	Targets        []string
	DryRun         bool // print the plan and stop
	Download       bool // install prerequisites before building
	NoPackages     bool // skip system packages while downloading
	NonInteractive bool
	Out            io.Writer // plan output, stdout by default
}

// NewBuildwright is a factory method for Buildwright. docker may be nil when no image target is built.
func NewBuildwright(reg *Registry, env *Environment, runner Runner, docker DockerAPI) *Buildwright {
	return &Buildwright{
		reg:        reg,
		env:        env,
		dispatcher: NewDispatcher(reg),
		installer:  &Installer{Runner: runner, Registry: reg, MirrorDir: env.MirrorDir},
		docker:     docker,
		state:      Idle,
	}
}

// State returns where the last run stopped.
func (bw *Buildwright) State() State {
	return bw.state
}

// FailedTarget returns the target the last run failed at, or "" if no action failed.
func (bw *Buildwright) FailedTarget() string {
	return bw.failedAt
}

func (bw *Buildwright) setState(s State) {
	if s == FailedAt {
		log.WithField("target", bw.failedAt).Debugf("%s -> %s", bw.state, s)
		bw.state = s
		return
	}
	log.Debugf("%s -> %s", bw.state, s)
	bw.state = s
}

// Run expands opts.Targets and either prints the plan or installs and builds them.
func (bw *Buildwright) Run(ctx context.Context, opts RunOptions) error {
	targets := opts.Targets
	if len(targets) == 0 {
		targets = []string{DefaultTarget}
	}

	bw.failedAt = ""
	bw.setState(Expanding)
	components, err := Expand(bw.reg, targets)
	if err != nil {
		bw.setState(Idle)
		return err
	}

	if opts.DryRun {
		out := opts.Out
		if out == nil {
			out = os.Stdout
		}
		for _, name := range bw.dispatcher.Plan(components) {
			fmt.Fprintln(out, name)
		}
		bw.setState(PlanPrinted)
		return nil
	}

	if opts.Download {
		if err := bw.install(ctx, components, opts); err != nil {
			bw.setState(Idle)
			return err
		}
	}

	bw.setState(Dispatching)
	bc := &BuildContext{
		Arch:      bw.env.Arch,
		HostArch:  bw.env.HostArch,
		Jobs:      bw.env.Jobs,
		SrcDir:    bw.env.SrcDir,
		OutDir:    bw.env.OutDir,
		MirrorDir: bw.env.MirrorDir,
		Docker:    bw.docker,
	}
	if err := bw.dispatcher.Dispatch(ctx, components, bc); err != nil {
		var buildErr *BuildActionError
		if errors.As(err, &buildErr) {
			bw.failedAt = buildErr.Target
		}
		bw.setState(FailedAt)
		return err
	}
	bw.setState(Succeeded)
	return nil
}

// install aggregates the prerequisites of components and installs them in one batch per category.
func (bw *Buildwright) install(ctx context.Context, components []*Component, opts RunOptions) error {
	req := Aggregate(components, AggregateOptions{
		NonInteractive:  opts.NonInteractive,
		HostArch:        bw.env.HostArch,
		CrossToolchains: bw.reg.CrossToolchains(),
	})

	if opts.NoPackages {
		log.Info("--no-packages enabled, system packages won't be installed.")
	} else {
		err := bw.installer.InstallSystemPackages(ctx, req.SystemPackages, req.BuildDeps, PackageOptions{
			Elevate:        os.Geteuid() != 0,
			NonInteractive: opts.NonInteractive,
		})
		if err != nil {
			return err
		}
	}

	if err := bw.installer.FetchMirrors(ctx, req.Mirrors, false); err != nil {
		return err
	}
	if err := bw.installer.FetchMirrors(ctx, req.ShallowMirrors, true); err != nil {
		return err
	}
	return bw.installer.InstallRuntimePackages(ctx, req.LegacyRuntimePackages, req.RuntimePackages)
}

// State is the stage a run is in.
type State int32

// The states a run moves through.
const (
	Idle State = iota
	Expanding
	PlanPrinted
	Dispatching
	Succeeded
	FailedAt
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Expanding:
		return "expanding"
	case PlanPrinted:
		return "plan printed"
	case Dispatching:
		return "dispatching"
	case Succeeded:
		return "succeeded"
	case FailedAt:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
