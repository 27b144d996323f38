package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/denis-ismailaj/buildwright/internal"
	coordination "github.com/denis-ismailaj/coordinator"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	force      bool
	noPackages bool
	download   bool
	dryRun     bool
	container  bool
	arch       string
	buildCmd   = &cobra.Command{
		Use:               "build [targets...]",
		Short:             "Build the given targets and everything they depend on.",
		Args:              validTargets,
		ValidArgsFunction: completeTargets,
		Run:               build,
	}
)

func init() {
	buildCmd.Flags().BoolVar(&force, "force", false, "Interrupt preceding buildwright runs.")
	buildCmd.Flags().BoolVar(&noPackages, "no-packages", false, "Don't install system packages.")
	buildCmd.Flags().BoolVarP(&download, "download", "d", false, "Install packages, mirrors and runtime packages before building.")
	buildCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the targets that would be built and exit.")
	buildCmd.Flags().BoolVar(&container, "container", false, "Install for a non-interactive host such as a container.")
	buildCmd.Flags().StringVarP(&arch, "arch", "a", "", "Target architecture (defaults to $BUILDWRIGHT_ARCH or the host's).")
	RootCmd.AddCommand(buildCmd)
}

func validTargets(_ *cobra.Command, args []string) error {
	reg, err := internal.DefaultRegistry()
	if err != nil {
		return err
	}
	for _, name := range args {
		if _, err := reg.Lookup(name); err != nil {
			return fmt.Errorf("%w (see 'buildwright list')", err)
		}
	}
	return nil
}

func completeTargets(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	reg, err := internal.DefaultRegistry()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return reg.Names(), cobra.ShellCompDirectiveNoFileComp
}

func build(_ *cobra.Command, args []string) {
	reg, err := internal.DefaultRegistry()
	if err != nil {
		log.Fatal(err)
	}
	env, err := internal.LoadEnvironment()
	if err != nil {
		log.Fatal(err)
	}
	if arch != "" {
		env.Arch = arch
	}
	if !contains(internal.KnownArchitectures, env.Arch) {
		log.Fatalf("unknown architecture %q, expected one of %v", env.Arch, internal.KnownArchitectures)
	}

	// Create main context with cancellation
	ctx, cancelFn := context.WithCancel(context.Background())
	defer cancelFn()
	// Handle signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
		s := <-sigCh
		log.Errorf("terminating due to signal %v", s)
		cancelFn()
	}()

	opts := internal.RunOptions{
		Targets:        args,
		DryRun:         dryRun,
		Download:       download,
		NoPackages:     noPackages,
		NonInteractive: container || env.Container,
	}

	docker, err := internal.NewDockerClient()
	if err != nil {
		log.Warnf("Docker is unavailable, image targets will fail: %v", err)
	}

	var dockerAPI internal.DockerAPI
	if docker != nil {
		dockerAPI = docker
	}
	bw := internal.NewBuildwright(reg, env, internal.ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr}, dockerAPI)

	run := bw.Run
	if !dryRun {
		run = func(ctx context.Context, opts internal.RunOptions) error {
			return runInTurn(ctx, cancelFn, env.LockDir, force, func(ctx context.Context) error {
				return bw.Run(ctx, opts)
			})
		}
	}
	err = run(ctx, opts)
	if docker != nil {
		docker.Close()
	}
	if err != nil {
		log.WithFields(log.Fields{"state": bw.State(), "target": bw.FailedTarget()}).Fatal(err)
	}
	if !dryRun {
		log.Infof("Built %s for %s.", targetsOrDefault(args), env.Arch)
	}
}

// runInTurn runs fn once every preceding buildwright run on the host has finished.
// The wait file is removed before returning, whatever fn returns, so a failed
// build never blocks the runs queued behind it.
func runInTurn(ctx context.Context, cancelFn context.CancelFunc, lockDir string, force bool, fn func(context.Context) error) error {
	release, err := waitForTurn(ctx, cancelFn, lockDir, force)
	if err != nil {
		return err
	}
	defer release()

	// Check if context has been cancelled.
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return fn(ctx)
}

// waitForTurn queues this run behind other buildwright runs on the host,
// since they share the mirror checkouts and output directories.
func waitForTurn(ctx context.Context, cancelFn context.CancelFunc, lockDir string, force bool) (func(), error) {
	queueDir := path.Join(lockDir, "queue")
	if err := os.MkdirAll(queueDir, 0o755); err != nil {
		return nil, err
	}

	// Create a coordinator instance
	coordinator := coordination.Coordinator{
		Dir: queueDir,
	}

	// Create a wait file for this run
	file, err := coordinator.CreateWaitFile()
	if err != nil {
		return nil, err
	}

	// Check if another run has dethroned us.
	ownFileChan := make(chan error)
	ownWatcher := coordinator.WaitForFile(coordinator.FilePath, ownFileChan)
	go func() {
		<-ownFileChan
		log.Error("The wait file of this run was forcibly removed. Quitting.")
		cancelFn()
	}()

	release := func() {
		ownWatcher.Close()
		os.Remove(file.Name())
	}

	// Wait for preceding runs to quit or force them to quit.
	if force {
		log.Info("--force enabled, preceding runs will be removed.")
		if err := coordinator.CutInLine(); err != nil {
			release()
			return nil, err
		}
	} else {
		log.Debug("Waiting for preceding runs to finish.")
		coordinator.WaitInLine(ctx)
	}
	return release, nil
}

func targetsOrDefault(args []string) []string {
	if len(args) == 0 {
		return []string{internal.DefaultTarget}
	}
	return args
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
