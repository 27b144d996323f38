package internal

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// Categories reported by InstallationError.
const (
	CategorySystemPackages = "system packages"
	CategoryBuildDeps      = "build dependencies"
	CategoryMirrors        = "source mirrors"
	CategoryRuntime        = "runtime packages"
)

// Runner executes external commands for the installer.
type Runner interface {
	Run(ctx context.Context, env []string, name string, args ...string) error
}

// ExecRunner runs commands with os/exec, forwarding their output.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (r ExecRunner) Run(ctx context.Context, env []string, name string, args ...string) error {
	log.Debugf("Running %s %v.", name, args)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	return cmd.Run()
}

// PackageOptions controls how system packages are installed.
type PackageOptions struct {
	Elevate        bool // prefix package manager calls with sudo
	NonInteractive bool
}

// Installer installs the prerequisites gathered by Aggregate.
type Installer struct {
	Runner    Runner
	Registry  *Registry
	MirrorDir string
}

// InstallSystemPackages installs pkgs and the build dependencies of buildDeps.
func (in *Installer) InstallSystemPackages(ctx context.Context, pkgs, buildDeps StringSet, opts PackageOptions) error {
	var env []string
	if opts.NonInteractive {
		env = append(env, "DEBIAN_FRONTEND=noninteractive")
	}
	aptGet := func(args ...string) error {
		if opts.Elevate {
			sudoArgs := []string{"-E", "apt-get"}
			return in.Runner.Run(ctx, env, "sudo", append(sudoArgs, args...)...)
		}
		return in.Runner.Run(ctx, env, "apt-get", args...)
	}

	if len(pkgs) > 0 {
		log.Infof("Installing %d system packages.", len(pkgs))
		if err := aptGet("update"); err != nil {
			return &InstallationError{Category: CategorySystemPackages, Err: err}
		}
		args := append([]string{"install", "-y", "--no-install-recommends"}, pkgs.Sorted()...)
		if err := aptGet(args...); err != nil {
			return &InstallationError{Category: CategorySystemPackages, Err: err}
		}
	}

	if len(buildDeps) > 0 {
		log.Infof("Installing build dependencies of %v.", buildDeps.Sorted())
		args := append([]string{"build-dep", "-y"}, buildDeps.Sorted()...)
		if err := aptGet(args...); err != nil {
			return &InstallationError{Category: CategoryBuildDeps, Err: err}
		}
	}
	return nil
}

// FetchMirrors makes sure a checkout of each mirror exists under MirrorDir and is up to date.
// Full mirrors are bare clones at <id>.git, shallow ones are depth 1 working copies at <id>.
func (in *Installer) FetchMirrors(ctx context.Context, mirrors StringSet, shallow bool) error {
	for _, id := range mirrors.Sorted() {
		url, ok := in.Registry.MirrorURL(id)
		if !ok {
			return &InstallationError{Category: CategoryMirrors, Err: &UnknownTargetError{Name: id}}
		}
		if err := in.fetchMirror(ctx, id, url, shallow); err != nil {
			return &InstallationError{Category: CategoryMirrors, Err: err}
		}
	}
	return nil
}

func (in *Installer) fetchMirror(ctx context.Context, id, url string, shallow bool) error {
	if err := os.MkdirAll(in.MirrorDir, 0o755); err != nil {
		return err
	}
	dir := filepath.Join(in.MirrorDir, id+".git")
	if shallow {
		dir = filepath.Join(in.MirrorDir, id)
	}

	if _, err := os.Stat(dir); err == nil {
		log.Infof("Updating mirror %s.", id)
		if shallow {
			return in.Runner.Run(ctx, nil, "git", "-C", dir, "fetch", "--depth", "1")
		}
		return in.Runner.Run(ctx, nil, "git", "-C", dir, "remote", "update", "--prune")
	}

	log.Infof("Cloning mirror %s from %s.", id, url)
	if shallow {
		if err := in.Runner.Run(ctx, nil, "git", "clone", "--depth", "1", url, dir); err != nil {
			return err
		}
		return in.Runner.Run(ctx, nil, "git", "-C", dir, "submodule", "update", "--init", "--depth", "1")
	}
	return in.Runner.Run(ctx, nil, "git", "clone", "--mirror", url, dir)
}

// InstallRuntimePackages installs the packages of each runtime generation for the current user.
func (in *Installer) InstallRuntimePackages(ctx context.Context, legacy, current StringSet) error {
	for _, gen := range []struct {
		pip  string
		pkgs StringSet
	}{
		{"pip2", legacy},
		{"pip3", current},
	} {
		if len(gen.pkgs) == 0 {
			continue
		}
		log.Infof("Installing %d packages with %s.", len(gen.pkgs), gen.pip)
		args := append([]string{"install", "--user", "--upgrade"}, gen.pkgs.Sorted()...)
		if err := in.Runner.Run(ctx, nil, gen.pip, args...); err != nil {
			return &InstallationError{Category: CategoryRuntime, Err: err}
		}
	}
	return nil
}
