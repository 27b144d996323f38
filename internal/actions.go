package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// BuildContext is shared by every action of a run.
type BuildContext struct {
	Arch      string
	HostArch  string
	Jobs      int
	SrcDir    string
	OutDir    string
	MirrorDir string
	Stdout    io.Writer
	Stderr    io.Writer
	Docker    DockerAPI
}

// Vars returns the variables actions may reference as $NAME or ${NAME}.
func (bc *BuildContext) Vars() map[string]string {
	return map[string]string{
		"ARCH":       bc.Arch,
		"HOST_ARCH":  bc.HostArch,
		"JOBS":       strconv.Itoa(bc.Jobs),
		"SRC_DIR":    bc.SrcDir,
		"OUT_DIR":    bc.OutDir,
		"MIRROR_DIR": bc.MirrorDir,
	}
}

func (bc *BuildContext) expand(s string) string {
	vars := bc.Vars()
	return os.Expand(s, func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return os.Getenv(key)
	})
}

func (bc *BuildContext) stdout() io.Writer {
	if bc.Stdout == nil {
		return os.Stdout
	}
	return bc.Stdout
}

func (bc *BuildContext) stderr() io.Writer {
	if bc.Stderr == nil {
		return os.Stderr
	}
	return bc.Stderr
}

// ShellAction runs an external command.
type ShellAction struct {
	Command []string
	Dir     string
}

func (a ShellAction) Run(ctx context.Context, bc *BuildContext) error {
	if len(a.Command) == 0 {
		return errors.New("empty command")
	}
	args := make([]string, len(a.Command))
	for i, arg := range a.Command {
		args[i] = bc.expand(arg)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if a.Dir != "" {
		dir := bc.expand(a.Dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		cmd.Dir = dir
	}
	cmd.Env = os.Environ()
	for k, v := range bc.Vars() {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Stdout = bc.stdout()
	cmd.Stderr = bc.stderr()
	return cmd.Run()
}

func (a ShellAction) Describe() string {
	return strings.Join(a.Command, " ")
}

// ImageAction builds a Docker image tagged <Tag>:<arch>.
type ImageAction struct {
	Dockerfile string // relative to Context
	Context    string
	Tag        string
}

func (a ImageAction) Run(ctx context.Context, bc *BuildContext) error {
	if bc.Docker == nil {
		return errors.New("no docker client configured")
	}
	buildContext := bc.expand(a.Context)
	if !filepath.IsAbs(buildContext) {
		buildContext = filepath.Join(bc.SrcDir, buildContext)
	}
	tag := fmt.Sprintf("%s:%s", a.Tag, bc.Arch)
	return buildImage(ctx, bc.Docker, buildContext, bc.expand(a.Dockerfile), tag, bc.Arch, bc.stdout())
}

func (a ImageAction) Describe() string {
	return fmt.Sprintf("docker build -f %s -t %s %s", a.Dockerfile, a.Tag, a.Context)
}
