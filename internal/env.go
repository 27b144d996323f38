package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment holds the settings read from .env and the process environment.
type Environment struct {
	Arch      string // target architecture
	HostArch  string
	Jobs      int
	SrcDir    string
	OutDir    string
	MirrorDir string
	LockDir   string
	Container bool // running inside a container or another non-interactive host
}

// LoadEnvironment reads .env if present and resolves every setting from the environment.
func LoadEnvironment() (*Environment, error) {
	// A missing .env is fine, a malformed one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("can't load .env: %w", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("can't get cwd: %w", err)
	}

	hostArch := HostArch()
	env := &Environment{
		Arch:      firstNonEmpty(os.Getenv("BUILDWRIGHT_ARCH"), hostArch),
		HostArch:  hostArch,
		Jobs:      runtime.NumCPU(),
		SrcDir:    firstNonEmpty(os.Getenv("BUILDWRIGHT_SRC_DIR"), filepath.Join(cwd, "src")),
		OutDir:    firstNonEmpty(os.Getenv("BUILDWRIGHT_OUT_DIR"), filepath.Join(cwd, "out")),
		MirrorDir: firstNonEmpty(os.Getenv("BUILDWRIGHT_MIRROR_DIR"), filepath.Join(cwd, "mirrors")),
		LockDir:   firstNonEmpty(os.Getenv("BUILDWRIGHT_LOCK_DIR"), filepath.Join(os.TempDir(), "buildwright")),
		Container: detectContainer(),
	}

	if raw := strings.TrimSpace(os.Getenv("BUILDWRIGHT_JOBS")); raw != "" {
		jobs, err := strconv.Atoi(raw)
		if err != nil || jobs < 1 {
			return nil, fmt.Errorf("BUILDWRIGHT_JOBS must be a positive integer, got %q", raw)
		}
		env.Jobs = jobs
	}
	return env, nil
}

// HostArch returns the kernel-style name of the processor architecture we run on.
func HostArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "386":
		return "i386"
	case "arm":
		return "arm"
	case "arm64":
		return "arm64"
	case "riscv64":
		return "riscv64"
	case "ppc64le":
		return "ppc64le"
	default:
		return runtime.GOARCH
	}
}

func detectContainer() bool {
	if raw := strings.TrimSpace(os.Getenv("BUILDWRIGHT_CONTAINER")); raw != "" {
		v, err := strconv.ParseBool(raw)
		return err == nil && v
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return os.Getenv("container") != ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
