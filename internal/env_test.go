package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BUILDWRIGHT_ARCH", "riscv64")
	t.Setenv("BUILDWRIGHT_JOBS", "3")
	t.Setenv("BUILDWRIGHT_OUT_DIR", filepath.Join(dir, "out"))
	t.Setenv("BUILDWRIGHT_MIRROR_DIR", filepath.Join(dir, "mirrors"))
	t.Setenv("BUILDWRIGHT_CONTAINER", "true")

	env, err := LoadEnvironment()
	require.NoError(t, err)
	assert.Equal(t, "riscv64", env.Arch)
	assert.Equal(t, HostArch(), env.HostArch)
	assert.Equal(t, 3, env.Jobs)
	assert.Equal(t, filepath.Join(dir, "out"), env.OutDir)
	assert.Equal(t, filepath.Join(dir, "mirrors"), env.MirrorDir)
	assert.True(t, env.Container)
}

func TestLoadEnvironment_Defaults(t *testing.T) {
	t.Setenv("BUILDWRIGHT_ARCH", "")
	t.Setenv("BUILDWRIGHT_JOBS", "")
	t.Setenv("BUILDWRIGHT_SRC_DIR", "")
	t.Setenv("BUILDWRIGHT_CONTAINER", "false")

	env, err := LoadEnvironment()
	require.NoError(t, err)
	assert.Equal(t, HostArch(), env.Arch)
	assert.Positive(t, env.Jobs)
	assert.Equal(t, "src", filepath.Base(env.SrcDir))
	assert.False(t, env.Container)
}

func TestLoadEnvironment_BadJobs(t *testing.T) {
	t.Setenv("BUILDWRIGHT_JOBS", "lots")

	_, err := LoadEnvironment()
	assert.ErrorContains(t, err, "BUILDWRIGHT_JOBS")
}

func TestLoadEnvironment_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BUILDWRIGHT_TEST_DOTENV=arm\n"), 0o644))
	chdir(t, dir)
	t.Setenv("BUILDWRIGHT_TEST_DOTENV", "")
	os.Unsetenv("BUILDWRIGHT_TEST_DOTENV")

	_, err := LoadEnvironment()
	require.NoError(t, err)
	assert.Equal(t, "arm", os.Getenv("BUILDWRIGHT_TEST_DOTENV"))
}

func TestLoadEnvironment_MalformedDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BUILDWRIGHT_ARCH=\"arm64\nBUILDWRIGHT_JOBS=2\n"), 0o644))
	chdir(t, dir)

	_, err := LoadEnvironment()
	assert.ErrorContains(t, err, ".env")
}

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
