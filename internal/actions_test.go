package internal

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocker struct {
	stream  string
	options []types.ImageBuildOptions
	images  []types.ImageSummary
	removed []string
}

func (d *fakeDocker) ImageBuild(_ context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error) {
	if _, err := io.Copy(io.Discard, buildContext); err != nil {
		return types.ImageBuildResponse{}, err
	}
	d.options = append(d.options, options)
	return types.ImageBuildResponse{Body: io.NopCloser(strings.NewReader(d.stream))}, nil
}

func (d *fakeDocker) ImageList(context.Context, types.ImageListOptions) ([]types.ImageSummary, error) {
	return d.images, nil
}

func (d *fakeDocker) ImageRemove(_ context.Context, imageID string, _ types.ImageRemoveOptions) ([]types.ImageDeleteResponseItem, error) {
	d.removed = append(d.removed, imageID)
	return []types.ImageDeleteResponseItem{{Deleted: imageID}}, nil
}

func TestShellAction_ExpandsVariables(t *testing.T) {
	var out bytes.Buffer
	dir := t.TempDir()
	bc := &BuildContext{Arch: "riscv64", Jobs: 4, OutDir: dir, Stdout: &out, Stderr: io.Discard}

	action := ShellAction{
		Command: []string{"sh", "-c", "printf '%s-%s' $ARCH $JOBS"},
		Dir:     "$OUT_DIR/work/$ARCH",
	}
	require.NoError(t, action.Run(context.Background(), bc))

	assert.Equal(t, "riscv64-4", out.String())
	assert.DirExists(t, filepath.Join(dir, "work", "riscv64"))
}

func TestShellAction_Failure(t *testing.T) {
	bc := &BuildContext{Arch: "x86_64", Stdout: io.Discard, Stderr: io.Discard}

	err := ShellAction{Command: []string{"sh", "-c", "exit 3"}}.Run(context.Background(), bc)
	assert.Error(t, err)

	err = ShellAction{}.Run(context.Background(), bc)
	assert.Error(t, err)
}

func writeDockerfile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0o644))
	return dir
}

func TestImageAction(t *testing.T) {
	docker := &fakeDocker{stream: `{"stream":"Step 1/1 : FROM scratch\n"}` + "\n"}
	bc := &BuildContext{Arch: "arm64", SrcDir: writeDockerfile(t), Stdout: io.Discard, Docker: docker}

	action := ImageAction{Dockerfile: "Dockerfile", Context: ".", Tag: "buildwright/image"}
	require.NoError(t, action.Run(context.Background(), bc))

	require.Len(t, docker.options, 1)
	opts := docker.options[0]
	assert.Equal(t, []string{"buildwright/image:arm64"}, opts.Tags)
	assert.Equal(t, LabelValue, opts.Labels[LabelKey])
	require.NotNil(t, opts.BuildArgs["ARCH"])
	assert.Equal(t, "arm64", *opts.BuildArgs["ARCH"])
}

func TestImageAction_BuildError(t *testing.T) {
	docker := &fakeDocker{stream: `{"errorDetail":{"message":"no space left"},"error":"no space left"}` + "\n"}
	bc := &BuildContext{Arch: "arm64", SrcDir: writeDockerfile(t), Stdout: io.Discard, Docker: docker}

	err := ImageAction{Dockerfile: "Dockerfile", Context: ".", Tag: "img"}.Run(context.Background(), bc)
	assert.ErrorContains(t, err, "no space left")
}

func TestImageAction_NoDocker(t *testing.T) {
	err := ImageAction{Context: ".", Tag: "img"}.Run(context.Background(), &BuildContext{})
	assert.Error(t, err)
}

func TestRemoveImages(t *testing.T) {
	docker := &fakeDocker{images: []types.ImageSummary{{ID: "sha256:1"}, {ID: "sha256:2"}}}

	n, err := RemoveImages(context.Background(), docker)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"sha256:1", "sha256:2"}, docker.removed)
}

func TestBuildContext_Vars(t *testing.T) {
	bc := &BuildContext{Arch: "arm", HostArch: "x86_64", Jobs: 2, SrcDir: "/src"}

	assert.Equal(t, "/src/arm", bc.expand("$SRC_DIR/${ARCH}"))
	assert.Equal(t, "2", bc.Vars()["JOBS"])
	assert.Equal(t, "x86_64", bc.Vars()["HOST_ARCH"])
}
