package internal

import (
	"context"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	log "github.com/sirupsen/logrus"
)

// Label put on every Docker resource buildwright creates.
const (
	LabelKey   = "used-by"
	LabelValue = "buildwright"
)

// DockerAPI is the part of the Docker client buildwright uses.
type DockerAPI interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
	ImageList(ctx context.Context, options types.ImageListOptions) ([]types.ImageSummary, error)
	ImageRemove(ctx context.Context, imageID string, options types.ImageRemoveOptions) ([]types.ImageDeleteResponseItem, error)
}

// NewDockerClient configures a client from the environment. It doesn't contact the daemon.
func NewDockerClient() (*client.Client, error) {
	return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
}

// buildImage builds the image for dockerfile in contextDir and streams the daemon output to out.
func buildImage(ctx context.Context, cli DockerAPI, contextDir, dockerfile, tag, arch string, out io.Writer) error {
	// Create a tar of the build context folder.
	tar, err := archive.TarWithOptions(contextDir, &archive.TarOptions{})
	if err != nil {
		return err
	}
	defer tar.Close()

	res, err := cli.ImageBuild(ctx, tar, types.ImageBuildOptions{
		Dockerfile:  dockerfile,
		PullParent:  true,
		Remove:      true,
		ForceRemove: true,
		Tags:        []string{tag},
		BuildArgs:   map[string]*string{"ARCH": &arch},
		Labels:      map[string]string{LabelKey: LabelValue},
	})
	if err != nil {
		return err
	}
	defer res.Body.Close()

	// Build failures only show up inside the message stream.
	return jsonmessage.DisplayJSONMessagesStream(res.Body, out, 0, false, nil)
}

// RemoveImages removes every image labelled as created by buildwright.
// It returns the number of images removed.
func RemoveImages(ctx context.Context, cli DockerAPI) (int, error) {
	images, err := cli.ImageList(ctx, types.ImageListOptions{
		Filters: filters.NewArgs(filters.Arg("label", LabelKey+"="+LabelValue)),
	})
	if err != nil {
		return 0, err
	}
	for i, image := range images {
		log.Infof("Removing image %s %v.", image.ID, image.RepoTags)
		if _, err := cli.ImageRemove(ctx, image.ID, types.ImageRemoveOptions{Force: true, PruneChildren: true}); err != nil {
			return i, err
		}
	}
	return len(images), nil
}
