package internal

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newComponent(name string, dependencies ...string) *Component {
	return &Component{
		name:         name,
		step:         GroupOnly{},
		dependencies: dependencies,
		requirements: NewRequirements(),
	}
}

func newTestRegistry(t *testing.T, components []*Component, aliases ...Alias) *Registry {
	t.Helper()
	reg, err := NewRegistry(&Definitions{Components: components, Aliases: aliases})
	require.NoError(t, err)
	return reg
}

func names(reg *Registry, components []*Component) []string {
	return NewDispatcher(reg).Plan(components)
}

// recordingAction records every run in a shared log.
type recordingAction struct {
	name string
	log  *[]string
	err  error
}

func (a recordingAction) Run(_ context.Context, bc *BuildContext) error {
	*a.log = append(*a.log, a.name+"@"+bc.Arch)
	return a.err
}

func (a recordingAction) Describe() string {
	return "record " + a.name
}

// fakeRunner records commands and fails the ones whose line contains failOn.
type fakeRunner struct {
	commands []string
	envs     [][]string
	failOn   string
}

func (r *fakeRunner) Run(_ context.Context, env []string, name string, args ...string) error {
	line := strings.Join(append([]string{name}, args...), " ")
	r.commands = append(r.commands, line)
	r.envs = append(r.envs, env)
	if r.failOn != "" && strings.Contains(line, r.failOn) {
		return errors.New("exit status 100")
	}
	return nil
}
