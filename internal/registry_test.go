package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConfiguration(t *testing.T) {
	a := newComponent("a")
	b := newComponent("b", "a")
	c := newComponent("c", "b")

	_, err := NewRegistry(&Definitions{Components: []*Component{a, b, c}})
	require.NoError(t, err, "Check failed but should have passed.")

	a = newComponent("a", "c")
	b = newComponent("b", "a")
	c = newComponent("c", "b")
	_, err = NewRegistry(&Definitions{Components: []*Component{a, b, c}})
	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr, "Check should have failed.")
	assert.Contains(t, err.Error(), "cyclic dependency")
}

func TestNewRegistry_SelfDependency(t *testing.T) {
	_, err := NewRegistry(&Definitions{Components: []*Component{newComponent("a", "a")}})
	assert.Error(t, err)
}

func TestNewRegistry_UnknownDependency(t *testing.T) {
	_, err := NewRegistry(&Definitions{Components: []*Component{newComponent("a", "missing")}})

	var configErr *ConfigError
	require.ErrorAs(t, err, &configErr)
	var unknown *UnknownTargetError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.Name)
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	_, err := NewRegistry(&Definitions{Components: []*Component{newComponent("a"), newComponent("a")}})
	assert.ErrorContains(t, err, "duplicate target name")
}

func TestNewRegistry_AliasCollidesWithTarget(t *testing.T) {
	_, err := NewRegistry(&Definitions{
		Components: []*Component{newComponent("a"), newComponent("b")},
		Aliases:    []Alias{{Name: "b", Target: "a"}},
	})
	assert.ErrorContains(t, err, "duplicate target name")
}

func TestNewRegistry_AliasToUnknownTarget(t *testing.T) {
	_, err := NewRegistry(&Definitions{
		Components: []*Component{newComponent("a")},
		Aliases:    []Alias{{Name: "x", Target: "nope"}},
	})
	var unknown *UnknownTargetError
	assert.ErrorAs(t, err, &unknown)
}

func TestNewRegistry_UndeclaredMirror(t *testing.T) {
	a := newComponent("a")
	a.requirements.ShallowMirrors.Add("linux")

	_, err := NewRegistry(&Definitions{Components: []*Component{a}})
	assert.ErrorContains(t, err, `undeclared mirror "linux"`)

	_, err = NewRegistry(&Definitions{
		Components: []*Component{a},
		Mirrors:    map[string]string{"linux": "https://example.com/linux.git"},
	})
	assert.NoError(t, err)
}

func TestRegistry_Lookup(t *testing.T) {
	a := newComponent("a")
	reg := newTestRegistry(t, []*Component{a})

	got, err := reg.Lookup("a")
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = reg.Lookup("b")
	var unknown *UnknownTargetError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "b", unknown.Name)
}

func TestRegistry_NamesAndAliases(t *testing.T) {
	kernel := newComponent("kernel")
	reg := newTestRegistry(t, []*Component{kernel, newComponent("all", "kernel")}, Alias{Name: "linux", Target: "kernel"})

	assert.Equal(t, []string{"all", "kernel", "linux"}, reg.Names())

	linux, err := reg.Lookup("linux")
	require.NoError(t, err)
	assert.Same(t, kernel, linux)
	assert.Equal(t, "kernel", reg.NameOf(linux))
}

func TestRegistry_MissingStepIsGroupOnly(t *testing.T) {
	a := &Component{name: "a"}
	reg := newTestRegistry(t, []*Component{a})

	got, err := reg.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, GroupOnly{}, got.Step())
}
