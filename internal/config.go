package internal

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// DefaultTarget is built when no target is requested.
const DefaultTarget = "all"

// KnownArchitectures are the architectures targets may be restricted to.
var KnownArchitectures = []string{"arm", "arm64", "i386", "ppc64le", "riscv64", "x86_64"}

//go:embed targets.hcl
var defaultDefinitions []byte

var (
	defaultRegistry     *Registry
	defaultRegistryErr  error
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry built from the embedded target table.
func DefaultRegistry() (*Registry, error) {
	defaultRegistryOnce.Do(func() {
		defs, err := LoadDefinitions(defaultDefinitions, "targets.hcl")
		if err != nil {
			defaultRegistryErr = err
			return
		}
		defaultRegistry, defaultRegistryErr = NewRegistry(defs)
	})
	return defaultRegistry, defaultRegistryErr
}

type hclDefinitionsFile struct {
	Mirrors         []*hclMirror         `hcl:"mirror,block"`
	CrossToolchains []*hclCrossToolchain `hcl:"cross_toolchain,block"`
	Templates       []*hclTemplate       `hcl:"template,block"`
	Targets         []*hclTarget         `hcl:"target,block"`
	Aliases         []*hclAlias          `hcl:"alias,block"`
}

type hclMirror struct {
	ID  string `hcl:"id,label"`
	URL string `hcl:"url"`
}

type hclCrossToolchain struct {
	Arch     string   `hcl:"arch,label"`
	Packages []string `hcl:"packages"`
}

type hclRequirements struct {
	SystemPackages        []string `hcl:"system_packages,optional"`
	BuildDeps             []string `hcl:"build_deps,optional"`
	Mirrors               []string `hcl:"mirrors,optional"`
	ShallowMirrors        []string `hcl:"shallow_mirrors,optional"`
	LegacyRuntimePackages []string `hcl:"legacy_runtime_packages,optional"`
	RuntimePackages       []string `hcl:"runtime_packages,optional"`
}

type hclTemplate struct {
	Name     string           `hcl:"name,label"`
	Requires *hclRequirements `hcl:"requires,block"`
}

type hclTarget struct {
	Name          string           `hcl:"name,label"`
	From          string           `hcl:"from,optional"`
	DependsOn     []string         `hcl:"depends_on,optional"`
	Architectures []string         `hcl:"architectures,optional"`
	Requires      *hclRequirements `hcl:"requires,block"`
	Action        *hclAction       `hcl:"action,block"`
}

type hclAction struct {
	Kind       string   `hcl:"kind,label"`
	Command    []string `hcl:"command,optional"`
	Dir        string   `hcl:"dir,optional"`
	Dockerfile string   `hcl:"dockerfile,optional"`
	Context    string   `hcl:"context,optional"`
	Tag        string   `hcl:"tag,optional"`
}

type hclAlias struct {
	Name   string `hcl:"name,label"`
	Target string `hcl:"target"`
}

// evalContext exposes arch.<name> and arch.all to definition files.
func evalContext() *hcl.EvalContext {
	archs := make(map[string]cty.Value, len(KnownArchitectures)+1)
	all := make([]cty.Value, len(KnownArchitectures))
	for i, arch := range KnownArchitectures {
		archs[arch] = cty.StringVal(arch)
		all[i] = cty.StringVal(arch)
	}
	archs["all"] = cty.ListVal(all)
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"arch": cty.ObjectVal(archs)},
	}
}

// LoadDefinitions decodes a target definition file.
func LoadDefinitions(src []byte, filename string) (*Definitions, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, &ConfigError{Err: fmt.Errorf("failed to parse %s: %w", filename, diags)}
	}

	var parsed hclDefinitionsFile
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &parsed); diags.HasErrors() {
		return nil, &ConfigError{Err: fmt.Errorf("failed to decode %s: %w", filename, diags)}
	}

	defs := &Definitions{
		Mirrors:         make(map[string]string, len(parsed.Mirrors)),
		CrossToolchains: make(map[string]StringSet, len(parsed.CrossToolchains)),
	}
	for _, mirror := range parsed.Mirrors {
		if _, dup := defs.Mirrors[mirror.ID]; dup {
			return nil, &ConfigError{Err: fmt.Errorf("duplicate mirror %q", mirror.ID)}
		}
		defs.Mirrors[mirror.ID] = mirror.URL
	}
	for _, cross := range parsed.CrossToolchains {
		if err := checkArchitectures(cross.Arch); err != nil {
			return nil, err
		}
		defs.CrossToolchains[cross.Arch] = NewStringSet(cross.Packages...)
	}

	templates := make(map[string]Requirements, len(parsed.Templates))
	for _, tpl := range parsed.Templates {
		templates[tpl.Name] = tpl.Requires.requirements()
	}

	for _, target := range parsed.Targets {
		component, err := target.component(templates)
		if err != nil {
			return nil, err
		}
		defs.Components = append(defs.Components, component)
	}
	for _, alias := range parsed.Aliases {
		defs.Aliases = append(defs.Aliases, Alias{Name: alias.Name, Target: alias.Target})
	}
	return defs, nil
}

func (r *hclRequirements) requirements() Requirements {
	req := NewRequirements()
	if r == nil {
		return req
	}
	req.SystemPackages.Add(r.SystemPackages...)
	req.BuildDeps.Add(r.BuildDeps...)
	req.Mirrors.Add(r.Mirrors...)
	req.ShallowMirrors.Add(r.ShallowMirrors...)
	req.LegacyRuntimePackages.Add(r.LegacyRuntimePackages...)
	req.RuntimePackages.Add(r.RuntimePackages...)
	return req
}

// component builds a fresh Component. Templates are copied, so two targets
// created from one template are still distinct components.
func (t *hclTarget) component(templates map[string]Requirements) (*Component, error) {
	component := &Component{
		name:         t.Name,
		dependencies: t.DependsOn,
		requirements: NewRequirements(),
		step:         GroupOnly{},
	}

	if t.From != "" {
		tpl, ok := templates[t.From]
		if !ok {
			return nil, &ConfigError{Err: fmt.Errorf("target %s uses unknown template %q", t.Name, t.From)}
		}
		component.requirements = tpl.Copy()
	}
	component.requirements.Union(t.Requires.requirements())

	if t.Architectures != nil {
		if err := checkArchitectures(t.Architectures...); err != nil {
			return nil, err
		}
		component.architectures = NewStringSet(t.Architectures...)
	}

	if t.Action != nil {
		action, err := t.Action.action(t.Name)
		if err != nil {
			return nil, err
		}
		component.step = Buildable{Action: action}
	}
	return component, nil
}

func (a *hclAction) action(target string) (Action, error) {
	switch a.Kind {
	case "shell":
		if len(a.Command) == 0 {
			return nil, &ConfigError{Err: fmt.Errorf("target %s: shell action needs a command", target)}
		}
		return ShellAction{Command: a.Command, Dir: a.Dir}, nil
	case "image":
		if a.Context == "" || a.Tag == "" {
			return nil, &ConfigError{Err: fmt.Errorf("target %s: image action needs a context and a tag", target)}
		}
		dockerfile := a.Dockerfile
		if dockerfile == "" {
			dockerfile = "Dockerfile"
		}
		return ImageAction{Dockerfile: dockerfile, Context: a.Context, Tag: a.Tag}, nil
	default:
		return nil, &ConfigError{Err: fmt.Errorf("target %s: unknown action kind %q", target, a.Kind)}
	}
}

func checkArchitectures(archs ...string) error {
	known := NewStringSet(KnownArchitectures...)
	for _, arch := range archs {
		if !known.Has(arch) {
			return &ConfigError{Err: fmt.Errorf("unknown architecture %q", arch)}
		}
	}
	return nil
}
