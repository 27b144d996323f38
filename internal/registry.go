package internal

import (
	"fmt"
	"sort"
)

// Registry maps target names to components. It is never modified after NewRegistry returns.
type Registry struct {
	components      map[string]*Component
	names           map[int]string // identity -> first registered name
	mirrors         map[string]string
	crossToolchains map[string]StringSet
}

// Alias registers an additional name for an already declared component.
type Alias struct {
	Name   string
	Target string
}

// Definitions is the raw material a Registry is built from.
type Definitions struct {
	Components      []*Component
	Aliases         []Alias
	Mirrors         map[string]string // mirror id -> repository URL
	CrossToolchains map[string]StringSet
}

// NewRegistry validates defs and builds a registry from them.
func NewRegistry(defs *Definitions) (*Registry, error) {
	reg := &Registry{
		components:      make(map[string]*Component, len(defs.Components)+len(defs.Aliases)),
		names:           make(map[int]string, len(defs.Components)),
		mirrors:         make(map[string]string, len(defs.Mirrors)),
		crossToolchains: make(map[string]StringSet, len(defs.CrossToolchains)),
	}
	for id, url := range defs.Mirrors {
		reg.mirrors[id] = url
	}
	for arch, pkgs := range defs.CrossToolchains {
		reg.crossToolchains[arch] = NewStringSet(pkgs.Sorted()...)
	}

	for i, component := range defs.Components {
		if component.step == nil {
			component.step = GroupOnly{}
		}
		component.id = i
		if err := reg.register(component.name, component); err != nil {
			return nil, err
		}
	}
	for _, alias := range defs.Aliases {
		target, ok := reg.components[alias.Target]
		if !ok {
			return nil, &ConfigError{Err: fmt.Errorf("alias %s: %w", alias.Name, &UnknownTargetError{Name: alias.Target})}
		}
		if err := reg.register(alias.Name, target); err != nil {
			return nil, err
		}
	}

	if err := reg.checkConfiguration(); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *Registry) register(name string, component *Component) error {
	if name == "" {
		return &ConfigError{Err: fmt.Errorf("component with empty name")}
	}
	if _, exists := r.components[name]; exists {
		return &ConfigError{Err: fmt.Errorf("duplicate target name %q", name)}
	}
	r.components[name] = component
	if _, named := r.names[component.id]; !named {
		r.names[component.id] = name
	}
	return nil
}

// Lookup returns the component registered under name.
func (r *Registry) Lookup(name string) (*Component, error) {
	component, ok := r.components[name]
	if !ok {
		return nil, &UnknownTargetError{Name: name}
	}
	return component, nil
}

// Names returns every registered name, aliases included, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NameOf returns the name component was first registered under.
func (r *Registry) NameOf(component *Component) string {
	if name, ok := r.names[component.id]; ok && r.components[name] == component {
		return name
	}
	return component.name
}

// MirrorURL returns the repository URL of a mirror id.
func (r *Registry) MirrorURL(id string) (string, bool) {
	url, ok := r.mirrors[id]
	return url, ok
}

// CrossToolchains returns the cross compiler packages per target architecture.
func (r *Registry) CrossToolchains() map[string]StringSet {
	return r.crossToolchains
}

// checkConfiguration ensures every reference resolves and the dependency graph has no cycles.
func (r *Registry) checkConfiguration() error {
	for _, name := range r.Names() {
		component := r.components[name]
		for _, dependency := range component.dependencies {
			if _, ok := r.components[dependency]; !ok {
				return &ConfigError{Err: fmt.Errorf("%s depends on %w", name, &UnknownTargetError{Name: dependency})}
			}
		}
		for _, category := range []StringSet{component.requirements.Mirrors, component.requirements.ShallowMirrors} {
			for _, mirror := range category.Sorted() {
				if _, ok := r.mirrors[mirror]; !ok {
					return &ConfigError{Err: fmt.Errorf("%s needs undeclared mirror %q", name, mirror)}
				}
			}
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[int]int, len(r.names))
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		component := r.components[name]
		switch state[component.id] {
		case done:
			return nil
		case visiting:
			return &ConfigError{Err: fmt.Errorf("cyclic dependency found: %v", append(path, name))}
		}
		state[component.id] = visiting
		for _, dependency := range component.dependencies {
			if err := visit(dependency, append(path, name)); err != nil {
				return err
			}
		}
		state[component.id] = done
		return nil
	}
	for _, name := range r.Names() {
		if err := visit(name, nil); err != nil {
			return err
		}
	}
	return nil
}
