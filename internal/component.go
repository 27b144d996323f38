package internal

import (
	"context"
	"sort"
)

// Component represents a target that buildwright knows how to build.
type Component struct {
	id            int    // identity handle, shared by aliases
	name          string // first name the component was registered under
	step          Step
	architectures StringSet // nil means every architecture
	dependencies  []string  // built before this component, in this order
	requirements  Requirements
}

// Name returns the name the component was declared with.
func (c *Component) Name() string {
	return c.name
}

// Dependencies returns the names of the components that must be built first.
func (c *Component) Dependencies() []string {
	return append([]string(nil), c.dependencies...)
}

// Requirements returns the external prerequisites declared by the component.
func (c *Component) Requirements() Requirements {
	return c.requirements
}

// Step returns what dispatching the component does.
func (c *Component) Step() Step {
	return c.step
}

// Architectures returns the sorted supported architectures, or nil when unrestricted.
func (c *Component) Architectures() []string {
	if c.architectures == nil {
		return nil
	}
	return c.architectures.Sorted()
}

// Supports reports whether the component's action may run for arch.
func (c *Component) Supports(arch string) bool {
	return c.architectures == nil || c.architectures.Has(arch)
}

// Step is either Buildable or GroupOnly.
type Step interface {
	isStep()
}

// Buildable is a step that runs an action.
type Buildable struct {
	Action Action
}

// GroupOnly is a step that only bundles dependencies.
type GroupOnly struct{}

func (Buildable) isStep() {}
func (GroupOnly) isStep() {}

// Action performs the actual build work of a component.
type Action interface {
	Run(ctx context.Context, bc *BuildContext) error
	Describe() string
}

// Requirements groups the external prerequisites of one or more components.
type Requirements struct {
	SystemPackages        StringSet
	BuildDeps             StringSet
	Mirrors               StringSet
	ShallowMirrors        StringSet
	LegacyRuntimePackages StringSet
	RuntimePackages       StringSet
}

// NewRequirements returns Requirements with every set allocated.
func NewRequirements() Requirements {
	return Requirements{
		SystemPackages:        StringSet{},
		BuildDeps:             StringSet{},
		Mirrors:               StringSet{},
		ShallowMirrors:        StringSet{},
		LegacyRuntimePackages: StringSet{},
		RuntimePackages:       StringSet{},
	}
}

// Union adds every entry of other to r.
func (r Requirements) Union(other Requirements) {
	r.SystemPackages.Union(other.SystemPackages)
	r.BuildDeps.Union(other.BuildDeps)
	r.Mirrors.Union(other.Mirrors)
	r.ShallowMirrors.Union(other.ShallowMirrors)
	r.LegacyRuntimePackages.Union(other.LegacyRuntimePackages)
	r.RuntimePackages.Union(other.RuntimePackages)
}

// Copy returns a deep copy of r.
func (r Requirements) Copy() Requirements {
	c := NewRequirements()
	c.Union(r)
	return c
}

// StringSet is an unordered set of identifiers.
type StringSet map[string]struct{}

// NewStringSet returns a set holding values.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	s.Add(values...)
	return s
}

func (s StringSet) Add(values ...string) {
	for _, v := range values {
		s[v] = struct{}{}
	}
}

func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s StringSet) Union(other StringSet) {
	for v := range other {
		s[v] = struct{}{}
	}
}

func (s StringSet) Remove(values ...string) {
	for _, v := range values {
		delete(s, v)
	}
}

// Sorted returns the members in lexical order.
func (s StringSet) Sorted() []string {
	values := make([]string, 0, len(s))
	for v := range s {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
