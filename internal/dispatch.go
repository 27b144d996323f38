package internal

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Dispatcher realizes an expanded build list.
type Dispatcher struct {
	reg *Registry
}

// NewDispatcher returns a dispatcher naming components after reg.
func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

// Plan returns the registered names of components, in order. Nothing is run.
func (d *Dispatcher) Plan(components []*Component) []string {
	names := make([]string, len(components))
	for i, component := range components {
		names[i] = d.reg.NameOf(component)
	}
	return names
}

// Dispatch runs the action of each component in order and stops at the first failure.
// Components that don't support bc.Arch are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, components []*Component, bc *BuildContext) error {
	for _, component := range components {
		name := d.reg.NameOf(component)
		logger := log.WithField("target", name)

		if !component.Supports(bc.Arch) {
			logger.Warnf("Skipping %s, it doesn't support %s.", name, bc.Arch)
			continue
		}

		switch step := component.step.(type) {
		case Buildable:
			logger.Infof("Building %s.", name)
			if err := step.Action.Run(ctx, bc); err != nil {
				return &BuildActionError{Target: name, Err: err}
			}
			logger.Infof("%s built.", name)
		default:
			logger.Debugf("%s has nothing to build.", name)
		}
	}
	return nil
}
