package internal

import "fmt"

// UnknownTargetError is returned when a name is not registered.
type UnknownTargetError struct {
	Name string
}

func (e *UnknownTargetError) Error() string {
	return fmt.Sprintf("unknown target %q", e.Name)
}

// BuildActionError is returned when a component's action fails.
type BuildActionError struct {
	Target string
	Err    error
}

func (e *BuildActionError) Error() string {
	return fmt.Sprintf("building %s: %v", e.Target, e.Err)
}

func (e *BuildActionError) Unwrap() error {
	return e.Err
}

// InstallationError is returned when a prerequisite category can't be installed.
type InstallationError struct {
	Category string
	Err      error
}

func (e *InstallationError) Error() string {
	return fmt.Sprintf("installing %s: %v", e.Category, e.Err)
}

func (e *InstallationError) Unwrap() error {
	return e.Err
}

// ConfigError reports an invalid definition table.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid target definitions: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
