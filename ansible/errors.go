package ansible

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDefinition        = errors.New("invalid module definition")
	ErrModuleNotFound    = errors.New("module not found")
	ErrMissingParameters = errors.New("missing required parameters")
	ErrTemplate          = errors.New("template rendering error")
	ErrMissingName       = errors.New("playbook must have a name")
	ErrMissingTasks      = errors.New("playbook must have at least one task")
	ErrOutput            = errors.New("unable to write playbook")
)

// DefinitionError reports a structurally invalid module, prompt or task definition.
// Item and Index locate the offending prompt/task/handler when there is one, Index is 1-based.
type DefinitionError struct {
	Module string
	Item   string
	Index  int
	Reason string
}

func (e *DefinitionError) Error() string {
	if e.Item != "" && e.Module != "" {
		return fmt.Sprintf("Module '%s', %s #%d: %s", e.Module, e.Item, e.Index, e.Reason)
	}
	if e.Module != "" {
		return fmt.Sprintf("Module '%s': %s", e.Module, e.Reason)
	}
	return e.Reason
}

func (e *DefinitionError) Is(target error) bool {
	return target == ErrDefinition
}

type NotFoundError struct {
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	available := "none"
	if len(e.Available) > 0 {
		available = strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("Module '%s' not found. Available modules: %s", e.Name, available)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrModuleNotFound
}

type MissingParametersError struct {
	Module  string
	Missing []string
}

func (e *MissingParametersError) Error() string {
	return fmt.Sprintf("Module '%s' missing required parameters: %s. Please provide values for these fields.",
		e.Module, strings.Join(e.Missing, ", "))
}

func (e *MissingParametersError) Is(target error) bool {
	return target == ErrMissingParameters
}

// TemplateError wraps the diagnostic of the expression engine.
type TemplateError struct {
	Template string
	Err      error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("Template rendering error in %q: %v", e.Template, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

func (e *TemplateError) Is(target error) bool {
	return target == ErrTemplate
}

type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("Failed to write playbook to '%s': %v", e.Path, e.Err)
}

func (e *OutputError) Unwrap() error {
	return e.Err
}

func (e *OutputError) Is(target error) bool {
	return target == ErrOutput
}
