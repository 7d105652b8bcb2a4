package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownTask         = errors.New("unknown task")
	ErrSelfDependency      = errors.New("task cannot depend on itself")
	ErrDuplicateDependency = errors.New("dependency already exists")
	ErrCycleDetected       = errors.New("cycle detected")
)

// GraphError wraps a dependency graph failure with a readable detail.
type GraphError struct {
	Kind error
	Msg  string
	Path []string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func graphErrorf(kind error, format string, args ...any) error {
	return &GraphError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func cycleError(path []string) error {
	return &GraphError{Kind: ErrCycleDetected, Msg: strings.Join(path, " -> "), Path: path}
}
