package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCycle             = errors.New("dependency cycle detected")
	ErrDanglingReference = errors.New("dependency references unknown task")
	ErrInconsistentEdges = errors.New("predecessor and successor edges disagree")
	ErrInvalidRelation   = errors.New("invalid relation type")
	ErrNegativeDuration  = errors.New("negative task duration")
	ErrDuplicateTask     = errors.New("duplicate task id")
	ErrMissingID         = errors.New("task has no id")
)

// CycleError carries the task IDs forming a cycle, first ID repeated at the end.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycle, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// ValidationError aggregates every problem found by Validate.
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0].Error()
	}
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("%d problems: %s", len(e.Problems), strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() []error { return e.Problems }
