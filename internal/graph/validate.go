package graph

import (
	"fmt"
)

// Validate checks a task list for the preconditions the scheduler otherwise
// tolerates: unique non-empty IDs, non-negative durations, known relation
// types, edges that resolve to tasks in the list, predecessor/successor lists
// that mirror each other, and the absence of cycles.
//
// All problems are collected into a *ValidationError.
func Validate(tasks []Task) error {
	var problems []error
	index := make(map[string]*Task, len(tasks))
	order := make([]string, 0, len(tasks))

	for i := range tasks {
		t := &tasks[i]
		if t.ID == "" {
			problems = append(problems, fmt.Errorf("task #%d: %w", i, ErrMissingID))
			continue
		}
		if _, dup := index[t.ID]; dup {
			problems = append(problems, fmt.Errorf("%w: %s", ErrDuplicateTask, t.ID))
			continue
		}
		index[t.ID] = t
		order = append(order, t.ID)
		if t.Duration < 0 {
			problems = append(problems, fmt.Errorf("task %s: %w (%d)", t.ID, ErrNegativeDuration, t.Duration))
		}
	}

	for _, id := range order {
		t := index[id]
		problems = append(problems, checkEdges(index, t, t.Predecessors, "predecessor")...)
		problems = append(problems, checkEdges(index, t, t.Successors, "successor")...)
	}

	g := &TaskGraph{Tasks: index, Order: order}
	if cycle := g.DetectCycle(); cycle != nil {
		problems = append(problems, &CycleError{Path: cycle})
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// checkEdges validates one edge list of t. side names the list being checked;
// the mirror lives on the opposite list of the referenced task.
func checkEdges(index map[string]*Task, t *Task, edges []Edge, side string) []error {
	var problems []error
	for _, e := range edges {
		if _, err := ParseRelationType(string(e.Type)); err != nil {
			problems = append(problems, fmt.Errorf("task %s %s %s: %w: %q", t.ID, side, e.TaskID, ErrInvalidRelation, e.Type))
		}

		other, ok := index[e.TaskID]
		if !ok {
			problems = append(problems, fmt.Errorf("task %s %s %s: %w", t.ID, side, e.TaskID, ErrDanglingReference))
			continue
		}

		mirror := other.Predecessors
		if side == "predecessor" {
			mirror = other.Successors
		}
		if !containsEdge(mirror, Edge{TaskID: t.ID, Type: e.Type, Lag: e.Lag}) {
			problems = append(problems, fmt.Errorf("task %s %s %s (%s, lag %d): %w",
				t.ID, side, e.TaskID, e.Type, e.Lag, ErrInconsistentEdges))
		}
	}
	return problems
}

// containsEdge matches edges by task, lag and relation type, comparing types
// in their parsed form so "", "fs" and "FS" are the same relation.
func containsEdge(edges []Edge, want Edge) bool {
	want.Type = normalRelation(want.Type)
	for _, e := range edges {
		e.Type = normalRelation(e.Type)
		if e == want {
			return true
		}
	}
	return false
}

// normalRelation returns the parsed relation type, or t unchanged when it does
// not parse.
func normalRelation(t RelationType) RelationType {
	if r, err := ParseRelationType(string(t)); err == nil {
		return r
	}
	return t
}
