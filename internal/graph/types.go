package graph

import (
	"fmt"
	"strings"
)

// RelationType is the kind of dependency between two tasks.
type RelationType string

const (
	FinishToStart  RelationType = "FS" // successor starts after predecessor finishes (most common)
	StartToStart   RelationType = "SS" // successor starts after predecessor starts
	FinishToFinish RelationType = "FF" // successor finishes after predecessor finishes
	StartToFinish  RelationType = "SF" // successor finishes after predecessor starts
)

// IsValid checks if the relation type is one of FS, SS, FF or SF.
func (r RelationType) IsValid() bool {
	switch r {
	case FinishToStart, StartToStart, FinishToFinish, StartToFinish:
		return true
	}
	return false
}

func (r RelationType) String() string {
	return string(r)
}

// ParseRelationType parses a relation code case-insensitively. An empty string
// means finish-to-start.
func ParseRelationType(s string) (RelationType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return FinishToStart, nil
	}
	r := RelationType(s)
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q (want FS, SS, FF or SF)", ErrInvalidRelation, s)
	}
	return r, nil
}

// Edge is one side of a dependency, stored on the task that owns it.
// On a predecessor list TaskID names the predecessor; on a successor list it
// names the successor. Lag is in working days and may be negative (lead).
type Edge struct {
	TaskID string       `json:"task_id"`
	Type   RelationType `json:"type"`
	Lag    int          `json:"lag"`
}

// Task is a schedulable unit of work.
type Task struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Duration     int      `json:"duration"` // working days
	Labels       []string `json:"labels,omitempty"`
	Predecessors []Edge   `json:"predecessors,omitempty"`
	Successors   []Edge   `json:"successors,omitempty"`
}

// HasLabel reports whether the task carries label l.
func (t *Task) HasLabel(l string) bool {
	for _, have := range t.Labels {
		if have == l {
			return true
		}
	}
	return false
}

// Link is a persisted relationship record: Successor depends on Predecessor.
type Link struct {
	Predecessor string       `json:"predecessor"`
	Successor   string       `json:"successor"`
	Type        RelationType `json:"type"`
	Lag         int          `json:"lag"`
}

// TaskGraph is a directed acyclic graph of tasks.
type TaskGraph struct {
	Tasks  map[string]*Task
	Order  []string // task IDs in input order
	Roots  []string // tasks with no predecessors in the graph
	Leaves []string // tasks with no successors in the graph
}
