package graph

import (
	"fmt"
)

// Build constructs a TaskGraph from tasks and persisted relationship records.
// Each link is mirrored onto both ends: the successor gains a predecessor edge
// and the predecessor gains a successor edge. Edges already present on the
// input tasks are kept as given.
//
// A link whose one end is missing is kept on the end that exists, so the
// scheduler sees it as a dangling reference. Links with neither end present
// are dropped. Exact duplicate (predecessor, successor, type, lag) links are
// collapsed; links differing only in lag are all kept.
func Build(tasks []Task, links []Link) (*TaskGraph, error) {
	g := &TaskGraph{
		Tasks: make(map[string]*Task, len(tasks)),
		Order: make([]string, 0, len(tasks)),
	}

	// Index all tasks, copying so the caller's slices are never aliased
	for i := range tasks {
		t := tasks[i]
		if t.ID == "" {
			return nil, fmt.Errorf("task #%d: %w", i, ErrMissingID)
		}
		if _, dup := g.Tasks[t.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTask, t.ID)
		}
		t.Labels = append([]string(nil), t.Labels...)
		t.Predecessors = append([]Edge(nil), t.Predecessors...)
		t.Successors = append([]Edge(nil), t.Successors...)
		g.Tasks[t.ID] = &t
		g.Order = append(g.Order, t.ID)
	}

	type linkKey struct {
		pred, succ string
		typ        RelationType
		lag        int
	}
	seen := make(map[linkKey]bool, len(links))

	for _, l := range links {
		typ, err := ParseRelationType(string(l.Type))
		if err != nil {
			return nil, fmt.Errorf("link %s -> %s: %w", l.Predecessor, l.Successor, err)
		}
		key := linkKey{l.Predecessor, l.Successor, typ, l.Lag}
		if seen[key] {
			continue
		}
		seen[key] = true

		pred, hasPred := g.Tasks[l.Predecessor]
		succ, hasSucc := g.Tasks[l.Successor]
		if hasSucc {
			succ.Predecessors = append(succ.Predecessors, Edge{TaskID: l.Predecessor, Type: typ, Lag: l.Lag})
		}
		if hasPred {
			pred.Successors = append(pred.Successors, Edge{TaskID: l.Successor, Type: typ, Lag: l.Lag})
		}
	}

	g.index()

	if cycle := g.DetectCycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}

	return g, nil
}

// index recomputes Roots and Leaves, ignoring edges to tasks outside the graph.
func (g *TaskGraph) index() {
	g.Roots, g.Leaves = nil, nil
	for _, id := range g.Order {
		t := g.Tasks[id]
		if !g.anyKnown(t.Predecessors) {
			g.Roots = append(g.Roots, id)
		}
		if !g.anyKnown(t.Successors) {
			g.Leaves = append(g.Leaves, id)
		}
	}
}

func (g *TaskGraph) anyKnown(edges []Edge) bool {
	for _, e := range edges {
		if _, ok := g.Tasks[e.TaskID]; ok {
			return true
		}
	}
	return false
}

// DetectCycle returns the cycle path if one exists, or nil if the graph is acyclic.
// Walks successor edges with white/gray/black coloring on an explicit stack;
// reaching a gray task again closes a cycle. The returned path starts and ends
// on the same task.
func (g *TaskGraph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	type frame struct {
		id   string
		next int // index of the next successor edge to follow
	}

	color := make(map[string]int, len(g.Tasks))

	for _, root := range g.Order {
		if color[root] != white {
			continue
		}

		color[root] = gray
		stack := []frame{{id: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			succs := g.Tasks[top.id].Successors
			if top.next == len(succs) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}

			next := succs[top.next].TaskID
			top.next++
			if _, ok := g.Tasks[next]; !ok {
				continue
			}

			switch color[next] {
			case gray:
				// Found a cycle: the stack from next upwards is the loop
				var cycle []string
				for i := range stack {
					if stack[i].id == next {
						for _, f := range stack[i:] {
							cycle = append(cycle, f.id)
						}
						break
					}
				}
				return append(cycle, next)
			case white:
				color[next] = gray
				stack = append(stack, frame{id: next})
			}
		}
	}
	return nil
}

// TaskCount returns the number of tasks in the graph.
func (g *TaskGraph) TaskCount() int {
	return len(g.Tasks)
}

// TaskList returns copies of the graph's tasks in input order.
func (g *TaskGraph) TaskList() []Task {
	out := make([]Task, 0, len(g.Order))
	for _, id := range g.Order {
		out = append(out, *g.Tasks[id])
	}
	return out
}

// Filter returns a new TaskGraph containing only tasks matching the predicate.
// Edges to filtered-out tasks are dropped; edges that already dangled are kept.
func (g *TaskGraph) Filter(pred func(*Task) bool) (*TaskGraph, error) {
	keep := make(map[string]bool)
	for _, id := range g.Order {
		if pred(g.Tasks[id]) {
			keep[id] = true
		}
	}

	dropped := func(id string) bool {
		_, inGraph := g.Tasks[id]
		return inGraph && !keep[id]
	}
	prune := func(edges []Edge) []Edge {
		var out []Edge
		for _, e := range edges {
			if !dropped(e.TaskID) {
				out = append(out, e)
			}
		}
		return out
	}

	var filtered []Task
	for _, id := range g.Order {
		if !keep[id] {
			continue
		}
		t := *g.Tasks[id]
		t.Predecessors = prune(t.Predecessors)
		t.Successors = prune(t.Successors)
		filtered = append(filtered, t)
	}
	return Build(filtered, nil)
}
